package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/relloyd/tableload/constants"
)

const (
	MainDir                       = ".tableload"
	ConnectionsConfigFileFullName = "connections.yaml"
	JobsConfigFileFullName        = "jobs.yaml"
	KeyFileName                   = ".key"
)

// HomeDir returns the directory that stores all config files.
// TL_HOME takes precedence over ~/.tableload.
func HomeDir() (string, error) {
	if d := os.Getenv(constants.EnvVarHome); d != "" {
		return d, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to find the home directory: %v", err)
	}
	return filepath.Join(home, MainDir), nil
}

// makeDir wll make the given directory if it does not already exist.
// If it exist then return nil.
// An error is returned if there is a problem creating the dir.
func makeDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("error creating directory %v: %v", dir, err)
	}
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// OpenConnectionsFile opens the encrypted connections store in dir, creating its key on first use.
func OpenConnectionsFile(dir string) (*File, error) {
	key, err := LoadOrCreateKey(dir)
	if err != nil {
		return nil, err
	}
	s, err := NewEncryptedFile(dir, ConnectionsConfigFileFullName, key)
	if err != nil {
		return nil, err
	}
	return NewFile(s), nil
}

// OpenJobsFile opens the plain YAML jobs file in dir.
func OpenJobsFile(dir string) *File {
	return NewFile(NewPlainFile(dir, JobsConfigFileFullName))
}
