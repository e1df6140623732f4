package actions

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/rdbms/shared"
)

type ConnectionConfig struct {
	ConfigFile *config.File
	Spec       shared.ConnectionSpec
	Force      bool
	Output     string
	Stdout     io.Writer
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	if err := cfg.Spec.Validate(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	// Check for an existing saved connection.
	existing := shared.ConnectionSpec{}
	err := cfg.ConfigFile.Get(cfg.Spec.LogicalName, &existing)
	if err == nil && !cfg.Force {
		return fmt.Errorf("connection %q exists, use force to update the connection or remove it first", cfg.Spec.LogicalName)
	}
	if err != nil && !errors.As(err, &config.KeyNotFoundError{}) {
		return err
	}
	if err := config.AddConnection(cfg.ConfigFile, cfg.Spec); err != nil {
		return err
	}
	fmt.Fprintf(stdoutIfNil(cfg.Stdout), "Connection %q added\n", cfg.Spec.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if cfg.Spec.LogicalName == "" {
		return errors.New("missing connection name")
	}
	if err := config.RemoveConnection(cfg.ConfigFile, cfg.Spec.LogicalName); err != nil {
		return err
	}
	fmt.Fprintf(stdoutIfNil(cfg.Stdout), "Connection %q removed\n", cfg.Spec.LogicalName)
	return nil
}

// RunConnectionList prints every saved connection with passwords redacted.
func RunConnectionList(cfg *ConnectionConfig) error {
	w := stdoutIfNil(cfg.Stdout)
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	all := make(map[string]shared.ConnectionSpec, len(keys))
	for _, k := range keys {
		s := shared.ConnectionSpec{}
		if err := cfg.ConfigFile.Get(k, &s); err != nil {
			return err
		}
		s.LogicalName = k
		if cfg.Output == OutputFormatText {
			fmt.Fprintf(w, "%v:\n%v\n", k, s)
			continue
		}
		all[k] = redactSpec(s)
	}
	if cfg.Output == OutputFormatText {
		return nil
	}
	return writeYamlOrJson(w, all, cfg.Output)
}

func redactSpec(s shared.ConnectionSpec) shared.ConnectionSpec {
	if s.Password != "" {
		s.Password = "xxxxx"
	}
	s.ConnString = shared.RedactConnString(s.ConnString)
	if s.Dsn != "" {
		s.Dsn = shared.DsnConnectionDetails{Dsn: s.Dsn}.String()
	}
	return s
}
