package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
)

// Store persists the raw bytes of a config document.
type Store interface {
	Get() ([]byte, error)
	Set(b []byte) error
	Path() string
}

// EncryptedFile stores a document as base64 AES-GCM cipher text.
type EncryptedFile struct {
	FullPath string
	key      []byte
	mu       sync.Mutex
}

// NewEncryptedFile uses a 32 byte key to protect the file at dir/filename.
func NewEncryptedFile(dir string, filename string, key []byte) (*EncryptedFile, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %v", len(key))
	}
	return &EncryptedFile{FullPath: filepath.Join(dir, filename), key: key}, nil
}

func (f *EncryptedFile) Path() string {
	return f.FullPath
}

func (f *EncryptedFile) Set(text []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sealedBytes, err := Encrypt(text, f.key)
	if err != nil {
		return err
	}
	if err := makeDir(filepath.Dir(f.FullPath)); err != nil {
		return err
	}
	b64 := base64.StdEncoding.EncodeToString(sealedBytes)
	return ioutil.WriteFile(f.FullPath, []byte(b64), 0600)
}

func (f *EncryptedFile) Get() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !fileExists(f.FullPath) {
		return nil, FileNotFoundError{f.FullPath}
	}
	b64, err := ioutil.ReadFile(f.FullPath)
	if err != nil {
		return nil, err
	}
	cipherText, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b64)))
	if err != nil {
		return nil, errors.Wrapf(err, "config file %v is not encrypted", f.FullPath)
	}
	b, err := Decrypt(cipherText, f.key)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decrypt config file %v (check %v)", f.FullPath, constants.EnvVarConfigKey)
	}
	return b, nil
}

// Encrypt seals text with AES-GCM and prefixes the random nonce.
func Encrypt(text []byte, key []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	// The nonce must be unique for all time for a given key.
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, text, nil), nil
}

func Decrypt(text []byte, key []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(text) < nonceSize {
		return nil, fmt.Errorf("encrypted text is too short")
	}
	nonce, cipherText := text[:nonceSize], text[nonceSize:]
	return gcm.Open(nil, nonce, cipherText, nil)
}

// LoadOrCreateKey returns the key used for encrypted config files.
// A passphrase in TL_CONFIG_KEY is hashed into the key. Otherwise a random key is kept in
// dir/.key and created on first use.
func LoadOrCreateKey(dir string) ([]byte, error) {
	if pass := os.Getenv(constants.EnvVarConfigKey); pass != "" {
		k := sha256.Sum256([]byte(pass))
		return k[:], nil
	}
	keyFile := filepath.Join(dir, KeyFileName)
	if fileExists(keyFile) {
		b, err := ioutil.ReadFile(keyFile)
		if err != nil {
			return nil, err
		}
		k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
		if err != nil || len(k) != 32 {
			return nil, fmt.Errorf("key file %v is corrupt", keyFile)
		}
		return k, nil
	}
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return nil, err
	}
	if err := makeDir(dir); err != nil {
		return nil, err
	}
	if err := ioutil.WriteFile(keyFile, []byte(base64.StdEncoding.EncodeToString(k)), 0600); err != nil {
		return nil, errors.Wrap(err, "unable to save config key")
	}
	return k, nil
}

// PlainFile stores a document as is. Used for the hand edited jobs file.
type PlainFile struct {
	FullPath string
}

func NewPlainFile(dir string, filename string) *PlainFile {
	return &PlainFile{FullPath: filepath.Join(dir, filename)}
}

func (f *PlainFile) Path() string {
	return f.FullPath
}

func (f *PlainFile) Get() ([]byte, error) {
	if !fileExists(f.FullPath) {
		return nil, FileNotFoundError{f.FullPath}
	}
	return ioutil.ReadFile(f.FullPath)
}

func (f *PlainFile) Set(b []byte) error {
	if err := makeDir(filepath.Dir(f.FullPath)); err != nil {
		return err
	}
	return ioutil.WriteFile(f.FullPath, b, 0644)
}
