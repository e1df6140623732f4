package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

type KeyNotFoundError struct {
	configFile string
	key        string
}

func (k KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a YAML document of top level keys whose values are decoded into structs on demand.
// A missing file behaves as an empty document.
type File struct {
	store        Store
	data         map[string]interface{}
	dataIsLoaded bool
	mu           sync.Mutex
}

func NewFile(store Store) *File {
	return &File{store: store, data: make(map[string]interface{})}
}

func (c *File) Path() string {
	return c.store.Path()
}

// Get will fetch the key from the config File into variable, out.
// Return an error if we can't find the key.
func (c *File) Get(key string, out interface{}) error {
	if reflect.ValueOf(out).Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadData(); err != nil {
		return err
	}
	d, ok := c.data[key]
	if !ok {
		return KeyNotFoundError{c.store.Path(), key}
	}
	if err := mapstructure.Decode(d, out); err != nil {
		return fmt.Errorf("error decoding key %q in config file %v: %v", key, c.store.Path(), err)
	}
	return nil
}

func (c *File) Set(key string, val interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadData(); err != nil {
		return err
	}
	c.data[key] = val
	return c.save()
}

func (c *File) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadData(); err != nil {
		return err
	}
	if _, keyExists := c.data[key]; !keyExists {
		return KeyNotFoundError{c.store.Path(), key}
	}
	delete(c.data, key)
	return c.save()
}

// GetAllKeys returns the sorted top level keys.
func (c *File) GetAllKeys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadData(); err != nil {
		return nil, err
	}
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval, nil
}

func (c *File) loadData() error {
	if c.dataIsLoaded {
		return nil
	}
	b, err := c.store.Get()
	if err != nil {
		if errors.As(err, &FileNotFoundError{}) { // an absent file is an empty document.
			c.dataIsLoaded = true
			return nil
		}
		return err
	}
	return c.unmarshal(b)
}

// save writes the document and reloads it so values set as structs are held in decoded form.
func (c *File) save() error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data for config file %v: %v", c.store.Path(), err)
	}
	if err := c.store.Set(b); err != nil {
		return err
	}
	return c.unmarshal(b)
}

func (c *File) unmarshal(b []byte) error {
	data := make(map[string]interface{})
	if err := yaml.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("error reading config file %v: %v", c.store.Path(), err)
	}
	c.data = data
	c.dataIsLoaded = true
	return nil
}
