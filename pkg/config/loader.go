package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File names expected under the configuration directory
const (
	ConnectionFile = "config.yaml"
	DataTypesFile  = "data_types.yaml"
)

// ErrMissingConfig is returned when a configuration file does not exist
var ErrMissingConfig = errors.New("missing configuration")

// Load reads dir/name and decodes its YAML into a new T. A missing file
// yields an error wrapping ErrMissingConfig.
func Load[T any](dir, name string) (*T, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s must exist in %s", ErrMissingConfig, name, dir)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := new(T)
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}
