//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package env

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration from r. Unset fields get
// their default values and the result is validated.
func LoadConfig(r io.Reader) (*Config, error) {
	config := new(Config)
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, Wrap(ConfigurationError, "load", err)
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigFile reads the YAML configuration file.
func LoadConfigFile(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Wrap(ConfigurationError, "load", err)
	}
	defer f.Close()
	return LoadConfig(f)
}
