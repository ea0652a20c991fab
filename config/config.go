/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the application configuration from a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/tomoncle/anvil/database"
	"github.com/tomoncle/anvil/logging"
	"gopkg.in/yaml.v3"
)

// Config is the root of anvil.yaml:
//
//	database:
//	  connection: {type: postgres, host: localhost, port: 5432, dbname: app}
//	  migrate: {enable_migrate_on_startup: true}
//	  init: {environment: dev, filepath: configs/sql}
//	log: {level: debug, format: text}
type Config struct {
	Database database.Config `yaml:"database" json:"database" envPrefix:"DB_"`
	Log      logging.Config  `yaml:"log" json:"log"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConfig(),
		Log:      logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies DB_* and LOG_* variables.
// An empty path or a missing file yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}
