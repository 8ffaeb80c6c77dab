// Copyright 2025 The filecat Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads filecatctl configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the controller CLI configuration.
type Config struct {
	// Endpoint is the agent's base URL.
	Endpoint    string `mapstructure:"endpoint" validate:"required,url"`
	AccessToken string `mapstructure:"access_token"`

	Become     bool   `mapstructure:"become"`
	BecomeUser string `mapstructure:"become_user"`

	// BaseDir anchors relative task sources outside of roles.
	BaseDir string `mapstructure:"base_dir"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=0"`
}

const envPrefix = "FILECATCTL"

// Load reads configuration with this precedence: environment variables over
// the config file over built-in defaults. path may be empty, in which case
// well-known locations are tried and a missing file is fine.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults double as env bindings: AutomaticEnv only surfaces keys
	// viper already knows about.
	v.SetDefault("endpoint", "http://127.0.0.1:44710")
	v.SetDefault("access_token", "")
	v.SetDefault("become", false)
	v.SetDefault("become_user", "root")
	v.SetDefault("base_dir", ".")
	v.SetDefault("request_timeout", 30*time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("filecatctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/filecat")
		v.AddConfigPath("/etc/filecat")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
