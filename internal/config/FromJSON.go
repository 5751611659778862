// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type jsonSqliteConfig struct {
	FileName string `json:"fileName"`
}

type jsonWebConfig struct {
	Enabled *bool  `json:"enabled"`
	Address string `json:"address"`
}

type jsonLogConfig struct {
	Level      string `json:"level"`
	FileName   string `json:"fileName"`
	MaxSizeMB  *int   `json:"maxSizeMB"`
	MaxBackups *int   `json:"maxBackups"`
	MaxAgeDays *int   `json:"maxAgeDays"`
	Compress   *bool  `json:"compress"`
}

type jsonConfig struct {
	LogFile      string `json:"logFile"`
	PollInterval string `json:"pollInterval"`

	Sqlite *jsonSqliteConfig `json:"sqlite"`
	Web    *jsonWebConfig    `json:"web"`
	Log    *jsonLogConfig    `json:"log"`
}

func Default() *Config {
	return &Config{
		PollInterval: 1 * time.Minute,

		SQLite: &SqliteConfig{
			DatabaseFile: "maildunk.db",
		},

		Web: &WebConfig{
			Enabled: true,
			Address: ":8080",
		},

		Log: &LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// FromJSON reads a JSON configuration and returns it merged over the defaults.
func FromJSON(r io.Reader) (*Config, error) {
	var jsonCfg jsonConfig
	if err := json.NewDecoder(r).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding JSON config: %w", err)
	}

	cfg := Default()
	cfg.LogFile = jsonCfg.LogFile
	if jsonCfg.PollInterval != "" {
		interval, err := time.ParseDuration(jsonCfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("error parsing pollInterval='%s': %w", jsonCfg.PollInterval, err)
		}
		cfg.PollInterval = interval
	}
	if jsonCfg.Sqlite != nil && jsonCfg.Sqlite.FileName != "" {
		cfg.SQLite.DatabaseFile = jsonCfg.Sqlite.FileName
	}
	if jsonCfg.Web != nil {
		if jsonCfg.Web.Enabled != nil {
			cfg.Web.Enabled = *jsonCfg.Web.Enabled
		}
		if jsonCfg.Web.Address != "" {
			cfg.Web.Address = jsonCfg.Web.Address
		}
	}
	if jsonCfg.Log != nil {
		if jsonCfg.Log.Level != "" {
			cfg.Log.Level = jsonCfg.Log.Level
		}
		cfg.Log.FileName = jsonCfg.Log.FileName
		if jsonCfg.Log.MaxSizeMB != nil {
			cfg.Log.MaxSizeMB = *jsonCfg.Log.MaxSizeMB
		}
		if jsonCfg.Log.MaxBackups != nil {
			cfg.Log.MaxBackups = *jsonCfg.Log.MaxBackups
		}
		if jsonCfg.Log.MaxAgeDays != nil {
			cfg.Log.MaxAgeDays = *jsonCfg.Log.MaxAgeDays
		}
		if jsonCfg.Log.Compress != nil {
			cfg.Log.Compress = *jsonCfg.Log.Compress
		}
	}
	return cfg, nil
}
