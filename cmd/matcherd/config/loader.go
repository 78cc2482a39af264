// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the daemon config from path, creating a default file on
// first run. An empty path resolves to ~/.gamematcher/matcherd.yaml.
// Fields left zero in the file fall back to DefaultConfig values.
func Load(path string) (MatcherdConfig, error) {
	var cfg MatcherdConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("could not find the user's home directory: %w", err)
		}
		path = filepath.Join(home, ".gamematcher", "matcherd.yaml")
	}

	// create it if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file: %w", err)
	}

	return applyDefaults(cfg), nil
}

func applyDefaults(cfg MatcherdConfig) MatcherdConfig {
	def := DefaultConfig()
	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkParallelism <= 0 {
		cfg.ChunkParallelism = def.ChunkParallelism
	}
	if cfg.OracleTimeoutSeconds <= 0 {
		cfg.OracleTimeoutSeconds = def.OracleTimeoutSeconds
	}
	if cfg.Backend.Type == "" {
		cfg.Backend = def.Backend
	}
	return cfg
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
