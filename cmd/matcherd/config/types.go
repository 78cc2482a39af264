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

type MatcherdConfig struct {
	// Listen is the TCP address the daemon binds, e.g. "0.0.0.0:5000".
	Listen string `yaml:"listen"`

	// ChunkSize bounds candidates per oracle call.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkParallelism bounds concurrent oracle calls within one round.
	ChunkParallelism int `yaml:"chunk_parallelism"`

	// OracleTimeoutSeconds bounds one oracle call.
	OracleTimeoutSeconds int `yaml:"oracle_timeout_seconds"`

	// Backend selects and configures the oracle LLM provider.
	Backend BackendConfig `yaml:"backend"`
}

type BackendConfig struct {
	// Type can be "ollama" or "openai".
	Type string `yaml:"type"`

	// BaseURL points at the provider. For openai it may be any
	// OpenAI-compatible endpoint; empty means api.openai.com.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model is the model name, e.g. "gemma3:12b".
	Model string `yaml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key
	// (openai backend). The key itself never lives in the file.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

func DefaultConfig() MatcherdConfig {
	return MatcherdConfig{
		Listen:               "0.0.0.0:5000",
		ChunkSize:            20,
		ChunkParallelism:     4,
		OracleTimeoutSeconds: 120,
		Backend: BackendConfig{
			Type:    "ollama",
			BaseURL: "http://127.0.0.1:11434",
			Model:   "gemma3:12b",
		},
	}
}
