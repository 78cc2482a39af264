// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command gateway starts the GameMatcher REST gateway HTTP server.
//
// This is the main entry point for the containerized gateway service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - GATEWAY_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: oracle provider - ollama, openai (default: ollama)
//   - OLLAMA_BASE_URL: Ollama server URL (default: http://127.0.0.1:11434)
//   - OLLAMA_MODEL: Ollama model name (default: gemma3:12b)
//   - OPENAI_API_KEY: API key for the openai backend
//   - OPENAI_BASE_URL: OpenAI-compatible endpoint override (optional)
//   - OPENAI_MODEL: model name for the openai backend
//   - MATCHER_CHUNK_SIZE: candidates per oracle call (default: 20)
//   - MATCHER_CHUNK_PARALLELISM: concurrent chunk calls per round (default: 4)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//   - ENABLE_METRICS: expose Prometheus /metrics when "true" (default: true)
//
// # Usage
//
//	# Build
//	go build -o gateway ./cmd/gateway
//
//	# Run
//	./gateway
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/GameMatcher/services/gateway"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := gateway.Config{
		Port:             getEnvInt("GATEWAY_PORT", 12310),
		LLMBackend:       getEnvString("LLM_BACKEND_TYPE", "ollama"),
		OllamaBaseURL:    os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:      os.Getenv("OLLAMA_MODEL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		ChunkSize:        getEnvInt("MATCHER_CHUNK_SIZE", 0),
		ChunkParallelism: getEnvInt("MATCHER_CHUNK_PARALLELISM", 0),
		OTelEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EnableMetrics:    getEnvString("ENABLE_METRICS", "true") == "true",
	}

	slog.Info("Starting matcher gateway",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
	)

	svc, err := gateway.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Gateway error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
