// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// matcherd is the framed TCP matching daemon. Clients connect, send
// length-prefixed JSON job documents and receive one response frame per
// job on the same connection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/GameMatcher/cmd/matcherd/config"
	"github.com/AleutianAI/GameMatcher/services/llm"
	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"github.com/AleutianAI/GameMatcher/services/matcherd"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "path to matcherd.yaml (default ~/.gamematcher/matcherd.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load the daemon config", "error", err)
		os.Exit(1)
	}

	observability.InitMetrics()

	llmClient, err := buildLLMClient(cfg.Backend)
	if err != nil {
		slog.Error("Failed to initialize the LLM backend", "error", err)
		os.Exit(1)
	}

	oracle := matcher.NewOracle(llmClient, time.Duration(cfg.OracleTimeoutSeconds)*time.Second)
	tournament := matcher.NewTournament(oracle, cfg.ChunkSize, cfg.ChunkParallelism)
	dispatcher := matcher.NewDispatcher(tournament)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := matcherd.NewServer(ctx, cfg.Listen, dispatcher, logger)
	if err != nil {
		slog.Error("Failed to start the matcher daemon", "error", err)
		os.Exit(1)
	}
	server.Serve()

	<-ctx.Done()
	slog.Info("Shutdown signal received, draining sessions")
	server.Close()
	slog.Info("Matcher daemon stopped")
}

func buildLLMClient(backend config.BackendConfig) (llm.LLMClient, error) {
	switch backend.Type {
	case "ollama":
		return llm.NewOllamaClient(backend.BaseURL, backend.Model)
	case "openai":
		apiKey := ""
		if backend.APIKeyEnv != "" {
			apiKey = os.Getenv(backend.APIKeyEnv)
		}
		return llm.NewOpenAIClient(apiKey, backend.BaseURL, backend.Model)
	default:
		return nil, fmt.Errorf("unknown backend type %q (valid: ollama, openai)", backend.Type)
	}
}
