// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway provides the REST front for the matching engine.
//
// The gateway exposes the same job document schema as the framed TCP
// daemon, but as a synchronous request/response endpoint: one document
// in, one document out. It wires the LLM backend, the tournament engine,
// OpenTelemetry tracing and Prometheus metrics together behind a single
// Service with a New/Run lifecycle.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/GameMatcher/services/gateway/routes"
	"github.com/AleutianAI/GameMatcher/services/llm"
	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Service defines the gateway lifecycle. Run blocks until the server
// stops; Router exposes the configured engine for integration tests.
type Service interface {
	Run() error
	Router() *gin.Engine
}

// Config holds gateway configuration. Zero values use defaults.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend specifies the oracle provider.
	// Valid values: "ollama", "openai". Default: "ollama"
	LLMBackend string

	// OllamaBaseURL is the Ollama server URL (ollama backend).
	OllamaBaseURL string

	// OllamaModel is the Ollama model name (ollama backend).
	OllamaModel string

	// OpenAIAPIKey authenticates the openai backend.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint, enabling any
	// OpenAI-compatible server. Empty means api.openai.com.
	OpenAIBaseURL string

	// OpenAIModel is the model name for the openai backend.
	OpenAIModel string

	// ChunkSize bounds candidates per oracle call. Default: 20
	ChunkSize int

	// ChunkParallelism bounds concurrent chunk calls per round. Default: 4
	ChunkParallelism int

	// OracleTimeout bounds one oracle call. Default: 2m
	OracleTimeout time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Empty disables tracing export.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	EnableMetrics bool
}

type service struct {
	config        Config
	router        *gin.Engine
	llmClient     llm.LLMClient
	dispatcher    *matcher.Dispatcher
	tracerCleanup func(context.Context)
}

// New initializes the gateway: tracing, metrics, the LLM backend, the
// tournament dispatcher and the HTTP router.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics && observability.DefaultMetrics == nil {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	oracle := matcher.NewOracle(s.llmClient, s.config.OracleTimeout)
	tournament := matcher.NewTournament(oracle, s.config.ChunkSize, s.config.ChunkParallelism)
	s.dispatcher = matcher.NewDispatcher(tournament)

	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting matcher gateway", "port", s.config.Port)

	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = matcher.DefaultChunkSize
	}
	if cfg.ChunkParallelism == 0 {
		cfg.ChunkParallelism = matcher.DefaultChunkParallelism
	}
	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = matcher.DefaultOracleTimeout
	}
	return cfg
}

// initTracer sets up the OTLP trace exporter. Uses an insecure gRPC
// connection, appropriate for internal collector endpoints.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("matcher-gateway")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient(
			s.config.OpenAIAPIKey, s.config.OpenAIBaseURL, s.config.OpenAIModel)
		slog.Info("Using OpenAI oracle backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient(s.config.OllamaBaseURL, s.config.OllamaModel)
		slog.Info("Using Ollama oracle backend")
	default:
		return fmt.Errorf("unknown LLM backend %q (valid: ollama, openai)", s.config.LLMBackend)
	}

	return err
}

func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("matcher-gateway"))

	routes.SetupRoutes(s.router, s.dispatcher, s.config.EnableMetrics)
}
