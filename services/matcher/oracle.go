// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package matcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AleutianAI/GameMatcher/services/llm"
	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("gamematcher.matcher")

// OutcomeKind classifies a single oracle judgment.
type OutcomeKind int

const (
	// OutcomeWinner means the oracle picked a value verified to be a
	// member of the candidates it was offered.
	OutcomeWinner OutcomeKind = iota
	// OutcomeNoMatch means the oracle explicitly declined ("NULL").
	OutcomeNoMatch
	// OutcomeInvalid covers everything else: unreachable backend,
	// unparseable output, or a fabricated value absent from the
	// candidate set. Callers treat it exactly like NoMatch; the round
	// simply produces no champion.
	OutcomeInvalid
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWinner:
		return "winner"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Outcome is the result of one oracle call. Winner is only meaningful
// when Kind is OutcomeWinner.
type Outcome struct {
	Kind   OutcomeKind
	Winner string
}

// Judge is the capability the tournament needs from the oracle: pick one
// candidate (or decline) for a query. Implemented by Oracle in production
// and by deterministic stubs in tests.
type Judge interface {
	Ask(ctx context.Context, c datatypes.Category, query string, candidates []string) Outcome
}

// Oracle wraps an LLM backend as a Judge. It issues exactly one call per
// invocation and never retries; a lost judgment just means that chunk
// contributes no champion.
type Oracle struct {
	client  llm.LLMClient
	timeout time.Duration
}

// DefaultOracleTimeout bounds one oracle call so a hung backend cannot
// stall unrelated sessions.
const DefaultOracleTimeout = 2 * time.Minute

func NewOracle(client llm.LLMClient, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Oracle{client: client, timeout: timeout}
}

// Ask renders the category prompt, queries the backend and classifies the
// answer. The returned winner is guaranteed to be byte-for-byte equal to
// one of the offered candidates.
func (o *Oracle) Ask(ctx context.Context, c datatypes.Category, query string, candidates []string) Outcome {
	ctx, span := tracer.Start(ctx, "Oracle.Ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("matcher.category", string(c)),
		attribute.Int("matcher.candidate_count", len(candidates)),
	)

	outcome := o.ask(ctx, c, query, candidates)
	span.SetAttributes(attribute.String("matcher.outcome", outcome.Kind.String()))
	if m := observability.DefaultMetrics; m != nil {
		m.OracleCallsTotal.WithLabelValues(string(c), outcome.Kind.String()).Inc()
	}
	return outcome
}

func (o *Oracle) ask(ctx context.Context, c datatypes.Category, query string, candidates []string) Outcome {
	prompt, err := renderPrompt(c, query, candidates)
	if err != nil {
		slog.Error("Failed to render oracle prompt", "category", c, "error", err)
		return Outcome{Kind: OutcomeInvalid}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	temperature := float32(0)
	raw, err := o.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temperature,
		JSONOutput:  true,
	})
	if err != nil {
		slog.Warn("Oracle call failed", "category", c, "error", err)
		return Outcome{Kind: OutcomeInvalid}
	}

	// Expected shape: {"<category>_actual": "<candidate>"} or the
	// literal "NULL" as the value. Anything else is a parse failure.
	var parsed map[string]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		slog.Warn("Oracle output was not a JSON object of strings",
			"category", c, "error", err)
		return Outcome{Kind: OutcomeInvalid}
	}
	value, ok := parsed[c.ActualKey()]
	if !ok {
		slog.Warn("Oracle output missing the expected key",
			"category", c, "expected_key", c.ActualKey())
		return Outcome{Kind: OutcomeInvalid}
	}
	if value == "" || value == "NULL" {
		return Outcome{Kind: OutcomeNoMatch}
	}
	for _, candidate := range candidates {
		if value == candidate {
			return Outcome{Kind: OutcomeWinner, Winner: value}
		}
	}
	// Fabrication: the oracle named something it was never offered.
	slog.Warn("Oracle fabricated a value not in the offered set, discarding",
		"category", c, "value", value)
	return Outcome{Kind: OutcomeInvalid}
}
