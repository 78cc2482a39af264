// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package matcher implements the chunked tournament matching engine.
//
// A candidate list of any size is partitioned into chunks of at most
// ChunkSize entries. The oracle picks a local winner per chunk; unique
// winners are sorted and re-chunked until at most ChunkSize remain, and a
// final oracle call decides among them. A candidate can only win by being
// chosen at least once among peers it was actually compared against, so a
// list of M candidates costs O(ceil(log_K(M))) oracle rounds rather than
// one giant prompt.
package matcher

import (
	"context"
	"log/slog"
	"sort"

	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize bounds how many candidates one oracle call sees.
	DefaultChunkSize = 20

	// DefaultChunkParallelism bounds concurrent oracle calls inside a
	// single round. Rounds themselves are strictly sequential.
	DefaultChunkParallelism = 4
)

// Stats reports how much oracle work one tournament cost. Champion counts
// shrink strictly between rounds, so OracleCalls is
// ceil(M/K) + ceil(C1/K) + ... + (final call, if 2..K champions remain).
type Stats struct {
	Rounds          int
	OracleCalls     int
	InvalidOutcomes int
}

// Tournament runs the chunked elimination for a single category.
type Tournament struct {
	judge       Judge
	chunkSize   int
	parallelism int
}

func NewTournament(judge Judge, chunkSize, parallelism int) *Tournament {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if parallelism <= 0 {
		parallelism = DefaultChunkParallelism
	}
	return &Tournament{judge: judge, chunkSize: chunkSize, parallelism: parallelism}
}

// Run resolves query against candidates and returns the winning candidate,
// or nil when no candidate survives. The caller is expected to have
// filtered out empty queries and empty candidate lists already; Run treats
// them as an immediate no-match with zero oracle calls.
func (t *Tournament) Run(ctx context.Context, c datatypes.Category, query string, candidates []string) (*string, Stats) {
	var stats Stats
	if query == "" || len(candidates) == 0 {
		return nil, stats
	}

	ctx, span := tracer.Start(ctx, "Tournament.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("matcher.category", string(c)),
		attribute.Int("matcher.candidate_count", len(candidates)),
	)

	champions := t.playRound(ctx, c, query, candidates, &stats)
	for len(champions) > t.chunkSize {
		slog.Info("Championship continues, re-chunking survivors",
			"category", c, "survivors", len(champions), "chunk_size", t.chunkSize)
		champions = t.playRound(ctx, c, query, champions, &stats)
	}

	winner := t.decide(ctx, c, query, champions, &stats)
	span.SetAttributes(
		attribute.Int("matcher.rounds", stats.Rounds),
		attribute.Int("matcher.oracle_calls", stats.OracleCalls),
		attribute.Bool("matcher.matched", winner != nil),
	)
	return winner, stats
}

// playRound partitions the candidates into chunks, judges every chunk and
// returns the sorted set of unique champions. Losers are eliminated for
// good; there is no reinstatement in later rounds.
func (t *Tournament) playRound(ctx context.Context, c datatypes.Category, query string, candidates []string, stats *Stats) []string {
	chunks := chunkStrings(candidates, t.chunkSize)
	stats.Rounds++
	stats.OracleCalls += len(chunks)
	slog.Debug("Playing tournament round",
		"category", c, "round", stats.Rounds, "chunks", len(chunks))

	// Chunks within one round are independent; judge them with bounded
	// parallelism. Results land in a per-chunk slot so the outcome is
	// unaffected by completion order.
	outcomes := make([]Outcome, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.parallelism)
	for i, chunk := range chunks {
		g.Go(func() error {
			outcomes[i] = t.judge.Ask(gctx, c, query, chunk)
			return nil
		})
	}
	_ = g.Wait() // judges absorb their own failures

	seen := make(map[string]struct{})
	var champions []string
	for i, outcome := range outcomes {
		switch outcome.Kind {
		case OutcomeWinner:
			if _, dup := seen[outcome.Winner]; !dup {
				seen[outcome.Winner] = struct{}{}
				champions = append(champions, outcome.Winner)
			}
		case OutcomeNoMatch:
			slog.Debug("No match available in chunk",
				"category", c, "chunk", i+1)
		case OutcomeInvalid:
			stats.InvalidOutcomes++
		}
	}
	// Sorting makes the next round's chunk composition deterministic
	// regardless of chunk-processing order.
	sort.Strings(champions)
	return champions
}

// decide applies the termination policy to the surviving champions.
func (t *Tournament) decide(ctx context.Context, c datatypes.Category, query string, champions []string, stats *Stats) *string {
	switch {
	case len(champions) == 0:
		slog.Info("No champions from any chunk", "category", c)
		return nil
	case len(champions) == 1:
		return &champions[0]
	default:
		slog.Info("Playing final championship round",
			"category", c, "finalists", len(champions))
		stats.OracleCalls++
		outcome := t.judge.Ask(ctx, c, query, champions)
		if outcome.Kind != OutcomeWinner {
			// The fabrication guard applies at the final round too:
			// an answer outside the finalist set forces NULL.
			if outcome.Kind == OutcomeInvalid {
				stats.InvalidOutcomes++
			}
			return nil
		}
		return &outcome.Winner
	}
}

// chunkStrings slices values into contiguous chunks of at most size
// entries, preserving order. Chunk boundaries are deterministic so re-runs
// with the same input reproduce the same elimination structure.
func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
