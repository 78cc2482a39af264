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
	"log/slog"
	"strconv"
	"time"

	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"golang.org/x/sync/errgroup"
)

// MatcherVersion is stamped on every result document.
const MatcherVersion = "2.0"

// Dispatcher runs one tournament per category present in a job and
// assembles the combined result document. Categories share no state, so
// they are evaluated concurrently; the merged document is identical to a
// sequential evaluation.
type Dispatcher struct {
	tournament *Tournament
}

func NewDispatcher(tournament *Tournament) *Dispatcher {
	return &Dispatcher{tournament: tournament}
}

// Dispatch processes a validated job. A present-but-empty pair yields an
// explicit null for that category and is not a job-level failure. Absent
// categories are likewise reported as null.
func (d *Dispatcher) Dispatch(ctx context.Context, req *datatypes.MatchRequest) *datatypes.MatchResponse {
	ctx, span := tracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	resp := &datatypes.MatchResponse{MatcherVersion: MatcherVersion}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range datatypes.Categories {
		query, candidates, present := req.Pair(c)
		if !present {
			continue
		}
		if query == "" || len(candidates) == 0 {
			slog.Warn("Skipping category due to empty input term or choices list",
				"category", c, "input_term", query)
			resp.SetActual(c, nil)
			continue
		}
		g.Go(func() error {
			start := time.Now()
			winner, stats := d.tournament.Run(gctx, c, query, candidates)
			// Each goroutine writes a distinct response field.
			resp.SetActual(c, winner)
			observeMatch(c, winner != nil, stats, time.Since(start))
			if winner != nil {
				slog.Info("Matched term", "category", c, "input_term", query,
					"match", *winner, "rounds", stats.Rounds,
					"oracle_calls", stats.OracleCalls)
			} else {
				slog.Info("No match found", "category", c, "input_term", query,
					"rounds", stats.Rounds, "oracle_calls", stats.OracleCalls)
			}
			return nil
		})
	}
	_ = g.Wait() // tournaments never fail the job

	return resp
}

func observeMatch(c datatypes.Category, matched bool, stats Stats, elapsed time.Duration) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.TournamentRounds.WithLabelValues(string(c)).Observe(float64(stats.Rounds))
	m.MatchDurationSeconds.WithLabelValues(string(c), strconv.FormatBool(matched)).
		Observe(elapsed.Seconds())
}
