// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the matcher.
//
// Metrics cover both transports (framed TCP and REST) and the oracle
// boundary. All operations are thread-safe via Prometheus's internal
// locking. Initialize once at startup via InitMetrics(); callers nil-check
// DefaultMetrics so tests can run without a registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gamematcher"

// MatcherMetrics holds all Prometheus metrics for matching operations.
type MatcherMetrics struct {
	// JobsTotal counts processed jobs by transport and status.
	// Labels: transport (tcp, rest), status (success, invalid_document, transport_error)
	JobsTotal *prometheus.CounterVec

	// OracleCallsTotal counts oracle judgments by category and outcome.
	// Labels: category, outcome (winner, no_match, invalid)
	OracleCallsTotal *prometheus.CounterVec

	// TournamentRounds observes rounds played per category tournament.
	// Labels: category
	TournamentRounds *prometheus.HistogramVec

	// MatchDurationSeconds observes wall time per category tournament.
	// Labels: category, matched (true, false)
	MatchDurationSeconds *prometheus.HistogramVec

	// ActiveSessions tracks open TCP sessions.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance, initialized by InitMetrics().
var DefaultMetrics *MatcherMetrics

// InitMetrics creates and registers all matcher metrics. Call once at
// application startup; calling twice panics on duplicate registration.
func InitMetrics() *MatcherMetrics {
	DefaultMetrics = &MatcherMetrics{
		JobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "jobs_total",
				Help:      "Total matching jobs by transport and status",
			},
			[]string{"transport", "status"},
		),

		OracleCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "oracle_calls_total",
				Help:      "Total oracle judgments by category and outcome",
			},
			[]string{"category", "outcome"},
		),

		TournamentRounds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tournament_rounds",
				Help:      "Rounds played per category tournament",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
			[]string{"category"},
		),

		MatchDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "match_duration_seconds",
				Help:      "Wall time per category tournament in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"category", "matched"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_sessions",
				Help:      "Number of currently open TCP matcher sessions",
			},
		),
	}

	return DefaultMetrics
}
