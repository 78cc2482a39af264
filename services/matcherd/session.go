// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package matcherd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
)

// Session owns one accepted connection and processes jobs strictly
// sequentially: one framed request in, one framed response out, never
// pipelined. Any transport or document error ends the session; the
// connection is released exactly once on every exit path.
type Session struct {
	conn       net.Conn
	dispatcher *matcher.Dispatcher
	logger     *slog.Logger
}

func NewSession(conn net.Conn, dispatcher *matcher.Dispatcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		conn:       conn,
		dispatcher: dispatcher,
		logger:     logger.With("remote_addr", conn.RemoteAddr().String()),
	}
}

// Run drives the session until the peer closes, an error occurs, or ctx is
// canceled. Cancellation closes the connection to unblock any pending read.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.logger.Info("Accepted connection")
	for {
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("Peer closed connection gracefully")
			} else {
				s.logger.Warn("Transport error, closing connection", "error", err)
				s.countJob("transport_error")
			}
			return
		}

		var req datatypes.MatchRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			// A job-level failure: no response frame is sent.
			s.logger.Warn("Failed to decode job payload, closing connection", "error", err)
			s.countJob("invalid_document")
			return
		}
		if err := req.Validate(); err != nil {
			s.logger.Warn("Rejected job at the document boundary, closing connection",
				"error", err)
			s.countJob("invalid_document")
			return
		}

		start := time.Now()
		resp := s.dispatcher.Dispatch(ctx, &req)
		elapsed := time.Since(start)

		body, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("Failed to encode response document", "error", err)
			s.countJob("transport_error")
			return
		}
		if err := WriteFrame(s.conn, body); err != nil {
			s.logger.Warn("Failed to write response frame, closing connection", "error", err)
			s.countJob("transport_error")
			return
		}
		s.countJob("success")
		s.logger.Info("Job completed", "elapsed", elapsed.Round(time.Millisecond).String())
	}
}

func (s *Session) countJob(status string) {
	if m := observability.DefaultMetrics; m != nil {
		m.JobsTotal.WithLabelValues("tcp", status).Inc()
	}
}
