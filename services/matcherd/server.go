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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"github.com/google/uuid"
)

// Server accepts matcher connections and runs one Session per connection.
// A failed session never takes the listener down; the server keeps
// accepting until Close or context cancellation.
type Server struct {
	dispatcher *matcher.Dispatcher
	logger     *slog.Logger
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the TCP listener at addr.
func NewServer(ctx context.Context, addr string, dispatcher *matcher.Dispatcher, logger *slog.Logger) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("matcherd server requires a dispatcher")
	}
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		dispatcher: dispatcher,
		logger:     logger,
		listener:   listener,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Addr returns the bound listener address (useful with ":0" in tests).
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve starts accepting connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Info("Matcher daemon listening", "addr", s.listener.Addr().String())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("Accept failed", "error", err)
				continue
			}
			sessionID := uuid.NewString()
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				if m := observability.DefaultMetrics; m != nil {
					m.ActiveSessions.Inc()
					defer m.ActiveSessions.Dec()
				}
				sess := NewSession(c, s.dispatcher, s.logger.With("session_id", sessionID))
				sess.Run(s.ctx)
			}(conn)
		}
	}()
}

// Close stops accepting, cancels in-flight sessions and waits for them.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}
