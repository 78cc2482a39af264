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
	"io"
	"net"
	"testing"
	"time"

	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

// firstCandidateJudge crowns the first candidate of every chunk.
type firstCandidateJudge struct{}

func (firstCandidateJudge) Ask(ctx context.Context, c datatypes.Category, query string, candidates []string) matcher.Outcome {
	return matcher.Outcome{Kind: matcher.OutcomeWinner, Winner: candidates[0]}
}

func newTestDispatcher() *matcher.Dispatcher {
	tournament := matcher.NewTournament(firstCandidateJudge{}, 20, 2)
	return matcher.NewDispatcher(tournament)
}

// startSession runs a Session over an in-memory pipe and returns the
// client end plus a channel that closes when the session exits.
func startSession(t *testing.T, ctx context.Context) (net.Conn, chan struct{}) {
	t.Helper()
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewSession(server, newTestDispatcher(), nil).Run(ctx)
	}()
	return client, done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not exit in time")
	}
}

func sendJob(t *testing.T, conn net.Conn, req datatypes.MatchRequest) datatypes.MatchResponse {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, payload))

	respPayload, err := ReadFrame(conn)
	require.NoError(t, err)

	var resp datatypes.MatchResponse
	require.NoError(t, json.Unmarshal(respPayload, &resp))
	return resp
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Session Tests
// =============================================================================

// TestSessionFullExchange drives one complete job through a session.
func TestSessionFullExchange(t *testing.T) {
	client, done := startSession(t, context.Background())

	resp := sendJob(t, client, datatypes.MatchRequest{
		CellTypeRequested: strPtr("hek-293"),
		CellTypeList:      datatypes.StringList{"HEK293T", "K562"},
	})

	assert.Equal(t, matcher.MatcherVersion, resp.MatcherVersion)
	require.NotNil(t, resp.CellTypeActual)
	assert.Equal(t, "HEK293T", *resp.CellTypeActual)
	assert.Nil(t, resp.SpeciesActual)

	client.Close()
	waitDone(t, done)
}

// TestSessionSequentialJobs verifies one connection can carry several
// jobs back to back.
func TestSessionSequentialJobs(t *testing.T) {
	client, done := startSession(t, context.Background())

	for i := 0; i < 3; i++ {
		resp := sendJob(t, client, datatypes.MatchRequest{
			SpeciesRequested: strPtr("human"),
			SpeciesList:      datatypes.StringList{"Homo sapiens"},
		})
		require.NotNil(t, resp.SpeciesActual)
		assert.Equal(t, "Homo sapiens", *resp.SpeciesActual)
	}

	client.Close()
	waitDone(t, done)
}

// TestSessionMalformedPayloadClosesWithoutResponse verifies a job-level
// failure: the session closes the connection and sends no frame back.
func TestSessionMalformedPayloadClosesWithoutResponse(t *testing.T) {
	client, done := startSession(t, context.Background())

	require.NoError(t, WriteFrame(client, []byte("this is not json")))

	_, err := ReadFrame(client)
	assert.Equal(t, io.EOF, err)
	waitDone(t, done)
}

// TestSessionInvalidDocumentClosesWithoutResponse verifies the document
// boundary: a requested term without its list ends the session silently.
func TestSessionInvalidDocumentClosesWithoutResponse(t *testing.T) {
	client, done := startSession(t, context.Background())

	payload, err := json.Marshal(datatypes.MatchRequest{
		SpeciesRequested: strPtr("human"),
	})
	require.NoError(t, err)
	require.NoError(t, WriteFrame(client, payload))

	_, err = ReadFrame(client)
	assert.Equal(t, io.EOF, err)
	waitDone(t, done)
}

// TestSessionMidFrameCloseDoesNotHang verifies the transport-error path:
// the peer announces a 10-byte payload, sends 5 bytes and vanishes. The
// session must close rather than wait for the missing bytes.
func TestSessionMidFrameCloseDoesNotHang(t *testing.T) {
	client, done := startSession(t, context.Background())

	header := []byte{0x00, 0x00, 0x00, 0x0a}
	_, err := client.Write(append(header, []byte("hello")...))
	require.NoError(t, err)
	client.Close()

	waitDone(t, done)
}

// TestSessionContextCancelUnblocksRead verifies shutdown: canceling the
// context closes the connection out from under a blocked read.
func TestSessionContextCancelUnblocksRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, done := startSession(t, ctx)
	defer client.Close()

	cancel()
	waitDone(t, done)
}

// =============================================================================
// Server Tests
// =============================================================================

// TestServerAcceptsAndServes exercises the real TCP path end to end.
func TestServerAcceptsAndServes(t *testing.T) {
	server, err := NewServer(context.Background(), "127.0.0.1:0", newTestDispatcher(), nil)
	require.NoError(t, err)
	server.Serve()
	defer server.Close()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	resp := sendJob(t, conn, datatypes.MatchRequest{
		BindingMoleculeRequested: strPtr("ctcf"),
		BindingMoleculeList:      datatypes.StringList{"CTCF", "POLR2A"},
	})
	require.NotNil(t, resp.BindingMoleculeActual)
	assert.Equal(t, "CTCF", *resp.BindingMoleculeActual)
}

// TestServerCloseStopsAccepting verifies Close tears the listener down
// and in-flight sessions exit.
func TestServerCloseStopsAccepting(t *testing.T) {
	server, err := NewServer(context.Background(), "127.0.0.1:0", newTestDispatcher(), nil)
	require.NoError(t, err)
	server.Serve()

	addr := server.Addr().String()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	server.Close()

	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}
