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
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFrameRoundtrip verifies a written frame reads back intact.
func TestFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"cell_type_requested": "hek-293"}`)

	require.NoError(t, WriteFrame(&buf, payload))
	// 4-byte big-endian prefix plus the payload, nothing else.
	assert.Equal(t, 4+len(payload), buf.Len())
	assert.Equal(t, uint32(len(payload)), binary.BigEndian.Uint32(buf.Bytes()[:4]))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// TestFrameEmptyPayload verifies zero-length payloads are legal frames.
func TestFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestReadFrameGracefulClose verifies EOF before any prefix byte is
// surfaced as a clean io.EOF, not an error.
func TestReadFrameGracefulClose(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

// TestReadFrameTruncatedHeader verifies a partial length prefix is a
// transport error, not a graceful close.
func TestReadFrameTruncatedHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x00}))
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// TestReadFrameTruncatedPayload verifies a peer vanishing mid-payload is
// reported as a transport error.
func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello world")))
	truncated := buf.Bytes()[:buf.Len()-4]

	_, err := ReadFrame(bytes.NewReader(truncated))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// TestReadFrameOversizedPrefix verifies a length prefix beyond the cap is
// rejected before any allocation of that size.
func TestReadFrameOversizedPrefix(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// TestWriteFrameOversizedPayload verifies the writer refuses payloads the
// reader side would reject.
func TestWriteFrameOversizedPayload(t *testing.T) {
	err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// TestFrameSequence verifies back-to-back frames on one stream keep their
// boundaries.
func TestFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	first := []byte("first job")
	second := []byte("second job")
	require.NoError(t, WriteFrame(&buf, first))
	require.NoError(t, WriteFrame(&buf, second))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = ReadFrame(&buf)
	assert.Equal(t, io.EOF, err)
}
