// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package matcherd implements the persistent-connection matcher daemon:
// a 4-byte big-endian length-prefixed frame codec, per-connection
// sessions that process jobs strictly sequentially, and the TCP listener
// that owns them.
package matcherd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps a single payload. A length prefix beyond this is
// treated as a malformed frame rather than an allocation request.
const MaxFrameSize = 32 << 20 // 32 MiB

// ErrFrameTooLarge reports a length prefix exceeding MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// ReadFrame reads one length-prefixed payload. A clean EOF before any
// prefix byte means the peer closed between jobs and is returned as io.EOF
// untouched; any truncation after that point is a transport error.
// ReadFrame makes no assumption about payload content.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		// io.ReadFull reports truncation as ErrUnexpectedEOF; the
		// length was announced, so this connection is unusable.
		return nil, fmt.Errorf("read frame payload (%d bytes expected): %w", length, err)
	}
	return payload, nil
}

// WriteFrame writes the payload prefixed with its length as an unsigned
// 32-bit big-endian integer. Header and payload go out as one write so a
// concurrent-safe net.Conn never interleaves partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
