// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package rtpsrc assembles Annex-B access units from RTP packets, so a
// network stream can feed the decode bridge directly. Packets sharing a
// timestamp belong to one access unit; the marker bit closes it.
package rtpsrc

import (
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// Assembler accumulates depacketized H.264 payloads into access units.
// It is driven from a single receive loop and is not safe for
// concurrent use.
type Assembler struct {
	depacketizer codecs.H264Packet
	unit         []byte
	timestamp    uint32
	started      bool
}

// Push consumes one raw RTP datagram. It returns a complete Annex-B
// access unit when the datagram closes one, or nil while accumulating.
func (a *Assembler) Push(raw []byte) ([]byte, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return nil, err
	}
	return a.PushPacket(&pkt)
}

// PushPacket is Push for an already-parsed packet.
func (a *Assembler) PushPacket(pkt *rtp.Packet) ([]byte, error) {
	// A new timestamp with a partial unit pending means the closing
	// packet was lost: drop the stale partial rather than splicing two
	// pictures together.
	if a.started && pkt.Timestamp != a.timestamp {
		a.unit = a.unit[:0]
	}
	a.started = true
	a.timestamp = pkt.Timestamp

	data, err := a.depacketizer.Unmarshal(pkt.Payload)
	if err != nil {
		return nil, err
	}
	a.unit = append(a.unit, data...)

	if !pkt.Marker || len(a.unit) == 0 {
		return nil, nil
	}
	out := make([]byte, len(a.unit))
	copy(out, a.unit)
	a.unit = a.unit[:0]
	return out, nil
}

// Pending returns the number of buffered bytes of the open access unit.
func (a *Assembler) Pending() int { return len(a.unit) }
