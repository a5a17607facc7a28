// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package command implements the deferred decode command queue. Decode
// requests recorded into a command buffer become fully-resolved
// commands appended here; nothing touches the hardware until the
// submission thread drains the queue in record order.
package command

import (
	"context"

	"github.com/gogpu/hwdec/backend"
	"github.com/gogpu/hwdec/h264"
	"github.com/gogpu/hwdec/surface"
)

// Kind discriminates deferred command variants.
type Kind uint8

const (
	// KindDecode decodes one picture into a target surface.
	KindDecode Kind = iota

	kindCount
)

var kindNames = [...]string{
	"Decode",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Command is the tagged-variant interface all deferred commands
// implement. Decode is the only variant today; the discriminator exists
// so session-management commands can join the queue without changing
// its drain loop.
type Command interface {
	Kind() Kind
}

var _ Command = (*DecodeCommand)(nil)

// Sync is an externally supplied producer signal a decode may wait on
// before submission, typically "the bitstream and source image are
// fully written".
type Sync interface {
	// Wait blocks until the signal fires or ctx ends.
	Wait(ctx context.Context) error
}

// SliceEntry locates one slice inside a command's merged bitstream and
// carries its translated parameters.
type SliceEntry struct {
	Params h264.SliceParams
	Offset int
	Size   int
}

// DecodeCommand is one recorded decode call, resolved at record time
// and consumed exactly once at execution. All referenced resources
// (target, references, data) stay valid until Release runs.
type DecodeCommand struct {
	// Target is the destination surface.
	Target *surface.Surface

	// Decoder is the context the picture is submitted to.
	Decoder backend.Decoder

	// Picture is the translated picture-parameter block.
	Picture *h264.PictureInfo

	// Slices lists the reassembled slices in macroblock order. Offsets
	// index into Data.
	Slices []SliceEntry

	// Data is the command-owned merged bitstream.
	Data []byte

	// References are the surfaces the picture predicts from.
	References []surface.ID

	// Sync, when non-nil, is waited on (bounded, non-fatal) before the
	// picture is submitted.
	Sync Sync

	// Collect runs after the picture has decoded: completion sync and
	// pixel copy-back into the destination image.
	Collect func(ctx context.Context) error

	// Release frees command-scoped scratch. It runs exactly once, on
	// both success and failure paths.
	Release func()

	released bool
}

// Kind implements the command discriminator.
func (c *DecodeCommand) Kind() Kind { return KindDecode }

// release invokes Release once.
func (c *DecodeCommand) release() {
	if c.released {
		return
	}
	c.released = true
	if c.Release != nil {
		c.Release()
	}
}
