// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"time"
)

// State is the command buffer recording state.
type State uint8

const (
	// StateIdle accepts Begin.
	StateIdle State = iota
	// StateRecording accepts Append and End.
	StateRecording
	// StateEnded accepts Execute.
	StateEnded
)

var stateNames = [...]string{"Idle", "Recording", "Ended"}

func (s State) String() string {
	if int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Errors.
var (
	// ErrNotRecording is returned by Append or End outside a
	// Begin/End pair.
	ErrNotRecording = errors.New("command: not recording")

	// ErrRecording is returned by Begin or Execute while a Begin/End
	// pair is still open.
	ErrRecording = errors.New("command: still recording")
)

// DefaultSyncTimeout bounds the wait on a producer sync signal.
// Expiry is logged and ignored: a late producer is the producer's bug,
// and stalling the whole submission on it helps nobody.
const DefaultSyncTimeout = 5 * time.Second

// ExecOptions tunes one Execute call.
type ExecOptions struct {
	// MaxDecodes caps how many queued pictures this submission decodes;
	// the remainder stays queued for the next one. Zero means no cap.
	MaxDecodes int

	// TwoPass submits every picture before collecting any, letting the
	// hardware pipeline frames instead of serializing submit-then-wait.
	TwoPass bool

	// SyncTimeout bounds producer sync waits. Zero means
	// DefaultSyncTimeout.
	SyncTimeout time.Duration
}

// Queue is the per-command-buffer deferred decode queue: strict FIFO,
// appended during recording, drained at submission. It is owned and
// mutated by a single command buffer and needs no internal locking.
type Queue struct {
	state State
	cmds  []*DecodeCommand
}

// NewQueue returns an idle queue.
func NewQueue() *Queue { return &Queue{} }

// State returns the current recording state.
func (q *Queue) State() State { return q.state }

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.cmds) }

// Begin opens recording.
func (q *Queue) Begin() error {
	if q.state == StateRecording {
		return ErrRecording
	}
	q.state = StateRecording
	return nil
}

// End closes recording.
func (q *Queue) End() error {
	if q.state != StateRecording {
		return ErrNotRecording
	}
	q.state = StateEnded
	return nil
}

// Append queues one decode command. Only legal while recording; the
// call does no backend work.
func (q *Queue) Append(c *DecodeCommand) error {
	if q.state != StateRecording {
		return ErrNotRecording
	}
	q.cmds = append(q.cmds, c)
	return nil
}

// Execute drains queued commands in record order: for each, the
// begin/params/slices/end submission triple, then completion sync and
// copy-back. An empty queue is a no-op.
//
// Execution is fail-fast: the first error aborts the remaining batch,
// but every queued command's scratch is still released and the queue is
// cleared — no partial retry. On success with a MaxDecodes cap, the
// remainder stays queued.
func (q *Queue) Execute(ctx context.Context, opts ExecOptions) error {
	if q.state == StateRecording {
		return ErrRecording
	}
	q.state = StateIdle

	if len(q.cmds) == 0 {
		return nil
	}

	n := len(q.cmds)
	if opts.MaxDecodes > 0 && opts.MaxDecodes < n {
		n = opts.MaxDecodes
	}
	batch := q.cmds[:n]

	timeout := opts.SyncTimeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}

	var err error
	if opts.TwoPass {
		err = q.runTwoPass(ctx, batch, timeout)
	} else {
		err = q.runSerial(ctx, batch, timeout)
	}

	if err != nil {
		for _, c := range q.cmds {
			c.release()
		}
		q.cmds = nil
		return err
	}

	q.cmds = q.cmds[n:]
	if len(q.cmds) == 0 {
		q.cmds = nil
	} else {
		logger().Debug("decode cap reached, deferring remainder",
			"executed", n, "remaining", len(q.cmds))
	}
	return nil
}

// runSerial submits and collects each picture before moving to the
// next.
func (q *Queue) runSerial(ctx context.Context, batch []*DecodeCommand, timeout time.Duration) error {
	for _, c := range batch {
		if err := q.submit(ctx, c, timeout); err != nil {
			c.release()
			return err
		}
		if err := q.collect(ctx, c); err != nil {
			c.release()
			return err
		}
		c.release()
	}
	return nil
}

// runTwoPass submits the whole batch first, then collects. The backend
// serializes per-surface completion, so collection order is safe.
func (q *Queue) runTwoPass(ctx context.Context, batch []*DecodeCommand, timeout time.Duration) error {
	for _, c := range batch {
		if err := q.submit(ctx, c, timeout); err != nil {
			c.release()
			return err
		}
	}
	for _, c := range batch {
		if err := q.collect(ctx, c); err != nil {
			c.release()
			return err
		}
		c.release()
	}
	return nil
}

// submit waits on the producer signal and issues the submission triple.
func (q *Queue) submit(ctx context.Context, c *DecodeCommand, timeout time.Duration) error {
	if c.Sync != nil {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err := c.Sync.Wait(waitCtx)
		cancel()
		if err != nil {
			// Non-fatal: decode proceeds with whatever the producer
			// has written.
			logger().Warn("producer sync wait failed, proceeding",
				"surface", uint32(c.Target.ID), "err", err)
		}
	}

	d := c.Decoder
	if err := d.BeginPicture(c.Target.ID); err != nil {
		return err
	}
	if err := d.SetPictureParams(c.Picture); err != nil {
		return err
	}
	for _, s := range c.Slices {
		if err := d.SetSlice(s.Params, c.Data[s.Offset:s.Offset+s.Size]); err != nil {
			return err
		}
	}
	return d.EndPicture()
}

// collect waits for the decode to land and runs the command's copy-back.
func (q *Queue) collect(ctx context.Context, c *DecodeCommand) error {
	if err := c.Decoder.Sync(c.Target.ID); err != nil {
		return err
	}
	if c.Collect == nil {
		return nil
	}
	return c.Collect(ctx)
}
