package hwdec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/hwdec/bitstream"
	"github.com/gogpu/hwdec/command"
	"github.com/gogpu/hwdec/h264"
	"github.com/gogpu/hwdec/surface"
)

// ErrNotBound is returned when recording into a command buffer outside
// a Begin/End pair.
var ErrNotBound = errors.New("hwdec: command buffer not bound to a session")

// ReferencePicture names one picture the current frame predicts from,
// with its decoded-picture-buffer slot state.
type ReferencePicture struct {
	Picture Picture
	Info    h264.RefInfo
}

// DecodeRequest is one recorded decode call: the destination picture,
// the picture-level state, the reference list, and the raw bitstream
// chunks holding the frame's slices.
type DecodeRequest struct {
	// Target is the destination picture, at the stream's real coded
	// extent.
	Target Picture

	// Current is the picture-level decode state.
	Current h264.CurrentPicture

	// References lists the pictures the frame predicts from, in
	// decoded-picture-buffer slot order.
	References []ReferencePicture

	// Buffers are the bitstream chunks, concatenated in order. Slices
	// may span chunk boundaries.
	Buffers [][]byte

	// Sync, when non-nil, is a producer signal waited on (bounded,
	// non-fatal) before the picture is submitted to hardware.
	Sync command.Sync
}

// bitstreamPool recycles merged-bitstream scratch between decodes.
var bitstreamPool = sync.Pool{
	New: func() any { return new([]byte) },
}

// CommandBuffer records decode requests against a session and replays
// them against the hardware on Execute, in record order. Recording
// performs parsing and surface resolution but never touches the
// decoder; errors surface at record time where the caller can still
// identify the offending frame.
type CommandBuffer struct {
	queue   *command.Queue
	session *Session
}

// NewCommandBuffer returns an idle command buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{queue: command.NewQueue()}
}

// State returns the recording state.
func (cb *CommandBuffer) State() command.State { return cb.queue.State() }

// Len returns the number of queued decodes.
func (cb *CommandBuffer) Len() int { return cb.queue.Len() }

// Begin opens recording against s.
func (cb *CommandBuffer) Begin(s *Session) error {
	if s == nil {
		return ErrNotBound
	}
	if s.closed {
		return ErrSessionClosed
	}
	if err := cb.queue.Begin(); err != nil {
		return err
	}
	cb.session = s
	return nil
}

// End closes recording. Queued decodes stay pending until Execute.
func (cb *CommandBuffer) End() error {
	return cb.queue.End()
}

// Decode records one picture decode. The request is fully resolved
// here: bitstream chunks merged and scanned into slices, parameter sets
// translated, target and reference surfaces bound. Nothing reaches the
// hardware until Execute.
func (cb *CommandBuffer) Decode(req *DecodeRequest) error {
	s := cb.session
	if s == nil || cb.queue.State() != command.StateRecording {
		return ErrNotBound
	}
	if s.closed {
		return ErrSessionClosed
	}

	data := mergeBuffers(req.Buffers)

	hdr, err := s.params.HeaderContext(req.Current.SPSID, req.Current.PPSID)
	if err != nil {
		releaseBitstream(data)
		return fmt.Errorf("%w: %w", ErrFormatNotSupported, err)
	}

	slices, err := bitstream.Collect(data, hdr)
	if err != nil {
		releaseBitstream(data)
		return fmt.Errorf("%w: %w", ErrFormatNotSupported, err)
	}

	if err := s.ensureDecoder(req.Target.Width, req.Target.Height); err != nil {
		releaseBitstream(data)
		return err
	}

	target, err := s.surfaceFor(req.Target)
	if err != nil {
		releaseBitstream(data)
		return wrapSurfaceErr(err)
	}

	refs := make([]h264.Reference, 0, len(req.References))
	refIDs := make([]surface.ID, 0, len(req.References))
	for _, r := range req.References {
		sf, err := s.referenceFor(r.Picture)
		if err != nil {
			releaseBitstream(data)
			return wrapSurfaceErr(err)
		}
		refs = append(refs, h264.Reference{Surface: sf.ID, Info: r.Info})
		refIDs = append(refIDs, sf.ID)
	}

	info, err := h264.BuildPictureInfo(s.params, req.Current, len(slices), refs)
	if err != nil {
		releaseBitstream(data)
		return fmt.Errorf("%w: %w", ErrFormatNotSupported, err)
	}

	entries := make([]command.SliceEntry, len(slices))
	for i, sl := range slices {
		entries[i] = command.SliceEntry{
			Params: h264.NewSliceParams(sl),
			Offset: sl.Offset,
			Size:   sl.Size,
		}
	}

	dst := req.Target
	cmd := &command.DecodeCommand{
		Target:     target,
		Decoder:    s.decoder,
		Picture:    info,
		Slices:     entries,
		Data:       data,
		References: refIDs,
		Sync:       req.Sync,
		Collect: func(context.Context) error {
			return s.readback(target, dst)
		},
		Release: func() { releaseBitstream(data) },
	}

	Logger().Debug("decode recorded",
		"session", s.id, "picture", uint64(dst.ID),
		"slices", len(entries), "bytes", len(data), "refs", len(refIDs))
	return cb.queue.Append(cmd)
}

// Execute drains the queued decodes against the hardware, honoring the
// session's submission options. On a cap, the remainder stays queued
// for the next Execute.
func (cb *CommandBuffer) Execute(ctx context.Context) error {
	s := cb.session
	if s == nil {
		return ErrNotBound
	}
	if s.closed {
		return ErrSessionClosed
	}
	return cb.queue.Execute(ctx, command.ExecOptions{
		MaxDecodes:  s.opts.maxDecodes,
		TwoPass:     s.opts.twoPass,
		SyncTimeout: s.opts.syncTimeout,
	})
}

// mergeBuffers concatenates the request's bitstream chunks into one
// pooled buffer the command owns until release.
func mergeBuffers(bufs [][]byte) []byte {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	p := bitstreamPool.Get().(*[]byte)
	data := (*p)[:0]
	if cap(data) < total {
		data = make([]byte, 0, total)
	}
	for _, b := range bufs {
		data = append(data, b...)
	}
	return data
}

func releaseBitstream(data []byte) {
	b := data[:0]
	bitstreamPool.Put(&b)
}

// wrapSurfaceErr maps surface allocation and cache-capacity failures
// into the public taxonomy.
func wrapSurfaceErr(err error) error {
	return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
}
