// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package bitstream provides bit-level access to raw byte-stream video
// payloads and recovers slice layout from them: it locates
// start-code-delimited units, undoes the emulation-prevention byte
// escaping, and parses the handful of slice-header fields the decode
// backend needs for ordering and reference-list sizing.
package bitstream

// Reader is a bit cursor over a raw byte stream. Reads transparently
// skip emulation-prevention bytes (a 0x03 following two zero bytes), so
// callers see the de-escaped payload.
//
// Reads past the end of the buffer return best-effort partial values
// rather than failing: a truncated header yields whatever bits were
// present, which matches how permissive hardware frontends treat
// malformed tails.
type Reader struct {
	buf      []byte
	pos      int
	bit      int // next bit within buf[pos], 7 (MSB) down to 0
	zeroRun  int // consecutive zero payload bytes seen
	bitsRead int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, bit: 7}
}

// Clone returns an independent copy of the reader state.
func (r *Reader) Clone() *Reader {
	c := *r
	return &c
}

// Offset returns the current byte position in the underlying buffer.
func (r *Reader) Offset() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// BitsRead returns the number of payload bits consumed since the reader
// was created or ResetBitCount was last called.
func (r *Reader) BitsRead() int { return r.bitsRead }

// ResetBitCount zeroes the consumed-bit counter.
func (r *Reader) ResetBitCount() { r.bitsRead = 0 }

// NextStartCode advances past the next three-byte start code (0, 0, 1)
// and returns the byte offset of the first payload byte after it, or -1
// if no start code remains.
func (r *Reader) NextStartCode() int {
	w0, w1, w2 := -1, -1, -1
	for {
		if r.pos >= len(r.buf) {
			return -1
		}
		c := int(r.buf[r.pos])
		r.pos++
		w0, w1, w2 = w1, w2, c
		if w0 == 0 && w1 == 0 && w2 == 1 {
			r.bit = 7
			r.zeroRun = 0
			return r.pos
		}
	}
}

// readByte consumes one payload byte, skipping an emulation-prevention
// byte when one follows two zeros. Returns -1 at end of buffer.
func (r *Reader) readByte() int {
	if r.pos >= len(r.buf) {
		return -1
	}
	c := r.buf[r.pos]
	r.pos++
	if c == 0 {
		r.zeroRun++
	} else {
		r.zeroRun = 0
	}
	if r.zeroRun >= 2 {
		if r.pos >= len(r.buf) {
			r.pos--
			return -1
		}
		epb := r.buf[r.pos]
		r.pos++
		if epb != 0 {
			r.zeroRun = 0
		}
		if epb != 0x03 {
			// not an escape, rewind
			r.pos--
		}
	}
	return int(c)
}

// ReadBit consumes one bit, or returns -1 at end of buffer.
func (r *Reader) ReadBit() int {
	if r.pos >= len(r.buf) {
		return -1
	}
	v := int(r.buf[r.pos]>>uint(r.bit)) & 1
	if r.bit > 0 {
		r.bit--
	} else {
		if r.readByte() < 0 {
			return -1
		}
		r.bit = 7
	}
	r.bitsRead++
	return v
}

// ReadBits consumes n bits MSB-first. A read past the end returns the
// bits gathered so far.
func (r *Reader) ReadBits(n int) uint32 {
	var v uint32
	for k := 0; k < n; k++ {
		bit := r.ReadBit()
		if bit < 0 {
			return v
		}
		v = v<<1 | uint32(bit)
	}
	return v
}

// ReadUE consumes one unsigned exp-Golomb value. A read past the end
// returns 0.
func (r *Reader) ReadUE() uint32 {
	zeros := -1
	for {
		zeros++
		bit := r.ReadBit()
		if bit < 0 {
			return 0
		}
		if bit != 0 {
			break
		}
	}
	if zeros == 0 {
		return 0
	}
	return 1<<uint(zeros) - 1 + r.ReadBits(zeros)
}

// ReadSE consumes one signed exp-Golomb value. A read past the end
// returns 0.
func (r *Reader) ReadSE() int32 {
	zeros := -1
	for {
		zeros++
		bit := r.ReadBit()
		if bit < 0 {
			return 0
		}
		if bit != 0 {
			break
		}
	}
	if zeros == 0 {
		return 0
	}
	v := int32(1)<<uint(zeros) + int32(r.ReadBits(zeros))
	if v&1 != 0 {
		return -v / 2
	}
	return v / 2
}
