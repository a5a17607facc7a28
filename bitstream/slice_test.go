// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package bitstream

import (
	"errors"
	"testing"
)

// bitWriter builds test NAL payloads MSB-first.
type bitWriter struct {
	buf  []byte
	bits int
}

func (w *bitWriter) writeBit(b int) {
	if w.bits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b != 0 {
		w.buf[len(w.buf)-1] |= 1 << uint(7-w.bits%8)
	}
	w.bits++
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(int(v>>uint(i)) & 1)
	}
}

func (w *bitWriter) writeUE(v uint32) {
	zeros := 0
	for 1<<uint(zeros+1)-1 <= int(v) {
		zeros++
	}
	w.writeBits(0, zeros)
	w.writeBits(v+1, zeros+1)
}

// pad fills the final byte with stop bits so no zero tail can be
// mistaken for a start code.
func (w *bitWriter) pad() {
	for w.bits%8 != 0 {
		w.writeBit(1)
	}
}

var testHdr = HeaderContext{
	FrameNumBits:    4,
	FrameMbsOnly:    true,
	PicOrderCntType: 2,
	DefaultRefIdxL0: 1,
	DefaultRefIdxL1: 1,
}

// sliceUnit builds a start-code-prefixed slice NAL with the given
// macroblock address. sliceType is the on-wire slice_type value.
func sliceUnit(nalType uint8, firstMB, sliceType uint32) []byte {
	var w bitWriter
	w.writeBits(0, 1)               // forbidden_zero_bit
	w.writeBits(3, 2)               // nal_ref_idc
	w.writeBits(uint32(nalType), 5) // nal_unit_type
	w.writeUE(firstMB)
	w.writeUE(sliceType)
	w.writeUE(0)       // pic_parameter_set_id
	w.writeBits(0, 4)  // frame_num
	if nalType == NALIDRSlice {
		w.writeUE(0) // idr_pic_id
	}
	w.pad()
	return append([]byte{0x00, 0x00, 0x01}, w.buf...)
}

func nonSliceUnit(nalType uint8) []byte {
	return []byte{0x00, 0x00, 0x01, nalType, 0xFF}
}

func TestCollectOrdersAndDeduplicates(t *testing.T) {
	// Out-of-order with a duplicate address: 40, 0, 40, 20.
	var buf []byte
	buf = append(buf, sliceUnit(NALNonIDRSlice, 40, 2)...)
	dupFirst := len(buf)
	buf = append(buf, sliceUnit(NALNonIDRSlice, 0, 2)...)
	buf = append(buf, sliceUnit(NALNonIDRSlice, 40, 2)...)
	buf = append(buf, sliceUnit(NALNonIDRSlice, 20, 2)...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []uint32{0, 20, 40}
	if len(slices) != len(want) {
		t.Fatalf("got %d slices, want %d", len(slices), len(want))
	}
	for i, mb := range want {
		if slices[i].FirstMB != mb {
			t.Errorf("slice %d: FirstMB = %d, want %d", i, slices[i].FirstMB, mb)
		}
	}
	// The surviving slice at 40 must be the first-seen record, which
	// starts before the duplicate's offset.
	if slices[2].Offset >= dupFirst {
		t.Errorf("duplicate at 40 survived: offset %d, want < %d", slices[2].Offset, dupFirst)
	}
}

func TestCollectIdempotentOnSortedInput(t *testing.T) {
	var buf []byte
	buf = append(buf, sliceUnit(NALIDRSlice, 0, 2)...)
	buf = append(buf, sliceUnit(NALIDRSlice, 30, 2)...)
	buf = append(buf, sliceUnit(NALIDRSlice, 60, 2)...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(slices) != 3 {
		t.Fatalf("got %d slices, want 3", len(slices))
	}
	for i, mb := range []uint32{0, 30, 60} {
		if slices[i].FirstMB != mb {
			t.Errorf("slice %d: FirstMB = %d, want %d", i, slices[i].FirstMB, mb)
		}
	}
	// Offsets must still be ascending: nothing was reordered.
	if !(slices[0].Offset < slices[1].Offset && slices[1].Offset < slices[2].Offset) {
		t.Error("sorted input was reordered")
	}
}

func TestCollectSkipsNonSliceUnits(t *testing.T) {
	var buf []byte
	buf = append(buf, nonSliceUnit(NALSequenceParams)...)
	buf = append(buf, nonSliceUnit(NALPictureParams)...)
	buf = append(buf, nonSliceUnit(NALSEI)...)
	buf = append(buf, sliceUnit(NALIDRSlice, 0, 2)...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(slices) != 1 || slices[0].NALType != NALIDRSlice {
		t.Fatalf("got %+v, want one IDR slice", slices)
	}
}

func TestCollectNoSlices(t *testing.T) {
	var buf []byte
	buf = append(buf, nonSliceUnit(NALSequenceParams)...)
	buf = append(buf, nonSliceUnit(NALPictureParams)...)

	if _, err := Collect(buf, testHdr); !errors.Is(err, ErrNoSlices) {
		t.Fatalf("err = %v, want ErrNoSlices", err)
	}
	if _, err := Collect([]byte{0xDE, 0xAD}, testHdr); !errors.Is(err, ErrNoSlices) {
		t.Fatalf("no start codes: err = %v, want ErrNoSlices", err)
	}
}

func TestCollectSliceExtents(t *testing.T) {
	first := sliceUnit(NALIDRSlice, 0, 2)
	second := sliceUnit(NALIDRSlice, 10, 2)
	buf := append(append([]byte{}, first...), second...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if slices[0].Offset != 3 {
		t.Errorf("first offset = %d, want 3", slices[0].Offset)
	}
	if slices[0].Size != len(first)-3 {
		t.Errorf("first size = %d, want %d", slices[0].Size, len(first)-3)
	}
	// Last slice runs to the end of the buffer.
	if got := slices[1].Offset + slices[1].Size; got != len(buf) {
		t.Errorf("last slice ends at %d, want %d", got, len(buf))
	}
}

func TestParseRefIdxOverride(t *testing.T) {
	var w bitWriter
	w.writeBits(0, 1)
	w.writeBits(2, 2)
	w.writeBits(NALNonIDRSlice, 5)
	w.writeUE(0)      // first_mb_in_slice
	w.writeUE(0)      // slice_type: P
	w.writeUE(0)      // pic_parameter_set_id
	w.writeBits(0, 4) // frame_num
	w.writeBit(1)     // num_ref_idx_active_override_flag
	w.writeUE(3)      // num_ref_idx_l0_active_minus1
	w.pad()
	buf := append([]byte{0x00, 0x00, 0x01}, w.buf...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if slices[0].Type != SliceTypeP {
		t.Fatalf("Type = %d, want P", slices[0].Type)
	}
	if slices[0].RefIdxL0 != 4 {
		t.Errorf("RefIdxL0 = %d, want 4 (override)", slices[0].RefIdxL0)
	}
	if slices[0].RefIdxL1 != testHdr.DefaultRefIdxL1 {
		t.Errorf("RefIdxL1 = %d, want default %d", slices[0].RefIdxL1, testHdr.DefaultRefIdxL1)
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	// A slice header cut off mid-parse still yields a record with the
	// fields read so far.
	var w bitWriter
	w.writeBits(0, 1)
	w.writeBits(3, 2)
	w.writeBits(NALNonIDRSlice, 5)
	w.writeUE(7) // first_mb_in_slice, then nothing
	w.pad()
	buf := append([]byte{0x00, 0x00, 0x01}, w.buf...)

	slices, err := Collect(buf, testHdr)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if slices[0].FirstMB != 7 {
		t.Errorf("FirstMB = %d, want 7", slices[0].FirstMB)
	}
}
