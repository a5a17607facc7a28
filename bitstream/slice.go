// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package bitstream

import (
	"errors"
	"sort"
)

// NAL unit types relevant to slice reassembly.
const (
	NALNonIDRSlice    = 1
	NALPartitionA     = 2
	NALPartitionB     = 3
	NALPartitionC     = 4
	NALIDRSlice       = 5
	NALSEI            = 6
	NALSequenceParams = 7
	NALPictureParams  = 8
)

// Slice types after reduction modulo 5.
const (
	SliceTypeP = iota
	SliceTypeB
	SliceTypeI
	SliceTypeSP
	SliceTypeSI
)

// ErrNoSlices is returned when a buffer contains no slice units.
var ErrNoSlices = errors.New("bitstream: no slices found")

// HeaderContext carries the active-parameter-set fields a slice header
// parse depends on.
type HeaderContext struct {
	// FrameNumBits is log2_max_frame_num_minus4 + 4.
	FrameNumBits int
	// FrameMbsOnly mirrors frame_mbs_only_flag.
	FrameMbsOnly bool
	// PicOrderCntType is pic_order_cnt_type (0, 1 or 2).
	PicOrderCntType int
	// PicOrderCntLsbBits is log2_max_pic_order_cnt_lsb_minus4 + 4.
	PicOrderCntLsbBits int
	// DeltaPicOrderAlwaysZero mirrors delta_pic_order_always_zero_flag.
	DeltaPicOrderAlwaysZero bool
	// PicOrderPresent mirrors bottom_field_pic_order_in_frame_present_flag.
	PicOrderPresent bool
	// RedundantPicCntPresent mirrors redundant_pic_cnt_present_flag.
	RedundantPicCntPresent bool
	// DefaultRefIdxL0 and DefaultRefIdxL1 are the active reference counts
	// the picture parameter set declares; a slice header may override them.
	DefaultRefIdxL0 int
	DefaultRefIdxL1 int
}

// Slice is one reassembled slice unit.
type Slice struct {
	// FirstMB is the macroblock address the slice starts at.
	FirstMB uint32
	// Type is the slice type reduced modulo 5 (SliceTypeP etc).
	Type uint32
	// RefIdxL0 and RefIdxL1 are the active reference counts for this
	// slice, after any header override.
	RefIdxL0 int
	RefIdxL1 int
	// NALType and RefIDC come from the unit's NAL header.
	NALType uint8
	RefIDC  uint8
	// Offset and Size delimit the unit in the source buffer, start code
	// excluded. Offset is also the deterministic tie-break when two
	// slices claim the same macroblock address.
	Offset int
	Size   int
}

// Collect scans a start-code-delimited buffer, keeps the slice units,
// parses the header fields the backend needs, and returns the slices
// sorted by macroblock address (ties broken by byte offset) with
// duplicate addresses removed, first occurrence kept.
//
// Conformant streams arrive sorted and duplicate-free; the sort and
// dedup passes exist because decode backends hard-reject out-of-order
// or duplicate macroblock addresses in malformed streams.
func Collect(buf []byte, hdr HeaderContext) ([]Slice, error) {
	var slices []Slice

	r := NewReader(buf)
	offset := r.NextStartCode()
	for offset >= 0 {
		next := r.Clone().NextStartCode()
		end := len(buf)
		if next >= 0 {
			end = next - 3
		}

		if s, ok := parseSliceUnit(buf[offset:end], hdr); ok {
			s.Offset = offset
			s.Size = end - offset
			slices = append(slices, s)
		}

		offset = r.NextStartCode()
	}

	if len(slices) == 0 {
		return nil, ErrNoSlices
	}

	sort.SliceStable(slices, func(i, j int) bool {
		if slices[i].FirstMB != slices[j].FirstMB {
			return slices[i].FirstMB < slices[j].FirstMB
		}
		return slices[i].Offset < slices[j].Offset
	})

	// Keep the first slice per macroblock address.
	out := slices[:1]
	for _, s := range slices[1:] {
		if s.FirstMB != out[len(out)-1].FirstMB {
			out = append(out, s)
		}
	}
	return out, nil
}

// parseSliceUnit reads the NAL header of one unit and, when the unit is
// a slice, the leading slice-header fields. unit starts at the NAL
// header byte.
func parseSliceUnit(unit []byte, hdr HeaderContext) (Slice, bool) {
	if len(unit) == 0 {
		return Slice{}, false
	}
	r := NewReader(unit)

	forbidden := r.ReadBit()
	refIDC := r.ReadBits(2)
	nalType := r.ReadBits(5)
	if forbidden != 0 || nalType < NALNonIDRSlice || nalType > NALIDRSlice {
		return Slice{}, false
	}

	s := Slice{
		NALType:  uint8(nalType),
		RefIDC:   uint8(refIDC),
		RefIdxL0: hdr.DefaultRefIdxL0,
		RefIdxL1: hdr.DefaultRefIdxL1,
	}
	parseSliceHeader(r, hdr, nalType == NALIDRSlice, &s)
	return s, true
}

// parseSliceHeader walks the slice header far enough to resolve the
// macroblock address, slice type and reference-count overrides. Later
// header fields (reference reordering, prediction weights) are decoded
// by the backend itself.
func parseSliceHeader(r *Reader, hdr HeaderContext, idr bool, s *Slice) {
	s.FirstMB = r.ReadUE()
	s.Type = r.ReadUE() % 5
	_ = r.ReadUE() // pic_parameter_set_id
	_ = r.ReadBits(hdr.FrameNumBits)

	fieldPic := false
	if !hdr.FrameMbsOnly {
		fieldPic = r.ReadBit() == 1
		if fieldPic {
			_ = r.ReadBit() // bottom_field_flag
		}
	}
	if idr {
		_ = r.ReadUE() // idr_pic_id
	}
	switch hdr.PicOrderCntType {
	case 0:
		_ = r.ReadBits(hdr.PicOrderCntLsbBits)
		if hdr.PicOrderPresent && !fieldPic {
			_ = r.ReadSE() // delta_pic_order_cnt_bottom
		}
	case 1:
		if !hdr.DeltaPicOrderAlwaysZero {
			_ = r.ReadSE()
			if hdr.PicOrderPresent && !fieldPic {
				_ = r.ReadSE()
			}
		}
	}
	if hdr.RedundantPicCntPresent {
		_ = r.ReadUE()
	}
	if s.Type == SliceTypeB {
		_ = r.ReadBit() // direct_spatial_mv_pred_flag
	}
	if s.Type == SliceTypeP || s.Type == SliceTypeSP || s.Type == SliceTypeB {
		if r.ReadBit() == 1 {
			s.RefIdxL0 = int(r.ReadUE()) + 1
			if s.Type == SliceTypeB {
				s.RefIdxL1 = int(r.ReadUE()) + 1
			}
		}
	}
}
