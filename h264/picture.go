// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package h264

import (
	"github.com/gogpu/hwdec/bitstream"
	"github.com/gogpu/hwdec/surface"
)

// maxReferenceFrames is the backend's fixed reference array size.
const maxReferenceFrames = 16

// ReferenceFrame is one entry of the backend reference array.
type ReferenceFrame struct {
	Surface           surface.ID
	FrameIdx          uint16
	IsLongTerm        bool
	TopIsReference    bool
	BottomIsReference bool
	FieldOrderCnt     [2]int32
}

// RefInfo is the decoded-picture-buffer slot state of one reference.
type RefInfo struct {
	FrameNum      uint16
	LongTerm      bool
	TopField      bool
	BottomField   bool
	FieldOrderCnt [2]int32
}

// Reference pairs a resolved backend surface with its slot state.
type Reference struct {
	Surface surface.ID
	Info    RefInfo
}

// CurrentPicture describes the picture being decoded.
type CurrentPicture struct {
	SPSID         uint8
	PPSID         uint8
	FrameNum      uint16
	FieldPic      bool
	BottomField   bool
	IsReference   bool
	IDR           bool
	FieldOrderCnt [2]int32
}

// SliceParams is the per-slice parameter block handed to the backend.
type SliceParams struct {
	FirstMB           uint32
	Type              uint32
	NumRefIdxL0Active int
	NumRefIdxL1Active int
}

// NewSliceParams translates one reassembled slice record.
func NewSliceParams(s bitstream.Slice) SliceParams {
	return SliceParams{
		FirstMB:           s.FirstMB,
		Type:              s.Type,
		NumRefIdxL0Active: s.RefIdxL0,
		NumRefIdxL1Active: s.RefIdxL1,
	}
}

// PictureInfo is the flat picture-parameter block the backend consumes:
// the relevant SPS and PPS fields inlined, the current-picture state,
// the quantization matrices and the reference array.
type PictureInfo struct {
	// Sequence fields.
	NumRefFrames                uint8
	FrameMbsOnly                bool
	MbAdaptiveFrameField        bool
	Log2MaxFrameNumMinus4       uint8
	PicOrderCntType             uint8
	Log2MaxPicOrderCntLsbMinus4 uint8
	DeltaPicOrderAlwaysZero     bool
	Direct8x8Inference          bool

	// Picture fields.
	EntropyCodingMode              bool
	PicOrderPresent                bool
	WeightedPred                   bool
	WeightedBipredIDC              uint8
	DeblockingFilterControlPresent bool
	RedundantPicCntPresent         bool
	Transform8x8Mode               bool
	ConstrainedIntraPred           bool
	ChromaQPIndexOffset            int8
	SecondChromaQPIndexOffset      int8
	PicInitQPMinus26               int8
	NumRefIdxL0ActiveMinus1        uint8
	NumRefIdxL1ActiveMinus1        uint8

	// Current picture.
	SliceCount    int
	FrameNum      uint16
	FieldPic      bool
	BottomField   bool
	IsReference   bool
	FieldOrderCnt [2]int32

	ScalingLists4x4 [6][16]uint8
	ScalingLists8x8 [2][64]uint8

	ReferenceFrames [maxReferenceFrames]ReferenceFrame
}

// BuildPictureInfo assembles the backend picture-parameter block for
// one decode. refs carries the already-resolved reference surfaces in
// decoded-picture-buffer slot order; entries beyond the backend's
// 16-slot array are dropped.
func BuildPictureInfo(store *ParamStore, cur CurrentPicture, sliceCount int, refs []Reference) (*PictureInfo, error) {
	sps, err := store.SPS(cur.SPSID)
	if err != nil {
		return nil, err
	}
	pps, err := store.PPS(cur.PPSID)
	if err != nil {
		return nil, err
	}

	info := &PictureInfo{
		NumRefFrames:                sps.MaxNumRefFrames,
		FrameMbsOnly:                sps.FrameMbsOnly,
		MbAdaptiveFrameField:        sps.MbAdaptiveFrameField,
		Log2MaxFrameNumMinus4:       sps.Log2MaxFrameNumMinus4,
		PicOrderCntType:             sps.PicOrderCntType,
		Log2MaxPicOrderCntLsbMinus4: sps.Log2MaxPicOrderCntLsbMinus4,
		DeltaPicOrderAlwaysZero:     sps.DeltaPicOrderAlwaysZero,
		Direct8x8Inference:          sps.Direct8x8Inference,

		EntropyCodingMode:              pps.EntropyCodingMode,
		PicOrderPresent:                pps.BottomFieldPicOrderInFramePresent,
		WeightedPred:                   pps.WeightedPred,
		WeightedBipredIDC:              pps.WeightedBipredIDC,
		DeblockingFilterControlPresent: pps.DeblockingFilterControlPresent,
		RedundantPicCntPresent:         pps.RedundantPicCntPresent,
		Transform8x8Mode:               pps.Transform8x8Mode,
		ConstrainedIntraPred:           pps.ConstrainedIntraPred,
		ChromaQPIndexOffset:            pps.ChromaQPIndexOffset,
		SecondChromaQPIndexOffset:      pps.SecondChromaQPIndexOffset,
		PicInitQPMinus26:               pps.PicInitQPMinus26,
		NumRefIdxL0ActiveMinus1:        pps.NumRefIdxL0DefaultActiveMinus1,
		NumRefIdxL1ActiveMinus1:        pps.NumRefIdxL1DefaultActiveMinus1,

		SliceCount:    sliceCount,
		FrameNum:      cur.FrameNum,
		FieldPic:      cur.FieldPic,
		BottomField:   cur.BottomField,
		IsReference:   cur.IsReference,
		FieldOrderCnt: cur.FieldOrderCnt,
	}

	if pps.ScalingLists != nil {
		info.ScalingLists4x4 = pps.ScalingLists.L4x4
		info.ScalingLists8x8 = pps.ScalingLists.L8x8
	} else {
		// Flat scaling: all 16s.
		for i := range info.ScalingLists4x4 {
			for j := range info.ScalingLists4x4[i] {
				info.ScalingLists4x4[i][j] = 16
			}
		}
		for i := range info.ScalingLists8x8 {
			for j := range info.ScalingLists8x8[i] {
				info.ScalingLists8x8[i][j] = 16
			}
		}
	}

	for i := range info.ReferenceFrames {
		info.ReferenceFrames[i].Surface = surface.InvalidID
	}
	for i, r := range refs {
		if i >= maxReferenceFrames {
			break
		}
		ref := &info.ReferenceFrames[i]
		ref.Surface = r.Surface
		ref.FrameIdx = r.Info.FrameNum
		ref.IsLongTerm = r.Info.LongTerm
		// Neither field flag set means a frame reference: both fields
		// are used.
		if !r.Info.TopField && !r.Info.BottomField {
			ref.TopIsReference = true
			ref.BottomIsReference = true
		} else {
			ref.TopIsReference = r.Info.TopField
			ref.BottomIsReference = r.Info.BottomField
		}
		ref.FieldOrderCnt = r.Info.FieldOrderCnt
	}

	return info, nil
}
