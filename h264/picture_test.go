// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package h264

import (
	"errors"
	"testing"

	"github.com/gogpu/hwdec/surface"
)

func testStore() *ParamStore {
	store := NewParamStore()
	store.PutSPS(&SPS{
		ID:                    0,
		MaxNumRefFrames:       4,
		FrameMbsOnly:          true,
		Log2MaxFrameNumMinus4: 2,
		PicOrderCntType:       0,
		Direct8x8Inference:    true,
	})
	store.PutPPS(&PPS{
		ID:                             0,
		SPSID:                          0,
		EntropyCodingMode:              true,
		WeightedPred:                   true,
		ChromaQPIndexOffset:            -2,
		PicInitQPMinus26:               1,
		NumRefIdxL0DefaultActiveMinus1: 3,
	})
	return store
}

func TestBuildPictureInfoFields(t *testing.T) {
	store := testStore()
	cur := CurrentPicture{
		FrameNum:      9,
		IsReference:   true,
		FieldOrderCnt: [2]int32{18, 18},
	}

	info, err := BuildPictureInfo(store, cur, 2, nil)
	if err != nil {
		t.Fatalf("BuildPictureInfo: %v", err)
	}

	if info.NumRefFrames != 4 || !info.FrameMbsOnly || !info.Direct8x8Inference {
		t.Errorf("sequence fields not carried over: %+v", info)
	}
	if !info.EntropyCodingMode || !info.WeightedPred || info.ChromaQPIndexOffset != -2 {
		t.Errorf("picture fields not carried over: %+v", info)
	}
	if info.NumRefIdxL0ActiveMinus1 != 3 {
		t.Errorf("NumRefIdxL0ActiveMinus1 = %d, want 3", info.NumRefIdxL0ActiveMinus1)
	}
	if info.SliceCount != 2 || info.FrameNum != 9 || !info.IsReference {
		t.Errorf("current picture fields not carried over: %+v", info)
	}
	if info.FieldOrderCnt != [2]int32{18, 18} {
		t.Errorf("FieldOrderCnt = %v", info.FieldOrderCnt)
	}
}

func TestBuildPictureInfoFlatScaling(t *testing.T) {
	info, err := BuildPictureInfo(testStore(), CurrentPicture{}, 1, nil)
	if err != nil {
		t.Fatalf("BuildPictureInfo: %v", err)
	}
	for i := range info.ScalingLists4x4 {
		for j, v := range info.ScalingLists4x4[i] {
			if v != 16 {
				t.Fatalf("ScalingLists4x4[%d][%d] = %d, want flat 16", i, j, v)
			}
		}
	}
	for i := range info.ScalingLists8x8 {
		for j, v := range info.ScalingLists8x8[i] {
			if v != 16 {
				t.Fatalf("ScalingLists8x8[%d][%d] = %d, want flat 16", i, j, v)
			}
		}
	}
}

func TestBuildPictureInfoExplicitScaling(t *testing.T) {
	store := testStore()
	lists := &ScalingLists{}
	lists.L4x4[2][5] = 31
	lists.L8x8[1][63] = 7
	pps, _ := store.PPS(0)
	pps.ScalingLists = lists

	info, err := BuildPictureInfo(store, CurrentPicture{}, 1, nil)
	if err != nil {
		t.Fatalf("BuildPictureInfo: %v", err)
	}
	if info.ScalingLists4x4[2][5] != 31 || info.ScalingLists8x8[1][63] != 7 {
		t.Error("explicit scaling lists not copied")
	}
}

func TestBuildPictureInfoReferences(t *testing.T) {
	refs := []Reference{
		{Surface: 11, Info: RefInfo{FrameNum: 3, FieldOrderCnt: [2]int32{6, 6}}},
		{Surface: 12, Info: RefInfo{FrameNum: 4, LongTerm: true, TopField: true}},
	}
	info, err := BuildPictureInfo(testStore(), CurrentPicture{}, 1, refs)
	if err != nil {
		t.Fatalf("BuildPictureInfo: %v", err)
	}

	r0 := info.ReferenceFrames[0]
	if r0.Surface != 11 || r0.FrameIdx != 3 {
		t.Errorf("ref 0 = %+v", r0)
	}
	// A frame reference uses both fields.
	if !r0.TopIsReference || !r0.BottomIsReference {
		t.Errorf("frame reference fields = %+v", r0)
	}

	r1 := info.ReferenceFrames[1]
	if !r1.IsLongTerm || !r1.TopIsReference || r1.BottomIsReference {
		t.Errorf("field reference = %+v", r1)
	}

	// Remaining slots stay invalid.
	for i := 2; i < len(info.ReferenceFrames); i++ {
		if info.ReferenceFrames[i].Surface != surface.InvalidID {
			t.Fatalf("slot %d not invalid", i)
		}
	}
}

func TestBuildPictureInfoUnknownParams(t *testing.T) {
	store := testStore()
	_, err := BuildPictureInfo(store, CurrentPicture{SPSID: 5}, 1, nil)
	if !errors.Is(err, ErrUnknownParameterSet) {
		t.Fatalf("unknown sps: err = %v", err)
	}
	_, err = BuildPictureInfo(store, CurrentPicture{PPSID: 9}, 1, nil)
	if !errors.Is(err, ErrUnknownParameterSet) {
		t.Fatalf("unknown pps: err = %v", err)
	}
}

func TestHeaderContext(t *testing.T) {
	store := testStore()
	hdr, err := store.HeaderContext(0, 0)
	if err != nil {
		t.Fatalf("HeaderContext: %v", err)
	}
	if hdr.FrameNumBits != 6 {
		t.Errorf("FrameNumBits = %d, want 6", hdr.FrameNumBits)
	}
	if !hdr.FrameMbsOnly {
		t.Error("FrameMbsOnly not carried over")
	}
	if hdr.DefaultRefIdxL0 != 4 || hdr.DefaultRefIdxL1 != 1 {
		t.Errorf("defaults = %d/%d, want 4/1", hdr.DefaultRefIdxL0, hdr.DefaultRefIdxL1)
	}

	if _, err := store.HeaderContext(3, 0); !errors.Is(err, ErrUnknownParameterSet) {
		t.Fatalf("unknown sps: err = %v", err)
	}
}
