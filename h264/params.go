// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package h264 holds the H.264 parameter-set state a decode session
// carries and translates it, together with decoded-picture-buffer slot
// information, into the flat picture-parameter form the decode backend
// consumes.
package h264

import (
	"errors"
	"fmt"

	"github.com/gogpu/hwdec/bitstream"
	"github.com/gogpu/hwdec/internal/cache"
)

// ScalingLists carries the 4x4 and 8x8 quantization scaling matrices.
type ScalingLists struct {
	L4x4 [6][16]uint8
	L8x8 [2][64]uint8
}

// SPS is the subset of a sequence parameter set the backend needs.
type SPS struct {
	ID                          uint8
	MaxNumRefFrames             uint8
	FrameMbsOnly                bool
	MbAdaptiveFrameField        bool
	Log2MaxFrameNumMinus4       uint8
	PicOrderCntType             uint8
	Log2MaxPicOrderCntLsbMinus4 uint8
	DeltaPicOrderAlwaysZero     bool
	Direct8x8Inference          bool
}

// PPS is the subset of a picture parameter set the backend needs.
type PPS struct {
	ID                                uint8
	SPSID                             uint8
	EntropyCodingMode                 bool
	BottomFieldPicOrderInFramePresent bool
	WeightedPred                      bool
	WeightedBipredIDC                 uint8
	DeblockingFilterControlPresent    bool
	RedundantPicCntPresent            bool
	Transform8x8Mode                  bool
	ConstrainedIntraPred              bool
	ChromaQPIndexOffset               int8
	SecondChromaQPIndexOffset         int8
	PicInitQPMinus26                  int8
	NumRefIdxL0DefaultActiveMinus1    uint8
	NumRefIdxL1DefaultActiveMinus1    uint8
	// ScalingLists is nil when the stream carries none; translation then
	// substitutes flat matrices.
	ScalingLists *ScalingLists
}

// ErrUnknownParameterSet is returned when a picture names an SPS or PPS
// id that was never stored.
var ErrUnknownParameterSet = errors.New("h264: unknown parameter set")

// ParamStore holds the parameter sets of one decode session, keyed by
// their on-wire ids. Sets are replaced on update and live until the
// session ends.
type ParamStore struct {
	sps *cache.Store[uint8, *SPS]
	pps *cache.Store[uint8, *PPS]
}

// NewParamStore returns an empty store.
func NewParamStore() *ParamStore {
	return &ParamStore{
		sps: cache.New[uint8, *SPS](),
		pps: cache.New[uint8, *PPS](),
	}
}

// PutSPS stores or replaces a sequence parameter set.
func (p *ParamStore) PutSPS(s *SPS) { p.sps.Put(s.ID, s) }

// PutPPS stores or replaces a picture parameter set.
func (p *ParamStore) PutPPS(s *PPS) { p.pps.Put(s.ID, s) }

// SPS returns the stored sequence parameter set with the given id.
func (p *ParamStore) SPS(id uint8) (*SPS, error) {
	s, ok := p.sps.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: sps %d", ErrUnknownParameterSet, id)
	}
	return s, nil
}

// PPS returns the stored picture parameter set with the given id.
func (p *ParamStore) PPS(id uint8) (*PPS, error) {
	s, ok := p.pps.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: pps %d", ErrUnknownParameterSet, id)
	}
	return s, nil
}

// Clear drops every stored parameter set.
func (p *ParamStore) Clear() {
	p.sps.Clear()
	p.pps.Clear()
}

// HeaderContext derives the slice-header parse context for the given
// parameter-set pair.
func (p *ParamStore) HeaderContext(spsID, ppsID uint8) (bitstream.HeaderContext, error) {
	sps, err := p.SPS(spsID)
	if err != nil {
		return bitstream.HeaderContext{}, err
	}
	pps, err := p.PPS(ppsID)
	if err != nil {
		return bitstream.HeaderContext{}, err
	}
	return bitstream.HeaderContext{
		FrameNumBits:            int(sps.Log2MaxFrameNumMinus4) + 4,
		FrameMbsOnly:            sps.FrameMbsOnly,
		PicOrderCntType:         int(sps.PicOrderCntType),
		PicOrderCntLsbBits:      int(sps.Log2MaxPicOrderCntLsbMinus4) + 4,
		DeltaPicOrderAlwaysZero: sps.DeltaPicOrderAlwaysZero,
		PicOrderPresent:         pps.BottomFieldPicOrderInFramePresent,
		RedundantPicCntPresent:  pps.RedundantPicCntPresent,
		DefaultRefIdxL0:         int(pps.NumRefIdxL0DefaultActiveMinus1) + 1,
		DefaultRefIdxL1:         int(pps.NumRefIdxL1DefaultActiveMinus1) + 1,
	}, nil
}
