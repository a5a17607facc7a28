// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend defines the hardware decode driver interface the
// bridge drives: a device owning decoder contexts and video surfaces,
// and the begin/render/end picture triple that submits one decode.
//
// Driver implementations register themselves with Register, usually
// from an init function, and are selected by name or by priority.
package backend

import (
	"errors"

	"github.com/gogpu/hwdec/h264"
	"github.com/gogpu/hwdec/surface"
)

// Errors.
var (
	// ErrUnsupportedProfile is returned when a device supports neither
	// the requested profile nor any substitute for it.
	ErrUnsupportedProfile = errors.New("backend: unsupported profile")

	// ErrResourceExhausted is returned when the driver cannot allocate a
	// surface or context. The operation may succeed later.
	ErrResourceExhausted = errors.New("backend: resource exhausted")

	// ErrDeviceClosed is returned for operations on a closed device.
	ErrDeviceClosed = errors.New("backend: device closed")
)

// PlaneData receives a surface readback: NV12 luma and interleaved
// chroma planes with their row pitches. The chroma plane is half the
// luma height.
type PlaneData struct {
	Y       []byte
	UV      []byte
	YPitch  int
	UVPitch int
}

// Device is one open connection to a decode driver.
//
// Creation is cheap relative to decoding but still a driver round trip:
// sessions share one process-wide device rather than opening their own.
type Device interface {
	// Name identifies the driver implementation.
	Name() string

	// Supports reports whether the device can decode the exact profile.
	Supports(p Profile) bool

	// NewDecoder creates a decode context for profile at the given coded
	// dimensions, with room for maxRefs reference surfaces. The caller
	// walks the profile substitution list on ErrUnsupportedProfile.
	NewDecoder(p Profile, width, height, maxRefs int) (Decoder, error)

	// NewSurface allocates a video surface at the picture's real extent.
	NewSurface(width, height int) (surface.ID, error)

	// DestroySurface releases a surface.
	DestroySurface(id surface.ID) error

	// ReadSurface copies the decoded pixels of id into planes. The
	// driver fills the plane slices and pitches; buffers are reused
	// across calls when capacity allows.
	ReadSurface(id surface.ID, planes *PlaneData) error

	// Close releases the device.
	Close() error
}

// Decoder is one decode context, bound to a profile and fixed coded
// dimensions. Submitting a picture is a strict triple: BeginPicture,
// parameter and slice uploads, EndPicture. Sync blocks until a
// submitted picture has fully decoded into its target surface.
type Decoder interface {
	Profile() Profile
	Width() int
	Height() int

	BeginPicture(target surface.ID) error
	SetPictureParams(info *h264.PictureInfo) error
	SetSlice(params h264.SliceParams, data []byte) error
	EndPicture() error

	Sync(target surface.ID) error

	Close() error
}
