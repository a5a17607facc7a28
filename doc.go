// Package hwdec bridges an application's recorded video-decode command
// stream to a stateful hardware decode driver.
//
// # Overview
//
// hwdec sits between picture-level decode requests recorded into
// command buffers and a driver exposing a session/surface/context
// model. It translates requests plus raw bitstream data into driver
// decode invocations, keeps decoded-picture-buffer references valid
// across frames, and converts pixels between the driver's linear
// layout and tiled destination memory.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/hwdec"
//	    "github.com/gogpu/hwdec/backend"
//	    _ "github.com/gogpu/hwdec/backend/null" // or a real driver
//	)
//
//	s, _ := hwdec.NewSession(backend.ProfileH264Main, 4)
//	defer s.Close()
//
//	cb := hwdec.NewCommandBuffer()
//	cb.Begin(s)
//	cb.Decode(req) // records, never touches hardware
//	cb.End()
//	cb.Execute(ctx) // drives the driver, in record order
//
// # Architecture
//
// The library is organized into:
//   - Public API: Session, CommandBuffer, DecodeRequest
//   - command: deferred decode queue and its execution state machine
//   - bitstream: start-code scan, de-escaping, slice reassembly
//   - surface: picture-identity surface cache (never evicts)
//   - tiling: linear/Y-tiled conversion with address swizzling
//   - backend: driver interface, registry and profile fallback
//
// # Threading
//
// Recording runs on the caller's command-building thread and performs
// only local parsing and lookups. Execution runs on the submission
// thread and is synchronous with the driver. A Session and its command
// buffers belong to one logical stream; only the shared device
// accessor is cross-thread.
package hwdec

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
