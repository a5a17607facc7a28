// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface tracks the backend video surfaces a decode session
// hands out, keyed by picture identity. The cache deliberately has no
// eviction policy: a surface may stay a valid prediction reference for
// up to max-reference-count future frames, so entries live until the
// decoder is rebuilt or the session is torn down. Capacity equals the
// codec-mandated decoded-picture-buffer bound, which keeps growth
// bounded under any conformant stream.
package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ID is a backend video surface handle.
type ID uint32

// InvalidID marks an unset or destroyed surface handle.
const InvalidID = ID(^uint32(0))

// PictureID is the stable identity of a logical picture (decode target
// or reference image), assigned by the image layer.
type PictureID uint64

// Surface associates one logical picture with its backend surface.
type Surface struct {
	// ID is the backend handle.
	ID ID
	// Picture is the owning picture identity.
	Picture PictureID
	// Width and Height are the picture's real coded extent.
	Width  int
	Height int
}

// PlaneDescriptor describes one NV12 plane as a GPU texture for interop
// registration: luma as a single-channel image, interleaved chroma as a
// two-channel image at half resolution.
type PlaneDescriptor struct {
	Format gputypes.TextureFormat
	Size   gputypes.Extent3D
}

// Planes returns interop texture descriptors for the surface's NV12
// planes.
func (s *Surface) Planes() [2]PlaneDescriptor {
	return [2]PlaneDescriptor{
		{
			Format: gputypes.TextureFormatR8Unorm,
			Size: gputypes.Extent3D{
				Width:              uint32(s.Width),
				Height:             uint32(s.Height),
				DepthOrArrayLayers: 1,
			},
		},
		{
			Format: gputypes.TextureFormatRG8Unorm,
			Size: gputypes.Extent3D{
				Width:              uint32(s.Width / 2),
				Height:             uint32(s.Height / 2),
				DepthOrArrayLayers: 1,
			},
		},
	}
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface %d (picture %d, %dx%d)", s.ID, s.Picture, s.Width, s.Height)
}

// ErrCacheFull is returned when inserting into a cache already holding
// its capacity of live entries. Under a conformant reference pattern
// this cannot happen; it indicates the stream references more pictures
// than the session's decoded-picture-buffer bound allows.
var ErrCacheFull = errors.New("surface: cache full")

// Cache maps picture identities to live surfaces. At most one entry
// exists per identity. Entries are never individually evicted; Clear
// drops them all at once when the owning decoder goes away.
//
// A Cache is owned and mutated by a single session and needs no
// internal locking.
type Cache struct {
	capacity int
	entries  map[PictureID]*Surface
}

// NewCache returns a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[PictureID]*Surface, capacity),
	}
}

// Lookup returns the surface cached for the picture, or nil.
func (c *Cache) Lookup(pic PictureID) *Surface {
	return c.entries[pic]
}

// LookupOrCreate returns the cached surface for pic, or invokes create
// and inserts the result. create runs only on a miss, and a failed
// create inserts nothing.
func (c *Cache) LookupOrCreate(pic PictureID, create func() (*Surface, error)) (*Surface, error) {
	if s, ok := c.entries[pic]; ok {
		return s, nil
	}
	if len(c.entries) >= c.capacity {
		return nil, fmt.Errorf("%w: %d entries, picture %d", ErrCacheFull, len(c.entries), pic)
	}
	s, err := create()
	if err != nil {
		return nil, err
	}
	s.Picture = pic
	c.entries[pic] = s
	return s, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.entries) }

// Capacity returns the maximum number of live entries.
func (c *Cache) Capacity() int { return c.capacity }

// Clear removes every entry, invoking destroy on each surface when
// destroy is non-nil. Used on decoder rebuild and session teardown,
// where the surfaces are bound to a context that no longer exists.
func (c *Cache) Clear(destroy func(*Surface)) {
	for pic, s := range c.entries {
		if destroy != nil {
			destroy(s)
		}
		delete(c.entries, pic)
	}
}
