// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func newTestSurface(id ID) func() (*Surface, error) {
	return func() (*Surface, error) {
		return &Surface{ID: id, Width: 1920, Height: 1080}, nil
	}
}

func TestCacheStableIdentity(t *testing.T) {
	c := NewCache(3)

	s1, err := c.LookupOrCreate(7, newTestSurface(0))
	if err != nil {
		t.Fatalf("LookupOrCreate: %v", err)
	}
	// Repeated lookups over many frames return the same handle.
	for i := 0; i < 10; i++ {
		s, err := c.LookupOrCreate(7, newTestSurface(ID(100+i)))
		if err != nil {
			t.Fatalf("LookupOrCreate: %v", err)
		}
		if s != s1 {
			t.Fatalf("lookup %d returned a different surface", i)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCacheCreateOnlyOnMiss(t *testing.T) {
	c := NewCache(2)
	calls := 0
	create := func() (*Surface, error) {
		calls++
		return &Surface{ID: ID(calls)}, nil
	}
	c.LookupOrCreate(1, create)
	c.LookupOrCreate(1, create)
	c.LookupOrCreate(2, create)
	if calls != 2 {
		t.Fatalf("create called %d times, want 2", calls)
	}
}

func TestCacheNeverEvicts(t *testing.T) {
	// maxRefs = 2 gives capacity 3: three pictures each referenced once
	// all stay live, and a fourth is refused rather than evicting.
	c := NewCache(3)
	for pic := PictureID(1); pic <= 3; pic++ {
		if _, err := c.LookupOrCreate(pic, newTestSurface(ID(pic))); err != nil {
			t.Fatalf("picture %d: %v", pic, err)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	for pic := PictureID(1); pic <= 3; pic++ {
		if c.Lookup(pic) == nil {
			t.Fatalf("picture %d evicted", pic)
		}
	}

	_, err := c.LookupOrCreate(4, newTestSurface(4))
	if !errors.Is(err, ErrCacheFull) {
		t.Fatalf("err = %v, want ErrCacheFull", err)
	}
	if c.Len() != 3 {
		t.Fatalf("failed insert changed Len to %d", c.Len())
	}
}

func TestCacheFailedCreateInsertsNothing(t *testing.T) {
	c := NewCache(2)
	wantErr := errors.New("backend out of memory")
	_, err := c.LookupOrCreate(1, func() (*Surface, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after failed create, want 0", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(3)
	for pic := PictureID(1); pic <= 3; pic++ {
		c.LookupOrCreate(pic, newTestSurface(ID(pic)))
	}

	var destroyed []ID
	c.Clear(func(s *Surface) { destroyed = append(destroyed, s.ID) })

	if c.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", c.Len())
	}
	if len(destroyed) != 3 {
		t.Fatalf("destroyed %d surfaces, want 3", len(destroyed))
	}
	// The cache is usable again after a clear.
	if _, err := c.LookupOrCreate(9, newTestSurface(9)); err != nil {
		t.Fatalf("LookupOrCreate after Clear: %v", err)
	}
}

func TestPlanes(t *testing.T) {
	s := &Surface{ID: 1, Width: 1920, Height: 1080}
	planes := s.Planes()

	if planes[0].Format != gputypes.TextureFormatR8Unorm {
		t.Errorf("luma format = %v, want R8Unorm", planes[0].Format)
	}
	if planes[0].Size.Width != 1920 || planes[0].Size.Height != 1080 {
		t.Errorf("luma extent = %dx%d, want 1920x1080", planes[0].Size.Width, planes[0].Size.Height)
	}
	if planes[1].Format != gputypes.TextureFormatRG8Unorm {
		t.Errorf("chroma format = %v, want RG8Unorm", planes[1].Format)
	}
	if planes[1].Size.Width != 960 || planes[1].Size.Height != 540 {
		t.Errorf("chroma extent = %dx%d, want 960x540", planes[1].Size.Width, planes[1].Size.Height)
	}
}
