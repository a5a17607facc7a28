// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package null provides an in-memory decode driver. It performs no real
// decoding: EndPicture fills the target surface with a deterministic
// pattern. The driver keeps a journal of every call, which is what the
// bridge's own tests assert ordering against, and it doubles as the
// lowest-priority registered fallback so OpenDefault always succeeds.
package null

import (
	"fmt"
	"sync"

	"github.com/gogpu/hwdec/backend"
	"github.com/gogpu/hwdec/h264"
	"github.com/gogpu/hwdec/surface"
)

func init() {
	backend.Register("null", 10, func() (backend.Device, error) {
		return NewDevice(), nil
	}, nil)
}

type nullSurface struct {
	width, height int
	y, uv         []byte
	frame         uint16 // FrameNum of the last picture decoded into it
}

// Device is an in-memory decode device.
//
// The zero Device is not usable; create one with NewDevice.
type Device struct {
	mu       sync.Mutex
	profiles map[backend.Profile]bool
	surfaces map[surface.ID]*nullSurface
	nextID   uint32
	journal  []string
	closed   bool

	// FailEndPicture, when non-nil, is returned by every EndPicture.
	// Tests use it to exercise the fail-fast path.
	FailEndPicture error
}

// NewDevice creates a device accepting the given profiles, or every
// profile when none are named.
func NewDevice(profiles ...backend.Profile) *Device {
	d := &Device{
		surfaces: make(map[surface.ID]*nullSurface),
	}
	if len(profiles) > 0 {
		d.profiles = make(map[backend.Profile]bool, len(profiles))
		for _, p := range profiles {
			d.profiles[p] = true
		}
	}
	return d
}

// Journal returns a copy of the recorded call log.
func (d *Device) Journal() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.journal))
	copy(out, d.journal)
	return out
}

// SurfaceCount returns the number of live surfaces.
func (d *Device) SurfaceCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.surfaces)
}

func (d *Device) log(format string, args ...any) {
	d.journal = append(d.journal, fmt.Sprintf(format, args...))
}

// Name implements backend.Device.
func (d *Device) Name() string { return "null" }

// Supports implements backend.Device.
func (d *Device) Supports(p backend.Profile) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profiles == nil || d.profiles[p]
}

// NewDecoder implements backend.Device.
func (d *Device) NewDecoder(p backend.Profile, width, height, maxRefs int) (backend.Decoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	if d.profiles != nil && !d.profiles[p] {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnsupportedProfile, p)
	}
	d.log("decoder(%s,%dx%d,refs=%d)", p, width, height, maxRefs)
	return &decoder{dev: d, profile: p, width: width, height: height}, nil
}

// NewSurface implements backend.Device.
func (d *Device) NewSurface(width, height int) (surface.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return surface.InvalidID, backend.ErrDeviceClosed
	}
	id := surface.ID(d.nextID)
	d.nextID++
	d.surfaces[id] = &nullSurface{
		width:  width,
		height: height,
		y:      make([]byte, width*height),
		uv:     make([]byte, width*height/2),
	}
	d.log("surface(%d,%dx%d)", id, width, height)
	return id, nil
}

// DestroySurface implements backend.Device.
func (d *Device) DestroySurface(id surface.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.surfaces[id]; !ok {
		return fmt.Errorf("null: destroy of unknown surface %d", id)
	}
	delete(d.surfaces, id)
	d.log("destroy(%d)", id)
	return nil
}

// ReadSurface implements backend.Device.
func (d *Device) ReadSurface(id surface.ID, planes *backend.PlaneData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.surfaces[id]
	if !ok {
		return fmt.Errorf("null: read of unknown surface %d", id)
	}
	planes.YPitch = s.width
	planes.UVPitch = s.width
	planes.Y = append(planes.Y[:0], s.y...)
	planes.UV = append(planes.UV[:0], s.uv...)
	d.log("read(%d)", id)
	return nil
}

// Close implements backend.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.surfaces = make(map[surface.ID]*nullSurface)
	return nil
}

type decoder struct {
	dev     *Device
	profile backend.Profile
	width   int
	height  int

	target surface.ID
	frame  uint16
	open   bool
}

func (c *decoder) Profile() backend.Profile { return c.profile }
func (c *decoder) Width() int               { return c.width }
func (c *decoder) Height() int              { return c.height }

func (c *decoder) BeginPicture(target surface.ID) error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.target = target
	c.open = true
	c.dev.log("begin(%d)", target)
	return nil
}

func (c *decoder) SetPictureParams(info *h264.PictureInfo) error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	if !c.open {
		return fmt.Errorf("null: picture params outside begin/end")
	}
	c.frame = info.FrameNum
	c.dev.log("params(frame=%d,slices=%d)", info.FrameNum, info.SliceCount)
	return nil
}

func (c *decoder) SetSlice(params h264.SliceParams, data []byte) error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	if !c.open {
		return fmt.Errorf("null: slice outside begin/end")
	}
	c.dev.log("slice(mb=%d,len=%d)", params.FirstMB, len(data))
	return nil
}

func (c *decoder) EndPicture() error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.open = false
	c.dev.log("end(%d)", c.target)
	if c.dev.FailEndPicture != nil {
		return c.dev.FailEndPicture
	}
	s, ok := c.dev.surfaces[c.target]
	if !ok {
		return fmt.Errorf("null: decode into unknown surface %d", c.target)
	}
	// "Decode": stamp the planes with the frame number.
	for i := range s.y {
		s.y[i] = byte(c.frame)
	}
	for i := range s.uv {
		s.uv[i] = byte(c.frame) + 1
	}
	s.frame = c.frame
	return nil
}

func (c *decoder) Sync(target surface.ID) error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.log("sync(%d)", target)
	return nil
}

func (c *decoder) Close() error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	c.dev.log("decoder-close")
	return nil
}

var _ backend.Device = (*Device)(nil)
var _ backend.Decoder = (*decoder)(nil)
