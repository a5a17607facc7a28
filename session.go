package hwdec

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gogpu/hwdec/backend"
	"github.com/gogpu/hwdec/dump"
	"github.com/gogpu/hwdec/h264"
	"github.com/gogpu/hwdec/surface"
	"github.com/gogpu/hwdec/tiling"
)

// PlaneLayout describes one destination plane of a mapped picture.
type PlaneLayout struct {
	// Data is the mapped plane memory.
	Data []byte

	// Pitch is the row pitch in bytes. For a tiled plane it is the
	// padded tile-row width and must be a multiple of the tile width.
	Pitch int

	// Tiled selects the Y-tiled destination layout; false means linear.
	Tiled bool

	// Swizzle is the address scrambling of a tiled plane. Ignored for
	// linear planes.
	Swizzle tiling.Swizzle
}

// PictureMemory is the destination image backing a decode writes into.
// Map is called once per decode on the submission thread, after the
// hardware has finished; Unmap follows once the copy-back is done.
type PictureMemory interface {
	// Map exposes the luma and chroma planes. An error fails the decode
	// with ErrMemoryMapFailed.
	Map() ([2]PlaneLayout, error)

	// Unmap releases the mapping returned by Map.
	Unmap()
}

// Picture identifies one destination or reference image: a stable
// identity assigned by the image layer, the real coded extent, and the
// backing memory decoded pixels are copied into.
type Picture struct {
	ID     surface.PictureID
	Width  int
	Height int
	Memory PictureMemory
}

// Session is one decode stream: a decoder context, the parameter sets
// in effect, and the surface cache tying picture identities to backend
// surfaces. Sessions are driven from a single goroutine at a time.
type Session struct {
	id      string
	dev     backend.Device
	ownsDev bool

	profile backend.Profile
	maxRefs int
	opts    sessionOptions

	params  *h264.ParamStore
	cache   *surface.Cache
	decoder backend.Decoder

	// Reused readback scratch; the driver grows the plane buffers once
	// and then recycles them across frames.
	planes backend.PlaneData

	dump   *dump.Writer
	closed bool
}

// NewSession creates a decode session for profile with room for maxRefs
// reference pictures. The surface cache holds maxRefs+1 entries: every
// live reference plus the picture currently being decoded.
//
// The device must support the profile or a substitute for it; otherwise
// NewSession returns ErrUnsupportedProfile.
func NewSession(profile backend.Profile, maxRefs int, options ...Option) (*Session, error) {
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedProfile, profile)
	}
	if maxRefs < 0 {
		maxRefs = 0
	}

	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}

	dev := opts.device
	ownsDev := false
	var err error
	switch {
	case dev != nil:
	case opts.driver != "":
		dev, err = backend.Open(opts.driver)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitializationFailed, err)
		}
		ownsDev = true
	default:
		dev, err = SharedDevice()
		if err != nil {
			return nil, err
		}
	}

	supported := false
	for _, p := range profile.Substitutes() {
		if dev.Supports(p) {
			supported = true
			break
		}
	}
	if !supported {
		if ownsDev {
			dev.Close()
		}
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedProfile, profile, dev.Name())
	}

	s := &Session{
		id:      uuid.NewString(),
		dev:     dev,
		ownsDev: ownsDev,
		profile: profile,
		maxRefs: maxRefs,
		opts:    opts,
		params:  h264.NewParamStore(),
		cache:   surface.NewCache(maxRefs + 1),
		dump:    opts.dump,
	}

	// The decoder exists from the start, at assumed dimensions; the
	// first decode at the stream's real extent rebuilds it.
	if err := s.ensureDecoder(opts.initialWidth, opts.initialHeight); err != nil {
		if ownsDev {
			dev.Close()
		}
		return nil, err
	}

	Logger().Info("decode session created",
		"session", s.id, "profile", profile.String(),
		"maxRefs", maxRefs, "driver", dev.Name())
	return s, nil
}

// ID returns the session's trace identifier.
func (s *Session) ID() string { return s.id }

// Profile returns the profile the session was created for. The decoder
// context may run a more capable substitute.
func (s *Session) Profile() backend.Profile { return s.profile }

// MaxRefs returns the reference-picture capacity.
func (s *Session) MaxRefs() int { return s.maxRefs }

// Device returns the session's decode device.
func (s *Session) Device() backend.Device { return s.dev }

// PutSPS stores or replaces a sequence parameter set.
func (s *Session) PutSPS(sps *h264.SPS) { s.params.PutSPS(sps) }

// PutPPS stores or replaces a picture parameter set.
func (s *Session) PutPPS(pps *h264.PPS) { s.params.PutPPS(pps) }

// ensureDecoder makes the decoder context match the coded dimensions,
// rebuilding it when they changed. A rebuild invalidates every cached
// surface: the old surfaces belong to the old context, and a reference
// that crossed a resolution change would predict garbage anyway.
func (s *Session) ensureDecoder(width, height int) error {
	if s.decoder != nil && s.decoder.Width() == width && s.decoder.Height() == height {
		return nil
	}

	if s.decoder != nil {
		Logger().Info("coded dimensions changed, rebuilding decoder",
			"session", s.id,
			"old", fmt.Sprintf("%dx%d", s.decoder.Width(), s.decoder.Height()),
			"new", fmt.Sprintf("%dx%d", width, height),
			"dropped", s.cache.Len())
		s.cache.Clear(s.destroySurface)
		s.decoder.Close()
		s.decoder = nil
	}

	dec, err := backend.NewDecoderWithFallback(s.dev, s.profile, width, height, s.maxRefs)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrUnsupportedProfile):
			return fmt.Errorf("%w: %w", ErrUnsupportedProfile, err)
		case errors.Is(err, backend.ErrResourceExhausted):
			return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
		}
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}
	s.decoder = dec
	return nil
}

func (s *Session) destroySurface(sf *surface.Surface) {
	if err := s.dev.DestroySurface(sf.ID); err != nil {
		Logger().Warn("surface destroy failed", "session", s.id, "surface", uint32(sf.ID), "err", err)
	}
}

// surfaceFor returns the backend surface bound to pic, allocating one
// on first sight.
func (s *Session) surfaceFor(pic Picture) (*surface.Surface, error) {
	return s.cache.LookupOrCreate(pic.ID, func() (*surface.Surface, error) {
		id, err := s.dev.NewSurface(pic.Width, pic.Height)
		if err != nil {
			return nil, err
		}
		return &surface.Surface{ID: id, Width: pic.Width, Height: pic.Height}, nil
	})
}

// referenceFor resolves a reference picture's surface. A miss means the
// frame that produced the reference was never decoded here (seek, or a
// stream bug); a fresh surface full of garbage still beats failing the
// whole batch, so one is created and the miss logged.
func (s *Session) referenceFor(pic Picture) (*surface.Surface, error) {
	if sf := s.cache.Lookup(pic.ID); sf != nil {
		return sf, nil
	}
	Logger().Warn("reference picture was never decoded, creating surface",
		"session", s.id, "picture", uint64(pic.ID))
	return s.surfaceFor(pic)
}

// readback copies the decoded pixels of sf into the destination
// picture's mapped planes, converting to the tiled layout when the
// destination asks for it.
func (s *Session) readback(sf *surface.Surface, dst Picture) error {
	if err := s.dev.ReadSurface(sf.ID, &s.planes); err != nil {
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}

	layouts, err := dst.Memory.Map()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMemoryMapFailed, err)
	}
	defer dst.Memory.Unmap()

	// NV12: full-height luma, half-height interleaved chroma. Both
	// planes are dst.Width bytes wide.
	copyPlane(layouts[0], s.planes.Y, dst.Width, dst.Height, s.planes.YPitch)
	copyPlane(layouts[1], s.planes.UV, dst.Width, dst.Height/2, s.planes.UVPitch)

	if s.dump != nil {
		if err := s.dump.WriteFrame(s.planes.Y, s.planes.UV, dst.Width, dst.Height, s.planes.YPitch, s.planes.UVPitch); err != nil {
			Logger().Warn("frame dump failed", "session", s.id, "err", err)
		}
	}
	return nil
}

func copyPlane(dst PlaneLayout, src []byte, widthBytes, height, srcPitch int) {
	if dst.Tiled {
		tilesPerRow := dst.Pitch / tiling.TileWidth
		tiling.LinearToTiled(dst.Data, src, widthBytes, height, srcPitch, tilesPerRow, dst.Swizzle)
		return
	}
	tiling.CopyPlane(dst.Data, src, widthBytes, height, dst.Pitch, srcPitch)
}

// Close tears the session down: cached surfaces, decoder context,
// parameter sets. Close is idempotent. The shared device stays open.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.cache.Clear(s.destroySurface)
	if s.decoder != nil {
		s.decoder.Close()
		s.decoder = nil
	}
	s.params.Clear()

	var err error
	if s.ownsDev {
		err = s.dev.Close()
	}
	Logger().Info("decode session closed", "session", s.id)
	return err
}
