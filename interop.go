package hwdec

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
)

// ErrTextureNotUpdatable is returned when a GPU texture handed to
// UploadPlanes cannot receive CPU pixel data.
var ErrTextureNotUpdatable = errors.New("hwdec: texture does not implement gpucontext.TextureUpdater")

type providerSlot struct {
	p gpucontext.DeviceProvider
}

var deviceProvider atomic.Pointer[providerSlot]

// SetDeviceProvider registers the host application's GPU device
// provider. hwdec never creates a GPU device of its own; hosts that
// want decoded frames on GPU textures hand their provider in and upload
// planes with UploadPlanes.
//
// Pass nil to clear the provider.
func SetDeviceProvider(p gpucontext.DeviceProvider) {
	if p == nil {
		deviceProvider.Store(nil)
		return
	}
	deviceProvider.Store(&providerSlot{p: p})
}

// DeviceProvider returns the registered GPU device provider, or nil.
func DeviceProvider() gpucontext.DeviceProvider {
	slot := deviceProvider.Load()
	if slot == nil {
		return nil
	}
	return slot.p
}

// UploadPlanes copies a decoded frame's NV12 planes into two GPU
// textures. The textures must match the descriptors returned by
// [surface.Surface.Planes]: a full-resolution single-channel luma
// texture and a half-resolution two-channel chroma texture, both
// implementing gpucontext.TextureUpdater.
//
// The planes must be tightly packed (pitch equals width); callers read
// frames back through a Picture whose memory uses a tight linear
// layout, or repack first.
func UploadPlanes(luma, chroma any, y, uv []byte) error {
	lu, ok := luma.(gpucontext.TextureUpdater)
	if !ok {
		return fmt.Errorf("%w: luma", ErrTextureNotUpdatable)
	}
	cu, ok := chroma.(gpucontext.TextureUpdater)
	if !ok {
		return fmt.Errorf("%w: chroma", ErrTextureNotUpdatable)
	}
	if err := lu.UpdateData(y); err != nil {
		return fmt.Errorf("hwdec: luma upload: %w", err)
	}
	if err := cu.UpdateData(uv); err != nil {
		return fmt.Errorf("hwdec: chroma upload: %w", err)
	}
	return nil
}
