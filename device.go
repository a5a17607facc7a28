package hwdec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/hwdec/backend"
)

// deviceSlot wraps the shared device so the atomic pointer can
// distinguish "never opened" from "opened then closed".
type deviceSlot struct {
	dev backend.Device
}

var (
	sharedMu  sync.Mutex
	sharedDev atomic.Pointer[deviceSlot]
)

// SharedDevice returns the process-wide decode device, opening it from
// the best available driver on first use. Device creation is a driver
// round trip, so sessions share one device rather than opening their
// own.
//
// SharedDevice is safe for concurrent use: the fast path is a single
// atomic load.
func SharedDevice() (backend.Device, error) {
	if slot := sharedDev.Load(); slot != nil {
		return slot.dev, nil
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()

	// Another caller may have opened the device while we waited.
	if slot := sharedDev.Load(); slot != nil {
		return slot.dev, nil
	}

	dev, err := backend.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}
	sharedDev.Store(&deviceSlot{dev: dev})
	Logger().Info("opened shared decode device", "driver", dev.Name())
	return dev, nil
}

// AdoptSharedDevice installs dev as the process-wide shared device,
// closing any device SharedDevice previously opened. Used by hosts that
// already own a device connection.
func AdoptSharedDevice(dev backend.Device) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if slot := sharedDev.Load(); slot != nil && slot.dev != dev {
		slot.dev.Close()
	}
	sharedDev.Store(&deviceSlot{dev: dev})
}

// CloseSharedDevice closes and forgets the shared device. Sessions
// still holding it must be closed first.
func CloseSharedDevice() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	slot := sharedDev.Load()
	if slot == nil {
		return nil
	}
	sharedDev.Store(nil)
	return slot.dev.Close()
}
