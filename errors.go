package hwdec

import "errors"

// Error taxonomy. Record-time failures return before anything is
// queued; execution-time failures abort the remaining batch but leave
// cached surfaces and session state intact.
var (
	// ErrUnsupportedProfile is fatal to session creation: the device
	// supports neither the requested profile nor any substitute.
	ErrUnsupportedProfile = errors.New("hwdec: unsupported profile")

	// ErrResourceExhausted is fatal to the failing operation only; the
	// caller may retry once resources free up.
	ErrResourceExhausted = errors.New("hwdec: resource exhausted")

	// ErrInitializationFailed is fatal to the current decode; the
	// session is unaffected.
	ErrInitializationFailed = errors.New("hwdec: initialization failed")

	// ErrFormatNotSupported covers malformed requests: zero slices,
	// unknown parameter sets. Fatal to the current decode only.
	ErrFormatNotSupported = errors.New("hwdec: format not supported")

	// ErrMemoryMapFailed is fatal to the current decode: the
	// destination image's backing could not be mapped.
	ErrMemoryMapFailed = errors.New("hwdec: memory map failed")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("hwdec: session closed")
)
