package hwdec

import (
	"time"

	"github.com/gogpu/hwdec/backend"
	"github.com/gogpu/hwdec/dump"
)

// Initial coded dimensions assumed before the first real frame arrives.
// The decoder is rebuilt, and all cached surfaces dropped, as soon as a
// decode reveals the stream's actual extent.
const (
	defaultInitialWidth  = 4096
	defaultInitialHeight = 4096
)

type sessionOptions struct {
	device        backend.Device
	driver        string
	initialWidth  int
	initialHeight int
	maxDecodes    int
	twoPass       bool
	syncTimeout   time.Duration
	dump          *dump.Writer
}

func defaultOptions() sessionOptions {
	return sessionOptions{
		initialWidth:  defaultInitialWidth,
		initialHeight: defaultInitialHeight,
	}
}

// Option configures a Session.
type Option func(*sessionOptions)

// WithDevice binds the session to an already-open device instead of the
// process-wide shared one. The caller keeps ownership: Close on the
// session does not close the device.
func WithDevice(dev backend.Device) Option {
	return func(o *sessionOptions) { o.device = dev }
}

// WithDriver opens the session's device from a specific registered
// driver instead of the best available one.
func WithDriver(name string) Option {
	return func(o *sessionOptions) { o.driver = name }
}

// WithInitialSize overrides the coded dimensions assumed before the
// first decode. Picking dimensions close to the real stream avoids one
// decoder rebuild.
func WithInitialSize(width, height int) Option {
	return func(o *sessionOptions) {
		o.initialWidth = width
		o.initialHeight = height
	}
}

// WithMaxDecodesPerSubmit caps how many queued pictures one Execute
// call decodes; the remainder stays queued for the next submission.
// Zero (the default) means no cap.
func WithMaxDecodesPerSubmit(n int) Option {
	return func(o *sessionOptions) { o.maxDecodes = n }
}

// WithTwoPassExecute makes Execute submit every queued picture before
// collecting any, letting the hardware pipeline frames instead of
// serializing submit-then-wait per picture.
func WithTwoPassExecute() Option {
	return func(o *sessionOptions) { o.twoPass = true }
}

// WithSyncTimeout bounds the wait on a decode's producer sync signal.
// Zero means [command.DefaultSyncTimeout]. Expiry is logged and the
// decode proceeds.
func WithSyncTimeout(d time.Duration) Option {
	return func(o *sessionOptions) { o.syncTimeout = d }
}

// WithDumpWriter writes every decoded frame to w after copy-back, for
// offline inspection.
func WithDumpWriter(w *dump.Writer) Option {
	return func(o *sessionOptions) { o.dump = w }
}
