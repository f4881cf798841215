package autosave

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errMissingDelay = errors.New("debounce delay must be positive")

// SaveFunc performs one deferred persist.
type SaveFunc func() error

type pendingSave struct {
	timer *time.Timer
	fn    SaveFunc
}

// Debouncer coalesces rapid saves for the same key into a single
// deferred persist. Scheduling a key again before its delay elapses
// resets the timer and replaces the pending payload, so only the most
// recent write reaches the database.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*pendingSave
	logger  *zap.Logger
	stopped bool
}

// NewDebouncer constructs a debouncer with the given coalescing window.
func NewDebouncer(delay time.Duration, logger *zap.Logger) (*Debouncer, error) {
	if delay <= 0 {
		return nil, errMissingDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pendingSave),
		logger:  logger,
	}, nil
}

// Schedule queues fn to run after the delay. A pending save for the
// same key is superseded.
func (d *Debouncer) Schedule(key string, fn SaveFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if existing, ok := d.pending[key]; ok {
		existing.timer.Stop()
	}
	entry := &pendingSave{fn: fn}
	entry.timer = time.AfterFunc(d.delay, func() {
		d.fire(key, entry)
	})
	d.pending[key] = entry
}

func (d *Debouncer) fire(key string, entry *pendingSave) {
	d.mu.Lock()
	if d.pending[key] != entry {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if err := entry.fn(); err != nil {
		d.logger.Error("deferred save failed",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Flush runs every pending save immediately. Used on shutdown so
// buffered edits are not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	drained := make(map[string]*pendingSave, len(d.pending))
	for key, entry := range d.pending {
		entry.timer.Stop()
		drained[key] = entry
	}
	d.pending = make(map[string]*pendingSave)
	d.mu.Unlock()

	for key, entry := range drained {
		if err := entry.fn(); err != nil {
			d.logger.Error("deferred save failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// Stop flushes pending saves and rejects further scheduling.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Flush()
}
