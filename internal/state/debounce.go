package state

import (
	"sync"
	"time"

	"github.com/statevault/statevault/internal/events"
)

// DebouncedSaver coalesces rapid saves: content handed to Save replaces
// any pending content and resets the timer, so only the latest version
// is written once the delay elapses. A zero delay writes immediately.
type DebouncedSaver struct {
	delay  time.Duration
	write  func([]byte) error
	logger *events.Logger

	mu      sync.Mutex
	pending []byte
	timer   *time.Timer
}

// NewDebouncedSaver creates a saver writing through write.
func NewDebouncedSaver(delay time.Duration, write func([]byte) error, logger *events.Logger) *DebouncedSaver {
	return &DebouncedSaver{
		delay:  delay,
		write:  write,
		logger: logger.WithField("component", "debounced_saver"),
	}
}

// Save schedules content to be written after the delay, replacing any
// not-yet-written content.
func (d *DebouncedSaver) Save(content []byte) error {
	if d.delay == 0 {
		return d.write(content)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = content
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
	} else {
		d.timer.Reset(d.delay)
	}
	return nil
}

func (d *DebouncedSaver) fire() {
	d.mu.Lock()
	content := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if content == nil {
		return
	}
	if err := d.write(content); err != nil {
		d.logger.WithError(err).Error("Debounced write failed")
	}
}

// Flush writes any pending content immediately.
func (d *DebouncedSaver) Flush() error {
	d.mu.Lock()
	content := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if content == nil {
		return nil
	}
	return d.write(content)
}
