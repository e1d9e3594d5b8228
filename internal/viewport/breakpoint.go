// Package viewport tracks the client viewport and reports whether the compact
// (mobile) variant of responsive assets should be used.
package viewport

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// CompactThreshold is the first width, in logical pixels, that is not compact
	CompactThreshold = 768
	// DefaultWidth is assumed until the client reports its viewport
	DefaultWidth = 1280
)

// Breakpoint is the capability pages consume. Implementations decide how
// resize events are delivered; callers only read and subscribe.
type Breakpoint interface {
	Compact() bool
	Subscribe(fn func(compact bool)) (unsubscribe func())
}

func IsCompact(width int) bool {
	return width < CompactThreshold
}

type subscriber struct {
	id int
	fn func(compact bool)
}

// WidthBreakpoint recomputes the compact signal synchronously on every resize.
type WidthBreakpoint struct {
	mu          sync.Mutex
	width       int
	compact     bool
	subscribers []subscriber
	nextID      int
}

// NewWidthBreakpoint starts from initialWidth so the first read is already correct.
func NewWidthBreakpoint(initialWidth int) *WidthBreakpoint {
	return &WidthBreakpoint{
		width:   initialWidth,
		compact: IsCompact(initialWidth),
	}
}

func (b *WidthBreakpoint) Compact() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.compact
}

func (b *WidthBreakpoint) Width() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

// Resize handles one resize event. Subscribers hear about it only when the
// compact signal flips.
func (b *WidthBreakpoint) Resize(width int) {
	b.mu.Lock()
	b.width = width
	compact := IsCompact(width)
	changed := compact != b.compact
	b.compact = compact
	subscribers := make([]subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()

	if !changed {
		return
	}
	for _, s := range subscribers {
		s.fn(compact)
	}
}

func (b *WidthBreakpoint) Subscribe(fn func(compact bool)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subscribers {
			if s.id == id {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Subscribers reports how many subscriptions are live.
func (b *WidthBreakpoint) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// DebouncedBreakpoint coalesces bursts of resize events and applies only the
// last width once the burst has been quiet for delay.
type DebouncedBreakpoint struct {
	*WidthBreakpoint
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func NewDebounced(initialWidth int, delay time.Duration) *DebouncedBreakpoint {
	return &DebouncedBreakpoint{
		WidthBreakpoint: NewWidthBreakpoint(initialWidth),
		delay:           delay,
	}
}

func (d *DebouncedBreakpoint) Resize(width int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.WidthBreakpoint.Resize(width)
		}
	})
}

// Close drops any pending resize. Later resizes are ignored.
func (d *DebouncedBreakpoint) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// WidthFromRequest reads the viewport width a browser reported, preferring
// the client hint headers over the vw query parameter.
func WidthFromRequest(r *http.Request) (int, bool) {
	candidates := []string{
		r.Header.Get("Sec-CH-Viewport-Width"),
		r.Header.Get("Viewport-Width"),
		r.URL.Query().Get("vw"),
	}
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		width, err := strconv.Atoi(raw)
		if err != nil || width <= 0 {
			continue
		}
		return width, true
	}
	return 0, false
}
