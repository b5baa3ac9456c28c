package watch

import "time"

// debouncer collects changed paths and fires once the stream has been quiet
// for the debounce period. It is owned by the event loop and not safe for
// concurrent use.
type debouncer struct {
	delay   time.Duration
	timer   *time.Timer
	pending map[string]struct{}
}

func newDebouncer(delay time.Duration) *debouncer {
	t := time.NewTimer(delay)
	if !t.Stop() {
		<-t.C
	}
	return &debouncer{delay: delay, timer: t, pending: make(map[string]struct{})}
}

// add records path and restarts the quiet period.
func (d *debouncer) add(path string) {
	d.pending[path] = struct{}{}
	d.timer.Reset(d.delay)
}

// C fires when the quiet period ends.
func (d *debouncer) C() <-chan time.Time {
	return d.timer.C
}

// take resets the pending set and returns how many paths it held.
func (d *debouncer) take() int {
	n := len(d.pending)
	d.pending = make(map[string]struct{})
	return n
}

// size returns the number of distinct changed paths not yet flushed.
func (d *debouncer) size() int {
	return len(d.pending)
}

func (d *debouncer) stop() {
	d.timer.Stop()
}
