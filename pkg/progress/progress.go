// Package progress holds the shared download status record. One tracker is
// created at process start and reused across pipeline runs; writers are the
// active run only, readers are the HTTP status handlers.
package progress

import "sync"

// Snapshot is a consistent copy of the tracker state at one point in time.
type Snapshot struct {
	Running   bool     `json:"running"`
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
	Message   string   `json:"message"`
	URLs      []string `json:"urls"`
}

// Tracker guards the mutable download status behind a mutex so observers
// never see a torn multi-field read.
type Tracker struct {
	mu        sync.RWMutex
	running   bool
	completed int
	total     int
	message   string
	urls      []string
}

// NewTracker returns an idle tracker with empty state.
func NewTracker() *Tracker {
	return &Tracker{urls: []string{}}
}

// Begin marks the start of a run, resetting counters for the new total.
func (t *Tracker) Begin(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.completed = 0
	t.total = total
	t.message = ""
	t.urls = []string{}
}

// SetMessage replaces the human-readable status line.
func (t *Tracker) SetMessage(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = msg
}

// Increment records one more validated image and updates the status line.
// The counter never goes backwards within a run.
func (t *Tracker) Increment(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.message = msg
}

// AppendURL records a resolved result in candidate order.
func (t *Tracker) AppendURL(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls = append(t.urls, url)
}

// SetURLs replaces the result list wholesale.
func (t *Tracker) SetURLs(urls []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls = append([]string{}, urls...)
}

// Finish is the terminal transition of a run. It is the last observable
// mutation: running drops to false with the final message in place.
func (t *Tracker) Finish(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.message = msg
}

// Running reports whether a run is active.
func (t *Tracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Snapshot returns a consistent copy of all fields.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Running:   t.running,
		Completed: t.completed,
		Total:     t.total,
		Message:   t.message,
		URLs:      append([]string{}, t.urls...),
	}
}
