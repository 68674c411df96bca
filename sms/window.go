package sms

import (
	"sync"
	"time"

	"cmppsms/cmpp"
)

// WindowSize bounds the number of submits awaiting a response.
const WindowSize = 16

// submission is one in-flight (or queued) submit together with its
// completion signal. The signal fires exactly once: with the matched
// response, or with nil on timeout.
type submission struct {
	seq      uint32
	sendTime time.Time
	packet   *cmpp.Submit
	done     chan *cmpp.SubmitResp
	once     sync.Once
}

func newSubmission(p *cmpp.Submit) *submission {
	return &submission{packet: p, done: make(chan *cmpp.SubmitResp, 1)}
}

// complete fires the completion signal. Safe to call more than once; only
// the first result is delivered.
func (s *submission) complete(resp *cmpp.SubmitResp) {
	s.once.Do(func() { s.done <- resp })
}

// window tracks in-flight submits by sequence id.
type window struct {
	mu      sync.Mutex
	entries map[uint32]*submission
}

func newWindow() *window {
	return &window{entries: make(map[uint32]*submission, WindowSize)}
}

// insert registers an entry. Returns false when the window is full.
func (w *window) insert(s *submission) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) >= WindowSize {
		return false
	}
	w.entries[s.seq] = s
	return true
}

// take removes and returns the entry for seq, or nil if unknown.
func (w *window) take(seq uint32) *submission {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.entries[seq]
	if s != nil {
		delete(w.entries, seq)
	}
	return s
}

// sweep removes and returns every entry sent before the deadline.
func (w *window) sweep(now time.Time, timeout time.Duration) []*submission {
	w.mu.Lock()
	defer w.mu.Unlock()
	var expired []*submission
	for seq, s := range w.entries {
		if now.Sub(s.sendTime) > timeout {
			expired = append(expired, s)
			delete(w.entries, seq)
		}
	}
	return expired
}

// drain removes and returns all entries.
func (w *window) drain() []*submission {
	w.mu.Lock()
	defer w.mu.Unlock()
	drained := make([]*submission, 0, len(w.entries))
	for seq, s := range w.entries {
		drained = append(drained, s)
		delete(w.entries, seq)
	}
	return drained
}

func (w *window) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
