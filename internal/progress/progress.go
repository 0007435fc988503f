package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/fskit/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseHashing  Phase = "hashing"
	PhaseRemoving Phase = "removing"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// Update is a single progress notification
type Update struct {
	Phase       Phase
	CurrentPath string
	Done        int   // items finished in this phase
	Total       int   // items expected in this phase, 0 if unknown
	Bytes       int64 // bytes processed in this phase
	StartTime   time.Time
	Error       error
}

// ProgressReporter provides thread-safe progress reporting
type ProgressReporter struct {
	last      *Update
	mu        sync.RWMutex
	listeners []chan Update
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		listeners: make([]chan Update, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (pr *ProgressReporter) Subscribe() <-chan Update {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan Update, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *ProgressReporter) Unsubscribe(ch <-chan Update) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// Publish records an update and notifies listeners. A nil reporter is a no-op
// so components can publish unconditionally.
func (pr *ProgressReporter) Publish(update Update) {
	if pr == nil {
		return
	}

	// Held while sending so Unsubscribe cannot close a channel mid-send
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.last = &update

	// Notify all listeners (non-blocking)
	for _, listener := range pr.listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// Last returns the most recent update, or nil
func (pr *ProgressReporter) Last() *Update {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.last
}

// Format returns a human-readable progress string
func Format(u *Update) string {
	if u == nil {
		return "Initializing..."
	}

	elapsed := time.Since(u.StartTime)

	switch u.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning... %d files found [%s]", u.Done, FormatDuration(elapsed))
	case PhaseHashing:
		percentage := 0
		if u.Total > 0 {
			percentage = (u.Done * 100) / u.Total
		}
		return fmt.Sprintf("Hashing... %d/%d files (%d%%) - %s read [%s]",
			u.Done, u.Total, percentage, utils.FormatBytes(u.Bytes), FormatDuration(elapsed))
	case PhaseRemoving:
		return fmt.Sprintf("Removing... %d files - %s freed", u.Done, utils.FormatBytes(u.Bytes))
	case PhaseComplete:
		return fmt.Sprintf("Done: %d files (%s) in %s", u.Done, utils.FormatBytes(u.Bytes), FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Error: %v", u.Error)
	default:
		return "Working..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
