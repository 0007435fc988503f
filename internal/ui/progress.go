package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/fskit/internal/progress"
	"github.com/fenilsonani/fskit/internal/ui/utils"
)

// LiveProgress redraws a single status line from progress updates
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	termWidth  int
	lastUpdate time.Time
	throttle   time.Duration
	frame      int
	drawn      bool
	done       chan struct{}
	stop       func()
}

// NewLiveProgress creates a live progress line on out. The width comes from
// the terminal when out is one, 80 otherwise.
func NewLiveProgress(out io.Writer) *LiveProgress {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &LiveProgress{
		out:       out,
		termWidth: width,
		throttle:  100 * time.Millisecond,
	}
}

// IsTerminal reports whether out is an interactive terminal
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Follow renders every update published by reporter until Stop is called
func (lp *LiveProgress) Follow(reporter *progress.ProgressReporter) {
	ch := reporter.Subscribe()
	lp.done = make(chan struct{})

	go func() {
		defer close(lp.done)
		for u := range ch {
			lp.Update(u)
		}
	}()

	lp.stop = func() {
		reporter.Unsubscribe(ch)
		<-lp.done
	}
}

// Update draws u, at most ten times per second. Phase changes always draw.
func (lp *LiveProgress) Update(u progress.Update) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	if u.Phase != progress.PhaseComplete && now.Sub(lp.lastUpdate) < lp.throttle {
		return
	}
	lp.lastUpdate = now
	lp.render(&u)
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (lp *LiveProgress) render(u *progress.Update) {
	width := lp.termWidth - 2
	lp.frame = (lp.frame + 1) % len(spinner)

	line := spinner[lp.frame] + " " + progress.Format(u)
	if u.CurrentPath != "" && u.Phase != progress.PhaseComplete {
		room := width - len([]rune(line)) - 3
		if room > 10 {
			line += " | " + utils.TruncatePath(u.CurrentPath, room)
		}
	}

	fmt.Fprintf(lp.out, "\r\033[K%s", utils.TruncateString(line, width))
	lp.drawn = true
}

// Stop detaches from the reporter and ends the status line
func (lp *LiveProgress) Stop() {
	if lp.stop != nil {
		lp.stop()
		lp.stop = nil
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.drawn {
		fmt.Fprint(lp.out, "\r\033[K")
		lp.drawn = false
	}
}
