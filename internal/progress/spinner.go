package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner renders an animated waiting indicator on its own goroutine. It
// shares no session state and stop is safe to call exactly once; the call
// blocks until the goroutine has exited and the line is cleared.
type spinner struct {
	out   io.Writer
	label string

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func newSpinner(out io.Writer, label string) *spinner {
	return &spinner{
		out:   out,
		label: label,
		done:  make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.spin()
}

func (s *spinner) stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", 80))
}

func (s *spinner) spin() {
	defer s.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	t0 := time.Now()
	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			elapsed := time.Since(t0).Seconds()
			fmt.Fprint(s.out, styleGrey.Render(fmt.Sprintf("\r  %s %s (%.0fs)", frame, s.label, elapsed)))
			i++
		}
	}
}
