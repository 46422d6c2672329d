// Package progress draws the audit progress bar on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

const label = "Running security audit..."

// Bar advances on a ticker while the audit runs. It only reports elapsed
// time, npm gives no real progress.
type Bar struct {
	w     io.Writer
	model progress.Model

	interval time.Duration
	step     int
	ceiling  int

	mu      sync.Mutex
	percent int

	stop chan struct{}
	done chan struct{}
}

func New(w io.Writer) *Bar {
	return &Bar{
		w: w,
		model: progress.New(
			progress.WithDefaultGradient(),
			progress.WithFillCharacters('█', '░'),
			progress.WithoutPercentage(),
			progress.WithWidth(40),
		),
		interval: 200 * time.Millisecond,
		step:     10,
		ceiling:  90,
	}
}

func (b *Bar) render() {
	fmt.Fprintf(b.w, "\r%s [%s] %d%%", label, b.model.ViewAs(float64(b.percent)/100), b.percent)
}

// Start draws the empty bar and begins advancing it.
func (b *Bar) Start() {
	b.stop = make(chan struct{})
	b.done = make(chan struct{})

	b.mu.Lock()
	b.render()
	b.mu.Unlock()

	go func() {
		defer close(b.done)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				b.mu.Lock()
				if b.percent < b.ceiling {
					b.percent = min(b.percent+b.step, b.ceiling)
					b.render()
				}
				b.mu.Unlock()
			}
		}
	}()
}

// Stop completes the bar at 100% and ends the line.
func (b *Bar) Stop() {
	if b.stop != nil {
		close(b.stop)
		<-b.done
		b.stop = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.percent = 100
	b.render()
	fmt.Fprintln(b.w)
}

// Track runs fn, drawing a bar on w for its duration when enabled is set.
func Track[T any](w io.Writer, enabled bool, fn func() (T, error)) (T, error) {
	if !enabled {
		return fn()
	}

	bar := New(w)
	bar.Start()
	defer bar.Stop()

	return fn()
}

// Enabled reports whether f is a terminal the bar can be drawn on.
func Enabled(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
