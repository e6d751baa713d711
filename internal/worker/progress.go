package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress tracks and displays frame rendering progress on stderr.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker for total frames. When disabled it
// still tracks counts but prints nothing.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records the completion of a frame.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

const progressBarWidth = 28

// Print displays the current progress to output, overwriting the line.
func (p *Progress) Print() {
	p.mu.RLock()
	completed := p.completed
	total := p.total
	failed := p.failed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)

	var rate float64
	var eta time.Duration
	if completed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		if remaining := total - completed; rate > 0 {
			eta = time.Duration(float64(remaining)/rate) * time.Second
		}
	}

	frac := 0.0
	if total > 0 {
		frac = float64(completed) / float64(total)
	}
	filled := int(frac * progressBarWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("·", progressBarWidth-filled)

	line := fmt.Sprintf("\r%s %3.0f%%  %d/%d frames", bar, frac*100, completed, total)
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	if rate > 0 {
		line += fmt.Sprintf(", %.1f/s", rate)
	}
	switch {
	case completed == total:
		line += ", done in " + formatDuration(elapsed)
	case eta > 0:
		line += ", eta " + formatDuration(eta)
	}

	// Trailing spaces overwrite leftovers from a longer previous line.
	line += "          "

	fmt.Fprint(p.output, line)
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary returns a summary string of the completed work.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed := p.completed
	total := p.total
	failed := p.failed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)
	successful := completed - failed

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	s := fmt.Sprintf("Rendered %d of %d frames in %s (%.1f/s)",
		successful, total, formatDuration(elapsed), rate)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
