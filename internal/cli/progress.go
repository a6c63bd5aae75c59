package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressReporter wraps a schollz/progressbar bar, gated by quiet so
// every long-running command (index, git-index, analyze) can report
// progress the same way without duplicating the bar setup.
type progressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

func newProgressReporter(quiet bool) *progressReporter {
	return &progressReporter{quiet: quiet}
}

func (p *progressReporter) start(total int, description string) {
	if p.quiet {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)
}

func (p *progressReporter) add(n int) {
	if p.quiet || p.bar == nil {
		return
	}
	p.bar.Add(n)
}

func (p *progressReporter) finish() {
	if p.quiet || p.bar == nil {
		return
	}
	p.bar.Finish()
}

func (p *progressReporter) printf(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Printf(format, args...)
}
