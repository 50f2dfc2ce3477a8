package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type progressReporter struct {
	bar *progressbar.ProgressBar
}

// newProgress returns a terminal progress bar on stderr. It is inert when
// stderr is not a terminal or JSON output was requested.
func newProgress(ctx *commandContext, cmd *cobra.Command, description string) *progressReporter {
	w := cmd.ErrOrStderr()
	if ctx.JSONMode() || !isTerminal(w) {
		return &progressReporter{}
	}
	return &progressReporter{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

// Update matches the progress callbacks of the verify, cleaner and organizer
// packages.
func (p *progressReporter) Update(done, total int) {
	if p == nil || p.bar == nil {
		return
	}
	if p.bar.GetMax() != total {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
}

func (p *progressReporter) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
