package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"github.com/roach88/mintctl/internal/minter"
)

// progressHooks reports pipeline events to the terminal. Stop releases any
// rendering goroutine and is safe to call more than once.
type progressHooks interface {
	minter.Hooks
	Stop()
}

// newProgress picks a renderer for w: a live bar on a terminal, one line per
// event otherwise, nothing for JSON output.
func newProgress(w io.Writer, format string) progressHooks {
	if format == "json" {
		return quietProgress{}
	}
	lines := &lineProgress{w: w}
	if isTerminal(w) {
		return &barProgress{lineProgress: lines}
	}
	return lines
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type quietProgress struct{ minter.NopHooks }

func (quietProgress) Stop() {}

// lineProgress writes one line per event.
type lineProgress struct {
	w      io.Writer
	total  int
	minted int
}

func (p *lineProgress) OnStartDuplicateCheck() {
	fmt.Fprintln(p.w, "Checking for existing editions...")
}

func (p *lineProgress) OnCompleteDuplicateCheck(existing int, minted uint64) {
	if existing == 0 {
		fmt.Fprintln(p.w, "No existing editions found.")
		return
	}
	fmt.Fprintf(p.w, "Found %d existing editions with %d NFTs already minted.\n", existing, minted)
}

func (p *lineProgress) OnStartEditionCreation(n int) {
	if n > 0 {
		fmt.Fprintf(p.w, "Creating %d editions...\n", n)
	}
}

func (p *lineProgress) OnCompleteEditionCreation(n int) {
	if n > 0 {
		fmt.Fprintf(p.w, "Created %d editions.\n", n)
	}
}

func (p *lineProgress) OnStartMinting(total, batches, batchSize int) {
	p.total = total
	if total == 0 {
		fmt.Fprintln(p.w, "All editions are fully minted.")
		return
	}
	fmt.Fprintf(p.w, "Minting %d NFTs in %d batches of up to %d...\n", total, batches, batchSize)
}

func (p *lineProgress) OnCompleteBatch(size int) {
	p.minted += size
	fmt.Fprintf(p.w, "Minted %d/%d NFTs\n", p.minted, p.total)
}

func (p *lineProgress) OnComplete(int, int) {}

func (p *lineProgress) Stop() {}

// barProgress replaces the per-batch lines with a progress bar.
type barProgress struct {
	*lineProgress
	pw      progress.Writer
	tracker *progress.Tracker
}

func (p *barProgress) OnStartMinting(total, batches, batchSize int) {
	p.lineProgress.OnStartMinting(total, batches, batchSize)
	if total == 0 {
		return
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(p.w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(40)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true

	p.tracker = &progress.Tracker{
		Message: "Minting",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(p.tracker)
	p.pw = pw
	go pw.Render()
}

func (p *barProgress) OnCompleteBatch(size int) {
	p.minted += size
	if p.tracker != nil {
		p.tracker.Increment(int64(size))
	}
}

func (p *barProgress) OnComplete(int, int) {
	if p.tracker != nil {
		p.tracker.MarkAsDone()
	}
	p.Stop()
}

func (p *barProgress) Stop() {
	if p.pw == nil {
		return
	}
	p.pw.Stop()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
	p.pw = nil
}
