package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// ProgressDisplay renders stage progress. On a TTY a spinner runs while a
// stage is in progress; otherwise each transition is printed as a line.
type ProgressDisplay struct {
	caps    TerminalCapabilities
	symbols ProgressSymbols
	out     io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
}

// NewProgressDisplay creates a display writing to stdout.
func NewProgressDisplay(caps TerminalCapabilities) *ProgressDisplay {
	return NewProgressDisplayTo(caps, os.Stdout)
}

// NewProgressDisplayTo creates a display writing to w.
func NewProgressDisplayTo(caps TerminalCapabilities, w io.Writer) *ProgressDisplay {
	return &ProgressDisplay{
		caps:    caps,
		symbols: SelectSymbols(caps),
		out:     w,
	}
}

// StartStage shows info as in progress.
func (d *ProgressDisplay) StartStage(info StageInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	msg := fmt.Sprintf("%s Running %s", info.counter(), info.Name)
	if !d.caps.IsTTY {
		_, err := fmt.Fprintf(d.out, "%s...\n", msg)
		return err
	}

	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	s.Suffix = " " + msg
	s.Start()
	d.spinner = s
	return nil
}

// CompleteStage marks info as done.
func (d *ProgressDisplay) CompleteStage(info StageInfo) error {
	return d.finish(info, d.symbols.Checkmark, color.FgGreen, "")
}

// FailStage marks info as failed with err.
func (d *ProgressDisplay) FailStage(info StageInfo, err error) error {
	suffix := ""
	if err != nil {
		suffix = ": " + err.Error()
	}
	return d.finish(info, d.symbols.Failure, color.FgRed, " failed"+suffix)
}

// SkipStage marks info as skipped. Detail carries the reason.
func (d *ProgressDisplay) SkipStage(info StageInfo) error {
	return d.finish(info, d.symbols.Skipped, color.FgYellow, " skipped")
}

// StopSpinner stops a running spinner without printing a status line.
func (d *ProgressDisplay) StopSpinner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *ProgressDisplay) finish(info StageInfo, symbol string, attr color.Attribute, what string) error {
	if err := info.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	if d.caps.SupportsColor {
		symbol = color.New(attr).Sprint(symbol)
	}
	line := fmt.Sprintf("%s %s %s%s", symbol, info.counter(), info.Name, what)
	if info.Detail != "" {
		line += " (" + info.Detail + ")"
	}
	_, err := fmt.Fprintln(d.out, line)
	return err
}

func (d *ProgressDisplay) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
