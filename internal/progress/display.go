package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// StageDisplay shows one pipeline stage at a time. On a TTY it animates
// a spinner; otherwise it prints plain stage lines. A nil StageDisplay
// is a no-op, so callers never branch on quiet mode.
type StageDisplay struct {
	caps    TerminalCapabilities
	symbols StageSymbols
	spin    *spinner.Spinner
	current string
}

// NewStageDisplay builds a display for the current terminal.
func NewStageDisplay() *StageDisplay {
	caps := DetectTerminalCapabilities()
	return &StageDisplay{
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start begins showing a stage.
func (d *StageDisplay) Start(label string) {
	if d == nil {
		return
	}
	d.stopSpinner()
	d.current = label

	if !d.caps.IsTTY {
		fmt.Fprintf(os.Stderr, "... %s\n", label)
		return
	}

	d.spin = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	d.spin.Suffix = " " + label
	d.spin.Start()
}

// Complete marks the current stage as done.
func (d *StageDisplay) Complete() {
	if d == nil {
		return
	}
	d.stopSpinner()
	fmt.Fprintf(os.Stderr, "%s %s\n", d.symbols.Checkmark, d.current)
	d.current = ""
}

// Fail marks the current stage as failed.
func (d *StageDisplay) Fail() {
	if d == nil {
		return
	}
	d.stopSpinner()
	fmt.Fprintf(os.Stderr, "%s %s\n", d.symbols.Failure, d.current)
	d.current = ""
}

// Stop halts the spinner without a status line, for handing the
// terminal back before interactive output.
func (d *StageDisplay) Stop() {
	if d == nil {
		return
	}
	d.stopSpinner()
}

func (d *StageDisplay) stopSpinner() {
	if d.spin != nil {
		d.spin.Stop()
		d.spin = nil
	}
}
