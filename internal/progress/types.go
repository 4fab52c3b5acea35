package progress

import (
	"errors"
	"fmt"
)

// TerminalCapabilities describes what the attached terminal can render.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols are the status glyphs and spinner set in use.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	Skipped    string
	SpinnerSet int
}

// StageStatus is the display state of a stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
	StageSkipped    StageStatus = "skipped"
)

// StageInfo identifies a stage within a run.
type StageInfo struct {
	Name        string
	Number      int
	TotalStages int
	Status      StageStatus
	// Detail is shown after the stage name, e.g. a skip reason or URL.
	Detail string
}

// Validate checks that the stage can be rendered as "[n/N] name".
func (s StageInfo) Validate() error {
	if s.Name == "" {
		return errors.New("stage name is empty")
	}
	if s.Number < 1 {
		return fmt.Errorf("stage %q: number must be positive, got %d", s.Name, s.Number)
	}
	if s.TotalStages < s.Number {
		return fmt.Errorf("stage %q: number %d exceeds total %d", s.Name, s.Number, s.TotalStages)
	}
	return nil
}

func (s StageInfo) counter() string {
	return fmt.Sprintf("[%d/%d]", s.Number, s.TotalStages)
}
