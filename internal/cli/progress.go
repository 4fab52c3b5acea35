package cli

import (
	"io"

	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/progress"
	"github.com/ariel-frischer/changeset/internal/publish"
)

// stageReporter drives a ProgressDisplay from pipeline stage events.
// Build and test stream their own output, so no spinner runs for them.
type stageReporter struct {
	display  *progress.ProgressDisplay
	out      io.Writer
	commands map[publish.Stage]string
	numbers  map[publish.Stage]int
	total    int
}

func newStageReporter(d *progress.ProgressDisplay, out io.Writer, cfg publish.Config) *stageReporter {
	stages := publish.Stages()
	r := &stageReporter{
		display: d,
		out:     out,
		commands: map[publish.Stage]string{
			publish.StageBuild: cfg.BuildCommand,
			publish.StageTest:  cfg.TestCommand,
		},
		numbers: make(map[publish.Stage]int, len(stages)),
		total:   len(stages),
	}
	for i, s := range stages {
		r.numbers[s] = i + 1
	}
	return r
}

func (r *stageReporter) info(s publish.Stage, detail string) progress.StageInfo {
	return progress.StageInfo{
		Name:        string(s),
		Number:      r.numbers[s],
		TotalStages: r.total,
		Detail:      detail,
	}
}

func (r *stageReporter) streams(s publish.Stage) bool {
	return r.commands[s] != ""
}

func (r *stageReporter) StageStarted(s publish.Stage) {
	if r.streams(s) {
		output.PrintExecutingCommand(r.out, r.commands[s])
		return
	}
	_ = r.display.StartStage(r.info(s, ""))
}

func (r *stageReporter) StageFinished(s publish.Stage, err error) {
	if r.streams(s) {
		output.PrintCommandOutputEnd(r.out)
	}
	if err != nil {
		_ = r.display.FailStage(r.info(s, ""), err)
		return
	}
	_ = r.display.CompleteStage(r.info(s, ""))
}

func (r *stageReporter) StageSkipped(s publish.Stage, reason string) {
	_ = r.display.SkipStage(r.info(s, reason))
}
