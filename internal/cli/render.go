package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/versioning"
	"github.com/fatih/color"
)

// changesetView is a changeset as emitted in JSON output.
type changesetView struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"createdAt"`
	Author    string `json:"author,omitempty"`
	PR        int    `json:"pr,omitempty"`
}

func changesetViews(list []changeset.Changeset) []changesetView {
	views := make([]changesetView, 0, len(list))
	for _, c := range list {
		views = append(views, changesetView{
			ID:        c.ID,
			Type:      string(c.Type),
			Summary:   c.Summary,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
			Author:    c.Author,
			PR:        c.PR,
		})
	}
	return views
}

func formatOptions() changelog.FormatOptions {
	return changelog.FormatOptions{Plain: color.NoColor}
}

func renderStatus(w io.Writer, r *statusReport) {
	output.PrintField(w, "Current", r.Current)
	if r.HasChanges {
		kind := versioning.KindFor(r.ChangesByType)
		output.PrintField(w, "Next", fmt.Sprintf("%s (%s)", r.Next, kind))
	} else {
		output.PrintField(w, "Next", r.Next+" (no changes)")
	}
	fmt.Fprintln(w)

	if len(r.Changesets) == 0 {
		fmt.Fprintln(w, "No pending changesets. Record one with: changeset add")
	} else {
		output.PrintHeader(w, fmt.Sprintf("Pending changesets (%d)", len(r.Changesets)))
		for _, v := range r.Changesets {
			c := changeset.Changeset{ID: v.ID, Type: changeset.Type(v.Type), Summary: v.Summary}
			fmt.Fprintf(w, "  %s\n", changelog.FormatChangeset(c, formatOptions()))
		}
	}

	if len(r.Corrupt) > 0 {
		fmt.Fprintln(w)
		for _, c := range r.Corrupt {
			fprintWarning(w, fmt.Sprintf("corrupt changeset %s: %s", c.Path, c.Reason))
		}
	}

	if r.Interrupted != nil {
		fmt.Fprintln(w)
		fprintWarning(w, interruptedMessage(r.Interrupted.Command, r.Interrupted.Target))
	}
}

func interruptedMessage(command, target string) string {
	if command == publish.CommandPublish {
		return fmt.Sprintf("a publish of v%s did not finish; rerun 'changeset publish' to retry it", target)
	}
	return fmt.Sprintf("a version run for v%s was interrupted; run 'changeset version' to finish it", target)
}

// renderPlan prints a release preview: the bump and the changelog entry.
func renderPlan(w io.Writer, plan *release.Plan) {
	output.PrintField(w, "Current", plan.Info.Current.String())
	output.PrintField(w, "Next", fmt.Sprintf("%s (%s)", plan.Target(), plan.Info.BumpKind()))
	output.PrintField(w, "Changes", fmt.Sprintf("%d major, %d minor, %d patch",
		plan.Info.ChangesByType.Major, plan.Info.ChangesByType.Minor, plan.Info.ChangesByType.Patch))
	fmt.Fprintln(w)
	if err := changelog.FormatEntry(plan.Entry, w, formatOptions()); err != nil {
		fprintWarning(w, err.Error())
	}
	fmt.Fprintln(w)
}

// renderPublishResult prints the text summary of a publish run.
func renderPublishResult(w io.Writer, res *publish.Result) {
	if res.DryRun && res.Preview != nil {
		renderPreview(w, res)
		return
	}
	if !res.Success {
		return
	}

	fmt.Fprintln(w)
	output.PrintSuccess(w, fmt.Sprintf("Released v%s", res.Version))
	output.PrintField(w, "Tag", res.GitTag)
	output.PrintField(w, "Pushed", yesNo(res.GitPushed))
	output.PrintField(w, "Published", yesNo(res.NpmPublished))
	if res.ReleaseURL != "" {
		output.PrintField(w, "Release", res.ReleaseURL)
	}
	if len(res.Consumed) > 0 {
		output.PrintField(w, "Consumed", fmt.Sprintf("%d changesets", len(res.Consumed)))
	}
}

func renderPreview(w io.Writer, res *publish.Result) {
	p := res.Preview
	output.PrintHeader(w, "Dry run: nothing was changed")
	output.PrintField(w, "Current", p.Current)
	output.PrintField(w, "Target", p.Target)
	output.PrintField(w, "Tag", res.GitTag)
	if p.Resumed {
		output.PrintField(w, "Resuming", "an earlier publish of this version")
	}
	fmt.Fprintln(w)

	if len(p.Changesets) > 0 {
		output.PrintHeader(w, fmt.Sprintf("Changesets (%d)", len(p.Changesets)))
		for _, c := range p.Changesets {
			cs := changeset.Changeset{ID: c.ID, Type: changeset.Type(c.Type), Summary: c.Summary}
			fmt.Fprintf(w, "  %s\n", changelog.FormatChangeset(cs, formatOptions()))
		}
		fmt.Fprintln(w)
	}
	if p.Changelog != "" {
		output.PrintHeader(w, "Changelog entry")
		fmt.Fprintln(w, p.Changelog)
	}

	output.PrintHeader(w, "Stages")
	for _, s := range res.Stages {
		line := fmt.Sprintf("  %-17s %s", s.Stage, s.Status)
		if s.Detail != "" {
			line += " (" + s.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
