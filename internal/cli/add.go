package cli

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/changeset/internal/changeset"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a pending change",
	Long: `Record a pending change as a new file in the changeset directory.

Without --type and --summary the values are asked for interactively. In a
script or CI job pass both flags.`,
	Example: `  # Interactive
  changeset add

  # Non-interactive
  changeset add --type patch --summary "Fix crash on empty config"

  # With decoration for the detailed changelog template
  changeset add -t minor -s "Add --json output" --author octocat --pr 42`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runAdd,
}

func init() {
	addCmd.GroupID = GroupChangesets
	addCmd.Flags().StringP("type", "t", "", "Change type: major, minor or patch")
	addCmd.Flags().StringP("summary", "s", "", "One-line description of the change")
	addCmd.Flags().String("author", "", "Author handle shown by the detailed template")
	addCmd.Flags().Int("pr", 0, "Pull request number shown by the detailed template")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	author, _ := cmd.Flags().GetString("author")
	pr, _ := cmd.Flags().GetInt("pr")
	in := changeset.Input{Author: author, PR: pr}

	typeFlag, _ := cmd.Flags().GetString("type")
	summary, _ := cmd.Flags().GetString("summary")

	if typeFlag == "" || summary == "" {
		if !isInteractive(cmd) {
			return clierrors.TerminalRequired("add without --type and --summary")
		}
		p := prompt.New(cmd.InOrStdin(), a.out)
		if in, err = askChangeset(p, a.out, in, typeFlag, summary); err != nil {
			return err
		}
	} else {
		t, err := changeset.ParseType(typeFlag)
		if err != nil {
			return toCLIError(err)
		}
		in.Type, in.Summary = t, summary
	}

	c, err := a.store.CreateWith(in)
	if err != nil {
		return toCLIError(err)
	}

	output.PrintSuccess(a.out, fmt.Sprintf("Created %s changeset %s", c.Type, c.ID))
	output.PrintField(a.out, "File", a.store.Path(c.ID))
	return nil
}

// askChangeset fills the missing type and summary of in from the prompter.
// Preset values are used as defaults. Invalid summaries are asked again.
func askChangeset(p *prompt.Prompter, out io.Writer, in changeset.Input, typeDefault, summaryDefault string) (changeset.Input, error) {
	types := changeset.Types()
	names := make([]string, len(types))
	def := len(types) - 1
	for i, t := range types {
		names[i] = string(t)
		if string(t) == typeDefault {
			def = i
		}
	}

	idx, err := p.Select("Change type:", names, def)
	if err != nil {
		return in, promptError(err)
	}
	in.Type = types[idx]

	for {
		answer, err := p.Input("Summary", summaryDefault)
		if err != nil {
			return in, promptError(err)
		}
		summary, err := changeset.ValidateSummary(answer)
		if err == nil {
			in.Summary = summary
			return in, nil
		}
		fmt.Fprintf(out, "Invalid summary: %v\n", err)
	}
}

func promptError(err error) error {
	return clierrors.WrapWithMessage(err, clierrors.Argument, "reading answer",
		"Pass the values as flags instead")
}
