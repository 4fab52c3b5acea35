package cli

import (
	"errors"
	"fmt"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change the type or summary of a pending changeset",
	Long: `Change the type, summary, author or pull request of a pending changeset.
The id and creation time are kept.

Without --id the changeset is chosen from a list. Field flags that are not
given keep their current value; with no field flags the fields are asked for
interactively.`,
	Example: `  changeset edit
  changeset edit --id brave-blue-fox --type major
  changeset edit --id brave-blue-fox --summary "Drop Node 16 support"`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runEdit,
}

func init() {
	editCmd.GroupID = GroupChangesets
	editCmd.Flags().String("id", "", "Id of the changeset to edit")
	editCmd.Flags().StringP("type", "t", "", "New type: major, minor or patch")
	editCmd.Flags().StringP("summary", "s", "", "New summary")
	editCmd.Flags().String("author", "", "New author handle")
	editCmd.Flags().Int("pr", 0, "New pull request number")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	fieldFlags := cmd.Flags().Changed("type") || cmd.Flags().Changed("summary") ||
		cmd.Flags().Changed("author") || cmd.Flags().Changed("pr")
	id := flagString(cmd, "id")
	if (id == "" || !fieldFlags) && !isInteractive(cmd) {
		return clierrors.TerminalRequired("edit without --id and field flags")
	}
	p := prompt.New(cmd.InOrStdin(), a.out)

	if id == "" {
		if id, err = chooseChangeset(a, p, "Changeset to edit:"); err != nil {
			return err
		}
	}

	existing, err := a.store.Get(id)
	if err != nil {
		return changesetError(err, id)
	}

	in := changeset.Input{
		Type:    existing.Type,
		Summary: existing.Summary,
		Author:  existing.Author,
		PR:      existing.PR,
	}
	if fieldFlags {
		if cmd.Flags().Changed("type") {
			t, err := changeset.ParseType(flagString(cmd, "type"))
			if err != nil {
				return toCLIError(err)
			}
			in.Type = t
		}
		if cmd.Flags().Changed("summary") {
			in.Summary = flagString(cmd, "summary")
		}
		if cmd.Flags().Changed("author") {
			in.Author = flagString(cmd, "author")
		}
		if cmd.Flags().Changed("pr") {
			in.PR, _ = cmd.Flags().GetInt("pr")
		}
	} else {
		if in, err = askChangeset(p, a.out, in, string(existing.Type), existing.Summary); err != nil {
			return err
		}
	}

	c, err := a.store.EditWith(id, in)
	if err != nil {
		return changesetError(err, id)
	}
	output.PrintSuccess(a.out, fmt.Sprintf("Updated %s", c.ID))
	output.PrintField(a.out, "Type", string(c.Type))
	output.PrintField(a.out, "Summary", c.Summary)
	return nil
}

// chooseChangeset lists the pending changesets and returns the chosen id.
func chooseChangeset(a *app, p *prompt.Prompter, question string) (string, error) {
	list, err := a.store.ListAll()
	if err != nil {
		return "", toCLIError(err)
	}
	if len(list) == 0 {
		return "", clierrors.NoChangesets()
	}

	options := make([]string, len(list))
	for i, c := range list {
		options[i] = changelog.FormatChangeset(c, changelog.FormatOptions{Plain: true})
	}
	idx, err := p.Select(question, options, 0)
	if err != nil {
		return "", promptError(err)
	}
	return list[idx].ID, nil
}

func changesetError(err error, id string) error {
	if errors.Is(err, changeset.ErrNotFound) {
		return clierrors.ChangesetNotFound(id)
	}
	return toCLIError(err)
}
