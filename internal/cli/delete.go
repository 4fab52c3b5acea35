package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"rm"},
	Short:   "Delete pending changesets",
	Long: `Delete one pending changeset, or all of them with --all.

Without --id the changeset is chosen from a list. Deleting all changesets asks
for confirmation unless --yes is given. Corrupt files are never deleted by
--all; fix or remove them by hand after 'changeset validate'.`,
	Example: `  changeset delete --id brave-blue-fox
  changeset delete --all --yes`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDelete,
}

func init() {
	deleteCmd.GroupID = GroupChangesets
	deleteCmd.Flags().String("id", "", "Id of the changeset to delete")
	deleteCmd.Flags().Bool("all", false, "Delete every pending changeset")
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	id := flagString(cmd, "id")
	all, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")
	if all && id != "" {
		return clierrors.InvalidFlagCombination("--id --all", "Pass either one id or --all")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	interactive := isInteractive(cmd)
	p := prompt.New(cmd.InOrStdin(), a.out)

	if all {
		list, err := a.store.ListAll()
		if err != nil {
			return toCLIError(err)
		}
		if len(list) == 0 {
			fmt.Fprintln(a.out, "No pending changesets.")
			return nil
		}
		if !yes {
			if !interactive {
				return clierrors.TerminalRequired("delete --all without --yes")
			}
			ok, err := p.Confirm(fmt.Sprintf("Delete all %d pending changesets?", len(list)), false)
			if err != nil {
				return promptError(err)
			}
			if !ok {
				fmt.Fprintln(a.out, "Aborted.")
				return nil
			}
		}
		n, err := a.store.DeleteAll()
		if err != nil {
			return toCLIError(err)
		}
		output.PrintSuccess(a.out, fmt.Sprintf("Deleted %d changesets", n))
		return nil
	}

	if id == "" {
		if !interactive {
			return clierrors.TerminalRequired("delete without --id")
		}
		if id, err = chooseChangeset(a, p, "Changeset to delete:"); err != nil {
			return err
		}
		ok, err := p.Confirm(fmt.Sprintf("Delete %s?", id), true)
		if err != nil {
			return promptError(err)
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
	}

	if err := a.store.Delete(id); err != nil {
		return changesetError(err, id)
	}
	output.PrintSuccess(a.out, fmt.Sprintf("Deleted %s", id))
	return nil
}
