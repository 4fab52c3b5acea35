package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every changeset file",
	Long: `Read every file in the changeset directory and report the ones that are
corrupt: unparseable YAML, a missing field, an unknown type or an id that does
not match the file name.

Exits with code 2 when any file is corrupt, so it can guard CI pipelines.`,
	Example: `  changeset validate
  changeset validate --output json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func init() {
	validateCmd.GroupID = GroupChangesets
	validateCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	validateCmd.RunE = reportsJSON(runValidate, newFailureReport)
	rootCmd.AddCommand(validateCmd)
}

type validateReport struct {
	Valid      bool            `json:"valid"`
	Changesets []changesetView `json:"changesets"`
	Corrupt    []corruptView   `json:"corrupt"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(flagString(cmd, "output"))
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	scan, err := a.store.Scan()
	if err != nil {
		return toCLIError(err)
	}

	report := validateReport{
		Valid:      len(scan.Corrupt) == 0,
		Changesets: changesetViews(scan.Changesets),
		Corrupt:    []corruptView{},
	}
	for _, c := range scan.Corrupt {
		report.Corrupt = append(report.Corrupt, corruptView{Path: c.Path, Reason: c.Reason})
	}

	if format == output.FormatJSON {
		if err := output.WriteJSON(a.out, report); err != nil {
			return err
		}
	} else {
		for _, v := range report.Changesets {
			output.PrintSuccess(a.out, fmt.Sprintf("%s (%s)", v.ID, v.Type))
		}
		for _, c := range report.Corrupt {
			output.PrintFailure(a.out, fmt.Sprintf("%s: %s", c.Path, c.Reason))
		}
		fmt.Fprintf(a.out, "\n%d valid, %d corrupt\n", len(report.Changesets), len(report.Corrupt))
	}

	if !report.Valid {
		return NewExitError(ExitValidationFailed)
	}
	return nil
}
