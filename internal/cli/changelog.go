package cli

import (
	"fmt"
	"time"

	"github.com/ariel-frischer/changeset/internal/changelog"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Preview the next changelog entry",
	Long: `Render the changelog entry the next release would produce, without
bumping the version or consuming changesets.

Templates: default, detailed (adds PR links and authors), github (adds a
compare link) or file:<path>. A template file may use {{version}}, {{date}},
{{previous}}, {{compare_url}}, {{major}}, {{minor}} and {{patch}}.`,
	Example: `  # Preview with the configured template
  changeset changelog

  # Try another template
  changeset changelog --template detailed

  # Pick a template from a list, then insert the entry into CHANGELOG.md
  changeset changelog --interactive --write`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runChangelog,
}

var changelogExtractCmd = &cobra.Command{
	Use:   "extract [version]",
	Short: "Print the notes of one released version",
	Long: `Print the body of a version's section from the changelog. Without a
version the newest section is printed. The output is what 'changeset publish'
uses as release notes.`,
	Example: `  changeset changelog extract 1.4.0
  changeset changelog extract v1.4.0
  changeset changelog extract`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runChangelogExtract,
}

func init() {
	changelogCmd.GroupID = GroupRelease
	changelogCmd.Flags().String("template", "", "Template: default, detailed, github or file:<path>")
	changelogCmd.Flags().BoolP("interactive", "i", false, "Choose the template from a list")
	changelogCmd.Flags().Bool("write", false, "Insert the entry into the changelog file")
	changelogCmd.AddCommand(changelogExtractCmd)
	rootCmd.AddCommand(changelogCmd)
}

func runChangelog(cmd *cobra.Command, _ []string) error {
	template := flagString(cmd, "template")
	interactive, _ := cmd.Flags().GetBool("interactive")
	write, _ := cmd.Flags().GetBool("write")
	if template != "" && interactive {
		return clierrors.InvalidFlagCombination("--template --interactive", "Choose the template one way")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	s := a.settings()
	if interactive {
		if !isInteractive(cmd) {
			return clierrors.TerminalRequired("changelog --interactive")
		}
		names := changelog.TemplateNames()
		def := 0
		for i, n := range names {
			if n == a.cfg.Changelog.Template {
				def = i
			}
		}
		idx, err := prompt.New(cmd.InOrStdin(), a.out).Select("Template:", names, def)
		if err != nil {
			return promptError(err)
		}
		s.Template = names[idx]
	} else if template != "" {
		a.cfg.Changelog.Template = template
		s.Template = a.cfg.ChangelogTemplate()
	}

	plan, err := release.Compute(a.store, s, time.Now(), a.commitResolver(commandContext(cmd)))
	if err != nil {
		return manifestError(err, a.cfg.ManifestPath())
	}
	if !plan.Info.HasChanges {
		return clierrors.NoChangesets()
	}

	if !write && !color.NoColor {
		if err := changelog.FormatEntry(plan.Entry, a.out, formatOptions()); err != nil {
			return toCLIError(err)
		}
		fmt.Fprintln(a.out)
		output.PrintHeader(a.out, "Markdown")
	}
	fmt.Fprintln(a.out, plan.Section)

	if !write {
		return nil
	}
	doc, err := changelog.ReadDocument(s.ChangelogPath)
	if err != nil {
		return toCLIError(err)
	}
	if changelog.HasVersion(doc, plan.Target()) {
		fprintWarning(a.errOut, fmt.Sprintf("%s already has a section for v%s; nothing written",
			relativeTo(a.cfg.ProjectDir, s.ChangelogPath), plan.Target()))
		return nil
	}
	if err := changelog.Prepend(s.ChangelogPath, plan.Section, s.ChangelogTitle, plan.Manifest.Name); err != nil {
		return toCLIError(err)
	}
	output.PrintSuccess(a.out, fmt.Sprintf("Wrote v%s to %s", plan.Target(), relativeTo(a.cfg.ProjectDir, s.ChangelogPath)))
	return nil
}

func runChangelogExtract(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	doc, err := changelog.ReadDocument(a.cfg.ChangelogPath())
	if err != nil {
		return toCLIError(err)
	}

	var version string
	if len(args) == 1 {
		version = args[0]
	} else {
		latest, ok := changelog.LatestVersion(doc)
		if !ok {
			return clierrors.VersionNotInChangelog("latest", nil)
		}
		version = latest.String()
	}

	notes, err := changelog.Extract(doc, version)
	if err != nil {
		return toCLIError(err)
	}
	fmt.Fprintln(a.out, notes)
	return nil
}
