package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/changeset/internal/config"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/spf13/cobra"
)

const changesetReadme = `# Changesets

Each file in this directory records one pending change:

    id: brave-blue-fox
    type: minor
    summary: Add retry support to the client
    createdAt: 2026-01-15T10:00:00Z

Create them with 'changeset add'. 'changeset version' turns them into a
version bump and a changelog entry, then deletes them.

config.yml holds the project settings; see 'changeset config keys'.
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the changeset directory and config",
	Long: `Create the changeset directory with a commented config.yml, a README and a
.gitignore for the lock and history files.

Existing files are left unchanged unless --force is given, so running init
twice is harmless. With --user the config is written to the user config
directory instead and applies to every project.`,
	Example: `  changeset init
  changeset init --force
  changeset init --user`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runInit,
}

func init() {
	initCmd.GroupID = GroupGettingStarted
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing files with defaults")
	initCmd.Flags().Bool("user", false, "Write the user-level config instead")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	user, _ := cmd.Flags().GetBool("user")

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if user {
		path, err := config.UserConfigPath()
		if err != nil {
			return clierrors.Wrap(err, clierrors.Configuration)
		}
		return writeInitFiles(a, filepath.Dir(path), force, map[string]string{
			filepath.Base(path): config.GetDefaultConfigTemplate(),
		})
	}

	dir := a.store.Dir()
	if err := writeInitFiles(a, dir, force, map[string]string{
		config.ConfigFileName: config.GetDefaultConfigTemplate(),
		"README.md":           changesetReadme,
		".gitignore":          lock.FileName + "\n" + history.FileName + "\n",
	}); err != nil {
		return err
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Next: record a change with 'changeset add'")
	return nil
}

// writeInitFiles writes files into dir in a stable order, skipping those
// that already exist unless force is set.
func writeInitFiles(a *app, dir string, force bool, files map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}

	for _, name := range []string{config.ConfigFileName, "README.md", ".gitignore"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		display := relativeTo(a.cfg.ProjectDir, path)

		if _, err := os.Stat(path); err == nil && !force {
			output.PrintField(a.out, "Exists", display)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		output.PrintSuccess(a.out, "Created "+display)
	}
	return nil
}
