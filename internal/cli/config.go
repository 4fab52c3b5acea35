package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/changeset/internal/config"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change configuration",
	Long: `Show and change changeset configuration.

Configuration precedence (highest to lowest):
  1. Environment variables (CHANGESET_*, "__" separates levels)
  2. Project config (.changeset/config.yml)
  3. User config (~/.config/changeset/config.yml)
  4. Built-in defaults`,
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

var configKeysCmd = &cobra.Command{
	Use:          "keys",
	Short:        "List the known configuration keys",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runConfigKeys,
}

var configGetCmd = &cobra.Command{
	Use:          "get <key>",
	Short:        "Print one effective configuration value",
	Example:      `  changeset config get git.tag_prefix`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in the project config, or the user config with --user.
The value is checked against the key's type; comments in the file are kept.
Lists are comma-separated.`,
	Example: `  changeset config set git.tag_prefix release-
  changeset config set build.command "npm run build"
  changeset config set git.release_branches main,next
  changeset config set --user registry.access public`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runConfigSet,
}

func init() {
	configCmd.GroupID = GroupConfiguration
	configShowCmd.RunE = reportsJSON(runConfigShow, newFailureReport)
	configShowCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	configSetCmd.Flags().Bool("user", false, "Write the user-level config")
	configCmd.AddCommand(configShowCmd, configKeysCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(flagString(cmd, "output"))
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	values := a.cfg.Values()

	if format == output.FormatJSON {
		type layerView struct {
			Source string `json:"source"`
			Path   string `json:"path,omitempty"`
		}
		layers := make([]layerView, 0, len(a.cfg.Layers))
		for _, l := range a.cfg.Layers {
			layers = append(layers, layerView{Source: string(l.Source), Path: l.Path})
		}
		return output.WriteJSON(a.out, map[string]any{"values": values, "layers": layers})
	}

	output.PrintHeader(a.out, "Sources (lowest priority first)")
	for _, l := range a.cfg.Layers {
		line := "  " + string(l.Source)
		if l.Path != "" {
			line += "  " + l.Path
		}
		fmt.Fprintln(a.out, line)
	}
	fmt.Fprintln(a.out)

	output.PrintHeader(a.out, "Values")
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, key := range config.SortedKeys() {
		fmt.Fprintf(a.out, "  %s: %s\n", cyan(key), formatValue(values[key]))
	}
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	dim := color.New(color.Faint).SprintFunc()
	for _, key := range config.SortedKeys() {
		schema, _ := config.GetKeySchema(key)
		typ := schema.Type.String()
		if len(schema.AllowedValues) > 0 {
			typ = strings.Join(nonEmpty(schema.AllowedValues), "|")
		}
		fmt.Fprintf(out, "%-30s %-18s %s\n", key, typ, dim(schema.Description))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := config.GetKeySchema(key); err != nil {
		return clierrors.NewArgumentError(err.Error(), "List valid keys with: changeset config keys")
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", key, formatValue(a.cfg.Values()[key]))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	user, _ := cmd.Flags().GetBool("user")

	var path, scope string
	if user {
		p, err := config.UserConfigPath()
		if err != nil {
			return clierrors.Wrap(err, clierrors.Configuration)
		}
		path, scope = p, "user"
	} else {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if err := a.requireInitialized(); err != nil {
			return err
		}
		path = flagString(cmd, "config")
		if path == "" {
			path = filepath.Join(a.store.Dir(), config.ConfigFileName)
		}
		scope = "project"
	}

	if err := config.SetConfigValue(path, key, value); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration, "setting "+key,
			"List valid keys and types with: changeset config keys")
	}
	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s = %s in %s config", key, value, scope))
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	case string:
		if val == "" {
			return `""`
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
