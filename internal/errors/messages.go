package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the changeset CLI.

// NotInitialized is returned when the changeset directory does not exist.
func NotInitialized(dir string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("changeset directory not found: %s", dir),
		"Run 'changeset init' to create it",
		"Or set changeset_dir in the config if the directory lives elsewhere",
	)
}

// ManifestNotFound is returned when the version manifest is missing.
func ManifestNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("version manifest not found: %s", path),
		"Run the command from the package root",
		"Or set manifest_file in .changeset/config.yml",
	)
}

// NoChangesets is returned when an operation needs pending changesets.
func NoChangesets() *CLIError {
	return NewPrerequisiteError(
		"no pending changesets",
		"Record a change with: changeset add",
	)
}

// ChangesetNotFound is returned for an unknown changeset id.
func ChangesetNotFound(id string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("changeset not found: %s", id),
		"List pending changesets with: changeset status",
		"Ids are the file names in .changeset/ without the .yml extension",
	)
}

// VersionNotInChangelog is returned when a changelog has no section for version.
func VersionNotInChangelog(version string, available []string) *CLIError {
	remediation := []string{"Check the version number, without the leading 'v'"}
	if len(available) > 0 {
		remediation = append(remediation, "Available versions: "+strings.Join(available, ", "))
	}
	return NewArgumentError(fmt.Sprintf("version %s not found in changelog", version), remediation...)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Check .changeset/config.yml and ~/.config/changeset/config.yml",
		"List valid keys with: changeset config keys",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'changeset <command> --help' to see valid options",
	)
}

// TerminalRequired is returned when an interactive mode runs without a TTY.
func TerminalRequired(what string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("%s requires an interactive terminal", what),
		"Pass the values as flags instead",
		"Or use --skip-confirm / --ci in automation",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository() *CLIError {
	return NewPrerequisiteError(
		"not a git repository",
		"Initialize with: git init",
		"Or navigate to an existing repository",
	)
}

// LockHeld is returned when another run holds the project lock.
func LockHeld(err error, lockPath string) *CLIError {
	return WrapWithMessage(err, Conflict,
		"project is locked",
		"Wait for the other run to finish",
		"If no run is active, remove the lock with: rm "+lockPath,
	)
}

// PreflightFailed lists every failed publish precondition.
func PreflightFailed(failures []string) *CLIError {
	return New(Validation,
		"publish preconditions failed:\n  - "+strings.Join(failures, "\n  - "),
		"Fix the listed problems and rerun 'changeset publish'",
		"Preview the release without side effects: changeset publish --dry-run",
	)
}

// StageFailed wraps the failure of a publish stage with stage-specific advice.
func StageFailed(stage string, err error, rolledBack bool) *CLIError {
	var remediation []string
	switch stage {
	case "build", "test":
		remediation = append(remediation,
			fmt.Sprintf("Fix the %s and rerun 'changeset publish'; no files were changed", stage),
			fmt.Sprintf("Or skip it with --skip-%s", stage))
	case "tag-and-push":
		remediation = append(remediation,
			"Check push access with: git push --dry-run",
			"Or publish without pushing: --skip-git-push")
	case "registry-publish":
		remediation = append(remediation, "Check registry credentials with: npm whoami")
		if rolledBack {
			remediation = append(remediation, "The release tag was removed; rerun 'changeset publish' to retry the same version")
		}
	}
	return WrapWithMessage(err, Runtime, fmt.Sprintf("%s stage failed", stage), remediation...)
}
