package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/semver"
	"github.com/spf13/cobra"
)

// reportError prints err with its remediation. Silent exit errors have been
// reported already.
func reportError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	clierrors.FprintError(w, toCLIError(err))
}

// failureReport is the JSON document of a command that failed before it
// produced its own result.
type failureReport struct {
	Success     bool     `json:"success"`
	Category    string   `json:"category"`
	Errors      []string `json:"errors"`
	Remediation []string `json:"remediation,omitempty"`
}

func newFailureReport(err *clierrors.CLIError) any {
	return failureReport{
		Category:    err.Category.String(),
		Errors:      []string{err.Error()},
		Remediation: err.Remediation,
	}
}

// reportsJSON wraps run so that with --output json a failure is written to
// stdout as the document built by failure. Errors from runs that already
// wrote their result pass through.
func reportsJSON(run func(*cobra.Command, []string) error, failure func(*clierrors.CLIError) any) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil || !wantsJSON(cmd) {
			return err
		}

		var exitErr *ExitError
		isExit := errors.As(err, &exitErr)
		if isExit && exitErr.Err == nil {
			return err
		}

		cliErr := toCLIError(err)
		code := ExitCode(cliErr)
		if isExit {
			code = exitErr.Code
		}
		if werr := output.WriteJSON(cmd.OutOrStdout(), failure(cliErr)); werr != nil {
			return err
		}
		return NewExitError(code)
	}
}

func wantsJSON(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup("output")
	return f != nil && strings.EqualFold(f.Value.String(), string(output.FormatJSON))
}

// toCLIError converts a domain error into a CLIError with remediation.
func toCLIError(err error) *clierrors.CLIError {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var (
		validationErr *changeset.ValidationError
		parseErr      *semver.ParseError
		preflightErr  *publish.PreflightError
		stageErr      *publish.StageError
		heldErr       *lock.HeldError
		versionErr    *changelog.VersionNotFoundError
		templateErr   *changelog.UnknownTemplateError
	)

	switch {
	case errors.As(err, &validationErr):
		return clierrors.WrapWithMessage(err, clierrors.Argument, "invalid changeset",
			"Types are: major, minor, patch",
			fmt.Sprintf("Summaries are %d-%d characters", changeset.MinSummaryLength, changeset.MaxSummaryLength))
	case errors.Is(err, changeset.ErrIDGenerationExhausted):
		return clierrors.Wrap(err, clierrors.Runtime, "Retry the command; ids are drawn at random")
	case errors.Is(err, manifest.ErrNoVersion):
		return clierrors.Wrap(err, clierrors.Prerequisite, "Add a \"version\" field such as \"0.1.0\" to the manifest")
	case errors.As(err, &parseErr):
		return clierrors.Wrap(err, clierrors.Prerequisite, "Versions must have the form MAJOR.MINOR.PATCH, e.g. 1.4.0")
	case errors.As(err, &preflightErr):
		return clierrors.PreflightFailed(preflightErr.Failures)
	case errors.As(err, &stageErr):
		return clierrors.StageFailed(string(stageErr.Stage), stageErr.Err, false)
	case errors.As(err, &heldErr):
		return clierrors.LockHeld(err, heldErr.Path)
	case errors.As(err, &versionErr):
		return clierrors.VersionNotInChangelog(versionErr.Version, versionErr.AvailableVersions)
	case errors.As(err, &templateErr):
		return clierrors.Wrap(err, clierrors.Configuration,
			"Built-in templates: "+strings.Join(changelog.TemplateNames(), ", "),
			"Or point to a file: --template file:path/to/template.md")
	case errors.Is(err, fs.ErrNotExist):
		return clierrors.Wrap(err, clierrors.Prerequisite)
	}
	return clierrors.Wrap(err, clierrors.Runtime)
}

// manifestError reports a missing manifest with its own remediation.
func manifestError(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) || !manifest.Exists(path) {
		return clierrors.ManifestNotFound(path)
	}
	return toCLIError(err)
}

func fprintWarning(w io.Writer, msg string) {
	fmt.Fprint(w, clierrors.FormatWarning(msg))
}
