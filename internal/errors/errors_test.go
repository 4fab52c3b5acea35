package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()

	err := NewArgumentError("type is required", "Pass --type").WithUsage("changeset add --type minor")
	assert.Equal(t, "Error [Argument Error]: type is required\n"+
		"\nUsage: changeset add --type minor\n"+
		"\nTo fix this:\n  • Pass --type\n", FormatErrorPlain(err))
	assert.Empty(t, FormatErrorPlain(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("npm ERR! 403")
	wrapped := fmt.Errorf("outer: %w", StageFailed("registry-publish", cause, true))

	cliErr := AsCLIError(wrapped)
	require.NotNil(t, cliErr)
	assert.True(t, IsCLIError(wrapped))
	assert.Equal(t, Runtime, cliErr.Category)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "registry-publish stage failed: npm ERR! 403", cliErr.Message)
	assert.Contains(t, cliErr.Remediation[1], "rerun 'changeset publish'")

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, AsCLIError(cause))
}

func TestStageFailedRemediation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		stage      string
		rolledBack bool
		want       string
		wantLen    int
	}{
		"build":                     {stage: "build", want: "--skip-build", wantLen: 2},
		"push":                      {stage: "tag-and-push", want: "--skip-git-push", wantLen: 2},
		"registry without rollback": {stage: "registry-publish", want: "npm whoami", wantLen: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := StageFailed(tc.stage, stderrors.New("boom"), tc.rolledBack)
			require.Len(t, err.Remediation, tc.wantLen)
			assert.Contains(t, fmt.Sprint(err.Remediation), tc.want)
		})
	}
}

func TestPreflightFailedListsEveryFailure(t *testing.T) {
	t.Parallel()

	err := PreflightFailed([]string{"working tree has uncommitted changes: a.go", "npm is not installed"})
	assert.Equal(t, Validation, err.Category)
	assert.Contains(t, err.Message, "\n  - working tree has uncommitted changes: a.go\n  - npm is not installed")
}

func TestFormatWarningPlain(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })

	assert.Equal(t, "Warning: careful\n", FormatWarning("careful"))
}

func TestVersionNotInChangelog(t *testing.T) {
	t.Parallel()

	err := VersionNotInChangelog("9.9.9", []string{"1.1.0", "1.0.2"})
	assert.Equal(t, "version 9.9.9 not found in changelog", err.Message)
	assert.Equal(t, "Available versions: 1.1.0, 1.0.2", err.Remediation[1])
}
