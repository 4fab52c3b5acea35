package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRunner(t *testing.T) {
	boom := errors.New("boom")

	tests := map[string]struct {
		setup        func(f *FakeRunner)
		name         string
		args         []string
		wantStdout   string
		wantErr      error
		wantExitErr  bool
		wantExitCode int
	}{
		"unmatched succeeds": {
			setup: func(f *FakeRunner) {},
			name:  "git",
			args:  []string{"status"},
		},
		"scripted stdout": {
			setup: func(f *FakeRunner) {
				f.On("git rev-parse", FakeResponse{Stdout: "main\n"})
			},
			name:       "git",
			args:       []string{"rev-parse", "--abbrev-ref", "HEAD"},
			wantStdout: "main\n",
		},
		"scripted failure": {
			setup: func(f *FakeRunner) {
				f.Fail("npm publish", "E403")
			},
			name:         "npm",
			args:         []string{"publish", "--access", "public"},
			wantExitErr:  true,
			wantExitCode: 1,
		},
		"latest rule wins": {
			setup: func(f *FakeRunner) {
				f.Fail("npm", "nope")
				f.On("npm publish", FakeResponse{Stdout: "ok"})
			},
			name:       "npm",
			args:       []string{"publish"},
			wantStdout: "ok",
		},
		"raw error": {
			setup: func(f *FakeRunner) {
				f.On("gh", FakeResponse{Err: boom})
			},
			name:    "gh",
			args:    []string{"release", "create"},
			wantErr: boom,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := NewFakeRunner()
			tt.setup(f)

			res, err := f.Run(context.Background(), "/repo", tt.name, tt.args...)
			require.NotNil(t, res)
			assert.Equal(t, tt.wantStdout, res.Stdout)
			assert.Equal(t, tt.wantExitCode, res.ExitCode)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantExitErr:
				assert.True(t, runner.IsExitError(err))
			default:
				assert.NoError(t, err)
			}

			calls := f.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/repo", calls[0].Dir)
		})
	}
}

func TestFakeRunnerOrdering(t *testing.T) {
	f := NewFakeRunner()
	ctx := context.Background()
	_, _ = f.Run(ctx, "", "git", "tag", "-a", "v1.0.0")
	_, _ = f.Run(ctx, "", "npm", "publish")
	_, _ = f.Run(ctx, "", "git", "tag", "-d", "v1.0.0")

	assert.Equal(t, []string{"git tag -a v1.0.0", "npm publish", "git tag -d v1.0.0"}, f.Lines())
	assert.Equal(t, 1, f.IndexOf("npm"))
	assert.True(t, f.Called("git tag -d"))
	assert.False(t, f.Called("gh"))
}

func TestHelperArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, helperArgs([]string{"bin", "-test.run=X", "--", "a", "b"}))
	assert.Nil(t, helperArgs([]string{"bin"}))
}
