package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/changeset/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesFiles(t *testing.T) {
	p := testutil.NewProject(t, "1.0.0")

	r := runCLI(t, p.Dir, "", "init")
	require.NoError(t, r.err, r.stderr)

	for _, name := range []string{"config.yml", "README.md", ".gitignore"} {
		assert.FileExists(t, filepath.Join(p.ChangesetDir, name))
		assert.Contains(t, r.stdout, "Created "+filepath.Join(".changeset", name))
	}
	ignore, err := os.ReadFile(filepath.Join(p.ChangesetDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), ".lock")
	assert.Contains(t, string(ignore), ".history.yml")
	assert.Contains(t, r.stdout, "changeset add")
}

func TestInitIsIdempotent(t *testing.T) {
	tests := map[string]struct {
		args        []string
		wantKept    bool
		wantMessage string
	}{
		"second run keeps edits": {
			args:        []string{"init"},
			wantKept:    true,
			wantMessage: "Exists",
		},
		"force overwrites": {
			args:        []string{"init", "--force"},
			wantKept:    false,
			wantMessage: "Created",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			configPath := filepath.Join(p.ChangesetDir, "config.yml")
			require.NoError(t, os.WriteFile(configPath, []byte("git:\n  tag_prefix: rel-\n"), 0o644))

			r := runCLI(t, p.Dir, "", tt.args...)
			require.NoError(t, r.err, r.stderr)
			assert.Contains(t, r.stdout, tt.wantMessage)

			data, err := os.ReadFile(configPath)
			require.NoError(t, err)
			if tt.wantKept {
				assert.Equal(t, "git:\n  tag_prefix: rel-\n", string(data))
			} else {
				assert.NotContains(t, string(data), "rel-")
			}
		})
	}
}

func TestInitUser(t *testing.T) {
	dir := t.TempDir()
	r := runCLI(t, dir, "", "init", "--user")
	require.NoError(t, r.err, r.stderr)

	assert.FileExists(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "changeset", "config.yml"))
	assert.NoDirExists(t, filepath.Join(dir, ".changeset"))
}
