package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadTest(t *testing.T, opts LoadOptions) (*Configuration, string) {
	t.Helper()
	var warn bytes.Buffer
	if opts.UserConfigPath == "" {
		opts.UserConfigPath = "-"
	}
	opts.WarningWriter = &warn
	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	return cfg, warn.String()
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, warn := loadTest(t, LoadOptions{ProjectDir: dir})

	assert.Equal(t, ".changeset", cfg.ChangesetDir)
	assert.Equal(t, "# Changelog", cfg.ChangelogTitle)
	assert.Equal(t, "default", cfg.Changelog.Template)
	assert.Equal(t, "origin", cfg.Repository.Remote)
	assert.Equal(t, []string{"main", "master"}, cfg.Git.ReleaseBranches)
	assert.Equal(t, "v", cfg.TagPrefix())
	assert.Equal(t, "chore(release): v{version}", cfg.Git.CommitMessage)
	assert.Equal(t, "latest", cfg.Registry.Tag)
	assert.True(t, cfg.Lock.Enabled)
	assert.Equal(t, 100, cfg.History.MaxEntries)
	assert.Empty(t, warn)

	assert.Equal(t, filepath.Join(dir, ".changeset"), cfg.ChangesetPath())
	assert.Equal(t, filepath.Join(dir, "package.json"), cfg.ManifestPath())
	assert.Equal(t, filepath.Join(dir, "CHANGELOG.md"), cfg.ChangelogPath())
	assert.Equal(t, []Layer{{Source: SourceDefault}}, cfg.Layers)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, userPath, "git:\n  tag_prefix: user-\n  commit_message: \"release {version}\"\nregistry:\n  tag: next\n")
	writeFile(t, filepath.Join(dir, ".changeset", "config.yml"), "git:\n  tag_prefix: project-\nbuild:\n  command: make\n")
	t.Setenv("CHANGESET_REGISTRY__TAG", "beta")

	cfg, _ := loadTest(t, LoadOptions{ProjectDir: dir, UserConfigPath: userPath})

	assert.Equal(t, "project-", cfg.Git.TagPrefix, "project overrides user")
	assert.Equal(t, "release {version}", cfg.Git.CommitMessage, "user overrides default")
	assert.Equal(t, "make", cfg.Build.Command)
	assert.Equal(t, "beta", cfg.Registry.Tag, "env overrides everything")
	require.Len(t, cfg.Layers, 4)
	assert.Equal(t, SourceUser, cfg.Layers[1].Source)
	assert.Equal(t, SourceProject, cfg.Layers[2].Source)
	assert.Equal(t, SourceEnv, cfg.Layers[3].Source)
}

func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHANGESET_GIT__RELEASE_BRANCHES", "trunk,release")
	t.Setenv("CHANGESET_LOCK__ENABLED", "false")
	t.Setenv("CHANGESET_HISTORY__MAX_ENTRIES", "7")

	cfg, warn := loadTest(t, LoadOptions{ProjectDir: dir})

	assert.Equal(t, []string{"trunk", "release"}, cfg.Git.ReleaseBranches)
	assert.False(t, cfg.Lock.Enabled)
	assert.Equal(t, 7, cfg.History.MaxEntries)
	assert.Contains(t, warn, "Warning: lock.enabled is false")
}

func TestLoadChangesetDirFromEnvLocatesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "changes", "config.yml"), "manifest_file: pyproject.yml\n")
	t.Setenv("CHANGESET_CHANGESET_DIR", "changes")

	cfg, _ := loadTest(t, LoadOptions{ProjectDir: dir})
	assert.Equal(t, "changes", cfg.ChangesetDir)
	assert.Equal(t, "pyproject.yml", cfg.ManifestFile)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.yml")
	writeFile(t, path, "changelog:\n  template: github\n")

	cfg, _ := loadTest(t, LoadOptions{ProjectDir: dir, ConfigFile: path})
	assert.Equal(t, "github", cfg.Changelog.Template)
	assert.Equal(t, SourceFlag, cfg.Layers[len(cfg.Layers)-1].Source)

	_, err := LoadWithOptions(LoadOptions{ProjectDir: dir, ConfigFile: filepath.Join(dir, "missing.yml"), UserConfigPath: "-"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		content string
		wantErr string
	}{
		"syntax error carries line": {
			content: "git:\n  tag_prefix: v\n bad: [\n",
			wantErr: "validating YAML syntax",
		},
		"invalid access": {
			content: "registry:\n  access: secret\n",
			wantErr: "registry.access must be one of: public, restricted",
		},
		"unknown template": {
			content: "changelog:\n  template: fancy\n",
			wantErr: "changelog.template names an unknown template \"fancy\"",
		},
		"negative history": {
			content: "history:\n  max_entries: -1\n",
			wantErr: "history.max_entries must be at least 0",
		},
		"empty commit message": {
			content: "git:\n  commit_message: \"\"\n",
			wantErr: "git.commit_message is required",
		},
		"malformed registry url": {
			content: "registry:\n  url: not a url\n",
			wantErr: "must be a valid URL",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".changeset", "config.yml"), tt.content)

			_, err := LoadWithOptions(LoadOptions{ProjectDir: dir, UserConfigPath: "-", WarningWriter: &bytes.Buffer{}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChangelogTemplateResolvesFilePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".changeset", "config.yml"), "changelog:\n  template: file:tmpl/entry.md\n")

	cfg, warn := loadTest(t, LoadOptions{ProjectDir: dir})
	assert.Equal(t, "file:"+filepath.Join(dir, "tmpl", "entry.md"), cfg.ChangelogTemplate())
	assert.Contains(t, warn, "changelog template file")

	writeFile(t, filepath.Join(dir, "tmpl", "entry.md"), "{{minor}}\n")
	_, warn = loadTest(t, LoadOptions{ProjectDir: dir})
	assert.Empty(t, warn)
}

func TestDefaultConfigTemplateLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".changeset", "config.yml"), GetDefaultConfigTemplate())

	cfg, warn := loadTest(t, LoadOptions{ProjectDir: dir})
	assert.Empty(t, warn)
	assert.Equal(t, "CHANGELOG.md", cfg.ChangelogFile)
	assert.Equal(t, []string{"main", "master"}, cfg.Git.ReleaseBranches)
	assert.Equal(t, "latest", cfg.Registry.Tag)
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"CHANGESET_CHANGESET_DIR":          "changeset_dir",
		"CHANGESET_GIT__TAG_PREFIX":        "git.tag_prefix",
		"CHANGESET_PUBLISH__SKIP_GIT_PUSH": "publish.skip_git_push",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransform(in), in)
	}
}

func TestKnownKeysCoverDefaults(t *testing.T) {
	t.Parallel()

	for _, key := range SortedKeys() {
		schema, err := GetKeySchema(key)
		require.NoError(t, err)
		assert.Equal(t, key, schema.Path)
		assert.NotEmpty(t, schema.Description, key)
	}

	_, err := GetKeySchema("agent_preset")
	assert.ErrorAs(t, err, &ErrUnknownKey{})
}

func TestValuesMatchKnownKeys(t *testing.T) {
	cfg, _ := loadTest(t, LoadOptions{ProjectDir: t.TempDir()})

	values := cfg.Values()
	assert.Len(t, values, len(KnownKeys))
	for key := range values {
		_, err := GetKeySchema(key)
		assert.NoError(t, err, key)
	}
	assert.Equal(t, "v", values["git.tag_prefix"])
	assert.Equal(t, true, values["lock.enabled"])
	assert.Equal(t, []string{"main", "master"}, values["git.release_branches"])
	assert.NotContains(t, values, "ProjectDir")
}
