// Package config provides layered configuration for changeset using koanf.
// Configuration is loaded with priority: environment variables (CHANGESET_*)
// > project config (.changeset/config.yml) > user config
// (~/.config/changeset/config.yml) > defaults. It is loaded once per
// invocation and passed explicitly to the components that need it.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: CHANGESET_GIT__TAG_PREFIX sets git.tag_prefix.
const EnvPrefix = "CHANGESET_"

// ConfigSource tracks where a configuration layer came from.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceFlag    ConfigSource = "flag"
	SourceEnv     ConfigSource = "env"
)

// Layer is one loaded configuration source.
type Layer struct {
	Source ConfigSource
	Path   string
}

// Configuration is the changeset CLI configuration.
type Configuration struct {
	ChangesetDir   string `koanf:"changeset_dir" validate:"required"`
	ChangelogFile  string `koanf:"changelog_file" validate:"required"`
	ChangelogTitle string `koanf:"changelog_title" validate:"required"`
	ManifestFile   string `koanf:"manifest_file" validate:"required"`

	Changelog  ChangelogConfig  `koanf:"changelog"`
	Repository RepositoryConfig `koanf:"repository"`
	Git        GitConfig        `koanf:"git"`
	Build      CommandConfig    `koanf:"build"`
	Test       CommandConfig    `koanf:"test"`
	Registry   RegistryConfig   `koanf:"registry"`
	Publish    PublishConfig    `koanf:"publish"`
	Lock       LockConfig       `koanf:"lock"`
	History    HistoryConfig    `koanf:"history"`

	// ProjectDir is the directory relative paths are resolved against.
	ProjectDir string `koanf:"-"`
	// Layers lists the sources that were applied, lowest priority first.
	Layers []Layer `koanf:"-"`
}

type ChangelogConfig struct {
	// Template is default, detailed, github or file:<path>.
	Template string `koanf:"template" validate:"changelog_template"`
}

type RepositoryConfig struct {
	// URL is detected from the git remote when empty.
	URL    string `koanf:"url" validate:"omitempty,url"`
	Remote string `koanf:"remote" validate:"required"`
}

type GitConfig struct {
	ReleaseBranches []string `koanf:"release_branches"`
	TagPrefix       string   `koanf:"tag_prefix"`
	CommitMessage   string   `koanf:"commit_message" validate:"required"`
	CommitOnVersion bool     `koanf:"commit_on_version"`
}

type CommandConfig struct {
	Command string `koanf:"command"`
}

type RegistryConfig struct {
	URL    string `koanf:"url" validate:"omitempty,url"`
	Access string `koanf:"access" validate:"omitempty,oneof=public restricted"`
	Tag    string `koanf:"tag"`
}

// PublishConfig holds the defaults of the publish --skip-* flags.
type PublishConfig struct {
	SkipBuild         bool `koanf:"skip_build"`
	SkipTest          bool `koanf:"skip_test"`
	SkipGitPush       bool `koanf:"skip_git_push"`
	SkipNpmPublish    bool `koanf:"skip_npm_publish"`
	SkipGitHubRelease bool `koanf:"skip_github_release"`
}

type LockConfig struct {
	Enabled bool `koanf:"enabled"`
}

type HistoryConfig struct {
	MaxEntries int `koanf:"max_entries" validate:"min=0"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectDir defaults to the working directory.
	ProjectDir string
	// ConfigFile replaces the project config path (the --config flag).
	ConfigFile string
	// UserConfigPath overrides the user config location; "-" disables it.
	UserConfigPath string
	// WarningWriter receives warnings (default: os.Stderr).
	WarningWriter io.Writer
	SkipWarnings  bool
}

// Load loads configuration for the project in projectDir.
func Load(projectDir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: projectDir})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	projectDir, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	layers := []Layer{{Source: SourceDefault}}
	loadDefaults(k)

	userPath, err := userConfigPath(opts.UserConfigPath)
	if err != nil {
		return nil, err
	}
	if fileExists(userPath) {
		if err := loadYAMLConfig(k, userPath, "user"); err != nil {
			return nil, err
		}
		layers = append(layers, Layer{Source: SourceUser, Path: userPath})
	}

	projectPath, source := opts.ConfigFile, SourceFlag
	if projectPath == "" {
		projectPath, source = ProjectConfigPath(projectDir, changesetDirHint(k)), SourceProject
	} else if !fileExists(projectPath) {
		return nil, fmt.Errorf("config file not found: %s", projectPath)
	}
	if fileExists(projectPath) {
		if err := loadYAMLConfig(k, projectPath, "project"); err != nil {
			return nil, err
		}
		layers = append(layers, Layer{Source: source, Path: projectPath})
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}
	if hasEnvOverrides() {
		layers = append(layers, Layer{Source: SourceEnv})
	}

	cfg, err := finalizeConfig(k)
	if err != nil {
		return nil, err
	}
	cfg.ProjectDir = projectDir
	cfg.Layers = layers

	if !opts.SkipWarnings {
		emitWarnings(cfg, warningWriter(opts.WarningWriter))
	}
	return cfg, nil
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}
	return abs, nil
}

func userConfigPath(override string) (string, error) {
	switch override {
	case "-":
		return "", nil
	case "":
		path, err := UserConfigPath()
		if err != nil {
			// No home or config dir; run without a user layer.
			return "", nil
		}
		return path, nil
	default:
		return override, nil
	}
}

// changesetDirHint locates the project config. The env override is
// consulted early because the project file cannot relocate itself.
func changesetDirHint(k *koanf.Koanf) string {
	if dir := os.Getenv(EnvPrefix + "CHANGESET_DIR"); dir != "" {
		return dir
	}
	return k.String("changeset_dir")
}

func warningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadYAMLConfig validates and loads a YAML config file.
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := checkFile(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s config %s: %w", configType, path, err)
	}
	return nil
}

func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := checkValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func emitWarnings(cfg *Configuration, w io.Writer) {
	if !cfg.Lock.Enabled {
		fmt.Fprintf(w, "Warning: lock.enabled is false; concurrent version and publish runs are not guarded\n")
	}
	if path, ok := strings.CutPrefix(cfg.Changelog.Template, changelog.FilePrefix); ok {
		if !fileExists(cfg.resolve(path)) {
			fmt.Fprintf(w, "Warning: changelog template file %s does not exist\n", cfg.resolve(path))
		}
	}
}

func hasEnvOverrides() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: CHANGESET_REGISTRY__ACCESS -> registry.access
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (c *Configuration) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir, path)
}

// ChangesetPath is the absolute changeset directory.
func (c *Configuration) ChangesetPath() string { return c.resolve(c.ChangesetDir) }

// ManifestPath is the absolute version manifest path.
func (c *Configuration) ManifestPath() string { return c.resolve(c.ManifestFile) }

// ChangelogPath is the absolute changelog document path.
func (c *Configuration) ChangelogPath() string { return c.resolve(c.ChangelogFile) }

// ChangelogTemplate returns the template identifier with a file: path
// resolved against the project directory.
func (c *Configuration) ChangelogTemplate() string {
	if path, ok := strings.CutPrefix(c.Changelog.Template, changelog.FilePrefix); ok {
		return changelog.FilePrefix + c.resolve(path)
	}
	return c.Changelog.Template
}

// TagPrefix returns the configured tag prefix; an unset prefix means "v".
func (c *Configuration) TagPrefix() string {
	if c.Git.TagPrefix == "" {
		return "v"
	}
	return c.Git.TagPrefix
}
