package config

import "github.com/ariel-frischer/changeset/internal/changelog"

// GetDefaultConfigTemplate returns the commented config.yml written by
// `changeset init`.
func GetDefaultConfigTemplate() string {
	return `# changeset configuration
# Values here override ~/.config/changeset/config.yml and are overridden by
# CHANGESET_* environment variables (CHANGESET_GIT__TAG_PREFIX=v).

changelog_file: CHANGELOG.md          # Changelog document
changelog_title: "# Changelog"        # Title line new entries are inserted below
manifest_file: package.json           # Version manifest (package.json or *.yml)

changelog:
  template: default                   # default | detailed | github | file:<path>

repository:
  url: ""                             # Detected from the git remote when empty
  remote: origin                      # Remote used for push and URL detection

git:
  release_branches: [main, master]    # Publishing elsewhere is a warning
  tag_prefix: v                       # Tags are {tag_prefix}{version}
  commit_message: "chore(release): v{version}"
  commit_on_version: false            # Commit files written by 'changeset version'

build:
  command: ""                         # e.g. "npm run build"; empty skips the stage
test:
  command: ""                         # e.g. "npm test"; empty skips the stage

registry:
  url: ""                             # Custom npm registry
  access: ""                          # public | restricted
  tag: latest                         # npm dist-tag

publish:
  skip_build: false
  skip_test: false
  skip_git_push: false
  skip_npm_publish: false
  skip_github_release: false

lock:
  enabled: true                       # Refuse concurrent version/publish runs

history:
  max_entries: 100                    # Release history entries to retain
`
}

// GetDefaults returns the default configuration values.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changeset_dir":   ".changeset",
		"changelog_file":  "CHANGELOG.md",
		"changelog_title": changelog.DefaultTitle,
		"manifest_file":   "package.json",
		"changelog": map[string]interface{}{
			"template": changelog.DefaultTemplate,
		},
		"repository": map[string]interface{}{
			"url":    "",
			"remote": "origin",
		},
		"git": map[string]interface{}{
			"release_branches":  []string{"main", "master"},
			"tag_prefix":        "v",
			"commit_message":    "chore(release): v{version}",
			"commit_on_version": false,
		},
		"build": map[string]interface{}{"command": ""},
		"test":  map[string]interface{}{"command": ""},
		"registry": map[string]interface{}{
			"url":    "",
			"access": "",
			"tag":    "latest",
		},
		"publish": map[string]interface{}{
			"skip_build":          false,
			"skip_test":           false,
			"skip_git_push":       false,
			"skip_npm_publish":    false,
			"skip_github_release": false,
		},
		"lock": map[string]interface{}{
			"enabled": true,
		},
		// Matches history.DefaultMaxEntries.
		"history": map[string]interface{}{
			"max_entries": 100,
		},
	}
}
