// Package manifest reads and rewrites the version field of the project's
// package manifest without disturbing any other field.
//
// JSON manifests (package.json) are read through koanf and rewritten with a
// byte-level edit of the top-level "version" value, so key order, indentation
// and unrelated values survive untouched. YAML manifests are edited through
// the yaml.v3 node tree.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/changeset/internal/semver"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// ErrNoVersion is returned when the manifest has no top-level version field.
var ErrNoVersion = errors.New("manifest has no version field")

// Manifest is the subset of the package manifest the release pipeline uses.
type Manifest struct {
	Path    string
	Name    string
	Version semver.Version
	Private bool
}

// Exists reports whether a manifest file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the manifest at path. A missing or malformed version is an error.
func Load(path string) (*Manifest, error) {
	if isYAML(path) {
		return loadYAML(path)
	}
	return loadJSON(path)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadJSON(path string) (*Manifest, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", path, err)
	}
	return fromKoanf(path, k)
}

func fromKoanf(path string, k *koanf.Koanf) (*Manifest, error) {
	raw := k.String("version")
	if raw == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoVersion)
	}
	v, err := semver.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{
		Path:    path,
		Name:    k.String("name"),
		Version: v,
		Private: k.Bool("private"),
	}, nil
}

func loadYAML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var doc struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Private bool   `yaml:"private"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoVersion)
	}
	v, err := semver.Parse(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{Path: path, Name: doc.Name, Version: v, Private: doc.Private}, nil
}

// SetVersion rewrites the version field in place.
func SetVersion(path string, v semver.Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var updated []byte
	if isYAML(path) {
		updated, err = replaceYAMLVersion(data, v.String())
	} else {
		updated, err = replaceJSONVersion(data, v.String())
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat manifest %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp manifest: %w", err)
	}
	return nil
}

// replaceJSONVersion swaps the string value of the top-level "version" key.
func replaceJSONVersion(data []byte, version string) ([]byte, error) {
	start, end, err := findTopLevelString(data, "version")
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Grow(len(data) + len(version))
	b.Write(data[:start])
	b.WriteString(`"` + version + `"`)
	b.Write(data[end:])
	return b.Bytes(), nil
}

// findTopLevelString returns the byte span (including quotes) of the string
// value stored under key in the outermost JSON object.
func findTopLevelString(data []byte, key string) (int, int, error) {
	depth := 0
	expectKey := false
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '{', '[':
			depth++
			expectKey = data[i] == '{' && depth == 1
		case '}', ']':
			depth--
		case ',':
			expectKey = depth == 1
		case '"':
			end, err := skipString(data, i)
			if err != nil {
				return 0, 0, err
			}
			if depth == 1 && expectKey {
				expectKey = false
				if string(data[i+1:end-1]) == key {
					return valueSpan(data, end)
				}
			}
			i = end - 1
		}
	}
	return 0, 0, ErrNoVersion
}

// skipString returns the index just past the closing quote of the string
// starting at data[start].
func skipString(data []byte, start int) (int, error) {
	for i := start + 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated string in manifest")
}

func valueSpan(data []byte, afterKey int) (int, int, error) {
	i := afterKey
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	if i >= len(data) || data[i] != ':' {
		return 0, 0, fmt.Errorf("malformed manifest near byte %d", afterKey)
	}
	i++
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	if i >= len(data) || data[i] != '"' {
		return 0, 0, fmt.Errorf("version field is not a string")
	}
	end, err := skipString(data, i)
	if err != nil {
		return 0, 0, err
	}
	return i, end, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// replaceYAMLVersion edits the root mapping's version node.
func replaceYAMLVersion(data []byte, version string) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest root is not a mapping")
	}

	mapping := root.Content[0]
	found := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "version" {
			mapping.Content[i+1].Value = version
			mapping.Content[i+1].Tag = "!!str"
			mapping.Content[i+1].Style = yaml.DoubleQuotedStyle
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNoVersion
	}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return b.Bytes(), nil
}
