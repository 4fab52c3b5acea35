package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned for an empty dotted key.
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key such as "git.tag_prefix".
func ParseKeyPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid key path %q: empty segment", path)
		}
	}
	return parts, nil
}

// GetNestedValue returns the node at keyPath, or nil when any segment is missing.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if len(keyPath) == 0 || root == nil {
		return nil
	}
	current := root
	if current.Kind == yaml.DocumentNode {
		if len(current.Content) == 0 {
			return nil
		}
		current = current.Content[0]
	}
	for _, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return nil
		}
		current = mappingValue(current, key)
		if current == nil {
			return nil
		}
	}
	return current
}

// SetNestedValue sets value at keyPath, creating intermediate mappings.
// Existing keys keep their position and line comments.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}
	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	if root.Kind != yaml.DocumentNode {
		return fmt.Errorf("expected a YAML document")
	}
	if len(root.Content) == 0 {
		root.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	current := root.Content[0]
	for i, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(keyPath[:i], "."))
		}
		child := mappingValue(current, key)

		if i == len(keyPath)-1 {
			var node yaml.Node
			if err := node.Encode(value); err != nil {
				return fmt.Errorf("encoding value for %s: %w", strings.Join(keyPath, "."), err)
			}
			if child == nil {
				current.Content = append(current.Content, keyNode(key), &node)
				return nil
			}
			node.LineComment = child.LineComment
			*child = node
			return nil
		}

		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			current.Content = append(current.Content, keyNode(key), child)
		}
		current = child
	}
	return nil
}

// SetConfigValue validates value against the key schema and writes it to
// the YAML file at path, creating the file and its directory if needed.
func SetConfigValue(path, key, value string) error {
	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return err
	}
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	var root yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := checkSyntax(path, data); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}
