package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changeset/internal/changelog"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
	// TypeList values are written as comma-separated strings.
	TypeList
	// TypeTemplate is a changelog template identifier.
	TypeTemplate
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	case TypeTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "git.tag_prefix")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"changeset_dir":               {Type: TypeString, Description: "Directory holding changeset records"},
	"changelog_file":              {Type: TypeString, Description: "Changelog document path"},
	"changelog_title":             {Type: TypeString, Description: "Changelog title line"},
	"manifest_file":               {Type: TypeString, Description: "Version manifest path"},
	"changelog.template":          {Type: TypeTemplate, Description: "Changelog template: default, detailed, github or file:<path>"},
	"repository.url":              {Type: TypeString, Description: "Repository URL used for links (detected when empty)"},
	"repository.remote":           {Type: TypeString, Description: "Git remote for push and URL detection"},
	"git.release_branches":        {Type: TypeList, Description: "Branches releases are expected from"},
	"git.tag_prefix":              {Type: TypeString, Description: "Prefix of release tags"},
	"git.commit_message":          {Type: TypeString, Description: "Release commit message; {version} is expanded"},
	"git.commit_on_version":       {Type: TypeBool, Description: "Commit the files written by 'changeset version'"},
	"build.command":               {Type: TypeString, Description: "Build command run by publish"},
	"test.command":                {Type: TypeString, Description: "Test command run by publish"},
	"registry.url":                {Type: TypeString, Description: "npm registry URL"},
	"registry.access":             {Type: TypeEnum, AllowedValues: []string{"", "public", "restricted"}, Description: "npm publish access level"},
	"registry.tag":                {Type: TypeString, Description: "npm dist-tag"},
	"publish.skip_build":          {Type: TypeBool, Description: "Skip the build stage by default"},
	"publish.skip_test":           {Type: TypeBool, Description: "Skip the test stage by default"},
	"publish.skip_git_push":       {Type: TypeBool, Description: "Do not push the release commit and tag"},
	"publish.skip_npm_publish":    {Type: TypeBool, Description: "Skip the registry publish"},
	"publish.skip_github_release": {Type: TypeBool, Description: "Skip the GitHub release"},
	"lock.enabled":                {Type: TypeBool, Description: "Guard version and publish with a lock file"},
	"history.max_entries":         {Type: TypeInt, Description: "Release history entries to retain"},
}

func init() {
	for path, schema := range KnownKeys {
		schema.Path = path
		KnownKeys[path] = schema
	}
}

// SortedKeys returns the known key paths in order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue represents a configuration value after validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeList:
		return parseListValue(value), nil
	case TypeTemplate:
		if _, err := changelog.Lookup(value); err != nil {
			return ParsedValue{}, err
		}
		return ParsedValue{Raw: value, Parsed: value, Type: TypeTemplate}, nil
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

func parseListValue(value string) ParsedValue {
	items := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return ParsedValue{Raw: value, Parsed: items, Type: TypeList}
}

func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
