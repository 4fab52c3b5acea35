package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileError points at a problem in a config source. Line is set for syntax
// errors, Key for values that fail validation.
type FileError struct {
	Path    string
	Line    int
	Column  int
	Key     string
	Message string
}

func (e *FileError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	case e.Key != "":
		return fmt.Sprintf("%s: %s %s", e.Path, e.Key, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// checkFile reads path and checks its YAML syntax. A missing or blank file
// passes and leaves the lower layers in effect.
func checkFile(path string) error {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case os.IsPermission(err):
		return &FileError{Path: path, Message: "permission denied"}
	case err != nil:
		return &FileError{Path: path, Message: err.Error()}
	}
	return checkSyntax(path, data)
}

var yamlPosition = regexp.MustCompile(`^yaml: line (\d+):(?: column (\d+):)? (.*)$`)

// checkSyntax parses data as YAML and reports the first error with its
// position when yaml.v3 provides one.
func checkSyntax(path string, data []byte) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}

	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &FileError{Path: path, Message: strings.Join(typeErr.Errors, "; ")}
	}

	fe := &FileError{Path: path, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
	if m := yamlPosition.FindStringSubmatch(err.Error()); m != nil {
		fe.Line, _ = strconv.Atoi(m[1])
		fe.Column, _ = strconv.Atoi(m[2])
		fe.Message = m[3]
	}
	return fe
}

// checkValues applies the struct tags of cfg and reports every key that
// fails, joined.
func checkValues(cfg *Configuration, source string) error {
	err := valueValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &FileError{Path: source, Message: err.Error()}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &FileError{
			Path:    source,
			Key:     koanfKey(fe),
			Message: describeFailure(fe),
		})
	}
	return errors.Join(errs...)
}

// valueValidator names fields by their koanf key and knows the changelog
// template registry.
func valueValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("changelog_template", func(fl validator.FieldLevel) bool {
		_, err := changelog.Lookup(fl.Field().String())
		return err == nil
	})
	return v
}

// koanfKey drops the struct name from "Configuration.git.commit_message".
func koanfKey(fe validator.FieldError) string {
	_, key, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Namespace()
	}
	return key
}

func describeFailure(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "changelog_template":
		return fmt.Sprintf("names an unknown template %q (available: %s, %s<path>)",
			fe.Value(), strings.Join(changelog.TemplateNames(), ", "), changelog.FilePrefix)
	}
	return "fails the " + fe.Tag() + " check"
}
