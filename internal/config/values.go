package config

import (
	"reflect"
	"strings"
)

// Values flattens the configuration into dotted koanf keys, e.g.
// "git.tag_prefix". Fields tagged koanf:"-" are omitted.
func (c *Configuration) Values() map[string]any {
	out := make(map[string]any)
	flatten(reflect.ValueOf(*c), "", out)
	return out
}

func flatten(v reflect.Value, prefix string, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			flatten(fv, key, out)
			continue
		}
		out[key] = fv.Interface()
	}
}
