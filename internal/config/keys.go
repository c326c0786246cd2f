package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// valueKind classifies a config field's underlying Go type for ParseValue.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindInt64
	kindBool
	kindStringSlice
)

// fieldKind maps a reflect.Kind-bearing field to its valueKind, or reports
// false if the field's type isn't one ParseValue/WriteValue understands.
func fieldKind(v reflect.Value) (valueKind, bool) {
	switch v.Kind() {
	case reflect.String:
		return kindString, true
	case reflect.Int:
		return kindInt, true
	case reflect.Int64:
		return kindInt64, true
	case reflect.Bool:
		return kindBool, true
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.String {
			return kindStringSlice, true
		}
	}
	return 0, false
}

// mapstructureTag returns the "mapstructure" tag name for a struct field,
// falling back to its lowercased Go name.
func mapstructureTag(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("mapstructure"); ok && tag != "" {
		return tag
	}
	return strings.ToLower(f.Name)
}

// resolveField walks cfg's fields by dotted key, returning the reflect.Value
// at that path and true, or a zero Value and false if the key doesn't exist.
func resolveField(cfg reflect.Value, segments []string) (reflect.Value, bool) {
	current := cfg
	for _, segment := range segments {
		if current.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		found := false
		for i := 0; i < current.NumField(); i++ {
			field := current.Type().Field(i)
			if mapstructureTag(field) == segment {
				current = current.Field(i)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, false
		}
	}
	return current, true
}

// GetValue reads the config value at a dotted key (e.g. "general.safety_policy"
// or the bare section name "general"), returning the value and whether the
// key was recognised.
func GetValue(cfg Config, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	segments := strings.Split(key, ".")
	v, ok := resolveField(reflect.ValueOf(cfg), segments)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// ParseValue parses raw into the Go type expected at key, per the shape of
// DefaultConfig()'s field at that path. String-slice fields are parsed as a
// comma-separated list with empty entries and surrounding whitespace dropped.
func ParseValue(key, raw string) (any, error) {
	segments := strings.Split(key, ".")
	v, ok := resolveField(reflect.ValueOf(DefaultConfig()), segments)
	if !ok {
		return nil, fmt.Errorf("config: unsupported key %q", key)
	}
	kind, ok := fieldKind(v)
	if !ok {
		return nil, fmt.Errorf("config: key %q has an unsupported value type %s", key, v.Kind())
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid integer %q: %w", raw, err)
		}
		return n, nil
	case kindInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid integer %q: %w", raw, err)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid boolean %q: %w", raw, err)
		}
		return b, nil
	case kindStringSlice:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("config: unsupported value kind %v", kind)
	}
}

// WriteValue sets a single dotted key to value in the TOML file at path,
// creating the file if it doesn't exist and preserving every other key
// already present. Intermediate path segments must either be absent or
// already be a table; anything else is an error.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config: path must not be empty")
	}

	doc := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return fmt.Errorf("config: decode config at %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	segments := strings.Split(key, ".")
	if err := setNested(doc, segments, value); err != nil {
		return fmt.Errorf("config: set %q: %w", key, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}

// setNested walks doc by segments, creating intermediate tables as needed,
// and assigns value at the final segment.
func setNested(doc map[string]any, segments []string, value any) error {
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, exists := current[segment]
		if !exists {
			table := make(map[string]any)
			current[segment] = table
			current = table
			continue
		}
		table, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is not a table", segment)
		}
		current = table
	}
	current[segments[len(segments)-1]] = value
	return nil
}
