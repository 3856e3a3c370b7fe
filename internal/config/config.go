// Package config loads filter rules from YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/types"
)

// EnvPrefix marks environment variables that override file settings, e.g.
// CODECAT_ALLOWED_EXTENSIONS=.go,.md.
const EnvPrefix = "CODECAT_"

// Config keys.
const (
	KeyAllowedNames      = "allowed_names"
	KeyAllowedExtensions = "allowed_extensions"
	KeyIgnoredNames      = "ignored_names"
	KeyIgnoredExtensions = "ignored_extensions"
)

var keys = []string{
	KeyAllowedNames,
	KeyAllowedExtensions,
	KeyIgnoredNames,
	KeyIgnoredExtensions,
}

// FileNames are looked up, in order, in the project directory by Find.
var FileNames = []string{
	"codecat.yaml",
	".codecat.yaml",
	"codecat.yml",
	".codecat.yml",
	"codecat.toml",
	".codecat.toml",
}

// XDGNames are the config paths looked up under the XDG config directories.
var XDGNames = []string{"codecat/config.yaml", "codecat/config.toml"}

// Format is a config file syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the file extension. Anything that is not
// .toml is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

func parserFor(path string) koanf.Parser {
	if FormatOf(path) == FormatTOML {
		return toml.Parser()
	}
	return yaml.Parser()
}

// Load reads the YAML or TOML file at path, applies environment overrides, and
// returns the resulting rule sets. An empty path loads only defaults and the
// environment. Missing keys are empty sets.
func Load(path string) (types.FilterConfig, error) {
	k := koanf.New(".")

	defaults := make(map[string]any, len(keys))
	for _, key := range keys {
		defaults[key] = []any{}
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return types.FilterConfig{}, &ConfigError{Err: fmt.Errorf("failed to load defaults: %w", err)}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return types.FilterConfig{}, &ConfigError{Path: path, Err: err}
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return key, splitList(value)
	}), nil)
	if err != nil {
		return types.FilterConfig{}, &ConfigError{Err: fmt.Errorf("failed to load env vars: %w", err)}
	}

	return decode(k, path)
}

func decode(k *koanf.Koanf, path string) (types.FilterConfig, error) {
	logger := logging.Get("config")

	known := make(map[string]bool, len(keys))
	for _, key := range keys {
		known[key] = true
	}
	var unknown []string
	for _, key := range k.Keys() {
		if !known[strings.SplitN(key, ".", 2)[0]] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		logger.Warn().Str("path", path).Strs("keys", unknown).Msg("Ignoring unknown config keys")
	}

	sets := make(map[string]types.Set, len(keys))
	for _, key := range keys {
		set, err := stringSet(k.Get(key))
		if err != nil {
			return types.FilterConfig{}, &ConfigError{Path: path, Key: key, Err: err}
		}
		sets[key] = set
	}

	for _, key := range []string{KeyAllowedExtensions, KeyIgnoredExtensions} {
		for _, ext := range sets[key].Sorted() {
			if !strings.HasPrefix(ext, ".") {
				logger.Warn().Str("key", key).Str("extension", ext).
					Msg("Extension has no leading dot and will never match")
			}
		}
	}

	return types.FilterConfig{
		AllowedNames:      sets[KeyAllowedNames],
		AllowedExtensions: sets[KeyAllowedExtensions],
		IgnoredNames:      sets[KeyIgnoredNames],
		IgnoredExtensions: sets[KeyIgnoredExtensions],
	}, nil
}

func stringSet(raw any) (types.Set, error) {
	switch v := raw.(type) {
	case nil:
		return types.NewSet(), nil
	case []string:
		return types.NewSet(v...), nil
	case []any:
		items := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d is %T (%v), want string", i, item, item)
			}
			items = append(items, s)
		}
		return types.NewSet(items...), nil
	default:
		return nil, fmt.Errorf("must be a list of strings, got %T", raw)
	}
}

func splitList(value string) []any {
	var items []any
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if items == nil {
		items = []any{}
	}
	return items
}

// Find returns the first config file in dir named in FileNames, falling back
// to XDGNames in the XDG config directories.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	for _, name := range XDGNames {
		if path, err := xdg.SearchConfigFile(name); err == nil {
			return path, nil
		}
	}

	return "", ErrNotFound
}
