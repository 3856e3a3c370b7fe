package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/taigrr/codecat/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultRules is the starter rule set written by Sample.
var DefaultRules = types.FilterConfigFile{
	AllowedNames: []string{},
	AllowedExtensions: []string{
		".go",
		".py",
		".js",
		".ts",
		".md",
		".yaml",
		".toml",
	},
	IgnoredNames: []string{
		".git",
		"node_modules",
		"vendor",
		"venv",
		"__pycache__",
		"project_files.txt",
	},
	IgnoredExtensions: []string{
		".lock",
		".sum",
		".exe",
	},
}

const sampleHeader = `# codecat configuration
#
# Files are included when their exact name is in allowed_names or their
# extension (with the leading dot) is in allowed_extensions. Anything in
# ignored_names or ignored_extensions is always excluded, even if allowed.
#
# Folders are only checked by name: an ignored folder is never entered, and
# when allowed_names is not empty only folders listed there are entered. Keep
# allowed_names empty unless you also list every folder to descend into.
`

// Sample renders rules as a commented config file in the given format.
func Sample(rules types.FilterConfigFile, format Format) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(sampleHeader)
	buf.WriteString("\n")

	if format == FormatTOML {
		if err := toml.NewEncoder(&buf).Encode(rules); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rules); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
