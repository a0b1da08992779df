package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/prism/internal/model"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadSettings reads a settings descriptor from path.
// The format is chosen by extension: .json, .yaml/.yml or .toml.
// A missing file returns ErrSettingsNotFound; a file that cannot be decoded
// returns an error wrapping model.ErrConfiguration.
//
// A relative project_path is resolved against the directory of path.
// The returned settings are not validated; call Validate.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided settings path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSettingsNotFound)
		}
		return nil, model.Wrap(model.ErrConfiguration, "read settings", err)
	}

	s, err := decodeSettings(path, data)
	if err != nil {
		return nil, err
	}

	s.path = path
	if s.ProjectPath != "" && !filepath.IsAbs(s.ProjectPath) {
		s.ProjectPath = filepath.Join(filepath.Dir(path), s.ProjectPath)
	}
	return s, nil
}

// decodeSettings decodes data according to the extension of path.
func decodeSettings(path string, data []byte) (*Settings, error) {
	var s Settings

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&s); err != nil {
			return nil, model.Wrap(model.ErrConfiguration, "decode "+path, err)
		}
		s.TemplateVars = normalizeJSONNumbers(s.TemplateVars)
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, model.Wrap(model.ErrConfiguration, "decode "+path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, model.Wrap(model.ErrConfiguration, "decode "+path, err)
		}
	default:
		return nil, fmt.Errorf("%s (%q): %w", path, ext, ErrUnsupportedSettingsFormat)
	}

	return &s, nil
}

// normalizeJSONNumbers replaces json.Number values with int64 or float64 so
// templates see the same types regardless of the settings file format.
func normalizeJSONNumbers(vars map[string]any) map[string]any {
	if vars == nil {
		return nil
	}
	for k, v := range vars {
		vars[k] = normalizeJSONValue(v)
	}
	return vars
}

func normalizeJSONValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		return normalizeJSONNumbers(x)
	case []any:
		for i := range x {
			x[i] = normalizeJSONValue(x[i])
		}
		return x
	default:
		return v
	}
}

// FindSettingsFile returns the settings file to load.
// If explicit is set it is returned as is, so a missing explicit file is
// reported by LoadSettings. Otherwise the current directory is searched for
// SettingsFileCandidates; if none exists DefaultSettingsFile is returned.
func FindSettingsFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	cwd, err := os.Getwd()
	if err != nil {
		return DefaultSettingsFile
	}
	for _, name := range SettingsFileCandidates {
		candidate := filepath.Join(cwd, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return filepath.Join(cwd, DefaultSettingsFile)
}
