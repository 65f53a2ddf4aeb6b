// Package seeds loads the operator-maintained defaults applied to accounts
// on first discovery. Existing records are never touched by seeding.
package seeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults holds the initial operator-owned fields for new account records.
type Defaults struct {
	Collections string   `json:"collections" yaml:"collections"`
	Captions    []string `json:"captions" yaml:"captions"`
	Hashtags    []string `json:"hashtags" yaml:"hashtags"`
}

// Load reads a defaults file in YAML or JSON format.
func Load(path string) (*Defaults, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("seeds file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read seeds file: %w", err)
	}

	return parseDefaults(raw, filepath.Ext(path))
}

func parseDefaults(data []byte, ext string) (*Defaults, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yamlUnmarshal},
		{name: "yaml", ext: ".yml", fn: yamlUnmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var def Defaults
		if err := d.fn(data, &def); err == nil {
			return &def, nil
		}
	}

	return nil, errors.New("seeds file format not recognized (expected YAML or JSON)")
}

func yamlUnmarshal(data []byte, out any) error { return yaml.Unmarshal(data, out) }
