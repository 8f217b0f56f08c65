package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/rfvision/core"
)

// catalogFile is the document form: either a bare list of models or a
// mapping with a "transceivers" key.
type catalogFile struct {
	Transceivers []*core.TransceiverModel `json:"transceivers" yaml:"transceivers"`
}

// ParseTransceivers decodes models from JSON or YAML. The format is picked
// from ext (".json", ".yaml", ".yml"); anything else is sniffed.
func ParseTransceivers(data []byte, ext string) ([]*core.TransceiverModel, error) {
	ext = strings.ToLower(ext)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	isJSON := ext == ".json" || (ext != ".yaml" && ext != ".yml" && (trimmed[0] == '[' || trimmed[0] == '{'))

	var models []*core.TransceiverModel
	if isJSON {
		if trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &models); err != nil {
				return nil, fmt.Errorf("parse transceivers json: %w", err)
			}
			return compact(models), nil
		}
		var doc catalogFile
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse transceivers json: %w", err)
		}
		return compact(doc.Transceivers), nil
	}

	if err := yaml.Unmarshal(trimmed, &models); err == nil {
		return compact(models), nil
	}
	var doc catalogFile
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse transceivers yaml: %w", err)
	}
	return compact(doc.Transceivers), nil
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) ([]*core.TransceiverModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTransceivers(data, filepath.Ext(path))
}

// LoadFile replaces the catalog contents with the models in path and
// returns how many were loaded.
func (c *Catalog) LoadFile(path string) (int, error) {
	models, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := c.ReplaceAll(models); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(models), nil
}

func compact(models []*core.TransceiverModel) []*core.TransceiverModel {
	out := models[:0]
	for _, m := range models {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
