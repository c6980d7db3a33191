package preset

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads user presets from a YAML file of the form:
//
//	presets:
//	  - id: winners
//	    metrics: [clicks, ctr]
//	    dimensions: [query]
//	    order_bys:
//	      - field: ctr
//	        descending: true
//	    limit: 200
//
// A missing file is not an error; there are simply no user presets.
func LoadFile(path string) ([]Definition, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}

	var out struct {
		Presets []Definition `koanf:"presets"`
	}
	if err := k.Unmarshal("", &out); err != nil {
		return nil, fmt.Errorf("failed to decode presets file %s: %w", path, err)
	}

	for i, def := range out.Presets {
		if def.ID == "" {
			return nil, fmt.Errorf("preset %d in %s has no id", i, path)
		}
	}
	return out.Presets, nil
}

// LoadInto loads path and replaces the registry's user presets.
func LoadInto(r *Registry, path string) error {
	defs, err := LoadFile(path)
	if err != nil {
		return err
	}
	r.Replace(defs)
	return nil
}
