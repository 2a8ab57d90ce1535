package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"persistence/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// Catalog holds unit definitions keyed by unit name.
// A nil *Catalog behaves as an empty one.
type Catalog struct {
	units map[string]map[string]any
}

type catalogFile struct {
	Units map[string]map[string]any `yaml:"units"`
}

func NewCatalog() *Catalog {
	return &Catalog{units: make(map[string]map[string]any)}
}

// LoadCatalog reads a YAML unit catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NewObjectNotFoundErrorWithCause("unit catalog", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read unit catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse unit catalog: %w", err)
	}

	c := NewCatalog()
	for name, props := range file.Units {
		if name == "" {
			return nil, errs.NewValueIsRequiredError("persistence unit name")
		}
		if len(props) == 0 {
			return nil, errs.NewValueIsRequiredErrorWithCause("persistence unit properties",
				fmt.Errorf("unit %s defines no properties", name))
		}
		c.units[name] = props
	}
	return c, nil
}

// Units lists the defined unit names in sorted order.
func (c *Catalog) Units() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.units))
}

// Resolve merges the catalog definition of unit with its property overrides
// and decodes the result. A unit that is neither in the catalog nor carries
// overrides is reported as errs.ErrObjectNotFound.
func (c *Catalog) Resolve(unit Unit) (Settings, error) {
	if err := unit.Validate(); err != nil {
		return Settings{}, err
	}

	var defined map[string]any
	found := false
	if c != nil {
		defined, found = c.units[unit.Name()]
	}

	overrides := unit.Properties()
	if !found && len(overrides) == 0 {
		return Settings{}, errs.NewObjectNotFoundError("persistence unit", unit.Name())
	}

	merged := make(map[string]any, len(defined)+len(overrides))
	maps.Copy(merged, defined)
	for k, v := range overrides {
		merged[k] = v
	}

	settings, err := DecodeSettings(merged)
	if err != nil {
		return Settings{}, err
	}
	settings.Unit = unit.Name()

	if err = settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("persistence unit %s: %w", unit.Name(), err)
	}
	return settings, nil
}
