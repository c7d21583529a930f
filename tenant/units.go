package tenant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/solar-engine/solar"
)

// UnitWriter stores tenant directory records.
type UnitWriter interface {
	SaveUnit(ctx context.Context, u solar.Unit) error
}

type unitsFile struct {
	Units []solar.Unit `yaml:"units"`
}

// ParseUnits reads tenant directory records from YAML. Both a top-level
// list and a document with a "units:" key are accepted.
func ParseUnits(r io.Reader) ([]solar.Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var units []solar.Unit
	if err := yaml.Unmarshal(data, &units); err != nil {
		var doc unitsFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse units: %w", err)
		}
		units = doc.Units
	}

	seen := make(map[solar.TenantID]bool, len(units))
	for i, u := range units {
		id := solar.TenantID(strings.TrimSpace(string(u.ID)))
		if id == "" {
			return nil, fmt.Errorf("unit %d: missing id", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("unit %s: duplicate id", id)
		}
		seen[id] = true
		units[i].ID = id
	}
	return units, nil
}

// ImportUnits saves every unit and returns how many were written.
func ImportUnits(ctx context.Context, w UnitWriter, units []solar.Unit) (int, error) {
	for i, u := range units {
		if err := w.SaveUnit(ctx, u); err != nil {
			return i, fmt.Errorf("save unit %s: %w", u.ID, err)
		}
	}
	return len(units), nil
}
