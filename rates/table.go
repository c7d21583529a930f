// Package rates resolves the utility cost per kWh a plant is compared against.
package rates

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/solar"
)

// Source says where a resolved rate came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceRegion   Source = "region"
	SourceDefault  Source = "default"
)

// Table maps region codes to utility rates, with one fallback rate.
// It is immutable after construction and safe for concurrent use.
type Table struct {
	def     decimal.Decimal
	regions map[string]decimal.Decimal
}

// NewTable builds a table from configuration values. Region codes are
// matched case-insensitively.
func NewTable(def float64, regions map[string]float64) *Table {
	t := &Table{
		def:     decimal.NewFromFloat(def),
		regions: make(map[string]decimal.Decimal, len(regions)),
	}
	for code, rate := range regions {
		t.regions[normalize(code)] = decimal.NewFromFloat(rate)
	}
	return t
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (t *Table) Default() decimal.Decimal { return t.def }

// Lookup returns the region's rate, or the default with found=false.
func (t *Table) Lookup(region string) (rate decimal.Decimal, found bool) {
	if r, ok := t.regions[normalize(region)]; ok {
		return r, true
	}
	return t.def, false
}

// Resolve applies override, then region, then default.
func (t *Table) Resolve(p *solar.Plant) (decimal.Decimal, Source) {
	if p.UtilityCostPerKWH != nil {
		return *p.UtilityCostPerKWH, SourceOverride
	}
	if rate, ok := t.Lookup(p.Location.State); ok {
		return rate, SourceRegion
	}
	return t.def, SourceDefault
}
