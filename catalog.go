/*
Copyright © 2026 the JetWater authors.
This file is part of JetWater.

JetWater is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

JetWater is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with JetWater.  If not, see <http://www.gnu.org/licenses/>.
*/

package jetwater

import (
	"bytes"
	_ "embed" // default catalog
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

// Catalog holds the read-only configuration that the engine is given:
// the tracked parameters, the treatment unit types with their default
// removal rates, the auxiliary inlet types and the business sectors.
type Catalog struct {
	Parameters map[string]Parameter
	UnitTypes  map[string]UnitType
	InletTypes map[string]InletType
	Sectors    map[string]Sector

	// CustomUnitType is the unit type whose units are numbered,
	// e.g. "Custom unit 3".
	CustomUnitType string

	// CustomInletType is the inlet type whose inlets are numbered.
	CustomInletType string
}

// UnitType is a kind of treatment unit.
type UnitType struct {
	Name        string
	Description string

	// RemovalRates are the default removal rates [percent] by
	// parameter name.
	RemovalRates map[string]float64
}

// InletType is a kind of auxiliary inlet.
type InletType struct {
	Name        string
	Description string
	DefaultFlow float64 `desc:"Default flow" units:"m³/day"`
}

// Sector is a business sector and the parameters it must report.
type Sector struct {
	ID        int
	Name      string
	General   []string
	Specific1 []string
	Specific2 []string
}

// Report item categories.
const (
	CategoryGeneral   = "general"
	CategorySpecific1 = "specific-1"
	CategorySpecific2 = "specific-2"
	CategoryCustom    = "custom"
)

// Reporting frequencies.
const (
	FrequencyQuarterly  = "quarterly"
	FrequencySemiannual = "semiannual"
	FrequencyAnnual     = "annual"
)

//go:embed catalog.toml
var defaultCatalog []byte

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a catalog in TOML format from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	c := new(Catalog)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("jetwater: loading catalog: %v", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize fills in names from map keys, registers the custom types and
// checks the removal rates.
func (c *Catalog) normalize() error {
	if c.Parameters == nil {
		c.Parameters = make(map[string]Parameter)
	}
	if c.UnitTypes == nil {
		c.UnitTypes = make(map[string]UnitType)
	}
	if c.InletTypes == nil {
		c.InletTypes = make(map[string]InletType)
	}
	if c.Sectors == nil {
		c.Sectors = make(map[string]Sector)
	}
	for k, p := range c.Parameters {
		if p.Name == "" {
			p.Name = k
		}
		if p.Unit == "" {
			p.Unit = "mg/L"
		}
		if _, numeric := p.DefaultConcentration.Float(); !numeric {
			p.IsRange = true
		}
		c.Parameters[k] = p
	}
	if c.CustomUnitType != "" {
		if _, ok := c.UnitTypes[c.CustomUnitType]; !ok {
			c.UnitTypes[c.CustomUnitType] = UnitType{}
		}
	}
	for k, t := range c.UnitTypes {
		if t.Name == "" {
			t.Name = k
		}
		for p, rate := range t.RemovalRates {
			if !(rate >= 0 && rate <= 100) {
				return fmt.Errorf("jetwater: unit type %q: removal rate %g for %s is not within [0, 100]", k, rate, p)
			}
		}
		c.UnitTypes[k] = t
	}
	if c.CustomInletType != "" {
		if _, ok := c.InletTypes[c.CustomInletType]; !ok {
			c.InletTypes[c.CustomInletType] = InletType{}
		}
	}
	for k, t := range c.InletTypes {
		if t.Name == "" {
			t.Name = k
		}
		if !(t.DefaultFlow >= 0) || !finite(t.DefaultFlow) {
			return fmt.Errorf("jetwater: inlet type %q: invalid default flow %g", k, t.DefaultFlow)
		}
		c.InletTypes[k] = t
	}
	for k, s := range c.Sectors {
		if s.Name == "" {
			s.Name = k
		}
		c.Sectors[k] = s
	}
	return nil
}

func (c *Catalog) unitType(name string) (UnitType, bool) {
	if c == nil {
		return UnitType{}, false
	}
	t, ok := c.UnitTypes[name]
	return t, ok
}

func (c *Catalog) inletType(name string) (InletType, bool) {
	if c == nil {
		return InletType{}, false
	}
	t, ok := c.InletTypes[name]
	return t, ok
}

// ReportItems returns the enabled report items that a facility in the
// named sector must report: the general parameters (reported quarterly),
// then specific group 1 (semiannually) and specific group 2 (annually).
// Base concentrations, units and the range flag come from the catalog
// parameters; parameters missing from the catalog are reported in mg/L
// with a zero base concentration.
func (c *Catalog) ReportItems(sector string) ([]ReportItem, error) {
	s, ok := c.Sectors[sector]
	if !ok {
		return nil, fmt.Errorf("jetwater: unknown business sector %q", sector)
	}
	var items []ReportItem
	add := func(names []string, prefix, category, frequency string) {
		for _, name := range names {
			item := ReportItem{
				ID:        prefix + "-" + name,
				Name:      name,
				Category:  category,
				Frequency: frequency,
				Unit:      "mg/L",
				Enabled:   true,
			}
			if p, ok := c.Parameters[name]; ok {
				item.Concentration = p.DefaultConcentration
				item.Unit = p.Unit
				item.IsRange = p.IsRange
			}
			items = append(items, item)
		}
	}
	add(s.General, "gen", CategoryGeneral, FrequencyQuarterly)
	add(s.Specific1, "sp1", CategorySpecific1, FrequencySemiannual)
	add(s.Specific2, "sp2", CategorySpecific2, FrequencyAnnual)
	return items, nil
}

// SectorNames returns the names of the business sectors ordered by ID.
func (c *Catalog) SectorNames() []string {
	names := make([]string, 0, len(c.Sectors))
	for k := range c.Sectors {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := c.Sectors[names[i]], c.Sectors[names[j]]
		if si.ID != sj.ID {
			return si.ID < sj.ID
		}
		return names[i] < names[j]
	})
	return names
}

// UnitTypeNames returns the sorted unit type names.
func (c *Catalog) UnitTypeNames() []string { return sortedKeys(c.UnitTypes) }

// InletTypeNames returns the sorted inlet type names.
func (c *Catalog) InletTypeNames() []string { return sortedKeys(c.InletTypes) }

// ParameterNames returns the sorted parameter names.
func (c *Catalog) ParameterNames() []string { return sortedKeys(c.Parameters) }

func sortedKeys[V any](m map[string]V) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
