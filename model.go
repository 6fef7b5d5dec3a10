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

import "fmt"

// Parameter is a water-quality parameter from the catalog.
type Parameter struct {
	Name string `toml:"Name" json:"name"`
	Unit string `toml:"Unit" json:"unit" desc:"Unit of measure" units:"e.g. mg/L"`

	// IsRange marks qualitative parameters (e.g. a pH band) that are
	// reported as text and never mixed or reduced.
	IsRange bool `toml:"IsRange" json:"isRange"`

	DefaultConcentration Value `toml:"DefaultConcentration" json:"defaultConcentration"`
}

// ReportItem is a project-specific instance of a Parameter. Only enabled
// items take part in propagation.
type ReportItem struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Frequency     string `json:"frequency"`
	Concentration Value  `json:"concentration" desc:"Raw influent (base) concentration"`
	Unit          string `json:"unit"`
	IsRange       bool   `json:"isRange"`
	Enabled       bool   `json:"enabled"`
}

// Line is an ordered chain of treatment units sharing one design flow.
// The order of Units is the flow path: each unit's main inlet is the
// previous unit's outlet.
type Line struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DesignFlow float64 `json:"designFlow" desc:"Design flow" units:"m³/day"`
	Units      []*Unit `json:"units"`
}

// Unit is one treatment stage.
type Unit struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`

	FlowID       string `json:"flowId,omitempty"`       // display index, e.g. T3
	InletFlowID  string `json:"inletFlowId,omitempty"`  // e.g. WTB-3
	OutletFlowID string `json:"outletFlowId,omitempty"` // e.g. WTA-3

	// FlowInherited units track the line design flow.
	FlowInherited bool    `json:"flowInherited"`
	InletFlow     float64 `json:"inletFlow" desc:"Main inlet flow" units:"m³/day"`
	OutletFlow    float64 `json:"outletFlow" desc:"Outlet flow" units:"m³/day"`

	RemovalRates     map[string]float64            `json:"removalRates" units:"percent"`
	Concentrations   map[string]ConcentrationState `json:"concentrations"`
	AdditionalInlets []*Inlet                      `json:"additionalInlets"`
}

// ConcentrationState holds the computed state of one parameter in a unit.
type ConcentrationState struct {
	Inlet       Value   `json:"inlet" desc:"Mixed inlet concentration"`
	Outlet      Value   `json:"outlet" desc:"Outlet concentration after removal"`
	RemovalRate float64 `json:"removalRate" units:"percent"`
}

// Inlet is an auxiliary stream (return sludge, chemical dose, supernatant,
// ...) merging into a unit's main inlet. Concentrations are absent for
// range parameters.
type Inlet struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	Name           string             `json:"name"`
	FlowID         string             `json:"flowId,omitempty"`
	Flow           float64            `json:"flow" units:"m³/day"`
	Concentrations map[string]float64 `json:"concentrations"`
}

// Clone returns a deep copy of l.
func (l *Line) Clone() *Line {
	if l == nil {
		return nil
	}
	o := *l
	if l.Units != nil {
		o.Units = make([]*Unit, len(l.Units))
		for i, u := range l.Units {
			o.Units[i] = u.Clone()
		}
	}
	return &o
}

// Clone returns a deep copy of u.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	o := *u
	if u.RemovalRates != nil {
		o.RemovalRates = make(map[string]float64, len(u.RemovalRates))
		for k, v := range u.RemovalRates {
			o.RemovalRates[k] = v
		}
	}
	if u.Concentrations != nil {
		o.Concentrations = make(map[string]ConcentrationState, len(u.Concentrations))
		for k, v := range u.Concentrations {
			o.Concentrations[k] = v
		}
	}
	if u.AdditionalInlets != nil {
		o.AdditionalInlets = make([]*Inlet, len(u.AdditionalInlets))
		for i, in := range u.AdditionalInlets {
			o.AdditionalInlets[i] = in.Clone()
		}
	}
	return &o
}

// Clone returns a deep copy of in.
func (in *Inlet) Clone() *Inlet {
	if in == nil {
		return nil
	}
	o := *in
	if in.Concentrations != nil {
		o.Concentrations = make(map[string]float64, len(in.Concentrations))
		for k, v := range in.Concentrations {
			o.Concentrations[k] = v
		}
	}
	return &o
}

// Unit returns the unit with the given ID, or nil if there is none.
func (l *Line) Unit(id string) *Unit {
	if i := l.unitIndex(id); i >= 0 {
		return l.Units[i]
	}
	return nil
}

func (l *Line) unitIndex(id string) int {
	if l == nil {
		return -1
	}
	for i, u := range l.Units {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (u *Unit) inletIndex(id string) int {
	for i, in := range u.AdditionalInlets {
		if in.ID == id {
			return i
		}
	}
	return -1
}

// EnabledItems returns the enabled items, in order.
func EnabledItems(items []ReportItem) []ReportItem {
	var o []ReportItem
	for _, item := range items {
		if item.Enabled {
			o = append(o, item)
		}
	}
	return o
}

// ValidateReportItems checks that parameter names are non-empty and unique
// among the enabled items.
func ValidateReportItems(items []ReportItem) error {
	seen := make(map[string]struct{})
	for i, item := range items {
		if !item.Enabled {
			continue
		}
		if item.Name == "" {
			return fmt.Errorf("jetwater: report item %d has no name", i)
		}
		if _, ok := seen[item.Name]; ok {
			return fmt.Errorf("jetwater: duplicate report item %q", item.Name)
		}
		seen[item.Name] = struct{}{}
	}
	return nil
}

// isRange returns whether the named parameter is a range parameter
// according to items.
func isRange(items []ReportItem, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return item.IsRange
		}
	}
	return false
}
