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
	"fmt"
	"strings"
	"time"
)

// DefaultDesignFlow is the design flow [m³/day] of a new project.
const DefaultDesignFlow = 1000.0

// Project is one facility: its report items and its treatment lines.
type Project struct {
	ID           string       `json:"id"`
	FacilityName string       `json:"facilityName"`
	BusinessType string       `json:"businessType"`
	DesignFlow   float64      `json:"designFlow" desc:"Default design flow for new lines" units:"m³/day"`
	ReportItems  []ReportItem `json:"reportItems"`
	Lines        []*Line      `json:"lines"`
	CurrentStep  int          `json:"currentStep"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Now returns the current time. It can be replaced to make timestamps
// predictable.
var Now = func() time.Time { return time.Now().UTC() }

// NewProject returns an empty project for the named facility.
func NewProject(facilityName string) *Project {
	t := Now()
	return &Project{
		ID:           NewID("proj"),
		FacilityName: strings.TrimSpace(facilityName),
		DesignFlow:   DefaultDesignFlow,
		ReportItems:  []ReportItem{},
		Lines:        []*Line{},
		CurrentStep:  1,
		CreatedAt:    t,
		UpdatedAt:    t,
	}
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	o := *p
	if p.ReportItems != nil {
		o.ReportItems = append([]ReportItem{}, p.ReportItems...)
	}
	if p.Lines != nil {
		o.Lines = make([]*Line, len(p.Lines))
		for i, l := range p.Lines {
			o.Lines[i] = l.Clone()
		}
	}
	return &o
}

// touch returns a copy of p with the update time set.
func (p *Project) touch() *Project {
	o := p.Clone()
	o.UpdatedAt = Now()
	return o
}

// Line returns the line with the given ID, or nil if there is none.
func (p *Project) Line(id string) *Line {
	for _, l := range p.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// SetBusinessType returns a copy of p for the named sector, with its
// report items replaced by the items the sector must report.
func (p *Project) SetBusinessType(cat *Catalog, sector string) (*Project, error) {
	items, err := cat.ReportItems(sector)
	if err != nil {
		return nil, err
	}
	o := p.touch()
	o.BusinessType = sector
	o.ReportItems = items
	return o, nil
}

// AddCustomItem returns a copy of p with an extra enabled numeric report
// item that is not part of the business sector.
func (p *Project) AddCustomItem(name, unit string, c float64) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("jetwater: custom report item has no name")
	}
	if !finite(c) {
		return nil, fmt.Errorf("jetwater: custom report item %q: invalid concentration %g", name, c)
	}
	for _, item := range p.ReportItems {
		if item.Name == name {
			return nil, fmt.Errorf("jetwater: report item %q already exists", name)
		}
	}
	if unit == "" {
		unit = "mg/L"
	}
	o := p.touch()
	o.ReportItems = append(o.ReportItems, ReportItem{
		ID:            NewID("custom"),
		Name:          name,
		Category:      CategoryCustom,
		Frequency:     FrequencySemiannual,
		Concentration: Num(c),
		Unit:          unit,
		Enabled:       true,
	})
	return o, nil
}

// SetItemEnabled returns a copy of p with the named report item enabled
// or disabled.
func (p *Project) SetItemEnabled(name string, enabled bool) (*Project, error) {
	return p.editItem(name, func(item *ReportItem) error {
		item.Enabled = enabled
		return nil
	})
}

// SetItemConcentration returns a copy of p with the base concentration of
// the named report item set to c. Range items only accept bands and
// numeric items only accept numbers.
func (p *Project) SetItemConcentration(name string, c Value) (*Project, error) {
	return p.editItem(name, func(item *ReportItem) error {
		x, numeric := c.Float()
		if numeric == item.IsRange {
			return fmt.Errorf("jetwater: report item %q: concentration %q has the wrong kind", name, c)
		}
		if numeric && !finite(x) {
			return fmt.Errorf("jetwater: report item %q: invalid concentration %g", name, x)
		}
		item.Concentration = c
		return nil
	})
}

func (p *Project) editItem(name string, fn func(*ReportItem) error) (*Project, error) {
	for i := range p.ReportItems {
		if p.ReportItems[i].Name != name {
			continue
		}
		o := p.touch()
		if err := fn(&o.ReportItems[i]); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("jetwater: no report item %q", name)
}

// AddLine returns a copy of p with a new empty line named "Line A",
// "Line B", ... that uses the project design flow.
func (p *Project) AddLine() *Project {
	o := p.touch()
	o.Lines = append(o.Lines, &Line{
		ID:         NewID("line"),
		Name:       "Line " + lineLetter(len(p.Lines)),
		DesignFlow: p.DesignFlow,
		Units:      []*Unit{},
	})
	return o
}

// lineLetter returns A, B, ..., Z, AA, AB, ... for i = 0, 1, ...
func lineLetter(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

// RemoveLine returns a copy of p without the line with the given ID.
func (p *Project) RemoveLine(id string) *Project {
	for i, l := range p.Lines {
		if l.ID == id {
			o := p.touch()
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return o
		}
	}
	return p
}

// UpdateLine returns a copy of p in which the line with the given ID is
// replaced by fn applied to it. For example:
//
//	p = p.UpdateLine(id, func(l *Line) *Line { return RecomputeLine(l, p.ReportItems) })
//
// If there is no such line, or fn returns its argument unchanged, p is
// returned as is.
func (p *Project) UpdateLine(id string, fn func(*Line) *Line) *Project {
	for i, l := range p.Lines {
		if l.ID != id {
			continue
		}
		nl := fn(l)
		if nl == l || nl == nil {
			return p
		}
		o := p.touch()
		o.Lines[i] = nl
		return o
	}
	return p
}

// SetDesignFlow returns a copy of p with a new default design flow.
// Existing lines keep their own design flows.
func (p *Project) SetDesignFlow(flow float64) (*Project, error) {
	if !finite(flow) || flow < 0 {
		return nil, fmt.Errorf("jetwater: invalid design flow %g", flow)
	}
	o := p.touch()
	o.DesignFlow = flow
	return o, nil
}

// Validate checks that the project's report items are consistent.
func (p *Project) Validate() error {
	if err := ValidateReportItems(p.ReportItems); err != nil {
		return fmt.Errorf("jetwater: project %s: %v", p.ID, err)
	}
	return nil
}
