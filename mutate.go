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

// The operations in this file change the topology or the flows of a Line.
// Each one returns a new Line and leaves its input untouched. When an ID
// does not match anything the input Line is returned as is. None of them
// recompute concentrations downstream; call RecomputeLine for that.

// editUnit returns a copy of l with fn applied to the unit with the
// given ID, or l itself if there is no such unit.
func editUnit(l *Line, unitID string, fn func(u *Unit)) *Line {
	i := l.unitIndex(unitID)
	if i < 0 {
		return l
	}
	o := l.Clone()
	fn(o.Units[i])
	return o
}

// editInlet returns a copy of l with fn applied to the given auxiliary
// inlet of the given unit, or l itself if there is no such inlet.
func editInlet(l *Line, unitID, inletID string, fn func(in *Inlet)) *Line {
	u := l.Unit(unitID)
	if u == nil || u.inletIndex(inletID) < 0 {
		return l
	}
	return editUnit(l, unitID, func(u *Unit) {
		fn(u.AdditionalInlets[u.inletIndex(inletID)])
	})
}

// AddUnit returns a copy of l with a new unit of type unitType appended
// to the end of the line.
//
// The unit takes its default removal rates from the matching unit type
// in cat, which may be nil. Unknown types get no removal rates and are
// named after the type. The new unit inherits the line design flow, and
// its concentrations are seeded from the current outlet of the last
// unit (or the base concentrations of items if the line is empty).
func AddUnit(l *Line, unitType string, cat *Catalog, items []ReportItem) *Line {
	if l == nil {
		return nil
	}
	o := l.Clone()
	n := len(o.Units) + 1
	u := &Unit{
		ID:               NewID("unit"),
		Type:             unitType,
		Name:             unitType,
		FlowID:           fmt.Sprintf("T%d", n),
		InletFlowID:      fmt.Sprintf("WTB-%d", n),
		OutletFlowID:     fmt.Sprintf("WTA-%d", n),
		FlowInherited:    true,
		InletFlow:        o.DesignFlow,
		OutletFlow:       o.DesignFlow,
		RemovalRates:     make(map[string]float64),
		Concentrations:   make(map[string]ConcentrationState),
		AdditionalInlets: []*Inlet{},
	}
	if n == 1 {
		u.InletFlowID = "WTB-influent"
	}
	if t, ok := cat.unitType(unitType); ok {
		u.Name = t.Name
		if unitType == cat.CustomUnitType {
			u.Name = fmt.Sprintf("%s %d", t.Name, n)
		}
		for name, rate := range t.RemovalRates {
			u.RemovalRates[name] = clampRate(rate)
		}
	}

	var prev *Unit
	if n > 1 {
		prev = o.Units[n-2]
	}
	for _, item := range EnabledItems(items) {
		in := mainInlet(prev, item)
		rate := removalRate(u, item.Name)
		u.Concentrations[item.Name] = ConcentrationState{
			Inlet:       in,
			Outlet:      treat(in, rate, item.IsRange),
			RemovalRate: rate,
		}
	}
	o.Units = append(o.Units, u)
	return o
}

// RemoveUnit returns a copy of l without the unit with the given ID.
// The remaining units keep their stored state.
func RemoveUnit(l *Line, unitID string) *Line {
	i := l.unitIndex(unitID)
	if i < 0 {
		return l
	}
	o := l.Clone()
	o.Units = append(o.Units[:i], o.Units[i+1:]...)
	return o
}

// ReorderUnit returns a copy of l where the unit at index from has been
// moved to index to, and the FlowID of every unit renumbered to match
// its new position. Both indices must be in [0, len(l.Units)); otherwise
// l is returned unchanged.
func ReorderUnit(l *Line, from, to int) *Line {
	if l == nil || from < 0 || to < 0 || from >= len(l.Units) || to >= len(l.Units) {
		return l
	}
	o := l.Clone()
	u := o.Units[from]
	o.Units = append(o.Units[:from], o.Units[from+1:]...)
	o.Units = append(o.Units[:to], append([]*Unit{u}, o.Units[to:]...)...)
	for i, u := range o.Units {
		u.FlowID = fmt.Sprintf("T%d", i+1)
	}
	return o
}

// ToggleFlowInheritance returns a copy of l where the FlowInherited flag
// of the given unit is flipped. Turning it on sets the unit's inlet and
// outlet flows to the line design flow; turning it off keeps the
// current flows.
func ToggleFlowInheritance(l *Line, unitID string) *Line {
	design := 0.0
	if l != nil {
		design = l.DesignFlow
	}
	return editUnit(l, unitID, func(u *Unit) {
		u.FlowInherited = !u.FlowInherited
		if u.FlowInherited {
			u.InletFlow = design
			u.OutletFlow = design
		}
	})
}

// FlowField selects one of the flows of a unit.
type FlowField string

// Unit flow fields.
const (
	FieldInletFlow  FlowField = "inletFlow"
	FieldOutletFlow FlowField = "outletFlow"
)

// UpdateUnitFlow returns a copy of l where the given flow of the given
// unit is set to value [m³/day] and the unit no longer inherits the
// line design flow. Negative values are set to zero. Non-finite values
// and unknown fields leave l unchanged.
func UpdateUnitFlow(l *Line, unitID string, field FlowField, value float64) *Line {
	if !finite(value) || (field != FieldInletFlow && field != FieldOutletFlow) {
		return l
	}
	if value < 0 {
		value = 0
	}
	return editUnit(l, unitID, func(u *Unit) {
		switch field {
		case FieldInletFlow:
			u.InletFlow = value
		case FieldOutletFlow:
			u.OutletFlow = value
		}
		u.FlowInherited = false
	})
}

// UpdateLineFlow returns a copy of l with the design flow set to flow
// [m³/day]. Units that inherit the design flow take the new value; other
// units keep their own flows. Negative or non-finite flows leave l
// unchanged.
func UpdateLineFlow(l *Line, flow float64) *Line {
	if l == nil || !finite(flow) || flow < 0 {
		return l
	}
	o := l.Clone()
	o.DesignFlow = flow
	for _, u := range o.Units {
		if u.FlowInherited {
			u.InletFlow = flow
			u.OutletFlow = flow
		}
	}
	return o
}

// AddInlet returns a copy of l with a new auxiliary inlet of type
// inletType at the front of the given unit's inlet list.
//
// The inlet takes its name and default flow from the matching inlet
// type in cat, which may be nil. Its concentration is zero for every
// enabled numeric item; range items have no entry.
func AddInlet(l *Line, unitID, inletType string, cat *Catalog, items []ReportItem) *Line {
	return editUnit(l, unitID, func(u *Unit) {
		n := len(u.AdditionalInlets) + 1
		in := &Inlet{
			ID:             NewID("inlet"),
			Type:           inletType,
			Name:           inletType,
			FlowID:         fmt.Sprintf("WTB-%s%d", inletType, n),
			Concentrations: make(map[string]float64),
		}
		if t, ok := cat.inletType(inletType); ok {
			in.Name = t.Name
			if inletType == cat.CustomInletType {
				in.Name = fmt.Sprintf("%s %d", t.Name, n)
			}
			if finite(t.DefaultFlow) && t.DefaultFlow > 0 {
				in.Flow = t.DefaultFlow
			}
		}
		for _, item := range EnabledItems(items) {
			if !item.IsRange {
				in.Concentrations[item.Name] = 0
			}
		}
		u.AdditionalInlets = append([]*Inlet{in}, u.AdditionalInlets...)
	})
}

// RemoveInlet returns a copy of l without the given auxiliary inlet.
func RemoveInlet(l *Line, unitID, inletID string) *Line {
	u := l.Unit(unitID)
	if u == nil || u.inletIndex(inletID) < 0 {
		return l
	}
	return editUnit(l, unitID, func(u *Unit) {
		i := u.inletIndex(inletID)
		u.AdditionalInlets = append(u.AdditionalInlets[:i], u.AdditionalInlets[i+1:]...)
	})
}

// An InletEdit changes one field of an auxiliary inlet.
type InletEdit func(in *Inlet)

// SetInletName sets the name of an inlet.
func SetInletName(name string) InletEdit {
	return func(in *Inlet) { in.Name = name }
}

// SetInletFlowID sets the display flow ID of an inlet.
func SetInletFlowID(id string) InletEdit {
	return func(in *Inlet) { in.FlowID = id }
}

// SetInletFlow sets the flow [m³/day] of an inlet. Negative values are
// set to zero and non-finite values are ignored.
func SetInletFlow(flow float64) InletEdit {
	return func(in *Inlet) {
		if !finite(flow) {
			return
		}
		if flow < 0 {
			flow = 0
		}
		in.Flow = flow
	}
}

// SetInletConcentration sets the concentration of the named parameter
// in an inlet. Non-finite values are ignored.
func SetInletConcentration(name string, c float64) InletEdit {
	return func(in *Inlet) {
		if !finite(c) {
			return
		}
		if in.Concentrations == nil {
			in.Concentrations = make(map[string]float64)
		}
		in.Concentrations[name] = c
	}
}

// UpdateInlet returns a copy of l with edits applied in order to the
// given auxiliary inlet.
func UpdateInlet(l *Line, unitID, inletID string, edits ...InletEdit) *Line {
	return editInlet(l, unitID, inletID, func(in *Inlet) {
		for _, e := range edits {
			e(in)
		}
	})
}

// RenameLine returns a copy of l with the given name.
func RenameLine(l *Line, name string) *Line {
	if l == nil {
		return nil
	}
	o := l.Clone()
	o.Name = name
	return o
}

// RenameUnit returns a copy of l where the given unit has the given name.
func RenameUnit(l *Line, unitID, name string) *Line {
	return editUnit(l, unitID, func(u *Unit) { u.Name = name })
}

// FlowIDField selects one of the display flow IDs of a unit.
type FlowIDField string

// Unit display flow ID fields.
const (
	FieldFlowID       FlowIDField = "flowId"
	FieldInletFlowID  FlowIDField = "inletFlowId"
	FieldOutletFlowID FlowIDField = "outletFlowId"
)

// UpdateFlowID returns a copy of l where the given display flow ID of the
// given unit is set to id. Unknown fields leave l unchanged.
func UpdateFlowID(l *Line, unitID string, field FlowIDField, id string) *Line {
	switch field {
	case FieldFlowID, FieldInletFlowID, FieldOutletFlowID:
	default:
		return l
	}
	return editUnit(l, unitID, func(u *Unit) {
		switch field {
		case FieldFlowID:
			u.FlowID = id
		case FieldInletFlowID:
			u.InletFlowID = id
		case FieldOutletFlowID:
			u.OutletFlowID = id
		}
	})
}
