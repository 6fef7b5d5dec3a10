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

import "math"

// RecomputeLine returns a copy of l in which the concentration state of
// every unit has been regenerated from the top of the line for each
// enabled item in items.
//
// For each parameter, the first unit's main inlet is the item's base
// concentration and every following unit's main inlet is the stored
// outlet of the unit before it. The main inlet is mixed with the unit's
// auxiliary inlets as a flow-weighted average, and the unit's removal
// rate is applied to give the outlet. Range parameters pass through
// unchanged. State for parameters that are not enabled is dropped.
//
// RecomputeLine overrides any values set by UpdateRemovalRate or
// UpdateInletConcentration that depended on stale upstream state, and
// RecomputeLine(RecomputeLine(l, items), items) equals
// RecomputeLine(l, items).
func RecomputeLine(l *Line, items []ReportItem) *Line {
	if l == nil {
		return nil
	}
	o := l.Clone()
	enabled := EnabledItems(items)
	var prev *Unit
	for _, u := range o.Units {
		totalFlow := TotalInletFlow(u)
		state := make(map[string]ConcentrationState, len(enabled))
		for _, item := range enabled {
			main := mainInlet(prev, item)
			mixed := mixInlet(u, item, main, totalFlow)
			rate := removalRate(u, item.Name)
			state[item.Name] = ConcentrationState{
				Inlet:       mixed,
				Outlet:      treat(mixed, rate, item.IsRange),
				RemovalRate: rate,
			}
		}
		u.Concentrations = state
		prev = u
	}
	return o
}

// mainInlet returns the concentration of item arriving at a unit through
// its main inlet, given the unit upstream of it (nil for the first unit).
func mainInlet(prev *Unit, item ReportItem) Value {
	if prev != nil {
		if c, ok := prev.Concentrations[item.Name]; ok {
			return c.Outlet
		}
	}
	return item.Concentration
}

// mixInlet returns the flow-weighted average concentration of item
// over the main inlet of u and its auxiliary inlets, where totalFlow is
// TotalInletFlow(u). The main inlet concentration is returned unchanged
// when there is nothing to mix, or when mixing would divide by zero.
func mixInlet(u *Unit, item ReportItem, main Value, totalFlow float64) Value {
	x, numeric := main.Float()
	if item.IsRange || !numeric || len(u.AdditionalInlets) == 0 || !(totalFlow > 0) {
		return main
	}
	mass := u.InletFlow * x
	for _, in := range u.AdditionalInlets {
		mass += in.Flow * in.Concentrations[item.Name]
	}
	mixed := mass / totalFlow
	if !finite(mixed) {
		return main
	}
	return Num(mixed)
}

// treat applies a removal rate [percent] to concentration c.
func treat(c Value, rate float64, isRange bool) Value {
	x, numeric := c.Float()
	if isRange || !numeric {
		return c
	}
	out := round(x * (1 - rate/100))
	if !finite(out) {
		return c
	}
	return Num(out)
}

// removalRate returns the removal rate of the named parameter in u,
// which is zero if the unit has none.
func removalRate(u *Unit, name string) float64 {
	return clampRate(u.RemovalRates[name])
}

// clampRate limits a removal rate to [0, 100] percent.
func clampRate(rate float64) float64 {
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// UpdateRemovalRate returns a copy of l where the removal rate of the
// named parameter in the unit with the given ID is set to rate, which
// is limited to [0, 100] percent.
//
// Only the target unit's outlet for that parameter is recomputed, from
// the inlet concentration currently stored in the unit. Downstream units
// are not updated until RecomputeLine is called. If no unit has the
// given ID, l is returned unchanged.
func UpdateRemovalRate(l *Line, unitID, name string, rate float64, items []ReportItem) *Line {
	rate = clampRate(rate)
	return editUnit(l, unitID, func(u *Unit) {
		if u.RemovalRates == nil {
			u.RemovalRates = make(map[string]float64)
		}
		u.RemovalRates[name] = rate
		c := u.Concentrations[name]
		c.RemovalRate = rate
		c.Outlet = treat(c.Inlet, rate, isRange(items, name))
		setConcentration(u, name, c)
	})
}

// UpdateInletConcentration returns a copy of l where the inlet
// concentration of the named parameter in the unit with the given ID is
// set to c and its outlet is recomputed with the unit's removal rate.
//
// Downstream units are not updated until RecomputeLine is called, and
// the next RecomputeLine replaces c with the value derived from upstream.
// If no unit has the given ID, or c is not of the parameter's kind (a
// band for a range parameter, a finite number otherwise), l is returned
// unchanged.
func UpdateInletConcentration(l *Line, unitID, name string, c Value, items []ReportItem) *Line {
	x, numeric := c.Float()
	if numeric == isRange(items, name) || (numeric && !finite(x)) {
		return l
	}
	return editUnit(l, unitID, func(u *Unit) {
		rate := removalRate(u, name)
		setConcentration(u, name, ConcentrationState{
			Inlet:       c,
			Outlet:      treat(c, rate, isRange(items, name)),
			RemovalRate: rate,
		})
	})
}

func setConcentration(u *Unit, name string, c ConcentrationState) {
	if u.Concentrations == nil {
		u.Concentrations = make(map[string]ConcentrationState)
	}
	u.Concentrations[name] = c
}
