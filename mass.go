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
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// massConv converts flow [m³/day] × concentration [mg/L] to mass [kg/day].
const massConv = 0.001

// precision is the number of decimal places kept for outlet
// concentrations and masses.
const precision = 3

// NotApplicable is how a mass that cannot be computed is displayed.
const NotApplicable = "-"

func round(x float64) float64 {
	return scalar.Round(x, precision)
}

// Mass returns the mass loading [kg/day] carried by flow [m³/day] at
// concentration c [mg/L], rounded to 3 decimal places. ok is false
// when c is a band, which means the mass is not applicable.
// The zero Value is the number 0, so a parameter with no state must be
// caught by the caller; InletMass and OutletMass do that.
func Mass(flow float64, c Value) (m float64, ok bool) {
	x, ok := c.Float()
	if !ok {
		return 0, false
	}
	m = round(flow * x * massConv)
	if !finite(m) {
		return 0, false
	}
	return m, true
}

// FormatMass formats the result of Mass for display.
func FormatMass(m float64, ok bool) string {
	if !ok {
		return NotApplicable
	}
	return strconv.FormatFloat(m, 'f', precision, 64)
}

// TotalInletFlow returns the main inlet flow of u plus the flows of all
// of its auxiliary inlets.
func TotalInletFlow(u *Unit) float64 {
	if u == nil {
		return 0
	}
	flows := make([]float64, 0, len(u.AdditionalInlets)+1)
	flows = append(flows, u.InletFlow)
	for _, in := range u.AdditionalInlets {
		flows = append(flows, in.Flow)
	}
	return floats.Sum(flows)
}

// TotalInletMass returns the mass loading of item entering u through
// the main inlet and all auxiliary inlets. ok is false for range
// parameters. A missing concentration counts as zero.
func TotalInletMass(u *Unit, item ReportItem) (m float64, ok bool) {
	if u == nil || item.IsRange {
		return 0, false
	}
	main, ok := Mass(u.InletFlow, u.Concentrations[item.Name].Inlet)
	if !ok {
		return 0, false
	}
	masses := []float64{main}
	for _, in := range u.AdditionalInlets {
		if mi, ok := Mass(in.Flow, Num(in.Concentrations[item.Name])); ok {
			masses = append(masses, mi)
		}
	}
	return round(floats.Sum(masses)), true
}

// InletMass returns the mass loading of the named parameter in the main
// inlet of u. ok is false if u has no state for the parameter or the
// parameter is a band.
func InletMass(u *Unit, name string) (m float64, ok bool) {
	if u == nil {
		return 0, false
	}
	c, present := u.Concentrations[name]
	if !present {
		return 0, false
	}
	return Mass(u.InletFlow, c.Inlet)
}

// OutletMass returns the mass loading of the named parameter leaving u,
// computed from the total inlet flow and the outlet concentration.
// ok is false if u has no state for the parameter or the parameter
// is a band.
func OutletMass(u *Unit, name string) (m float64, ok bool) {
	if u == nil {
		return 0, false
	}
	c, present := u.Concentrations[name]
	if !present {
		return 0, false
	}
	return Mass(TotalInletFlow(u), c.Outlet)
}
