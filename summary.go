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

// SummaryRow is the state of one enabled parameter at one unit, in the
// form used by reports and diagrams.
type SummaryRow struct {
	FlowID    string
	Unit      string
	Parameter string
	ParamUnit string

	TotalInletFlow float64 `units:"m³/day"`
	Inlet          Value
	Outlet         Value
	RemovalRate    float64 `units:"percent"`

	// Mass loadings [kg/day]. The OK fields are false when the
	// mass is not applicable.
	InletMass, OutletMass     float64
	InletMassOK, OutletMassOK bool
}

// Summarize returns one row per unit and enabled item of l, in flow
// order. Parameters that a unit has no state for are skipped.
func Summarize(l *Line, items []ReportItem) []SummaryRow {
	if l == nil {
		return nil
	}
	enabled := EnabledItems(items)
	var rows []SummaryRow
	for _, u := range l.Units {
		total := TotalInletFlow(u)
		for _, item := range enabled {
			c, ok := u.Concentrations[item.Name]
			if !ok {
				continue
			}
			r := SummaryRow{
				FlowID:         u.FlowID,
				Unit:           u.Name,
				Parameter:      item.Name,
				ParamUnit:      item.Unit,
				TotalInletFlow: total,
				Inlet:          c.Inlet,
				Outlet:         c.Outlet,
				RemovalRate:    c.RemovalRate,
			}
			r.InletMass, r.InletMassOK = TotalInletMass(u, item)
			r.OutletMass, r.OutletMassOK = OutletMass(u, item.Name)
			if item.IsRange {
				r.OutletMass, r.OutletMassOK = 0, false
			}
			rows = append(rows, r)
		}
	}
	return rows
}
