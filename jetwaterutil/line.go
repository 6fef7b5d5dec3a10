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


package jetwaterutil

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var lineCmd = &cobra.Command{
	Use:   "line",
	Short: "Manage treatment lines",
	Long: `line adds, changes and shows the treatment lines of the project. Lines
can be referred to by ID or by name (e.g. "Line A").`,
	DisableAutoGenTag: true,
}

var lineAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a line",
	Long:  "add adds an empty line that starts with the project design flow.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var added *jetwater.Line
		err := editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			p = p.AddLine()
			added = p.Lines[len(p.Lines)-1]
			return p, nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", added.Name, added.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var lineRemoveCmd = &cobra.Command{
	Use:   "remove line",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			l, err := findLine(p, args[0])
			if err != nil {
				return nil, err
			}
			return p.RemoveLine(l.ID), nil
		})
	},
	DisableAutoGenTag: true,
}

var lineRenameCmd = &cobra.Command{
	Use:   "rename line name",
	Short: "Rename a line",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editLine(cmd, args[0], func(_ *jetwater.Project, l *jetwater.Line) (*jetwater.Line, error) {
			return jetwater.RenameLine(l, strings.Join(args[1:], " ")), nil
		})
	},
	DisableAutoGenTag: true,
}

var lineFlowCmd = &cobra.Command{
	Use:   "flow line m3/day",
	Short: "Set the design flow of a line",
	Long: `flow sets the design flow of a line. Units that inherit the design
flow take the new value; other units keep their own flows.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := parseFlow(args[1])
		if err != nil {
			return err
		}
		return editLine(cmd, args[0], func(_ *jetwater.Project, l *jetwater.Line) (*jetwater.Line, error) {
			return jetwater.UpdateLineFlow(l, flow), nil
		})
	},
	DisableAutoGenTag: true,
}

var lineRecomputeCmd = &cobra.Command{
	Use:   "recompute line",
	Short: "Recalculate the concentrations along a line",
	Long: `recompute recalculates the concentrations of every unit in a line
from the influent concentrations at the top of the line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			l, err := findLine(p, args[0])
			if err != nil {
				return nil, err
			}
			return p.UpdateLine(l.ID, func(l *jetwater.Line) *jetwater.Line {
				return jetwater.RecomputeLine(l, p.ReportItems)
			}), nil
		})
	},
	DisableAutoGenTag: true,
}

var lineShowCmd = &cobra.Command{
	Use:   "show line",
	Short: "Print the mass balance of a line",
	Long: `show prints, for each unit of a line and each enabled report item, the
total inlet flow, the inlet and outlet concentrations, the removal rate and
the inlet and outlet mass loadings in kg/day. Loadings that do not apply
are shown as "` + jetwater.NotApplicable + `".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		p, err := loadProject(ctx, s)
		if err != nil {
			return err
		}
		l, err := findLine(p, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (design flow %g m³/day)\n", l.Name, l.DesignFlow)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FLOW ID\tUNIT\tITEM\tFLOW (m³/day)\tINLET\tOUTLET\tREMOVAL (%)\tINLET MASS (kg/day)\tOUTLET MASS (kg/day)")
		for _, r := range jetwater.Summarize(l, p.ReportItems) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%g\t%s\t%s\n",
				r.FlowID, r.Unit, r.Parameter, r.TotalInletFlow, r.Inlet, r.Outlet, r.RemovalRate,
				jetwater.FormatMass(r.InletMass, r.InletMassOK),
				jetwater.FormatMass(r.OutletMass, r.OutletMassOK))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, u := range l.Units {
			for _, in := range u.AdditionalInlets {
				fmt.Fprintf(out, "%s → %s: %s, %g m³/day\n", in.FlowID, u.FlowID, in.Name, in.Flow)
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// parseFlow parses a flow in m³/day.
func parseFlow(s string) (float64, error) {
	flow, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, fmt.Errorf("jetwater: invalid flow: %v", err)
	}
	if flow < 0 {
		return 0, fmt.Errorf("jetwater: invalid flow %g: flows cannot be negative", flow)
	}
	return flow, nil
}

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Manage treatment units",
	Long: `unit adds, moves and changes the treatment units of a line. Units can
be referred to by ID, by flow ID (e.g. "T2") or by name.`,
	DisableAutoGenTag: true,
}

// unitEditor changes one unit of a line.
type unitEditor func(p *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error)

// editUnit applies fn to the unit named by unitRef in the line named by
// lineRef.
func editUnit(cmd *cobra.Command, lineRef, unitRef string, fn unitEditor) error {
	return editLine(cmd, lineRef, func(p *jetwater.Project, l *jetwater.Line) (*jetwater.Line, error) {
		u, err := findUnit(l, unitRef)
		if err != nil {
			return nil, err
		}
		return fn(p, l, u)
	})
}

var unitAddCmd = &cobra.Command{
	Use:   "add line type",
	Short: "Add a unit to the end of a line",
	Long: `add adds a treatment unit of the given type to the end of a line. The
unit starts with the removal rates of its type in the catalog and inherits
the design flow of the line.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(commandContext(cmd))
		if err != nil {
			return err
		}
		unitType := strings.Join(args[1:], " ")
		if _, ok := cat.UnitTypes[unitType]; !ok {
			return fmt.Errorf("jetwater: unknown unit type %q", unitType)
		}
		var added *jetwater.Unit
		err = editLine(cmd, args[0], func(p *jetwater.Project, l *jetwater.Line) (*jetwater.Line, error) {
			l = jetwater.AddUnit(l, unitType, cat, p.ReportItems)
			added = l.Units[len(l.Units)-1]
			return l, nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", added.FlowID, added.Name, added.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var unitRemoveCmd = &cobra.Command{
	Use:   "remove line unit",
	Short: "Remove a unit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.RemoveUnit(l, u.ID), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitMoveCmd = &cobra.Command{
	Use:   "move line unit position",
	Short: "Move a unit within a line",
	Long: `move moves a unit to the given position in the line, counting from 1.
The flow IDs of all units are renumbered to match their new positions.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := cast.ToIntE(args[2])
		if err != nil {
			return fmt.Errorf("jetwater: invalid position: %v", err)
		}
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			if pos < 1 || pos > len(l.Units) {
				return nil, fmt.Errorf("jetwater: position %d is outside of %s, which has %d units", pos, l.Name, len(l.Units))
			}
			from := 0
			for i, uu := range l.Units {
				if uu == u {
					from = i
				}
			}
			return jetwater.ReorderUnit(l, from, pos-1), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitFlowCmd = &cobra.Command{
	Use:   "flow line unit inlet|outlet m3/day",
	Short: "Set the inlet or outlet flow of a unit",
	Long: `flow sets the main inlet flow or the outlet flow of a unit. The unit
stops inheriting the design flow of the line.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var field jetwater.FlowField
		switch args[2] {
		case "inlet", string(jetwater.FieldInletFlow):
			field = jetwater.FieldInletFlow
		case "outlet", string(jetwater.FieldOutletFlow):
			field = jetwater.FieldOutletFlow
		default:
			return fmt.Errorf("jetwater: unknown flow %q; use 'inlet' or 'outlet'", args[2])
		}
		flow, err := parseFlow(args[3])
		if err != nil {
			return err
		}
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.UpdateUnitFlow(l, u.ID, field, flow), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitInheritCmd = &cobra.Command{
	Use:   "inherit line unit",
	Short: "Toggle design flow inheritance",
	Long: `inherit switches whether a unit takes its flows from the design flow
of the line. When switched on, the unit's flows are reset to the design flow.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.ToggleFlowInheritance(l, u.ID), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitRateCmd = &cobra.Command{
	Use:   "rate line unit item percent",
	Short: "Set the removal rate of a unit",
	Long: `rate sets the removal rate of a unit for one report item, in percent.
Rates are limited to the range 0-100. With --recompute=false only the
outlet of this unit changes.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := cast.ToFloat64E(args[3])
		if err != nil {
			return fmt.Errorf("jetwater: invalid removal rate: %v", err)
		}
		return editUnit(cmd, args[0], args[1], func(p *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.UpdateRemovalRate(l, u.ID, args[2], rate, p.ReportItems), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitConcCmd = &cobra.Command{
	Use:   "conc line unit item concentration",
	Short: "Set the inlet concentration of a unit",
	Long: `conc overrides the inlet concentration of a unit for one report item
and recalculates its outlet. With --recompute=true (the default) the
override only lasts until the line is recalculated from the top, so it is
mostly useful together with --recompute=false.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := jetwater.ParseValue(args[3])
		return editUnit(cmd, args[0], args[1], func(p *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			for _, item := range p.ReportItems {
				if item.Name == args[2] && c.IsNumeric() == item.IsRange {
					return nil, fmt.Errorf("jetwater: report item %q: concentration %q has the wrong kind", item.Name, c)
				}
			}
			return jetwater.UpdateInletConcentration(l, u.ID, args[2], c, p.ReportItems), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitRenameCmd = &cobra.Command{
	Use:   "rename line unit name",
	Short: "Rename a unit",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.RenameUnit(l, u.ID, strings.Join(args[2:], " ")), nil
		})
	},
	DisableAutoGenTag: true,
}

var unitFlowIDCmd = &cobra.Command{
	Use:   "flowid line unit flowId|inletFlowId|outletFlowId id",
	Short: "Set a display flow ID of a unit",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := jetwater.FlowIDField(args[2])
		switch field {
		case jetwater.FieldFlowID, jetwater.FieldInletFlowID, jetwater.FieldOutletFlowID:
		default:
			return fmt.Errorf("jetwater: unknown flow ID field %q", args[2])
		}
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			return jetwater.UpdateFlowID(l, u.ID, field, args[3]), nil
		})
	},
	DisableAutoGenTag: true,
}

var inletCmd = &cobra.Command{
	Use:   "inlet",
	Short: "Manage auxiliary inlets",
	Long: `inlet adds and changes the auxiliary streams (return sludge, chemical
doses, supernatant, ...) that merge into a unit's main inlet. Inlets can be
referred to by ID, by flow ID (e.g. "WTB-RAS1") or by name.`,
	DisableAutoGenTag: true,
}

// editInlet applies edits to the inlet named by inletRef of the unit
// named by unitRef in the line named by lineRef.
func editInlet(cmd *cobra.Command, lineRef, unitRef, inletRef string, edits ...jetwater.InletEdit) error {
	return editUnit(cmd, lineRef, unitRef, func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
		in, err := findInlet(u, inletRef)
		if err != nil {
			return nil, err
		}
		return jetwater.UpdateInlet(l, u.ID, in.ID, edits...), nil
	})
}

var inletAddCmd = &cobra.Command{
	Use:   "add line unit type",
	Short: "Add an auxiliary inlet to a unit",
	Long: `add adds an auxiliary inlet of the given type to a unit. The inlet
starts with the default flow of its type and zero concentrations.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(commandContext(cmd))
		if err != nil {
			return err
		}
		inletType := strings.Join(args[2:], " ")
		if _, ok := cat.InletTypes[inletType]; !ok {
			return fmt.Errorf("jetwater: unknown inlet type %q", inletType)
		}
		var added *jetwater.Inlet
		err = editUnit(cmd, args[0], args[1], func(p *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			l = jetwater.AddInlet(l, u.ID, inletType, cat, p.ReportItems)
			added = l.Unit(u.ID).AdditionalInlets[0]
			return l, nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", added.FlowID, added.Name, added.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var inletRemoveCmd = &cobra.Command{
	Use:   "remove line unit inlet",
	Short: "Remove an auxiliary inlet",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editUnit(cmd, args[0], args[1], func(_ *jetwater.Project, l *jetwater.Line, u *jetwater.Unit) (*jetwater.Line, error) {
			in, err := findInlet(u, args[2])
			if err != nil {
				return nil, err
			}
			return jetwater.RemoveInlet(l, u.ID, in.ID), nil
		})
	},
	DisableAutoGenTag: true,
}

var inletFlowCmd = &cobra.Command{
	Use:   "flow line unit inlet m3/day",
	Short: "Set the flow of an auxiliary inlet",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := parseFlow(args[3])
		if err != nil {
			return err
		}
		return editInlet(cmd, args[0], args[1], args[2], jetwater.SetInletFlow(flow))
	},
	DisableAutoGenTag: true,
}

var inletConcCmd = &cobra.Command{
	Use:   "conc line unit inlet item concentration",
	Short: "Set a concentration of an auxiliary inlet",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cast.ToFloat64E(args[4])
		if err != nil {
			return fmt.Errorf("jetwater: invalid concentration: %v", err)
		}
		return editInlet(cmd, args[0], args[1], args[2], jetwater.SetInletConcentration(args[3], c))
	},
	DisableAutoGenTag: true,
}

var inletRenameCmd = &cobra.Command{
	Use:   "rename line unit inlet name",
	Short: "Rename an auxiliary inlet",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editInlet(cmd, args[0], args[1], args[2], jetwater.SetInletName(strings.Join(args[3:], " ")))
	},
	DisableAutoGenTag: true,
}

var inletFlowIDCmd = &cobra.Command{
	Use:   "flowid line unit inlet id",
	Short: "Set the display flow ID of an auxiliary inlet",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editInlet(cmd, args[0], args[1], args[2], jetwater.SetInletFlowID(args[3]))
	},
	DisableAutoGenTag: true,
}
