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
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/nickleo051216/jetwatersystem/cloud"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

const timeFormat = "2006-01-02 15:04"

var catalogCmd = &cobra.Command{
	Use:   "catalog [sectors|units|inlets|parameters]",
	Short: "List the catalog",
	Long: `catalog lists the business sectors, treatment unit types, auxiliary
inlet types and water-quality parameters in the catalog. If a section is
given, only that section is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(commandContext(cmd))
		if err != nil {
			return err
		}
		section := ""
		if len(args) == 1 {
			section = args[0]
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		listed := false
		if section == "" || section == "sectors" {
			listed = true
			fmt.Fprintln(w, "SECTOR\tID\tITEMS")
			for _, name := range cat.SectorNames() {
				s := cat.Sectors[name]
				fmt.Fprintf(w, "%s\t%d\t%d\n", name, s.ID, len(s.General)+len(s.Specific1)+len(s.Specific2))
			}
			fmt.Fprintln(w)
		}
		if section == "" || section == "units" {
			listed = true
			fmt.Fprintln(w, "UNIT TYPE\tDESCRIPTION\tREMOVAL RATES (%)")
			for _, name := range cat.UnitTypeNames() {
				t := cat.UnitTypes[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, t.Description, formatRates(t.RemovalRates))
			}
			fmt.Fprintln(w)
		}
		if section == "" || section == "inlets" {
			listed = true
			fmt.Fprintln(w, "INLET TYPE\tNAME\tDEFAULT FLOW (m³/day)")
			for _, name := range cat.InletTypeNames() {
				t := cat.InletTypes[name]
				fmt.Fprintf(w, "%s\t%s\t%g\n", name, t.Name, t.DefaultFlow)
			}
			fmt.Fprintln(w)
		}
		if section == "" || section == "parameters" {
			listed = true
			fmt.Fprintln(w, "PARAMETER\tUNIT\tDEFAULT")
			for _, name := range cat.ParameterNames() {
				p := cat.Parameters[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Unit, p.DefaultConcentration)
			}
		}
		if !listed {
			return fmt.Errorf("jetwater: unknown catalog section %q", section)
		}
		return w.Flush()
	},
	DisableAutoGenTag: true,
}

// formatRates lists removal rates in parameter order.
func formatRates(rates map[string]float64) string {
	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)
	s := make([]string, len(names))
	for i, name := range names {
		s[i] = fmt.Sprintf("%s=%g", name, rates[name])
	}
	return strings.Join(s, ", ")
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `project creates, lists, selects and removes projects. A project holds
the facility information, the report items and the treatment lines of one
facility. Most other commands work on the active project, which can be
overridden with the --project flag.`,
	DisableAutoGenTag: true,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [facility name]",
	Short: "Create a project",
	Long: `new creates a project for the named facility and makes it the active
project. If --sector is given, the project's report items are set from the
business sector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		p := jetwater.NewProject(strings.Join(args, " "))
		if sector := Cfg.GetString("sector"); sector != "" {
			cat, err := catalog(ctx)
			if err != nil {
				return err
			}
			if p, err = p.SetBusinessType(cat, sector); err != nil {
				return err
			}
		}
		p, err = p.SetDesignFlow(Cfg.GetFloat64("DesignFlow"))
		if err != nil {
			return err
		}
		if err := s.Save(ctx, p); err != nil {
			return err
		}
		if err := s.SetActive(ctx, p.ID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long:  "list lists the stored projects. The active project is marked with '*'.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		ix, err := s.Index(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tSECTOR\tUPDATED")
		for _, e := range ix.Projects {
			mark := ""
			if e.ID == ix.ActiveProjectID {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, e.ID, e.Name, e.BusinessType, e.UpdatedAt.Local().Format(timeFormat))
		}
		return w.Flush()
	},
	DisableAutoGenTag: true,
}

var projectUseCmd = &cobra.Command{
	Use:   "use id",
	Short: "Choose the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		if err := s.SetActive(ctx, args[0]); err == cloud.ErrNotFound {
			return fmt.Errorf("jetwater: no project %q", args[0])
		} else if err != nil {
			return err
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Describe the project",
	Long:  "show prints the facility information and the lines of the project.",
	Args:  cobra.NoArgs,
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
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID:\t%s\n", p.ID)
		fmt.Fprintf(w, "Facility:\t%s\n", p.FacilityName)
		fmt.Fprintf(w, "Sector:\t%s\n", p.BusinessType)
		fmt.Fprintf(w, "Design flow:\t%g m³/day\n", p.DesignFlow)
		fmt.Fprintf(w, "Report items:\t%d enabled of %d\n", len(jetwater.EnabledItems(p.ReportItems)), len(p.ReportItems))
		fmt.Fprintf(w, "Updated:\t%s\n", p.UpdatedAt.Local().Format(timeFormat))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "LINE\tID\tDESIGN FLOW\tUNITS")
		for _, l := range p.Lines {
			var units []string
			for _, u := range l.Units {
				units = append(units, u.Name)
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", l.Name, l.ID, l.DesignFlow, strings.Join(units, " → "))
		}
		return w.Flush()
	},
	DisableAutoGenTag: true,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete id",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		if err := s.Delete(ctx, args[0]); err == cloud.ErrNotFound {
			return fmt.Errorf("jetwater: no project %q", args[0])
		} else if err != nil {
			return err
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var projectMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import a project saved by an older version",
	Long: `migrate converts the single project kept by older versions of JetWater
into a stored project and makes it the active project. Nothing happens if
the store already holds projects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		p, ok, err := s.MigrateLegacy(ctx, cloud.LegacyKey)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var projectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		return s.ClearAll(ctx)
	},
	DisableAutoGenTag: true,
}

var projectExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the project as JSON",
	Long:  "export writes the project to standard output as JSON.",
	Args:  cobra.NoArgs,
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
		b, err := s.Export(ctx, p.ID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	},
	DisableAutoGenTag: true,
}

var projectImportCmd = &cobra.Command{
	Use:   "import file",
	Short: "Read a project from JSON",
	Long: `import stores a project read from a JSON file written by 'export',
replacing any stored project with the same ID. If file is "-", the project
is read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("jetwater: %v", err)
			}
			defer f.Close()
			r = f
		}
		p, err := s.Import(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.ID)
		return nil
	},
	DisableAutoGenTag: true,
}

var projectSectorCmd = &cobra.Command{
	Use:   "sector name",
	Short: "Set the business sector",
	Long: `sector sets the business sector of the project and replaces its
report items with the items the sector must report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(commandContext(cmd))
		if err != nil {
			return err
		}
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			p, err := p.SetBusinessType(cat, strings.Join(args, " "))
			if err != nil {
				return nil, err
			}
			return recomputeAll(p), nil
		})
	},
	DisableAutoGenTag: true,
}

var projectFlowCmd = &cobra.Command{
	Use:   "flow m3/day",
	Short: "Set the default design flow",
	Long: `flow sets the design flow that new lines start with. Existing lines
keep their own design flows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := cast.ToFloat64E(args[0])
		if err != nil {
			return fmt.Errorf("jetwater: invalid flow: %v", err)
		}
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			return p.SetDesignFlow(flow)
		})
	},
	DisableAutoGenTag: true,
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage report items",
	Long: `item lists and changes the water-quality parameters the project
reports. Only enabled items are calculated along the lines.`,
	DisableAutoGenTag: true,
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List report items",
	Args:  cobra.NoArgs,
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
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tCATEGORY\tFREQUENCY\tINFLUENT\tUNIT\tENABLED")
		for _, item := range p.ReportItems {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", item.Name, item.Category,
				item.Frequency, item.Concentration, item.Unit, item.Enabled)
		}
		return w.Flush()
	},
	DisableAutoGenTag: true,
}

var itemAddCmd = &cobra.Command{
	Use:   "add name concentration",
	Short: "Add a custom report item",
	Long: `add adds an enabled numeric report item that is not required by the
business sector. concentration is the raw influent concentration.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cast.ToFloat64E(args[1])
		if err != nil {
			return fmt.Errorf("jetwater: invalid concentration: %v", err)
		}
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			p, err := p.AddCustomItem(args[0], Cfg.GetString("unit"), c)
			if err != nil {
				return nil, err
			}
			return recomputeAll(p), nil
		})
	},
	DisableAutoGenTag: true,
}

func setItemEnabled(enabled bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			for _, name := range args {
				var err error
				if p, err = p.SetItemEnabled(name, enabled); err != nil {
					return nil, err
				}
			}
			return recomputeAll(p), nil
		})
	}
}

var itemEnableCmd = &cobra.Command{
	Use:               "enable name...",
	Short:             "Enable report items",
	Args:              cobra.MinimumNArgs(1),
	RunE:              setItemEnabled(true),
	DisableAutoGenTag: true,
}

var itemDisableCmd = &cobra.Command{
	Use:               "disable name...",
	Short:             "Disable report items",
	Args:              cobra.MinimumNArgs(1),
	RunE:              setItemEnabled(false),
	DisableAutoGenTag: true,
}

var itemSetCmd = &cobra.Command{
	Use:   "set name concentration",
	Short: "Set the influent concentration of a report item",
	Long: `set sets the raw influent concentration of a report item. Range items
such as pH take a text band (e.g. "6-9"); all other items take a number.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
			p, err := p.SetItemConcentration(args[0], jetwater.ParseValue(args[1]))
			if err != nil {
				return nil, err
			}
			return recomputeAll(p), nil
		})
	},
	DisableAutoGenTag: true,
}
