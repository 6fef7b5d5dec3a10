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


// Package jetwaterutil contains the JetWater command-line interface.
package jetwaterutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by all commands.
var Log *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to JetWater.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "store",
			usage: `
              store is the location where projects are kept, in the form
              'provider://name'. Providers are "file" for a local directory,
              "mem" for an in-memory store that lasts as long as the program,
              "s3" for AWS S3 and "gs" for Google Cloud Storage. It can
              include environment variables.`,
			defaultVal: "file://${HOME}/.jetwater",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "catalog",
			usage: `
              catalog is the path to a TOML or XLSX file holding the
              water-quality parameters, unit types, inlet types and business
              sectors. If it is left blank, the built-in catalog is used.
              It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "project",
			usage: `
              project is the ID of the project to work on. If it is left
              blank, the active project is used.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "recompute",
			usage: `
              recompute specifies whether the concentrations along a line
              should be recalculated from the top of the line after every
              change. If false, rate and concentration edits only change the
              unit they are applied to until 'line recompute' is run.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the level of log messages that are printed.
              Acceptable values are 'debug', 'info', 'warn' and 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "sector",
			usage: `
              sector is the business sector of a new project. It sets the
              items the project must report.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{projectNewCmd.Flags()},
		},
		{
			name: "DesignFlow",
			usage: `
              DesignFlow is the default design flow of new lines in a new
              project, in m³/day.`,
			defaultVal: jetwater.DefaultDesignFlow,
			flagsets:   []*pflag.FlagSet{projectNewCmd.Flags()},
		},
		{
			name: "unit",
			usage: `
              unit is the unit of measure of a custom report item.`,
			defaultVal: "mg/L",
			flagsets:   []*pflag.FlagSet{itemAddCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("JETWATER")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	Log = logrus.New()
	Log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(catalogCmd)

	Root.AddCommand(projectCmd)
	projectCmd.AddCommand(projectNewCmd, projectListCmd, projectUseCmd,
		projectShowCmd, projectDeleteCmd, projectMigrateCmd, projectClearCmd,
		projectExportCmd, projectImportCmd, projectSectorCmd, projectFlowCmd)

	Root.AddCommand(itemCmd)
	itemCmd.AddCommand(itemListCmd, itemAddCmd, itemEnableCmd, itemDisableCmd, itemSetCmd)

	Root.AddCommand(lineCmd)
	lineCmd.AddCommand(lineAddCmd, lineRemoveCmd, lineRenameCmd, lineFlowCmd,
		lineRecomputeCmd, lineShowCmd)

	Root.AddCommand(unitCmd)
	unitCmd.AddCommand(unitAddCmd, unitRemoveCmd, unitMoveCmd, unitFlowCmd,
		unitInheritCmd, unitRateCmd, unitConcCmd, unitRenameCmd, unitFlowIDCmd)

	Root.AddCommand(inletCmd)
	inletCmd.AddCommand(inletAddCmd, inletRemoveCmd, inletFlowCmd, inletConcCmd,
		inletRenameCmd, inletFlowIDCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("jetwater: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("jetwater: invalid LogLevel: %v", err)
	}
	Log.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "jetwater",
	Short: "A mass-balance calculator for wastewater treatment lines.",
	Long: `JetWater calculates how pollutant concentrations and mass loadings
change along chains of wastewater treatment units. Use the subcommands
specified below to manage projects, their report items, and the treatment
lines, units and auxiliary inlets within them.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'JETWATER_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of JetWater.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "JetWater v%s\n", jetwater.Version)
	},
	DisableAutoGenTag: true,
}

// commandContext returns the context of cmd, or a background context if
// the command was not started with one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
