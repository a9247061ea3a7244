// Package cmd provides the CLI commands for Driver Helper.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// annotationNoStore marks commands that never touch the local database.
const annotationNoStore = "no-store"

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "driverhelper",
	Short: "Offline-first companion for drivers",
	Long: `Driver Helper keeps earnings, reminders, notes, health logs, community
posts and SOS alerts on this device and syncs them to the cloud whenever a
connection is available.

Examples:
  driverhelper earn add 850 --category ride
  driverhelper earn add 200 --expense --category fuel
  driverhelper remind add "Renew permit" --at "friday 10am"
  driverhelper today
  driverhelper sync status`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		if flagDebug {
			logging.InitDebug()
		}

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return errors.NewUserError(err.Error(), "Check the config file or run 'driverhelper config env'")
		}

		var format output.Format
		switch flagFormat {
		case "json":
			format = output.FormatJSON
		case "plain":
			format = output.FormatPlain
		default:
			format = output.FormatCLI
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}

		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		opts.Config = cfg
		opts.SkipStore = skipsStore(cmd)

		ctx, err = runtime.New(cmd.Context(), opts)
		if err != nil {
			return err
		}
		ctx.Formatter.Writer = cmd.OutOrStdout()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			err := ctx.Close()
			ctx = nil
			return err
		}
		return nil
	},
	RunE: runToday,
}

// skipsStore walks up from cmd looking for the no-store annotation.
func skipsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoStore] == "true" {
			return true
		}
	}
	return false
}

// noStore is the annotation set for commands that skip the database.
func noStore() map[string]string {
	return map[string]string{annotationNoStore: "true"}
}

// Execute runs the root command and prints any error it returns.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		printError(rootCmd, err)
	}
	// PersistentPostRunE does not run after a failed RunE.
	if ctx != nil {
		ctx.Close()
		ctx = nil
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/driverhelper/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: noStore(),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("driverhelper %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}

// printError writes err to stderr, or to stdout as JSON when --format json is set.
func printError(cmd *cobra.Command, err error) {
	if flagFormat == string(output.FormatJSON) {
		f := output.NewFormatter()
		f.Writer = cmd.OutOrStdout()
		output.NewJSONFormatter(f).PrintError(err.Error(), errors.Classify(err).String(), errors.GetSuggestion(err))
		return
	}
	if flagDebug {
		fmt.Fprintln(cmd.ErrOrStderr(), errors.FormatDebugError(err))
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error: "+errors.FormatByCategory(err))
}
