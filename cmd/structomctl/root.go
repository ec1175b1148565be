package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	metaOn     bool
	enumsOn    bool
	configPath string

	cfg = defaultConfig()
)

var rootCmd = &cobra.Command{
	Use:     "structomctl",
	Short:   "Convert and inspect Structom declarations and values",
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if !cmd.Flags().Changed("metadata") {
			metaOn = cfg.Metadata
		}
		if !cmd.Flags().Changed("enums") {
			enumsOn = cfg.Enums
		}
		if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
			color.NoColor = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output result metadata as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored diagnostic output")
	rootCmd.PersistentFlags().BoolVar(&metaOn, "metadata", true, "Enable $has_meta wrapping in obj/textual values")
	rootCmd.PersistentFlags().BoolVar(&enumsOn, "enums", true, "Allow bare identifiers as enum variant shortcuts")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .structom.yaml (default: search ./ then $HOME)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printDiagnostic prints a one-line error the way spec §7's user-visible
// format requires, colorized red when the terminal supports it.
func printDiagnostic(err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %s\n", red("error:"), err.Error())
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
