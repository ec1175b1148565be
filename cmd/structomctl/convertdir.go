package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	convertDirDecl   string
	convertDirType   string
	convertDirTo     string
	convertDirSuffix string
)

func init() {
	cmd := newConvertDirCmd()
	cmd.Flags().StringVar(&convertDirDecl, "decl", "", "Declaration file every value conforms to (omit for dynamic `any` conversion)")
	cmd.Flags().StringVar(&convertDirType, "type", "", "Root type name within --decl")
	cmd.Flags().StringVar(&convertDirTo, "to", "", "Output format: obj, bin, json")
	cmd.Flags().StringVar(&convertDirSuffix, "suffix", "", "Input extension to convert (default: .obj and .bin)")
	rootCmd.AddCommand(cmd)
}

func newConvertDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert-dir <dir>",
		Short: "Convert every obj/bin value file under a directory tree to --to, in place",
		Long: `convert-dir walks dir recursively and converts every .obj/.bin file it
finds (or every file matching --suffix) to the format named by --to,
writing siblings with the new extension. A schema (--decl/--type) applies
to every file in the run.

Example:
  structomctl convert-dir ./values --decl schema.structom --type Point --to bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvertDir(args[0])
		},
	}
}

func runConvertDir(root string) error {
	if convertDirTo == "" {
		return fmt.Errorf("--to is required")
	}
	suffixes := []string{".obj", ".bin"}
	if convertDirSuffix != "" {
		suffixes = []string{convertDirSuffix}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, s := range suffixes {
			if ext == s {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(files) == 0 {
		printInfo("no matching files under %s\n", root)
		return nil
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.Default(int64(len(files)), "converting")
	}

	convertType = convertDirType
	convertDecl = convertDirDecl
	convertFormat = convertDirTo

	var failures []string
	for _, path := range files {
		outPath := strings.TrimSuffix(path, filepath.Ext(path)) + "." + convertDirTo
		if _, _, err := convertFile(path, outPath); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if jsonOut {
		return printJSON(map[string]any{
			"converted": len(files) - len(failures),
			"failed":    failures,
		})
	}
	if len(failures) > 0 {
		for _, f := range failures {
			printInfo("FAILED %s\n", f)
		}
		return fmt.Errorf("%d of %d files failed to convert", len(failures), len(files))
	}
	printInfo("converted %d files\n", len(files))
	return nil
}
