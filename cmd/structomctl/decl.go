package main

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/pkg/provider"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

func init() {
	declCmd := &cobra.Command{
		Use:   "decl",
		Short: "Inspect Structom declaration files",
	}
	declCmd.AddCommand(newDeclCheckCmd(), newDeclDumpCmd())
	rootCmd.AddCommand(declCmd)
}

func newDeclCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and resolve a declaration file, printing ok or the error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := parseDeclFile(args[0])
			if err != nil {
				return err
			}
			green := color.New(color.FgGreen).SprintFunc()
			if jsonOut {
				return printJSON(map[string]any{"file": args[0], "valid": true})
			}
			printInfo("%s %s\n", green("ok:"), args[0])
			return nil
		},
	}
}

func newDeclDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the resolved type graph of a declaration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _, err := parseDeclFile(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(dumpFileJSON(file))
			}
			dumpFileText(file)
			return nil
		},
	}
}

func parseDeclFile(path string) (*stomtypes.DeclFile, *declparse.DeclContext, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	prov := provider.NewFSProvider(dir, declparse.ParseOptions{Metadata: metaOn})
	file, ctx, ierr := prov.LoadWithContext(name)
	if ierr != nil {
		return nil, nil, ierr
	}
	return file, ctx, nil
}

func dumpFileText(file *stomtypes.DeclFile) {
	bold := color.New(color.Bold).SprintFunc()
	for _, item := range file.Items() {
		switch item.Kind {
		case stomtypes.ItemStruct:
			printInfo("%s %s (id %d)\n", bold("struct"), item.Name, item.TypeID)
			for _, f := range item.Struct.Fields() {
				opt := ""
				if f.Optional {
					opt = "?"
				}
				printInfo("  %s: %s%s  (tag %d)\n", f.Name, f.Type.String(), opt, f.Tag)
			}
		case stomtypes.ItemEnum:
			printInfo("%s %s (id %d)\n", bold("enum"), item.Name, item.TypeID)
			for _, v := range item.Enum.Variants() {
				if v.IsUnit() {
					printInfo("  %s  (tag %d)\n", v.Name, v.Tag)
					continue
				}
				printInfo("  %s { ... }  (tag %d)\n", v.Name, v.Tag)
			}
		}
	}
}

func dumpFileJSON(file *stomtypes.DeclFile) map[string]any {
	items := make([]map[string]any, 0, len(file.Items()))
	for _, item := range file.Items() {
		entry := map[string]any{"name": item.Name, "id": item.TypeID}
		switch item.Kind {
		case stomtypes.ItemStruct:
			entry["kind"] = "struct"
			fields := make([]map[string]any, 0, item.Struct.Len())
			for _, f := range item.Struct.Fields() {
				fields = append(fields, map[string]any{
					"name": f.Name, "type": f.Type.String(),
					"optional": f.Optional, "tag": f.Tag,
				})
			}
			entry["fields"] = fields
		case stomtypes.ItemEnum:
			entry["kind"] = "enum"
			variants := make([]map[string]any, 0, item.Enum.Len())
			for _, v := range item.Enum.Variants() {
				variants = append(variants, map[string]any{
					"name": v.Name, "tag": v.Tag, "unit": v.IsUnit(),
				})
			}
			entry["variants"] = variants
		}
		items = append(items, entry)
	}
	return map[string]any{"file": file.Name, "items": items}
}
