package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/internal/valuejson"
	"github.com/ravelin-dev/structom/internal/valuetext"
	"github.com/ravelin-dev/structom/internal/wire"
	"github.com/ravelin-dev/structom/pkg/provider"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

var (
	convertDecl   string
	convertType   string
	convertFormat string
)

func init() {
	cmd := newConvertCmd()
	cmd.Flags().StringVar(&convertDecl, "decl", "", "Declaration file the value conforms to (omit for dynamic `any` conversion)")
	cmd.Flags().StringVar(&convertType, "type", "", "Root type name within --decl (required when --decl is set)")
	cmd.Flags().StringVar(&convertFormat, "to", "", "Output format override (obj, bin, json); default inferred from output extension")
	rootCmd.AddCommand(cmd)
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a Structom value between obj, bin, and json formats",
		Long: `convert reads <input> in the format its extension implies (.obj/.structobj,
.bin, .json) and writes <output> in the format its extension implies (or
--to, if given).

Example:
  structomctl convert point.obj point.bin --decl schema.structom --type Point
  structomctl convert point.bin point.json --decl schema.structom --type Point
  structomctl convert dyn.json dyn.obj`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}
}

// formatFor infers obj/bin/json from a path's extension.
func formatFor(path, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".structobj":
		return "obj", nil
	case ".bin":
		return "bin", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("cannot infer format from %q, pass --to", path)
	}
}

// resolvedSchema bundles a loaded declaration file with the provider and
// context valuetext.Parse needs to resolve names against it.
type resolvedSchema struct {
	prov    stomtypes.Provider
	ctx     *declparse.DeclContext
	file    *stomtypes.DeclFile
	typ     stomtypes.TypeId
	declRel string
}

func loadSchema(declPath, typeName string) (*resolvedSchema, error) {
	dir := filepath.Dir(declPath)
	name := filepath.Base(declPath)
	prov := provider.NewFSProvider(dir, declparse.ParseOptions{Metadata: metaOn})
	file, ctx, ierr := prov.LoadWithContext(name)
	if ierr != nil {
		return nil, ierr
	}
	item, ok := file.ItemByName(typeName)
	if !ok {
		return nil, fmt.Errorf("type %q not found in %s", typeName, declPath)
	}
	return &resolvedSchema{
		prov:    prov,
		ctx:     ctx,
		file:    file,
		typ:     file.TypeIDOf(item.TypeID),
		declRel: name,
	}, nil
}

// convertFile does the actual read/convert/write; its only console output
// is the --verbose progress lines, so both the single-file `convert`
// command and the batch `convert-dir` command can share it and do their
// own reporting.
func convertFile(inPath, outPath string) (inFmt, outFmt string, err error) {
	inFmt, err = formatFor(inPath, "")
	if err != nil {
		return "", "", err
	}
	outFmt, err = formatFor(outPath, convertFormat)
	if err != nil {
		return "", "", err
	}

	var schema *resolvedSchema
	target := stomtypes.Any
	var prov stomtypes.Provider = provider.NewMemProvider(declparse.ParseOptions{Metadata: metaOn})
	declPath := ""
	if convertDecl != "" {
		if convertType == "" {
			return "", "", fmt.Errorf("--type is required when --decl is set")
		}
		schema, err = loadSchema(convertDecl, convertType)
		if err != nil {
			return "", "", err
		}
		prov = schema.prov
		target = schema.typ
		declPath = schema.declRel
	}

	printVerbose("reading %s as %s\n", inPath, inFmt)
	v, err := readValue(inPath, inFmt, target, schema, prov)
	if err != nil {
		return inFmt, outFmt, err
	}

	printVerbose("writing %s as %s\n", outPath, outFmt)
	if err := writeValue(outPath, outFmt, v, target, declPath, prov); err != nil {
		return inFmt, outFmt, err
	}
	return inFmt, outFmt, nil
}

func runConvert(inPath, outPath string) error {
	inFmt, outFmt, err := convertFile(inPath, outPath)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{
			"input": inPath, "output": outPath,
			"input_format": inFmt, "output_format": outFmt,
			"success": true,
		})
	}
	printInfo("converted %s -> %s\n", inPath, outPath)
	return nil
}

func readValue(path, format string, target stomtypes.TypeId, schema *resolvedSchema, prov stomtypes.Provider) (stomtypes.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stomtypes.Value{}, err
	}
	switch format {
	case "obj":
		var ctx *declparse.DeclContext
		if schema != nil {
			ctx = schema.ctx
		}
		return valuetext.Parse(ctx, prov, target, path, string(data), valuetext.ParseOptions{Metadata: metaOn, Enums: enumsOn})
	case "bin":
		_, _, v, err := wire.DecodeRoot(data, prov)
		return v, err
	case "json":
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return stomtypes.Value{}, err
		}
		return valuejson.FromJSON(raw, target, prov)
	default:
		return stomtypes.Value{}, fmt.Errorf("unknown format %q", format)
	}
}

func writeValue(path, format string, v stomtypes.Value, target stomtypes.TypeId, declPath string, prov stomtypes.Provider) error {
	switch format {
	case "obj":
		text, err := valuetext.Stringify(v, target, prov, valuetext.ParseOptions{Metadata: metaOn, Enums: enumsOn})
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(text), 0o644)
	case "bin":
		var rootType *stomtypes.TypeId
		if declPath != "" {
			t := target
			rootType = &t
		}
		data, err := wire.EncodeRoot(declPath, rootType, v, prov)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case "json":
		jv, err := valuejson.ToJSON(v)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(jv, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
