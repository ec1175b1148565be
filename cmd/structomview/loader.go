package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/internal/valuejson"
	"github.com/ravelin-dev/structom/internal/valuetext"
	"github.com/ravelin-dev/structom/internal/wire"
	"github.com/ravelin-dev/structom/pkg/provider"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// loadValue reads path as a Structom value, resolving its schema against
// declPath/typeName when given, or decoding it dynamically as `any`
// otherwise. format overrides the extension-based guess.
func loadValue(path, declPath, typeName, format string) (stomtypes.Value, stomtypes.TypeId, stomtypes.Provider, error) {
	if format == "" {
		var err error
		format, err = formatFromExt(path)
		if err != nil {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, err
		}
	}

	var prov stomtypes.Provider = provider.NewMemProvider(declparse.ParseOptions{Metadata: true})
	target := stomtypes.Any
	var ctx *declparse.DeclContext

	if declPath != "" {
		if typeName == "" {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, fmt.Errorf("--type is required when --decl is set")
		}
		dir := filepath.Dir(declPath)
		name := filepath.Base(declPath)
		fp := provider.NewFSProvider(dir, declparse.ParseOptions{Metadata: true})
		file, declCtx, ierr := fp.LoadWithContext(name)
		if ierr != nil {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, ierr
		}
		item, ok := file.ItemByName(typeName)
		if !ok {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, fmt.Errorf("type %q not found in %s", typeName, declPath)
		}
		prov = fp
		ctx = declCtx
		target = file.TypeIDOf(item.TypeID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return stomtypes.Value{}, stomtypes.TypeId{}, nil, err
	}

	switch format {
	case "obj":
		v, err := valuetext.Parse(ctx, prov, target, path, string(data), valuetext.ParseOptions{Metadata: true, Enums: true})
		return v, target, prov, err
	case "bin":
		_, rootType, v, err := wire.DecodeRoot(data, prov)
		if err != nil {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, err
		}
		if rootType != nil {
			target = *rootType
		}
		return v, target, prov, nil
	case "json":
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return stomtypes.Value{}, stomtypes.TypeId{}, nil, err
		}
		v, err := valuejson.FromJSON(raw, target, prov)
		return v, target, prov, err
	default:
		return stomtypes.Value{}, stomtypes.TypeId{}, nil, fmt.Errorf("unknown format %q", format)
	}
}

func formatFromExt(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".structobj":
		return "obj", nil
	case ".bin":
		return "bin", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("cannot infer format from %q, pass --format", path)
	}
}
