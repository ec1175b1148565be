package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetGlobalFlags() {
	quiet = false
	verbose = false
	jsonOut = false
	noColor = true
	metaOn = true
	enumsOn = true
	convertDecl = ""
	convertType = ""
	convertFormat = ""
}

func TestConvertObjToBinToJSON(t *testing.T) {
	resetGlobalFlags()
	dir := t.TempDir()
	declPath := filepath.Join(dir, "point.structom")
	require.NoError(t, os.WriteFile(declPath, []byte(`
struct Point {
    x: i32,
    y: i32,
    label: str?,
}
`), 0o644))

	objPath := filepath.Join(dir, "value.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(`{x: +3, y: -2}`), 0o644))

	binPath := filepath.Join(dir, "value.bin")
	convertDecl = declPath
	convertType = "Point"
	require.NoError(t, runConvert(objPath, binPath))

	jsonPath := filepath.Join(dir, "value.json")
	require.NoError(t, runConvert(binPath, jsonPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"x": 3`)
	require.Contains(t, string(data), `"y": -2`)
}

func TestConvertRoundTripBackToObj(t *testing.T) {
	resetGlobalFlags()
	dir := t.TempDir()
	declPath := filepath.Join(dir, "point.structom")
	require.NoError(t, os.WriteFile(declPath, []byte(`
struct Point {
    x: i32,
    y: i32,
}
`), 0o644))

	objPath := filepath.Join(dir, "value.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(`{x: +7, y: +1}`), 0o644))

	binPath := filepath.Join(dir, "value.bin")
	objOutPath := filepath.Join(dir, "roundtrip.obj")

	convertDecl = declPath
	convertType = "Point"
	require.NoError(t, runConvert(objPath, binPath))
	require.NoError(t, runConvert(binPath, objOutPath))

	data, err := os.ReadFile(objOutPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "x: +7")
	require.Contains(t, string(data), "y: +1")
}

func TestConvertDynamicJSONToObj(t *testing.T) {
	resetGlobalFlags()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "value.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"a": 1, "b": "x"}`), 0o644))

	objPath := filepath.Join(dir, "value.obj")
	require.NoError(t, runConvert(jsonPath, objPath))

	data, err := os.ReadFile(objPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "a")
	require.Contains(t, string(data), "b")
}

func TestFormatForInfersFromExtension(t *testing.T) {
	f, err := formatFor("x.obj", "")
	require.NoError(t, err)
	require.Equal(t, "obj", f)

	f, err = formatFor("x.bin", "")
	require.NoError(t, err)
	require.Equal(t, "bin", f)

	_, err = formatFor("x.weird", "")
	require.Error(t, err)

	f, err = formatFor("x.weird", "json")
	require.NoError(t, err)
	require.Equal(t, "json", f)
}
