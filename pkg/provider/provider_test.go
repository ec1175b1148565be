package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

func TestMemProviderLoadCachesResult(t *testing.T) {
	p := NewMemProvider(declparse.ParseOptions{Metadata: true})
	p.Add("point.structom", `
struct Point {
    x: i32,
    y: i32,
}
`)
	f1, err := p.Load("point.structom")
	require.Nil(t, err)
	f2, err := p.Load("point.structom")
	require.Nil(t, err)
	require.Same(t, f1, f2)

	got := p.Get(1)
	require.Same(t, f1, got)
}

func TestMemProviderLoadWithContextResolvesOwnItems(t *testing.T) {
	p := NewMemProvider(declparse.ParseOptions{Metadata: true})
	p.Add("point.structom", `
struct Point {
    x: i32,
    y: i32,
}
`)
	file, ctx, err := p.LoadWithContext("point.structom")
	require.Nil(t, err)
	typ, ok := ctx.Resolve("Point")
	require.True(t, ok)
	require.Equal(t, file.ID, typ.NS)

	again, ctx2, err := p.LoadWithContext("point.structom")
	require.Nil(t, err)
	require.Same(t, file, again)
	require.Same(t, ctx, ctx2)
}

func TestMemProviderUnknownNameIsNotFound(t *testing.T) {
	p := NewMemProvider(declparse.ParseOptions{Metadata: true})
	_, err := p.Load("missing.structom")
	require.NotNil(t, err)
	require.Equal(t, stomtypes.ImportNotFound, err.Kind)
}

func TestMemProviderResolvesImport(t *testing.T) {
	p := NewMemProvider(declparse.ParseOptions{Metadata: true})
	p.Add("common.structom", `
struct Meta {
    version: u32,
}
`)
	p.Add("doc.structom", `
import "common.structom"
struct Doc {
    meta: Meta,
}
`)
	file, err := p.Load("doc.structom")
	require.Nil(t, err)
	item, ok := file.ItemByName("Doc")
	require.True(t, ok)
	field, ok := item.Struct.FieldByName("meta")
	require.True(t, ok)
	require.False(t, field.Type.IsBuiltin())
}

func TestFSProviderLoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "point.structom"), []byte(`
struct Point {
    x: i32,
    y: i32,
}
`), 0o644))

	p := NewFSProvider(dir, declparse.ParseOptions{Metadata: true})
	file, err := p.Load("point.structom")
	require.Nil(t, err)
	_, ok := file.ItemByName("Point")
	require.True(t, ok)

	again, err := p.Load("point.structom")
	require.Nil(t, err)
	require.Same(t, file, again)
}

func TestFSProviderResolvesRelativeImportAcrossSubdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "common.structom"), []byte(`
struct Meta {
    version: u32,
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "doc.structom"), []byte(`
import "./common.structom"
struct Doc {
    meta: Meta,
}
`), 0o644))

	p := NewFSProvider(dir, declparse.ParseOptions{Metadata: true})
	file, err := p.Load("shared/doc.structom")
	require.Nil(t, err)
	item, ok := file.ItemByName("Doc")
	require.True(t, ok)
	field, ok := item.Struct.FieldByName("meta")
	require.True(t, ok)
	require.False(t, field.Type.IsBuiltin())
}

func TestFSProviderMissingFileIsOtherError(t *testing.T) {
	dir := t.TempDir()
	p := NewFSProvider(dir, declparse.ParseOptions{Metadata: true})
	_, err := p.Load("nope.structom")
	require.NotNil(t, err)
	require.Equal(t, stomtypes.ImportOther, err.Kind)
}

func TestFSProviderDecodesWindows1252Source(t *testing.T) {
	dir := t.TempDir()
	// 0x99 is the Windows-1252 encoding of U+2122 (TRADE MARK SIGN), which
	// is not valid UTF-8 on its own: decodeSource must fall back to the
	// legacy charmap rather than rejecting the file.
	src := []byte("struct Doc {\n    name: str, // caf\x99\n}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.structom"), src, 0o644))

	p := NewFSProvider(dir, declparse.ParseOptions{Metadata: true})
	file, err := p.Load("doc.structom")
	require.Nil(t, err)
	_, ok := file.ItemByName("Doc")
	require.True(t, ok)
}

func TestDecodeSourceStripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("struct Doc { x: i32, }")...)
	text, err := decodeSource(data)
	require.NoError(t, err)
	require.Equal(t, "struct Doc { x: i32, }", text)
}

func TestDecodeSourceDecodesUTF16LE(t *testing.T) {
	s := "struct Doc { x: i32, }"
	var data []byte
	data = append(data, 0xFF, 0xFE)
	for _, r := range s {
		data = append(data, byte(r), 0)
	}
	text, err := decodeSource(data)
	require.NoError(t, err)
	require.Equal(t, s, text)
}
