package valuetext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// testProvider mirrors declparse's in-memory test provider: it parses
// pre-registered declaration source on demand and caches the result.
type testProvider struct {
	src    map[string]string
	byName map[string]*stomtypes.DeclFile
	byNS   map[uint64]*stomtypes.DeclFile
	nextID uint64
}

func newTestProvider() *testProvider {
	return &testProvider{
		src:    make(map[string]string),
		byName: make(map[string]*stomtypes.DeclFile),
		byNS:   make(map[uint64]*stomtypes.DeclFile),
		nextID: 1,
	}
}

func (p *testProvider) Get(ns uint64) *stomtypes.DeclFile { return p.byNS[ns] }

func (p *testProvider) Load(name string) (*stomtypes.DeclFile, *stomtypes.ImportError) {
	if f, ok := p.byName[name]; ok {
		return f, nil
	}
	src, ok := p.src[name]
	if !ok {
		return nil, stomtypes.NewImportNotFound(name)
	}
	return p.parseDecl(name, src)
}

func (p *testProvider) parseDecl(name, src string) (*stomtypes.DeclFile, *stomtypes.ImportError) {
	id := p.nextID
	p.nextID++
	file, _, err := declparse.Parse(p, id, name, src, declparse.ParseOptions{Metadata: true})
	if err != nil {
		pe, ok := err.(*stomtypes.ParseError)
		if !ok {
			return nil, stomtypes.NewImportOtherError(name, err.Error())
		}
		return nil, stomtypes.NewImportParseError(name, pe)
	}
	p.byName[name] = file
	p.byNS[id] = file
	return file, nil
}

// parseSchema parses decl source and returns its DeclFile + DeclContext,
// failing the test on error.
func parseSchema(t *testing.T, prov *testProvider, name, src string) (*stomtypes.DeclFile, *declparse.DeclContext) {
	t.Helper()
	id := prov.nextID
	prov.nextID++
	file, ctx, err := declparse.Parse(prov, id, name, src, declparse.ParseOptions{Metadata: true})
	require.NoError(t, err)
	prov.byName[name] = file
	prov.byNS[id] = file
	return file, ctx
}

func TestParseSimpleStructValue(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "point.structom", `
struct Point {
    x: i32,
    y: i32,
    label: str?,
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `{x: 1, y: -2}`, ParseOptions{})
	require.NoError(t, err)
	x, ok := v.MapGet(stomtypes.KeyStr("x"))
	require.True(t, ok)
	require.Equal(t, int64(1), x.Int)
	y, ok := v.MapGet(stomtypes.KeyStr("y"))
	require.True(t, ok)
	require.Equal(t, int64(-2), y.Int)
	_, hasLabel := v.MapGet(stomtypes.KeyStr("label"))
	require.False(t, hasLabel)
}

func TestParseMissingRequiredFieldFails(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "point.structom", `
struct Point {
    x: i32,
    y: i32,
}
`)
	target := file.TypeIDOf(0)
	_, err := Parse(ctx, prov, target, "v", `{x: 1}`, ParseOptions{})
	require.Error(t, err)
}

func TestParseDuplicateFieldFails(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "point.structom", `
struct Point {
    x: i32,
}
`)
	target := file.TypeIDOf(0)
	_, err := Parse(ctx, prov, target, "v", `{x: 1, x: 2}`, ParseOptions{})
	require.Error(t, err)
}

func TestParseEnumUnitVariantShortcut(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "status.structom", `
enum Status {
    Ok,
    Err { code: i32 },
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `Ok`, ParseOptions{Enums: true})
	require.NoError(t, err)
	require.Equal(t, stomtypes.KStr, v.Kind)
	require.Equal(t, "Ok", v.Str)
}

func TestParseEnumFieldedVariantShortcut(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "status.structom", `
enum Status {
    Ok,
    Err { code: i32, message: str },
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `Err { code: 404, message: "not found" }`, ParseOptions{Enums: true})
	require.NoError(t, err)
	require.Equal(t, stomtypes.KMap, v.Kind)
	nameVal, ok := v.MapGet(stomtypes.KeyStr("$enum_variant"))
	require.True(t, ok)
	require.Equal(t, "Err", nameVal.Str)
	code, ok := v.MapGet(stomtypes.KeyStr("code"))
	require.True(t, ok)
	require.Equal(t, int64(404), code.Int)
}

func TestParseEnumShortcutDisabledWhenOptionOff(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "status.structom", `
enum Status {
    Ok,
}
`)
	target := file.TypeIDOf(0)
	_, err := Parse(ctx, prov, target, "v", `Ok`, ParseOptions{Enums: false})
	require.Error(t, err)
}

func TestParseArrayAndMapLiteral(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "s.structom", `
struct S {
    tags: arr<str>,
    scores: map<str,i32>,
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `{tags: ["a", "b"], scores: {alice: 1, bob: 2}}`, ParseOptions{})
	require.NoError(t, err)
	tags, _ := v.MapGet(stomtypes.KeyStr("tags"))
	require.Len(t, tags.Arr, 2)
	require.Equal(t, "a", tags.Arr[0].Str)
	scores, _ := v.MapGet(stomtypes.KeyStr("scores"))
	require.Len(t, scores.Map, 2)
}

func TestParseDuplicateMapKeyFails(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "s.structom", `
struct S {
    m: map<str,i32>,
}
`)
	target := file.TypeIDOf(0)
	_, err := Parse(ctx, prov, target, "v", `{m: {a: 1, a: 2}}`, ParseOptions{})
	require.Error(t, err)
}

func TestParseUUIDLiteral(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	v, err := Parse(ctx, prov, stomtypes.Any, "v", `uuid "12345678-1234-1234-1234-123456789abc"`, ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, stomtypes.KUUID, v.Kind)
}

func TestParseInstRejectsSubMillisecondPrecision(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	_, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BInst), "v", `inst "2024-01-01T00:00:00.123456789Z"`, ParseOptions{})
	require.Error(t, err)
	v, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BInstN), "v", `instN "2024-01-01T00:00:00.123456789Z"`, ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, 123456789, v.Inst.Nanosecond())
}

func TestParseDurLiteralComposite(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	v, err := Parse(ctx, prov, stomtypes.Any, "v", `dur "1h 30m"`, ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(90*60), int64(v.Dur.Seconds()))
}

func TestParseDurLiteralOutOfRangeComponentFails(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	_, err := Parse(ctx, prov, stomtypes.Any, "v", `dur "1h 90m"`, ParseOptions{})
	require.Error(t, err)
}

func TestParseDurLiteralOutOfOrderComponentsFail(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	_, err := Parse(ctx, prov, stomtypes.Any, "v", `dur "30m 1h"`, ParseOptions{})
	require.Error(t, err)
	_, err = Parse(ctx, prov, stomtypes.Any, "v", `dur "1h 1h"`, ParseOptions{})
	require.Error(t, err)
}

func TestParseBigIntLiteral(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	v, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BBInt), "v", `123456789012345678901234567890bint`, ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", v.BigInt.String())
}

func TestParseFloatNanInf(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	v, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BF64), "v", `nan`, ParseOptions{})
	require.NoError(t, err)
	require.True(t, v.Float != v.Float)

	v, err = Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BF64), "v", `-inf`, ParseOptions{})
	require.NoError(t, err)
	require.True(t, v.Float < 0)
}

func TestParseIntRangeCheckFails(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	_, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BU8), "v", `256`, ParseOptions{})
	require.Error(t, err)
	v, err := Parse(ctx, prov, stomtypes.BuiltinType(stomtypes.BU8), "v", `255`, ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, uint64(255), v.Uint)
}

func TestMetadataWrapping(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "s.structom", `
struct S {
    x: @unit("items") u32,
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `{x: @source("sensor") 5}`, ParseOptions{Metadata: true})
	require.NoError(t, err)
	xWrapped, ok := v.MapGet(stomtypes.KeyStr("x"))
	require.True(t, ok)
	require.Equal(t, stomtypes.KMap, xWrapped.Kind)
	hm, ok := xWrapped.MapGet(stomtypes.KeyStr("$has_meta"))
	require.True(t, ok)
	require.True(t, hm.Bool)
	unit, ok := xWrapped.MapGet(stomtypes.KeyStr("unit"))
	require.True(t, ok)
	require.Equal(t, "items", unit.Str)
	source, ok := xWrapped.MapGet(stomtypes.KeyStr("source"))
	require.True(t, ok)
	require.Equal(t, "sensor", source.Str)
}

func TestStringifySimpleStruct(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "point.structom", `
struct Point {
    x: i32,
    y: u32,
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `{x: -5, y: 10}`, ParseOptions{})
	require.NoError(t, err)
	s, err := Stringify(v, target, prov, ParseOptions{})
	require.NoError(t, err)
	v2, err := Parse(ctx, prov, target, "roundtrip", s, ParseOptions{})
	require.NoError(t, err)
	require.True(t, v.Equal(v2))
}

// TestTextualRoundtrip checks that parse(stringify(v, opts), opts) == v
// when opts.metadata and opts.enums are both enabled.
func TestTextualRoundtrip(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "doc.structom", `
enum Status {
    Active,
    Retired { reason: str },
}
struct Doc {
    name: @label("Name") str,
    tags: arr<str>,
    status: Status,
    when: inst,
    big: bint,
}
`)
	docItem, ok := file.ItemByName("Doc")
	require.True(t, ok)
	target := file.TypeIDOf(docItem.TypeID)
	opts := ParseOptions{Metadata: true, Enums: true}

	src := `{
		name: @source("import") "widget",
		tags: ["a", "b", "c"],
		status: Retired { reason: "obsolete" },
		when: inst "2024-06-01T12:00:00Z",
		big: 999999999999999999999bint,
	}`
	v, err := Parse(ctx, prov, target, "v", src, opts)
	require.NoError(t, err)

	text, err := Stringify(v, target, prov, opts)
	require.NoError(t, err)

	v2, err := Parse(ctx, prov, target, "roundtrip", text, opts)
	require.NoError(t, err)

	require.True(t, v.Equal(v2))
}

func TestStringifyEnumUnitVariant(t *testing.T) {
	prov := newTestProvider()
	file, ctx := parseSchema(t, prov, "status.structom", `
enum Status {
    Ok,
    Err { code: i32 },
}
`)
	target := file.TypeIDOf(0)
	v, err := Parse(ctx, prov, target, "v", `Ok`, ParseOptions{Enums: true})
	require.NoError(t, err)
	s, err := Stringify(v, target, prov, ParseOptions{Enums: true})
	require.NoError(t, err)
	require.Equal(t, "Ok", s)
}

func TestStringifyDynamicMap(t *testing.T) {
	prov := newTestProvider()
	ctx := &declparse.DeclContext{NSImports: map[string]*stomtypes.DeclFile{}}
	v, err := Parse(ctx, prov, stomtypes.Any, "v", `{a: 1, b: "two"}`, ParseOptions{})
	require.NoError(t, err)
	s, err := Stringify(v, stomtypes.Any, prov, ParseOptions{})
	require.NoError(t, err)
	v2, err := Parse(ctx, prov, stomtypes.Any, "roundtrip", s, ParseOptions{})
	require.NoError(t, err)
	require.True(t, v.Equal(v2))
}
