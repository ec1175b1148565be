package declparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// testProvider is a minimal in-memory stomtypes.Provider: Load parses
// pre-registered source text the first time it is requested and caches
// the result, matching the idempotence the declaration parser relies on
// for import resolution.
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

func (p *testProvider) register(name, src string) { p.src[name] = src }

func (p *testProvider) Get(ns uint64) *stomtypes.DeclFile { return p.byNS[ns] }

func (p *testProvider) Load(name string) (*stomtypes.DeclFile, *stomtypes.ImportError) {
	if f, ok := p.byName[name]; ok {
		return f, nil
	}
	src, ok := p.src[name]
	if !ok {
		return nil, stomtypes.NewImportNotFound(name)
	}
	id := p.nextID
	p.nextID++
	file, _, err := Parse(p, id, name, src, ParseOptions{Metadata: true})
	if err != nil {
		if pe, ok := err.(*stomtypes.ParseError); ok {
			return nil, stomtypes.NewImportParseError(name, pe)
		}
		return nil, stomtypes.NewImportOtherError(name, err.Error())
	}
	p.byName[name] = file
	p.byNS[id] = file
	return file, nil
}

func (p *testProvider) parseTop(name, src string) (*stomtypes.DeclFile, *DeclContext, error) {
	id := p.nextID
	p.nextID++
	file, ctx, err := Parse(p, id, name, src, ParseOptions{Metadata: true})
	if err == nil {
		p.byName[name] = file
		p.byNS[id] = file
	}
	return file, ctx, err
}

func TestSimpleStruct(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("point.structom", `
struct Point {
    x: i32,
    y: i32,
    label: str?,
}
`)
	require.NoError(t, err)
	require.Len(t, file.Items(), 1)
	item, ok := file.ItemByName("Point")
	require.True(t, ok)
	require.Equal(t, stomtypes.ItemStruct, item.Kind)
	require.Equal(t, 3, item.Struct.Len())

	x, ok := item.Struct.FieldByName("x")
	require.True(t, ok)
	require.Equal(t, uint32(0), x.Tag)
	require.False(t, x.Optional)

	label, ok := item.Struct.FieldByName("label")
	require.True(t, ok)
	require.Equal(t, uint32(2), label.Tag)
	require.True(t, label.Optional)
}

func TestExplicitTagAdvancesCounter(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("t.structom", `
struct S {
    a: i32,
    [5] b: i32,
    c: i32,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("S")
	a, _ := item.Struct.FieldByName("a")
	b, _ := item.Struct.FieldByName("b")
	c, _ := item.Struct.FieldByName("c")
	require.Equal(t, uint32(0), a.Tag)
	require.Equal(t, uint32(5), b.Tag)
	require.Equal(t, uint32(6), c.Tag)
}

func TestExplicitTagBelowCounterFails(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
    [5] a: i32,
    [3] b: i32,
}
`)
	require.Error(t, err)
}

func TestStructRequiresAtLeastOneField(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
}
`)
	require.Error(t, err)
}

func TestFileRequiresAtLeastOneItem(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", ``)
	require.Error(t, err)
}

func TestEnumWithMixedVariants(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("status.structom", `
enum Status {
    Ok,
    Err { code: i32, message: str },
}
`)
	require.NoError(t, err)
	item, ok := file.ItemByName("Status")
	require.True(t, ok)
	require.Equal(t, stomtypes.ItemEnum, item.Kind)
	okVariant, ok := item.Enum.VariantByName("Ok")
	require.True(t, ok)
	require.True(t, okVariant.IsUnit())
	require.Equal(t, uint32(0), okVariant.Tag)

	errVariant, ok := item.Enum.VariantByName("Err")
	require.True(t, ok)
	require.False(t, errVariant.IsUnit())
	require.Equal(t, uint32(1), errVariant.Tag)
	require.Equal(t, 2, errVariant.Body.Len())
}

func TestArrAndMapTypeId(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("t.structom", `
struct S {
    tags: arr<str>,
    scores: map<str,i32>,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("S")
	tags, _ := item.Struct.FieldByName("tags")
	require.True(t, tags.Type.IsBuiltin())
	require.Equal(t, stomtypes.BArr, tags.Type.AsBuiltin())
	require.NotNil(t, tags.Type.Item)
	require.Equal(t, stomtypes.BStr, tags.Type.Item.AsBuiltin())

	scores, _ := item.Struct.FieldByName("scores")
	require.Equal(t, stomtypes.BMap, scores.Type.AsBuiltin())
	require.Equal(t, stomtypes.BStr, stomtypes.Builtin(scores.Type.Variant))
	require.Equal(t, stomtypes.BI32, scores.Type.Item.AsBuiltin())
}

func TestMapKeyMustBePrimitive(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
    bad: map<arr<str>,i32>,
}
`)
	require.Error(t, err)
}

func TestAnonymousInlineStructAndEnum(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("t.structom", `
struct Outer {
    inner: struct { a: i32 },
    choice: enum { X, Y { z: str } },
}
`)
	require.NoError(t, err)
	require.Len(t, file.Items(), 3)
	outer, _ := file.ItemByName("Outer")
	inner, _ := outer.Struct.FieldByName("inner")
	require.False(t, inner.Type.IsBuiltin())
	item, ok := file.ItemByID(inner.Type.ID)
	require.True(t, ok)
	require.Equal(t, stomtypes.ItemStruct, item.Kind)
	require.Equal(t, 1, item.Struct.Len())

	choice, _ := outer.Struct.FieldByName("choice")
	citem, ok := file.ItemByID(choice.Type.ID)
	require.True(t, ok)
	require.Equal(t, stomtypes.ItemEnum, citem.Kind)
	require.Equal(t, 2, citem.Enum.Len())
}

func TestSelfReferencingStruct(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("list.structom", `
struct Node {
    value: i32,
    next: Node?,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("Node")
	next, _ := item.Struct.FieldByName("next")
	require.False(t, next.Type.IsBuiltin())
	require.Equal(t, item.TypeID, next.Type.ID)
}

func TestPlainImport(t *testing.T) {
	prov := newTestProvider()
	prov.register("common.structom", `
struct Meta {
    version: u32,
}
`)
	file, _, err := prov.parseTop("doc.structom", `
import "common.structom"
struct Doc {
    meta: Meta,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("Doc")
	meta, _ := item.Struct.FieldByName("meta")
	require.False(t, meta.Type.IsBuiltin())
}

func TestNamespacedImport(t *testing.T) {
	prov := newTestProvider()
	prov.register("common.structom", `
struct Meta {
    version: u32,
}
`)
	file, _, err := prov.parseTop("doc.structom", `
import "common.structom" as cm
struct Doc {
    meta: cm.Meta,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("Doc")
	meta, _ := item.Struct.FieldByName("meta")
	require.False(t, meta.Type.IsBuiltin())
}

func TestRelativeImportResolution(t *testing.T) {
	prov := newTestProvider()
	prov.register("shared/common.structom", `
struct Meta {
    version: u32,
}
`)
	_, _, err := prov.parseTop("shared/doc.structom", `
import "./common.structom"
struct Doc {
    meta: Meta,
}
`)
	require.NoError(t, err)
}

func TestReimportIsTypeError(t *testing.T) {
	prov := newTestProvider()
	prov.register("common.structom", `
struct Meta {
    version: u32,
}
`)
	_, _, err := prov.parseTop("doc.structom", `
import "common.structom"
import "common.structom"
struct Doc {
    meta: Meta,
}
`)
	require.Error(t, err)
}

func TestNamespaceCollisionIsTypeError(t *testing.T) {
	prov := newTestProvider()
	prov.register("common.structom", `
struct Meta {
    version: u32,
}
`)
	prov.register("other.structom", `
struct Thing {
    n: u32,
}
`)
	_, _, err := prov.parseTop("doc.structom", `
import "common.structom" as ns1
import "other.structom" as ns1
struct Doc {
    meta: ns1.Meta,
}
`)
	require.Error(t, err)
}

func TestMetadataAccumulatesAndRejectsDuplicates(t *testing.T) {
	prov := newTestProvider()
	file, _, err := prov.parseTop("t.structom", `
struct S {
    x: @name("count") @unit("items") u32,
}
`)
	require.NoError(t, err)
	item, _ := file.ItemByName("S")
	x, _ := item.Struct.FieldByName("x")
	require.Len(t, x.Type.Metadata, 2)
	require.Equal(t, "name", x.Type.Metadata[0].Name)
	require.Equal(t, "count", x.Type.Metadata[0].Value)
}

func TestDuplicateMetadataNameFails(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
    x: @name("a") @name("b") u32,
}
`)
	require.Error(t, err)
}

func TestMetadataDiscardedWhenOptionDisabled(t *testing.T) {
	prov := newTestProvider()
	toks := `
struct S {
    x: @name("count") u32,
}
`
	file, _, err := Parse(prov, 99, "t.structom", toks, ParseOptions{Metadata: false})
	require.NoError(t, err)
	item, _ := file.ItemByName("S")
	x, _ := item.Struct.FieldByName("x")
	require.Empty(t, x.Type.Metadata)
}

func TestDuplicateFieldNameFails(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
    x: u32,
    x: u32,
}
`)
	require.Error(t, err)
}

func TestTrailingCommaAllowed(t *testing.T) {
	prov := newTestProvider()
	_, _, err := prov.parseTop("t.structom", `
struct S {
    x: u32,
    y: u32,
}
`)
	require.NoError(t, err)
}
