package stomtypes

import "fmt"

// Builtin is a one-byte wire constant identifying a builtin type (spec §6.4).
// The numbering is authoritative: it is both the declaration-language type
// table and the leading type-tag byte of the dynamic (`any`) binary codec.
type Builtin uint16

const (
	BAny    Builtin = 0x01
	BBool   Builtin = 0x08
	BU8     Builtin = 0x10
	BU16    Builtin = 0x11
	BU32    Builtin = 0x12
	BU64    Builtin = 0x13
	BI8     Builtin = 0x14
	BI16    Builtin = 0x15
	BI32    Builtin = 0x16
	BI64    Builtin = 0x17
	BF32    Builtin = 0x18
	BF64    Builtin = 0x19
	BVUint  Builtin = 0x1c
	BVInt   Builtin = 0x1d
	BBUint  Builtin = 0x1e // reserved, spec §9 Open Question: reject on use
	BBInt   Builtin = 0x1f
	BStr    Builtin = 0x20
	BArr    Builtin = 0x22
	BMap    Builtin = 0x23
	BInst   Builtin = 0x30
	BInstN  Builtin = 0x31
	BDur    Builtin = 0x32
	BUUID   Builtin = 0x33
)

var builtinNames = map[Builtin]string{
	BAny: "any", BBool: "bool",
	BU8: "u8", BU16: "u16", BU32: "u32", BU64: "u64",
	BI8: "i8", BI16: "i16", BI32: "i32", BI64: "i64",
	BF32: "f32", BF64: "f64",
	BVUint: "vuint", BVInt: "vint", BBUint: "buint", BBInt: "bint",
	BStr: "str", BArr: "arr", BMap: "map",
	BInst: "inst", BInstN: "instN", BDur: "dur", BUUID: "uuid",
}

var namesToBuiltin = func() map[string]Builtin {
	m := make(map[string]Builtin, len(builtinNames))
	for b, n := range builtinNames {
		m[n] = b
	}
	return m
}()

func (b Builtin) String() string {
	if n, ok := builtinNames[b]; ok {
		return n
	}
	return fmt.Sprintf("builtin(0x%02x)", uint16(b))
}

// LookupBuiltin resolves a bare identifier to a builtin type, per the
// builtin table of spec §6.4. arr/map/struct/enum are handled separately
// by the declaration parser since they carry extra structure.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := namesToBuiltin[name]
	return b, ok
}

// IsPrimitive reports whether b is legal as a map key type (spec §4.2:
// "the key type must be a primitive (neither arr/map nor user-defined)").
func (b Builtin) IsPrimitive() bool {
	switch b {
	case BArr, BMap, BAny:
		return false
	default:
		return true
	}
}

// MetaPair is one `@name("value")` metadata entry attached to a typeid.
type MetaPair struct {
	Name  string
	Value string
}

// TypeId is the structural handle described in spec §3: a builtin or
// user-defined type, optionally parameterized by an element type (arr/map)
// and/or decorated with ordered metadata.
type TypeId struct {
	NS       uint64 // 0 = builtin; otherwise the owning DeclFile's id
	ID       uint16
	Variant  uint16    // map key type, encoded as its Builtin code
	Item     *TypeId   // arr/map element type
	Metadata []MetaPair
}

// Any is the `any` typeid.
var Any = TypeId{NS: 0, ID: uint16(BAny)}

// BuiltinType returns the TypeId for a zero-arity builtin type.
func BuiltinType(b Builtin) TypeId {
	return TypeId{NS: 0, ID: uint16(b)}
}

// ArrOf builds `arr<item>`.
func ArrOf(item TypeId) TypeId {
	it := item
	return TypeId{NS: 0, ID: uint16(BArr), Item: &it}
}

// MapOf builds `map<key,item>`. key must be a primitive builtin.
func MapOf(key Builtin, item TypeId) TypeId {
	it := item
	return TypeId{NS: 0, ID: uint16(BMap), Variant: uint16(key), Item: &it}
}

// IsAny reports whether t is the `any` type.
func (t TypeId) IsAny() bool { return t.NS == 0 && t.ID == uint16(BAny) }

// IsBuiltin reports whether t names a builtin type (ns == 0).
func (t TypeId) IsBuiltin() bool { return t.NS == 0 }

// AsBuiltin returns the Builtin code for t, valid only when IsBuiltin is true.
func (t TypeId) AsBuiltin() Builtin { return Builtin(t.ID) }

// Equal implements the equality rule of spec §3: `any` compares equal to
// anything, otherwise equality is deep structural equality over
// (ns, id, variant, item, and NOT metadata — metadata is documentation,
// not part of a type's identity).
func (t TypeId) Equal(o TypeId) bool {
	if t.IsAny() || o.IsAny() {
		return true
	}
	if t.NS != o.NS || t.ID != o.ID || t.Variant != o.Variant {
		return false
	}
	if (t.Item == nil) != (o.Item == nil) {
		return false
	}
	if t.Item != nil && !t.Item.Equal(*o.Item) {
		return false
	}
	return true
}

func (t TypeId) String() string {
	base := ""
	if t.IsBuiltin() {
		switch Builtin(t.ID) {
		case BArr:
			item := "any"
			if t.Item != nil {
				item = t.Item.String()
			}
			base = fmt.Sprintf("arr<%s>", item)
		case BMap:
			item := "any"
			if t.Item != nil {
				item = t.Item.String()
			}
			base = fmt.Sprintf("map<%s,%s>", Builtin(t.Variant), item)
		default:
			base = Builtin(t.ID).String()
		}
	} else {
		base = fmt.Sprintf("ns%d.#%d", t.NS, t.ID)
	}
	for _, m := range t.Metadata {
		base = fmt.Sprintf("@%s(%q) %s", m.Name, m.Value, base)
	}
	return base
}
