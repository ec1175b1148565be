package stomtypes

import (
	"math/big"
	"time"
)

// Kind discriminates the tagged union that Value (and the Key subset of
// it) represents.
type Kind int

const (
	KBool Kind = iota
	KInt
	KUint
	KBigInt
	KFloat
	KStr
	KInst
	KDur
	KUUID
	KArr
	KMap
)

func (k Kind) String() string {
	switch k {
	case KBool:
		return "bool"
	case KInt:
		return "int"
	case KUint:
		return "uint"
	case KBigInt:
		return "bigint"
	case KFloat:
		return "float"
	case KStr:
		return "str"
	case KInst:
		return "inst"
	case KDur:
		return "dur"
	case KUUID:
		return "uuid"
	case KArr:
		return "arr"
	case KMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the dynamic, fully self-describing value tree of spec §3.
// Value trees are owned by their root; Arr/Map elements are never shared.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Uint   uint64
	BigInt *big.Int
	Float  float64
	Str    string
	Inst   time.Time     // always UTC
	Dur    time.Duration // signed nanoseconds
	UUID   [16]byte
	Arr    []Value
	Map    []MapEntry // insertion-ordered; duplicate keys rejected at parse time
}

// MapEntry is one key/value pair of a Value of kind KMap.
type MapEntry struct {
	Key   Key
	Value Value
}

// Key is the Value subset legal as a map key (spec §3: "excludes
// Float/Arr/Map"). It shares Value's Kind space for the remaining variants.
type Key struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Uint   uint64
	BigInt *big.Int
	Str    string
	Inst   time.Time
	Dur    time.Duration
	UUID   [16]byte
}

// ToValue widens a Key into the corresponding Value.
func (k Key) ToValue() Value {
	return Value{
		Kind: k.Kind, Bool: k.Bool, Int: k.Int, Uint: k.Uint,
		BigInt: k.BigInt, Str: k.Str, Inst: k.Inst, Dur: k.Dur, UUID: k.UUID,
	}
}

// KeyFromValue narrows v into a Key. v must not be KFloat/KArr/KMap.
func KeyFromValue(v Value) (Key, bool) {
	switch v.Kind {
	case KFloat, KArr, KMap:
		return Key{}, false
	}
	return Key{
		Kind: v.Kind, Bool: v.Bool, Int: v.Int, Uint: v.Uint,
		BigInt: v.BigInt, Str: v.Str, Inst: v.Inst, Dur: v.Dur, UUID: v.UUID,
	}, true
}

// Equal reports structural equality between keys (total ordering for
// equality per spec §3; only equality is required, not an ordering
// relation).
func (k Key) Equal(o Key) bool {
	if k.Kind != o.Kind {
		return false
	}
	switch k.Kind {
	case KBool:
		return k.Bool == o.Bool
	case KInt:
		return k.Int == o.Int
	case KUint:
		return k.Uint == o.Uint
	case KBigInt:
		return bigIntEqual(k.BigInt, o.BigInt)
	case KStr:
		return k.Str == o.Str
	case KInst:
		return k.Inst.Equal(o.Inst)
	case KDur:
		return k.Dur == o.Dur
	case KUUID:
		return k.UUID == o.UUID
	default:
		return false
	}
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

// Equal reports structural equality between values. Per spec §3, NaN
// compares unequal to itself, and map comparison is order-insensitive
// (matched by key) while array comparison is order-sensitive.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KBool:
		return v.Bool == o.Bool
	case KInt:
		return v.Int == o.Int
	case KUint:
		return v.Uint == o.Uint
	case KBigInt:
		return bigIntEqual(v.BigInt, o.BigInt)
	case KFloat:
		if v.Float != v.Float || o.Float != o.Float { // NaN
			return false
		}
		return v.Float == o.Float
	case KStr:
		return v.Str == o.Str
	case KInst:
		return v.Inst.Equal(o.Inst)
	case KDur:
		return v.Dur == o.Dur
	case KUUID:
		return v.UUID == o.UUID
	case KArr:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case KMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for _, e := range v.Map {
			match, found := findMapEntry(o.Map, e.Key)
			if !found || !e.Value.Equal(match) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func findMapEntry(m []MapEntry, k Key) (Value, bool) {
	for _, e := range m {
		if e.Key.Equal(k) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// MapGet looks up the value for key in v (v must be KMap).
func (v Value) MapGet(key Key) (Value, bool) {
	return findMapEntry(v.Map, key)
}

// Constructors for common literal kinds, used by the parser and the codec.

func VBool(b bool) Value   { return Value{Kind: KBool, Bool: b} }
func VInt(i int64) Value   { return Value{Kind: KInt, Int: i} }
func VUint(u uint64) Value { return Value{Kind: KUint, Uint: u} }
func VFloat(f float64) Value { return Value{Kind: KFloat, Float: f} }
func VStr(s string) Value  { return Value{Kind: KStr, Str: s} }
func VBigInt(b *big.Int) Value { return Value{Kind: KBigInt, BigInt: b} }
func VInst(t time.Time) Value { return Value{Kind: KInst, Inst: t.UTC()} }
func VDur(d time.Duration) Value { return Value{Kind: KDur, Dur: d} }
func VUUID(u [16]byte) Value { return Value{Kind: KUUID, UUID: u} }
func VArr(items []Value) Value { return Value{Kind: KArr, Arr: items} }
func VMap(entries []MapEntry) Value { return Value{Kind: KMap, Map: entries} }

func KeyStr(s string) Key { return Key{Kind: KStr, Str: s} }
