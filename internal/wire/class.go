package wire

import "github.com/ravelin-dev/structom/pkg/stomtypes"

// Class is the 3-bit mlen_class of a struct field header (spec §4.4.1).
type Class uint8

const (
	Class1      Class = 0b000 // 1 byte: u8, i8, bool
	Class2      Class = 0b001 // 2 bytes: u16, i16
	Class4      Class = 0b010 // 4 bytes: u32, i32, f32
	Class8      Class = 0b011 // 8 bytes: u64, i64, f64, inst
	ClassVarint Class = 0b100 // self-delimited vuint/vint body
	ClassLen    Class = 0b101 // length-prefixed: str, bint, arr, map, user types, any, uuid, instN
)

// ClassFor returns the mlen_class a field of type typ is written with.
func ClassFor(typ stomtypes.TypeId) (Class, error) {
	if typ.IsAny() {
		return ClassLen, nil
	}
	if !typ.IsBuiltin() {
		return ClassLen, nil // user-defined struct/enum
	}
	switch typ.AsBuiltin() {
	case stomtypes.BBool, stomtypes.BU8, stomtypes.BI8:
		return Class1, nil
	case stomtypes.BU16, stomtypes.BI16:
		return Class2, nil
	case stomtypes.BU32, stomtypes.BI32, stomtypes.BF32:
		return Class4, nil
	case stomtypes.BU64, stomtypes.BI64, stomtypes.BF64, stomtypes.BInst:
		return Class8, nil
	case stomtypes.BVUint, stomtypes.BVInt, stomtypes.BDur:
		return ClassVarint, nil
	case stomtypes.BStr, stomtypes.BArr, stomtypes.BMap, stomtypes.BBInt, stomtypes.BUUID, stomtypes.BInstN:
		return ClassLen, nil
	case stomtypes.BBUint:
		return 0, ErrReservedType
	default:
		return 0, decodeErrf("unknown builtin type 0x%02x", uint16(typ.AsBuiltin()))
	}
}

// NeedsFieldWrapper reports whether a struct field of type typ (already
// known to be ClassLen) needs an explicit length prefix written by the
// field encoder, versus self-delimiting via its own body encoding (spec
// §4.4.1: "builtin variable-length types embed their own length inside
// their encoding"). Only called once ClassFor has returned ClassLen.
func NeedsFieldWrapper(typ stomtypes.TypeId) bool {
	if typ.IsAny() {
		return true
	}
	if !typ.IsBuiltin() {
		return true // user-defined struct/enum
	}
	switch typ.AsBuiltin() {
	case stomtypes.BUUID, stomtypes.BInstN:
		return true
	default: // str, bint, arr, map
		return false
	}
}

// header packs (tag, class) into the vuint written before every field.
func header(tag uint32, class Class) uint64 {
	return uint64(tag)<<3 | uint64(class)
}

func splitHeader(h uint64) (tag uint32, class Class) {
	return uint32(h >> 3), Class(h & 0x7)
}
