package wire

import (
	"bytes"
	"fmt"
	"time"

	structbuf "github.com/ravelin-dev/structom/internal/buf"
	"github.com/ravelin-dev/structom/internal/varint"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// EncodeBody writes typ's self-terminating wire encoding of v to buf: no
// struct-field header, no extra length wrapper beyond what the type's own
// body format already carries. This is used for the root coder's payload,
// and recursively for array items and map keys/values (spec §4.4.1,
// §4.4.4: items are never individually skipped, so they never need the
// field-level wrapper — every body format here is self-delimiting or
// fixed-width on its own).
func EncodeBody(buf *bytes.Buffer, typ stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) error {
	if typ.IsAny() {
		return EncodeAny(buf, v, prov)
	}
	if !typ.IsBuiltin() {
		return encodeUserBody(buf, typ, v, prov)
	}
	switch typ.AsBuiltin() {
	case stomtypes.BBool:
		encodeBool(buf, v.Bool)
	case stomtypes.BU8:
		buf.WriteByte(byte(v.Uint))
	case stomtypes.BI8:
		buf.WriteByte(byte(v.Int))
	case stomtypes.BU16:
		encodeU16(buf, uint16(v.Uint))
	case stomtypes.BI16:
		encodeU16(buf, uint16(v.Int))
	case stomtypes.BU32:
		encodeU32(buf, uint32(v.Uint))
	case stomtypes.BI32:
		encodeU32(buf, uint32(v.Int))
	case stomtypes.BF32:
		encodeF32(buf, v.Float)
	case stomtypes.BU64:
		encodeU64(buf, v.Uint)
	case stomtypes.BI64:
		encodeU64(buf, uint64(v.Int))
	case stomtypes.BF64:
		encodeF64(buf, v.Float)
	case stomtypes.BInst:
		encodeInstBody(buf, v.Inst)
	case stomtypes.BInstN:
		encodeInstNBody(buf, v.Inst)
	case stomtypes.BVUint:
		buf.Write(varint.EncodeUint(nil, v.Uint))
	case stomtypes.BVInt:
		buf.Write(varint.EncodeInt(nil, v.Int))
	case stomtypes.BDur:
		buf.Write(varint.EncodeInt(nil, int64(v.Dur)))
	case stomtypes.BStr:
		encodeStrBody(buf, v.Str)
	case stomtypes.BBInt:
		encodeBigIntBody(buf, v.BigInt)
	case stomtypes.BUUID:
		encodeUUIDBody(buf, v.UUID)
	case stomtypes.BArr:
		return encodeArrBody(buf, typ, v, prov)
	case stomtypes.BMap:
		return encodeMapBody(buf, typ, v, prov)
	case stomtypes.BBUint:
		return ErrReservedType
	default:
		return fmt.Errorf("wire: cannot encode builtin 0x%02x", uint16(typ.AsBuiltin()))
	}
	return nil
}

// DecodeBody is EncodeBody's inverse: it reads one typ-shaped value from
// the front of data and returns the value plus the number of bytes
// consumed.
func DecodeBody(data []byte, typ stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	if typ.IsAny() {
		return DecodeAny(data, prov)
	}
	if !typ.IsBuiltin() {
		return decodeUserBody(data, typ, prov)
	}
	switch typ.AsBuiltin() {
	case stomtypes.BBool:
		b, n, err := decodeBool(data)
		return stomtypes.VBool(b), n, err
	case stomtypes.BU8:
		if len(data) < 1 {
			return stomtypes.Value{}, 0, decodeErrf("u8: truncated")
		}
		return stomtypes.VUint(uint64(data[0])), 1, nil
	case stomtypes.BI8:
		if len(data) < 1 {
			return stomtypes.Value{}, 0, decodeErrf("i8: truncated")
		}
		return stomtypes.VInt(int64(int8(data[0]))), 1, nil
	case stomtypes.BU16:
		u, n, err := decodeU16(data)
		return stomtypes.VUint(uint64(u)), n, err
	case stomtypes.BI16:
		u, n, err := decodeU16(data)
		return stomtypes.VInt(int64(int16(u))), n, err
	case stomtypes.BU32:
		u, n, err := decodeU32(data)
		return stomtypes.VUint(uint64(u)), n, err
	case stomtypes.BI32:
		u, n, err := decodeU32(data)
		return stomtypes.VInt(int64(int32(u))), n, err
	case stomtypes.BF32:
		f, n, err := decodeF32(data)
		return stomtypes.VFloat(f), n, err
	case stomtypes.BU64:
		u, n, err := decodeU64(data)
		return stomtypes.VUint(u), n, err
	case stomtypes.BI64:
		u, n, err := decodeU64(data)
		return stomtypes.VInt(int64(u)), n, err
	case stomtypes.BF64:
		f, n, err := decodeF64(data)
		return stomtypes.VFloat(f), n, err
	case stomtypes.BInst:
		t, n, err := decodeInstBody(data)
		return stomtypes.VInst(t), n, err
	case stomtypes.BInstN:
		t, n, err := decodeInstNBody(data)
		return stomtypes.VInst(t), n, err
	case stomtypes.BVUint:
		u, n, err := varint.DecodeUint(data)
		if err != nil {
			return stomtypes.Value{}, 0, decodeErrf("vuint: %v", err)
		}
		return stomtypes.VUint(u), n, nil
	case stomtypes.BVInt:
		i, n, err := varint.DecodeInt(data)
		if err != nil {
			return stomtypes.Value{}, 0, decodeErrf("vint: %v", err)
		}
		return stomtypes.VInt(i), n, nil
	case stomtypes.BDur:
		i, n, err := varint.DecodeInt(data)
		if err != nil {
			return stomtypes.Value{}, 0, decodeErrf("dur: %v", err)
		}
		return stomtypes.VDur(time.Duration(i)), n, nil
	case stomtypes.BStr:
		s, n, err := decodeStrBody(data)
		return stomtypes.VStr(s), n, err
	case stomtypes.BBInt:
		b, n, err := decodeBigIntBody(data)
		return stomtypes.VBigInt(b), n, err
	case stomtypes.BUUID:
		u, n, err := decodeUUIDBody(data)
		return stomtypes.VUUID(u), n, err
	case stomtypes.BArr:
		return decodeArrBody(data, typ, prov)
	case stomtypes.BMap:
		return decodeMapBody(data, typ, prov)
	case stomtypes.BBUint:
		return stomtypes.Value{}, 0, ErrReservedType
	default:
		return stomtypes.Value{}, 0, decodeErrf("unknown builtin 0x%02x", uint16(typ.AsBuiltin()))
	}
}

// encodeArrBody writes arr<T>'s in-field form: a vuint byte-length prefix
// followed by each item's body encoding back to back (spec §4.4.1:
// "Array (in-field form): vuint length-in-bytes prefix").
func encodeArrBody(buf *bytes.Buffer, typ stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) error {
	if v.Kind != stomtypes.KArr {
		return fmt.Errorf("wire: value for %s is not an array", typ)
	}
	itemType := stomtypes.Any
	if typ.Item != nil {
		itemType = *typ.Item
	}
	var items bytes.Buffer
	for i, item := range v.Arr {
		if err := EncodeBody(&items, itemType, item, prov); err != nil {
			return fmt.Errorf("wire: array item %d: %w", i, err)
		}
	}
	buf.Write(varint.EncodeUint(nil, uint64(items.Len())))
	buf.Write(items.Bytes())
	return nil
}

func decodeArrBody(data []byte, typ stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	l, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("arr length: %v", err)
	}
	body, ok := structbuf.Slice(data, n, int(l))
	if !ok {
		return stomtypes.Value{}, 0, decodeErrf("arr: truncated body")
	}
	itemType := stomtypes.Any
	if typ.Item != nil {
		itemType = *typ.Item
	}
	var items []stomtypes.Value
	cursor := 0
	for cursor < len(body) {
		item, consumed, err := DecodeBody(body[cursor:], itemType, prov)
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		items = append(items, item)
		cursor += consumed
	}
	if cursor != len(body) {
		return stomtypes.Value{}, 0, decodeErrf("arr: trailing bytes in item stream")
	}
	return stomtypes.VArr(items), n + int(l), nil
}

// encodeMapBody writes map<K,V>'s in-field form: a vuint byte-length
// prefix followed by (key,value) pairs back to back.
func encodeMapBody(buf *bytes.Buffer, typ stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) error {
	if v.Kind != stomtypes.KMap {
		return fmt.Errorf("wire: value for %s is not a map", typ)
	}
	keyType := stomtypes.BuiltinType(stomtypes.Builtin(typ.Variant))
	valType := stomtypes.Any
	if typ.Item != nil {
		valType = *typ.Item
	}
	var entries bytes.Buffer
	for i, e := range v.Map {
		if err := EncodeBody(&entries, keyType, e.Key.ToValue(), prov); err != nil {
			return fmt.Errorf("wire: map entry %d key: %w", i, err)
		}
		if err := EncodeBody(&entries, valType, e.Value, prov); err != nil {
			return fmt.Errorf("wire: map entry %d value: %w", i, err)
		}
	}
	buf.Write(varint.EncodeUint(nil, uint64(entries.Len())))
	buf.Write(entries.Bytes())
	return nil
}

func decodeMapBody(data []byte, typ stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	l, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("map length: %v", err)
	}
	body, ok := structbuf.Slice(data, n, int(l))
	if !ok {
		return stomtypes.Value{}, 0, decodeErrf("map: truncated body")
	}
	keyType := stomtypes.BuiltinType(stomtypes.Builtin(typ.Variant))
	valType := stomtypes.Any
	if typ.Item != nil {
		valType = *typ.Item
	}
	var entries []stomtypes.MapEntry
	cursor := 0
	for cursor < len(body) {
		kv, kn, err := DecodeBody(body[cursor:], keyType, prov)
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		cursor += kn
		key, ok := stomtypes.KeyFromValue(kv)
		if !ok {
			return stomtypes.Value{}, 0, decodeErrf("map: key type is not a valid key")
		}
		val, vn, err := DecodeBody(body[cursor:], valType, prov)
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		cursor += vn
		for _, existing := range entries {
			if existing.Key.Equal(key) {
				return stomtypes.Value{}, 0, decodeErrf("map: duplicate key")
			}
		}
		entries = append(entries, stomtypes.MapEntry{Key: key, Value: val})
	}
	if cursor != len(body) {
		return stomtypes.Value{}, 0, decodeErrf("map: trailing bytes in entry stream")
	}
	return stomtypes.VMap(entries), n + int(l), nil
}
