package wire

import (
	"bytes"

	"github.com/ravelin-dev/structom/internal/varint"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// canonicalTag picks the one-byte type-tag a dynamic (`any`) value of kind
// k is written with. Int/Uint use the variable-length vint/vuint forms
// rather than the fixed i64/u64 ones: a self-describing value stream has
// no schema to size against, so the compact encoding is the useful
// default (spec §4.4.5).
func canonicalTag(k stomtypes.Kind) stomtypes.Builtin {
	switch k {
	case stomtypes.KBool:
		return stomtypes.BBool
	case stomtypes.KInt:
		return stomtypes.BVInt
	case stomtypes.KUint:
		return stomtypes.BVUint
	case stomtypes.KBigInt:
		return stomtypes.BBInt
	case stomtypes.KFloat:
		return stomtypes.BF64
	case stomtypes.KStr:
		return stomtypes.BStr
	case stomtypes.KInst:
		return stomtypes.BInstN
	case stomtypes.KDur:
		return stomtypes.BDur
	case stomtypes.KUUID:
		return stomtypes.BUUID
	case stomtypes.KArr:
		return stomtypes.BArr
	case stomtypes.KMap:
		return stomtypes.BMap
	default:
		return stomtypes.BAny
	}
}

// EncodeAny writes a self-describing dynamic value: a leading typeid byte
// followed by the value (spec §4.4.5).
func EncodeAny(buf *bytes.Buffer, v stomtypes.Value, prov stomtypes.Provider) error {
	tag := canonicalTag(v.Kind)
	buf.WriteByte(byte(tag))
	switch v.Kind {
	case stomtypes.KArr:
		return encodeDynArrayBody(buf, v.Arr, prov)
	case stomtypes.KMap:
		return encodeDynMapBody(buf, v.Map, prov)
	default:
		return EncodeBody(buf, stomtypes.BuiltinType(tag), v, prov)
	}
}

// DecodeAny is EncodeAny's inverse.
func DecodeAny(data []byte, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	if len(data) < 1 {
		return stomtypes.Value{}, 0, decodeErrf("any: truncated type tag")
	}
	tag := stomtypes.Builtin(data[0])
	switch tag {
	case stomtypes.BArr:
		v, n, err := decodeDynArrayBody(data[1:], prov)
		return v, 1 + n, err
	case stomtypes.BMap:
		v, n, err := decodeDynMapBody(data[1:], prov)
		return v, 1 + n, err
	default:
		v, n, err := DecodeBody(data[1:], stomtypes.BuiltinType(tag), prov)
		return v, 1 + n, err
	}
}

// commonElemKind reports the shared Kind of items, if any, excluding
// container kinds (a container element never collapses the per-element
// tag, since containers carry their own nested framing).
func commonElemKind(items []stomtypes.Value) (stomtypes.Kind, bool) {
	if len(items) == 0 {
		return 0, false
	}
	k := items[0].Kind
	if k == stomtypes.KArr || k == stomtypes.KMap {
		return 0, false
	}
	for _, it := range items[1:] {
		if it.Kind != k {
			return 0, false
		}
	}
	return k, true
}

// encodeDynArrayBody writes the dynamic (count-framed) array body of spec
// §4.4.5: a vuint count, one element-typeid byte (or `any` as a sentinel
// meaning per-element tags follow), then the items. Invariant 8:
// homogeneous non-container elements share a single type byte.
func encodeDynArrayBody(buf *bytes.Buffer, items []stomtypes.Value, prov stomtypes.Provider) error {
	kind, homogeneous := commonElemKind(items)
	buf.Write(varint.EncodeUint(nil, uint64(len(items))))
	if homogeneous {
		tag := canonicalTag(kind)
		buf.WriteByte(byte(tag))
		for i, it := range items {
			if err := EncodeBody(buf, stomtypes.BuiltinType(tag), it, prov); err != nil {
				return err
			}
			_ = i
		}
		return nil
	}
	buf.WriteByte(byte(stomtypes.BAny))
	for _, it := range items {
		if err := EncodeAny(buf, it, prov); err != nil {
			return err
		}
	}
	return nil
}

func decodeDynArrayBody(data []byte, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	count, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("dyn arr count: %v", err)
	}
	if n >= len(data) {
		return stomtypes.Value{}, 0, decodeErrf("dyn arr: truncated, missing element tag")
	}
	elemTag := stomtypes.Builtin(data[n])
	pos := n + 1
	items := make([]stomtypes.Value, 0, count)
	for i := uint64(0); i < count; i++ {
		var v stomtypes.Value
		var consumed int
		if elemTag == stomtypes.BAny {
			v, consumed, err = DecodeAny(data[pos:], prov)
		} else {
			v, consumed, err = DecodeBody(data[pos:], stomtypes.BuiltinType(elemTag), prov)
		}
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		items = append(items, v)
		pos += consumed
	}
	return stomtypes.VArr(items), pos, nil
}

func commonKeyKind(entries []stomtypes.MapEntry) (stomtypes.Kind, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	k := entries[0].Key.Kind
	for _, e := range entries[1:] {
		if e.Key.Kind != k {
			return 0, false
		}
	}
	return k, true
}

func commonValKind(entries []stomtypes.MapEntry) (stomtypes.Kind, bool) {
	values := make([]stomtypes.Value, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return commonElemKind(values)
}

// encodeDynMapBody mirrors encodeDynArrayBody for maps: independent
// homogeneity checks for keys and values, each collapsing to one typeid
// byte when possible.
func encodeDynMapBody(buf *bytes.Buffer, entries []stomtypes.MapEntry, prov stomtypes.Provider) error {
	keyKind, keyHomog := commonKeyKind(entries)
	valKind, valHomog := commonValKind(entries)
	buf.Write(varint.EncodeUint(nil, uint64(len(entries))))

	keyTag := stomtypes.BAny
	if keyHomog {
		keyTag = canonicalTag(keyKind)
	}
	valTag := stomtypes.BAny
	if valHomog {
		valTag = canonicalTag(valKind)
	}
	buf.WriteByte(byte(keyTag))
	buf.WriteByte(byte(valTag))

	for _, e := range entries {
		if keyHomog {
			if err := EncodeBody(buf, stomtypes.BuiltinType(keyTag), e.Key.ToValue(), prov); err != nil {
				return err
			}
		} else if err := EncodeAny(buf, e.Key.ToValue(), prov); err != nil {
			return err
		}
		if valHomog {
			if err := EncodeBody(buf, stomtypes.BuiltinType(valTag), e.Value, prov); err != nil {
				return err
			}
		} else if err := EncodeAny(buf, e.Value, prov); err != nil {
			return err
		}
	}
	return nil
}

func decodeDynMapBody(data []byte, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	count, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("dyn map count: %v", err)
	}
	if n+2 > len(data) {
		return stomtypes.Value{}, 0, decodeErrf("dyn map: truncated, missing key/value tags")
	}
	keyTag := stomtypes.Builtin(data[n])
	valTag := stomtypes.Builtin(data[n+1])
	pos := n + 2
	entries := make([]stomtypes.MapEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		var kv stomtypes.Value
		var kn int
		if keyTag == stomtypes.BAny {
			kv, kn, err = DecodeAny(data[pos:], prov)
		} else {
			kv, kn, err = DecodeBody(data[pos:], stomtypes.BuiltinType(keyTag), prov)
		}
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		pos += kn
		key, ok := stomtypes.KeyFromValue(kv)
		if !ok {
			return stomtypes.Value{}, 0, decodeErrf("dyn map: key kind %s is not a valid key", kv.Kind)
		}

		var vv stomtypes.Value
		var vn int
		if valTag == stomtypes.BAny {
			vv, vn, err = DecodeAny(data[pos:], prov)
		} else {
			vv, vn, err = DecodeBody(data[pos:], stomtypes.BuiltinType(valTag), prov)
		}
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		pos += vn

		for _, existing := range entries {
			if existing.Key.Equal(key) {
				return stomtypes.Value{}, 0, decodeErrf("dyn map: duplicate key")
			}
		}
		entries = append(entries, stomtypes.MapEntry{Key: key, Value: vv})
	}
	return stomtypes.VMap(entries), pos, nil
}
