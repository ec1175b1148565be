// Package valuejson converts between stomtypes.Value and the generic JSON
// representation structomctl accepts as its third (`json`) CLI format,
// alongside the `obj` textual form (internal/valuetext) and the `bin`
// wire form (internal/wire). JSON has no schema awareness of its own, so
// conversion walks the same target-TypeId-driven dispatch those two
// packages use, against plain `any` values decoded by encoding/json.
package valuejson

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

func lookupItem(prov stomtypes.Provider, target stomtypes.TypeId) (*stomtypes.DeclItem, bool) {
	file := prov.Get(target.NS)
	if file == nil {
		return nil, false
	}
	return file.ItemByID(target.ID)
}

// ToJSON converts v into plain Go values (map[string]any, []any, string,
// int64, uint64, float64, bool) suitable for encoding/json.Marshal. Kinds
// JSON cannot represent natively are rendered as strings: a big integer
// as plain decimal digits, a UUID as dashed hex, an instant as RFC 3339
// (with fractional seconds when they are non-zero), and a duration in
// time.Duration's String form (e.g. "1h30m0s"). The big-integer and
// duration spellings differ from the literals internal/valuetext writes
// for the `obj` format.
func ToJSON(v stomtypes.Value) (any, error) {
	switch v.Kind {
	case stomtypes.KBool:
		return v.Bool, nil
	case stomtypes.KInt:
		return v.Int, nil
	case stomtypes.KUint:
		return v.Uint, nil
	case stomtypes.KBigInt:
		return v.BigInt.Text(10), nil
	case stomtypes.KFloat:
		return v.Float, nil
	case stomtypes.KStr:
		return v.Str, nil
	case stomtypes.KUUID:
		return formatUUID(v.UUID), nil
	case stomtypes.KInst:
		return v.Inst.Format(time.RFC3339Nano), nil
	case stomtypes.KDur:
		return v.Dur.String(), nil
	case stomtypes.KArr:
		out := make([]any, len(v.Arr))
		for i, it := range v.Arr {
			jv, err := ToJSON(it)
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case stomtypes.KMap:
		out := make(map[string]any, len(v.Map))
		for _, e := range v.Map {
			key, err := jsonMapKey(e.Key)
			if err != nil {
				return nil, err
			}
			jv, err := ToJSON(e.Value)
			if err != nil {
				return nil, err
			}
			out[key] = jv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("valuejson: cannot convert value of kind %s", v.Kind)
	}
}

func jsonMapKey(k stomtypes.Key) (string, error) {
	switch k.Kind {
	case stomtypes.KStr:
		return k.Str, nil
	case stomtypes.KInt:
		return fmt.Sprintf("%d", k.Int), nil
	case stomtypes.KUint:
		return fmt.Sprintf("%d", k.Uint), nil
	default:
		return "", fmt.Errorf("valuejson: unsupported map key kind %s", k.Kind)
	}
}

// FromJSON converts in the opposite direction to ToJSON: it interprets a
// decoded JSON value against target, the same way internal/valuetext.Parse
// interprets a literal against target, so the result can feed straight
// into internal/wire.EncodeBody or valuetext.Stringify. It does not read
// back every shape ToJSON writes: an enum variant with fields is accepted
// only as a single-key object {"Variant": {...}}, not as the flat
// "$enum_variant" map ToJSON emits, and a "$has_meta" metadata envelope
// is not unwrapped.
func FromJSON(data any, target stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, error) {
	if !target.IsBuiltin() && !target.IsAny() {
		item, ok := lookupItem(prov, target)
		if !ok {
			return stomtypes.Value{}, fmt.Errorf("valuejson: unknown type %s", target)
		}
		switch item.Kind {
		case stomtypes.ItemStruct:
			return fromJSONStruct(data, item.Struct, prov)
		case stomtypes.ItemEnum:
			return fromJSONEnum(data, item.Enum, prov)
		}
	}

	if target.IsBuiltin() {
		switch target.AsBuiltin() {
		case stomtypes.BUUID:
			s, ok := data.(string)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: uuid field expects a JSON string")
			}
			u, err := parseUUID(s)
			if err != nil {
				return stomtypes.Value{}, err
			}
			return stomtypes.VUUID(u), nil
		case stomtypes.BInst:
			s, ok := data.(string)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: inst field expects a JSON string")
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return stomtypes.Value{}, fmt.Errorf("valuejson: invalid instant %q: %w", s, err)
			}
			return stomtypes.VInst(t), nil
		case stomtypes.BDur:
			s, ok := data.(string)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: dur field expects a JSON string")
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return stomtypes.Value{}, fmt.Errorf("valuejson: invalid duration %q: %w", s, err)
			}
			return stomtypes.VDur(d), nil
		case stomtypes.BBInt, stomtypes.BBUint:
			s, ok := data.(string)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: big-int field expects a JSON string")
			}
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: invalid big integer %q", s)
			}
			return stomtypes.VBigInt(n), nil
		case stomtypes.BStr:
			s, ok := data.(string)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: str field expects a JSON string")
			}
			return stomtypes.VStr(s), nil
		case stomtypes.BBool:
			b, ok := data.(bool)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: bool field expects a JSON boolean")
			}
			return stomtypes.VBool(b), nil
		case stomtypes.BArr:
			return fromJSONArr(data, target, prov)
		case stomtypes.BMap:
			return fromJSONMap(data, target, prov)
		}
		if isFloatBuiltin(target.AsBuiltin()) {
			f, ok := data.(float64)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: float field expects a JSON number")
			}
			return stomtypes.VFloat(f), nil
		}
		if isUintBuiltin(target.AsBuiltin()) {
			f, ok := data.(float64)
			if !ok || f < 0 {
				return stomtypes.Value{}, fmt.Errorf("valuejson: uint field expects a non-negative JSON number")
			}
			return stomtypes.VUint(uint64(f)), nil
		}
		if isIntBuiltin(target.AsBuiltin()) {
			f, ok := data.(float64)
			if !ok {
				return stomtypes.Value{}, fmt.Errorf("valuejson: int field expects a JSON number")
			}
			return stomtypes.VInt(int64(f)), nil
		}
	}

	return fromJSONDynamic(data)
}

func isFloatBuiltin(b stomtypes.Builtin) bool {
	return b == stomtypes.BF32 || b == stomtypes.BF64
}

func isUintBuiltin(b stomtypes.Builtin) bool {
	switch b {
	case stomtypes.BU8, stomtypes.BU16, stomtypes.BU32, stomtypes.BU64, stomtypes.BVUint:
		return true
	}
	return false
}

func isIntBuiltin(b stomtypes.Builtin) bool {
	switch b {
	case stomtypes.BI8, stomtypes.BI16, stomtypes.BI32, stomtypes.BI64, stomtypes.BVInt:
		return true
	}
	return false
}

// fromJSONDynamic handles target == any: it infers a Kind from the raw
// decoded JSON shape rather than from any declared type.
func fromJSONDynamic(data any) (stomtypes.Value, error) {
	switch d := data.(type) {
	case nil:
		return stomtypes.Value{}, fmt.Errorf("valuejson: null has no structom representation")
	case bool:
		return stomtypes.VBool(d), nil
	case float64:
		if d == float64(int64(d)) {
			return stomtypes.VInt(int64(d)), nil
		}
		return stomtypes.VFloat(d), nil
	case string:
		return stomtypes.VStr(d), nil
	case []any:
		items := make([]stomtypes.Value, len(d))
		for i, it := range d {
			v, err := fromJSONDynamic(it)
			if err != nil {
				return stomtypes.Value{}, err
			}
			items[i] = v
		}
		return stomtypes.VArr(items), nil
	case map[string]any:
		entries := make([]stomtypes.MapEntry, 0, len(d))
		for k, raw := range d {
			v, err := fromJSONDynamic(raw)
			if err != nil {
				return stomtypes.Value{}, err
			}
			entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(k), Value: v})
		}
		return stomtypes.VMap(entries), nil
	default:
		return stomtypes.Value{}, fmt.Errorf("valuejson: unsupported JSON shape %T", data)
	}
}

func fromJSONArr(data any, target stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, error) {
	arr, ok := data.([]any)
	if !ok {
		return stomtypes.Value{}, fmt.Errorf("valuejson: arr field expects a JSON array")
	}
	itemTarget := stomtypes.Any
	if target.Item != nil {
		itemTarget = *target.Item
	}
	out := make([]stomtypes.Value, len(arr))
	for i, raw := range arr {
		v, err := FromJSON(raw, itemTarget, prov)
		if err != nil {
			return stomtypes.Value{}, err
		}
		out[i] = v
	}
	return stomtypes.VArr(out), nil
}

func fromJSONMap(data any, target stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return stomtypes.Value{}, fmt.Errorf("valuejson: map field expects a JSON object")
	}
	valType := stomtypes.Any
	if target.Item != nil {
		valType = *target.Item
	}
	entries := make([]stomtypes.MapEntry, 0, len(m))
	for k, raw := range m {
		v, err := FromJSON(raw, valType, prov)
		if err != nil {
			return stomtypes.Value{}, err
		}
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(k), Value: v})
	}
	return stomtypes.VMap(entries), nil
}

func fromJSONStruct(data any, sd *stomtypes.StructDef, prov stomtypes.Provider) (stomtypes.Value, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return stomtypes.Value{}, fmt.Errorf("valuejson: struct value expects a JSON object")
	}
	entries := make([]stomtypes.MapEntry, 0, sd.Len())
	for _, f := range sd.Fields() {
		raw, present := m[f.Name]
		if !present {
			if f.Optional {
				continue
			}
			return stomtypes.Value{}, fmt.Errorf("valuejson: missing required field %q", f.Name)
		}
		v, err := FromJSON(raw, f.Type, prov)
		if err != nil {
			return stomtypes.Value{}, err
		}
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(f.Name), Value: v})
	}
	return stomtypes.VMap(entries), nil
}

// fromJSONEnum accepts either a bare string (unit variant name) or a
// single-key object `{"VariantName": {...fields...}}`, the natural JSON
// spelling of a tagged union.
func fromJSONEnum(data any, ed *stomtypes.EnumDef, prov stomtypes.Provider) (stomtypes.Value, error) {
	if name, ok := data.(string); ok {
		if _, ok := ed.VariantByName(name); !ok {
			return stomtypes.Value{}, fmt.Errorf("valuejson: unknown enum variant %q", name)
		}
		return stomtypes.VStr(name), nil
	}
	m, ok := data.(map[string]any)
	if !ok || len(m) != 1 {
		return stomtypes.Value{}, fmt.Errorf("valuejson: enum value expects a string or single-key object")
	}
	for name, raw := range m {
		variant, ok := ed.VariantByName(name)
		if !ok {
			return stomtypes.Value{}, fmt.Errorf("valuejson: unknown enum variant %q", name)
		}
		fieldVal, err := fromJSONStruct(raw, variant.Body, prov)
		if err != nil {
			return stomtypes.Value{}, err
		}
		entries := append([]stomtypes.MapEntry{{Key: stomtypes.KeyStr("$enum_variant"), Value: stomtypes.VStr(name)}}, fieldVal.Map...)
		return stomtypes.VMap(entries), nil
	}
	panic("unreachable")
}

func formatUUID(u [16]byte) string {
	h := hex.EncodeToString(u[:])
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}

func parseUUID(s string) ([16]byte, error) {
	var out [16]byte
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return out, fmt.Errorf("valuejson: invalid uuid %q", s)
	}
	hexPart := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:36]
	b, err := hex.DecodeString(hexPart)
	if err != nil || len(b) != 16 {
		return out, fmt.Errorf("valuejson: invalid uuid %q", s)
	}
	copy(out[:], b)
	return out, nil
}
