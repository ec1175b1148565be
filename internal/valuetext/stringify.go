package valuetext

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// Stringify is the inverse of Parse: it walks v against target, emitting
// the textual form spec §9 defines for round-tripping and the `obj` CLI
// format.
func Stringify(v stomtypes.Value, target stomtypes.TypeId, prov stomtypes.Provider, opts ParseOptions) (string, error) {
	var sb strings.Builder
	if err := stringifyValue(&sb, v, target, prov, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// unwrapMeta reverses wrapMeta: it splits a `{$has_meta, value, ...}`
// envelope back into the inner value and the value-site metadata that
// needs re-emitting as literal `@name("value")` prefixes. Metadata entries
// that exactly correspond to target's own declaration-site metadata (the
// first len(target.Metadata) extra keys, inserted in that order by
// wrapMeta) are NOT re-emitted: parsing the result again will re-derive
// them from target automatically.
func unwrapMeta(v stomtypes.Value, target stomtypes.TypeId) (stomtypes.Value, []stomtypes.MetaPair, bool) {
	if v.Kind != stomtypes.KMap {
		return v, nil, false
	}
	hm, ok := v.MapGet(stomtypes.KeyStr("$has_meta"))
	if !ok || !hm.Bool {
		return v, nil, false
	}
	inner, _ := v.MapGet(stomtypes.KeyStr("value"))
	skip := len(target.Metadata)
	var extra []stomtypes.MetaPair
	seen := 0
	for _, e := range v.Map {
		if e.Key.Kind != stomtypes.KStr || e.Key.Str == "$has_meta" || e.Key.Str == "value" {
			continue
		}
		seen++
		if seen <= skip {
			continue
		}
		extra = append(extra, stomtypes.MetaPair{Name: e.Key.Str, Value: e.Value.Str})
	}
	return inner, extra, true
}

func stringifyValue(sb *strings.Builder, v stomtypes.Value, target stomtypes.TypeId, prov stomtypes.Provider, opts ParseOptions) error {
	inner, extra, wrapped := unwrapMeta(v, target)
	if wrapped && opts.Metadata {
		for _, m := range extra {
			fmt.Fprintf(sb, "@%s(%s) ", m.Name, quoteString(m.Value))
		}
		return stringifyBare(sb, inner, target, prov, opts)
	}
	return stringifyBare(sb, v, target, prov, opts)
}

func stringifyBare(sb *strings.Builder, v stomtypes.Value, target stomtypes.TypeId, prov stomtypes.Provider, opts ParseOptions) error {
	if !target.IsBuiltin() && !target.IsAny() {
		item, ok := lookupItem(prov, target)
		if !ok {
			return fmt.Errorf("valuetext: unknown type %s", target)
		}
		switch item.Kind {
		case stomtypes.ItemStruct:
			return stringifyStructBody(sb, v, item.Struct, prov, opts)
		case stomtypes.ItemEnum:
			return stringifyEnumValue(sb, v, item.Enum, prov, opts)
		}
	}

	switch v.Kind {
	case stomtypes.KBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case stomtypes.KInt:
		if v.Int >= 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case stomtypes.KUint:
		sb.WriteString(strconv.FormatUint(v.Uint, 10))
	case stomtypes.KBigInt:
		sb.WriteString(v.BigInt.Text(10) + "bint")
	case stomtypes.KFloat:
		sb.WriteString(formatFloatLiteral(v.Float))
	case stomtypes.KStr:
		sb.WriteString(quoteString(v.Str))
	case stomtypes.KUUID:
		sb.WriteString("uuid " + quoteString(formatUUID(v.UUID)))
	case stomtypes.KInst:
		if target.IsBuiltin() && target.AsBuiltin() == stomtypes.BInst {
			sb.WriteString("inst " + quoteString(v.Inst.Format(time.RFC3339)))
		} else {
			sb.WriteString("instN " + quoteString(v.Inst.Format(time.RFC3339Nano)))
		}
	case stomtypes.KDur:
		sb.WriteString("dur " + quoteString(formatDurLiteral(v.Dur)))
	case stomtypes.KArr:
		itemTarget := stomtypes.Any
		if target.IsBuiltin() && target.AsBuiltin() == stomtypes.BArr && target.Item != nil {
			itemTarget = *target.Item
		}
		sb.WriteByte('[')
		for i, it := range v.Arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := stringifyValue(sb, it, itemTarget, prov, opts); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case stomtypes.KMap:
		keyType := stomtypes.Any
		valType := stomtypes.Any
		if target.IsBuiltin() && target.AsBuiltin() == stomtypes.BMap {
			keyType = stomtypes.BuiltinType(stomtypes.Builtin(target.Variant))
			if target.Item != nil {
				valType = *target.Item
			}
		}
		sb.WriteByte('{')
		for i, e := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			stringifyMapKey(sb, e.Key, keyType)
			sb.WriteString(": ")
			if err := stringifyValue(sb, e.Value, valType, prov, opts); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("valuetext: cannot stringify value of kind %s", v.Kind)
	}
	return nil
}

func stringifyMapKey(sb *strings.Builder, k stomtypes.Key, keyType stomtypes.TypeId) {
	if keyType.IsAny() || (keyType.IsBuiltin() && keyType.AsBuiltin() == stomtypes.BStr) {
		sb.WriteString(quoteOrBareIdent(k.Str))
		return
	}
	sb.WriteByte('[')
	// Key values are always scalar (never Arr/Map/Float), so stringifyBare
	// on the widened Value never needs a provider/options for this call.
	_ = stringifyBare(sb, k.ToValue(), keyType, nil, ParseOptions{})
	sb.WriteByte(']')
}

func stringifyStructBody(sb *strings.Builder, v stomtypes.Value, sd *stomtypes.StructDef, prov stomtypes.Provider, opts ParseOptions) error {
	sb.WriteByte('{')
	first := true
	for _, f := range sd.Fields() {
		fv, ok := v.MapGet(stomtypes.KeyStr(f.Name))
		if !ok {
			if f.Optional {
				continue
			}
			return fmt.Errorf("valuetext: missing required field %q", f.Name)
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(quoteOrBareIdent(f.Name))
		sb.WriteString(": ")
		if err := stringifyValue(sb, fv, f.Type, prov, opts); err != nil {
			return err
		}
	}
	sb.WriteByte('}')
	return nil
}

func stringifyEnumValue(sb *strings.Builder, v stomtypes.Value, ed *stomtypes.EnumDef, prov stomtypes.Provider, opts ParseOptions) error {
	switch v.Kind {
	case stomtypes.KStr:
		variant, ok := ed.VariantByName(v.Str)
		if !ok {
			return fmt.Errorf("valuetext: unknown enum variant %q", v.Str)
		}
		sb.WriteString(variant.Name)
		return nil
	case stomtypes.KMap:
		nameVal, ok := v.MapGet(stomtypes.KeyStr("$enum_variant"))
		if !ok {
			return fmt.Errorf("valuetext: enum value missing $enum_variant")
		}
		variant, ok := ed.VariantByName(nameVal.Str)
		if !ok {
			return fmt.Errorf("valuetext: unknown enum variant %q", nameVal.Str)
		}
		sb.WriteString(variant.Name)
		sb.WriteByte(' ')
		return stringifyStructBody(sb, v, variant.Body, prov, opts)
	default:
		return fmt.Errorf("valuetext: enum value must be KStr or KMap, got %s", v.Kind)
	}
}
