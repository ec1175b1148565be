package wire

import (
	"bytes"
	"fmt"

	"github.com/ravelin-dev/structom/internal/varint"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// EncodeField writes one struct field: header vuint, an explicit length
// prefix when the field's type needs one (spec §4.4.1), then the body.
func EncodeField(buf *bytes.Buffer, tag uint32, typ stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) error {
	class, err := ClassFor(typ)
	if err != nil {
		return err
	}
	buf.Write(varint.EncodeUint(nil, header(tag, class)))
	if class == ClassLen && NeedsFieldWrapper(typ) {
		lp := varint.Reserve(buf)
		start := buf.Len()
		if err := EncodeBody(buf, typ, v, prov); err != nil {
			return err
		}
		return lp.Patch(buf.Len() - start)
	}
	return EncodeBody(buf, typ, v, prov)
}

// encodeStructBody writes field_count then each present field in
// ascending tag order (spec §5: binary emission order is field-tag
// order). Absent optional fields are omitted entirely; an absent
// required field is an encode error.
func encodeStructBody(buf *bytes.Buffer, sd *stomtypes.StructDef, v stomtypes.Value, prov stomtypes.Provider) error {
	if v.Kind != stomtypes.KMap {
		return fmt.Errorf("wire: struct value is not a map")
	}
	type pendingField struct {
		f *stomtypes.Field
		v stomtypes.Value
	}
	var toWrite []pendingField
	for _, f := range sd.Fields() {
		fv, ok := v.MapGet(stomtypes.KeyStr(f.Name))
		if !ok {
			if !f.Optional {
				return fmt.Errorf("wire: missing required field %q", f.Name)
			}
			continue
		}
		toWrite = append(toWrite, pendingField{f, fv})
	}
	buf.Write(varint.EncodeUint(nil, uint64(len(toWrite))))
	for _, p := range toWrite {
		if err := EncodeField(buf, p.f.Tag, p.f.Type, p.v, prov); err != nil {
			return err
		}
	}
	return nil
}

// encodeEnumBody writes variant_tag then, for a non-unit variant, that
// variant's struct body. v is a bare str (unit variant) or a map
// carrying $enum_variant plus the variant's fields.
func encodeEnumBody(buf *bytes.Buffer, ed *stomtypes.EnumDef, v stomtypes.Value, prov stomtypes.Provider) error {
	var name string
	switch v.Kind {
	case stomtypes.KStr:
		name = v.Str
	case stomtypes.KMap:
		nv, ok := v.MapGet(stomtypes.KeyStr("$enum_variant"))
		if !ok {
			return fmt.Errorf("wire: enum value missing $enum_variant")
		}
		name = nv.Str
	default:
		return fmt.Errorf("wire: enum value must be a str or a map, got %s", v.Kind)
	}
	variant, ok := ed.VariantByName(name)
	if !ok {
		return fmt.Errorf("wire: unknown enum variant %q", name)
	}
	buf.Write(varint.EncodeUint(nil, uint64(variant.Tag)))
	if variant.Body != nil {
		return encodeStructBody(buf, variant.Body, v, prov)
	}
	return nil
}

func encodeUserBody(buf *bytes.Buffer, typ stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) error {
	file := prov.Get(typ.NS)
	item, ok := file.ItemByID(typ.ID)
	if !ok {
		return fmt.Errorf("wire: unknown item id %d in namespace %d", typ.ID, typ.NS)
	}
	switch item.Kind {
	case stomtypes.ItemStruct:
		return encodeStructBody(buf, item.Struct, v, prov)
	case stomtypes.ItemEnum:
		return encodeEnumBody(buf, item.Enum, v, prov)
	default:
		return fmt.Errorf("wire: unknown item kind")
	}
}

func decodeUserBody(data []byte, typ stomtypes.TypeId, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	file := prov.Get(typ.NS)
	if file == nil {
		return stomtypes.Value{}, 0, decodeErrf("unknown namespace %d", typ.NS)
	}
	item, ok := file.ItemByID(typ.ID)
	if !ok {
		return stomtypes.Value{}, 0, decodeErrf("unknown item id %d in namespace %d", typ.ID, typ.NS)
	}
	switch item.Kind {
	case stomtypes.ItemStruct:
		return decodeStructBody(data, item.Struct, prov)
	case stomtypes.ItemEnum:
		return decodeEnumBody(data, item.Enum, prov)
	default:
		return stomtypes.Value{}, 0, decodeErrf("unknown item kind")
	}
}

func decodeEnumBody(data []byte, ed *stomtypes.EnumDef, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	tag, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("enum tag: %v", err)
	}
	variant, ok := ed.VariantByTag(uint32(tag))
	if !ok {
		return stomtypes.Value{}, 0, decodeErrf("unknown enum variant tag %d", tag)
	}
	if variant.IsUnit() {
		return stomtypes.VStr(variant.Name), n, nil
	}
	body, bn, err := decodeStructBody(data[n:], variant.Body, prov)
	if err != nil {
		return stomtypes.Value{}, 0, err
	}
	entries := append([]stomtypes.MapEntry{
		{Key: stomtypes.KeyStr("$enum_variant"), Value: stomtypes.VStr(variant.Name)},
	}, body.Map...)
	return stomtypes.VMap(entries), n + bn, nil
}

// decodeStructBody runs the LOOKUP/SKIP state machine of spec §4.5:
// read field_count, then for each field header either decode it (known
// tag) or skip it by mlen_class alone (unknown tag, forward compat).
func decodeStructBody(data []byte, sd *stomtypes.StructDef, prov stomtypes.Provider) (stomtypes.Value, int, error) {
	count, n, err := varint.DecodeUint(data)
	if err != nil {
		return stomtypes.Value{}, 0, decodeErrf("field_count: %v", err)
	}
	pos := n
	seen := make(map[uint32]bool, count)
	var entries []stomtypes.MapEntry

	for i := uint64(0); i < count; i++ {
		if pos >= len(data) {
			return stomtypes.Value{}, 0, decodeErrf("struct: truncated before field %d header", i)
		}
		hdr, hn, err := varint.DecodeUint(data[pos:])
		if err != nil {
			return stomtypes.Value{}, 0, decodeErrf("field header: %v", err)
		}
		pos += hn
		tag, class := splitHeader(hdr)
		if seen[tag] {
			return stomtypes.Value{}, 0, decodeErrf("struct: duplicate field tag %d", tag)
		}
		seen[tag] = true

		field, found := sd.FieldByTag(tag)
		if !found {
			skipped, err := skipByClass(data[pos:], class)
			if err != nil {
				return stomtypes.Value{}, 0, err
			}
			pos += skipped
			continue
		}

		expectedClass, err := ClassFor(field.Type)
		if err != nil {
			return stomtypes.Value{}, 0, err
		}
		if expectedClass != class {
			return stomtypes.Value{}, 0, decodeErrf(
				"struct: field %q expected mlen_class %d, got %d", field.Name, expectedClass, class)
		}

		var val stomtypes.Value
		if class == ClassLen && NeedsFieldWrapper(field.Type) {
			l, ln, err := varint.DecodeUint(data[pos:])
			if err != nil {
				return stomtypes.Value{}, 0, decodeErrf("field %q length: %v", field.Name, err)
			}
			pos += ln
			if uint64(pos)+l > uint64(len(data)) {
				return stomtypes.Value{}, 0, decodeErrf("field %q: truncated body", field.Name)
			}
			body := data[pos : pos+int(l)]
			v, consumed, err := DecodeBody(body, field.Type, prov)
			if err != nil {
				return stomtypes.Value{}, 0, err
			}
			if consumed != int(l) {
				return stomtypes.Value{}, 0, decodeErrf("field %q: trailing bytes in body", field.Name)
			}
			val = v
			pos += int(l)
		} else {
			v, consumed, err := DecodeBody(data[pos:], field.Type, prov)
			if err != nil {
				return stomtypes.Value{}, 0, err
			}
			val = v
			pos += consumed
		}
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(field.Name), Value: val})
	}

	for _, f := range sd.Fields() {
		if f.Optional {
			continue
		}
		if _, _, found := findFieldEntry(entries, f.Name); !found {
			return stomtypes.Value{}, 0, decodeErrf("struct: missing required field %q", f.Name)
		}
	}
	return stomtypes.VMap(entries), pos, nil
}

func findFieldEntry(entries []stomtypes.MapEntry, name string) (stomtypes.Value, int, bool) {
	for i, e := range entries {
		if e.Key.Kind == stomtypes.KStr && e.Key.Str == name {
			return e.Value, i, true
		}
	}
	return stomtypes.Value{}, 0, false
}

// skipByClass consumes one unknown field's payload, using only its
// mlen_class (spec §4.4.3): fixed classes skip a fixed width, the
// varint class skips one self-delimited varint, and the length class
// reads a vuint length then skips that many bytes.
func skipByClass(data []byte, class Class) (int, error) {
	switch class {
	case Class1:
		if len(data) < 1 {
			return 0, decodeErrf("skip: truncated (class 1)")
		}
		return 1, nil
	case Class2:
		if len(data) < 2 {
			return 0, decodeErrf("skip: truncated (class 2)")
		}
		return 2, nil
	case Class4:
		if len(data) < 4 {
			return 0, decodeErrf("skip: truncated (class 4)")
		}
		return 4, nil
	case Class8:
		if len(data) < 8 {
			return 0, decodeErrf("skip: truncated (class 8)")
		}
		return 8, nil
	case ClassVarint:
		_, n, err := varint.DecodeUint(data)
		if err != nil {
			return 0, decodeErrf("skip: varint: %v", err)
		}
		return n, nil
	case ClassLen:
		l, n, err := varint.DecodeUint(data)
		if err != nil {
			return 0, decodeErrf("skip: length: %v", err)
		}
		if uint64(n)+l > uint64(len(data)) {
			return 0, decodeErrf("skip: truncated body")
		}
		return n + int(l), nil
	default:
		return 0, decodeErrf("skip: unknown mlen_class %d", class)
	}
}
