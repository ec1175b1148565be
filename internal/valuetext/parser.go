package valuetext

import (
	"math"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/internal/lex"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// Parser walks a token stream against an expected TypeId, implementing
// the value grammar of spec §4.3. Construct one via Parse.
type Parser struct {
	toks []lex.Token
	pos  int

	ctx  *declparse.DeclContext
	prov stomtypes.Provider
	opts ParseOptions
}

// Parse parses src as a single value literal, type-checked against target.
// ctx supplies the tier 2-4 name resolution scope a bare identifier needs
// when it names an explicit type rather than an enum variant shortcut.
func Parse(ctx *declparse.DeclContext, prov stomtypes.Provider, target stomtypes.TypeId, name, src string, opts ParseOptions) (stomtypes.Value, error) {
	toks, err := lex.Tokenize(name, src)
	if err != nil {
		return stomtypes.Value{}, err
	}
	p := &Parser{toks: toks, ctx: ctx, prov: prov, opts: opts}
	v, err := p.parseValueAt(target)
	if err != nil {
		return stomtypes.Value{}, err
	}
	if !p.atEOF() {
		return stomtypes.Value{}, stomtypes.NewSyntaxError(p.here(), "unexpected trailing input after value")
	}
	return v, nil
}

func (p *Parser) cur() lex.Token      { return p.toks[p.pos] }
func (p *Parser) here() stomtypes.Pos { return p.cur().Pos }
func (p *Parser) atEOF() bool         { return p.cur().Kind == lex.EOF }

func (p *Parser) peek(off int) lex.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() lex.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) curIsSymbol(s string) bool { return p.cur().Is(s) }

func (p *Parser) expectSymbol(s string) error {
	if !p.curIsSymbol(s) {
		return stomtypes.NewSyntaxError(p.here(), "expected %q, got %s %q", s, p.cur().Kind, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdentAny() (lex.Token, error) {
	if p.cur().Kind != lex.Ident {
		return lex.Token{}, stomtypes.NewSyntaxError(p.here(), "expected identifier, got %s %q", p.cur().Kind, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) expectString() (lex.Token, error) {
	if p.cur().Kind != lex.String {
		return lex.Token{}, stomtypes.NewSyntaxError(p.here(), "expected string literal, got %s", p.cur().Kind)
	}
	return p.advance(), nil
}

// parseMetadataList implements the value-site `('@' ident '(' str ')')*`
// prefix, identical in shape to declparse's (duplicate names rejected;
// discarded, after syntactic validation, when ParseOptions.Metadata is
// false).
func (p *Parser) parseMetadataList() ([]stomtypes.MetaPair, error) {
	var metas []stomtypes.MetaPair
	for p.curIsSymbol("@") {
		pos := p.here()
		p.advance()
		nameTok, err := p.expectIdentAny()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		valTok, err := p.expectString()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		for _, m := range metas {
			if m.Name == nameTok.Text {
				return nil, stomtypes.NewTypeError(pos, "duplicate metadata name %q", nameTok.Text)
			}
		}
		metas = append(metas, stomtypes.MetaPair{Name: nameTok.Text, Value: valTok.Text})
	}
	if !p.opts.Metadata {
		return nil, nil
	}
	return metas, nil
}

// parseValueAt implements `value := metadata* literal`, wrapping the
// produced Value in the `{$has_meta, value, ...}` envelope of spec §4.3
// when metadata is enabled and either the declaration-site type or the
// value site itself carries metadata.
func (p *Parser) parseValueAt(target stomtypes.TypeId) (stomtypes.Value, error) {
	valueMeta, err := p.parseMetadataList()
	if err != nil {
		return stomtypes.Value{}, err
	}
	v, err := p.parseBareValue(target)
	if err != nil {
		return stomtypes.Value{}, err
	}
	declMeta := target.Metadata
	if p.opts.Metadata && (len(declMeta) > 0 || len(valueMeta) > 0) {
		return wrapMeta(v, declMeta, valueMeta), nil
	}
	return v, nil
}

func wrapMeta(v stomtypes.Value, declMeta, valueMeta []stomtypes.MetaPair) stomtypes.Value {
	entries := []stomtypes.MapEntry{
		{Key: stomtypes.KeyStr("$has_meta"), Value: stomtypes.VBool(true)},
		{Key: stomtypes.KeyStr("value"), Value: v},
	}
	for _, m := range declMeta {
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(m.Name), Value: stomtypes.VStr(m.Value)})
	}
	for _, m := range valueMeta {
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(m.Name), Value: stomtypes.VStr(m.Value)})
	}
	return stomtypes.VMap(entries)
}

func acceptsBuiltin(target stomtypes.TypeId, b stomtypes.Builtin) bool {
	return target.IsAny() || (target.IsBuiltin() && target.AsBuiltin() == b)
}

// parseBareValue implements the literal dispatch of spec §4.3, minus the
// leading metadata* (handled by the caller).
func (p *Parser) parseBareValue(target stomtypes.TypeId) (stomtypes.Value, error) {
	pos := p.here()
	tok := p.cur()

	switch {
	case tok.IsIdent("true"), tok.IsIdent("false"):
		p.advance()
		if !acceptsBuiltin(target, stomtypes.BBool) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "bool literal cannot target %s", target)
		}
		return stomtypes.VBool(tok.Text == "true"), nil

	case tok.IsIdent("nan"):
		p.advance()
		if !acceptsFloatTarget(target) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "float literal cannot target %s", target)
		}
		return stomtypes.VFloat(math.NaN()), nil

	case tok.IsIdent("inf"):
		p.advance()
		if !acceptsFloatTarget(target) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "float literal cannot target %s", target)
		}
		return stomtypes.VFloat(math.Inf(1)), nil

	case tok.Is("+") && p.peek(1).IsIdent("inf"):
		p.advance()
		p.advance()
		if !acceptsFloatTarget(target) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "float literal cannot target %s", target)
		}
		return stomtypes.VFloat(math.Inf(1)), nil

	case tok.Is("-") && p.peek(1).IsIdent("inf"):
		p.advance()
		p.advance()
		if !acceptsFloatTarget(target) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "float literal cannot target %s", target)
		}
		return stomtypes.VFloat(math.Inf(-1)), nil

	case tok.IsIdent("uuid"):
		p.advance()
		strTok, err := p.expectString()
		if err != nil {
			return stomtypes.Value{}, err
		}
		u, uerr := parseUUIDLiteral(strTok.Text)
		if uerr != nil {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "%v", uerr)
		}
		if !acceptsBuiltin(target, stomtypes.BUUID) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "uuid literal cannot target %s", target)
		}
		return stomtypes.VUUID(u), nil

	case tok.IsIdent("inst"):
		p.advance()
		strTok, err := p.expectString()
		if err != nil {
			return stomtypes.Value{}, err
		}
		t, terr := parseInstLiteral(strTok.Text, false)
		if terr != nil {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "%v", terr)
		}
		if !acceptsBuiltin(target, stomtypes.BInst) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "inst literal cannot target %s", target)
		}
		return stomtypes.VInst(t), nil

	case tok.IsIdent("instN"):
		p.advance()
		strTok, err := p.expectString()
		if err != nil {
			return stomtypes.Value{}, err
		}
		t, terr := parseInstLiteral(strTok.Text, true)
		if terr != nil {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "%v", terr)
		}
		if !acceptsBuiltin(target, stomtypes.BInstN) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "instN literal cannot target %s", target)
		}
		return stomtypes.VInst(t), nil

	case tok.IsIdent("dur"):
		p.advance()
		strTok, err := p.expectString()
		if err != nil {
			return stomtypes.Value{}, err
		}
		d, derr := parseDurLiteral(strTok.Text)
		if derr != nil {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "%v", derr)
		}
		if !acceptsBuiltin(target, stomtypes.BDur) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "dur literal cannot target %s", target)
		}
		return stomtypes.VDur(d), nil

	case tok.Kind == lex.Uint:
		p.advance()
		return p.intoIntTarget(pos, target, tok, false)

	case tok.Kind == lex.Int:
		p.advance()
		return p.intoIntTarget(pos, target, tok, true)

	case tok.Kind == lex.Float:
		p.advance()
		return p.intoFloatTarget(pos, target, tok.FloatVal)

	case tok.Kind == lex.BigInt:
		p.advance()
		if !acceptsBuiltin(target, stomtypes.BBInt) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "bigint literal cannot target %s", target)
		}
		return stomtypes.VBigInt(tok.BigVal), nil

	case tok.Kind == lex.String:
		p.advance()
		if !acceptsBuiltin(target, stomtypes.BStr) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "string literal cannot target %s", target)
		}
		return stomtypes.VStr(tok.Text), nil

	case tok.Is("["):
		return p.parseArray(pos, target)

	case tok.Is("{"):
		return p.parseMapOrStructBody(pos, target)

	case tok.Kind == lex.Ident:
		return p.parseIdentValue(pos, target)

	default:
		return stomtypes.Value{}, stomtypes.NewSyntaxError(pos, "unexpected token %s %q in value position", tok.Kind, tok.Text)
	}
}

func acceptsFloatTarget(target stomtypes.TypeId) bool {
	if target.IsAny() {
		return true
	}
	if !target.IsBuiltin() {
		return false
	}
	b := target.AsBuiltin()
	return b == stomtypes.BF32 || b == stomtypes.BF64
}

var uBits = map[stomtypes.Builtin]int{
	stomtypes.BU8: 8, stomtypes.BU16: 16, stomtypes.BU32: 32, stomtypes.BU64: 64,
}

var iBits = map[stomtypes.Builtin]int{
	stomtypes.BI8: 8, stomtypes.BI16: 16, stomtypes.BI32: 32, stomtypes.BI64: 64,
}

func uintRange(bits int, v uint64) bool {
	if bits >= 64 {
		return true
	}
	return v <= (uint64(1)<<uint(bits))-1
}

func intRange(bits int, v int64) bool {
	if bits >= 64 {
		return true
	}
	lo := -(int64(1) << uint(bits-1))
	hi := (int64(1) << uint(bits-1)) - 1
	return v >= lo && v <= hi
}

// intoIntTarget range-checks an integer literal token against target, per
// spec §4.3: uN accepts 0..2^n-1, iN accepts -2^(n-1)..2^(n-1)-1, vuint/vint
// are unbounded within their own sign, and f32/f64 accept integer literals
// via implicit widening to float.
func (p *Parser) intoIntTarget(pos stomtypes.Pos, target stomtypes.TypeId, tok lex.Token, signed bool) (stomtypes.Value, error) {
	if target.IsAny() {
		if signed {
			return stomtypes.VInt(tok.IntVal), nil
		}
		return stomtypes.VUint(tok.UintVal), nil
	}
	if !target.IsBuiltin() {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal cannot target %s", target)
	}
	b := target.AsBuiltin()

	if bits, ok := uBits[b]; ok {
		var u uint64
		if signed {
			if tok.IntVal < 0 {
				return stomtypes.Value{}, stomtypes.NewTypeError(pos, "negative literal cannot target %s", b)
			}
			u = uint64(tok.IntVal)
		} else {
			u = tok.UintVal
		}
		if !uintRange(bits, u) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal %d out of range for %s", u, b)
		}
		return stomtypes.VUint(u), nil
	}

	if bits, ok := iBits[b]; ok {
		var i int64
		if signed {
			i = tok.IntVal
		} else {
			if tok.UintVal > math.MaxInt64 {
				return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal %d out of range for %s", tok.UintVal, b)
			}
			i = int64(tok.UintVal)
		}
		if !intRange(bits, i) {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal %d out of range for %s", i, b)
		}
		return stomtypes.VInt(i), nil
	}

	switch b {
	case stomtypes.BVUint:
		if signed {
			if tok.IntVal < 0 {
				return stomtypes.Value{}, stomtypes.NewTypeError(pos, "negative literal cannot target vuint")
			}
			return stomtypes.VUint(uint64(tok.IntVal)), nil
		}
		return stomtypes.VUint(tok.UintVal), nil
	case stomtypes.BVInt:
		if signed {
			return stomtypes.VInt(tok.IntVal), nil
		}
		if tok.UintVal > math.MaxInt64 {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal %d out of range for vint", tok.UintVal)
		}
		return stomtypes.VInt(int64(tok.UintVal)), nil
	case stomtypes.BF32, stomtypes.BF64:
		if signed {
			return stomtypes.VFloat(float64(tok.IntVal)), nil
		}
		return stomtypes.VFloat(float64(tok.UintVal)), nil
	}
	return stomtypes.Value{}, stomtypes.NewTypeError(pos, "integer literal cannot target %s", b)
}

func (p *Parser) intoFloatTarget(pos stomtypes.Pos, target stomtypes.TypeId, f float64) (stomtypes.Value, error) {
	if !acceptsFloatTarget(target) {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "float literal cannot target %s", target)
	}
	return stomtypes.VFloat(f), nil
}

// parseArray implements `'[' (value (',' value)* ','?)? ']'`.
func (p *Parser) parseArray(pos stomtypes.Pos, target stomtypes.TypeId) (stomtypes.Value, error) {
	if !target.IsAny() && !(target.IsBuiltin() && target.AsBuiltin() == stomtypes.BArr) {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "array literal cannot target %s", target)
	}
	itemTarget := stomtypes.Any
	if target.IsBuiltin() && target.AsBuiltin() == stomtypes.BArr && target.Item != nil {
		itemTarget = *target.Item
	}
	p.advance() // '['
	var items []stomtypes.Value
	for !p.curIsSymbol("]") {
		v, err := p.parseValueAt(itemTarget)
		if err != nil {
			return stomtypes.Value{}, err
		}
		items = append(items, v)
		if p.curIsSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol("]"); err != nil {
		return stomtypes.Value{}, err
	}
	return stomtypes.VArr(items), nil
}

func lookupItem(prov stomtypes.Provider, target stomtypes.TypeId) (*stomtypes.DeclItem, bool) {
	file := prov.Get(target.NS)
	if file == nil {
		return nil, false
	}
	return file.ItemByID(target.ID)
}

// parseMapOrStructBody implements the `'{' ... '}'` alternative: a struct
// body when target names a user struct, a map body when target is `any`
// or `map<K,V>`. A user enum target reaching a bare `{` (no leading
// variant name) is a type error; enum values are only produced through the
// variant-shortcut path in parseIdentValue.
func (p *Parser) parseMapOrStructBody(pos stomtypes.Pos, target stomtypes.TypeId) (stomtypes.Value, error) {
	if !target.IsBuiltin() && !target.IsAny() {
		item, ok := lookupItem(p.prov, target)
		if !ok {
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "unknown type %s", target)
		}
		switch item.Kind {
		case stomtypes.ItemStruct:
			return p.parseStructBody(item.Struct)
		default:
			return stomtypes.Value{}, stomtypes.NewTypeError(pos, "enum %q value must start with a variant name, not %q", item.Name, "{")
		}
	}

	keyType := stomtypes.Any
	valType := stomtypes.Any
	if target.IsBuiltin() && target.AsBuiltin() == stomtypes.BMap {
		keyType = stomtypes.BuiltinType(stomtypes.Builtin(target.Variant))
		if target.Item != nil {
			valType = *target.Item
		}
	} else if !target.IsAny() {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "map/struct literal cannot target %s", target)
	}
	return p.parseMapBody(keyType, valType)
}

// parseStructBody implements the struct-body grammar of spec §4.3: comma
// separated `name: value` pairs, duplicate names rejected, all required
// fields must be present at the closing brace.
func (p *Parser) parseStructBody(sd *stomtypes.StructDef) (stomtypes.Value, error) {
	p.advance() // '{'
	seen := make(map[string]bool)
	var entries []stomtypes.MapEntry
	for !p.curIsSymbol("}") {
		namePos := p.here()
		var name string
		switch p.cur().Kind {
		case lex.Ident, lex.String:
			name = p.advance().Text
		default:
			return stomtypes.Value{}, stomtypes.NewSyntaxError(namePos, "expected field name, got %s", p.cur().Kind)
		}
		if seen[name] {
			return stomtypes.Value{}, stomtypes.NewTypeError(namePos, "duplicate field %q", name)
		}
		seen[name] = true
		f, ok := sd.FieldByName(name)
		if !ok {
			return stomtypes.Value{}, stomtypes.NewTypeError(namePos, "unknown field %q", name)
		}
		if err := p.expectSymbol(":"); err != nil {
			return stomtypes.Value{}, err
		}
		v, err := p.parseValueAt(f.Type)
		if err != nil {
			return stomtypes.Value{}, err
		}
		entries = append(entries, stomtypes.MapEntry{Key: stomtypes.KeyStr(name), Value: v})
		if p.curIsSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	closePos := p.here()
	if err := p.expectSymbol("}"); err != nil {
		return stomtypes.Value{}, err
	}
	for _, f := range sd.Fields() {
		if !f.Optional && !seen[f.Name] {
			return stomtypes.Value{}, stomtypes.NewTypeError(closePos, "missing required field %q", f.Name)
		}
	}
	return stomtypes.VMap(entries), nil
}

// parseMapBody implements the map-body grammar of spec §4.3: keys are a
// bare identifier, a string literal, or a bracketed primitive value;
// duplicate keys are rejected.
func (p *Parser) parseMapBody(keyType, valType stomtypes.TypeId) (stomtypes.Value, error) {
	p.advance() // '{'
	var entries []stomtypes.MapEntry
	for !p.curIsSymbol("}") {
		keyPos := p.here()
		var key stomtypes.Key
		switch {
		case p.cur().Kind == lex.Ident, p.cur().Kind == lex.String:
			key = stomtypes.KeyStr(p.advance().Text)
		case p.curIsSymbol("["):
			p.advance()
			kv, err := p.parseValueAt(keyType)
			if err != nil {
				return stomtypes.Value{}, err
			}
			if err := p.expectSymbol("]"); err != nil {
				return stomtypes.Value{}, err
			}
			k, ok := stomtypes.KeyFromValue(kv)
			if !ok {
				return stomtypes.Value{}, stomtypes.NewTypeError(keyPos, "map key cannot be float, array, or map")
			}
			key = k
		default:
			return stomtypes.Value{}, stomtypes.NewSyntaxError(keyPos, "expected map key, got %s %q", p.cur().Kind, p.cur().Text)
		}
		for _, e := range entries {
			if e.Key.Equal(key) {
				return stomtypes.Value{}, stomtypes.NewTypeError(keyPos, "duplicate map key")
			}
		}
		if err := p.expectSymbol(":"); err != nil {
			return stomtypes.Value{}, err
		}
		v, err := p.parseValueAt(valType)
		if err != nil {
			return stomtypes.Value{}, err
		}
		entries = append(entries, stomtypes.MapEntry{Key: key, Value: v})
		if p.curIsSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol("}"); err != nil {
		return stomtypes.Value{}, err
	}
	return stomtypes.VMap(entries), nil
}

// parseIdentValue handles a bare identifier at a value position: either an
// enum-variant shortcut (target resolves to a user enum and the identifier
// names one of its variants) or an explicit typeid reference followed by
// its body, resolved through the same tier 1-4 order declparse uses for
// typeids.
func (p *Parser) parseIdentValue(pos stomtypes.Pos, target stomtypes.TypeId) (stomtypes.Value, error) {
	nameTok := p.advance()

	if p.opts.Enums && !target.IsBuiltin() && !target.IsAny() {
		if item, ok := lookupItem(p.prov, target); ok && item.Kind == stomtypes.ItemEnum {
			if variant, ok := item.Enum.VariantByName(nameTok.Text); ok {
				if variant.IsUnit() {
					return stomtypes.VStr(variant.Name), nil
				}
				if !p.curIsSymbol("{") {
					return stomtypes.Value{}, stomtypes.NewSyntaxError(p.here(), "expected %q body for enum variant %q", "{", variant.Name)
				}
				body, err := p.parseStructBody(variant.Body)
				if err != nil {
					return stomtypes.Value{}, err
				}
				entries := append([]stomtypes.MapEntry{
					{Key: stomtypes.KeyStr("$enum_variant"), Value: stomtypes.VStr(variant.Name)},
				}, body.Map...)
				return stomtypes.VMap(entries), nil
			}
		}
	}

	resolved, ok := p.resolveExplicitType(pos, nameTok.Text)
	if !ok {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "unknown identifier %q in value position", nameTok.Text)
	}
	if !target.IsAny() && !target.Equal(resolved) {
		return stomtypes.Value{}, stomtypes.NewTypeError(pos, "explicit type %s is not compatible with expected type %s", resolved, target)
	}
	return p.parseBareValue(resolved)
}

// resolveExplicitType implements the same tier 1-4 order as
// declparse.Parser.parseTypeId's default branch, without the arr/map/
// inline-struct/inline-enum syntax values never use in this position.
func (p *Parser) resolveExplicitType(pos stomtypes.Pos, name string) (stomtypes.TypeId, bool) {
	if b, ok := stomtypes.LookupBuiltin(name); ok {
		return stomtypes.BuiltinType(b), true
	}
	if t, ok := p.ctx.Resolve(name); ok {
		return t, true
	}
	if p.curIsSymbol(".") && p.ctx.HasNamespace(name) {
		p.advance()
		uTok, err := p.expectIdentAny()
		if err != nil {
			return stomtypes.TypeId{}, false
		}
		if t, ok := p.ctx.ResolveNS(name, uTok.Text); ok {
			return t, true
		}
	}
	return stomtypes.TypeId{}, false
}
