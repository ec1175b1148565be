package declparse

import (
	"fmt"
	"strings"

	"github.com/ravelin-dev/structom/internal/lex"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// ParseOptions controls optional behavior of the declaration parser (spec
// §4.2: "If ParseOptions.metadata = false, metadata is parsed for
// syntactic validity but discarded").
type ParseOptions struct {
	Metadata bool
}

// Parser consumes a token stream and builds a DeclFile. Construct one
// with Parse; the zero value is not useful on its own.
type Parser struct {
	toks []lex.Token
	pos  int

	file *stomtypes.DeclFile
	ctx  *DeclContext
	prov stomtypes.Provider
	opts ParseOptions

	items *tagCounter
}

// Parse tokenizes and parses src as a declaration file named name (used
// both for error positions and for relative import resolution), assigning
// it id within prov's namespace space.
func Parse(prov stomtypes.Provider, id uint64, name, src string, opts ParseOptions) (*stomtypes.DeclFile, *DeclContext, error) {
	toks, err := lex.Tokenize(name, src)
	if err != nil {
		return nil, nil, err
	}
	file := stomtypes.NewDeclFile(id, name)
	p := &Parser{
		toks:  toks,
		file:  file,
		ctx:   newDeclContext(file),
		prov:  prov,
		opts:  opts,
		items: newTagCounter(stomtypes.MaxItemID),
	}
	if err := p.parseFile(); err != nil {
		return nil, nil, err
	}
	if len(file.Items()) == 0 {
		return nil, nil, stomtypes.NewTypeError(p.here(), "declaration file %q must contain at least one item", name)
	}
	return file, p.ctx, nil
}

func (p *Parser) cur() lex.Token  { return p.toks[p.pos] }
func (p *Parser) here() stomtypes.Pos { return p.cur().Pos }
func (p *Parser) atEOF() bool     { return p.cur().Kind == lex.EOF }

func (p *Parser) advance() lex.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) curIsSymbol(s string) bool { return p.cur().Is(s) }
func (p *Parser) curIsIdent(s string) bool  { return p.cur().IsIdent(s) }

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

func (p *Parser) expectUint() (lex.Token, error) {
	if p.cur().Kind != lex.Uint {
		return lex.Token{}, stomtypes.NewSyntaxError(p.here(), "expected unsigned integer, got %s", p.cur().Kind)
	}
	return p.advance(), nil
}

// parseFile implements `file := (import | item)*`.
func (p *Parser) parseFile() error {
	for !p.atEOF() {
		switch {
		case p.curIsIdent("import"):
			if err := p.parseImport(); err != nil {
				return err
			}
		case p.curIsIdent("struct"), p.curIsIdent("enum"):
			if err := p.parseItem(); err != nil {
				return err
			}
		default:
			return stomtypes.NewSyntaxError(p.here(), "expected 'import', 'struct', or 'enum', got %q", p.cur().Text)
		}
	}
	return nil
}

// parseImport implements `import := 'import' str ('as' ident)?` plus the
// resolution/namespace rules of spec §4.2.
func (p *Parser) parseImport() error {
	pos := p.here()
	p.advance() // 'import'
	pathTok, err := p.expectString()
	if err != nil {
		return err
	}
	resolved := resolveImportPath(pathTok.Text, p.file.Name)

	var ns string
	hasNS := false
	if p.curIsIdent("as") {
		p.advance()
		nsTok, err := p.expectIdentAny()
		if err != nil {
			return err
		}
		ns = nsTok.Text
		hasNS = true
	}

	if p.importedByName(resolved) {
		return stomtypes.NewTypeError(pos, "file %q is already imported", resolved)
	}
	loaded, ierr := p.prov.Load(resolved)
	if ierr != nil {
		return stomtypes.NewTypeError(pos, "import %q: %v", pathTok.Text, ierr)
	}

	if hasNS {
		if p.ctx.HasNamespace(ns) {
			return stomtypes.NewTypeError(pos, "namespace %q is already in use", ns)
		}
		if _, dup := p.file.ItemByName(ns); dup {
			return stomtypes.NewTypeError(pos, "namespace %q collides with an item name in this file", ns)
		}
		p.ctx.NSImports[ns] = loaded
		return nil
	}
	p.ctx.Imports = append(p.ctx.Imports, loaded)
	return nil
}

func (p *Parser) importedByName(name string) bool {
	for _, f := range p.ctx.Imports {
		if f.Name == name {
			return true
		}
	}
	for _, f := range p.ctx.NSImports {
		if f.Name == name {
			return true
		}
	}
	return false
}

// resolveImportPath resolves a `./` or `../` relative import against
// ownerName's directory, per spec §4.2: "resolved against the importing
// file's stored name by removing the trailing basename(s)". Non-relative
// paths pass through unchanged.
func resolveImportPath(rel, ownerName string) string {
	if !strings.HasPrefix(rel, "./") && !strings.HasPrefix(rel, "../") {
		return rel
	}
	var dir []string
	if idx := strings.LastIndex(ownerName, "/"); idx >= 0 {
		dir = strings.Split(ownerName[:idx], "/")
	}
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case ".", "":
			// no-op
		case "..":
			if len(dir) > 0 {
				dir = dir[:len(dir)-1]
			}
		default:
			dir = append(dir, seg)
		}
	}
	return strings.Join(dir, "/")
}

// parseItem implements `item := ('struct' | 'enum') ident ('[' uint ']')? body`.
func (p *Parser) parseItem() error {
	pos := p.here()
	kind := p.advance().Text // "struct" or "enum"

	nameTok, err := p.expectIdentAny()
	if err != nil {
		return err
	}
	name := nameTok.Text

	explicit, err := p.maybeExplicitTag()
	if err != nil {
		return err
	}
	id, err := p.items.assign(explicit)
	if err != nil {
		return stomtypes.NewTypeError(pos, "item %q: %v", name, err)
	}

	switch kind {
	case "struct":
		sd := stomtypes.NewStructDef()
		item := &stomtypes.DeclItem{Kind: stomtypes.ItemStruct, Name: name, TypeID: uint16(id), Struct: sd}
		if err := p.file.AddItem(item); err != nil {
			return stomtypes.NewTypeError(pos, "%v", err)
		}
		if err := p.parseStructFields(sd); err != nil {
			return err
		}
		if sd.Len() == 0 {
			return stomtypes.NewTypeError(pos, "struct %q must declare at least one field", name)
		}
	case "enum":
		ed := stomtypes.NewEnumDef()
		item := &stomtypes.DeclItem{Kind: stomtypes.ItemEnum, Name: name, TypeID: uint16(id), Enum: ed}
		if err := p.file.AddItem(item); err != nil {
			return stomtypes.NewTypeError(pos, "%v", err)
		}
		if err := p.parseEnumVariants(ed); err != nil {
			return err
		}
		if ed.Len() == 0 {
			return stomtypes.NewTypeError(pos, "enum %q must declare at least one variant", name)
		}
	}
	return nil
}

// maybeExplicitTag parses an optional `[ uint ]` tag_spec.
func (p *Parser) maybeExplicitTag() (*uint64, error) {
	if !p.curIsSymbol("[") {
		return nil, nil
	}
	p.advance()
	idTok, err := p.expectUint()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	v := idTok.UintVal
	return &v, nil
}

// parseStructFields implements `body` for a struct: `{' (field (',' field)* ','?)? '}'`.
func (p *Parser) parseStructFields(sd *stomtypes.StructDef) error {
	if err := p.expectSymbol("{"); err != nil {
		return err
	}
	tags := newTagCounter(stomtypes.MaxFieldTag)
	for !p.curIsSymbol("}") {
		pos := p.here()
		f, err := p.parseField(tags)
		if err != nil {
			return err
		}
		if err := sd.AddField(f); err != nil {
			return stomtypes.NewTypeError(pos, "%v", err)
		}
		if p.curIsSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return p.expectSymbol("}")
}

// parseField implements `field := tag_spec? (ident|str) '?'? ':' typeid`.
func (p *Parser) parseField(tags *tagCounter) (*stomtypes.Field, error) {
	pos := p.here()
	explicit, err := p.maybeExplicitTag()
	if err != nil {
		return nil, err
	}

	var name string
	switch p.cur().Kind {
	case lex.Ident:
		name = p.advance().Text
	case lex.String:
		name = p.advance().Text
	default:
		return nil, stomtypes.NewSyntaxError(pos, "expected field name, got %s", p.cur().Kind)
	}

	optional := false
	if p.curIsSymbol("?") {
		optional = true
		p.advance()
	}
	if err := p.expectSymbol(":"); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeId()
	if err != nil {
		return nil, err
	}
	tag, err := tags.assign(explicit)
	if err != nil {
		return nil, stomtypes.NewTypeError(pos, "field %q: %v", name, err)
	}
	return &stomtypes.Field{Name: name, Tag: uint32(tag), Type: typ, Optional: optional}, nil
}

// parseEnumVariants implements the enum body: `{' (variant (',' variant)* ','?)? '}'`.
func (p *Parser) parseEnumVariants(ed *stomtypes.EnumDef) error {
	if err := p.expectSymbol("{"); err != nil {
		return err
	}
	tags := newTagCounter(stomtypes.MaxFieldTag)
	for !p.curIsSymbol("}") {
		pos := p.here()
		v, err := p.parseVariant(tags)
		if err != nil {
			return err
		}
		if err := ed.AddVariant(v); err != nil {
			return stomtypes.NewTypeError(pos, "%v", err)
		}
		if p.curIsSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return p.expectSymbol("}")
}

// parseVariant implements `variant := tag_spec? ident body?`.
func (p *Parser) parseVariant(tags *tagCounter) (*stomtypes.EnumVariant, error) {
	pos := p.here()
	explicit, err := p.maybeExplicitTag()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentAny()
	if err != nil {
		return nil, err
	}

	var body *stomtypes.StructDef
	if p.curIsSymbol("{") {
		sd := stomtypes.NewStructDef()
		if err := p.parseStructFields(sd); err != nil {
			return nil, err
		}
		if sd.Len() == 0 {
			return nil, stomtypes.NewTypeError(pos, "variant %q body must declare at least one field", nameTok.Text)
		}
		body = sd
	}

	tag, err := tags.assign(explicit)
	if err != nil {
		return nil, stomtypes.NewTypeError(pos, "variant %q: %v", nameTok.Text, err)
	}
	return &stomtypes.EnumVariant{Name: nameTok.Text, Tag: uint32(tag), Body: body}, nil
}

// nextAnonID allocates a fresh item id from the file-level item counter,
// used by anonymous inline struct/enum typeids (spec §4.2).
func (p *Parser) nextAnonID() (uint64, error) {
	return p.items.assign(nil)
}

// parseMetadataList implements `metadata* := ('@' ident '(' str ')')*`.
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

// parseTypeId implements the `typeid` production, including the type
// resolution order of spec §4.2.
func (p *Parser) parseTypeId() (stomtypes.TypeId, error) {
	metas, err := p.parseMetadataList()
	if err != nil {
		return stomtypes.TypeId{}, err
	}

	switch {
	case p.curIsIdent("arr"):
		p.advance()
		if err := p.expectSymbol("<"); err != nil {
			return stomtypes.TypeId{}, err
		}
		item, err := p.parseTypeId()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		if err := p.expectSymbol(">"); err != nil {
			return stomtypes.TypeId{}, err
		}
		t := stomtypes.ArrOf(item)
		t.Metadata = metas
		return t, nil

	case p.curIsIdent("map"):
		pos := p.here()
		p.advance()
		if err := p.expectSymbol("<"); err != nil {
			return stomtypes.TypeId{}, err
		}
		keyType, err := p.parseTypeId()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		if !keyType.IsBuiltin() || !keyType.AsBuiltin().IsPrimitive() {
			return stomtypes.TypeId{}, stomtypes.NewTypeError(pos, "map key type must be a primitive builtin, got %s", keyType)
		}
		if err := p.expectSymbol(","); err != nil {
			return stomtypes.TypeId{}, err
		}
		itemType, err := p.parseTypeId()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		if err := p.expectSymbol(">"); err != nil {
			return stomtypes.TypeId{}, err
		}
		t := stomtypes.MapOf(keyType.AsBuiltin(), itemType)
		t.Metadata = metas
		return t, nil

	case p.curIsIdent("struct"):
		p.advance()
		id, err := p.nextAnonID()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		name := fmt.Sprintf("anonymous_struct_%x", id)
		sd := stomtypes.NewStructDef()
		item := &stomtypes.DeclItem{Kind: stomtypes.ItemStruct, Name: name, TypeID: uint16(id), Struct: sd}
		if err := p.file.AddItem(item); err != nil {
			return stomtypes.TypeId{}, stomtypes.NewTypeError(p.here(), "%v", err)
		}
		if err := p.parseStructFields(sd); err != nil {
			return stomtypes.TypeId{}, err
		}
		if sd.Len() == 0 {
			return stomtypes.TypeId{}, stomtypes.NewTypeError(p.here(), "anonymous struct must declare at least one field")
		}
		t := p.file.TypeIDOf(uint16(id))
		t.Metadata = metas
		return t, nil

	case p.curIsIdent("enum"):
		p.advance()
		id, err := p.nextAnonID()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		name := fmt.Sprintf("anonymous_enum_%x", id)
		ed := stomtypes.NewEnumDef()
		item := &stomtypes.DeclItem{Kind: stomtypes.ItemEnum, Name: name, TypeID: uint16(id), Enum: ed}
		if err := p.file.AddItem(item); err != nil {
			return stomtypes.TypeId{}, stomtypes.NewTypeError(p.here(), "%v", err)
		}
		if err := p.parseEnumVariants(ed); err != nil {
			return stomtypes.TypeId{}, err
		}
		if ed.Len() == 0 {
			return stomtypes.TypeId{}, stomtypes.NewTypeError(p.here(), "anonymous enum must declare at least one variant")
		}
		t := p.file.TypeIDOf(uint16(id))
		t.Metadata = metas
		return t, nil

	default:
		pos := p.here()
		nameTok, err := p.expectIdentAny()
		if err != nil {
			return stomtypes.TypeId{}, err
		}
		if b, ok := stomtypes.LookupBuiltin(nameTok.Text); ok {
			t := stomtypes.BuiltinType(b)
			t.Metadata = metas
			return t, nil
		}
		if t, ok := p.ctx.Resolve(nameTok.Text); ok {
			t.Metadata = metas
			return t, nil
		}
		if p.curIsSymbol(".") && p.ctx.HasNamespace(nameTok.Text) {
			p.advance()
			uTok, err := p.expectIdentAny()
			if err != nil {
				return stomtypes.TypeId{}, err
			}
			t, ok := p.ctx.ResolveNS(nameTok.Text, uTok.Text)
			if !ok {
				return stomtypes.TypeId{}, stomtypes.NewTypeError(pos, "unknown type %q in namespace %q", uTok.Text, nameTok.Text)
			}
			t.Metadata = metas
			return t, nil
		}
		return stomtypes.TypeId{}, stomtypes.NewTypeError(pos, "unknown type %q", nameTok.Text)
	}
}
