package provider

import (
	"fmt"
	"path/filepath"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/internal/mmfile"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16leBOM = []byte{0xFF, 0xFE}
)

// FSProvider resolves declaration names against `.structom` files under a
// root directory. Each file is read through internal/mmfile.Map, copied
// into a string for parsing, and released again once Load has parsed it.
// A name is joined onto root with
// filepath.Join: this is the one place a logical, `/`-separated
// declaration name meets a real OS path — declparse's own relative-import
// resolution never touches the filesystem.
type FSProvider struct {
	mu sync.Mutex

	root   string
	opts   declparse.ParseOptions
	byName map[string]*stomtypes.DeclFile
	byNS   map[uint64]*stomtypes.DeclFile
	ctx    map[string]*declparse.DeclContext
	nextID uint64
}

func NewFSProvider(root string, opts declparse.ParseOptions) *FSProvider {
	return &FSProvider{
		root:   root,
		opts:   opts,
		byName: make(map[string]*stomtypes.DeclFile),
		byNS:   make(map[uint64]*stomtypes.DeclFile),
		ctx:    make(map[string]*declparse.DeclContext),
		nextID: 1,
	}
}

func (p *FSProvider) Get(ns uint64) *stomtypes.DeclFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byNS[ns]
}

func (p *FSProvider) Load(name string) (*stomtypes.DeclFile, *stomtypes.ImportError) {
	f, _, err := p.LoadWithContext(name)
	return f, err
}

// LoadWithContext is Load plus the declparse.DeclContext produced while
// parsing name, for a caller (e.g. structomctl) that needs to resolve
// textual value literals against name's own import scope via
// internal/valuetext.Parse. See MemProvider.LoadWithContext for why this
// is cached at first parse rather than rederived on a cache hit.
func (p *FSProvider) LoadWithContext(name string) (*stomtypes.DeclFile, *declparse.DeclContext, *stomtypes.ImportError) {
	p.mu.Lock()
	if f, ok := p.byName[name]; ok {
		c := p.ctx[name]
		p.mu.Unlock()
		return f, c, nil
	}
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	path := filepath.Join(p.root, filepath.FromSlash(name))
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, nil, stomtypes.NewImportOtherError(name, err.Error())
	}
	defer cleanup()

	text, derr := decodeSource(data)
	if derr != nil {
		return nil, nil, stomtypes.NewImportOtherError(name, derr.Error())
	}

	file, declCtx, perr := declparse.Parse(p, id, name, text, p.opts)
	if perr != nil {
		pe, ok := perr.(*stomtypes.ParseError)
		if !ok {
			return nil, nil, stomtypes.NewImportOtherError(name, perr.Error())
		}
		return nil, nil, stomtypes.NewImportParseError(name, pe)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.byName[name]; ok {
		return existing, p.ctx[name], nil
	}
	p.byName[name] = file
	p.byNS[id] = file
	p.ctx[name] = declCtx
	return file, declCtx, nil
}

// decodeSource strips a UTF-16LE or UTF-8 byte-order mark and transcodes
// legacy Windows-1252 source (a `.structom` file saved by a non-UTF-8-aware
// editor) into UTF-8.
func decodeSource(data []byte) (string, error) {
	switch {
	case len(data) >= 2 && data[0] == utf16leBOM[0] && data[1] == utf16leBOM[1]:
		u16 := make([]uint16, 0, (len(data)-2)/2)
		for i := 2; i+1 < len(data); i += 2 {
			u16 = append(u16, uint16(data[i])|uint16(data[i+1])<<8)
		}
		return string(utf16.Decode(u16)), nil
	case len(data) >= 3 && data[0] == utf8BOM[0] && data[1] == utf8BOM[1] && data[2] == utf8BOM[2]:
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("provider: legacy-encoding decode failed: %w", err)
	}
	return string(decoded), nil
}
