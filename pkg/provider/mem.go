// Package provider implements the two stomtypes.Provider collaborators
// spec §6.1 names: an in-memory one for tests and tooling that already
// holds source text, and a filesystem-backed one for real `.structom`
// trees.
package provider

import (
	"sync"

	"github.com/ravelin-dev/structom/internal/declparse"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// MemProvider resolves declaration names against a fixed set of source
// strings registered up front, parsing each one lazily on first Load and
// caching the result — the same load-once-cache-by-id shape as
// FSProvider, minus any I/O.
type MemProvider struct {
	mu sync.Mutex

	src    map[string]string
	opts   declparse.ParseOptions
	byName map[string]*stomtypes.DeclFile
	byNS   map[uint64]*stomtypes.DeclFile
	ctx    map[string]*declparse.DeclContext
	nextID uint64
}

// NewMemProvider returns an empty MemProvider. Register source with Add
// before calling Load/Get.
func NewMemProvider(opts declparse.ParseOptions) *MemProvider {
	return &MemProvider{
		src:    make(map[string]string),
		opts:   opts,
		byName: make(map[string]*stomtypes.DeclFile),
		byNS:   make(map[uint64]*stomtypes.DeclFile),
		ctx:    make(map[string]*declparse.DeclContext),
		nextID: 1,
	}
}

// Add registers src under name, available to a later Load or import.
func (p *MemProvider) Add(name, src string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src[name] = src
}

func (p *MemProvider) Get(ns uint64) *stomtypes.DeclFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byNS[ns]
}

func (p *MemProvider) Load(name string) (*stomtypes.DeclFile, *stomtypes.ImportError) {
	f, _, err := p.LoadWithContext(name)
	return f, err
}

// LoadWithContext is Load plus the declparse.DeclContext a caller
// resolving textual value literals against name's own namespace needs
// (internal/valuetext.Parse's ctx argument) — Load alone only hands back
// the finished DeclFile, discarding the import-resolution scope that
// produced it. The context is cached alongside the DeclFile at first
// parse rather than rederived later, since a fresh declparse.Parse call
// would mint a new DeclFile with a different id.
func (p *MemProvider) LoadWithContext(name string) (*stomtypes.DeclFile, *declparse.DeclContext, *stomtypes.ImportError) {
	p.mu.Lock()
	if f, ok := p.byName[name]; ok {
		c := p.ctx[name]
		p.mu.Unlock()
		return f, c, nil
	}
	src, ok := p.src[name]
	if !ok {
		p.mu.Unlock()
		return nil, nil, stomtypes.NewImportNotFound(name)
	}
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	file, declCtx, err := declparse.Parse(p, id, name, src, p.opts)
	if err != nil {
		pe, ok := err.(*stomtypes.ParseError)
		if !ok {
			return nil, nil, stomtypes.NewImportOtherError(name, err.Error())
		}
		return nil, nil, stomtypes.NewImportParseError(name, pe)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have loaded the same name while we parsed
	// without the lock held; keep whichever result won the race so every
	// caller observes one DeclFile per name, per the Provider contract.
	if existing, ok := p.byName[name]; ok {
		return existing, p.ctx[name], nil
	}
	p.byName[name] = file
	p.byNS[id] = file
	p.ctx[name] = declCtx
	return file, declCtx, nil
}
