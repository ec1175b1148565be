// Package declparse implements the declaration-file grammar of spec §4.2:
// import/struct/enum parsing, type resolution, and tag allocation. It
// hands back a fully populated stomtypes.DeclFile plus the DeclContext the
// textual value parser needs to keep resolving names against the same
// file and its imports.
package declparse

import (
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// DeclContext is the resolution scope produced by parsing one file: the
// file's own items, its plain (unnamespaced) imports in insertion order,
// and its namespaced imports by the name introduced with `as`.
type DeclContext struct {
	File      *stomtypes.DeclFile
	Imports   []*stomtypes.DeclFile
	NSImports map[string]*stomtypes.DeclFile
}

func newDeclContext(file *stomtypes.DeclFile) *DeclContext {
	return &DeclContext{File: file, NSImports: make(map[string]*stomtypes.DeclFile)}
}

// Resolve looks up a bare name against tiers 2-3 of spec §4.2's type
// resolution order: the current file's own items, then each plain import
// in insertion order. Builtins (tier 1) are checked by the caller first.
func (c *DeclContext) Resolve(name string) (stomtypes.TypeId, bool) {
	if it, ok := c.File.ItemByName(name); ok {
		return c.File.TypeIDOf(it.TypeID), true
	}
	for _, imp := range c.Imports {
		if it, ok := imp.ItemByName(name); ok {
			return imp.TypeIDOf(it.TypeID), true
		}
	}
	return stomtypes.TypeId{}, false
}

// ResolveNS looks up tier 4: `ns.name` within the file registered under
// the namespace `ns`.
func (c *DeclContext) ResolveNS(ns, name string) (stomtypes.TypeId, bool) {
	file, ok := c.NSImports[ns]
	if !ok {
		return stomtypes.TypeId{}, false
	}
	it, ok := file.ItemByName(name)
	if !ok {
		return stomtypes.TypeId{}, false
	}
	return file.TypeIDOf(it.TypeID), true
}

// HasNamespace reports whether name names a namespace introduced by an
// `as` import clause.
func (c *DeclContext) HasNamespace(name string) bool {
	_, ok := c.NSImports[name]
	return ok
}

// tagCounter implements spec §4.2's tag allocation rule: a running counter
// starting at 0; an explicit tag must be >= the counter, after which the
// counter becomes explicit+1; an implicit member takes the counter's
// current value and advances it by one.
type tagCounter struct {
	next uint64
	max  uint64
}

func newTagCounter(max uint64) *tagCounter {
	return &tagCounter{max: max}
}

// assign returns the tag to use for the next member. explicit is nil for
// an implicit (sequential) slot.
func (c *tagCounter) assign(explicit *uint64) (uint64, error) {
	if explicit != nil {
		if *explicit < c.next {
			return 0, errTagTooSmall(*explicit, c.next)
		}
		if *explicit > c.max {
			return 0, errTagOverflow(*explicit, c.max)
		}
		c.next = *explicit + 1
		return *explicit, nil
	}
	if c.next > c.max {
		return 0, errTagOverflow(c.next, c.max)
	}
	v := c.next
	c.next++
	return v, nil
}
