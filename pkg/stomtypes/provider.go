package stomtypes

// Provider is the declaration-file collaborator of spec §6.1: `Get` is
// infallible and used once a TypeId's ns is already known to resolve
// (the caller guarantees the file was loaded); `Load` performs whatever
// I/O is needed to resolve a name and may fail.
type Provider interface {
	// Get returns the DeclFile with the given id. Callers must only pass
	// ids obtained from a TypeId already produced by this Provider; per
	// spec §6.1 this may panic on an unknown id rather than return an error.
	Get(ns uint64) *DeclFile

	// Load resolves name to a DeclFile, performing I/O if necessary.
	// Idempotent: loading the same name twice returns the same DeclFile.
	Load(name string) (*DeclFile, *ImportError)
}
