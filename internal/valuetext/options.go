// Package valuetext implements the schema-aware textual value grammar of
// spec §4.3 (parser) and its inverse (§9 stringifier): the same token
// stream lex tokenizes for declarations is walked here against an
// expected TypeId to build a stomtypes.Value, and Stringify walks a
// Value back into that same textual form for round-trip tests and the
// `obj` CLI format.
package valuetext

// ParseOptions mirrors declparse.ParseOptions' metadata switch and adds
// an enums switch: Enums gates whether a bare identifier is tried as an
// enum variant shortcut at all. With Enums false, an identifier at a
// value position is only ever resolved as an explicit typeid reference,
// never as a variant shortcut. Parsing and stringifying a value with the
// same options round-trips when both Metadata and Enums are enabled.
type ParseOptions struct {
	Metadata bool
	Enums    bool
}
