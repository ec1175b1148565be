// Package lex tokenizes Structom source text (declaration files and
// textual value literals share this tokenizer, spec §4.1) into a flat
// token stream carrying (line, column) positions.
package lex

import (
	"math/big"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// Kind discriminates the token shapes of spec §4.1.
type Kind int

const (
	Ident Kind = iota
	String
	Uint
	Int
	BigInt
	Float
	Symbol
	EOF
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Uint:
		return "unsigned integer"
	case Int:
		return "signed integer"
	case BigInt:
		return "big integer"
	case Float:
		return "float"
	case Symbol:
		return "symbol"
	case EOF:
		return "EOF"
	default:
		return "unknown"
	}
}

// Token is one lexical unit, positioned at its first rune.
type Token struct {
	Kind Kind
	Pos  stomtypes.Pos

	// Text holds the raw identifier/symbol text, or the decoded string value.
	Text string

	UintVal   uint64
	IntVal    int64
	BigVal    *big.Int
	FloatVal  float64
}

// Is reports whether t is a Symbol token with the given one-character text.
func (t Token) Is(sym string) bool {
	return t.Kind == Symbol && t.Text == sym
}

// IsIdent reports whether t is an Ident token with the given text (used
// for contextual keywords: true/false/nan/inf/uuid/inst/instN/dur/import/
// as/struct/enum/arr/map, all of which are regular identifiers per
// spec §4.1).
func (t Token) IsIdent(name string) bool {
	return t.Kind == Ident && t.Text == name
}
