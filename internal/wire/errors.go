// Package wire implements Structom's binary codec (spec §4.4-§4.6, §6.3):
// the primitive/rich value encodings, the dynamic (`any`) self-describing
// codec, the schema-aware struct/enum codec with forward-compatible field
// skipping, and the top-level envelope (root coder).
package wire

import (
	"errors"
	"fmt"
)

// ErrDecode is the sentinel every decode failure wraps, except a `buint`
// typeid, which returns ErrReservedType on its own. Per spec §4.6,
// "DecodeFailure" is deliberately a single undifferentiated outcome for
// callers; the wrapped message is for logs, not for branching on.
var ErrDecode = errors.New("wire: decode failure")

// ErrReservedType is returned when a typeid names `buint`, reserved by
// spec §9's Open Question and rejected outright rather than given an
// encoding.
var ErrReservedType = errors.New("wire: buint is reserved and cannot be encoded")

func decodeErrf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDecode)...)
}
