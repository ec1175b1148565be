// Package varint implements the LEB128-style vuint/vint primitives of
// spec §4.4.2, plus the rewritable length-prefix primitive the binary
// codec uses for class-0b101 fields whose body carries no length of its
// own (spec §4.4.1/§9).
package varint

import "errors"

// MaxVarintBytes bounds decoding: a valid vuint/vint for a 64-bit value
// never needs more than 10 bytes (ceil(64/7)); anything longer is
// malformed input (spec §4.6: "invalid vuint overflow (>10 bytes)").
const MaxVarintBytes = 10

var (
	ErrTruncated = errors.New("varint: truncated input")
	ErrOverflow  = errors.New("varint: more than 10 bytes")
)

// EncodeUint appends the vuint encoding of v to dst and returns the result.
func EncodeUint(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// DecodeUint reads a vuint from the front of src, returning the value and
// the number of bytes consumed.
func DecodeUint(src []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= MaxVarintBytes {
			return 0, 0, ErrOverflow
		}
		if i >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[i]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
}

// EncodeInt appends the vint (sign-extending LEB128) encoding of v to dst.
func EncodeInt(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			dst = append(dst, b)
			return dst
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeInt reads a vint from the front of src, returning the value and the
// number of bytes consumed. Termination depends on the 7th bit of the last
// byte (spec §9 Open Question: {-65,-64,63,64} are the boundary values to
// test).
func DecodeInt(src []byte) (int64, int, error) {
	var result int64
	var shift uint
	var last byte
	n := 0
	for {
		if n >= MaxVarintBytes {
			return 0, 0, ErrOverflow
		}
		if n >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[n]
		last = b
		result |= int64(b&0x7f) << shift
		shift += 7
		n++
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && last&0x40 != 0 {
		result |= -1 << shift
	}
	return result, n, nil
}

// ByteLenUint returns the encoded length of v, matching EncodeUint without
// allocating.
func ByteLenUint(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
