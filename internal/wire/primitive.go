package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/ravelin-dev/structom/internal/buf"
	"github.com/ravelin-dev/structom/internal/varint"
)

func encodeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func decodeBool(data []byte) (bool, int, error) {
	if len(data) < 1 {
		return false, 0, decodeErrf("bool: truncated")
	}
	return data[0] != 0, 1, nil
}

func encodeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func encodeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func encodeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func decodeU16(data []byte) (uint16, int, error) {
	if !buf.Has(data, 0, 2) {
		return 0, 0, decodeErrf("u16: truncated")
	}
	return buf.U16LE(data), 2, nil
}

func decodeU32(data []byte) (uint32, int, error) {
	if !buf.Has(data, 0, 4) {
		return 0, 0, decodeErrf("u32: truncated")
	}
	return buf.U32LE(data), 4, nil
}

func decodeU64(data []byte) (uint64, int, error) {
	if !buf.Has(data, 0, 8) {
		return 0, 0, decodeErrf("u64: truncated")
	}
	return buf.U64LE(data), 8, nil
}

// encodeStrBody writes str's self-delimiting body: vuint length then bytes.
func encodeStrBody(buf *bytes.Buffer, s string) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := varint.EncodeUint(lenBuf[:0], uint64(len(s)))
	buf.Write(n)
	buf.WriteString(s)
}

func decodeStrBody(data []byte) (string, int, error) {
	l, n, err := varint.DecodeUint(data)
	if err != nil {
		return "", 0, decodeErrf("str length: %v", err)
	}
	s, ok := buf.Slice(data, n, int(l))
	if !ok {
		return "", 0, decodeErrf("str: truncated body")
	}
	if !utf8.Valid(s) {
		return "", 0, decodeErrf("str: invalid utf-8")
	}
	return string(s), n + int(l), nil
}

// encodeBigIntBody writes bint's self-delimiting body: vuint(byte length
// of sign+magnitude) then a sign byte (0=non-negative,1=negative) then
// big-endian magnitude bytes.
func encodeBigIntBody(buf *bytes.Buffer, v *big.Int) {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	mag := new(big.Int).Abs(v).Bytes()
	buf.Write(varint.EncodeUint(nil, uint64(1+len(mag))))
	buf.WriteByte(sign)
	buf.Write(mag)
}

func decodeBigIntBody(data []byte) (*big.Int, int, error) {
	l, n, err := varint.DecodeUint(data)
	if err != nil {
		return nil, 0, decodeErrf("bint length: %v", err)
	}
	if l < 1 {
		return nil, 0, decodeErrf("bint: truncated body")
	}
	body, ok := buf.Slice(data, n, int(l))
	if !ok {
		return nil, 0, decodeErrf("bint: truncated body")
	}
	sign, mag := body[0], body[1:]
	v := new(big.Int).SetBytes(mag)
	if sign == 1 {
		v.Neg(v)
	}
	return v, n + int(l), nil
}

func encodeUUIDBody(buf *bytes.Buffer, u [16]byte) {
	buf.Write(u[:])
}

func decodeUUIDBody(data []byte) ([16]byte, int, error) {
	var u [16]byte
	body, ok := buf.Slice(data, 0, 16)
	if !ok {
		return u, 0, decodeErrf("uuid: expected 16 bytes, got %d", len(data))
	}
	copy(u[:], body)
	return u, 16, nil
}

// encodeInstBody writes `inst` (milliseconds since epoch, i64, 8 bytes).
func encodeInstBody(buf *bytes.Buffer, t time.Time) {
	encodeU64(buf, uint64(t.UnixMilli()))
}

func decodeInstBody(data []byte) (time.Time, int, error) {
	u, n, err := decodeU64(data)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.UnixMilli(int64(u)).UTC(), n, nil
}

// encodeInstNBody writes `instN` (i64 ms + u32 ns-in-ms, 12 bytes).
func encodeInstNBody(buf *bytes.Buffer, t time.Time) {
	nsInMs := uint32(t.Nanosecond()) % 1_000_000
	encodeU64(buf, uint64(t.UnixMilli()))
	encodeU32(buf, nsInMs)
}

func decodeInstNBody(data []byte) (time.Time, int, error) {
	body, ok := buf.Slice(data, 0, 12)
	if !ok {
		return time.Time{}, 0, decodeErrf("instN: expected 12 bytes, got %d", len(data))
	}
	ms := int64(buf.U64LE(body[0:8]))
	nsInMs := buf.U32LE(body[8:12])
	return time.UnixMilli(ms).UTC().Add(time.Duration(nsInMs) * time.Nanosecond), 12, nil
}

func encodeF32(buf *bytes.Buffer, f float64) {
	encodeU32(buf, math.Float32bits(float32(f)))
}

func decodeF32(data []byte) (float64, int, error) {
	u, n, err := decodeU32(data)
	if err != nil {
		return 0, 0, err
	}
	return float64(math.Float32frombits(u)), n, nil
}

func encodeF64(buf *bytes.Buffer, f float64) {
	encodeU64(buf, math.Float64bits(f))
}

func decodeF64(data []byte) (float64, int, error) {
	u, n, err := decodeU64(data)
	if err != nil {
		return 0, 0, err
	}
	return math.Float64frombits(u), n, nil
}
