package varint

import (
	"bytes"
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVUintRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 127, 128, 16383, 16384, math.MaxUint32, math.MaxUint64}
	for _, v := range vals {
		enc := EncodeUint(nil, v)
		got, n, err := DecodeUint(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, v, got)
	}
}

func TestVUintLength(t *testing.T) {
	// encode_vuint(n) has length ceil(bits(n)/7) for n>0, length 1 for n=0.
	require.Equal(t, 1, len(EncodeUint(nil, 0)))
	cases := []uint64{1, 63, 64, 127, 128, 16383, 16384, 1 << 35, math.MaxUint64}
	for _, v := range cases {
		want := (bits.Len64(v) + 6) / 7
		if want == 0 {
			want = 1
		}
		got := len(EncodeUint(nil, v))
		require.Equal(t, want, got, "v=%d", v)
		require.Equal(t, want, ByteLenUint(v))
	}
}

func TestVIntRoundTrip(t *testing.T) {
	vals := []int64{0, 1, -1, 63, 64, -64, -65, 1000, -1000, math.MaxInt64, math.MinInt64}
	for _, v := range vals {
		enc := EncodeInt(nil, v)
		got, n, err := DecodeInt(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, v, got)
	}
}

// TestVIntBoundaries is the spec §9 Open Question regression: vint and
// vuint must agree on 0..63 and diverge starting at 64 (where vuint needs
// one byte but vint needs two, since 64's low 7 bits look like a negative
// 2's-complement group without an extra byte to clear the sign bit).
func TestVIntBoundaries(t *testing.T) {
	for _, v := range []int64{-65, -64, 63, 64} {
		enc := EncodeInt(nil, v)
		got, _, err := DecodeInt(enc)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	for v := int64(0); v <= 63; v++ {
		vu := EncodeUint(nil, uint64(v))
		vi := EncodeInt(nil, v)
		require.Equal(t, vu, vi, "v=%d", v)
	}
	vu64 := EncodeUint(nil, 64)
	vi64 := EncodeInt(nil, 64)
	require.NotEqual(t, vu64, vi64)
	require.Len(t, vu64, 1)
	require.Len(t, vi64, 2)
}

func TestDecodeUintTruncated(t *testing.T) {
	_, _, err := DecodeUint([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUintOverflow(t *testing.T) {
	overlong := bytes.Repeat([]byte{0x80}, 11)
	_, _, err := DecodeUint(overlong)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestLenPrefixPadding(t *testing.T) {
	buf := &bytes.Buffer{}
	p := Reserve(buf)
	buf.WriteString("hello")
	require.NoError(t, p.Patch(5))
	data := buf.Bytes()
	require.Len(t, data, ReservedLenBytes+5)
	n, consumed, err := DecodeUint(data[:ReservedLenBytes])
	require.NoError(t, err)
	require.Equal(t, ReservedLenBytes, consumed)
	require.Equal(t, uint64(5), n)
	require.Equal(t, "hello", string(data[ReservedLenBytes:]))
}

func TestLenPrefixRejectsOversize(t *testing.T) {
	buf := &bytes.Buffer{}
	p := Reserve(buf)
	require.ErrorIs(t, p.Patch(MaxReservedLen+1), ErrLengthTooLarge)
}
