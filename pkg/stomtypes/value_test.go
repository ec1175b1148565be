package stomtypes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEqualNaN(t *testing.T) {
	nan := VFloat(math.NaN())
	require.False(t, nan.Equal(nan), "NaN must compare unequal to itself")
}

func TestValueEqualMapOrderInsensitive(t *testing.T) {
	a := VMap([]MapEntry{
		{Key: KeyStr("a"), Value: VInt(1)},
		{Key: KeyStr("b"), Value: VInt(2)},
	})
	b := VMap([]MapEntry{
		{Key: KeyStr("b"), Value: VInt(2)},
		{Key: KeyStr("a"), Value: VInt(1)},
	})
	require.True(t, a.Equal(b))
}

func TestValueEqualArrOrderSensitive(t *testing.T) {
	a := VArr([]Value{VInt(1), VInt(2)})
	b := VArr([]Value{VInt(2), VInt(1)})
	require.False(t, a.Equal(b))
}

func TestTypeIdAnyEqualsAnything(t *testing.T) {
	require.True(t, Any.Equal(BuiltinType(BU8)))
	require.True(t, BuiltinType(BU8).Equal(Any))
}

func TestTypeIdStructuralEquality(t *testing.T) {
	a := ArrOf(BuiltinType(BU8))
	b := ArrOf(BuiltinType(BU8))
	c := ArrOf(BuiltinType(BI8))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestStructDefTagOrder(t *testing.T) {
	s := NewStructDef()
	require.NoError(t, s.AddField(&Field{Name: "y", Tag: 2, Type: BuiltinType(BI32)}))
	require.NoError(t, s.AddField(&Field{Name: "x", Tag: 0, Type: BuiltinType(BI32)}))
	require.NoError(t, s.AddField(&Field{Name: "opt", Tag: 1, Type: BuiltinType(BStr), Optional: true}))

	fields := s.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, "x", fields[0].Name)
	require.Equal(t, "opt", fields[1].Name)
	require.Equal(t, "y", fields[2].Name)
	require.Equal(t, 2, s.RequiredFields)
}

func TestStructDefDuplicateTag(t *testing.T) {
	s := NewStructDef()
	require.NoError(t, s.AddField(&Field{Name: "a", Tag: 0, Type: BuiltinType(BU8)}))
	err := s.AddField(&Field{Name: "b", Tag: 0, Type: BuiltinType(BU8)})
	require.Error(t, err)
}

func TestDeclFileEqualityByID(t *testing.T) {
	a := NewDeclFile(1, "a.structom")
	b := NewDeclFile(1, "b.structom")
	c := NewDeclFile(2, "a.structom")
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
