package scanresults

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTypeSize(t *testing.T) {
	require.Equal(t, 1, TypeByte.Size())
	require.Equal(t, 2, TypeWord.Size())
	require.Equal(t, 4, TypeDword.Size())
	require.Equal(t, 8, TypeQword.Size())
	require.Equal(t, 4, TypeFloat.Size())
	require.Equal(t, 8, TypeDouble.Size())
	require.Equal(t, 4, TypeAuto.Size())
	require.Equal(t, 4, TypeXor.Size())
}

func TestValueTypeIsFloat(t *testing.T) {
	require.True(t, TypeFloat.IsFloat())
	require.True(t, TypeDouble.IsFloat())
	require.False(t, TypeDword.IsFloat())
	require.False(t, TypeAuto.IsFloat())
}

func TestValueTypeTagBytes(t *testing.T) {
	// the tag encoding is part of the spill file format
	require.Equal(t, uint8(0), uint8(TypeByte))
	require.Equal(t, uint8(1), uint8(TypeWord))
	require.Equal(t, uint8(2), uint8(TypeDword))
	require.Equal(t, uint8(3), uint8(TypeQword))
	require.Equal(t, uint8(4), uint8(TypeFloat))
	require.Equal(t, uint8(5), uint8(TypeDouble))
	require.Equal(t, uint8(6), uint8(TypeAuto))
	require.Equal(t, uint8(7), uint8(TypeXor))
}

func TestParseValueType(t *testing.T) {
	for tt := TypeByte; tt <= TypeXor; tt++ {
		parsed, err := ParseValueType(tt.String())
		require.NoError(t, err)
		require.Equal(t, tt, parsed)
	}
	_, err := ParseValueType("int128")
	require.Error(t, err)
}
