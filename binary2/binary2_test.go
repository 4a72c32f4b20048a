package binary2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteUint32BE(buf, 0xDEADBEEF)
	buf = WriteUint16BE(buf, 0x1234)
	buf = WriteUint64BE(buf, 0x0102030405060708)

	v32, err := ReadUint32BE(buf, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v32)

	v16, err := ReadUint16BE(buf, 4)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), v16)

	v64, err := ReadUint64BE(buf, 6)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), v64)
}

func TestReadShortBuffer(t *testing.T) {
	_, err := ReadUint32BE([]byte{1, 2}, 0)
	require.ErrorIs(t, err, ErrShortBuffer)

	_, err = ReadUint32BE([]byte{1, 2, 3, 4}, -1)
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestCStringRoundTrip(t *testing.T) {
	buf := WriteCString(nil, "c2pa.assertions")
	buf = append(buf, 0xFF, 0xFF) // trailing garbage must not be consumed

	s, n, err := ReadCString(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "c2pa.assertions", s)
	require.Equal(t, len("c2pa.assertions")+1, n)
}

func TestReadCStringUnterminated(t *testing.T) {
	_, _, err := ReadCString([]byte("no terminator"), 0)
	require.ErrorIs(t, err, ErrUnterminated)
}

func TestSynchsafeRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 200000, 0x0FFFFFFF} {
		enc := ToSynchsafe32(v)
		require.Equal(t, v, Synchsafe32(enc))
	}
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual([]byte("abc"), []byte("abc")))
	require.False(t, ConstantTimeEqual([]byte("abc"), []byte("abd")))
	require.False(t, ConstantTimeEqual([]byte("abc"), []byte("ab")))
}
