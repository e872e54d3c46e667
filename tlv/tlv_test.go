package tlv

import (
	"testing"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIntRoundTrip(t *testing.T) {
	// scenario 1: C1 01 2A with base /3/4 -> (/3/4/1, int=42), then Eof.
	base := path.MustNew(3, 4)
	d := NewDecoder(base)
	require.NoError(t, d.Feed([]byte{0xC1, 0x01, 0x2A}, true))

	p, err := d.Path()
	require.NoError(t, err)
	assert.Equal(t, "/3/4/1", p.String())

	n, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, d.Next())
	_, err = d.Path()
	assert.Equal(t, ErrEOF, err)

	e := NewEncoder(base)
	require.NoError(t, e.WriteEntry(p, value.Int64(42)))
	out, err := e.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC1, 0x01, 0x2A}, out)
}

func TestDecodeStreamingBytes(t *testing.T) {
	// scenario 7: C7 2A "012" then "3456" fed in two chunks, is_last on the
	// second -> one entry (/3/4/42, bytes="0123456") in two chunks at
	// offsets 0 and 3.
	base := path.MustNew(3, 4)
	d := NewDecoder(base)
	require.NoError(t, d.Feed(append([]byte{0xC7, 0x2A}, []byte("012")...), false))

	p, err := d.Path()
	require.NoError(t, err)
	assert.Equal(t, "/3/4/42", p.String())

	length, err := d.DeclaredLength()
	require.NoError(t, err)
	assert.Equal(t, 7, length)

	chunk, finished, err := d.BytesChunk()
	require.NoError(t, err)
	assert.Equal(t, "012", string(chunk))
	assert.False(t, finished)

	_, _, err = d.BytesChunk()
	assert.Equal(t, ErrWantMore, err)

	require.NoError(t, d.Feed([]byte("3456"), true))
	chunk, finished, err = d.BytesChunk()
	require.NoError(t, err)
	assert.Equal(t, "3456", string(chunk))
	assert.True(t, finished)

	require.NoError(t, d.Next())
	_, err = d.Path()
	assert.Equal(t, ErrEOF, err)
}

func TestDecodeNestedObjectInstance(t *testing.T) {
	// IID 0 containing RID 1 = 42, under base /3.
	base := path.MustNew(3)
	d := NewDecoder(base)
	require.NoError(t, d.Feed([]byte{0x03, 0x00, 0xC1, 0x01, 0x2A}, true))

	p, err := d.Path()
	require.NoError(t, err)
	assert.Equal(t, "/3/0/1", p.String())

	n, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, d.Next())
	_, err = d.Path()
	assert.Equal(t, ErrEOF, err)
}

func TestDecodeZeroLengthResourceIsNotNull(t *testing.T) {
	// Resource Instance with zero length decodes as Null; a zero-length
	// plain Resource does not.
	base := path.MustNew(3, 0)
	d := NewDecoder(base)
	require.NoError(t, d.Feed([]byte{0xC0, 0x01}, true)) // RID 1, length 0

	_, err := d.Path()
	require.NoError(t, err)
	isNull, err := d.IsNull()
	require.NoError(t, err)
	assert.False(t, isNull, "a zero-length Resource entry is not Null")
}

func TestEncodeTwoSiblingsUnderInstance(t *testing.T) {
	base := path.MustNew(3, 0)
	e := NewEncoder(base)

	p1 := path.MustNew(3, 0, 1)
	require.NoError(t, e.WriteEntry(p1, value.Int64(1)))
	p2 := path.MustNew(3, 0, 2)
	require.NoError(t, e.WriteEntry(p2, value.Int64(2)))

	out, err := e.Close()
	require.NoError(t, err)

	d := NewDecoder(base)
	require.NoError(t, d.Feed(out, true))

	p, err := d.Path()
	require.NoError(t, err)
	assert.Equal(t, "/3/0/1", p.String())
	n, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, d.Next())

	p, err = d.Path()
	require.NoError(t, err)
	assert.Equal(t, "/3/0/2", p.String())
	n, err = d.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, d.Next())

	_, err = d.Path()
	assert.Equal(t, ErrEOF, err)
}

func TestDeclaredLengthOverflowRejected(t *testing.T) {
	base := path.Root()
	e := NewEncoder(base)
	big := value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: make([]byte, maxDeclaredLength+1)}}
	err := e.WriteEntry(path.MustNew(3, 0, 1), big)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}
