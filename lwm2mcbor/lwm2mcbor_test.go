package lwm2mcbor

import (
	"testing"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTwoSiblingResources(t *testing.T) {
	// scenario 3: [(/3/3/3, u=25), (/3/3/1, u=11)] ->
	// BF 03 BF 03 BF 03 18 19 01 0B FF FF FF
	e := NewEncoder(path.Root(), 2)
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(3, 3, 3), Value: value.Uint64(25)}))
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(3, 3, 1), Value: value.Uint64(11)}))
	out := e.Close()

	expected := []byte{0xBF, 0x03, 0xBF, 0x03, 0xBF, 0x03, 0x18, 0x19, 0x01, 0x0B, 0xFF, 0xFF, 0xFF}
	assert.Equal(t, expected, out)
}

func TestDecodeTwoSiblingResources(t *testing.T) {
	data := []byte{0xBF, 0x03, 0xBF, 0x03, 0xBF, 0x03, 0x18, 0x19, 0x01, 0x0B, 0xFF, 0xFF, 0xFF}

	d := NewDecoder(path.Root())
	require.NoError(t, d.Feed(data, true))

	e1, err := d.GetEntry()
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3", e1.Path.String())
	assert.Equal(t, value.KindUint, e1.Value.Kind)
	assert.Equal(t, uint64(25), e1.Value.Uint)

	e2, err := d.GetEntry()
	require.NoError(t, err)
	assert.Equal(t, "/3/3/1", e2.Path.String())
	assert.Equal(t, uint64(11), e2.Value.Uint)

	_, err = d.GetEntry()
	assert.Equal(t, ErrEOF, err)
}

func TestEncodeRejectsRepeatedPath(t *testing.T) {
	e := NewEncoder(path.Root(), 2)
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(3, 3, 3), Value: value.Uint64(1)}))
	err := e.WriteEntry(Entry{Path: path.MustNew(3, 3, 3), Value: value.Uint64(2)})
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestDecodeRejectsPathOutsideBase(t *testing.T) {
	e := NewEncoder(path.Root(), 1)
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(4, 0, 1), Value: value.Uint64(1)}))
	out := e.Close()

	d := NewDecoder(path.MustNew(3))
	require.NoError(t, d.Feed(out, true))
	_, err := d.GetEntry()
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}
