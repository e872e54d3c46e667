package senml

import (
	"testing"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNotifyWithTimestamp(t *testing.T) {
	// scenario 4: (/3/3/3, u=25, t=100000.0) in Notify -> bytes starting
	// with 81 A3 00 66 "/3/3/3" 22 FA 47 C3 50 00 02 18 19.
	p := path.MustNew(3, 3, 3)
	e := NewEncoder(path.Root(), 1, true)
	require.NoError(t, e.WriteEntry(Entry{Path: p, Value: value.Uint64(25), Timestamp: 100000.0, HasValue: true}))
	out := e.Close()

	expected := append([]byte{0x81, 0xA3, 0x00, 0x66}, []byte("/3/3/3")...)
	expected = append(expected, 0x22, 0xFA, 0x47, 0xC3, 0x50, 0x00, 0x02, 0x18, 0x19)
	assert.Equal(t, expected, out)
}

func TestDecodeNotifyWithTimestamp(t *testing.T) {
	data := append([]byte{0x81, 0xA3, 0x00, 0x66}, []byte("/3/3/3")...)
	data = append(data, 0x22, 0xFA, 0x47, 0xC3, 0x50, 0x00, 0x02, 0x18, 0x19)

	d := NewDecoder(path.Root(), false)
	require.NoError(t, d.Feed(data, true))

	entry, err := d.GetEntry()
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3", entry.Path.String())
	assert.Equal(t, value.KindUint, entry.Value.Kind)
	assert.Equal(t, uint64(25), entry.Value.Uint)
	assert.Equal(t, 100000.0, entry.Timestamp)
}

func TestEncodeTwoEntriesSharedBasename(t *testing.T) {
	base := path.MustNew(3, 3)
	e := NewEncoder(base, 2, false)

	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(3, 3, 3), Value: value.Uint64(25), HasValue: true}))
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(3, 3, 1), Value: value.Uint64(11), HasValue: true}))

	out := e.Close()

	d := NewDecoder(base, false)
	require.NoError(t, d.Feed(out, true))

	e1, err := d.GetEntry()
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3", e1.Path.String())
	assert.Equal(t, uint64(25), e1.Value.Uint)

	e2, err := d.GetEntry()
	require.NoError(t, err)
	assert.Equal(t, "/3/3/1", e2.Path.String())
	assert.Equal(t, uint64(11), e2.Value.Uint)

	_, err = d.GetEntry()
	assert.Equal(t, ErrEOF, err)
}

func TestDecodeRejectsPathOutsideBase(t *testing.T) {
	base := path.MustNew(3, 3)
	e := NewEncoder(path.Root(), 1, false)
	require.NoError(t, e.WriteEntry(Entry{Path: path.MustNew(4, 0, 1), Value: value.Uint64(1), HasValue: true}))
	out := e.Close()

	d := NewDecoder(base, false)
	require.NoError(t, d.Feed(out, true))
	_, err := d.GetEntry()
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}
