package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOne(t *testing.T, data []byte) (ValueType, *Decoder) {
	t.Helper()
	d := NewDecoder()
	require.NoError(t, d.Feed(data, true))
	vt, err := d.CurrentValueType()
	require.NoError(t, err)
	return vt, d
}

func TestDecodeSmallUint(t *testing.T) {
	vt, d := decodeOne(t, []byte{0x18, 0x19})
	require.Equal(t, ValueUint, vt)
	n, err := d.Number()
	require.NoError(t, err)
	v, ok := n.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(25), v)

	_, err = d.CurrentValueType()
	assert.Equal(t, ErrEOF, err)
}

func TestDecodeHalfFloat(t *testing.T) {
	// scenario 5: F9 50 00 -> Float 32.0
	vt, d := decodeOne(t, []byte{0xF9, 0x50, 0x00})
	require.Equal(t, ValueFloat, vt)
	n, err := d.Number()
	require.NoError(t, err)
	assert.Equal(t, float64(32.0), n.Float64())
}

func TestDecodeStringTimeWithTimezone(t *testing.T) {
	// scenario 6: C0 78 19 "2003-12-13T18:30:02+01:00" -> Timestamp(UInt, 1071336602)
	text := "2003-12-13T18:30:02+01:00"
	require.Equal(t, 25, len(text))
	data := append([]byte{0xC0, 0x78, 0x19}, []byte(text)...)

	vt, d := decodeOne(t, data)
	require.Equal(t, ValueTimestamp, vt)
	n, err := d.Number()
	require.NoError(t, err)
	v, ok := n.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(1071336602), v)
}

func TestDecodeEpochTime(t *testing.T) {
	data := []byte{0xC1, 0x1A, 0x00, 0x01, 0x86, 0xA0} // tag 1, uint32 100000
	vt, d := decodeOne(t, data)
	require.Equal(t, ValueTimestamp, vt)
	n, err := d.Number()
	require.NoError(t, err)
	v, ok := n.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(100000), v)
}

func TestDecodeEpochTimeOnNonNumberFails(t *testing.T) {
	data := []byte{0xC1, 0x60} // tag 1 followed by empty text string
	d := NewDecoder()
	require.NoError(t, d.Feed(data, true))
	_, err := d.CurrentValueType()
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestDecodeDecimalFraction(t *testing.T) {
	// tag 4, [exponent=-2, mantissa=14076] -> 140.76
	data := []byte{0xC4, 0x82, 0x21, 0x19, 0x36, 0xFC}
	vt, d := decodeOne(t, data)
	require.Equal(t, ValueDouble, vt)
	n, err := d.Number()
	require.NoError(t, err)
	assert.InDelta(t, 140.76, n.Float64(), 1e-9)
}

func TestDecodeIndefiniteArrayEmpty(t *testing.T) {
	data := []byte{0x9F, 0xFF}
	vt, d := decodeOne(t, data)
	require.Equal(t, ValueArray, vt)
	count, err := d.EnterArray()
	require.NoError(t, err)
	assert.Equal(t, -1, count)
	_, err = d.CurrentValueType()
	assert.Equal(t, ErrEOF, err)
}

func TestDecodeIndefiniteMapOddItemsIsFormatError(t *testing.T) {
	// {_ "a": 1, "b": } - break right after a lone key
	data := []byte{0xBF, 0x61, 'a', 0x01, 0x61, 'b', 0xFF}
	vt, d := decodeOne(t, data)
	require.Equal(t, ValueMap, vt)
	_, err := d.EnterMap()
	require.NoError(t, err)

	// "a", 1, "b" consume cleanly; the break that follows lands mid-pair.
	for i := 0; i < 3; i++ {
		_, err = d.CurrentValueType()
		require.NoError(t, err)
		if vt, _ := d.CurrentValueType(); vt == ValueText {
			_, _, err = d.BytesGetSome()
			require.NoError(t, err)
		} else {
			_, err = d.Number()
			require.NoError(t, err)
		}
	}
	_, err = d.CurrentValueType()
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestDecodeWantMoreThenFeed(t *testing.T) {
	d := NewDecoder()
	require.NoError(t, d.Feed([]byte{0x18}, false))
	_, err := d.CurrentValueType()
	assert.Equal(t, ErrWantMore, err)

	require.NoError(t, d.Feed([]byte{0x19}, true))
	vt, err := d.CurrentValueType()
	require.NoError(t, err)
	assert.Equal(t, ValueUint, vt)
	n, err := d.Number()
	require.NoError(t, err)
	v, _ := n.Uint64()
	assert.Equal(t, uint64(25), v)
}

func TestDecodeBoolAndNull(t *testing.T) {
	vt, d := decodeOne(t, []byte{0xF5})
	require.Equal(t, ValueBool, vt)
	b, err := d.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	vt, d = decodeOne(t, []byte{0xF6})
	require.Equal(t, ValueNull, vt)
	require.NoError(t, d.Null())
}

func TestEncodeDecodeIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 23, 24, 255, 256, 65535, 65536, -100000} {
		buf := make([]byte, 9)
		n := EncodeInt(buf, v)
		vt, d := decodeOne(t, buf[:n])
		if v >= 0 {
			require.Equal(t, ValueUint, vt)
		} else {
			require.Equal(t, ValueNegInt, vt)
		}
		num, err := d.Number()
		require.NoError(t, err)
		got, ok := num.Int64()
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestEncodeDecodeDoubleCollapsesToFloat(t *testing.T) {
	buf := make([]byte, 9)
	n := EncodeDouble(buf, 32.0)
	assert.Equal(t, 5, n)

	vt, d := decodeOne(t, buf[:n])
	require.Equal(t, ValueFloat, vt)
	num, err := d.Number()
	require.NoError(t, err)
	assert.Equal(t, float64(32.0), num.Float64())
}

func TestDecodeDefiniteStringChunked(t *testing.T) {
	data := append([]byte{0x67}, []byte("0123456")...) // text, length 7
	vt, d := decodeOne(t, data)
	require.Equal(t, ValueText, vt)
	total, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	var got []byte
	for {
		chunk, finished, err := d.BytesGetSome()
		require.NoError(t, err)
		got = append(got, chunk...)
		if finished {
			break
		}
	}
	assert.Equal(t, "0123456", string(got))
}
