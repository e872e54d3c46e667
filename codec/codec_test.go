package codec

import (
	"math"
	"testing"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseFormatAutoNegotiation(t *testing.T) {
	f, err := chooseFormat(1, FormatNotDefined)
	require.NoError(t, err)
	assert.Equal(t, FormatCBOR, f)

	f, err = chooseFormat(3, FormatNotDefined)
	require.NoError(t, err)
	assert.Equal(t, FormatSenMLCBOR, f)

	f, err = chooseFormat(3, FormatTLV)
	require.NoError(t, err)
	assert.Equal(t, FormatTLV, f)
}

func TestOutputContextBareCBORSingleValue(t *testing.T) {
	// scenario 2: (/3/3/3, uint=25) with format CBOR -> 18 19.
	base := path.MustNew(3, 3, 3)
	ctx, err := NewOutputContext(OpRead, base, 1, FormatNotDefined, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, FormatCBOR, ctx.GetFormat())

	require.NoError(t, ctx.NewEntry(Entry{Path: base, Value: value.Uint64(25), Timestamp: math.NaN()}))

	dst := make([]byte, 8)
	n, more, err := ctx.GetPayload(dst)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []byte{0x18, 0x19}, dst[:n])
}

func TestInputOutputContextBareCBORRoundTrip(t *testing.T) {
	base := path.MustNew(3, 3, 3)
	in, err := NewInputContext(OpRead, base, FormatCBOR, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, in.Feed([]byte{0x18, 0x19}, true))

	e, err := in.GetEntry(value.KindUint)
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3", e.Path.String())
	u, ok := e.Value.AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(25), u)

	_, err = in.GetEntry(value.KindUint)
	assert.Equal(t, ErrEOF, err)
}

func TestOutputContextLwM2MCBORForced(t *testing.T) {
	// scenario 3: two sibling resources, forced LwM2M-CBOR.
	base := path.MustNew(3, 3)
	ctx, err := NewOutputContext(OpRead, base, 2, FormatLwM2MCBOR, DefaultLimits())
	require.NoError(t, err)

	require.NoError(t, ctx.NewEntry(Entry{Path: path.MustNew(3, 3, 3), Value: value.Uint64(25), Timestamp: math.NaN()}))
	require.NoError(t, ctx.NewEntry(Entry{Path: path.MustNew(3, 3, 1), Value: value.Uint64(11), Timestamp: math.NaN()}))

	dst := make([]byte, 64)
	n, more, err := ctx.GetPayload(dst)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []byte{0xBF, 0x03, 0xBF, 0x03, 0xBF, 0x03, 0x18, 0x19, 0x01, 0x0B, 0xFF, 0xFF, 0xFF}, dst[:n])
}

func TestInputContextTLVIntRoundTrip(t *testing.T) {
	// scenario 1: C1 01 2A with base /3/4 -> (/3/4/1, int=42) then Eof.
	base := path.MustNew(3, 4)
	in, err := NewInputContext(OpRead, base, FormatTLV, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, in.Feed([]byte{0xC1, 0x01, 0x2A}, true))

	e, err := in.GetEntry(value.KindInt)
	require.NoError(t, err)
	assert.Equal(t, "/3/4/1", e.Path.String())
	i, ok := e.Value.AsInt64(false)
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, err = in.GetEntry(value.KindInt)
	assert.Equal(t, ErrEOF, err)

	_, err = in.GetEntry(value.KindInt)
	var le *LogicError
	assert.ErrorAs(t, err, &le)
}

func TestInputContextTLVAmbiguousHintWantsDisambiguation(t *testing.T) {
	base := path.MustNew(3, 4)
	in, err := NewInputContext(OpRead, base, FormatTLV, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, in.Feed([]byte{0xC1, 0x01, 0x2A}, true))

	_, err = in.GetEntry(value.KindInt | value.KindUint)
	assert.Equal(t, ErrWantTypeDisambiguation, err)
}

func TestPlaintextRoundTripInt(t *testing.T) {
	base := path.MustNew(3, 0, 1)
	out, err := NewOutputContext(OpRead, base, 1, FormatPlaintext, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, out.NewEntry(Entry{Path: base, Value: value.Int64(-7), Timestamp: math.NaN()}))

	dst := make([]byte, 16)
	n, _, err := out.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, "-7", string(dst[:n]))

	in, err := NewInputContext(OpWrite, base, FormatPlaintext, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, in.Feed(dst[:n], true))
	e, err := in.GetEntry(value.KindInt)
	require.NoError(t, err)
	i, ok := e.Value.AsInt64(false)
	require.True(t, ok)
	assert.Equal(t, int64(-7), i)
}

func TestPlaintextFeedOverflowsBufferTooShort(t *testing.T) {
	base := path.MustNew(3, 0, 1)
	limits := DefaultLimits()
	limits.MaxShortStringLen = 4
	in, err := NewInputContext(OpWrite, base, FormatPlaintext, limits)
	require.NoError(t, err)

	err = in.Feed([]byte("12345"), true)
	assert.Equal(t, ErrBufferTooShort, err)
}
