package main

import (
	"testing"

	"github.com/anjlabs/anj/codec"
	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatKnownAndUnknown(t *testing.T) {
	f, err := parseFormat("lwm2m-cbor")
	require.NoError(t, err)
	assert.Equal(t, codec.FormatLwM2MCBOR, f)

	_, err = parseFormat("bogus")
	assert.Error(t, err)

	f, err = parseFormat("")
	require.NoError(t, err)
	assert.Equal(t, codec.FormatNotDefined, f)
}

func TestParseAndFormatValueRoundTrip(t *testing.T) {
	cases := []struct {
		kind value.Kind
		raw  string
	}{
		{value.KindInt, "-42"},
		{value.KindUint, "42"},
		{value.KindBool, "true"},
		{value.KindString, "hello"},
	}
	for _, c := range cases {
		v, err := parseValue(c.kind, c.raw)
		require.NoError(t, err)
		assert.Equal(t, c.kind, v.Kind)
		assert.Equal(t, c.raw, formatValue(v))
	}

	v, err := parseValue(value.KindBool, "1")
	require.NoError(t, err)
	assert.True(t, v.Bool)

	_, err = parseValue(value.KindInt, "not-a-number")
	assert.Error(t, err)
}

func TestFormatValueObjlnk(t *testing.T) {
	v := value.Link(3, 0)
	assert.Equal(t, "3:0", formatValue(v))
}
