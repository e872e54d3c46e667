package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAbsolutePathValid(t *testing.T) {
	p, err := ParseAbsolutePath("/")
	require.NoError(t, err)
	assert.Equal(t, "/", p.String())

	p, err = ParseAbsolutePath("/3/3/3")
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3", p.String())

	p, err = ParseAbsolutePath("/3/3/3/0")
	require.NoError(t, err)
	assert.Equal(t, "/3/3/3/0", p.String())
}

func TestParseAbsolutePathInvalid(t *testing.T) {
	cases := []string{
		"", "3/3", "/3/", "//3", "/3/3/3/0/0", "/-1", "/65535", "/3.0",
	}
	for _, s := range cases {
		_, err := ParseAbsolutePath(s)
		assert.ErrorIs(t, err, ErrFormat, "input %q", s)
	}
}

func TestFormatDoubleShortestRoundTrip(t *testing.T) {
	assert.Equal(t, "1.5", FormatDouble(1.5))
	assert.Equal(t, "-22.1", FormatDouble(-22.1))
	assert.Equal(t, "0", FormatDouble(0))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "-7", FormatInt(-7))
	assert.Equal(t, "42", FormatInt(42))
}

func TestBase64RoundTrip(t *testing.T) {
	want := []byte{0x01, 0x02, 0xff, 0x00}
	s := EncodeBase64(want)
	got, err := DecodeBase64(s)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeBase64Malformed(t *testing.T) {
	_, err := DecodeBase64("not base64!!")
	assert.ErrorIs(t, err, ErrFormat)
}
