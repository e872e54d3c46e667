package iobuf

import (
	"testing"

	"github.com/anjlabs/anj/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPayloadSmallBufferDrainsAcrossCalls(t *testing.T) {
	b := New([]byte("hello world"))
	dst := make([]byte, 4)

	n, more, err := b.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, more)
	assert.Equal(t, "hell", string(dst[:n]))

	n, more, err = b.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, more)
	assert.Equal(t, "o wo", string(dst[:n]))

	n, more, err = b.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, more)
	assert.Equal(t, "rld", string(dst[:n]))
}

func TestGetPayloadAfterExhaustionReturnsErrLogic(t *testing.T) {
	b := New([]byte("hi"))
	dst := make([]byte, 8)
	_, more, err := b.GetPayload(dst)
	require.NoError(t, err)
	require.False(t, more)

	_, _, err = b.GetPayload(dst)
	assert.Equal(t, ErrLogic, err)
}

func TestGetPayloadSpansInlineAndExternalTail(t *testing.T) {
	tailData := []byte("EXTENDED")
	fetch := func(dst []byte, offset int) error {
		copy(dst, tailData[offset:offset+len(dst)])
		return nil
	}
	b := NewWithTail([]byte("head:"), value.External{Length: len(tailData), Fetch: fetch})

	dst := make([]byte, 6)
	n, more, err := b.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.True(t, more)
	assert.Equal(t, "head:E", string(dst[:n]))

	rest := make([]byte, 32)
	n, more, err = b.GetPayload(rest)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, "XTENDED", string(rest[:n]))
}
