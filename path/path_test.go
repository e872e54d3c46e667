package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewRejectsSentinel(t *testing.T) {
	_, err := New(3, Invalid)
	require.Error(t, err)
}

func TestNewTooManyIds(t *testing.T) {
	_, err := New(1, 2, 3, 4, 5)
	require.Error(t, err)
}

func TestRootLength(t *testing.T) {
	assert.Equal(t, 0, Root().Length())
	assert.Equal(t, "/", Root().String())
}

func TestIDAt(t *testing.T) {
	p := MustNew(3, 0, 7)
	id, ok := p.IDAt(2)
	assert.True(t, ok)
	assert.Equal(t, uint16(7), id)

	_, ok = p.IDAt(3)
	assert.False(t, ok)
}

func TestHasIs(t *testing.T) {
	p := MustNew(3, 0)
	assert.True(t, p.Has(KindOID))
	assert.True(t, p.Has(KindIID))
	assert.False(t, p.Has(KindRID))
	assert.True(t, p.Is(KindIID))
	assert.False(t, p.Is(KindOID))
}

func TestIsPrefixOf(t *testing.T) {
	base := MustNew(3, 0)
	p := MustNew(3, 0, 7)
	assert.True(t, IsPrefixOf(base, p))
	assert.True(t, IsPrefixOf(base, base))
	assert.False(t, IsPrefixOf(p, base))
}

func TestOutsideBase(t *testing.T) {
	base := MustNew(3, 0)
	assert.False(t, OutsideBase(MustNew(3, 0, 7), base))
	assert.True(t, OutsideBase(MustNew(4), base))
}

func TestStrictlyIncreasingPreorder(t *testing.T) {
	// / < /3 < /3/0 < /3/0/1 < /3/1 < /4
	oid3 := MustNew(3)
	iid0 := MustNew(3, 0)
	rid1 := MustNew(3, 0, 1)
	iid1 := MustNew(3, 1)
	oid4 := MustNew(4)

	assert.True(t, StrictlyIncreasing(Root(), oid3))
	assert.True(t, StrictlyIncreasing(oid3, iid0))
	assert.True(t, StrictlyIncreasing(iid0, rid1))
	assert.True(t, StrictlyIncreasing(rid1, iid1))
	assert.True(t, StrictlyIncreasing(iid1, oid4))
	assert.False(t, StrictlyIncreasing(iid0, iid0))
	assert.False(t, StrictlyIncreasing(rid1, oid3))
}

func TestStringFormat(t *testing.T) {
	assert.Equal(t, "/3/0/7", MustNew(3, 0, 7).String())
}

func genID() *rapid.Generator[uint16] {
	return rapid.Uint16Range(0, 65534)
}

func TestPathRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 4).Draw(t, "n")
		ids := make([]uint16, n)
		for i := range ids {
			ids[i] = genID().Draw(t, "id")
		}
		p, err := New(ids...)
		require.NoError(t, err)
		assert.Equal(t, n, p.Length())
		for i, id := range ids {
			got, ok := p.IDAt(i)
			assert.True(t, ok)
			assert.Equal(t, id, got)
		}
		for i := n; i < 4; i++ {
			_, ok := p.IDAt(i)
			assert.False(t, ok)
		}
	})
}
