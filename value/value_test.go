package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSingle(t *testing.T) {
	assert.True(t, KindInt.Single())
	assert.False(t, (KindInt | KindUint).Single())
	assert.False(t, Kind(0).Single())
}

func TestBytesDone(t *testing.T) {
	b := Bytes{Chunk: []byte("abc"), Offset: 0, FullLengthHint: 3}
	assert.True(t, b.Done())
	b2 := Bytes{Chunk: []byte("ab"), Offset: 0, FullLengthHint: 3}
	assert.False(t, b2.Done())
	b3 := Bytes{Chunk: []byte("ab"), Offset: 0, FullLengthHint: 0}
	assert.False(t, b3.Done())
}

func TestAsInt64FromDoubleFloor(t *testing.T) {
	v := Float64(42.0)
	i, ok := v.AsInt64(false)
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	frac := Float64(42.5)
	_, ok = frac.AsInt64(false)
	assert.False(t, ok)

	i, ok = frac.AsInt64(true)
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)
}

func TestAsInt64Overflow(t *testing.T) {
	v := Float64(math.MaxInt64)
	_, ok := v.AsInt64(true)
	assert.False(t, ok)
}

func TestAsUint64RejectsNegative(t *testing.T) {
	_, ok := Int64(-1).AsUint64()
	assert.False(t, ok)
	u, ok := Int64(5).AsUint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), u)
}

func TestAsFloat64FromInt(t *testing.T) {
	f, ok := Int64(7).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)
}

func TestAsInt64AndAsFloat64FromTime(t *testing.T) {
	v := EpochTime(1071336602)
	i, ok := v.AsInt64(false)
	assert.True(t, ok)
	assert.Equal(t, int64(1071336602), i)

	f, ok := v.AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 1071336602.0, f)
}
