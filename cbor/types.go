/*
Package cbor implements a low-level, streaming, suspendable CBOR (RFC
8949) encoder and decoder for the subset of CBOR that LwM2M's wire
formats build on: major types 0-7, half/single/double floats, epoch-time
(tag 1) and string-time (tag 0) timestamps, decimal fractions (tag 4),
and definite/indefinite arrays, maps and byte/text strings.

The decoder never blocks: when it runs out of buffered input it returns
ErrWantMore, and the caller is expected to Feed more bytes and retry the
exact same call.
*/
package cbor

import "errors"

// ValueType identifies the CBOR major type (refined for float/simple
// values and tagged timestamps) of the item the decoder is currently
// positioned on.
type ValueType int

const (
	ValueNone ValueType = iota
	ValueUint
	ValueNegInt
	ValueBytes
	ValueText
	ValueArray
	ValueMap
	ValueFloat
	ValueDouble
	ValueBool
	ValueNull
	ValueTimestamp
)

func (t ValueType) String() string {
	switch t {
	case ValueUint:
		return "uint"
	case ValueNegInt:
		return "negint"
	case ValueBytes:
		return "bytes"
	case ValueText:
		return "text"
	case ValueArray:
		return "array"
	case ValueMap:
		return "map"
	case ValueFloat:
		return "float"
	case ValueDouble:
		return "double"
	case ValueBool:
		return "bool"
	case ValueNull:
		return "null"
	case ValueTimestamp:
		return "timestamp"
	default:
		return "none"
	}
}

// NumberKind identifies which field of Number is populated.
type NumberKind int

const (
	NumberUint NumberKind = iota
	NumberNegInt
	NumberFloat
	NumberDouble
)

// Number is a low-level decoded CBOR number: an unsigned magnitude (for
// both UInt and NegInt, where the real value is -1-Bits for NegInt), or a
// float/double bit pattern already converted to float64.
type Number struct {
	Kind    NumberKind
	Bits    uint64
	Float   float64
}

// Int64 returns the number as a signed 64-bit integer. Only valid for
// NumberUint/NumberNegInt kinds whose magnitude fits.
func (n Number) Int64() (int64, bool) {
	switch n.Kind {
	case NumberUint:
		if n.Bits > 1<<63-1 {
			return 0, false
		}
		return int64(n.Bits), true
	case NumberNegInt:
		if n.Bits > 1<<63-1 {
			return 0, false
		}
		return -1 - int64(n.Bits), true
	default:
		return 0, false
	}
}

// Uint64 returns the number as an unsigned 64-bit integer. Only valid
// for NumberUint.
func (n Number) Uint64() (uint64, bool) {
	if n.Kind != NumberUint {
		return 0, false
	}
	return n.Bits, true
}

// Float64 returns the number as a float64, converting integer kinds.
func (n Number) Float64() float64 {
	switch n.Kind {
	case NumberFloat, NumberDouble:
		return n.Float
	case NumberUint:
		return float64(n.Bits)
	case NumberNegInt:
		return -1 - float64(n.Bits)
	default:
		return 0
	}
}

// Timestamp subparser kinds, distinguishing tag 0 (string time) from tag
// 1 (epoch time) so the decoder knows which subparser to run once the
// tagged value's bytes are available.
type timestampKind int

const (
	timestampNone timestampKind = iota
	timestampEpoch
	timestampString
)

// Sentinel errors. Suspension (ErrWantMore) is not a failure: the caller
// re-invokes the exact same operation after feeding more data.
var (
	ErrWantMore = errors.New("cbor: want more input")
	ErrEOF      = errors.New("cbor: no more items")
	ErrLogic    = errors.New("cbor: invalid call sequence")
)

// FormatError reports that the wire bytes violate CBOR or the subset of
// it this decoder accepts.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "cbor: format error: " + e.Msg }
