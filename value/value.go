/*
Package value implements the LwM2M resource-value model: a tagged union
over every wire-representable resource kind, plus the chunked-bytes view
used to stream byte/text values that may arrive (or need to be emitted)
across several calls.
*/
package value

import "math"

// Kind identifies which variant of Value is populated. It also doubles
// as a bitmask during decoding: a decoder may offer several candidate
// kinds (e.g. KindInt|KindUint|KindDouble for a CBOR unsigned integer)
// until the caller narrows it to exactly one bit.
type Kind uint16

const (
	KindNull Kind = 1 << iota
	KindInt
	KindUint
	KindDouble
	KindBool
	KindTime
	KindObjlnk
	KindBytes
	KindString
	KindExternalBytes
	KindExternalString
)

// Single reports whether exactly one bit is set, i.e. the mask is no
// longer ambiguous.
func (k Kind) Single() bool {
	return k != 0 && k&(k-1) == 0
}

// String returns a short identifier for a single-bit Kind, or "mixed" for
// a multi-bit mask.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindObjlnk:
		return "objlnk"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindExternalBytes:
		return "external-bytes"
	case KindExternalString:
		return "external-string"
	default:
		return "mixed"
	}
}

// Objlnk is a typed reference to another LwM2M instance.
type Objlnk struct {
	OID uint16
	IID uint16
}

// Bytes is the chunked-bytes view shared by byte-string and text-string
// values. Across successive chunks of one value, Offset grows
// monotonically by the previous chunk's length; FullLengthHint becomes
// exact (Offset+len(Chunk) == FullLengthHint) once the final chunk has
// been delivered. FullLengthHint is 0 until known for indefinite-length
// CBOR strings.
type Bytes struct {
	Chunk          []byte
	Offset         int
	FullLengthHint int
}

// Done reports whether this chunk completes the value, i.e. the hint is
// known and has been reached.
func (b Bytes) Done() bool {
	return b.FullLengthHint != 0 && b.Offset+len(b.Chunk) == b.FullLengthHint
}

// ExternalDataFetcher synchronously copies byte_count bytes starting at
// offset into dst. It must not re-enter the encoder that invoked it.
type ExternalDataFetcher func(dst []byte, offset int) error

// External describes a byte or text value that is not held inline but
// produced on demand via Fetch.
type External struct {
	Length int
	Fetch  ExternalDataFetcher
}

// Value is the tagged union of every LwM2M resource value kind. Exactly
// one field is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Int    int64
	Uint   uint64
	Double float64
	Bool   bool
	Time   int64
	Objlnk Objlnk
	Bytes  Bytes
	String Bytes

	External External
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Int64 returns an int64-valued Value.
func Int64(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Uint64 returns a uint64-valued Value.
func Uint64(v uint64) Value { return Value{Kind: KindUint, Uint: v} }

// Float64 returns a double-valued Value.
func Float64(v float64) Value { return Value{Kind: KindDouble, Double: v} }

// Boolean returns a bool-valued Value.
func Boolean(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// EpochTime returns a time-valued Value (seconds since the Unix epoch).
func EpochTime(v int64) Value { return Value{Kind: KindTime, Time: v} }

// Link returns an objlnk-valued Value.
func Link(oid, iid uint16) Value {
	return Value{Kind: KindObjlnk, Objlnk: Objlnk{OID: oid, IID: iid}}
}

// AsInt64 converts a numeric Value to int64. When allowConvertFractions
// is true and the value is a Double, the double is floored first; the
// floored value is accepted only if it round-trips exactly back to a
// representable int64 with no remaining fractional part and no overflow.
// No tolerance beyond the floor itself is applied — see DESIGN.md's
// record of this decision.
func (v Value) AsInt64(allowConvertFractions bool) (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindTime:
		return v.Time, true
	case KindUint:
		if v.Uint > math.MaxInt64 {
			return 0, false
		}
		return int64(v.Uint), true
	case KindDouble:
		d := v.Double
		if allowConvertFractions {
			d = math.Floor(d)
		}
		if math.Trunc(d) != d || d < math.MinInt64 || d >= math.MaxInt64 {
			return 0, false
		}
		return int64(d), true
	default:
		return 0, false
	}
}

// AsUint64 converts a numeric Value to uint64, rejecting negative
// values.
func (v Value) AsUint64() (uint64, bool) {
	switch v.Kind {
	case KindUint:
		return v.Uint, true
	case KindInt:
		if v.Int < 0 {
			return 0, false
		}
		return uint64(v.Int), true
	case KindDouble:
		if v.Double < 0 || math.Trunc(v.Double) != v.Double || v.Double > math.MaxUint64 {
			return 0, false
		}
		return uint64(v.Double), true
	default:
		return 0, false
	}
}

// AsFloat64 converts a numeric Value to float64.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindDouble:
		return v.Double, true
	case KindInt:
		return float64(v.Int), true
	case KindTime:
		return float64(v.Time), true
	case KindUint:
		return float64(v.Uint), true
	default:
		return 0, false
	}
}
