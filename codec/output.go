package codec

import (
	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/iobuf"
	"github.com/anjlabs/anj/lwm2mcbor"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/senml"
	"github.com/anjlabs/anj/tlv"
	"github.com/anjlabs/anj/value"
)

// OutputContext drives the encode side of one LwM2M operation: a
// sequence of new_entry calls, each value-format's encoder closed once
// all entries are written, the result drained through an iobuf.Buffer.
type OutputContext struct {
	op     Operation
	base   path.Path
	format Format
	limits Limits

	itemsCount int
	written    int
	closed     bool
	buf        *iobuf.Buffer

	tlvEnc   *tlv.Encoder
	senmlEnc *senml.Encoder
	lwm2mEnc *lwm2mcbor.Encoder
}

// NewOutputContext opens a context for writing itemsCount entries under
// base. A forced format of FormatNotDefined lets the dispatcher pick one
// via chooseFormat.
func NewOutputContext(op Operation, base path.Path, itemsCount int, forced Format, limits Limits) (*OutputContext, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	if itemsCount < 0 {
		return nil, &InputArgError{Msg: "itemsCount must be >= 0"}
	}
	format, err := chooseFormat(itemsCount, forced)
	if err != nil {
		return nil, err
	}
	if !formatSupportsOp(op, format) {
		return nil, &FormatError{Msg: "format not valid for this operation"}
	}

	c := &OutputContext{op: op, base: base, format: format, limits: limits, itemsCount: itemsCount}
	switch format {
	case FormatTLV:
		c.tlvEnc = tlv.NewEncoder(base)
	case FormatSenMLCBOR, FormatSenMLEtchCBOR:
		c.senmlEnc = senml.NewEncoder(base, itemsCount, op == OpNotify)
	case FormatLwM2MCBOR:
		if itemsCount == 0 {
			return nil, &InputArgError{Msg: "LwM2M-CBOR requires at least one entry"}
		}
		c.lwm2mEnc = lwm2mcbor.NewEncoder(base, itemsCount)
	case FormatCBOR:
		if itemsCount != 1 {
			return nil, &InputArgError{Msg: "bare CBOR format requires exactly one entry"}
		}
	case FormatPlaintext:
		if itemsCount != 1 {
			return nil, &InputArgError{Msg: "Plaintext format requires exactly one entry"}
		}
	default:
		return nil, &FormatError{Msg: "format not compiled in"}
	}
	return c, nil
}

// GetFormat reports the format chosen (possibly auto-negotiated) at init.
func (c *OutputContext) GetFormat() Format { return c.format }

// NewEntry appends one entry.
func (c *OutputContext) NewEntry(e Entry) error {
	if c.closed {
		return &LogicError{Msg: "new_entry after get_payload has begun draining"}
	}
	if c.written >= c.itemsCount {
		return &LogicError{Msg: "new_entry called more times than itemsCount"}
	}

	var err error
	switch c.format {
	case FormatTLV:
		err = wrapTLVErr(c.tlvEnc.WriteEntry(e.Path, e.Value))
	case FormatSenMLCBOR, FormatSenMLEtchCBOR:
		err = wrapSenMLErr(c.senmlEnc.WriteEntry(senml.Entry{
			Path: e.Path, Value: e.Value, Timestamp: e.Timestamp, HasValue: e.HasValue,
		}))
	case FormatLwM2MCBOR:
		err = wrapLwM2MErr(c.lwm2mEnc.WriteEntry(lwm2mcbor.Entry{Path: e.Path, Value: e.Value}))
	case FormatCBOR:
		var b []byte
		b, err = bareCBOREncode(e.Value)
		if err == nil {
			c.buf = iobuf.New(b)
		}
	case FormatPlaintext:
		var b []byte
		b, err = plaintextEncode(e.Value)
		if err == nil {
			c.buf = iobuf.New(b)
		}
	}
	if err != nil {
		return err
	}
	c.written++
	return nil
}

// GetPayload drains the encoded record into dst, closing the underlying
// encoder on first call.
func (c *OutputContext) GetPayload(dst []byte) (n int, needNextCall bool, err error) {
	if !c.closed {
		if c.written != c.itemsCount {
			return 0, false, &LogicError{Msg: "get_payload before every entry was written"}
		}
		switch c.format {
		case FormatTLV:
			b, err := c.tlvEnc.Close()
			if err != nil {
				return 0, false, wrapTLVErr(err)
			}
			c.buf = iobuf.New(b)
		case FormatSenMLCBOR, FormatSenMLEtchCBOR:
			c.buf = iobuf.New(c.senmlEnc.Close())
		case FormatLwM2MCBOR:
			c.buf = iobuf.New(c.lwm2mEnc.Close())
		}
		c.closed = true
	}
	if c.buf == nil {
		return 0, false, ErrEOF
	}
	n, needNextCall, err = c.buf.GetPayload(dst)
	if err == iobuf.ErrLogic {
		return n, needNextCall, &LogicError{Msg: "get_payload called after payload fully drained"}
	}
	return n, needNextCall, err
}

// bareCBOREncode renders a single resource value as a raw CBOR
// primitive, the wire form for format CBOR with exactly one entry
// (spec.md scenario 2: (/3/3/3, uint=25) -> 18 19).
func bareCBOREncode(v value.Value) ([]byte, error) {
	var scratch [24]byte
	switch v.Kind {
	case value.KindNull:
		n := cbor.EncodeNull(scratch[:])
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindInt:
		n := cbor.EncodeInt(scratch[:], v.Int)
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindUint:
		n := cbor.EncodeUint(scratch[:], v.Uint)
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindDouble:
		n := cbor.EncodeDouble(scratch[:], v.Double)
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindBool:
		n := cbor.EncodeBool(scratch[:], v.Bool)
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindTime:
		n := cbor.EncodeTag(scratch[:], 1)
		n += cbor.EncodeInt(scratch[n:], v.Time)
		return append([]byte(nil), scratch[:n]...), nil
	case value.KindString:
		out := make([]byte, 0, len(v.String.Chunk)+9)
		out = append(out, scratch[:cbor.StringBegin(scratch[:], len(v.String.Chunk))]...)
		out = append(out, v.String.Chunk...)
		return out, nil
	case value.KindBytes:
		out := make([]byte, 0, len(v.Bytes.Chunk)+9)
		out = append(out, scratch[:cbor.BytesBegin(scratch[:], len(v.Bytes.Chunk))]...)
		out = append(out, v.Bytes.Chunk...)
		return out, nil
	default:
		return nil, &FormatError{Msg: "value kind cannot be represented as a bare CBOR primitive"}
	}
}

func wrapTLVErr(err error) error {
	switch err {
	case nil:
		return nil
	case tlv.ErrWantMore:
		return ErrWantMore
	case tlv.ErrEOF:
		return ErrEOF
	case tlv.ErrLogic:
		return &LogicError{Msg: "tlv: invalid call sequence"}
	}
	if fe, ok := err.(*tlv.FormatError); ok {
		return &FormatError{Msg: fe.Msg}
	}
	return err
}

func wrapSenMLErr(err error) error {
	switch err {
	case nil:
		return nil
	case senml.ErrWantMore:
		return ErrWantMore
	case senml.ErrEOF:
		return ErrEOF
	case senml.ErrLogic:
		return &LogicError{Msg: "senml: invalid call sequence"}
	}
	if fe, ok := err.(*senml.FormatError); ok {
		return &FormatError{Msg: fe.Msg}
	}
	return err
}

func wrapLwM2MErr(err error) error {
	switch err {
	case nil:
		return nil
	case lwm2mcbor.ErrWantMore:
		return ErrWantMore
	case lwm2mcbor.ErrEOF:
		return ErrEOF
	case lwm2mcbor.ErrLogic:
		return &LogicError{Msg: "lwm2mcbor: invalid call sequence"}
	}
	if fe, ok := err.(*lwm2mcbor.FormatError); ok {
		return &FormatError{Msg: fe.Msg}
	}
	return err
}
