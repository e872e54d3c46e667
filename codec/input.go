package codec

import (
	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/lwm2mcbor"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/senml"
	"github.com/anjlabs/anj/tlv"
	"github.com/anjlabs/anj/value"
)

// InputContext drives the decode side of one LwM2M operation: feed
// chunks, then pull entries one at a time until Eof.
type InputContext struct {
	op     Operation
	base   path.Path
	format Format
	limits Limits

	tlvDec   *tlv.Decoder
	senmlDec *senml.Decoder
	lwm2mDec *lwm2mcbor.Decoder
	cbDec    *cbor.Decoder
	bareDone bool

	plaintextBuf  []byte
	plaintextLast bool
	plaintextDone bool

	eofReturned bool
}

// NewInputContext opens a context for decoding entries under base in
// the given format. format must not be FormatNotDefined; input contexts
// never auto-negotiate, since the wire bytes already committed to one.
func NewInputContext(op Operation, base path.Path, format Format, limits Limits) (*InputContext, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	if !formatSupportsOp(op, format) {
		return nil, &FormatError{Msg: "format not valid for this operation"}
	}
	c := &InputContext{op: op, base: base, format: format, limits: limits}
	switch format {
	case FormatTLV:
		c.tlvDec = tlv.NewDecoder(base)
	case FormatSenMLCBOR, FormatSenMLEtchCBOR:
		c.senmlDec = senml.NewDecoder(base, op == OpReadComposite)
	case FormatLwM2MCBOR:
		c.lwm2mDec = lwm2mcbor.NewDecoder(base)
	case FormatCBOR:
		c.cbDec = cbor.NewDecoderWithMaxNest(limits.MaxNestingDepth)
	case FormatPlaintext:
		// accumulated across Feed calls; decoded whole once is_last arrives.
	default:
		return nil, &FormatError{Msg: "format not compiled in"}
	}
	return c, nil
}

// Feed supplies the next chunk of wire bytes.
func (c *InputContext) Feed(data []byte, isLast bool) error {
	switch c.format {
	case FormatTLV:
		return wrapTLVErr(c.tlvDec.Feed(data, isLast))
	case FormatSenMLCBOR, FormatSenMLEtchCBOR:
		return wrapSenMLErr(c.senmlDec.Feed(data, isLast))
	case FormatLwM2MCBOR:
		return wrapLwM2MErr(c.lwm2mDec.Feed(data, isLast))
	case FormatCBOR:
		return wrapCBORErr(c.cbDec.Feed(data, isLast))
	case FormatPlaintext:
		if c.plaintextLast {
			return &LogicError{Msg: "feed after last payload"}
		}
		if len(c.plaintextBuf)+len(data) > c.limits.MaxShortStringLen {
			return ErrBufferTooShort
		}
		c.plaintextBuf = append(c.plaintextBuf, data...)
		c.plaintextLast = isLast
		return nil
	default:
		return &LogicError{Msg: "context not initialized"}
	}
}

// GetEntryCount reports the number of records in a SenML-CBOR payload.
// Valid only for that format, per §6.
func (c *InputContext) GetEntryCount() (int, error) {
	if c.senmlDec == nil {
		return 0, &LogicError{Msg: "get_entry_count is only valid for SenML-CBOR"}
	}
	n, err := c.senmlDec.GetEntryCount()
	return n, wrapSenMLErr(err)
}

// GetEntry pulls the next entry. hint narrows which resource-value kind
// to decode a structurally ambiguous leaf as; a multi-bit hint that the
// format cannot resolve on its own yields ErrWantTypeDisambiguation.
func (c *InputContext) GetEntry(hint value.Kind) (Entry, error) {
	if c.eofReturned {
		return Entry{}, &LogicError{Msg: "get_entry called again after Eof"}
	}
	e, err := c.getEntry(hint)
	if err == ErrEOF {
		c.eofReturned = true
	}
	return e, err
}

func (c *InputContext) getEntry(hint value.Kind) (Entry, error) {
	switch c.format {
	case FormatTLV:
		return c.tlvGetEntry(hint)
	case FormatSenMLCBOR, FormatSenMLEtchCBOR:
		e, err := c.senmlDec.GetEntry()
		if err != nil {
			return Entry{}, wrapSenMLErr(err)
		}
		return Entry{Path: e.Path, Value: e.Value, Timestamp: e.Timestamp, HasValue: e.HasValue}, nil
	case FormatLwM2MCBOR:
		e, err := c.lwm2mDec.GetEntry()
		if err != nil {
			return Entry{}, wrapLwM2MErr(err)
		}
		return Entry{Path: e.Path, Value: e.Value, Timestamp: noTimestamp(), HasValue: true}, nil
	case FormatCBOR:
		return c.bareGetEntry(hint)
	case FormatPlaintext:
		return c.plaintextGetEntry(hint)
	default:
		return Entry{}, &LogicError{Msg: "context not initialized"}
	}
}

func (c *InputContext) plaintextGetEntry(hint value.Kind) (Entry, error) {
	if c.plaintextDone {
		return Entry{}, ErrEOF
	}
	if !c.plaintextLast {
		return Entry{}, ErrWantMore
	}
	v, err := plaintextDecode(c.plaintextBuf, hint)
	if err != nil {
		return Entry{}, err
	}
	c.plaintextDone = true
	return Entry{Path: c.base, Value: v, Timestamp: noTimestamp(), HasValue: true}, nil
}

func (c *InputContext) bareGetEntry(hint value.Kind) (Entry, error) {
	if c.bareDone {
		return Entry{}, ErrEOF
	}
	vt, err := c.cbDec.CurrentValueType()
	if err != nil {
		return Entry{}, wrapCBORErr(err)
	}
	v, err := decodeBareCBORValue(c.cbDec, vt, hint)
	if err != nil {
		return Entry{}, err
	}
	c.bareDone = true
	return Entry{Path: c.base, Value: v, Timestamp: noTimestamp(), HasValue: true}, nil
}

func decodeBareCBORValue(d *cbor.Decoder, vt cbor.ValueType, hint value.Kind) (value.Value, error) {
	switch vt {
	case cbor.ValueNull:
		if err := d.Null(); err != nil {
			return value.Value{}, wrapCBORErr(err)
		}
		return value.Null(), nil
	case cbor.ValueUint, cbor.ValueNegInt:
		n, err := d.Number()
		if err != nil {
			return value.Value{}, wrapCBORErr(err)
		}
		return disambiguateNumber(n, hint)
	case cbor.ValueFloat, cbor.ValueDouble:
		n, err := d.Number()
		if err != nil {
			return value.Value{}, wrapCBORErr(err)
		}
		return value.Float64(n.Float64()), nil
	case cbor.ValueTimestamp:
		n, err := d.Number()
		if err != nil {
			return value.Value{}, wrapCBORErr(err)
		}
		return value.EpochTime(int64(n.Float64())), nil
	case cbor.ValueBool:
		b, err := d.Bool()
		if err != nil {
			return value.Value{}, wrapCBORErr(err)
		}
		return value.Boolean(b), nil
	case cbor.ValueText:
		s, err := readBareShortText(d)
		if err != nil {
			return value.Value{}, err
		}
		return value.Value{Kind: value.KindString, String: value.Bytes{Chunk: []byte(s), FullLengthHint: len(s)}}, nil
	case cbor.ValueBytes:
		b, total, err := readBareBytes(d)
		if err != nil {
			return value.Value{}, err
		}
		return value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: b, FullLengthHint: total}}, nil
	default:
		return value.Value{}, &FormatError{Msg: "value kind cannot be represented as a bare CBOR primitive"}
	}
}

// disambiguateNumber narrows a CBOR unsigned/negative integer literal to
// the caller-requested kind; Double is allowed as a widening conversion.
func disambiguateNumber(n cbor.Number, hint value.Kind) (value.Value, error) {
	if hint == 0 {
		if i, ok := n.Int64(); ok {
			return value.Int64(i), nil
		}
		return value.Float64(n.Float64()), nil
	}
	if !hint.Single() {
		return value.Value{}, ErrWantTypeDisambiguation
	}
	switch hint {
	case value.KindInt:
		i, ok := n.Int64()
		if !ok {
			return value.Value{}, &FormatError{Msg: "integer does not fit in int64"}
		}
		return value.Int64(i), nil
	case value.KindUint:
		u, ok := n.Uint64()
		if !ok {
			return value.Value{}, &FormatError{Msg: "value is negative, cannot decode as uint"}
		}
		return value.Uint64(u), nil
	case value.KindDouble:
		return value.Float64(n.Float64()), nil
	case value.KindTime:
		i, ok := n.Int64()
		if !ok {
			return value.Value{}, &FormatError{Msg: "epoch time does not fit in int64"}
		}
		return value.EpochTime(i), nil
	default:
		return value.Value{}, &FormatError{Msg: "hint kind incompatible with a CBOR integer"}
	}
}

func readBareShortText(d *cbor.Decoder) (string, error) {
	var text []byte
	for {
		chunk, finished, err := d.BytesGetSome()
		if err != nil {
			return "", wrapCBORErr(err)
		}
		text = append(text, chunk...)
		if finished {
			break
		}
	}
	return string(text), nil
}

func readBareBytes(d *cbor.Decoder) ([]byte, int, error) {
	total, err := d.Bytes()
	if err != nil {
		return nil, 0, wrapCBORErr(err)
	}
	var data []byte
	for {
		chunk, finished, err := d.BytesGetSome()
		if err != nil {
			return nil, 0, wrapCBORErr(err)
		}
		data = append(data, chunk...)
		if finished {
			break
		}
	}
	return data, total, nil
}

// tlvGetEntry adapts tlv.Decoder's lower-level Path/typed-getter/Next
// loop into a uniform Entry, the one backend whose API shape differs
// from the other three decoders' GetEntry-returns-Entry pattern.
func (c *InputContext) tlvGetEntry(hint value.Kind) (Entry, error) {
	p, err := c.tlvDec.Path()
	if err != nil {
		return Entry{}, wrapTLVErr(err)
	}
	isNull, err := c.tlvDec.IsNull()
	if err != nil {
		return Entry{}, wrapTLVErr(err)
	}
	var v value.Value
	if isNull {
		v = value.Null()
	} else {
		v, err = decodeTLVValue(c.tlvDec, hint)
		if err != nil {
			return Entry{}, err
		}
	}
	if err := c.tlvDec.Next(); err != nil && err != tlv.ErrEOF {
		return Entry{}, wrapTLVErr(err)
	}
	return Entry{Path: p, Value: v, Timestamp: noTimestamp(), HasValue: true}, nil
}

// decodeTLVValue has no object model to consult: a zero hint reads the
// leaf as raw bytes, and a hint with more than one bit set (the bytes bit
// included) comes back to the caller as ErrWantTypeDisambiguation: the TLV wire
// format itself does not distinguish, say, a uint16 from an opaque
// two-byte string of the same declared length.
func decodeTLVValue(d *tlv.Decoder, hint value.Kind) (value.Value, error) {
	if hint == 0 {
		return readTLVBytes(d)
	}
	if !hint.Single() {
		return value.Value{}, ErrWantTypeDisambiguation
	}
	switch hint {
	case value.KindInt:
		n, err := d.Int()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.Int64(n), nil
	case value.KindUint:
		n, err := d.Uint()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.Uint64(n), nil
	case value.KindDouble:
		f, err := d.Double()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.Float64(f), nil
	case value.KindBool:
		b, err := d.Bool()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.Boolean(b), nil
	case value.KindTime:
		n, err := d.Int()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.EpochTime(n), nil
	case value.KindObjlnk:
		o, err := d.Objlnk()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		return value.Link(o.OID, o.IID), nil
	case value.KindString:
		return readTLVString(d)
	case value.KindBytes:
		return readTLVBytes(d)
	default:
		return value.Value{}, &FormatError{Msg: "unsupported type hint for TLV"}
	}
}

func readTLVBytes(d *tlv.Decoder) (value.Value, error) {
	var buf []byte
	for {
		chunk, finished, err := d.BytesChunk()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		buf = append(buf, chunk...)
		if finished {
			break
		}
	}
	return value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: buf, FullLengthHint: len(buf)}}, nil
}

func readTLVString(d *tlv.Decoder) (value.Value, error) {
	var buf []byte
	for {
		chunk, finished, err := d.BytesChunk()
		if err != nil {
			return value.Value{}, wrapTLVErr(err)
		}
		buf = append(buf, chunk...)
		if finished {
			break
		}
	}
	return value.Value{Kind: value.KindString, String: value.Bytes{Chunk: buf, FullLengthHint: len(buf)}}, nil
}

func wrapCBORErr(err error) error {
	switch err {
	case nil:
		return nil
	case cbor.ErrWantMore:
		return ErrWantMore
	case cbor.ErrEOF:
		return ErrEOF
	case cbor.ErrLogic:
		return &LogicError{Msg: "cbor: invalid call sequence"}
	}
	if fe, ok := err.(*cbor.FormatError); ok {
		return &FormatError{Msg: fe.Msg}
	}
	return err
}
