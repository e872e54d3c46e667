package senml

import (
	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Decoder streams SenML-CBOR records against a fixed base path.
type Decoder struct {
	cb            *cbor.Decoder
	base          path.Path
	compositeRead bool

	toplevelEntered bool
	entryCount      int

	inMap          bool
	pairsRemaining int // -1 for indefinite

	basename  string
	baseTime  float64
	haveEntry bool
}

// wrapErr translates the underlying CBOR decoder's sentinel errors into
// this package's own, so callers never need to import cbor just to
// compare against ErrEOF/ErrWantMore/ErrLogic.
func wrapErr(err error) error {
	switch err {
	case cbor.ErrEOF:
		return ErrEOF
	case cbor.ErrWantMore:
		return ErrWantMore
	case cbor.ErrLogic:
		return ErrLogic
	default:
		return err
	}
}

// NewDecoder returns a decoder for records addressed under base.
// compositeRead permits records that carry no value (as in a composite
// read request echo).
func NewDecoder(base path.Path, compositeRead bool) *Decoder {
	return &Decoder{cb: cbor.NewDecoder(), base: base, compositeRead: compositeRead, pairsRemaining: -2}
}

// Feed supplies the next chunk of wire bytes.
func (d *Decoder) Feed(data []byte, isLast bool) error {
	return wrapErr(d.cb.Feed(data, isLast))
}

func (d *Decoder) ensureToplevel() error {
	if d.toplevelEntered {
		return nil
	}
	vt, err := d.cb.CurrentValueType()
	if err != nil {
		return wrapErr(err)
	}
	if vt != cbor.ValueArray {
		return &FormatError{Msg: "expected outer array"}
	}
	count, err := d.cb.EnterArray()
	if err != nil {
		return wrapErr(err)
	}
	d.toplevelEntered = true
	d.entryCount = count
	return nil
}

// GetEntryCount returns the outer array's declared element count, or -1 if
// the array is indefinite-length. Only meaningful once decoding has begun.
func (d *Decoder) GetEntryCount() (int, error) {
	if err := d.ensureToplevel(); err != nil {
		return 0, err
	}
	return d.entryCount, nil
}

func (d *Decoder) pairsLeft() (bool, error) {
	if d.pairsRemaining == 0 {
		return false, nil
	}
	if d.pairsRemaining > 0 {
		return true, nil
	}
	// indefinite: still inside the map iff nesting level > 1 (array+map)
	vt, err := d.cb.CurrentValueType()
	if err == cbor.ErrEOF {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(err)
	}
	_ = vt
	if d.cb.NestingLevel() > 1 {
		return true, nil
	}
	d.pairsRemaining = 0
	return false, nil
}

func readLabel(d *cbor.Decoder) (int, error) {
	vt, err := d.CurrentValueType()
	if err != nil {
		return 0, wrapErr(err)
	}
	if vt == cbor.ValueText {
		var text []byte
		for {
			chunk, finished, err := d.BytesGetSome()
			if err != nil {
				return 0, wrapErr(err)
			}
			text = append(text, chunk...)
			if finished {
				break
			}
		}
		if string(text) != objlnkStringLabel {
			return 0, &FormatError{Msg: "unrecognized string label"}
		}
		return labelObjlnk, nil
	}
	n, err := d.Number()
	if err != nil {
		return 0, wrapErr(err)
	}
	v, ok := n.Int64()
	if !ok {
		return 0, &FormatError{Msg: "label out of range"}
	}
	switch v {
	case labelBaseTime, labelBaseName, labelName, labelValue, labelValueString,
		labelValueBool, labelTime, labelValueOpaque:
		return int(v), nil
	default:
		return 0, &FormatError{Msg: "unrecognized numeric label"}
	}
}

const labelObjlnk = 1000 // out-of-band sentinel; never collides with SenML's small integer labels

func readShortText(d *cbor.Decoder) (string, error) {
	vt, err := d.CurrentValueType()
	if err != nil {
		return "", wrapErr(err)
	}
	if vt != cbor.ValueText {
		return "", &FormatError{Msg: "expected text string"}
	}
	var text []byte
	for {
		chunk, finished, err := d.BytesGetSome()
		if err != nil {
			return "", wrapErr(err)
		}
		text = append(text, chunk...)
		if finished {
			break
		}
	}
	return string(text), nil
}

// GetEntry decodes and returns the next record. It returns ErrEOF once the
// outer array is exhausted.
func (d *Decoder) GetEntry() (Entry, error) {
	if err := d.ensureToplevel(); err != nil {
		return Entry{}, err
	}

	if !d.inMap {
		vt, err := d.cb.CurrentValueType()
		if err != nil {
			return Entry{}, wrapErr(err)
		}
		if vt != cbor.ValueMap {
			return Entry{}, &FormatError{Msg: "expected record map"}
		}
		pairCount, err := d.cb.EnterMap()
		if err != nil {
			return Entry{}, wrapErr(err)
		}
		d.inMap = true
		d.pairsRemaining = pairCount
	}

	var name string
	haveName := false
	haveValue := false
	var v value.Value
	timeDelta := 0.0
	haveTimeDelta := false

	for {
		more, err := d.pairsLeft()
		if err != nil {
			return Entry{}, err
		}
		if !more {
			break
		}

		label, err := readLabel(d.cb)
		if err != nil {
			return Entry{}, err
		}

		switch label {
		case labelBaseName:
			s, err := readShortText(d.cb)
			if err != nil {
				return Entry{}, err
			}
			d.basename = s
		case labelName:
			s, err := readShortText(d.cb)
			if err != nil {
				return Entry{}, err
			}
			name = s
			haveName = true
		case labelBaseTime:
			n, err := d.cb.Number()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			d.baseTime = n.Float64()
		case labelTime:
			n, err := d.cb.Number()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			timeDelta = n.Float64()
			haveTimeDelta = true
		case labelValue:
			if d.compositeRead {
				return Entry{}, &FormatError{Msg: "value present on a composite-read record"}
			}
			vt, err := d.cb.CurrentValueType()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			n, err := d.cb.Number()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			switch vt {
			case cbor.ValueTimestamp:
				v = value.EpochTime(int64(n.Float64()))
			case cbor.ValueUint:
				if bits, ok := n.Uint64(); ok {
					v = value.Uint64(bits)
				}
			case cbor.ValueNegInt:
				if bits, ok := n.Int64(); ok {
					v = value.Int64(bits)
				}
			default:
				v = value.Float64(n.Float64())
			}
			haveValue = true
		case labelValueString:
			if d.compositeRead {
				return Entry{}, &FormatError{Msg: "value present on a composite-read record"}
			}
			s, err := readShortText(d.cb)
			if err != nil {
				return Entry{}, err
			}
			v = value.Value{Kind: value.KindString, String: value.Bytes{Chunk: []byte(s), FullLengthHint: len(s)}}
			haveValue = true
		case labelValueBool:
			if d.compositeRead {
				return Entry{}, &FormatError{Msg: "value present on a composite-read record"}
			}
			b, err := d.cb.Bool()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			v = value.Boolean(b)
			haveValue = true
		case labelValueOpaque:
			if d.compositeRead {
				return Entry{}, &FormatError{Msg: "value present on a composite-read record"}
			}
			total, err := d.cb.Bytes()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			var data []byte
			for {
				chunk, finished, err := d.cb.BytesGetSome()
				if err != nil {
					return Entry{}, wrapErr(err)
				}
				data = append(data, chunk...)
				if finished {
					break
				}
			}
			v = value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: data, FullLengthHint: total}}
			haveValue = true
		case labelObjlnk:
			if d.compositeRead {
				return Entry{}, &FormatError{Msg: "value present on a composite-read record"}
			}
			s, err := readShortText(d.cb)
			if err != nil {
				return Entry{}, err
			}
			link, err := parseObjlnk(s)
			if err != nil {
				return Entry{}, err
			}
			v = value.Value{Kind: value.KindObjlnk, Objlnk: link}
			haveValue = true
		default:
			return Entry{}, &FormatError{Msg: "unhandled label"}
		}

		if d.pairsRemaining > 0 {
			d.pairsRemaining--
		}
	}

	if !d.compositeRead && !haveValue {
		return Entry{}, &FormatError{Msg: "record has no value"}
	}

	full := d.basename + name
	p, err := numfmt.ParseAbsolutePath(full)
	if err != nil {
		return Entry{}, &FormatError{Msg: "malformed absolute path"}
	}
	if path.OutsideBase(p, d.base) {
		return Entry{}, &FormatError{Msg: "record path outside base"}
	}
	if !d.compositeRead && !p.Has(path.KindRID) {
		return Entry{}, &FormatError{Msg: "record path does not reach a Resource"}
	}
	_ = haveName

	d.inMap = false
	ts := d.baseTime
	if haveTimeDelta {
		ts += timeDelta
	}

	return Entry{Path: p, Value: v, Timestamp: ts, HasValue: haveValue}, nil
}
