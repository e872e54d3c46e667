package lwm2mcbor

import (
	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Decoder streams an LwM2M-CBOR payload's records against a fixed base
// path. The payload is a single indefinite-length map nested per path
// level; sibling resources under a shared prefix share the open maps for
// that prefix rather than repeating it.
type Decoder struct {
	cb   *cbor.Decoder
	base path.Path

	toplevelEntered bool

	ids     []uint16
	segLens []int

	inPathArray bool
	curSegLen   int

	pathParsed  bool
	expectsMap  bool
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
func NewDecoder(base path.Path) *Decoder {
	return &Decoder{cb: cbor.NewDecoder(), base: base}
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
	if vt != cbor.ValueMap {
		return &FormatError{Msg: "expected outer map"}
	}
	if _, err := d.cb.EnterMap(); err != nil {
		return wrapErr(err)
	}
	d.toplevelEntered = true
	return nil
}

func (d *Decoder) expectedNestingLevel() int {
	return len(d.segLens) + 1
}

func (d *Decoder) pathPop() {
	last := d.segLens[len(d.segLens)-1]
	d.segLens = d.segLens[:len(d.segLens)-1]
	d.ids = d.ids[:len(d.ids)-last]
}

func (d *Decoder) pathCommit() error {
	if d.curSegLen == 0 {
		return &FormatError{Msg: "empty relative path"}
	}
	d.segLens = append(d.segLens, d.curSegLen)
	d.curSegLen = 0
	return nil
}

func (d *Decoder) readAndPushID() error {
	n, err := d.cb.Number()
	if err != nil {
		return wrapErr(err)
	}
	id, ok := n.Uint64()
	if !ok || id >= uint64(path.Invalid) {
		return &FormatError{Msg: "path id out of range"}
	}
	if len(d.ids) >= 4 {
		return &FormatError{Msg: "path nests deeper than four levels"}
	}
	d.ids = append(d.ids, uint16(id))
	d.curSegLen++
	return nil
}

// decodePathFragment reads the next map key: either a bare uint id, or an
// array of uint ids (used when LwM2M-CBOR collapses several levels into
// one array-valued key instead of nested maps), and pushes it onto the
// path stack as one relative-path segment.
func (d *Decoder) decodePathFragment() error {
	var typ cbor.ValueType
	if d.inPathArray {
		typ = cbor.ValueArray
	} else {
		// CurrentValueType consumes any pending break bytes first, so the
		// nesting level read after it reflects the maps already closed.
		vt, err := d.cb.CurrentValueType()
		if err != nil {
			return wrapErr(err)
		}
		level := d.cb.NestingLevel()
		if level == 0 {
			return &FormatError{Msg: "unexpected end of top-level map"}
		}
		if level > d.expectedNestingLevel() {
			return &FormatError{Msg: "unexpected nesting level"}
		}
		for level < d.expectedNestingLevel() {
			d.pathPop()
		}
		typ = vt
	}

	if typ == cbor.ValueArray {
		if !d.inPathArray {
			if _, err := d.cb.EnterArray(); err != nil {
				return wrapErr(err)
			}
			d.inPathArray = true
		}
		for d.inPathArray {
			if err := d.cb.Errno(); err != nil {
				return wrapErr(err)
			}
			level := d.cb.NestingLevel()
			if level != d.expectedNestingLevel()+1 {
				d.inPathArray = false
			} else if err := d.readAndPushID(); err != nil {
				return err
			}
		}
	} else if typ == cbor.ValueUint {
		if err := d.readAndPushID(); err != nil {
			return err
		}
	} else {
		return &FormatError{Msg: "expected path id or array of ids"}
	}

	return d.pathCommit()
}

// GetEntry decodes and returns the next record. It returns ErrEOF once the
// outer map is exhausted.
func (d *Decoder) GetEntry() (Entry, error) {
	if err := d.ensureToplevel(); err != nil {
		return Entry{}, err
	}

	var vt cbor.ValueType
	for {
		if !d.pathParsed {
			if err := d.decodePathFragment(); err != nil {
				return Entry{}, err
			}
			d.pathParsed = true
		}

		if !d.expectsMap {
			v, err := d.cb.CurrentValueType()
			if err != nil {
				return Entry{}, wrapErr(err)
			}
			vt = v
			if vt == cbor.ValueMap {
				d.expectsMap = true
			}
		}

		if !d.expectsMap {
			break
		}

		if _, err := d.cb.EnterMap(); err != nil {
			return Entry{}, wrapErr(err)
		}
		d.pathParsed = false
		d.expectsMap = false
	}

	idsCopy := append([]uint16(nil), d.ids...)
	p, err := path.New(idsCopy...)
	if err != nil {
		return Entry{}, &FormatError{Msg: "malformed path"}
	}
	if path.OutsideBase(p, d.base) {
		return Entry{}, &FormatError{Msg: "record path outside base"}
	}
	if !p.Has(path.KindRID) {
		return Entry{}, &FormatError{Msg: "record path does not reach a Resource"}
	}

	var v value.Value
	if vt == cbor.ValueNull {
		if err := d.cb.Null(); err != nil {
			return Entry{}, wrapErr(err)
		}
		v = value.Null()
	} else {
		var err error
		v, err = d.readValue(vt)
		if err != nil {
			return Entry{}, err
		}
	}

	d.pathParsed = false
	return Entry{Path: p, Value: v}, nil
}

func (d *Decoder) readValue(vt cbor.ValueType) (value.Value, error) {
	switch vt {
	case cbor.ValueTimestamp:
		n, err := d.cb.Number()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		return value.EpochTime(int64(n.Float64())), nil
	case cbor.ValueUint:
		n, err := d.cb.Number()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		bits, _ := n.Uint64()
		return value.Uint64(bits), nil
	case cbor.ValueNegInt:
		n, err := d.cb.Number()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		bits, _ := n.Int64()
		return value.Int64(bits), nil
	case cbor.ValueFloat, cbor.ValueDouble:
		n, err := d.cb.Number()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		return value.Float64(n.Float64()), nil
	case cbor.ValueBool:
		b, err := d.cb.Bool()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		return value.Boolean(b), nil
	case cbor.ValueText:
		s, err := d.readShortText()
		if err != nil {
			return value.Value{}, err
		}
		if link, err := parseObjlnk(s); err == nil {
			return value.Value{Kind: value.KindObjlnk, Objlnk: link}, nil
		}
		return value.Value{Kind: value.KindString, String: value.Bytes{Chunk: []byte(s), FullLengthHint: len(s)}}, nil
	case cbor.ValueBytes:
		total, err := d.cb.Bytes()
		if err != nil {
			return value.Value{}, wrapErr(err)
		}
		var data []byte
		for {
			chunk, finished, err := d.cb.BytesGetSome()
			if err != nil {
				return value.Value{}, wrapErr(err)
			}
			data = append(data, chunk...)
			if finished {
				break
			}
		}
		return value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: data, FullLengthHint: total}}, nil
	default:
		return value.Value{}, &FormatError{Msg: "unsupported value type"}
	}
}

func (d *Decoder) readShortText() (string, error) {
	var text []byte
	for {
		chunk, finished, err := d.cb.BytesGetSome()
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
