package lwm2mcbor

import (
	"bytes"

	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Encoder assembles an LwM2M-CBOR payload: one indefinite-length map per
// path level, reopened only where successive entries' paths diverge.
type Encoder struct {
	base       path.Path
	itemsCount int

	lastPath   path.Path
	mapsOpened int

	out bytes.Buffer
}

// NewEncoder returns an encoder for itemsCount records nested under base.
func NewEncoder(base path.Path, itemsCount int) *Encoder {
	e := &Encoder{base: base, itemsCount: itemsCount, mapsOpened: 1}
	var scratch [1]byte
	n := cbor.IndefiniteMapBegin(scratch[:])
	e.out.Write(scratch[:n])
	return e
}

func appendUint(buf *bytes.Buffer, v uint64) {
	var scratch [9]byte
	n := cbor.EncodeUint(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendInt(buf *bytes.Buffer, v int64) {
	var scratch [9]byte
	n := cbor.EncodeInt(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendDouble(buf *bytes.Buffer, v float64) {
	var scratch [9]byte
	n := cbor.EncodeDouble(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendString(buf *bytes.Buffer, s string) {
	var scratch [9]byte
	n := cbor.StringBegin(scratch[:], len(s))
	buf.Write(scratch[:n])
	buf.WriteString(s)
}

func appendBytes(buf *bytes.Buffer, b []byte) {
	var scratch [9]byte
	n := cbor.BytesBegin(scratch[:], len(b))
	buf.Write(scratch[:n])
	buf.Write(b)
}

func appendBool(buf *bytes.Buffer, v bool) {
	var scratch [1]byte
	n := cbor.EncodeBool(scratch[:], v)
	buf.Write(scratch[:n])
}

// encodePath closes the maps opened for the diverging suffix of lastPath
// and opens one new map per level of p's suffix beyond the shared prefix,
// leaving the final level's id written as a bare map key (its value
// follows immediately).
func (e *Encoder) encodePath(p path.Path) {
	span := pathSpan(e.lastPath, p)
	if e.lastPath.Length() > 0 {
		closeCount := e.lastPath.Length() - (span + 1)
		for i := 0; i < closeCount; i++ {
			var scratch [1]byte
			n := cbor.IndefiniteEnd(scratch[:])
			e.out.Write(scratch[:n])
			e.mapsOpened--
		}
	}
	for idx := span; idx < p.Length(); idx++ {
		if idx != span {
			var scratch [1]byte
			n := cbor.IndefiniteMapBegin(scratch[:])
			e.out.Write(scratch[:n])
			e.mapsOpened++
		}
		id, _ := p.IDAt(idx)
		appendUint(&e.out, uint64(id))
	}
	e.lastPath = p
}

// WriteEntry encodes one record. The only ordering check is that an
// entry's path differs from the previous entry's path, since there is no
// representation for a repeat; paths need not be increasing.
func (e *Encoder) WriteEntry(entry Entry) error {
	if e.itemsCount == 0 {
		return &FormatError{Msg: "no entries declared"}
	}
	if path.OutsideBase(entry.Path, e.base) || !entry.Path.Has(path.KindRID) ||
		path.Equal(entry.Path, e.lastPath) {
		return &FormatError{Msg: "entry path outside base, above Resource level, or repeats the previous entry"}
	}

	e.encodePath(entry.Path)

	switch entry.Value.Kind {
	case value.KindNull:
		var scratch [1]byte
		n := cbor.EncodeNull(scratch[:])
		e.out.Write(scratch[:n])
	case value.KindBytes:
		appendBytes(&e.out, entry.Value.Bytes.Chunk)
	case value.KindString:
		appendString(&e.out, string(entry.Value.String.Chunk))
	case value.KindBool:
		appendBool(&e.out, entry.Value.Bool)
	case value.KindObjlnk:
		appendString(&e.out, formatObjlnk(entry.Value.Objlnk))
	case value.KindTime:
		var scratch [9]byte
		n := cbor.EncodeTag(scratch[:], 1)
		e.out.Write(scratch[:n])
		appendInt(&e.out, entry.Value.Time)
	case value.KindInt:
		appendInt(&e.out, entry.Value.Int)
	case value.KindUint:
		appendUint(&e.out, entry.Value.Uint)
	case value.KindDouble:
		appendDouble(&e.out, entry.Value.Double)
	default:
		return &FormatError{Msg: "unsupported value kind for LwM2M-CBOR encoding"}
	}

	e.itemsCount--
	return nil
}

// Close appends the closing byte for every map still open and returns the
// complete payload.
func (e *Encoder) Close() []byte {
	for i := 0; i < e.mapsOpened; i++ {
		var scratch [1]byte
		n := cbor.IndefiniteEnd(scratch[:])
		e.out.Write(scratch[:n])
	}
	e.mapsOpened = 0
	return e.out.Bytes()
}
