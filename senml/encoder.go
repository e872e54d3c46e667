package senml

import (
	"bytes"

	"github.com/anjlabs/anj/cbor"
	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Encoder assembles a SenML-CBOR payload: an outer array of per-record
// maps, sharing a base path and (optionally) a common timestamp encoding.
type Encoder struct {
	base       path.Path
	itemsCount int
	encodeTime bool

	firstEntryWritten bool
	lastTimestamp     float64

	out bytes.Buffer
}

// NewEncoder returns an encoder for itemsCount records nested under base.
// When encodeTime is false, timestamps are never emitted.
func NewEncoder(base path.Path, itemsCount int, encodeTime bool) *Encoder {
	return &Encoder{base: base, itemsCount: itemsCount, encodeTime: encodeTime}
}

func appendCBORInt(buf *bytes.Buffer, v int64) {
	var scratch [9]byte
	n := cbor.EncodeInt(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendCBORUint(buf *bytes.Buffer, v uint64) {
	var scratch [9]byte
	n := cbor.EncodeUint(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendCBORDouble(buf *bytes.Buffer, v float64) {
	var scratch [9]byte
	n := cbor.EncodeDouble(scratch[:], v)
	buf.Write(scratch[:n])
}

func appendCBORString(buf *bytes.Buffer, s string) {
	var scratch [9]byte
	n := cbor.StringBegin(scratch[:], len(s))
	buf.Write(scratch[:n])
	buf.WriteString(s)
}

func appendCBORBytes(buf *bytes.Buffer, b []byte) {
	var scratch [9]byte
	n := cbor.BytesBegin(scratch[:], len(b))
	buf.Write(scratch[:n])
	buf.Write(b)
}

func appendCBORBool(buf *bytes.Buffer, v bool) {
	var scratch [1]byte
	n := cbor.EncodeBool(scratch[:], v)
	buf.Write(scratch[:n])
}

func relativeSuffix(base, p path.Path) string {
	s := ""
	for i := base.Length(); i < p.Length(); i++ {
		id, _ := p.IDAt(i)
		s += "/" + numfmt.FormatInt(int64(id))
	}
	return s
}

// WriteEntry encodes one record.
func (e *Encoder) WriteEntry(entry Entry) error {
	if path.OutsideBase(entry.Path, e.base) || !entry.Path.Has(path.KindRID) {
		return &FormatError{Msg: "entry path outside base or above Resource level"}
	}

	first := !e.firstEntryWritten
	withBaseName := first && e.base.Length() > 0
	withName := entry.Path.Length() != e.base.Length()
	// A NaN timestamp (absent) compares unequal to itself and is not emitted.
	withTime := e.encodeTime && entry.Timestamp == entry.Timestamp && e.lastTimestamp != entry.Timestamp

	if first {
		var scratch [9]byte
		n := cbor.DefiniteArrayBegin(scratch[:], e.itemsCount)
		e.out.Write(scratch[:n])
	}

	mapSize := 1
	if withBaseName {
		mapSize++
	}
	if withName {
		mapSize++
	}
	if withTime {
		mapSize++
	}
	var scratch [9]byte
	n := cbor.DefiniteMapBegin(scratch[:], mapSize)
	e.out.Write(scratch[:n])

	if withBaseName {
		appendCBORInt(&e.out, labelBaseName)
		appendCBORString(&e.out, e.base.String())
	}
	if withName {
		appendCBORInt(&e.out, labelName)
		appendCBORString(&e.out, relativeSuffix(e.base, entry.Path))
	}
	if withTime {
		e.lastTimestamp = entry.Timestamp
		appendCBORInt(&e.out, labelBaseTime)
		appendCBORDouble(&e.out, entry.Timestamp)
	}

	switch entry.Value.Kind {
	case value.KindBytes:
		appendCBORUint(&e.out, labelValueOpaque)
		appendCBORBytes(&e.out, entry.Value.Bytes.Chunk)
	case value.KindString:
		appendCBORUint(&e.out, labelValueString)
		appendCBORString(&e.out, string(entry.Value.String.Chunk))
	case value.KindBool:
		appendCBORUint(&e.out, labelValueBool)
		appendCBORBool(&e.out, entry.Value.Bool)
	case value.KindObjlnk:
		appendCBORString(&e.out, objlnkStringLabel)
		appendCBORString(&e.out, formatObjlnk(entry.Value.Objlnk))
	case value.KindTime:
		appendCBORUint(&e.out, labelValue)
		var tagScratch [9]byte
		tn := cbor.EncodeTag(tagScratch[:], 1)
		e.out.Write(tagScratch[:tn])
		appendCBORInt(&e.out, entry.Value.Time)
	case value.KindInt:
		appendCBORUint(&e.out, labelValue)
		appendCBORInt(&e.out, entry.Value.Int)
	case value.KindUint:
		appendCBORUint(&e.out, labelValue)
		appendCBORUint(&e.out, entry.Value.Uint)
	case value.KindDouble:
		appendCBORUint(&e.out, labelValue)
		appendCBORDouble(&e.out, entry.Value.Double)
	default:
		return &FormatError{Msg: "unsupported value kind for SenML-CBOR encoding"}
	}

	e.firstEntryWritten = true
	return nil
}

// Close returns the complete payload. A SenML-CBOR payload needs no
// finalization beyond the array/map headers already written with their
// declared sizes, so Close is purely a read of the accumulated bytes.
func (e *Encoder) Close() []byte {
	return e.out.Bytes()
}
