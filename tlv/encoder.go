package tlv

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

const maxDeclaredLength = 1<<24 - 1

// containerFrame buffers the not-yet-flushed bytes of an open Object
// Instance or Resource-array container; its header (whose length field
// depends on the total size of its children) is only known once the
// container closes.
type containerFrame struct {
	level int
	id    uint16
	buf   bytes.Buffer
}

// Encoder is the TLV "level tracker": it accepts a sequence of
// (path, value) entries in path order and emits minimum-width TLV
// headers, opening and closing Object-Instance/Resource-array containers
// as the path's shared prefix with the previous entry changes.
type Encoder struct {
	base   path.Path
	frames []containerFrame
	out    bytes.Buffer

	havePrev bool
	prev     path.Path
}

// NewEncoder returns an encoder for entries nested under base.
func NewEncoder(base path.Path) *Encoder {
	return &Encoder{base: base}
}

func headerWidths(id uint16, length int) (idKindBit byte, lenWidthCode byte, lenWidth int) {
	if id > 255 {
		idKindBit = 0x20
	}
	switch {
	case length <= 7:
		lenWidthCode, lenWidth = 0, 0
	case length <= 0xFF:
		lenWidthCode, lenWidth = 1, 1
	case length <= 0xFFFF:
		lenWidthCode, lenWidth = 2, 2
	default:
		lenWidthCode, lenWidth = 3, 3
	}
	return
}

func writeHeader(buf *bytes.Buffer, kind idKind, id uint16, length int) error {
	if length > maxDeclaredLength {
		return &FormatError{Msg: "declared length exceeds 2^24-1"}
	}
	idBit, lenCode, lenWidth := headerWidths(id, length)
	tf := byte(kind<<6) | idBit | (lenCode << 3)
	if lenCode == 0 {
		tf |= byte(length & 7)
	}
	buf.WriteByte(tf)
	if idBit != 0 {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], id)
		buf.Write(b[:])
	} else {
		buf.WriteByte(byte(id))
	}
	if lenWidth > 0 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(length))
		buf.Write(b[4-lenWidth:])
	}
	return nil
}

// innermost returns the buffer entries should currently be written into:
// the innermost open container, or the encoder's top-level output.
func (e *Encoder) innermost() *bytes.Buffer {
	if len(e.frames) == 0 {
		return &e.out
	}
	return &e.frames[len(e.frames)-1].buf
}

// closeFrame flushes a single open container frame into whichever buffer
// is now innermost.
func (e *Encoder) closeFrame() error {
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	kind := kindIID
	if f.level == 2 {
		kind = kindRIDArray
	}
	dst := e.innermost()
	if err := writeHeader(dst, kind, f.id, f.buf.Len()); err != nil {
		return err
	}
	dst.Write(f.buf.Bytes())
	return nil
}

// reconcile closes containers that diverge from p's path and opens
// containers for any new levels strictly between the base and p's leaf
// level.
func (e *Encoder) reconcile(p path.Path) error {
	// Close any open frame whose id no longer matches p, innermost first.
	for len(e.frames) > 0 {
		top := &e.frames[len(e.frames)-1]
		id, ok := p.IDAt(top.level)
		if ok && id == top.id {
			break
		}
		if err := e.closeFrame(); err != nil {
			return err
		}
	}

	leafLevel := p.Length() - 1
	nextLevel := e.base.Length()
	if len(e.frames) > 0 {
		nextLevel = e.frames[len(e.frames)-1].level + 1
	}
	for level := nextLevel; level < leafLevel; level++ {
		id, ok := p.IDAt(level)
		if !ok {
			break
		}
		e.frames = append(e.frames, containerFrame{level: level, id: id})
		if len(e.frames) > MaxDepth {
			return &FormatError{Msg: "container nesting exceeded"}
		}
	}
	return nil
}

func leafKind(level int) idKind {
	if level == 1 {
		return kindIID
	}
	if level == 3 {
		return kindRIID
	}
	return kindRID
}

func minimalIntWidth(v int64) int {
	switch {
	case v >= -128 && v <= 127:
		return 1
	case v >= -32768 && v <= 32767:
		return 2
	case v >= -1<<31 && v <= 1<<31-1:
		return 4
	default:
		return 8
	}
}

func minimalUintWidth(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

func appendIntBytes(dst *bytes.Buffer, v int64, width int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	dst.Write(b[8-width:])
}

func appendUintBytes(dst *bytes.Buffer, v uint64, width int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	dst.Write(b[8-width:])
}

// WriteEntry encodes one (path, value) pair. Entries must be written in
// path order (the same order TLV nesting requires): siblings grouped
// together, deeper paths immediately following their container's first
// child.
func (e *Encoder) WriteEntry(p path.Path, v value.Value) error {
	if path.OutsideBase(p, e.base) {
		return &FormatError{Msg: "entry path escapes base path"}
	}
	if err := e.reconcile(p); err != nil {
		return err
	}
	leafLevel := p.Length() - 1
	id, _ := p.IDAt(leafLevel)
	kind := leafKind(leafLevel)
	dst := e.innermost()

	switch v.Kind {
	case value.KindNull:
		if kind != kindIID && kind != kindRIID {
			return &FormatError{Msg: "null value only valid for Object Instance or Resource Instance entries"}
		}
		if err := writeHeader(dst, kind, id, 0); err != nil {
			return err
		}
	case value.KindInt, value.KindTime:
		n := v.Int
		if v.Kind == value.KindTime {
			n = v.Time
		}
		width := minimalIntWidth(n)
		if err := writeHeader(dst, kind, id, width); err != nil {
			return err
		}
		appendIntBytes(dst, n, width)
	case value.KindUint:
		width := minimalUintWidth(v.Uint)
		if err := writeHeader(dst, kind, id, width); err != nil {
			return err
		}
		appendUintBytes(dst, v.Uint, width)
	case value.KindDouble:
		if f := float32(v.Double); float64(f) == v.Double {
			if err := writeHeader(dst, kind, id, 4); err != nil {
				return err
			}
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
			dst.Write(b[:])
		} else {
			if err := writeHeader(dst, kind, id, 8); err != nil {
				return err
			}
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Double))
			dst.Write(b[:])
		}
	case value.KindBool:
		if err := writeHeader(dst, kind, id, 1); err != nil {
			return err
		}
		if v.Bool {
			dst.WriteByte(1)
		} else {
			dst.WriteByte(0)
		}
	case value.KindObjlnk:
		if err := writeHeader(dst, kind, id, 4); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint16(b[0:2], v.Objlnk.OID)
		binary.BigEndian.PutUint16(b[2:4], v.Objlnk.IID)
		dst.Write(b[:])
	case value.KindBytes, value.KindString:
		chunk := v.Bytes
		if v.Kind == value.KindString {
			chunk = v.String
		}
		if err := writeHeader(dst, kind, id, len(chunk.Chunk)); err != nil {
			return err
		}
		dst.Write(chunk.Chunk)
	default:
		return &FormatError{Msg: "unsupported value kind for TLV encoding"}
	}

	e.havePrev = true
	e.prev = p
	return nil
}

// Close flushes every open container and returns the complete payload.
func (e *Encoder) Close() ([]byte, error) {
	for len(e.frames) > 0 {
		if err := e.closeFrame(); err != nil {
			return nil, err
		}
	}
	return e.out.Bytes(), nil
}
