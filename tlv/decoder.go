package tlv

import (
	"encoding/binary"
	"math"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Decoder streams TLV entries nested under a fixed base path. The zero
// value is not usable; construct with NewDecoder.
type Decoder struct {
	buf  []byte
	pos  int
	last bool

	base       path.Path
	currentIDs [4]uint16
	currentLen int

	stack []entry

	hasPath bool
}

// NewDecoder returns a decoder for entries nested under base.
func NewDecoder(base path.Path) *Decoder {
	d := &Decoder{base: base, stack: make([]entry, 0, MaxDepth)}
	for i := 0; i < base.Length(); i++ {
		id, _ := base.IDAt(i)
		d.currentIDs[i] = id
	}
	d.currentLen = base.Length()
	return d
}

// Feed supplies the next chunk of wire bytes, appending it to whatever
// was left unconsumed by the previous Feed. It is a LogicError to feed
// more data after a previous Feed marked isLast.
func (d *Decoder) Feed(data []byte, isLast bool) error {
	if d.last {
		return ErrLogic
	}
	combined := make([]byte, 0, (len(d.buf)-d.pos)+len(data))
	combined = append(combined, d.buf[d.pos:]...)
	combined = append(combined, data...)
	d.buf = combined
	d.pos = 0
	d.last = isLast
	return nil
}

func (d *Decoder) ensureBytes(n int) bool {
	return d.pos+n <= len(d.buf)
}

func (d *Decoder) headerWantMoreOrEOF() error {
	if !d.last {
		return ErrWantMore
	}
	if len(d.stack) == 0 && d.pos == len(d.buf) {
		return ErrEOF
	}
	return &FormatError{Msg: "truncated header"}
}

// peekHeader parses one TLV header (type field, id, length) without
// advancing d.pos.
func (d *Decoder) peekHeader() (k idKind, id uint16, length int, headerLen int, err error) {
	if !d.ensureBytes(1) {
		return 0, 0, 0, 0, d.headerWantMoreOrEOF()
	}
	tf := d.buf[d.pos]
	if tf == noTypeField {
		return 0, 0, 0, 0, &FormatError{Msg: "reserved type field 0xFF"}
	}
	k = idKind((tf >> 6) & 3)
	idWidth := 1
	if tf&0x20 != 0 {
		idWidth = 2
	}
	lenWidth := int((tf >> 3) & 3)
	need := 1 + idWidth + lenWidth
	if !d.ensureBytes(need) {
		return 0, 0, 0, 0, d.headerWantMoreOrEOF()
	}
	off := d.pos + 1
	for i := 0; i < idWidth; i++ {
		id = id<<8 | uint16(d.buf[off+i])
	}
	off += idWidth
	if lenWidth == 0 {
		length = int(tf & 7)
	} else {
		for i := 0; i < lenWidth; i++ {
			length = length<<8 | int(d.buf[off+i])
		}
	}
	return k, id, length, need, nil
}

func (d *Decoder) currentPath() path.Path {
	p, _ := path.New(d.currentIDs[:d.currentLen]...)
	return p
}

// Path returns the path of the current entry, descending through any
// nested containers (Object Instance / Resource-array) until a leaf
// entry (a Resource, a Resource Instance, or an empty container) is
// reached.
func (d *Decoder) Path() (path.Path, error) {
	if d.hasPath {
		return d.currentPath(), nil
	}
	for {
		k, id, length, headerLen, err := d.peekHeader()
		if err != nil {
			return path.Path{}, err
		}
		if id == path.Invalid {
			return path.Path{}, &FormatError{Msg: "id is the sentinel value"}
		}

		parentIdx := len(d.stack) - 1
		d.stack = append(d.stack, entry{kind: k, declaredLength: length})
		if len(d.stack) > MaxDepth {
			return path.Path{}, &FormatError{Msg: "entry stack exceeded"}
		}
		if parentIdx >= 0 {
			d.stack[parentIdx].bytesRead += headerLen + length
			if d.stack[parentIdx].bytesRead > d.stack[parentIdx].declaredLength {
				return path.Path{}, &FormatError{Msg: "child entry overruns parent length"}
			}
		}
		d.pos += headerLen

		lvl := k.level()
		d.currentIDs[lvl] = id
		d.currentLen = lvl + 1

		p := d.currentPath()
		if path.OutsideBase(p, d.base) {
			return path.Path{}, &FormatError{Msg: "entry path escapes base path"}
		}

		if length == 0 || k == kindRID || k == kindRIID {
			d.hasPath = true
			return p, nil
		}
		// IID or non-empty RID-array: a container, descend into its children.
	}
}

func (d *Decoder) currentEntry() *entry {
	if len(d.stack) == 0 {
		return nil
	}
	return &d.stack[len(d.stack)-1]
}

func (d *Decoder) requireLeaf() (*entry, error) {
	if !d.hasPath {
		return nil, ErrLogic
	}
	e := d.currentEntry()
	if e == nil {
		return nil, ErrLogic
	}
	return e, nil
}

func (d *Decoder) readFixed(e *entry, n int) ([]byte, error) {
	if !d.ensureBytes(n) {
		if d.last {
			return nil, &FormatError{Msg: "truncated value"}
		}
		return nil, ErrWantMore
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	e.bytesRead += n
	return b, nil
}

// DeclaredLength returns the current leaf entry's declared byte length.
func (d *Decoder) DeclaredLength() (int, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return 0, err
	}
	return e.declaredLength, nil
}

// IsNull reports whether the current leaf is an empty Object Instance or
// Resource Instance entry, which TLV uses to represent a Null value.
func (d *Decoder) IsNull() (bool, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return false, err
	}
	return e.declaredLength == 0 && (e.kind == kindIID || e.kind == kindRIID), nil
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// Int decodes the current leaf as a sign-extended integer. Its declared
// length must be a power of two no greater than 8.
func (d *Decoder) Int() (int64, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return 0, err
	}
	if e.declaredLength == 0 {
		return 0, nil
	}
	if !isPow2(e.declaredLength) || e.declaredLength > 8 {
		return 0, &FormatError{Msg: "int length must be a power of two <= 8"}
	}
	b, err := d.readFixed(e, e.declaredLength)
	if err != nil {
		return 0, err
	}
	var u uint64
	if int8(b[0]) < 0 {
		u = ^uint64(0)
	}
	for _, x := range b {
		u = u<<8 | uint64(x)
	}
	return int64(u), nil
}

// Uint decodes the current leaf as an unsigned integer. Its declared
// length must be a power of two no greater than 8.
func (d *Decoder) Uint() (uint64, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return 0, err
	}
	if e.declaredLength == 0 {
		return 0, nil
	}
	if !isPow2(e.declaredLength) || e.declaredLength > 8 {
		return 0, &FormatError{Msg: "uint length must be a power of two <= 8"}
	}
	b, err := d.readFixed(e, e.declaredLength)
	if err != nil {
		return 0, err
	}
	var u uint64
	for _, x := range b {
		u = u<<8 | uint64(x)
	}
	return u, nil
}

// Double decodes the current leaf as a big-endian float32 or float64,
// selected by its declared length (4 or 8 bytes).
func (d *Decoder) Double() (float64, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return 0, err
	}
	if e.declaredLength != 4 && e.declaredLength != 8 {
		return 0, &FormatError{Msg: "double length must be 4 or 8"}
	}
	b, err := d.readFixed(e, e.declaredLength)
	if err != nil {
		return 0, err
	}
	if e.declaredLength == 4 {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// Bool decodes the current leaf, whose declared length must be 1 and
// whose single byte must be 0 or 1.
func (d *Decoder) Bool() (bool, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return false, err
	}
	if e.declaredLength != 1 {
		return false, &FormatError{Msg: "bool length must be 1"}
	}
	b, err := d.readFixed(e, 1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &FormatError{Msg: "bool value must be 0 or 1"}
	}
}

// Objlnk decodes the current leaf as a pair of big-endian uint16s. Its
// declared length must be 4.
func (d *Decoder) Objlnk() (value.Objlnk, error) {
	e, err := d.requireLeaf()
	if err != nil {
		return value.Objlnk{}, err
	}
	if e.declaredLength != 4 {
		return value.Objlnk{}, &FormatError{Msg: "objlnk length must be 4"}
	}
	b, err := d.readFixed(e, 4)
	if err != nil {
		return value.Objlnk{}, err
	}
	return value.Objlnk{
		OID: binary.BigEndian.Uint16(b[0:2]),
		IID: binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// BytesChunk returns the next available chunk of the current leaf's raw
// payload. finished reports whether this was the final chunk. The
// returned slice is borrowed: valid only until the next decoder call.
func (d *Decoder) BytesChunk() (chunk []byte, finished bool, err error) {
	e, err := d.requireLeaf()
	if err != nil {
		return nil, false, err
	}
	remaining := e.declaredLength - e.bytesRead
	if remaining == 0 {
		return nil, true, nil
	}
	avail := len(d.buf) - d.pos
	if avail == 0 {
		if d.last {
			return nil, false, &FormatError{Msg: "truncated value"}
		}
		return nil, false, ErrWantMore
	}
	if avail > remaining {
		avail = remaining
	}
	chunk = d.buf[d.pos : d.pos+avail]
	d.pos += avail
	e.bytesRead += avail
	return chunk, e.bytesRead == e.declaredLength, nil
}

// Next flushes any unread bytes of the current entry, pops every
// now-exhausted container frame, and prepares Path() to parse the next
// entry. Returns ErrEOF once every fed byte has been consumed with no
// entry left open.
func (d *Decoder) Next() error {
	if !d.hasPath {
		return ErrLogic
	}
	e := d.currentEntry()
	if e == nil {
		return ErrLogic
	}
	for e.bytesRead < e.declaredLength {
		avail := len(d.buf) - d.pos
		if avail == 0 {
			if d.last {
				return &FormatError{Msg: "truncated entry"}
			}
			return ErrWantMore
		}
		remaining := e.declaredLength - e.bytesRead
		if avail > remaining {
			avail = remaining
		}
		d.pos += avail
		e.bytesRead += avail
	}

	d.hasPath = false
	for len(d.stack) > 0 {
		top := &d.stack[len(d.stack)-1]
		if top.bytesRead != top.declaredLength {
			break
		}
		d.currentLen = top.kind.level()
		d.stack = d.stack[:len(d.stack)-1]
	}
	return nil
}
