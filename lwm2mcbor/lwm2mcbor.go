/*
Package lwm2mcbor implements the OMA LwM2M-CBOR wire format: a single
indefinite-length CBOR map, keyed by path id at every level, with sibling
resources under a shared Object/Instance/Resource prefix sharing the
corresponding open maps instead of repeating the prefix per record.
*/
package lwm2mcbor

import (
	"errors"
	"strings"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Sentinel errors, matching the decoder/encoder suspension and
// termination contract shared by every wire codec in this module.
var (
	ErrWantMore = errors.New("lwm2mcbor: want more input")
	ErrEOF      = errors.New("lwm2mcbor: no more entries")
	ErrLogic    = errors.New("lwm2mcbor: invalid call sequence")
)

// FormatError reports that the wire bytes violate the LwM2M-CBOR grammar,
// or that a path falls outside the configured base.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "lwm2mcbor: format error: " + e.Msg }

// Entry is one decoded or to-be-encoded LwM2M-CBOR record.
type Entry struct {
	Path  path.Path
	Value value.Value
}

// pathSpan returns the number of leading levels at which a and b agree.
func pathSpan(a, b path.Path) int {
	n := a.Length()
	if b.Length() < n {
		n = b.Length()
	}
	span := 0
	for i := 0; i < n; i++ {
		ida, _ := a.IDAt(i)
		idb, _ := b.IDAt(i)
		if ida != idb {
			break
		}
		span++
	}
	return span
}

func formatObjlnk(o value.Objlnk) string {
	return itoa(uint32(o.OID)) + ":" + itoa(uint32(o.IID))
}

func parseObjlnk(s string) (value.Objlnk, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return value.Objlnk{}, &FormatError{Msg: "malformed objlnk string"}
	}
	oid, err1 := parseUint16(parts[0])
	iid, err2 := parseUint16(parts[1])
	if err1 != nil || err2 != nil {
		return value.Objlnk{}, &FormatError{Msg: "malformed objlnk string"}
	}
	return value.Objlnk{OID: oid, IID: iid}, nil
}

func parseUint16(s string) (uint16, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	var v uint32
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.New("not digits")
		}
		v = v*10 + uint32(c-'0')
		if v > 0xFFFF {
			return 0, errors.New("overflow")
		}
	}
	return uint16(v), nil
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
