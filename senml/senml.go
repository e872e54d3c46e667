/*
Package senml implements the SenML-CBOR wire format (RFC 8428 §6): an
outer CBOR array of per-record maps, each keyed by small integer (or, for
the objlnk extension, string) labels.
*/
package senml

import (
	"errors"
	"strings"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Record labels, per RFC 8428 table 4 plus the LwM2M objlnk extension.
const (
	labelBaseTime    = -3
	labelBaseName    = -2
	labelName        = 0
	labelValue       = 2
	labelValueString = 3
	labelValueBool   = 4
	labelTime        = 6
	labelValueOpaque = 8
)

const objlnkStringLabel = "vlo"

// Sentinel errors, matching the decoder/encoder suspension and
// termination contract shared by every wire codec in this module.
var (
	ErrWantMore = errors.New("senml: want more input")
	ErrEOF      = errors.New("senml: no more entries")
	ErrLogic    = errors.New("senml: invalid call sequence")
)

// FormatError reports that the wire bytes violate the SenML-CBOR grammar,
// or that a decoded path falls outside the configured base.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "senml: format error: " + e.Msg }

// Entry is one decoded or to-be-encoded SenML-CBOR record.
type Entry struct {
	Path      path.Path
	Value     value.Value
	Timestamp float64 // seconds since epoch; base time + time delta, or absolute
	HasValue  bool    // false only for composite-read records, which carry no value
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

func formatObjlnk(o value.Objlnk) string {
	return itoa(uint32(o.OID)) + ":" + itoa(uint32(o.IID))
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
