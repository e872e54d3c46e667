package link

import (
	"bytes"

	"github.com/anjlabs/anj/path"
)

// RegisterWriter assembles the Register link-format payload: one record
// per Object or Object Instance, in path-increasing order.
type RegisterWriter struct {
	out      bytes.Buffer
	lastPath path.Path
	first    bool
}

// NewRegisterWriter returns an empty register payload writer.
func NewRegisterWriter() *RegisterWriter {
	return &RegisterWriter{}
}

// WriteEntry appends one record for an Object or Object Instance path.
// version is only valid at the Object level; the Security and OSCORE
// objects are never registered (bootstrap-only objects).
func (w *RegisterWriter) WriteEntry(p path.Path, version string) error {
	if !(p.Is(path.KindOID) || p.Is(path.KindIID)) || !path.StrictlyIncreasing(w.lastPath, p) {
		return &InputArgError{Msg: "path must be an Object or Object Instance, in increasing order"}
	}
	id, _ := p.IDAt(0)
	if id == objSecurity || id == objOSCORE {
		return &InputArgError{Msg: "Security and OSCORE objects are never registered"}
	}
	if p.Is(path.KindIID) && version != "" {
		return &InputArgError{Msg: "version is only valid at the Object level"}
	}
	if err := validateVersion(version); err != nil {
		return err
	}

	if w.first {
		w.out.WriteByte(',')
	}
	w.out.WriteString(formatPathRecord(p))
	if version != "" {
		w.out.WriteString(";ver=")
		w.out.WriteString(version)
	}

	w.lastPath = p
	w.first = true
	return nil
}

// Close returns the complete payload.
func (w *RegisterWriter) Close() []byte {
	return w.out.Bytes()
}
