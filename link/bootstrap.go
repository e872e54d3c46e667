package link

import (
	"bytes"

	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/path"
)

// BootstrapDiscoverWriter assembles the Bootstrap-Discover link-format
// payload: a leading "</>;lwm2m=1.1" record followed by one record
// per Object or Object Instance, each optionally carrying ;ver=, ;ssid=
// (Security/Server/OSCORE only), or a streamed ;uri="..." (Security only).
type BootstrapDiscoverWriter struct {
	out      bytes.Buffer
	base     path.Path
	lastPath path.Path
	first    bool
}

// NewBootstrapDiscoverWriter returns a writer for entries under base,
// which must not reach the Object Instance level.
func NewBootstrapDiscoverWriter(base path.Path) (*BootstrapDiscoverWriter, error) {
	if base.Has(path.KindIID) {
		return nil, &InputArgError{Msg: "base path must not reach the Object Instance level"}
	}
	return &BootstrapDiscoverWriter{base: base}, nil
}

// WriteEntry appends one record. ssid is only valid on the Security,
// Server, or OSCORE objects (and required on the Server object); uri is
// only valid on the Security object; version is only valid at the Object
// level.
func (w *BootstrapDiscoverWriter) WriteEntry(p path.Path, version string, ssid *uint16, uri string) error {
	if !(p.Is(path.KindOID) || p.Is(path.KindIID)) || path.OutsideBase(p, w.base) ||
		!path.StrictlyIncreasing(w.lastPath, p) {
		return &InputArgError{Msg: "path must be an Object or Object Instance under base, in increasing order"}
	}
	oid, _ := p.IDAt(0)
	if ssid != nil && oid != objSecurity && oid != objServer && oid != objOSCORE {
		return &InputArgError{Msg: "ssid is only valid on Security, Server, or OSCORE objects"}
	}
	if ssid == nil && oid == objServer {
		return &InputArgError{Msg: "ssid is required on the Server object"}
	}
	if uri != "" && oid != objSecurity {
		return &InputArgError{Msg: "uri is only valid on the Security object"}
	}
	if p.Is(path.KindOID) && (uri != "" || ssid != nil) {
		return &InputArgError{Msg: "ssid and uri are only valid at the Object Instance level"}
	}
	if p.Is(path.KindIID) && version != "" {
		return &InputArgError{Msg: "version is only valid at the Object level"}
	}
	if err := validateVersion(version); err != nil {
		return err
	}

	if !w.first {
		w.out.WriteString("</>;lwm2m=1.1")
	}
	w.out.WriteByte(',')
	w.out.WriteString(formatPathRecord(p))
	if version != "" {
		w.out.WriteString(";ver=")
		w.out.WriteString(version)
	}
	if ssid != nil {
		w.out.WriteString(";ssid=")
		w.out.WriteString(numfmt.FormatInt(int64(*ssid)))
	}
	if uri != "" {
		w.out.WriteString(`;uri="`)
		w.out.WriteString(uri)
		w.out.WriteByte('"')
	}

	w.first = true
	w.lastPath = p
	return nil
}

// Close returns the complete payload.
func (w *BootstrapDiscoverWriter) Close() []byte {
	return w.out.Bytes()
}
