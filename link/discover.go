package link

import (
	"bytes"

	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/path"
)

func formatUintAttr(name string, v uint32) string {
	return ";" + name + "=" + numfmt.FormatInt(int64(v))
}

func formatFloatAttr(name string, v float64) string {
	return ";" + name + "=" + numfmt.FormatDouble(v)
}

// nextAttribute returns and clears the next pending attribute, in the
// fixed emission order pmin, pmax, gt, lt, st, epmin, epmax, edge, con,
// hqmax, or "" once none remain.
func nextAttribute(a *AttrNotification) string {
	switch {
	case a.MinPeriod != nil:
		v := *a.MinPeriod
		a.MinPeriod = nil
		return formatUintAttr("pmin", v)
	case a.MaxPeriod != nil:
		v := *a.MaxPeriod
		a.MaxPeriod = nil
		return formatUintAttr("pmax", v)
	case a.GreaterThan != nil:
		v := *a.GreaterThan
		a.GreaterThan = nil
		return formatFloatAttr("gt", v)
	case a.LessThan != nil:
		v := *a.LessThan
		a.LessThan = nil
		return formatFloatAttr("lt", v)
	case a.Step != nil:
		v := *a.Step
		a.Step = nil
		return formatFloatAttr("st", v)
	case a.MinEvalPeriod != nil:
		v := *a.MinEvalPeriod
		a.MinEvalPeriod = nil
		return formatUintAttr("epmin", v)
	case a.MaxEvalPeriod != nil:
		v := *a.MaxEvalPeriod
		a.MaxEvalPeriod = nil
		return formatUintAttr("epmax", v)
	case a.Edge != nil:
		v := *a.Edge
		a.Edge = nil
		return formatUintAttr("edge", v)
	case a.Con != nil:
		v := *a.Con
		a.Con = nil
		return formatUintAttr("con", v)
	case a.Hqmax != nil:
		v := *a.Hqmax
		a.Hqmax = nil
		return formatUintAttr("hqmax", v)
	default:
		return ""
	}
}

// DiscoverWriter assembles the Discover link-format payload: one record
// per addressed element within the configured depth, each optionally
// carrying ;dim=, ;ver=, and a Discover attribute set.
type DiscoverWriter struct {
	out   bytes.Buffer
	base  path.Path
	depth int

	lastPath   path.Path
	dimCounter uint16
	first      bool
}

// NewDiscoverWriter returns a writer for entries under base, reporting
// entries up to depth levels below it. A nil depth selects the LwM2M
// default (2 at the Object level, 1 otherwise).
func NewDiscoverWriter(base path.Path, depth *int) (*DiscoverWriter, error) {
	if depth != nil && (*depth < 0 || *depth > 3) {
		return nil, &InputArgError{Msg: "depth must be 0..3"}
	}
	if !base.Has(path.KindOID) || base.Is(path.KindRIID) {
		return nil, &InputArgError{Msg: "base path must reach at least the Object level and not the Resource Instance level"}
	}
	d := 1
	switch {
	case depth != nil:
		d = *depth
	case base.Is(path.KindOID):
		d = 2
	}
	return &DiscoverWriter{base: base, depth: d}, nil
}

// WriteEntry appends one record. dim is only valid on a Resource path
// that has multiple Resource Instances; attrs, when non-nil, is read
// through a copy and left unchanged.
func (w *DiscoverWriter) WriteEntry(p path.Path, attrs *AttrNotification, version string, dim *uint16) error {
	if p.Length()-w.base.Length() > w.depth {
		return ErrWarningDepth
	}
	if (w.dimCounter > 0 && !p.Is(path.KindRIID)) || (w.dimCounter == 0 && p.Is(path.KindRIID)) {
		return ErrLogic
	}
	if path.OutsideBase(p, w.base) || !p.Has(path.KindOID) || !path.StrictlyIncreasing(w.lastPath, p) ||
		(version != "" && !p.Is(path.KindOID)) || (dim != nil && !p.Is(path.KindRID)) {
		return &InputArgError{Msg: "path outside base, out of order, or attribute attached at the wrong level"}
	}
	if err := validateVersion(version); err != nil {
		return err
	}

	if dim != nil && resInstancesWillBeWritten(w.base, w.depth) {
		w.dimCounter = *dim
	}

	if w.first {
		w.out.WriteByte(',')
	}
	w.out.WriteString(formatPathRecord(p))
	if dim != nil {
		w.out.WriteString(";dim=")
		w.out.WriteString(numfmt.FormatInt(int64(*dim)))
	}
	if version != "" {
		w.out.WriteString(";ver=")
		w.out.WriteString(version)
	}
	if attrs != nil {
		a := *attrs
		for {
			s := nextAttribute(&a)
			if s == "" {
				break
			}
			w.out.WriteString(s)
		}
	}

	w.first = true
	w.lastPath = p
	if w.dimCounter > 0 && p.Is(path.KindRIID) {
		w.dimCounter--
	}
	return nil
}

// Close returns the complete payload.
func (w *DiscoverWriter) Close() []byte {
	return w.out.Bytes()
}
