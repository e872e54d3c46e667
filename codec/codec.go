/*
Package codec implements the format-dispatching façade (C12): a uniform
InputContext/OutputContext pair presenting one API across the four wire
formats (TLV, CBOR, SenML-CBOR, LwM2M-CBOR) plus link-format and
Plaintext, the way the lower-level packages never need to know about
each other.
*/
package codec

import "errors"

// Operation identifies the LwM2M operation a context is scoped to. It
// drives which formats are legal and whether a base path, a timestamp,
// or a link-format attribute set applies.
type Operation int

const (
	OpRead Operation = iota
	OpReadComposite
	OpWrite
	OpWritePartial
	OpExecute
	OpDiscover
	OpBootstrapRead
	OpNotify
	OpRegister
	OpBootstrapDiscover
)

// Format identifies a wire format. NotDefined is the zero value so an
// uninitialized Format is never mistaken for a valid choice.
type Format int

const (
	FormatNotDefined Format = iota
	FormatTLV
	FormatCBOR
	FormatSenMLCBOR
	FormatSenMLEtchCBOR
	FormatLwM2MCBOR
	FormatPlaintext
	FormatLinkFormat
)

func (f Format) String() string {
	switch f {
	case FormatTLV:
		return "TLV"
	case FormatCBOR:
		return "CBOR"
	case FormatSenMLCBOR:
		return "SenML-CBOR"
	case FormatSenMLEtchCBOR:
		return "SenML-ETCH-CBOR"
	case FormatLwM2MCBOR:
		return "LwM2M-CBOR"
	case FormatPlaintext:
		return "Plaintext"
	case FormatLinkFormat:
		return "Link-Format"
	default:
		return "NotDefined"
	}
}

// Sentinel errors, per the shared suspension/termination contract.
// WantMore and NeedNextCall are the same condition (not a failure)
// viewed from the input and output sides respectively.
var (
	ErrWantMore               = errors.New("codec: want more input")
	ErrNeedNextCall           = errors.New("codec: caller buffer too small, call again")
	ErrEOF                    = errors.New("codec: no more entries")
	ErrWantTypeDisambiguation = errors.New("codec: caller must narrow the type mask and retry")
	ErrBufferTooShort         = errors.New("codec: plaintext fragment does not fit caller buffer")
)

// FormatError reports that wire bytes violate the selected format's
// grammar, or a decoded path falls outside the configured base.
type FormatError struct{ Msg string }

func (e *FormatError) Error() string { return "codec: format error: " + e.Msg }

// LogicError reports caller misuse of the init/feed/get_entry or
// new_entry/get_payload/destroy call sequence.
type LogicError struct{ Msg string }

func (e *LogicError) Error() string { return "codec: logic error: " + e.Msg }

// InputArgError reports an invalid argument at context init or entry
// time: wrong path level for the operation, a missing required
// parameter, or a malformed version string.
type InputArgError struct{ Msg string }

func (e *InputArgError) Error() string { return "codec: invalid argument: " + e.Msg }

// Limits bounds every context created from it, mirroring the teacher's
// options-struct-produces-immutable-mode pattern: validate once at
// construction, then every derived context shares the same ceiling.
type Limits struct {
	MaxNestingDepth   int // CBOR container nesting, forwarded to cbor.NewDecoderWithMaxNest
	MaxTLVDepth       int // always tlv.MaxDepth; present for documentation, not independently enforced
	MaxPathLength     int // always 4, the LwM2M addressing depth
	MaxShortStringLen int // cap on buffered Plaintext input; InputContext.Feed returns ErrBufferTooShort beyond it
}

// DefaultLimits returns the ceiling every example in this module uses.
func DefaultLimits() Limits {
	return Limits{
		MaxNestingDepth:   16,
		MaxTLVDepth:       3,
		MaxPathLength:     4,
		MaxShortStringLen: 256,
	}
}

func (l Limits) validate() error {
	if l.MaxNestingDepth <= 0 {
		return &InputArgError{Msg: "MaxNestingDepth must be positive"}
	}
	return nil
}

// chooseFormat implements the dispatcher's auto-negotiation rule:
// SenML-CBOR when more than one item will be written unless the caller
// forced a specific format, CBOR for exactly one item.
func chooseFormat(itemsCount int, forced Format) (Format, error) {
	if forced != FormatNotDefined {
		return forced, nil
	}
	if itemsCount > 1 {
		return FormatSenMLCBOR, nil
	}
	return FormatCBOR, nil
}

// formatSupportsOp reports whether format is legal for op, per §6's
// format-negotiation note: link-format only serves Register/Discover/
// Bootstrap-Discover, never a value payload.
func formatSupportsOp(op Operation, format Format) bool {
	switch format {
	case FormatLinkFormat:
		return op == OpRegister || op == OpDiscover || op == OpBootstrapDiscover
	default:
		return op != OpRegister && op != OpDiscover && op != OpBootstrapDiscover
	}
}

