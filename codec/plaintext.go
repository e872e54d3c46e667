package codec

import (
	"strconv"
	"strings"

	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/value"
)

// plaintextEncode renders a single resource value as the LwM2M
// Plaintext wire format: decimal for numbers, "0"/"1" for bool, the
// epoch second count for time, and base64 for opaque bytes.
func plaintextEncode(v value.Value) ([]byte, error) {
	switch v.Kind {
	case value.KindInt:
		return []byte(numfmt.FormatInt(v.Int)), nil
	case value.KindUint:
		return []byte(strconv.FormatUint(v.Uint, 10)), nil
	case value.KindDouble:
		return []byte(numfmt.FormatDouble(v.Double)), nil
	case value.KindBool:
		if v.Bool {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	case value.KindTime:
		return []byte(numfmt.FormatInt(v.Time)), nil
	case value.KindString:
		return []byte(v.String.Chunk), nil
	case value.KindBytes:
		return []byte(numfmt.EncodeBase64(v.Bytes.Chunk)), nil
	default:
		return nil, &FormatError{Msg: "plaintext cannot represent this value kind"}
	}
}

// plaintextDecode parses raw as the one kind named by hint. A hint with
// more than one bit set, or a zero hint (every kind is then a candidate),
// yields ErrWantTypeDisambiguation without attempting a parse.
func plaintextDecode(raw []byte, hint value.Kind) (value.Value, error) {
	s := string(raw)
	try := func(k value.Kind) (value.Value, bool) {
		switch k {
		case value.KindInt:
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return value.Value{}, false
			}
			return value.Int64(n), true
		case value.KindUint:
			n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return value.Value{}, false
			}
			return value.Uint64(n), true
		case value.KindDouble:
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return value.Value{}, false
			}
			return value.Float64(f), true
		case value.KindBool:
			switch strings.TrimSpace(s) {
			case "0":
				return value.Boolean(false), true
			case "1":
				return value.Boolean(true), true
			default:
				return value.Value{}, false
			}
		case value.KindTime:
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return value.Value{}, false
			}
			return value.EpochTime(n), true
		case value.KindString:
			return value.Value{Kind: value.KindString, String: value.Bytes{Chunk: []byte(s), FullLengthHint: len(raw)}}, true
		case value.KindBytes:
			b, err := numfmt.DecodeBase64(s)
			if err != nil {
				return value.Value{}, false
			}
			return value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: b, FullLengthHint: len(b)}}, true
		default:
			return value.Value{}, false
		}
	}

	order := []value.Kind{
		value.KindInt, value.KindUint, value.KindDouble, value.KindBool,
		value.KindTime, value.KindString, value.KindBytes,
	}
	var candidates []value.Kind
	for _, k := range order {
		if hint&k != 0 {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		candidates = order
	}
	if len(candidates) > 1 {
		return value.Value{}, ErrWantTypeDisambiguation
	}
	v, ok := try(candidates[0])
	if !ok {
		return value.Value{}, &FormatError{Msg: "plaintext value does not parse as the requested kind"}
	}
	return v, nil
}
