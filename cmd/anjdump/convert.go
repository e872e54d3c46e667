package main

import (
	"fmt"
	"strconv"

	"github.com/anjlabs/anj/codec"
	"github.com/anjlabs/anj/value"
)

func parseFormat(s string) (codec.Format, error) {
	switch s {
	case "tlv":
		return codec.FormatTLV, nil
	case "cbor":
		return codec.FormatCBOR, nil
	case "senml-cbor":
		return codec.FormatSenMLCBOR, nil
	case "senml-etch-cbor":
		return codec.FormatSenMLEtchCBOR, nil
	case "lwm2m-cbor":
		return codec.FormatLwM2MCBOR, nil
	case "plaintext":
		return codec.FormatPlaintext, nil
	case "":
		return codec.FormatNotDefined, nil
	default:
		return codec.FormatNotDefined, fmt.Errorf("unknown format %q", s)
	}
}

func parseKind(s string) (value.Kind, error) {
	switch s {
	case "int":
		return value.KindInt, nil
	case "uint":
		return value.KindUint, nil
	case "double":
		return value.KindDouble, nil
	case "bool":
		return value.KindBool, nil
	case "time":
		return value.KindTime, nil
	case "objlnk":
		return value.KindObjlnk, nil
	case "string":
		return value.KindString, nil
	case "bytes":
		return value.KindBytes, nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

func kindName(k value.Kind) string {
	switch k {
	case value.KindNull:
		return "null"
	case value.KindInt:
		return "int"
	case value.KindUint:
		return "uint"
	case value.KindDouble:
		return "double"
	case value.KindBool:
		return "bool"
	case value.KindTime:
		return "time"
	case value.KindObjlnk:
		return "objlnk"
	case value.KindString:
		return "string"
	case value.KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// parseValue builds a value.Value of kind from its textual
// representation: decimal for numbers and time, "true"/"false" or "1"/"0"
// for bool, and the raw text as-is for string and bytes. Objlnk values
// are not parsed.
func parseValue(kind value.Kind, raw string) (value.Value, error) {
	switch kind {
	case value.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int64(n), nil
	case value.KindUint:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Uint64(n), nil
	case value.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float64(f), nil
	case value.KindBool:
		switch raw {
		case "true", "1":
			return value.Boolean(true), nil
		case "false", "0":
			return value.Boolean(false), nil
		default:
			return value.Value{}, fmt.Errorf("invalid bool %q", raw)
		}
	case value.KindTime:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.EpochTime(n), nil
	case value.KindString:
		return value.Value{Kind: value.KindString, String: value.Bytes{Chunk: []byte(raw), FullLengthHint: len(raw)}}, nil
	case value.KindBytes:
		return value.Value{Kind: value.KindBytes, Bytes: value.Bytes{Chunk: []byte(raw), FullLengthHint: len(raw)}}, nil
	default:
		return value.Value{}, fmt.Errorf("--kind is required to parse --value")
	}
}

// formatValue renders a decoded value.Value for display.
func formatValue(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "null"
	case value.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case value.KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case value.KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case value.KindBool:
		return strconv.FormatBool(v.Bool)
	case value.KindTime:
		return strconv.FormatInt(v.Time, 10)
	case value.KindObjlnk:
		return fmt.Sprintf("%d:%d", v.Objlnk.OID, v.Objlnk.IID)
	case value.KindString:
		return string(v.String.Chunk)
	case value.KindBytes:
		return fmt.Sprintf("%x", v.Bytes.Chunk)
	default:
		return "<unsupported>"
	}
}
