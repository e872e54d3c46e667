/*
Package numfmt implements the small textual parsing/formatting helpers
shared across the wire codecs: absolute LwM2M path strings, and the
shortest round-trip decimal rendering used by link-format attributes.
*/
package numfmt

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/anjlabs/anj/path"
)

// ErrFormat reports that a textual path or number failed to parse.
var ErrFormat = errors.New("numfmt: format error")

// ParseAbsolutePath parses s, which must be "/" or "/d(/d){0..3}" with each
// d a decimal id in 0..65534, into a Path.
func ParseAbsolutePath(s string) (path.Path, error) {
	if s == "" {
		return path.Path{}, ErrFormat
	}
	if s == "/" {
		return path.Root(), nil
	}
	if s[0] != '/' {
		return path.Path{}, ErrFormat
	}
	segments := strings.Split(s[1:], "/")
	if len(segments) == 0 || len(segments) > 4 {
		return path.Path{}, ErrFormat
	}
	ids := make([]uint16, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return path.Path{}, ErrFormat
		}
		for _, c := range seg {
			if c < '0' || c > '9' {
				return path.Path{}, ErrFormat
			}
		}
		v, err := strconv.ParseUint(seg, 10, 32)
		if err != nil || v >= uint64(path.Invalid) {
			return path.Path{}, ErrFormat
		}
		ids = append(ids, uint16(v))
	}
	p, err := path.New(ids...)
	if err != nil {
		return path.Path{}, ErrFormat
	}
	return p, nil
}

// FormatDouble renders f using the shortest decimal representation that
// round-trips back to f exactly, without scientific notation.
func FormatDouble(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatInt renders a decimal integer attribute.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// EncodeBase64 renders opaque resource bytes the way the Plaintext wire
// format represents them, per RFC 4648 standard alphabet with padding.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 reverses EncodeBase64, rejecting malformed padding or
// alphabet as ErrFormat rather than leaking the stdlib error type.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrFormat
	}
	return b, nil
}
