package codec

import (
	"math"

	"github.com/anjlabs/anj/path"
	"github.com/anjlabs/anj/value"
)

// Entry is one decoded or to-be-encoded record, uniform across every
// wire format the dispatcher fronts.
type Entry struct {
	Path      path.Path
	Value     value.Value
	Timestamp float64 // seconds since epoch; math.NaN() when absent
	HasValue  bool    // false only for composite-read records
}

func noTimestamp() float64 { return math.NaN() }
