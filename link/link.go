/*
Package link implements the CoRE link-format (RFC 6690) payload used by
LwM2M Register and Discover operations: comma-separated `<path>;attr=val`
records in path-increasing order.
*/
package link

import (
	"errors"
	"regexp"

	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/path"
)

// Standard LwM2M Object IDs referenced by the Bootstrap-Discover attribute
// rules (OMA LwM2M object registry).
const (
	objSecurity = 0
	objServer   = 1
	objOSCORE   = 21
)

// Sentinel errors.
var (
	// ErrWarningDepth reports that an entry exceeds the configured
	// Discover depth; the caller should skip it rather than treat it as
	// fatal.
	ErrWarningDepth = errors.New("link: entry exceeds discover depth")
	ErrLogic        = errors.New("link: invalid call sequence")
)

// InputArgError reports that an entry's arguments violate the writer's
// invariants (path outside base, out-of-order path, attribute attached to
// the wrong path level, and so on).
type InputArgError struct {
	Msg string
}

func (e *InputArgError) Error() string { return "link: invalid argument: " + e.Msg }

// AttrNotification carries the optional Discover attribute set. Each
// non-nil field is emitted once per WriteEntry call, in the fixed order
// pmin, pmax, gt, lt, st, epmin, epmax, edge, con, hqmax, and is not
// carried over to the next entry.
type AttrNotification struct {
	MinPeriod     *uint32
	MaxPeriod     *uint32
	GreaterThan   *float64
	LessThan      *float64
	Step          *float64
	MinEvalPeriod *uint32
	MaxEvalPeriod *uint32
	Edge          *uint32
	Con           *uint32
	Hqmax         *uint32
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// validateVersion enforces the ;ver= format: one or more digits, a dot,
// one or more digits. An empty version is always valid (omitted).
func validateVersion(version string) error {
	if version != "" && !versionPattern.MatchString(version) {
		return &InputArgError{Msg: "version must match \\d+\\.\\d+"}
	}
	return nil
}

func formatPathRecord(p path.Path) string {
	s := "<"
	for i := 0; i < p.Length(); i++ {
		id, _ := p.IDAt(i)
		s += "/" + numfmt.FormatInt(int64(id))
	}
	return s + ">"
}

func resInstancesWillBeWritten(base path.Path, depth int) bool {
	return base.Length()+depth > int(path.KindRIID)
}
