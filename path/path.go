/*
Package path implements the LwM2M hierarchical resource identifier: an
ordered tuple of up to four 16-bit ids (Object / Instance / Resource /
Resource-Instance).

https://openmobilealliance.org/ — OMA LwM2M object/resource addressing model.
*/
package path

import "fmt"

// Invalid is the sentinel id value meaning "unset". Valid ids are 0..65534.
const Invalid uint16 = 65535

// Kind identifies which level of the hierarchy an id occupies.
type Kind int

const (
	KindOID Kind = iota
	KindIID
	KindRID
	KindRIID
)

// maxLevels is the number of addressable levels in a Path.
const maxLevels = 4

// Path is an ordered (OID, IID, RID, RIID) tuple. The zero value is the
// root path (length 0).
type Path struct {
	ids    [maxLevels]uint16
	length uint8
}

// Root returns the empty path "/".
func Root() Path {
	var p Path
	for i := range p.ids {
		p.ids[i] = Invalid
	}
	return p
}

// New builds a Path from 0..4 ids, in order OID, IID, RID, RIID. It
// returns an error if any id equals Invalid or more than four ids are
// given.
func New(ids ...uint16) (Path, error) {
	if len(ids) > maxLevels {
		return Path{}, fmt.Errorf("path: too many ids: %d", len(ids))
	}
	p := Root()
	for i, id := range ids {
		if id == Invalid {
			return Path{}, fmt.Errorf("path: id at level %d is the sentinel value", i)
		}
		p.ids[i] = id
	}
	p.length = uint8(len(ids))
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(ids ...uint16) Path {
	p, err := New(ids...)
	if err != nil {
		panic(err)
	}
	return p
}

// Length returns the number of populated levels, 0..4.
func (p Path) Length() int {
	return int(p.length)
}

// IDAt returns the id at the given level and whether that level is
// populated. Levels beyond Length() return (Invalid, false).
func (p Path) IDAt(level int) (uint16, bool) {
	if level < 0 || level >= maxLevels {
		return Invalid, false
	}
	if level >= int(p.length) {
		return Invalid, false
	}
	return p.ids[level], true
}

// Has reports whether the path is populated at least through the given
// kind, i.e. Length() > kind.
func (p Path) Has(kind Kind) bool {
	return int(p.length) > int(kind)
}

// Is reports whether the path's deepest populated level is exactly kind.
func (p Path) Is(kind Kind) bool {
	return int(p.length) == int(kind)+1
}

// Equal reports whether a and b address the same element.
func Equal(a, b Path) bool {
	if a.length != b.length {
		return false
	}
	for i := 0; i < int(a.length); i++ {
		if a.ids[i] != b.ids[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether p extends base, i.e. the first base.Length()
// ids of p equal those of base. A path is a prefix of itself.
func IsPrefixOf(base, p Path) bool {
	if base.length > p.length {
		return false
	}
	for i := 0; i < int(base.length); i++ {
		if base.ids[i] != p.ids[i] {
			return false
		}
	}
	return true
}

// OutsideBase reports whether p is neither equal to nor a descendant of
// base.
func OutsideBase(p, base Path) bool {
	return !IsPrefixOf(base, p)
}

// StrictlyIncreasing reports whether next follows prev in the preorder
// traversal Register/Discover emit records in: a path precedes its own
// descendants, and among siblings, ids compare numerically. A zero-value
// prev (the root path, used as "no previous record yet") precedes every
// non-root path.
func StrictlyIncreasing(prev, next Path) bool {
	common := int(prev.length)
	if int(next.length) < common {
		common = int(next.length)
	}
	for i := 0; i < common; i++ {
		if prev.ids[i] != next.ids[i] {
			return prev.ids[i] < next.ids[i]
		}
	}
	// Equal on the shared prefix: the shorter (more general) path precedes
	// the longer one; equal length means equal path, not an increase.
	return prev.length < next.length
}

// String renders the path as "/oid/iid/rid/riid", e.g. "/3/0/7" or "/"
// for the root.
func (p Path) String() string {
	if p.length == 0 {
		return "/"
	}
	s := ""
	for i := 0; i < int(p.length); i++ {
		s += fmt.Sprintf("/%d", p.ids[i])
	}
	return s
}
