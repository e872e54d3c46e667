/*
Package iobuf implements the bounded-copy "get_payload" primitive shared
by every output context: draining a fully-assembled record (and,
optionally, an externally-fetched tail) into caller-supplied buffers of
arbitrary size, resuming across calls until exhausted.
*/
package iobuf

import (
	"errors"

	"github.com/anjlabs/anj/value"
)

// ErrLogic reports that GetPayload was called with nothing left to copy.
var ErrLogic = errors.New("iobuf: no data remains; previous entry already drained")

// Buffer stages one encoded record: inline bytes, optionally followed by
// a tail produced on demand via an external-data fetcher (so a large
// resource value need not be copied into memory up front).
type Buffer struct {
	pending    []byte
	tail       *value.External
	tailOffset int
}

// New stages inline bytes with no extended tail.
func New(data []byte) *Buffer {
	return &Buffer{pending: data}
}

// NewWithTail stages inline bytes followed by an externally-fetched tail.
func NewWithTail(data []byte, tail value.External) *Buffer {
	return &Buffer{pending: data, tail: &tail}
}

// Remaining reports how many bytes are left to copy.
func (b *Buffer) Remaining() int {
	n := len(b.pending)
	if b.tail != nil {
		n += b.tail.Length - b.tailOffset
	}
	return n
}

// GetPayload copies as many bytes as fit into dst, returning the count
// copied and whether another call is needed to drain the rest.
func (b *Buffer) GetPayload(dst []byte) (n int, needNextCall bool, err error) {
	if b.Remaining() == 0 {
		return 0, false, ErrLogic
	}
	if len(b.pending) > 0 {
		c := copy(dst, b.pending)
		b.pending = b.pending[c:]
		n = c
	}
	if n < len(dst) && b.tail != nil && b.tailOffset < b.tail.Length {
		avail := b.tail.Length - b.tailOffset
		want := len(dst) - n
		if want > avail {
			want = avail
		}
		if err := b.tail.Fetch(dst[n:n+want], b.tailOffset); err != nil {
			return n, false, err
		}
		b.tailOffset += want
		n += want
	}
	return n, b.Remaining() > 0, nil
}
