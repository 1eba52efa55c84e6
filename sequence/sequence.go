// Package sequence defines the integer sequences that canopy clusters, and
// the line-oriented text format they are read from.
package sequence

import (
	"strconv"
	"strings"
)

// Sequence is an ordered, finite list of integers. Order matters for edit
// distance but not for set-based measures.
type Sequence []int32

// String renders the sequence as "[1, 2, 3]". The rendering is stable and is
// used as the shuffle key of a canopy center.
func (s Sequence) String() string {
	var b strings.Builder
	b.Grow(2 + len(s)*4)
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	b.WriteByte(']')
	return b.String()
}

// Equal reports whether both sequences hold the same elements in the same order
func (s Sequence) Equal(o Sequence) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share backing storage
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Point is an input record: a caller-visible key and its sequence
type Point struct {
	Key string
	Seq Sequence
}
