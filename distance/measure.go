// Package distance provides the sequence distance measures used to build and
// query canopies. Every measure returns a value in [0, 1], lower meaning more
// similar.
package distance

import (
	"strings"

	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// Kind enumerates the supported measures
type Kind int

const (
	KindUnknown Kind = iota
	KindLevenshtein
	KindTanimoto
)

// MaxDistance is reported for pairs that are provably farther apart than the
// configured ceiling.
const MaxDistance = 1.0

func (k Kind) String() string {
	switch k {
	case KindLevenshtein:
		return "levenshtein"
	case KindTanimoto:
		return "tanimoto"
	default:
		return "unknown"
	}
}

// ParseKind resolves a configured measure name
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "levenshtein":
		return KindLevenshtein, nil
	case "tanimoto", "jaccard":
		return KindTanimoto, nil
	case "":
		return KindUnknown, errors.WithHint(errors.ErrMeasureUnconfigured, "set measure.kind to levenshtein or tanimoto")
	default:
		return KindUnknown, errors.WithHintf(
			errors.Wrapf(errors.ErrMeasureUnconfigured, "unknown measure %q", name),
			"supported measures: levenshtein, tanimoto")
	}
}

// Measure computes the distance between two sequences. Implementations are
// immutable and safe for concurrent use.
type Measure interface {
	Distance(a, b sequence.Sequence) float64
	Kind() Kind
	// WithCeiling returns a copy whose distances above ceiling are reported as
	// MaxDistance. Measures without threshold semantics return themselves.
	WithCeiling(ceiling float64) Measure
}

// New returns the measure of the given kind with no distance ceiling
func New(kind Kind) (Measure, error) {
	switch kind {
	case KindLevenshtein:
		return NewLevenshtein(MaxDistance), nil
	case KindTanimoto:
		return Tanimoto{}, nil
	default:
		return nil, errors.Wrapf(errors.ErrMeasureUnconfigured, "measure kind %d", int(kind))
	}
}

// FromName parses name and returns the matching measure
func FromName(name string) (Measure, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(kind)
}
