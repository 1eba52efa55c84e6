package distance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

var (
	base          = sequence.Sequence{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	substitutions = sequence.Sequence{1, 2, 30, 4, 5, 6, 70, 8, 9, 10}
	insertions    = sequence.Sequence{1, 2, 3, 40, 4, 5, 6, 7, 8, 90, 9, 10}
	deletions     = sequence.Sequence{1, 2, 4, 5, 6, 7, 9, 10}
)

func TestLevenshtein(t *testing.T) {
	m := NewLevenshtein(MaxDistance)

	assert.Equal(t, 0.0, m.Distance(base, base))
	assert.InDelta(t, 0.2, m.Distance(base, substitutions), 1e-9)
	assert.InDelta(t, 2.0/12.0, m.Distance(base, insertions), 1e-9)
	assert.InDelta(t, 0.2, m.Distance(base, deletions), 1e-9)
}

func TestLevenshtein_Ceiling(t *testing.T) {
	m := NewLevenshtein(0.18)

	assert.Equal(t, 0.0, m.Distance(base, base))
	// 2 edits over 10 elements: band of 1 cannot reach
	assert.Equal(t, MaxDistance, m.Distance(base, substitutions))
	// 2 edits over 12 elements: band of 2 is enough
	assert.InDelta(t, 2.0/12.0, m.Distance(base, insertions), 1e-9)
	assert.Equal(t, MaxDistance, m.Distance(base, deletions))
}

func TestLevenshtein_WithCeiling(t *testing.T) {
	var m Measure = NewLevenshtein(MaxDistance)
	tight := m.WithCeiling(0.18)

	assert.Equal(t, MaxDistance, tight.Distance(base, substitutions))
	assert.InDelta(t, 0.2, m.Distance(base, substitutions), 1e-9, "original must be unchanged")
	assert.Equal(t, KindLevenshtein, tight.Kind())
}

func TestLevenshtein_EdgeCases(t *testing.T) {
	m := NewLevenshtein(MaxDistance)

	assert.Equal(t, 0.0, m.Distance(sequence.Sequence{}, sequence.Sequence{}))
	assert.Equal(t, 0.0, m.Distance(nil, nil))
	assert.Equal(t, 1.0, m.Distance(sequence.Sequence{}, sequence.Sequence{1, 2, 3}))
	assert.Equal(t, 1.0, m.Distance(sequence.Sequence{1, 2}, nil))
	assert.Equal(t, 1.0, m.Distance(sequence.Sequence{1, 2}, sequence.Sequence{3, 4}))

	// length gap alone exceeds the band
	tight := NewLevenshtein(0.1)
	assert.Equal(t, MaxDistance, tight.Distance(sequence.Sequence{1}, base))

	// out of range ceilings mean none
	assert.Equal(t, MaxDistance, NewLevenshtein(0).Ceiling())
	assert.Equal(t, MaxDistance, NewLevenshtein(3).Ceiling())
	assert.Equal(t, MaxDistance, Levenshtein{}.Ceiling())
}

// referenceEditDistance is the unbanded textbook DP
func referenceEditDistance(a, b sequence.Sequence) int {
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
		}
	}
	return d[len(a)][len(b)]
}

func randomSequence(r *rand.Rand) sequence.Sequence {
	seq := make(sequence.Sequence, r.Intn(10))
	for i := range seq {
		seq[i] = int32(r.Intn(5))
	}
	return seq
}

func TestLevenshtein_MatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ceilings := []float64{1.0, 0.5, 0.3, 0.18, 0.1}

	for i := 0; i < 5000; i++ {
		a, b := randomSequence(r), randomSequence(r)
		ceiling := ceilings[r.Intn(len(ceilings))]
		m := NewLevenshtein(ceiling)

		got := m.Distance(a, b)
		assert.Equal(t, got, m.Distance(b, a), "symmetry %v %v", a, b)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)

		longest := max(len(a), len(b))
		if longest == 0 {
			assert.Equal(t, 0.0, got)
			continue
		}
		edits := referenceEditDistance(a, b)
		if float64(edits) <= ceiling*float64(longest)+1e-9 {
			assert.InDelta(t, float64(edits)/float64(longest), got, 1e-12, "%v %v ceiling %g", a, b, ceiling)
		} else {
			assert.Equal(t, MaxDistance, got, "%v %v ceiling %g", a, b, ceiling)
		}
	}
}

func TestTanimoto(t *testing.T) {
	m := Tanimoto{}

	assert.Equal(t, 0.0, m.Distance(base, base))
	// 8 shared of 12 distinct
	assert.InDelta(t, 1.0/3.0, m.Distance(base, substitutions), 1e-9)
	// 10 shared of 12 distinct
	assert.InDelta(t, 1.0/6.0, m.Distance(base, insertions), 1e-9)
	// 8 shared of 10 distinct
	assert.InDelta(t, 0.2, m.Distance(base, deletions), 1e-9)
}

func TestTanimoto_SetSemantics(t *testing.T) {
	m := Tanimoto{}

	assert.Equal(t, 0.0, m.Distance(sequence.Sequence{3, 1, 2, 2}, sequence.Sequence{1, 2, 3}))
	assert.Equal(t, 0.0, m.Distance(nil, sequence.Sequence{}))
	assert.Equal(t, 1.0, m.Distance(nil, sequence.Sequence{1}))
	assert.Equal(t, 1.0, m.Distance(sequence.Sequence{1}, sequence.Sequence{2}))
	assert.Equal(t, m.Distance(base, deletions), m.Distance(deletions, base))

	// no threshold semantics
	assert.Equal(t, Measure(m), m.WithCeiling(0.01))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"levenshtein", KindLevenshtein},
		{"Levenshtein", KindLevenshtein},
		{"tanimoto", KindTanimoto},
		{" jaccard ", KindTanimoto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "cosine", "org.example.SomeMeasure"} {
		_, err := ParseKind(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, errors.ErrMeasureUnconfigured))
		assert.NotEmpty(t, errors.GetAllHints(err))
	}
}

func TestNew(t *testing.T) {
	lev, err := New(KindLevenshtein)
	require.NoError(t, err)
	assert.Equal(t, "levenshtein", lev.Kind().String())

	tan, err := FromName("tanimoto")
	require.NoError(t, err)
	assert.Equal(t, KindTanimoto, tan.Kind())

	_, err = New(KindUnknown)
	assert.True(t, errors.Is(err, errors.ErrMeasureUnconfigured))
	assert.Equal(t, "unknown", KindUnknown.String())
}
