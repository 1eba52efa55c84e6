package mapred

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/canopy/errors"
)

func TestMap(t *testing.T) {
	parts := [][]int{{1, 2}, {3}, {}, {4, 5, 6}}

	out, err := Map(context.Background(), 2, parts, func(_ context.Context, p int, in []int) ([]int, error) {
		sum := 0
		for _, v := range in {
			sum += v
		}
		return []int{p, sum}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 3}, {1, 3}, {2, 0}, {3, 15}}, out)
}

func TestMap_RespectsParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32
	parts := make([][]int, 8)

	_, err := Map(context.Background(), 3, parts, func(context.Context, int, []int) ([]int, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMap_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	parts := [][]int{{1}, {2}, {3}}

	_, err := Map(context.Background(), 1, parts, func(_ context.Context, p int, _ []int) ([]int, error) {
		if p == 1 {
			return nil, boom
		}
		return nil, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "partition 1")
}

func TestMap_InvalidParallelism(t *testing.T) {
	_, err := Map(context.Background(), 0, [][]int{{1}}, func(context.Context, int, []int) ([]int, error) {
		return nil, nil
	})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, 2, [][]int{{1}, {2}}, func(context.Context, int, []int) ([]int, error) {
		return []int{1}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShuffle(t *testing.T) {
	outputs := [][]KV[int]{
		{{Key: "b", Value: 1}, {Key: "a", Value: 2}},
		{{Key: "a", Value: 3}, {Key: "c", Value: 4}, {Key: "b", Value: 5}},
	}

	reduce := Shuffle(outputs, NewPartitioner(1, 0))

	require.Len(t, reduce, 1)
	assert.Equal(t, []Group[int]{
		{Key: "b", Values: []int{1, 5}},
		{Key: "a", Values: []int{2, 3}},
		{Key: "c", Values: []int{4}},
	}, reduce[0])
}

func TestShuffle_RoutesEveryGroupOnce(t *testing.T) {
	var outputs [][]KV[int]
	for p := 0; p < 4; p++ {
		var part []KV[int]
		for k := 0; k < 50; k++ {
			part = append(part, KV[int]{Key: string(rune('A' + k%26)) + string(rune('a' + k/26)), Value: p})
		}
		outputs = append(outputs, part)
	}

	part := NewPartitioner(3, 0)
	reduce := Shuffle(outputs, part)
	require.Len(t, reduce, 3)

	seen := make(map[string]bool)
	for r, groups := range reduce {
		for _, g := range groups {
			assert.False(t, seen[g.Key], "key %s routed twice", g.Key)
			seen[g.Key] = true
			assert.Equal(t, r, part.Partition(g.Key))
			assert.Equal(t, []int{0, 1, 2, 3}, g.Values)
		}
	}
	assert.Len(t, seen, 50)
}

func TestPartitioner(t *testing.T) {
	p := NewPartitioner(8, 0)
	assert.Equal(t, 8, p.N())
	assert.Equal(t, p.Partition("[1, 2, 3]"), p.Partition("[1, 2, 3]"))

	seeded := NewPartitioner(8, 42)
	for _, key := range []string{"a", "b", "[1]"} {
		assert.GreaterOrEqual(t, seeded.Partition(key), 0)
		assert.Less(t, seeded.Partition(key), 8)
	}

	assert.Equal(t, 1, NewPartitioner(0, 0).N())
	assert.Equal(t, 0, NewPartitioner(1, 0).Partition("anything"))
}

func TestSplit(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}, {6, 7}}, Split(items, 3))
	assert.Equal(t, [][]int{items}, Split(items, 1))
	assert.Equal(t, [][]int{items}, Split(items, 0))
	assert.Len(t, Split(items, 20), 7)
	assert.Equal(t, [][]int{{}}, Split([]int{}, 4))
	assert.Equal(t, items, Flatten(Split(items, 3)))
}

func TestCounters(t *testing.T) {
	c := NewCounters("run-1")
	c.Inc("points.clustered", 2)
	c.Inc("points.clustered", 3)
	c.Inc("canopies.rejected", 1)

	assert.Equal(t, int64(5), c.Get("points.clustered"))
	assert.Equal(t, int64(0), c.Get("missing"))
	assert.Equal(t, []string{"canopies.rejected", "points.clustered"}, c.Names())

	snap := c.Snapshot()
	snap["points.clustered"] = 100
	assert.Equal(t, int64(5), c.Get("points.clustered"), "snapshot is a copy")

	assert.Equal(t, 2, testutil.CollectAndCount(c))
}

func TestCounters_WriteTextfile(t *testing.T) {
	c := NewCounters("run-7")
	c.Inc("canopies.created", 4)
	path := filepath.Join(t.TempDir(), "canopy.prom")

	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `canopy_counter_total{name="canopies.created",run_id="run-7"} 4`)
}

func TestBroadcast_LoadsOnce(t *testing.T) {
	var loads atomic.Int32
	b := NewBroadcast(func() ([]string, error) {
		loads.Add(1)
		return []string{"x"}, nil
	})

	_, err := Map(context.Background(), 4, make([][]int, 16), func(context.Context, int, []int) ([]int, error) {
		v, err := b.Get()
		if err != nil {
			return nil, err
		}
		return []int{len(v)}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())
}

func TestBroadcast_Error(t *testing.T) {
	b := NewBroadcast(func() (int, error) { return 0, errors.ErrClusterDirMissing })
	_, err := b.Get()
	assert.True(t, errors.Is(err, errors.ErrClusterDirMissing))
}

func TestCheckMemoryPressure(t *testing.T) {
	saved := memoryStats
	t.Cleanup(func() { memoryStats = saved })

	memoryStats = func() (uint64, uint64, error) { return 16 * gib, 10 * gib, nil }
	assert.Empty(t, CheckMemoryPressure(1*gib))
	assert.Contains(t, CheckMemoryPressure(9*gib), "exceeds 80% of available memory")

	memoryStats = func() (uint64, uint64, error) { return 0, 0, errors.New("unavailable") }
	assert.Empty(t, CheckMemoryPressure(100*gib))
}

func TestNewJob(t *testing.T) {
	job := NewJob("run-9", zaptest.NewLogger(t).Sugar())
	assert.Equal(t, "run-9", job.ID)
	require.NotNil(t, job.Counters)
	assert.NotNil(t, job.Named("assign"))

	assert.NotNil(t, NewJob("run-10", nil).Logger)
}
