package mapred

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/canopy/errors"
)

// KV is one map output record
type KV[V any] struct {
	Key   string
	Value V
}

// Group is every value shuffled under one key
type Group[V any] struct {
	Key    string
	Values []V
}

// MapFunc processes one partition. It runs on its own goroutine and must not
// share mutable state with other partitions.
type MapFunc[In, Out any] func(ctx context.Context, partition int, in []In) ([]Out, error)

// Map runs fn over every partition with at most parallelism partitions in
// flight. It returns only after all partitions finished, so it doubles as the
// barrier between stages. Outputs are indexed by partition.
func Map[In, Out any](ctx context.Context, parallelism int, partitions [][]In, fn MapFunc[In, Out]) ([][]Out, error) {
	if parallelism < 1 {
		return nil, errors.NewInvalidArgumentf("parallelism must be >= 1, got %d", parallelism)
	}

	out := make([][]Out, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range partitions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, i, partitions[i])
			if err != nil {
				return errors.Wrapf(err, "partition %d", i)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Shuffle groups map outputs by key and routes each group to a reduce
// partition. Group order is deterministic: first appearance scanning map
// partitions in index order.
func Shuffle[V any](outputs [][]KV[V], p Partitioner) [][]Group[V] {
	index := make(map[string]int)
	var groups []Group[V]

	for _, part := range outputs {
		for _, kv := range part {
			idx, ok := index[kv.Key]
			if !ok {
				idx = len(groups)
				index[kv.Key] = idx
				groups = append(groups, Group[V]{Key: kv.Key})
			}
			groups[idx].Values = append(groups[idx].Values, kv.Value)
		}
	}

	reduce := make([][]Group[V], p.N())
	for _, g := range groups {
		r := p.Partition(g.Key)
		reduce[r] = append(reduce[r], g)
	}
	return reduce
}

// Split cuts items into n contiguous partitions of near-equal size. Fewer
// than n partitions are returned when there are fewer than n items.
func Split[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	if len(items) == 0 {
		return [][]T{{}}
	}
	if n > len(items) {
		n = len(items)
	}

	out := make([][]T, 0, n)
	size, rem := len(items)/n, len(items)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		out = append(out, items[start:end])
		start = end
	}
	return out
}

// Flatten concatenates partitions in index order
func Flatten[T any](parts [][]T) []T {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
