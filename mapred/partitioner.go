package mapred

import (
	"github.com/zeebo/xxh3"
)

// Partitioner routes shuffle keys to reduce partitions by hash
type Partitioner struct {
	n    int
	seed uint64
}

// NewPartitioner creates a partitioner over n partitions (minimum 1).
// A zero seed uses the unseeded hash.
func NewPartitioner(n int, seed uint64) Partitioner {
	if n < 1 {
		n = 1
	}
	return Partitioner{n: n, seed: seed}
}

// N returns the number of partitions
func (p Partitioner) N() int {
	return p.n
}

// Partition returns the partition index for key
func (p Partitioner) Partition(key string) int {
	if p.n <= 1 {
		return 0
	}
	var h uint64
	if p.seed != 0 {
		h = xxh3.HashStringSeed(key, p.seed)
	} else {
		h = xxh3.HashString(key)
	}
	return int(h % uint64(p.n))
}
