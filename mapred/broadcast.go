package mapred

import "sync"

// Broadcast holds a reference value loaded exactly once and shared
// read-only by every worker.
type Broadcast[T any] struct {
	once sync.Once
	load func() (T, error)
	val  T
	err  error
}

// NewBroadcast wraps a loader. The loader runs on the first Get.
func NewBroadcast[T any](load func() (T, error)) *Broadcast[T] {
	return &Broadcast[T]{load: load}
}

// Get returns the loaded value, loading it on first use
func (b *Broadcast[T]) Get() (T, error) {
	b.once.Do(func() {
		b.val, b.err = b.load()
	})
	return b.val, b.err
}
