package mapred

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teranos/canopy/errors"
)

// Counters is a set of named int64 counters scoped to one job. It is safe
// for concurrent use and exports itself as a Prometheus collector.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
	desc   *prometheus.Desc
}

// NewCounters creates an empty counter set labelled with the job id
func NewCounters(jobID string) *Counters {
	return &Counters{
		values: make(map[string]int64),
		desc: prometheus.NewDesc(
			"canopy_counter_total",
			"Job counters reported by clustering passes.",
			[]string{"name"},
			prometheus.Labels{"run_id": jobID},
		),
	}
}

// Inc adds delta to the named counter
func (c *Counters) Inc(name string, delta int64) {
	c.mu.Lock()
	c.values[name] += delta
	c.mu.Unlock()
}

// Get returns the current value of the named counter
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Snapshot returns a copy of all counters
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Names returns counter names in sorted order
func (c *Counters) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Describe implements prometheus.Collector
func (c *Counters) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector
func (c *Counters) Collect(ch chan<- prometheus.Metric) {
	for name, v := range c.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(v), name)
	}
}

// WriteTextfile writes the counters in Prometheus text format, for the node
// exporter textfile collector.
func (c *Counters) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return errors.Wrap(err, "failed to register counters")
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return errors.Wrapf(err, "failed to write counters to %s", path)
	}
	return nil
}
