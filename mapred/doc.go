// Package mapred is the in-process execution service that drives clustering
// rounds: partitioned parallel map with a completion barrier, group-by-key
// shuffle onto hashed reduce partitions, a broadcast-once reference value,
// named job counters and a memory pressure check.
package mapred
