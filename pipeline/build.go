package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/teranos/canopy/canopy"
	"github.com/teranos/canopy/dataset"
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/mapred"
	"github.com/teranos/canopy/sequence"
)

// BuildConfig holds the inputs of a canopy build
type BuildConfig struct {
	Measure         distance.Measure
	Thresholds      canopy.Thresholds
	Reducers        int
	MinObservations int64
	Input           string
	Output          string
}

// RoundSummary describes a finished round
type RoundSummary struct {
	IterationState
	Canopies  int
	MeanGroup float64
	MaxGroup  int
}

// BuildResult is the outcome of a successful build
type BuildResult struct {
	Rounds   []RoundSummary
	Created  int
	Canopies []canopy.Canopy
	Rejected []canopy.Canopy
}

// RoundObserver is notified after each round completes
type RoundObserver func(RoundSummary)

// Builder runs the iteration schedule, then the membership and filter passes
type Builder struct {
	job     *mapred.Job
	cfg     BuildConfig
	logger  *zap.SugaredLogger
	observe RoundObserver
}

// NewBuilder validates cfg. Nothing is read or written until Build.
func NewBuilder(job *mapred.Job, cfg BuildConfig) (*Builder, error) {
	if cfg.Measure == nil {
		return nil, errors.WithHint(errors.ErrMeasureUnconfigured, "set measure.kind to levenshtein or tanimoto")
	}
	if cfg.Reducers < 1 {
		return nil, errors.NewInvalidArgumentf("reducers must be >= 1, got %d", cfg.Reducers)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinObservations < 0 {
		return nil, errors.NewInvalidArgumentf("min observations must be >= 0, got %d", cfg.MinObservations)
	}
	if cfg.Input == "" || cfg.Output == "" {
		return nil, errors.NewInvalidArgumentf("input and output paths are required")
	}
	return &Builder{job: job, cfg: cfg, logger: job.Named("scheduler")}, nil
}

// OnRound registers an observer for completed rounds
func (b *Builder) OnRound(fn RoundObserver) {
	b.observe = fn
}

// Build runs the whole pipeline. On any failure the output path is removed
// so that nothing partial is ever published.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	states, err := Schedule(b.cfg.Reducers, b.cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	if err := dataset.EnsureAbsent(b.cfg.Output); err != nil {
		return nil, err
	}

	points, err := dataset.ReadPoints(b.cfg.Input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}
	if warning := mapred.CheckMemoryPressure(estimateBytes(points)); warning != "" {
		b.logger.Warnw("Memory pressure warning", "warning", warning, "points", len(points))
	}

	res, err := b.run(ctx, states, points)
	if err != nil {
		if rmErr := os.RemoveAll(b.cfg.Output); rmErr != nil {
			b.logger.Warnw("Failed to clean up output", "path", b.cfg.Output, "error", rmErr)
		}
		return nil, err
	}
	return res, nil
}

func (b *Builder) run(ctx context.Context, states []IterationState, points []sequence.Point) (*BuildResult, error) {
	res := &BuildResult{}

	members := make([]canopy.Member, len(points))
	for i, p := range points {
		members[i] = canopy.Member{Seq: p.Seq, Weight: 1}
	}
	parts := mapred.Split(members, states[0].Parallelism)

	var final []canopy.Canopy
	for i, state := range states {
		next := 1
		if i+1 < len(states) {
			next = states[i+1].Parallelism
		}

		summary, canopyParts, err := b.round(ctx, state, parts, next)
		if err != nil {
			return nil, err
		}
		res.Rounds = append(res.Rounds, summary)
		if i == 0 {
			res.Created = summary.Canopies
		}
		if b.observe != nil {
			b.observe(summary)
		}

		if summary.Canopies == 0 {
			return nil, errors.WithHint(
				&canopy.BuildFailure{Round: state.Round, Canopies: 0},
				"loosen t1/t2 or check that the input is not empty")
		}

		dir := dataset.RoundDir(b.cfg.Output, state.Round)
		if err := dataset.WriteCanopyPartitions(dir, canopyParts); err != nil {
			return nil, err
		}
		stored, err := dataset.ReadCanopyPartitions(dir)
		if err != nil {
			return nil, err
		}

		parts = make([][]canopy.Member, len(stored))
		for p, cs := range stored {
			parts[p] = make([]canopy.Member, len(cs))
			for k, c := range cs {
				parts[p][k] = canopy.Member{Seq: c.Center, Weight: c.Observations}
			}
		}
		final = mapred.Flatten(stored)
	}

	final, hits, err := b.membership(ctx, final, points, states[len(states)-1].Thresholds.T1)
	if err != nil {
		return nil, err
	}

	filtered := canopy.Filter(final, b.cfg.MinObservations, b.job.Counters)
	res.Canopies = filtered.Retained
	res.Rejected = filtered.Rejected
	for _, c := range filtered.Rejected {
		b.logger.Infow("Canopy rejected",
			"canopy", c.ID, "center", c.Center.String(),
			"observations", c.Observations, "min_observations", b.cfg.MinObservations)
	}
	if len(filtered.Retained) == 0 {
		b.logger.Warnw("All canopies rejected", "rejected", len(filtered.Rejected), "min_observations", b.cfg.MinObservations)
	}

	return res, b.publish(final, filtered.Retained, hits)
}

// round runs one assign, shuffle, recenter cycle
func (b *Builder) round(ctx context.Context, state IterationState, parts [][]canopy.Member, reducePartitions int) (RoundSummary, [][]canopy.Canopy, error) {
	start := time.Now()
	measure := b.cfg.Measure.WithCeiling(state.Thresholds.T1)
	log := b.logger.With("round", state.Round)

	log.Infow("Round starting",
		"t1", state.Thresholds.T1, "t2", state.Thresholds.T2,
		"parallelism", state.Parallelism, "partitions", len(parts))

	assigned, err := mapred.Map(ctx, state.Parallelism, parts, b.assign(measure, state.Thresholds, log))
	if err != nil {
		return RoundSummary{}, nil, errors.Wrapf(err, "round %d assignment", state.Round)
	}

	groups := mapred.Shuffle(assigned, mapred.NewPartitioner(reducePartitions, 0))

	recentered, err := mapred.Map(ctx, reducePartitions, groups, b.recenter(measure))
	if err != nil {
		return RoundSummary{}, nil, errors.Wrapf(err, "round %d recenter", state.Round)
	}

	summary := RoundSummary{IterationState: state}
	var sizes []float64
	for _, part := range groups {
		for _, g := range part {
			sizes = append(sizes, float64(len(g.Values)))
			summary.MaxGroup = max(summary.MaxGroup, len(g.Values))
		}
	}
	summary.Canopies = len(sizes)
	if len(sizes) > 0 {
		summary.MeanGroup = stat.Mean(sizes, nil)
	}

	log.Infow("Round complete",
		"canopies", summary.Canopies, "mean_group", summary.MeanGroup,
		"max_group", summary.MaxGroup, "duration_ms", time.Since(start).Milliseconds())
	return summary, recentered, nil
}

// assign returns the AssignmentPass for one partition: a fresh registry fed
// strictly in input order
func (b *Builder) assign(measure distance.Measure, t canopy.Thresholds, log *zap.SugaredLogger) mapred.MapFunc[canopy.Member, mapred.KV[canopy.Member]] {
	return func(ctx context.Context, partition int, in []canopy.Member) ([]mapred.KV[canopy.Member], error) {
		registry, err := canopy.NewRegistry(measure, t)
		if err != nil {
			return nil, err
		}
		progress := rate.Sometimes{Interval: 5 * time.Second}

		var out []mapred.KV[canopy.Member]
		for i, m := range in {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			for _, a := range registry.AddPoint(m) {
				out = append(out, mapred.KV[canopy.Member]{Key: a.Key, Value: a.Member})
			}
			progress.Do(func() {
				log.Debugw("Assigning", "partition", partition, "points", i+1, "total", len(in), "canopies", registry.Len())
			})
		}

		b.job.Counters.Inc(canopy.CounterCanopiesCreated, int64(registry.Len()))
		b.job.Counters.Inc(canopy.CounterAssignments, int64(len(out)))
		return out, nil
	}
}

// recenter returns the RecenterPass for one reduce partition. Ids come from
// a counter local to the partition.
func (b *Builder) recenter(measure distance.Measure) mapred.MapFunc[mapred.Group[canopy.Member], canopy.Canopy] {
	return func(ctx context.Context, partition int, groups []mapred.Group[canopy.Member]) ([]canopy.Canopy, error) {
		out := make([]canopy.Canopy, 0, len(groups))
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := canopy.Recenter(measure, int32(i), g.Values)
			if err != nil {
				return nil, errors.Wrapf(err, "key %s", g.Key)
			}
			out = append(out, c)
		}
		return out, nil
	}
}

// hit records that the point with key lies within T1 of the canopy at pos
type hit struct {
	pos int
	key string
}

// membership assigns every original point to the final canopies within T1.
// It returns the canopies with their support counts and the hits of each
// input partition.
func (b *Builder) membership(ctx context.Context, final []canopy.Canopy, points []sequence.Point, t1 float64) ([]canopy.Canopy, [][]hit, error) {
	index := canopy.NewMembership(b.cfg.Measure.WithCeiling(t1), final, t1)
	log := b.job.Named("membership")

	hits, err := mapred.Map(ctx, b.cfg.Reducers, mapred.Split(points, b.cfg.Reducers),
		func(ctx context.Context, partition int, in []sequence.Point) ([]hit, error) {
			var out []hit
			for i, p := range in {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
				}
				for _, pos := range index.Members(p.Seq) {
					out = append(out, hit{pos: pos, key: p.Key})
				}
			}
			return out, nil
		})
	if err != nil {
		return nil, nil, errors.Wrap(err, "membership pass")
	}

	support := make([]int64, index.Len())
	for _, part := range hits {
		for _, h := range part {
			support[h.pos]++
		}
	}
	log.Infow("Membership complete", "canopies", index.Len(), "points", len(points))
	return index.WithSupport(support), hits, nil
}

// publish writes the canonical set and the assignments that name one of its
// canopies, then moves both into place
func (b *Builder) publish(final, retained []canopy.Canopy, hits [][]hit) error {
	tmp := filepath.Join(b.cfg.Output, dataset.TempDir, dataset.CanopiesDir)
	if err := dataset.WriteCanopies(tmp, 0, retained); err != nil {
		return err
	}
	if err := dataset.Publish(tmp, filepath.Join(b.cfg.Output, dataset.CanopiesDir)); err != nil {
		return err
	}

	kept := make(map[int32]bool, len(retained))
	for _, c := range retained {
		kept[c.ID] = true
	}
	assignments := filepath.Join(b.cfg.Output, dataset.TempDir, dataset.AssignmentsDir)
	dropped := 0
	for partition, part := range hits {
		labels := make([]dataset.Label, 0, len(part))
		for _, h := range part {
			id := final[h.pos].ID
			if !kept[id] {
				dropped++
				continue
			}
			labels = append(labels, dataset.Label{CanopyID: id, Key: h.key})
		}
		if err := dataset.WriteLabels(assignments, partition, labels); err != nil {
			return err
		}
	}
	if dropped > 0 {
		b.logger.Debugw("Dropped assignments to rejected canopies", "assignments", dropped)
	}
	if err := dataset.Publish(assignments, filepath.Join(b.cfg.Output, dataset.AssignmentsDir)); err != nil {
		return err
	}
	return dataset.Discard(b.cfg.Output)
}

// estimateBytes approximates the in-memory size of the input
func estimateBytes(points []sequence.Point) uint64 {
	var n uint64
	for _, p := range points {
		n += uint64(len(p.Seq)*4 + len(p.Key) + 64)
	}
	return n
}
