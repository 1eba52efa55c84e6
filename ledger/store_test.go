package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/canopy/errors"
	canopytest "github.com/teranos/canopy/internal/testing"
)

type buildSettings struct {
	T1       float64 `json:"t1"`
	T2       float64 `json:"t2"`
	Reducers int     `json:"reducers"`
}

func newBuildRun(t *testing.T) *Run {
	t.Helper()
	run, err := NewRun(KindBuild, "journeys.txt", "out", buildSettings{T1: 0.25, T2: 0.15, Reducers: 4})
	require.NoError(t, err)
	return run
}

func TestNewRun(t *testing.T) {
	run := newBuildRun(t)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusQueued, run.Status)
	assert.JSONEq(t, `{"t1":0.25,"t2":0.15,"reducers":4}`, string(run.Config))
	assert.Zero(t, run.Duration())

	other := newBuildRun(t)
	assert.NotEqual(t, run.ID, other.ID)

	_, err := NewRun(Kind("sort"), "in", "out", nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestRun_Lifecycle(t *testing.T) {
	run := newBuildRun(t)
	assert.False(t, run.Status.Terminal())

	run.Start()
	assert.Equal(t, StatusRunning, run.Status)
	require.NotNil(t, run.StartedAt)

	run.Fail(errors.New("round 2 produced no canopies"))
	assert.Equal(t, StatusFailed, run.Status)
	assert.True(t, run.Status.Terminal())
	assert.Equal(t, "round 2 produced no canopies", run.Error)
	require.NotNil(t, run.FinishedAt)
	assert.GreaterOrEqual(t, run.Duration(), time.Duration(0))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{"queued", "running", "completed", "failed"} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("paused"))
	assert.False(t, IsValidStatus(""))
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))
	run := newBuildRun(t)
	require.NoError(t, store.CreateRun(run))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, KindBuild, got.Kind)
	assert.Equal(t, StatusQueued, got.Status)
	assert.Equal(t, "journeys.txt", got.Input)
	assert.JSONEq(t, string(run.Config), string(got.Config))
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.FinishedAt)
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))
	_, err := store.GetRun("nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStore_BeginFinish(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))

	ok := newBuildRun(t)
	require.NoError(t, store.Begin(ok))
	got, err := store.GetRun(ok.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	require.NotNil(t, got.StartedAt)

	require.NoError(t, store.Finish(ok, nil))
	got, err = store.GetRun(ok.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Empty(t, got.Error)

	bad := newBuildRun(t)
	require.NoError(t, store.Begin(bad))
	require.NoError(t, store.Finish(bad, errors.New("output path already exists")))
	got, err = store.GetRun(bad.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "output path already exists", got.Error)

	err = store.Finish(bad, nil)
	assert.True(t, errors.IsInvalidArgument(err), "a finished run cannot finish again")
}

func TestStore_UpdateMissing(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))
	run := newBuildRun(t)
	run.Start()
	err := store.UpdateRun(run)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStore_ListRuns(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		run := newBuildRun(t)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.CreateRun(run))
		ids = append(ids, run.ID)
	}
	done, err := store.GetRun(ids[1])
	require.NoError(t, err)
	done.Start()
	done.Complete()
	require.NoError(t, store.UpdateRun(done))

	all, err := store.ListRuns(nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})

	completed := StatusCompleted
	onlyDone, err := store.ListRuns(&completed, 10)
	require.NoError(t, err)
	require.Len(t, onlyDone, 1)
	assert.Equal(t, ids[1], onlyDone[0].ID)

	limited, err := store.ListRuns(nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_RoundsAndCounters(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))
	run := newBuildRun(t)
	require.NoError(t, store.Begin(run))

	rounds := []Round{
		{RunID: run.ID, Round: 2, T1: 0.25, T2: 0.15, Parallelism: 1, Canopies: 6, MeanGroup: 3.5, MaxGroup: 5},
		{RunID: run.ID, Round: 1, T1: 0.125, T2: 0.075, Parallelism: 2, Canopies: 22, MeanGroup: 1, MaxGroup: 1},
	}
	for _, r := range rounds {
		require.NoError(t, store.RecordRound(r))
	}
	got, err := store.Rounds(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rounds[1], got[0])
	assert.Equal(t, rounds[0], got[1])

	err = store.RecordRound(rounds[0])
	assert.Error(t, err, "a round is recorded once")

	require.NoError(t, store.RecordCounters(run.ID, map[string]int64{"canopies.created": 28, "canopies.retained": 4}))
	require.NoError(t, store.RecordCounters(run.ID, map[string]int64{"canopies.retained": 5}))
	counters, err := store.Counters(run.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"canopies.created": 28, "canopies.retained": 5}, counters)

	require.NoError(t, store.RecordCounters(run.ID, nil))
}

func TestStore_RoundForUnknownRun(t *testing.T) {
	store := NewStore(canopytest.CreateTestDB(t))
	err := store.RecordRound(Round{RunID: "missing", Round: 1, T1: 0.1, T2: 0.1, Parallelism: 1})
	assert.Error(t, err)
}

// --- Sqlmock Tests ---
// Driver failures that a real sqlite file cannot produce on demand

func TestStore_CreateRun_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	run := newBuildRun(t)
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, run.Kind, run.Status, run.Input, run.Output,
			sqlmock.AnyArg(), sqlmock.AnyArg(), // config, error
			run.CreatedAt, sqlmock.AnyArg(), sqlmock.AnyArg(), run.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewStore(db).CreateRun(run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordCounters_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO counters`).
		WithArgs("run-1", "a", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO counters`).
		WithArgs("run-1", "b", int64(2)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = NewStore(db).RecordCounters("run-1", map[string]int64{"b": 2, "a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record counter b")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateRun_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	run := newBuildRun(t)
	run.Start()
	mock.ExpectExec(`UPDATE runs`).
		WillReturnError(errors.New("database is locked"))

	err = NewStore(db).UpdateRun(run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ConfigIsJSON(t *testing.T) {
	run := newBuildRun(t)
	var decoded buildSettings
	require.NoError(t, json.Unmarshal(run.Config, &decoded))
	assert.Equal(t, 4, decoded.Reducers)
}
