package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the RunStore contract against any backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) RunStore) {
	t.Helper()

	record := func(runID, graphID string, finished time.Time) RunRecord {
		return RunRecord{
			RunID:      runID,
			GraphID:    graphID,
			Mode:       "goal",
			Start:      "{0 0}",
			Goal:       "{2 2}",
			Cost:       4,
			Expanded:   9,
			Status:     StatusCompleted,
			StartedAt:  finished.Add(-5 * time.Millisecond),
			FinishedAt: finished,
		}
	}

	t.Run("save and load round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := record("run-1", "grid-1", time.Now().UTC().Truncate(time.Microsecond))
		require.NoError(t, s.SaveRun(ctx, want))

		got, err := s.LoadRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, want.RunID, got.RunID)
		assert.Equal(t, want.GraphID, got.GraphID)
		assert.Equal(t, want.Mode, got.Mode)
		assert.Equal(t, want.Start, got.Start)
		assert.Equal(t, want.Goal, got.Goal)
		assert.Equal(t, want.Cost, got.Cost)
		assert.Equal(t, want.Expanded, got.Expanded)
		assert.Equal(t, want.Status, got.Status)
		assert.True(t, want.StartedAt.Equal(got.StartedAt), "StartedAt: want %v, got %v", want.StartedAt, got.StartedAt)
		assert.True(t, want.FinishedAt.Equal(got.FinishedAt), "FinishedAt: want %v, got %v", want.FinishedAt, got.FinishedAt)
	})

	t.Run("load missing run", func(t *testing.T) {
		s := newStore(t)
		_, err := s.LoadRun(context.Background(), "never-saved")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save replaces existing run", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := record("run-1", "grid-1", time.Now().UTC())
		require.NoError(t, s.SaveRun(ctx, rec))

		rec.Status = StatusAborted
		rec.Cost = 0
		require.NoError(t, s.SaveRun(ctx, rec))

		got, err := s.LoadRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, StatusAborted, got.Status)
		assert.Equal(t, float64(0), got.Cost)
	})

	t.Run("list runs most recent first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Second)
		for i := 0; i < 5; i++ {
			graph := "grid-1"
			if i%2 == 1 {
				graph = "grid-2"
			}
			rec := record(fmt.Sprintf("run-%d", i), graph, base.Add(time.Duration(i)*time.Second))
			require.NoError(t, s.SaveRun(ctx, rec))
		}

		runs, err := s.ListRuns(ctx, "grid-1", 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "run-4", runs[0].RunID)
		assert.Equal(t, "run-2", runs[1].RunID)
		assert.Equal(t, "run-0", runs[2].RunID)

		limited, err := s.ListRuns(ctx, "grid-1", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		all, err := s.ListRuns(ctx, "", 0)
		require.NoError(t, err)
		assert.Len(t, all, 5, "empty graphID must list across graphs")
	})

	t.Run("operations fail after close", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		assert.NoError(t, s.Close(), "double close must be a no-op")

		err := s.SaveRun(context.Background(), record("run-x", "g", time.Now()))
		assert.Error(t, err)
		_, err = s.LoadRun(context.Background(), "run-x")
		assert.Error(t, err)
	})
}
