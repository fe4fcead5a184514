package testutil

import (
	"context"
	"testing"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CheckpointStoreSuite runs the behaviour every fl.CheckpointStore must share
// against the given store.
func CheckpointStoreSuite(t *testing.T, store fl.CheckpointStore) {
	t.Helper()

	t.Run("save and load model", func(t *testing.T) {
		ctx := context.Background()
		session := uuid.NewString()

		want := TestCheckpoint(session, 1)
		require.NoError(t, store.SaveModel(ctx, want))

		got, err := store.LoadModel(ctx, session, 1)
		require.NoError(t, err)
		assert.Equal(t, want.SessionID, got.SessionID)
		assert.Equal(t, want.State, got.State)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("overwrite model version", func(t *testing.T) {
		ctx := context.Background()
		session := uuid.NewString()

		first := TestCheckpoint(session, 1)
		require.NoError(t, store.SaveModel(ctx, first))
		second := TestCheckpoint(session, 1)
		second.State.Parameters[1].Data = []float64{5, 6}
		require.NoError(t, store.SaveModel(ctx, second))

		got, err := store.LoadModel(ctx, session, 1)
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 6}, got.State.Parameters[1].Data)
	})

	t.Run("load missing model", func(t *testing.T) {
		_, err := store.LoadModel(context.Background(), uuid.NewString(), 7)
		assert.ErrorIs(t, err, fl.ErrCheckpointNotFound)
	})

	t.Run("list models in version order", func(t *testing.T) {
		ctx := context.Background()
		session := uuid.NewString()
		other := uuid.NewString()

		for _, v := range []int{10, 2, 1} {
			require.NoError(t, store.SaveModel(ctx, TestCheckpoint(session, v)))
		}
		require.NoError(t, store.SaveModel(ctx, TestCheckpoint(other, 3)))

		versions, err := store.ListModels(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 10}, versions)
	})

	t.Run("list models of unknown session", func(t *testing.T) {
		versions, err := store.ListModels(context.Background(), uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("rounds ordered fit before evaluate", func(t *testing.T) {
		ctx := context.Background()
		session := uuid.NewString()

		records := []fl.RoundRecord{
			TestRoundRecord(session, 2, fl.PhaseEvaluate),
			TestRoundRecord(session, 1, fl.PhaseEvaluate),
			TestRoundRecord(session, 2, fl.PhaseFit),
			TestRoundRecord(session, 1, fl.PhaseFit),
		}
		failed := TestRoundRecord(session, 3, fl.PhaseFit)
		failed.Status = fl.RoundInsufficientParticipants
		failed.Contributors = 0
		failed.Error = fl.ErrInsufficientParticipants.Error()
		records = append(records, failed)

		for _, rec := range records {
			require.NoError(t, store.SaveRound(ctx, rec))
		}

		got, err := store.ListRounds(ctx, session)
		require.NoError(t, err)
		require.Len(t, got, 5)

		type key struct {
			round int
			phase fl.Phase
		}
		order := make([]key, len(got))
		for i, rec := range got {
			order[i] = key{rec.Round, rec.Phase}
		}
		assert.Equal(t, []key{
			{1, fl.PhaseFit}, {1, fl.PhaseEvaluate},
			{2, fl.PhaseFit}, {2, fl.PhaseEvaluate},
			{3, fl.PhaseFit},
		}, order)
		assert.Equal(t, fl.RoundInsufficientParticipants, got[4].Status)
		assert.Equal(t, map[string]float64{"val_loss": 0.25}, got[0].Metrics)
	})

	t.Run("list rounds of unknown session", func(t *testing.T) {
		got, err := store.ListRounds(context.Background(), uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
