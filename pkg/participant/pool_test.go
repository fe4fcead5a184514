package participant_test

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/participant/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMembership(t *testing.T) {
	t.Parallel()

	pool := participant.NewPool()
	require.NoError(t, pool.Add(mocks.NewProxy("c")))
	require.NoError(t, pool.Add(mocks.NewProxy("a")))
	require.NoError(t, pool.Add(mocks.NewProxy("b")))

	assert.ErrorIs(t, pool.Add(mocks.NewProxy("a")), errors.ErrEntityExists)
	assert.ErrorIs(t, pool.Add(mocks.NewProxy("")), errors.ErrEmptyKey)
	assert.Equal(t, 3, pool.Len())

	snapshot := pool.Snapshot()
	ids := make([]string, len(snapshot))
	for i, p := range snapshot {
		ids[i] = p.ID()
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	got, err := pool.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID())

	require.NoError(t, pool.Remove("b"))
	assert.ErrorIs(t, pool.Remove("b"), errors.ErrNotFound)
	_, err = pool.Get("b")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.Len(t, snapshot, 3, "snapshots are not affected by later membership changes")
	assert.Equal(t, 2, pool.Len())
}

func TestPoolWaitFor(t *testing.T) {
	t.Parallel()

	pool := participant.NewPool()
	require.NoError(t, pool.Add(mocks.NewProxy("a")))

	require.NoError(t, pool.WaitFor(context.Background(), 1, time.Millisecond))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = pool.Add(mocks.NewProxy("b"))
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.WaitFor(ctx, 2, 5*time.Millisecond))

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, pool.WaitFor(short, 5, 5*time.Millisecond), context.DeadlineExceeded)
}
