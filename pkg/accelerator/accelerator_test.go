package accelerator_test

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/fedround/pkg/accelerator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccelerators(t *testing.T) {
	t.Parallel()

	host, err := accelerator.NewHost()
	require.NoError(t, err)

	cases := []struct {
		desc string
		acc  accelerator.Accelerator
	}{
		{desc: "host", acc: host},
		{desc: "noop", acc: accelerator.NewNoop()},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			_, err := tc.acc.Release(ctx)
			assert.ErrorIs(t, err, accelerator.ErrNotAcquired)

			usage, err := tc.acc.Acquire(ctx)
			require.NoError(t, err)
			assert.False(t, usage.Timestamp.IsZero())

			_, err = tc.acc.Acquire(ctx)
			assert.ErrorIs(t, err, accelerator.ErrAlreadyAcquired)

			rel, err := tc.acc.Release(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, rel.Held, time.Duration(0))
			assert.False(t, rel.After.Timestamp.Before(rel.Before.Timestamp))

			_, err = tc.acc.Acquire(ctx)
			require.NoError(t, err, "device can be acquired again after release")
			_, err = tc.acc.Release(ctx)
			require.NoError(t, err)
		})
	}
}

func TestHostSamplesProcessMemory(t *testing.T) {
	t.Parallel()

	acc, err := accelerator.NewHost()
	require.NoError(t, err)

	usage, err := acc.Acquire(context.Background())
	require.NoError(t, err)
	assert.Positive(t, usage.HeapBytes)

	_, err = acc.Release(context.Background())
	require.NoError(t, err)
}

func TestReclaimed(t *testing.T) {
	t.Parallel()

	r := accelerator.Release{Before: accelerator.Usage{RSSBytes: 100}, After: accelerator.Usage{RSSBytes: 40}}
	assert.Equal(t, uint64(60), r.Reclaimed())

	r.After.RSSBytes = 120
	assert.Zero(t, r.Reclaimed())
}
