package cron_test

import (
	"testing"
	"time"

	"github.com/absmach/fedround/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		expr     string
		timezone string
		err      error
	}{
		{desc: "every minute", expr: "* * * * *"},
		{desc: "nightly in timezone", expr: "0 2 * * *", timezone: "Europe/Belgrade"},
		{desc: "descriptor", expr: "@daily"},
		{desc: "empty expression", expr: "", err: cron.ErrInvalidCronExpression},
		{desc: "seconds field", expr: "0 * * * * *", err: cron.ErrInvalidCronExpression},
		{desc: "out of range", expr: "61 * * * *", err: cron.ErrInvalidCronExpression},
		{desc: "unknown timezone", expr: "* * * * *", timezone: "Mars/Olympus", err: cron.ErrInvalidTimezone},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			s, err := cron.Parse(tc.expr, tc.timezone)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expr, s.String())
		})
	}
}

func TestScheduleNext(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 10, 12, 0, 30, 0, time.UTC)

	s, err := cron.Parse("* * * * *", "")
	require.NoError(t, err)
	assert.True(t, s.Next(from).Equal(time.Date(2026, 3, 10, 12, 1, 0, 0, time.UTC)))

	s, err = cron.Parse("0 2 * * *", "UTC")
	require.NoError(t, err)
	assert.True(t, s.Next(from).Equal(time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)))

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s, err = cron.Parse("0 2 * * *", "America/New_York")
	require.NoError(t, err)
	next := s.Next(from)
	assert.Equal(t, 2, next.In(loc).Hour())
	assert.True(t, next.After(from))
}
