package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"08:00", "0 0 8 * * *", true},
		{" 21:45 ", "0 45 21 * * *", true},
		{"7:5", "0 5 7 * * *", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"noon", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := buildDailySpec(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScheduler_RegisterAndCancel(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)

	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)
	_, err = s.ScheduleDaily("25:00", func() {})
	assert.Error(t, err)

	daily, err := s.ScheduleDaily("08:00", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleInterval(time.Minute, func() {})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	s.Cancel(daily)
	assert.Equal(t, 1, s.Entries())
	s.Cancel(daily)
	assert.Equal(t, 1, s.Entries())
}

func TestScheduler_RunsIntervalJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	ticks := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ticks:
	case <-time.After(3 * time.Second):
		t.Fatal("interval job did not run")
	}
}
