package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-organizer/internal/model"
	"life-organizer/internal/repository"
)

func TestHabitStore_ToggleIsSymmetric(t *testing.T) {
	c := newClock(day(10, 7))
	s := NewHabitStore(repository.NewMemoryKV(), nil, WithClock(c.Now), WithIDGenerator(sequentialIDs("h")))

	h, err := s.Add("Meditate")
	require.NoError(t, err)
	assert.Zero(t, h.Streak)
	assert.NotNil(t, h.CompletedDates)

	done, ok, err := s.Toggle(h.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, done.Streak)
	assert.True(t, s.CompletedToday(done))

	c.Set(day(10, 21))
	undone, _, err := s.Toggle(h.ID)
	require.NoError(t, err)
	assert.Zero(t, undone.Streak)
	assert.Empty(t, undone.CompletedDates)
	assert.False(t, s.CompletedToday(undone))
}

func TestHabitStore_IncrementalStreakAcrossDays(t *testing.T) {
	c := newClock(day(8, 7))
	s := NewHabitStore(repository.NewMemoryKV(), nil, WithClock(c.Now))
	h, err := s.Add("Read")
	require.NoError(t, err)

	for _, d := range []int{8, 9, 12} {
		c.Set(day(d, 7))
		_, _, err := s.Toggle(h.ID)
		require.NoError(t, err)
	}
	got, _ := s.Get(h.ID)
	assert.Equal(t, 3, got.Streak, "incremental streak ignores gaps")
	assert.Len(t, got.CompletedDates, 3)

	_, _, err = s.Toggle(h.ID)
	require.NoError(t, err)
	got, _ = s.Get(h.ID)
	assert.Equal(t, 2, got.Streak)
	assert.Len(t, got.CompletedDates, 2, "only today's entry is removed")
}

func TestHabitStore_ConsecutiveDaysStreak(t *testing.T) {
	c := newClock(day(8, 7))
	s := NewHabitStore(repository.NewMemoryKV(), ConsecutiveDaysStreak{}, WithClock(c.Now))
	h, err := s.Add("Run")
	require.NoError(t, err)

	for _, d := range []int{8, 10, 11, 12} {
		c.Set(day(d, 7))
		_, _, err := s.Toggle(h.ID)
		require.NoError(t, err)
	}
	got, _ := s.Get(h.ID)
	assert.Equal(t, 3, got.Streak)

	_, _, err = s.Toggle(h.ID)
	require.NoError(t, err)
	got, _ = s.Get(h.ID)
	assert.Equal(t, 2, got.Streak, "undo falls back to the run ending yesterday")
}

func TestConsecutiveDaysStreak(t *testing.T) {
	now := day(12, 20)
	var p ConsecutiveDaysStreak

	assert.Zero(t, p.Streak(5, nil, false, now))
	assert.Equal(t, 1, p.Streak(0, []time.Time{day(12, 1)}, true, now))
	assert.Equal(t, 2, p.Streak(0, []time.Time{day(10, 9), day(11, 9)}, false, now))
	assert.Zero(t, p.Streak(0, []time.Time{day(9, 9)}, false, now))
	assert.Equal(t, 3, p.Streak(0, []time.Time{day(10, 9), day(11, 9), day(11, 22), day(12, 6)}, true, now))
}

func TestHabitStore_UpdateAndArchive(t *testing.T) {
	c := newClock(day(10, 7))
	s := NewHabitStore(repository.NewMemoryKV(), nil, WithClock(c.Now), WithIDGenerator(sequentialIDs("h")))
	_, err := s.Add("Floss")
	require.NoError(t, err)
	_, err = s.Add("Journal")
	require.NoError(t, err)

	archived := true
	require.NoError(t, s.Update("h-1", model.HabitPatch{Archived: &archived}))
	active := s.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Journal", active[0].Name)

	negative := -1
	assert.True(t, IsValidationError(s.Update("h-2", model.HabitPatch{Streak: &negative})))

	_, err = s.Add("")
	assert.True(t, IsValidationError(err))

	before := s.All()
	require.NoError(t, s.Delete("h-9"))
	_, ok, err := s.Toggle("h-9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, s.All())
}

func TestHabitStore_Reload(t *testing.T) {
	kv := repository.NewMemoryKV()
	c := newClock(day(10, 7))
	s := NewHabitStore(kv, nil, WithClock(c.Now))
	h, err := s.Add("Stretch")
	require.NoError(t, err)
	_, _, err = s.Toggle(h.ID)
	require.NoError(t, err)

	reloaded := NewHabitStore(kv, nil, WithClock(c.Now))
	got, ok := reloaded.Get(h.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Streak)
	assert.True(t, reloaded.CompletedToday(got))
}
