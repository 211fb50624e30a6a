package memorystorage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hackmate/hackathon-helper/internal/storage"
	memorystorage "github.com/hackmate/hackathon-helper/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newEvent(title string, start time.Time) storage.Event {
	return storage.Event{
		Title:           title,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Visibility:      []storage.Role{storage.RoleAll},
		CreatedBy:       "org-1",
		CreatorTimezone: "UTC+3",
		IsActive:        true,
	}
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	initDate := time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)

	t.Run("add assigns id and get returns copy", func(t *testing.T) {
		s := memorystorage.New()
		e := newEvent("opening", initDate)
		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotEmpty(t, e.ID)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, got)

		got.Visibility[0] = storage.RoleMentor
		again, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, storage.RoleAll, again.Visibility[0])
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := memorystorage.New()
		e := newEvent("opening", initDate)
		require.NoError(t, s.AddEvent(ctx, &e))
		dup := e
		require.ErrorIs(t, s.AddEvent(ctx, &dup), storage.ErrDuplicateEventID)
	})

	t.Run("update and remove missing", func(t *testing.T) {
		s := memorystorage.New()
		require.ErrorIs(t, s.UpdateEvent(ctx, "missing", newEvent("x", initDate)), storage.ErrNotFoundEvent)
		require.ErrorIs(t, s.RemoveEvent(ctx, "missing"), storage.ErrNotFoundEvent)
		_, err := s.GetEvent(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("list sorted by start time", func(t *testing.T) {
		s := memorystorage.New()
		late := newEvent("late", initDate.Add(2*time.Hour))
		early := newEvent("early", initDate)
		mid := newEvent("mid", initDate.Add(time.Hour))
		for _, e := range []*storage.Event{&late, &early, &mid} {
			require.NoError(t, s.AddEvent(ctx, e))
		}

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.Equal(t, "early", events[0].Title)
		require.Equal(t, "mid", events[1].Title)
		require.Equal(t, "late", events[2].Title)
	})

	t.Run("remove", func(t *testing.T) {
		s := memorystorage.New()
		e := newEvent("opening", initDate)
		require.NoError(t, s.AddEvent(ctx, &e))
		require.NoError(t, s.RemoveEvent(ctx, e.ID))
		_, err := s.GetEvent(ctx, e.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}

func TestChangeLog(t *testing.T) {
	ctx := context.Background()
	s := memorystorage.New()

	require.NoError(t, s.AppendChange(ctx, storage.ChangeLogEntry{EventID: "e1", Type: storage.ChangeCreated}))
	require.NoError(t, s.AppendChange(ctx, storage.ChangeLogEntry{
		EventID: "e1",
		Type:    storage.ChangeUpdated,
		Changes: storage.Diff{{Field: storage.FieldTitle, Old: "a", New: "b"}},
	}))

	entries, err := s.ListChanges(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, storage.ChangeCreated, entries[0].Type)
	require.Equal(t, storage.ChangeUpdated, entries[1].Type)

	entries, err = s.ListChanges(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := memorystorage.New()

	_, err := s.GetUser(ctx, "u1")
	require.ErrorIs(t, err, storage.ErrNotFoundUser)

	require.NoError(t, s.SaveUser(ctx, storage.User{ID: "u2", Role: storage.RoleMentor, Timezone: "UTC+1", Active: true}))
	require.NoError(t, s.SaveUser(ctx, storage.User{ID: "u1", Role: storage.RoleParticipant, Timezone: "UTC", Active: true}))
	require.NoError(t, s.SaveUser(ctx, storage.User{ID: "u3", Role: storage.RoleVolunteer, Timezone: "UTC", Active: false}))

	users, err := s.ListActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "u1", users[0].ID)
	require.Equal(t, "u2", users[1].ID)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := memorystorage.New()

	_, err := s.GetSettings(ctx, "u1")
	require.ErrorIs(t, err, storage.ErrNotFoundSettings)

	saved := storage.DefaultSettings("u1", storage.RoleParticipant)
	require.NoError(t, s.SaveSettings(ctx, saved))

	got, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, saved, got)

	got.ReminderOffsets[0] = 999
	again, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 5, again.ReminderOffsets[0])
}

func TestMarkers(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)

	t.Run("mark and check", func(t *testing.T) {
		s := memorystorage.New()
		sent, err := s.HasSent(ctx, "u1", "e1", 15)
		require.NoError(t, err)
		require.False(t, sent)

		inserted, err := s.MarkSent(ctx, "u1", "e1", 15, start)
		require.NoError(t, err)
		require.True(t, inserted)

		inserted, err = s.MarkSent(ctx, "u1", "e1", 15, start)
		require.NoError(t, err)
		require.False(t, inserted)

		sent, err = s.HasSent(ctx, "u1", "e1", 15)
		require.NoError(t, err)
		require.True(t, sent)

		// Offsets are independent triples.
		sent, err = s.HasSent(ctx, "u1", "e1", 5)
		require.NoError(t, err)
		require.False(t, sent)
	})

	t.Run("insert-if-absent under concurrency", func(t *testing.T) {
		s := memorystorage.New()
		const workers = 16
		var wg sync.WaitGroup
		inserts := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inserted, err := s.MarkSent(ctx, "u1", "e1", 15, start)
				require.NoError(t, err)
				inserts <- inserted
			}()
		}
		wg.Wait()
		close(inserts)

		count := 0
		for inserted := range inserts {
			if inserted {
				count++
			}
		}
		require.Equal(t, 1, count)
	})

	t.Run("gc removes only passed events", func(t *testing.T) {
		s := memorystorage.New()
		_, err := s.MarkSent(ctx, "u1", "old", 15, start.Add(-time.Hour))
		require.NoError(t, err)
		_, err = s.MarkSent(ctx, "u1", "upcoming", 15, start.Add(time.Hour))
		require.NoError(t, err)

		require.NoError(t, s.RemoveMarkersBefore(ctx, start))

		sent, err := s.HasSent(ctx, "u1", "old", 15)
		require.NoError(t, err)
		require.False(t, sent)
		sent, err = s.HasSent(ctx, "u1", "upcoming", 15)
		require.NoError(t, err)
		require.True(t, sent)
	})
}
