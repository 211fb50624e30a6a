package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/hackmate/hackathon-helper/internal/app"
	"github.com/hackmate/hackathon-helper/internal/storage"
	memorystorage "github.com/hackmate/hackathon-helper/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type notifierCall struct {
	kind  string
	event storage.Event
	diff  storage.Diff
}

type fakeNotifier struct {
	calls []notifierCall
}

func (f *fakeNotifier) EventCreated(_ context.Context, e storage.Event) {
	f.calls = append(f.calls, notifierCall{kind: "created", event: e})
}

func (f *fakeNotifier) EventUpdated(_ context.Context, e storage.Event, diff storage.Diff) {
	f.calls = append(f.calls, notifierCall{kind: "updated", event: e, diff: diff})
}

func (f *fakeNotifier) EventCancelled(_ context.Context, snapshot storage.Event) {
	f.calls = append(f.calls, notifierCall{kind: "cancelled", event: snapshot})
}

func newApp(t *testing.T) (*app.App, *memorystorage.Storage, *fakeNotifier) {
	t.Helper()
	store := memorystorage.New()
	notifier := &fakeNotifier{}
	return app.New(store, notifier), store, notifier
}

func validEvent() storage.Event {
	start := time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)
	return storage.Event{
		Title:           "Opening ceremony",
		Description:     "Welcome and rules",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Location:        "Main hall",
		Visibility:      []storage.Role{storage.RoleAll},
		CreatedBy:       "org-1",
		CreatorTimezone: "UTC+3",
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success writes log and notifies", func(t *testing.T) {
		a, store, notifier := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.True(t, created.IsActive)

		changes, err := store.ListChanges(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		require.Equal(t, storage.ChangeCreated, changes[0].Type)

		require.Len(t, notifier.calls, 1)
		require.Equal(t, "created", notifier.calls[0].kind)
	})

	t.Run("rejects bad time range", func(t *testing.T) {
		a, _, notifier := newApp(t)
		e := validEvent()
		e.EndTime = e.StartTime
		_, err := a.CreateEvent(ctx, e)
		require.ErrorIs(t, err, storage.ErrIncorrectEventTime)
		require.Empty(t, notifier.calls)
	})

	t.Run("rejects empty visibility", func(t *testing.T) {
		a, _, _ := newApp(t)
		e := validEvent()
		e.Visibility = nil
		_, err := a.CreateEvent(ctx, e)
		require.ErrorIs(t, err, storage.ErrEmptyVisibility)
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		a, _, _ := newApp(t)
		e := validEvent()
		e.CreatorTimezone = "Europe/Moscow"
		_, err := a.CreateEvent(ctx, e)
		require.ErrorIs(t, err, storage.ErrUnknownTimezone)
	})

	t.Run("rejects unknown visibility role", func(t *testing.T) {
		a, _, _ := newApp(t)
		e := validEvent()
		e.Visibility = []storage.Role{"hacker"}
		_, err := a.CreateEvent(ctx, e)
		require.ErrorIs(t, err, storage.ErrUnknownRole)
	})
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("location-only patch yields minimal diff", func(t *testing.T) {
		a, _, notifier := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)
		notifier.calls = nil

		room := "Room 42"
		updated, err := a.UpdateEvent(ctx, created.ID, app.EventPatch{Location: &room})
		require.NoError(t, err)
		require.True(t, updated)

		require.Len(t, notifier.calls, 1)
		diff := notifier.calls[0].diff
		require.True(t, diff.Has(storage.FieldLocation))
		require.False(t, diff.Has(storage.FieldStartTime))
		require.False(t, diff.Has(storage.FieldTitle))
	})

	t.Run("no-op patch changes nothing", func(t *testing.T) {
		a, store, notifier := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)
		notifier.calls = nil

		sameTitle := created.Title
		updated, err := a.UpdateEvent(ctx, created.ID, app.EventPatch{Title: &sameTitle})
		require.NoError(t, err)
		require.False(t, updated)
		require.Empty(t, notifier.calls)

		changes, err := store.ListChanges(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, changes, 1) // only the created entry
	})

	t.Run("visibility-only change is logged but not announced", func(t *testing.T) {
		a, store, notifier := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)
		notifier.calls = nil

		updated, err := a.UpdateEvent(ctx, created.ID, app.EventPatch{
			Visibility: []storage.Role{storage.RoleMentor},
		})
		require.NoError(t, err)
		require.True(t, updated)
		require.Empty(t, notifier.calls)

		changes, err := store.ListChanges(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		require.True(t, changes[1].Changes.Has(storage.FieldVisibility))
	})

	t.Run("patched event is validated", func(t *testing.T) {
		a, _, _ := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)

		badEnd := created.StartTime.Add(-time.Hour)
		_, err = a.UpdateEvent(ctx, created.ID, app.EventPatch{EndTime: &badEnd})
		require.ErrorIs(t, err, storage.ErrIncorrectEventTime)
	})

	t.Run("missing event reports false", func(t *testing.T) {
		a, _, _ := newApp(t)
		title := "x"
		updated, err := a.UpdateEvent(ctx, "missing", app.EventPatch{Title: &title})
		require.NoError(t, err)
		require.False(t, updated)
	})
}

func TestRemoveEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps snapshot in log and notifies from it", func(t *testing.T) {
		a, store, notifier := newApp(t)
		created, err := a.CreateEvent(ctx, validEvent())
		require.NoError(t, err)
		notifier.calls = nil

		removed, err := a.RemoveEvent(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, removed)

		_, err = a.GetEvent(ctx, created.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)

		changes, err := store.ListChanges(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		require.Equal(t, storage.ChangeDeleted, changes[1].Type)
		require.NotNil(t, changes[1].Snapshot)
		require.Equal(t, created.Title, changes[1].Snapshot.Title)

		require.Len(t, notifier.calls, 1)
		require.Equal(t, "cancelled", notifier.calls[0].kind)
		require.Equal(t, created.Title, notifier.calls[0].event.Title)
	})

	t.Run("missing event reports false", func(t *testing.T) {
		a, _, notifier := newApp(t)
		removed, err := a.RemoveEvent(ctx, "missing")
		require.NoError(t, err)
		require.False(t, removed)
		require.Empty(t, notifier.calls)
	})
}

func TestListForRole(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newApp(t)

	mentorOnly := validEvent()
	mentorOnly.Title = "Mentor sync"
	mentorOnly.Visibility = []storage.Role{storage.RoleMentor}
	mentorOnly.StartTime = mentorOnly.StartTime.Add(2 * time.Hour)
	mentorOnly.EndTime = mentorOnly.EndTime.Add(2 * time.Hour)

	_, err := a.CreateEvent(ctx, validEvent())
	require.NoError(t, err)
	_, err = a.CreateEvent(ctx, mentorOnly)
	require.NoError(t, err)

	t.Run("participant sees only wildcard event", func(t *testing.T) {
		views, err := a.ListForRole(ctx, storage.RoleParticipant, "UTC+5")
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Equal(t, "Opening ceremony", views[0].Title)
		// Creator zone UTC+3, viewer UTC+5: 10:00 becomes 12:00.
		require.Equal(t, time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC), views[0].LocalStart)
	})

	t.Run("mentor sees both ascending", func(t *testing.T) {
		views, err := a.ListForRole(ctx, storage.RoleMentor, "UTC+3")
		require.NoError(t, err)
		require.Len(t, views, 2)
		require.Equal(t, "Opening ceremony", views[0].Title)
		require.Equal(t, "Mentor sync", views[1].Title)
		require.Equal(t, views[0].StartTime, views[0].LocalStart)
	})
}

func TestFormatEventForDisplay(t *testing.T) {
	a, _, _ := newApp(t)
	e := validEvent()

	text := a.FormatEventForDisplay(e, "UTC+5")
	require.Contains(t, text, "Opening ceremony")
	require.Contains(t, text, "15.12 12:00–13:00")
	require.Contains(t, text, "Main hall")
	require.Contains(t, text, "for all")
}
