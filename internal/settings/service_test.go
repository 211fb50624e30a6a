package settings_test

import (
	"context"
	"testing"

	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storage"
	memorystorage "github.com/hackmate/hackathon-helper/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer defaults", func(t *testing.T) {
		svc := settings.New(memorystorage.New())
		s, err := svc.GetOrCreate(ctx, "org-1", storage.RoleOrganizer)
		require.NoError(t, err)
		require.True(t, s.Enabled)
		require.Equal(t, []int{5, 15, 60}, s.ReminderOffsets)
		require.False(t, s.NewEventEnabled)
		require.False(t, s.EventUpdatedEnabled)
		require.False(t, s.EventCancelledEnabled)
	})

	t.Run("participant defaults", func(t *testing.T) {
		svc := settings.New(memorystorage.New())
		s, err := svc.GetOrCreate(ctx, "p-1", storage.RoleParticipant)
		require.NoError(t, err)
		require.True(t, s.NewEventEnabled)
		require.True(t, s.EventUpdatedEnabled)
		require.True(t, s.EventCancelledEnabled)
	})

	t.Run("existing settings win over role defaults", func(t *testing.T) {
		svc := settings.New(memorystorage.New())
		_, err := svc.GetOrCreate(ctx, "u-1", storage.RoleParticipant)
		require.NoError(t, err)
		toggled, err := svc.ToggleCategory(ctx, "u-1", storage.RoleParticipant, storage.CategoryNewEvent)
		require.NoError(t, err)
		require.False(t, toggled.NewEventEnabled)

		again, err := svc.GetOrCreate(ctx, "u-1", storage.RoleOrganizer)
		require.NoError(t, err)
		require.Equal(t, toggled, again)
	})
}

func TestToggleEnabled(t *testing.T) {
	ctx := context.Background()
	svc := settings.New(memorystorage.New())

	s, err := svc.ToggleEnabled(ctx, "u-1", storage.RoleParticipant)
	require.NoError(t, err)
	require.False(t, s.Enabled)

	s, err = svc.ToggleEnabled(ctx, "u-1", storage.RoleParticipant)
	require.NoError(t, err)
	require.True(t, s.Enabled)
}

func TestSetReminderOffsets(t *testing.T) {
	ctx := context.Background()
	svc := settings.New(memorystorage.New())

	s, err := svc.SetReminderOffsets(ctx, "u-1", storage.RoleParticipant, []int{60, 15, 15, -5, 0, 5})
	require.NoError(t, err)
	require.Equal(t, []int{5, 15, 60}, s.ReminderOffsets)

	s, err = svc.SetReminderOffsets(ctx, "u-1", storage.RoleParticipant, nil)
	require.NoError(t, err)
	require.Empty(t, s.ReminderOffsets)
}

func TestToggleCategory(t *testing.T) {
	ctx := context.Background()
	svc := settings.New(memorystorage.New())

	s, err := svc.ToggleCategory(ctx, "u-1", storage.RoleParticipant, storage.CategoryEventCancelled)
	require.NoError(t, err)
	require.False(t, s.EventCancelledEnabled)
	require.True(t, s.NewEventEnabled)

	_, err = svc.ToggleCategory(ctx, "u-1", storage.RoleParticipant, "spam")
	require.ErrorIs(t, err, settings.ErrUnknownCategory)
}

func TestEnabledFor(t *testing.T) {
	s := storage.DefaultSettings("u-1", storage.RoleOrganizer)

	require.True(t, settings.EnabledFor(s, storage.CategoryReminder))
	require.False(t, settings.EnabledFor(s, storage.CategoryNewEvent))
	require.False(t, settings.EnabledFor(s, storage.CategoryEventUpdated))
	require.False(t, settings.EnabledFor(s, storage.CategoryEventCancelled))

	s.NewEventEnabled = true
	require.True(t, settings.EnabledFor(s, storage.CategoryNewEvent))

	// Global switch dominates everything, reminders included.
	s.Enabled = false
	require.False(t, settings.EnabledFor(s, storage.CategoryReminder))
	require.False(t, settings.EnabledFor(s, storage.CategoryNewEvent))
}
