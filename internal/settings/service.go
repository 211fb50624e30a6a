package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hackmate/hackathon-helper/internal/storage"
)

var ErrUnknownCategory = errors.New("unknown notification category")

// Service owns per-user notification settings. Settings are created
// lazily with role-dependent defaults and never deleted.
type Service struct {
	store storage.SettingsStorage
}

func New(store storage.SettingsStorage) *Service {
	return &Service{store: store}
}

func (s *Service) GetOrCreate(ctx context.Context, userID string, role storage.Role) (storage.NotificationSettings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, storage.ErrNotFoundSettings) {
		return storage.NotificationSettings{}, err
	}

	settings = storage.DefaultSettings(userID, role)
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return storage.NotificationSettings{}, fmt.Errorf("failed to save default settings: %w", err)
	}
	return settings, nil
}

func (s *Service) ToggleEnabled(ctx context.Context, userID string, role storage.Role) (storage.NotificationSettings, error) {
	settings, err := s.GetOrCreate(ctx, userID, role)
	if err != nil {
		return storage.NotificationSettings{}, err
	}
	settings.Enabled = !settings.Enabled
	return settings, s.store.SaveSettings(ctx, settings)
}

// SetReminderOffsets drops non-positive values, removes duplicates and
// stores the offsets sorted ascending.
func (s *Service) SetReminderOffsets(
	ctx context.Context,
	userID string,
	role storage.Role,
	offsets []int,
) (storage.NotificationSettings, error) {
	settings, err := s.GetOrCreate(ctx, userID, role)
	if err != nil {
		return storage.NotificationSettings{}, err
	}

	settings.ReminderOffsets = NormalizeOffsets(offsets)
	return settings, s.store.SaveSettings(ctx, settings)
}

func NormalizeOffsets(offsets []int) []int {
	seen := make(map[int]struct{}, len(offsets))
	normalized := make([]int, 0, len(offsets))
	for _, o := range offsets {
		if o <= 0 {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		normalized = append(normalized, o)
	}
	sort.Ints(normalized)
	return normalized
}

func (s *Service) ToggleCategory(
	ctx context.Context,
	userID string,
	role storage.Role,
	category storage.Category,
) (storage.NotificationSettings, error) {
	settings, err := s.GetOrCreate(ctx, userID, role)
	if err != nil {
		return storage.NotificationSettings{}, err
	}

	switch category {
	case storage.CategoryNewEvent:
		settings.NewEventEnabled = !settings.NewEventEnabled
	case storage.CategoryEventUpdated:
		settings.EventUpdatedEnabled = !settings.EventUpdatedEnabled
	case storage.CategoryEventCancelled:
		settings.EventCancelledEnabled = !settings.EventCancelledEnabled
	default:
		return storage.NotificationSettings{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return settings, s.store.SaveSettings(ctx, settings)
}

// EnabledFor gates a notification category. Reminders have no individual
// switch: they follow the global enable, only the offsets are
// configurable.
func EnabledFor(settings storage.NotificationSettings, category storage.Category) bool {
	if !settings.Enabled {
		return false
	}
	switch category {
	case storage.CategoryReminder:
		return true
	case storage.CategoryNewEvent:
		return settings.NewEventEnabled
	case storage.CategoryEventUpdated:
		return settings.EventUpdatedEnabled
	case storage.CategoryEventCancelled:
		return settings.EventCancelledEnabled
	default:
		return false
	}
}
