package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hackmate/hackathon-helper/internal/storage"
)

type markerKey struct {
	userID        string
	eventID       string
	offsetMinutes int
}

type Storage struct {
	mu       sync.RWMutex
	events   map[string]storage.Event
	changes  map[string][]storage.ChangeLogEntry
	users    map[string]storage.User
	settings map[string]storage.NotificationSettings
	markers  map[markerKey]time.Time
}

func New() *Storage {
	return &Storage{
		events:   make(map[string]storage.Event),
		changes:  make(map[string][]storage.ChangeLogEntry),
		users:    make(map[string]storage.User),
		settings: make(map[string]storage.NotificationSettings),
		markers:  make(map[markerKey]time.Time),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	s.events[e.ID] = cloneEvent(*e)
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return cloneEvent(e), nil
}

func (s *Storage) UpdateEvent(_ context.Context, id string, e storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	e.ID = id
	s.events[id] = cloneEvent(e)
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.events, id)
	return nil
}

func (s *Storage) ListEvents(_ context.Context) ([]storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]storage.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, cloneEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (s *Storage) AppendChange(_ context.Context, entry storage.ChangeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes[entry.EventID] = append(s.changes[entry.EventID], entry)
	return nil
}

func (s *Storage) ListChanges(_ context.Context, eventID string) ([]storage.ChangeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]storage.ChangeLogEntry(nil), s.changes[eventID]...), nil
}

func (s *Storage) SaveUser(_ context.Context, u storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Storage) GetUser(_ context.Context, id string) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return storage.User{}, fmt.Errorf("failed to get user with id %q: %w", id, storage.ErrNotFoundUser)
	}
	return u, nil
}

func (s *Storage) ListActiveUsers(_ context.Context) ([]storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]storage.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Active {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Storage) GetSettings(_ context.Context, userID string) (storage.NotificationSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[userID]
	if !ok {
		return storage.NotificationSettings{},
			fmt.Errorf("no settings for user %q: %w", userID, storage.ErrNotFoundSettings)
	}
	settings.ReminderOffsets = append([]int(nil), settings.ReminderOffsets...)
	return settings, nil
}

func (s *Storage) SaveSettings(_ context.Context, settings storage.NotificationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.ReminderOffsets = append([]int(nil), settings.ReminderOffsets...)
	s.settings[settings.UserID] = settings
	return nil
}

func (s *Storage) HasSent(_ context.Context, userID, eventID string, offsetMinutes int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[markerKey{userID, eventID, offsetMinutes}]
	return ok, nil
}

func (s *Storage) MarkSent(
	_ context.Context,
	userID, eventID string,
	offsetMinutes int,
	eventStart time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := markerKey{userID, eventID, offsetMinutes}
	if _, ok := s.markers[key]; ok {
		return false, nil
	}
	s.markers[key] = eventStart
	return true, nil
}

func (s *Storage) RemoveMarkersBefore(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, start := range s.markers {
		if start.Before(t) {
			delete(s.markers, key)
		}
	}
	return nil
}

func cloneEvent(e storage.Event) storage.Event {
	e.Visibility = append([]storage.Role(nil), e.Visibility...)
	return e
}
