package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateEventID   = errors.New("event with same ID exists")
	ErrNotFoundEvent      = errors.New("event not found")
	ErrIncorrectEventTime = errors.New("incorrect event time")
	ErrEmptyVisibility    = errors.New("event visibility is empty")
	ErrUnknownTimezone    = errors.New("unknown timezone")
	ErrUnknownRole        = errors.New("unknown role")
	ErrNotFoundUser       = errors.New("user not found")
	ErrNotFoundSettings   = errors.New("notification settings not found")
)

type EventStorage interface {
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, id string, e Event) error
	RemoveEvent(ctx context.Context, id string) error
	// ListEvents returns all events ascending by start time.
	ListEvents(ctx context.Context) ([]Event, error)
}

type ChangeLogStorage interface {
	AppendChange(ctx context.Context, entry ChangeLogEntry) error
	ListChanges(ctx context.Context, eventID string) ([]ChangeLogEntry, error)
}

type UserStorage interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListActiveUsers(ctx context.Context) ([]User, error)
}

type SettingsStorage interface {
	GetSettings(ctx context.Context, userID string) (NotificationSettings, error)
	SaveSettings(ctx context.Context, s NotificationSettings) error
}

// DedupStorage tracks which (user, event, offset) reminders already went
// out. MarkSent must be an atomic insert-if-absent; it reports whether
// the marker was inserted by this call.
type DedupStorage interface {
	HasSent(ctx context.Context, userID, eventID string, offsetMinutes int) (bool, error)
	MarkSent(ctx context.Context, userID, eventID string, offsetMinutes int, eventStart time.Time) (bool, error)
	// RemoveMarkersBefore drops markers whose event start precedes t.
	RemoveMarkersBefore(ctx context.Context, t time.Time) error
}

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	EventStorage
	ChangeLogStorage
	UserStorage
	SettingsStorage
	DedupStorage
}
