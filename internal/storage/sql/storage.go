package sqlstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hackmate/hackathon-helper/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

type eventRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	StartTime       time.Time      `db:"start_time"`
	EndTime         time.Time      `db:"end_time"`
	Location        string         `db:"location"`
	Visibility      pq.StringArray `db:"visibility"`
	CreatedBy       string         `db:"created_by"`
	CreatorTimezone string         `db:"creator_timezone"`
	IsActive        bool           `db:"is_active"`
}

func (r eventRow) toEvent() storage.Event {
	visibility := make([]storage.Role, 0, len(r.Visibility))
	for _, v := range r.Visibility {
		visibility = append(visibility, storage.Role(v))
	}
	return storage.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		Location:        r.Location,
		Visibility:      visibility,
		CreatedBy:       r.CreatedBy,
		CreatorTimezone: r.CreatorTimezone,
		IsActive:        r.IsActive,
	}
}

func visibilityArray(roles []storage.Role) pq.StringArray {
	arr := make(pq.StringArray, 0, len(roles))
	for _, r := range roles {
		arr = append(arr, string(r))
	}
	return arr
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO events(id, title, description, start_time, end_time, location, "+
			"visibility, created_by, creator_timezone, is_active) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		e.ID, e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), e.Location,
		visibilityArray(e.Visibility), e.CreatedBy, e.CreatorTimezone, e.IsActive)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	return err
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, selectEvents+" WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, err
	}
	return row.toEvent(), nil
}

func (s *Storage) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET title=$2, description=$3, start_time=$4, end_time=$5, location=$6, "+
			"visibility=$7, is_active=$8 WHERE id=$1 RETURNING TRUE",
		id, e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), e.Location,
		visibilityArray(e.Visibility), e.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) || !found {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 RETURNING TRUE", id)
	if errors.Is(err, sql.ErrNoRows) || !found {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

const selectEvents = "SELECT id, title, description, start_time, end_time, location, " +
	"visibility, created_by, creator_timezone, is_active FROM events"

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, selectEvents+" ORDER BY start_time")
	if err != nil {
		return nil, err
	}
	events := make([]storage.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}

func (s *Storage) AppendChange(ctx context.Context, entry storage.ChangeLogEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode changes: %w", err)
	}
	var snapshot []byte
	if entry.Snapshot != nil {
		snapshot, err = json.Marshal(entry.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}
	_, err = s.db.ExecContext(
		ctx,
		"INSERT INTO event_change_log(event_id, change_type, changes, snapshot, changed_at) "+
			"VALUES($1, $2, $3, $4, $5)",
		entry.EventID, string(entry.Type), changes, snapshot, entry.At.UTC())
	return err
}

func (s *Storage) ListChanges(ctx context.Context, eventID string) ([]storage.ChangeLogEntry, error) {
	var rows []struct {
		EventID    string    `db:"event_id"`
		ChangeType string    `db:"change_type"`
		Changes    []byte    `db:"changes"`
		Snapshot   []byte    `db:"snapshot"`
		ChangedAt  time.Time `db:"changed_at"`
	}
	err := s.db.SelectContext(
		ctx,
		&rows,
		"SELECT event_id, change_type, changes, snapshot, changed_at "+
			"FROM event_change_log WHERE event_id=$1 ORDER BY changed_at",
		eventID,
	)
	if err != nil {
		return nil, err
	}

	entries := make([]storage.ChangeLogEntry, 0, len(rows))
	for _, row := range rows {
		entry := storage.ChangeLogEntry{
			EventID: row.EventID,
			Type:    storage.ChangeType(row.ChangeType),
			At:      row.ChangedAt.UTC(),
		}
		if len(row.Changes) > 0 {
			if err := json.Unmarshal(row.Changes, &entry.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode changes: %w", err)
			}
		}
		if len(row.Snapshot) > 0 {
			entry.Snapshot = &storage.Event{}
			if err := json.Unmarshal(row.Snapshot, entry.Snapshot); err != nil {
				return nil, fmt.Errorf("failed to decode snapshot: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Storage) SaveUser(ctx context.Context, u storage.User) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO users(id, name, role, timezone, active) VALUES($1, $2, $3, $4, $5) "+
			"ON CONFLICT (id) DO UPDATE SET name=$2, role=$3, timezone=$4, active=$5",
		u.ID, u.Name, string(u.Role), u.Timezone, u.Active)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id string) (storage.User, error) {
	var u storage.User
	err := s.db.GetContext(ctx, &u, "SELECT id, name, role, timezone, active FROM users WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.User{}, fmt.Errorf("failed to get user with id %q: %w", id, storage.ErrNotFoundUser)
	}
	return u, err
}

func (s *Storage) ListActiveUsers(ctx context.Context) ([]storage.User, error) {
	var users []storage.User
	err := s.db.SelectContext(
		ctx,
		&users,
		"SELECT id, name, role, timezone, active FROM users WHERE active ORDER BY id",
	)
	return users, err
}

type settingsRow struct {
	UserID                string        `db:"user_id"`
	Enabled               bool          `db:"enabled"`
	ReminderOffsets       pq.Int64Array `db:"reminder_offsets"`
	NewEventEnabled       bool          `db:"new_event_enabled"`
	EventUpdatedEnabled   bool          `db:"event_updated_enabled"`
	EventCancelledEnabled bool          `db:"event_cancelled_enabled"`
}

func (s *Storage) GetSettings(ctx context.Context, userID string) (storage.NotificationSettings, error) {
	var row settingsRow
	err := s.db.GetContext(
		ctx,
		&row,
		"SELECT user_id, enabled, reminder_offsets, new_event_enabled, event_updated_enabled, "+
			"event_cancelled_enabled FROM notification_settings WHERE user_id=$1",
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NotificationSettings{},
			fmt.Errorf("no settings for user %q: %w", userID, storage.ErrNotFoundSettings)
	}
	if err != nil {
		return storage.NotificationSettings{}, err
	}

	offsets := make([]int, 0, len(row.ReminderOffsets))
	for _, o := range row.ReminderOffsets {
		offsets = append(offsets, int(o))
	}
	return storage.NotificationSettings{
		UserID:                row.UserID,
		Enabled:               row.Enabled,
		ReminderOffsets:       offsets,
		NewEventEnabled:       row.NewEventEnabled,
		EventUpdatedEnabled:   row.EventUpdatedEnabled,
		EventCancelledEnabled: row.EventCancelledEnabled,
	}, nil
}

func (s *Storage) SaveSettings(ctx context.Context, settings storage.NotificationSettings) error {
	offsets := make(pq.Int64Array, 0, len(settings.ReminderOffsets))
	for _, o := range settings.ReminderOffsets {
		offsets = append(offsets, int64(o))
	}
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO notification_settings(user_id, enabled, reminder_offsets, new_event_enabled, "+
			"event_updated_enabled, event_cancelled_enabled) VALUES($1, $2, $3, $4, $5, $6) "+
			"ON CONFLICT (user_id) DO UPDATE SET enabled=$2, reminder_offsets=$3, "+
			"new_event_enabled=$4, event_updated_enabled=$5, event_cancelled_enabled=$6",
		settings.UserID, settings.Enabled, offsets, settings.NewEventEnabled,
		settings.EventUpdatedEnabled, settings.EventCancelledEnabled)
	return err
}

func (s *Storage) HasSent(ctx context.Context, userID, eventID string, offsetMinutes int) (bool, error) {
	var sent bool
	err := s.db.GetContext(
		ctx,
		&sent,
		"SELECT TRUE FROM reminder_markers WHERE user_id=$1 AND event_id=$2 AND offset_minutes=$3",
		userID, eventID, offsetMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return sent, err
}

// MarkSent relies on the primary key over (user_id, event_id,
// offset_minutes); ON CONFLICT DO NOTHING makes it safe when several
// scheduler instances race on the same triple.
func (s *Storage) MarkSent(
	ctx context.Context,
	userID, eventID string,
	offsetMinutes int,
	eventStart time.Time,
) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		"INSERT INTO reminder_markers(user_id, event_id, offset_minutes, event_start) "+
			"VALUES($1, $2, $3, $4) ON CONFLICT DO NOTHING",
		userID, eventID, offsetMinutes, eventStart.UTC())
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

func (s *Storage) RemoveMarkersBefore(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reminder_markers WHERE event_start < $1", t.UTC())
	return err
}
