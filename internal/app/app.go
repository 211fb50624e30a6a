package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hackmate/hackathon-helper/internal/notify"
	"github.com/hackmate/hackathon-helper/internal/storage"
	"github.com/hackmate/hackathon-helper/internal/timezone"
	log "github.com/sirupsen/logrus"
)

// ChangeNotifier receives synchronous hooks after successful mutations.
type ChangeNotifier interface {
	EventCreated(ctx context.Context, e storage.Event)
	EventUpdated(ctx context.Context, e storage.Event, diff storage.Diff)
	EventCancelled(ctx context.Context, snapshot storage.Event)
}

type eventStore interface {
	storage.EventStorage
	storage.ChangeLogStorage
}

// App validates and applies event mutations, owns the change log and
// triggers the change notifier. Notifier may be nil (scheduler-less
// tooling).
type App struct {
	storage  eventStore
	notifier ChangeNotifier
	now      func() time.Time
}

func New(store eventStore, notifier ChangeNotifier) *App {
	return &App{storage: store, notifier: notifier, now: time.Now}
}

// EventPatch carries the fields an update may touch; nil means
// unchanged. The creator and the creator zone are immutable.
type EventPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	Visibility  []storage.Role
}

func validateEvent(e storage.Event) error {
	if !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("event end time should be after start time: %w", storage.ErrIncorrectEventTime)
	}
	if len(e.Visibility) == 0 {
		return storage.ErrEmptyVisibility
	}
	for _, r := range e.Visibility {
		if _, err := storage.ParseVisibilityRole(string(r)); err != nil {
			return fmt.Errorf("visibility role %q: %w", r, err)
		}
	}
	if !timezone.IsSupported(e.CreatorTimezone) {
		return fmt.Errorf("timezone %q: %w", e.CreatorTimezone, storage.ErrUnknownTimezone)
	}
	return nil
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (storage.Event, error) {
	if err := validateEvent(e); err != nil {
		return storage.Event{}, err
	}
	e.IsActive = true
	if err := a.storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}

	a.appendChange(ctx, storage.ChangeLogEntry{
		EventID: e.ID,
		Type:    storage.ChangeCreated,
		At:      a.now().UTC(),
	})
	if a.notifier != nil {
		a.notifier.EventCreated(ctx, e)
	}
	return e, nil
}

func (a *App) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	return a.storage.GetEvent(ctx, id)
}

// UpdateEvent applies a partial patch. It reports false when the event
// does not exist or when the patch changes nothing.
func (a *App) UpdateEvent(ctx context.Context, id string, patch EventPatch) (bool, error) {
	old, err := a.storage.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFoundEvent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	updated := applyPatch(old, patch)
	if err := validateEvent(updated); err != nil {
		return false, err
	}

	diff := buildDiff(old, updated)
	if len(diff) == 0 {
		return false, nil
	}

	if err := a.storage.UpdateEvent(ctx, id, updated); err != nil {
		return false, err
	}
	a.appendChange(ctx, storage.ChangeLogEntry{
		EventID: id,
		Type:    storage.ChangeUpdated,
		Changes: diff,
		At:      a.now().UTC(),
	})

	// Visibility changes are not announced; everything else is.
	if notifyDiff := diff.WithoutField(storage.FieldVisibility); a.notifier != nil && len(notifyDiff) > 0 {
		a.notifier.EventUpdated(ctx, updated, notifyDiff)
	}
	return true, nil
}

// RemoveEvent deletes the event, keeping a full snapshot in the change
// log so the cancellation notice can still be formatted.
func (a *App) RemoveEvent(ctx context.Context, id string) (bool, error) {
	snapshot, err := a.storage.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFoundEvent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := a.storage.RemoveEvent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFoundEvent) {
			return false, nil
		}
		return false, err
	}
	a.appendChange(ctx, storage.ChangeLogEntry{
		EventID:  id,
		Type:     storage.ChangeDeleted,
		Snapshot: &snapshot,
		At:       a.now().UTC(),
	})
	if a.notifier != nil {
		a.notifier.EventCancelled(ctx, snapshot)
	}
	return true, nil
}

// EventView is an event with its times converted to a viewer's zone.
type EventView struct {
	storage.Event
	LocalStart time.Time `json:"localStart"`
	LocalEnd   time.Time `json:"localEnd"`
}

// ListForRole returns active events visible to the role, times converted
// to the viewer zone, ascending by start.
func (a *App) ListForRole(ctx context.Context, role storage.Role, viewerZone string) ([]EventView, error) {
	events, err := a.storage.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		if !e.IsActive || !e.VisibleTo(role) {
			continue
		}
		views = append(views, EventView{
			Event:      e,
			LocalStart: timezone.Convert(e.StartTime, e.CreatorTimezone, viewerZone),
			LocalEnd:   timezone.Convert(e.EndTime, e.CreatorTimezone, viewerZone),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartTime.Before(views[j].StartTime) })
	return views, nil
}

// ListAll is the administrative view: every event, ascending by start.
func (a *App) ListAll(ctx context.Context) ([]storage.Event, error) {
	return a.storage.ListEvents(ctx)
}

func (a *App) ChangeHistory(ctx context.Context, eventID string) ([]storage.ChangeLogEntry, error) {
	return a.storage.ListChanges(ctx, eventID)
}

// FormatEventForDisplay renders an event for presentation in the
// viewer's zone.
func (a *App) FormatEventForDisplay(e storage.Event, viewerZone string) string {
	return notify.FormatEvent(e, viewerZone)
}

func (a *App) appendChange(ctx context.Context, entry storage.ChangeLogEntry) {
	if err := a.storage.AppendChange(ctx, entry); err != nil {
		log.Errorf("failed to append %s change log entry for event %q: %v", entry.Type, entry.EventID, err)
	}
}

func applyPatch(e storage.Event, patch EventPatch) storage.Event {
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.StartTime != nil {
		e.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		e.EndTime = *patch.EndTime
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.Visibility != nil {
		e.Visibility = append([]storage.Role(nil), patch.Visibility...)
	}
	return e
}

const diffTimeLayout = "2006-01-02 15:04"

func buildDiff(old, updated storage.Event) storage.Diff {
	var diff storage.Diff
	if old.Title != updated.Title {
		diff = append(diff, storage.FieldChange{Field: storage.FieldTitle, Old: old.Title, New: updated.Title})
	}
	if old.Description != updated.Description {
		diff = append(diff, storage.FieldChange{
			Field: storage.FieldDescription,
			Old:   old.Description,
			New:   updated.Description,
		})
	}
	if !old.StartTime.Equal(updated.StartTime) {
		diff = append(diff, storage.FieldChange{
			Field: storage.FieldStartTime,
			Old:   old.StartTime.Format(diffTimeLayout),
			New:   updated.StartTime.Format(diffTimeLayout),
		})
	}
	if !old.EndTime.Equal(updated.EndTime) {
		diff = append(diff, storage.FieldChange{
			Field: storage.FieldEndTime,
			Old:   old.EndTime.Format(diffTimeLayout),
			New:   updated.EndTime.Format(diffTimeLayout),
		})
	}
	if old.Location != updated.Location {
		diff = append(diff, storage.FieldChange{Field: storage.FieldLocation, Old: old.Location, New: updated.Location})
	}
	if oldV, newV := rolesKey(old.Visibility), rolesKey(updated.Visibility); oldV != newV {
		diff = append(diff, storage.FieldChange{Field: storage.FieldVisibility, Old: oldV, New: newV})
	}
	return diff
}

func rolesKey(roles []storage.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
