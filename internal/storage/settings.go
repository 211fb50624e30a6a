package storage

// Category names a toggleable notification kind. Reminders have no
// per-category switch, only the global enable and the offsets.
type Category string

const (
	CategoryNewEvent       Category = "new_event"
	CategoryEventUpdated   Category = "event_updated"
	CategoryEventCancelled Category = "event_cancelled"
	CategoryReminder       Category = "schedule_reminder"
)

var DefaultReminderOffsets = []int{5, 15, 60}

// NotificationSettings is created lazily on first access and never
// deleted.
type NotificationSettings struct {
	UserID                string `json:"userId" db:"user_id"`
	Enabled               bool   `json:"enabled" db:"enabled"`
	ReminderOffsets       []int  `json:"reminderOffsets"`
	NewEventEnabled       bool   `json:"newEventEnabled" db:"new_event_enabled"`
	EventUpdatedEnabled   bool   `json:"eventUpdatedEnabled" db:"event_updated_enabled"`
	EventCancelledEnabled bool   `json:"eventCancelledEnabled" db:"event_cancelled_enabled"`
}

// DefaultSettings builds the lazy defaults. Organizers author events, so
// their own change categories start off; everyone else starts opted in.
func DefaultSettings(userID string, role Role) NotificationSettings {
	changesOn := role != RoleOrganizer
	return NotificationSettings{
		UserID:                userID,
		Enabled:               true,
		ReminderOffsets:       append([]int(nil), DefaultReminderOffsets...),
		NewEventEnabled:       changesOn,
		EventUpdatedEnabled:   changesOn,
		EventCancelledEnabled: changesOn,
	}
}
