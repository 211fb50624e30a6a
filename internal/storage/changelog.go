package storage

import (
	"time"
)

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FieldChange records one changed field with its old and new values
// rendered as strings, ready for notification formatting.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type Diff []FieldChange

// Has reports whether the diff contains the named field.
func (d Diff) Has(field string) bool {
	for _, c := range d {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Get returns the change for the named field.
func (d Diff) Get(field string) (FieldChange, bool) {
	for _, c := range d {
		if c.Field == field {
			return c, true
		}
	}
	return FieldChange{}, false
}

// WithoutField returns a copy of the diff without the named field.
func (d Diff) WithoutField(field string) Diff {
	out := make(Diff, 0, len(d))
	for _, c := range d {
		if c.Field != field {
			out = append(out, c)
		}
	}
	return out
}

// Diff field names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"
	FieldLocation    = "location"
	FieldVisibility  = "visibility"
)

// ChangeLogEntry is append-only; Snapshot is set for deleted entries so
// cancellation notices can be formatted after the event row is gone.
type ChangeLogEntry struct {
	EventID  string     `json:"eventId"`
	Type     ChangeType `json:"type"`
	Changes  Diff       `json:"changes,omitempty"`
	Snapshot *Event     `json:"snapshot,omitempty"`
	At       time.Time  `json:"at"`
}
