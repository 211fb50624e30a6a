package storage

import (
	"time"
)

// Role is a closed set of hackathon roles. RoleAll is the wildcard and is
// valid only inside an event's visibility set, never as a user role.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleMentor      Role = "mentor"
	RoleVolunteer   Role = "volunteer"
	RoleAll         Role = "all"
)

var userRoles = map[Role]struct{}{
	RoleParticipant: {},
	RoleOrganizer:   {},
	RoleMentor:      {},
	RoleVolunteer:   {},
}

// ParseRole rejects unknown role names so a typo cannot silently hide an
// event from its audience.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := userRoles[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// ParseVisibilityRole additionally accepts the "all" wildcard.
func ParseVisibilityRole(s string) (Role, error) {
	if Role(s) == RoleAll {
		return RoleAll, nil
	}
	return ParseRole(s)
}

// Event start and end times are the creator's wall clock carried with the
// UTC location; CreatorTimezone holds the zone they are relative to.
type Event struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	StartTime       time.Time `json:"startTime" db:"start_time"`
	EndTime         time.Time `json:"endTime" db:"end_time"`
	Location        string    `json:"location" db:"location"`
	Visibility      []Role    `json:"visibility"`
	CreatedBy       string    `json:"createdBy" db:"created_by"`
	CreatorTimezone string    `json:"creatorTimezone" db:"creator_timezone"`
	IsActive        bool      `json:"isActive" db:"is_active"`
}

// VisibleTo is the single visibility predicate used by queries and by the
// notification fan-out alike.
func (e Event) VisibleTo(role Role) bool {
	for _, v := range e.Visibility {
		if v == RoleAll || v == role {
			return true
		}
	}
	return false
}

// VisibleToAll reports whether the wildcard is present.
func (e Event) VisibleToAll() bool {
	for _, v := range e.Visibility {
		if v == RoleAll {
			return true
		}
	}
	return false
}
