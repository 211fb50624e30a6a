package storage

// User mirrors the external user service just enough for notification
// fan-out: who is active, which role filters their events and which zone
// their times are rendered in.
type User struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Role     Role   `json:"role" db:"role"`
	Timezone string `json:"timezone" db:"timezone"`
	Active   bool   `json:"active" db:"active"`
}
