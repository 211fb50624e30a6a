package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackmate/hackathon-helper/internal/storage"
	"github.com/hackmate/hackathon-helper/internal/timezone"
)

const (
	timeLayout     = "02.01 15:04"
	onlyTimeLayout = "15:04"

	descriptionLimit = 120
)

var roleIcons = map[storage.Role]string{
	storage.RoleParticipant: "👤",
	storage.RoleOrganizer:   "🛠",
	storage.RoleMentor:      "🎓",
	storage.RoleVolunteer:   "🤝",
}

// FormatEvent renders an event for a viewer: title, local time range,
// optional location and description, and a visibility summary.
func FormatEvent(e storage.Event, viewerZone string) string {
	var b strings.Builder
	b.WriteString(e.Title)
	b.WriteString("\n")
	b.WriteString(FormatEventRange(e, viewerZone))
	if e.Location != "" {
		b.WriteString("\n📍 " + e.Location)
	}
	if e.Description != "" {
		b.WriteString("\n" + e.Description)
	}
	b.WriteString("\n" + FormatVisibility(e))
	return b.String()
}

// FormatEventRange renders "DD.MM HH:MM–HH:MM" in the viewer's zone.
func FormatEventRange(e storage.Event, viewerZone string) string {
	start := timezone.Convert(e.StartTime, e.CreatorTimezone, viewerZone)
	end := timezone.Convert(e.EndTime, e.CreatorTimezone, viewerZone)
	endLayout := onlyTimeLayout
	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		endLayout = timeLayout
	}
	return fmt.Sprintf("%s–%s", start.Format(timeLayout), end.Format(endLayout))
}

func FormatVisibility(e storage.Event) string {
	if e.VisibleToAll() {
		return "for all"
	}
	icons := make([]string, 0, len(e.Visibility))
	for _, r := range e.Visibility {
		if icon, ok := roleIcons[r]; ok {
			icons = append(icons, icon)
		}
	}
	return "for " + strings.Join(icons, " ")
}

// FormatReminder builds the reminder body for one configured offset.
func FormatReminder(e storage.Event, offsetMinutes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "in %d min: %s", offsetMinutes, e.Title)
	if e.Location != "" {
		b.WriteString(", " + e.Location)
	}
	if e.Description != "" {
		b.WriteString("\n" + truncate(e.Description, descriptionLimit))
	}
	return b.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// updateFragments renders one human-readable line per changed field. The
// diff never contains visibility here; duration is reported only when
// the end moved while the start stayed put.
func updateFragments(e storage.Event, diff storage.Diff, viewerZone string) []string {
	fragments := make([]string, 0, len(diff))
	if c, ok := diff.Get(storage.FieldTitle); ok {
		fragments = append(fragments, "new title: "+c.New)
	}
	if diff.Has(storage.FieldStartTime) {
		start := timezone.Convert(e.StartTime, e.CreatorTimezone, viewerZone)
		fragments = append(fragments, "new start time: "+start.Format(timeLayout))
	}
	if c, ok := diff.Get(storage.FieldLocation); ok {
		fragments = append(fragments, "new location: "+c.New)
	}
	if c, ok := diff.Get(storage.FieldDescription); ok {
		fragments = append(fragments, "new description: "+truncate(c.New, descriptionLimit))
	}
	if diff.Has(storage.FieldEndTime) && !diff.Has(storage.FieldStartTime) {
		fragments = append(fragments, "new duration: "+formatDuration(e.EndTime.Sub(e.StartTime)))
	}
	return fragments
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, m)
	}
}
