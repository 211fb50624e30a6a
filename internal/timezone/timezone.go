package timezone

import (
	"fmt"
	"sort"
	"time"
)

// DefaultZone is used by Convert when it meets a zone name that is not in
// the table. Writes are validated against IsSupported before they reach
// storage, so this only matters for data that predates validation.
const DefaultZone = "UTC"

const (
	minOffset = -12
	maxOffset = 14
)

var offsets = buildOffsets()

func buildOffsets() map[string]int {
	m := make(map[string]int, maxOffset-minOffset+2)
	for o := minOffset; o <= maxOffset; o++ {
		m[Name(o)] = o
	}
	m["UTC"] = 0
	return m
}

// Name returns the canonical zone name for a fixed offset, e.g. "UTC+3".
func Name(offset int) string {
	return fmt.Sprintf("UTC%+d", offset)
}

// Offset reports the fixed UTC offset in hours for a zone name.
func Offset(zone string) (int, bool) {
	o, ok := offsets[zone]
	return o, ok
}

func IsSupported(zone string) bool {
	_, ok := offsets[zone]
	return ok
}

// Zones returns all supported zone names sorted by offset.
func Zones() []string {
	zones := make([]string, 0, len(offsets))
	for z := range offsets {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool {
		if offsets[zones[i]] == offsets[zones[j]] {
			return zones[i] < zones[j]
		}
		return offsets[zones[i]] < offsets[zones[j]]
	})
	return zones
}

// Convert shifts a wall-clock instant from one fixed-offset zone to
// another. Unknown zones fall back to the default offset 0.
func Convert(t time.Time, fromZone string, toZone string) time.Time {
	from := offsets[fromZone]
	to := offsets[toZone]
	return t.Add(time.Duration(to-from) * time.Hour)
}

// ToUTC converts a creator wall-clock instant to UTC wall clock.
func ToUTC(t time.Time, fromZone string) time.Time {
	return Convert(t, fromZone, DefaultZone)
}
