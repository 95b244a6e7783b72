package astro

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const noonHour = 12

var birthTimePattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(am|pm)?$`)

// ParseBirthTime reads "H:MM" with an optional am/pm suffix.
// Empty or unparsable input yields noon.
func ParseBirthTime(s string) (hour, minute int) {
	m := birthTimePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return noonHour, 0
	}

	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if mins > 59 {
		return noonHour, 0
	}

	switch strings.ToLower(m[3]) {
	case "":
		if h > 23 {
			return noonHour, 0
		}
	case "am":
		if h < 1 || h > 12 {
			return noonHour, 0
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return noonHour, 0
		}
		if h < 12 {
			h += 12
		}
	}

	return h, mins
}

// BirthInstant combines a calendar date with a birth time as a zoneless wall-clock
// instant. The time is taken as already local to the birth place; UTC is only the
// carrier, no conversion is applied.
func BirthInstant(date time.Time, birthTime string) time.Time {
	h, m := ParseBirthTime(birthTime)
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC)
}
