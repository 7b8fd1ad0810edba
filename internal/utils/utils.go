package utils

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var timeRx = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

func Must(e error) {
	if e != nil {
		log.Fatal(e)
	}
}

// IsClock reports whether s looks like "H:MM" or "HH:MM" within 00:00..23:59.
func IsClock(s string) bool {
	_, _, ok := ParseClock(s)
	return ok
}

// ParseClock splits "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if !timeRx.MatchString(s) {
		return 0, 0, false
	}
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// AtClock builds the timestamp of hour:minute on day's calendar date, in day's location.
func AtClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// ParseScheduleInput turns free text like "08:00, 8:30,bad" into the valid entries, in order.
func ParseScheduleInput(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if timeRx.MatchString(part) {
			out = append(out, part)
		}
	}
	return out
}

// ParseDate reads a calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
