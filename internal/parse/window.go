package parse

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Window builds a UTC [start, end) window from a wire-format date, start
// and end time of day, and an IANA timezone name. The date and times are
// interpreted in the given timezone and converted to UTC.
func Window(date, startTime, endTime, tz string) (time.Time, time.Time, error) {
	loc, err := Location(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	start, err := atTimeOfDay(day, startTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atTimeOfDay(day, endTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end time %q must be after start time %q", endTime, startTime)
	}
	return start.UTC(), end.UTC(), nil
}

// Location resolves an IANA timezone name, defaulting to UTC when empty.
func Location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", tz)
	}
	return loc, nil
}

func atTimeOfDay(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
