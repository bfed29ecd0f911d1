package service

import (
	"fmt"
	"strings"
	"time"
)

// DayFilter: true => в этот бар реальные сделки не открываем.
type DayFilter func(t time.Time) bool

func NoExcludedDays(time.Time) bool { return false }

// ExcludeWeekdays исключает дни недели по времени открытия бара (в его локации).
func ExcludeWeekdays(days ...time.Weekday) DayFilter {
	if len(days) == 0 {
		return NoExcludedDays
	}
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return func(t time.Time) bool {
		_, ok := set[t.Weekday()]
		return ok
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekdays: ["friday", "Sat"] -> фильтр.
func ParseWeekdays(names []string) (DayFilter, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		days = append(days, d)
	}
	return ExcludeWeekdays(days...), nil
}
