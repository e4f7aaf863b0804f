package lending

import "time"

var weekdayLabels = [7]string{
	time.Sunday:    "Sun",
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
}

// WeekdayLabel returns the reporting group label of t in loc (t's own zone when loc is nil).
func WeekdayLabel(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return weekdayLabels[t.Weekday()]
}
