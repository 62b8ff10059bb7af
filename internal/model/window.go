package model

import "time"

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingWindow returns the window ending today and starting `days` days earlier.
func TrailingWindow(now time.Time, days int) Window {
	end := Day(now)
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// Days returns the length of the window in days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// Contains reports whether the date of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && !d.After(w.End)
}
