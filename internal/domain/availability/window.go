package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime      = errors.New("time must be in 24h HH:MM format")
	ErrInvalidTimeRange = errors.New("start time must be before end time")
)

// State of the picker
type State string

const (
	StateEmpty       State = "empty"
	StateDateChosen  State = "date_chosen"
	StateTimesChosen State = "times_chosen"
)

const dateLayout = "2006-01-02"

// slotMinutes is the discretization step for time-of-day values.
const slotMinutes = 30

// Window holds a single selected date plus an optional start/end time-of-day
// pair. Times are always stored as 24h "HH:MM"; 12h labels are a render-time
// concern only. An invalid start/end pair sets ValidationError and blocks
// apply, but never clears the offending value.
type Window struct {
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Timezone  string `json:"timezone,omitempty"`

	ValidationError string `json:"validation_error,omitempty"`
}

// State reports where the picker is in its Empty -> DateChosen -> TimesChosen
// progression.
func (w *Window) State() State {
	if w.Date == "" {
		return StateEmpty
	}
	if w.StartTime != "" && w.EndTime != "" {
		return StateTimesChosen
	}
	return StateDateChosen
}

// SelectDate sets the date. Previously chosen times persist across date
// changes so the user can re-pick a date without re-entering a time.
func (w *Window) SelectDate(d string) error {
	if _, err := time.Parse(dateLayout, d); err != nil {
		return ErrInvalidDate
	}
	w.Date = d
	w.revalidate()
	return nil
}

// SetStartTime sets the interval start, snapped to the 30-minute grid.
func (w *Window) SetStartTime(t string) error {
	snapped, err := Snap(t)
	if err != nil {
		return err
	}
	w.StartTime = snapped
	w.revalidate()
	return nil
}

// SetEndTime sets the interval end, snapped to the 30-minute grid.
func (w *Window) SetEndTime(t string) error {
	snapped, err := Snap(t)
	if err != nil {
		return err
	}
	w.EndTime = snapped
	w.revalidate()
	return nil
}

// Clear resets the picker to Empty.
func (w *Window) Clear() {
	w.Date = ""
	w.StartTime = ""
	w.EndTime = ""
	w.ValidationError = ""
}

// Validate returns the pairwise time-range error, if any. Apply must be
// blocked while this returns non-nil.
func (w *Window) Validate() error {
	if w.StartTime == "" || w.EndTime == "" {
		return nil
	}
	start, err := minutesOfDay(w.StartTime)
	if err != nil {
		return err
	}
	end, err := minutesOfDay(w.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return ErrInvalidTimeRange
	}
	return nil
}

func (w *Window) revalidate() {
	if err := w.Validate(); err != nil {
		w.ValidationError = err.Error()
		return
	}
	w.ValidationError = ""
}

// IsZero reports whether nothing has been selected.
func (w *Window) IsZero() bool {
	return w.Date == "" && w.StartTime == "" && w.EndTime == ""
}

// DayOfWeek returns the lowercase weekday name of the selected date, or ""
// when no date is chosen.
func (w *Window) DayOfWeek() string {
	if w.Date == "" {
		return ""
	}
	d, err := time.Parse(dateLayout, w.Date)
	if err != nil {
		return ""
	}
	return strings.ToLower(d.Weekday().String())
}

// Snap validates a 24h "HH:MM" value and floors it onto the 30-minute grid.
func Snap(t string) (string, error) {
	total, err := minutesOfDay(t)
	if err != nil {
		return "", err
	}
	total -= total % slotMinutes
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// Label12h converts a stored 24h "HH:MM" value into its 12h display label.
// Invalid input is returned unchanged; display must never fail.
func Label12h(t string) string {
	total, err := minutesOfDay(t)
	if err != nil {
		return t
	}

	hour := total / 60
	minute := total % 60

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}

	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

func minutesOfDay(t string) (int, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidTime
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidTime
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidTime
	}
	return hour*60 + minute, nil
}
