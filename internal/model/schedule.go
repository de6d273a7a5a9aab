package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Day is a day of the week a room can be booked on
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Week lists the days in calendar order, Monday first
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay accepts a day name in any case, surrounding space ignored
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	for _, d := range Week {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: day must be one of Monday..Sunday, got %q", ErrValidation, s)
}

// Index returns the position of d in Week, or -1
func (d Day) Index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

var durationPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})-(\d{1,2}):(\d{2})$`)

// TimeSlot is a half-open interval in minutes since midnight
type TimeSlot struct {
	Start int
	End   int
}

// ParseTimeSlot parses "H:MM-H:MM". An end at or before the start is read as
// twelve hours later, so "12:30-1:30" is 12:30 to 13:30.
func ParseTimeSlot(s string) (TimeSlot, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeSlot{}, fmt.Errorf("%w: duration must be in format HH:MM-HH:MM, got %q", ErrValidation, s)
	}

	start, err := clockMinutes(m[1], m[2])
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := clockMinutes(m[3], m[4])
	if err != nil {
		return TimeSlot{}, err
	}
	for end <= start {
		end += 12 * 60
	}
	return TimeSlot{Start: start, End: end}, nil
}

func clockMinutes(hours, minutes string) (int, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: invalid time %s:%s", ErrValidation, hours, minutes)
	}
	return h*60 + m, nil
}

// Overlaps reports whether the two slots share any minute
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	return t.Start < other.End && other.Start < t.End
}

// Booking is a weekly slot during which a room is scheduled
type Booking struct {
	Day      Day
	Duration string // "H:MM-H:MM" as entered
}

// NewBooking validates and normalizes a day and duration
func NewBooking(day, duration string) (Booking, error) {
	d, err := ParseDay(day)
	if err != nil {
		return Booking{}, err
	}
	duration = strings.TrimSpace(duration)
	if _, err := ParseTimeSlot(duration); err != nil {
		return Booking{}, err
	}
	return Booking{Day: d, Duration: duration}, nil
}

// Slot parses the booking's duration
func (b Booking) Slot() (TimeSlot, error) {
	return ParseTimeSlot(b.Duration)
}

func (b Booking) String() string {
	return string(b.Day) + " " + b.Duration
}

// ParseBooking parses the "Day H:MM-H:MM" form used on the command line
func ParseBooking(s string) (Booking, error) {
	day, duration, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Booking{}, fmt.Errorf("%w: booking must look like \"Monday 9:00-10:00\", got %q", ErrValidation, s)
	}
	return NewBooking(day, duration)
}

// TimeSlotConflictError reports a booking that overlaps one already on the room
type TimeSlotConflictError struct {
	Room      string
	Requested Booking
	Existing  Booking
}

func (e *TimeSlotConflictError) Error() string {
	return fmt.Sprintf("time slot conflict: room %s on %s already has a booking during %s that overlaps with %s",
		e.Room, e.Existing.Day, e.Existing.Duration, e.Requested.Duration)
}

// Is makes errors.Is(err, ErrTimeSlotConflict) succeed
func (e *TimeSlotConflictError) Is(target error) bool {
	return target == ErrTimeSlotConflict
}

// CheckSchedule returns the first pair of bookings on the same day whose
// slots overlap, as a *TimeSlotConflictError
func CheckSchedule(room string, bookings []Booking) error {
	slots := make([]TimeSlot, len(bookings))
	for i, b := range bookings {
		slot, err := b.Slot()
		if err != nil {
			return err
		}
		slots[i] = slot
	}
	for i := range bookings {
		for j := 0; j < i; j++ {
			if bookings[i].Day == bookings[j].Day && slots[i].Overlaps(slots[j]) {
				return &TimeSlotConflictError{Room: room, Requested: bookings[i], Existing: bookings[j]}
			}
		}
	}
	return nil
}
