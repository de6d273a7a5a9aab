package model

import (
	"strings"
	"time"
)

// Room is a physical room whose occupancy is reported by a room unit
type Room struct {
	Number           string // Normalized with NormalizeRoomNumber
	Status           StatusLabel
	AuthorizedAdmins []AdminID
	Bookings         []Booking // Weekly schedule; no two overlap on the same day
	StatusChangedAt  time.Time
	StatusChangedBy  AdminID // Empty until a device reports
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeRoomNumber trims and upper-cases a room number
func NormalizeRoomNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// IsAdminAuthorized returns true if the admin may change this room's status
func (r *Room) IsAdminAuthorized(id AdminID) bool {
	for _, a := range r.AuthorizedAdmins {
		if a == id {
			return true
		}
	}
	return false
}

// IsBookedOn reports whether the room has any booking on day
func (r *Room) IsBookedOn(day Day) bool {
	for _, b := range r.Bookings {
		if b.Day == day {
			return true
		}
	}
	return false
}

// OccupancyStats counts rooms by status
type OccupancyStats struct {
	Total    int
	Vacant   int
	Occupied int
	// ByDay counts bookings per day, in week order, skipping unbooked days
	ByDay []DayOccupancy
}

// DayOccupancy counts one day's bookings by the status of their room
type DayOccupancy struct {
	Day      Day
	Total    int
	Vacant   int
	Occupied int
}

// RoomStatusEvent describes an accepted status change
type RoomStatusEvent struct {
	RoomNumber    string
	OldStatus     StatusLabel
	NewStatus     StatusLabel
	AdminID       AdminID
	AdminUsername string
	FingerprintID Identity
	Timestamp     time.Time
}
