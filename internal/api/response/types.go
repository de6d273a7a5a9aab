package response

import (
	"time"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
)

// Admin represents an admin in API responses
type Admin struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FingerprintID int       `json:"fingerprint_id"`
	IsSuperAdmin  bool      `json:"is_super_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminFromModel converts a model.Admin to a response Admin
func AdminFromModel(a *model.Admin) Admin {
	return Admin{
		ID:            string(a.ID),
		Username:      a.Username,
		Email:         a.Email,
		FingerprintID: int(a.FingerprintID),
		IsSuperAdmin:  a.IsSuperAdmin,
		CreatedAt:     a.CreatedAt,
	}
}

// AdminsFromModel converts a slice of admins
func AdminsFromModel(admins []*model.Admin) []Admin {
	out := make([]Admin, len(admins))
	for i, a := range admins {
		out[i] = AdminFromModel(a)
	}
	return out
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Admin        Admin     `json:"admin"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Admin:        AdminFromModel(&s.Admin),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Room represents a room in API responses
type Room struct {
	RoomNumber       string    `json:"room_number"`
	Status           string    `json:"status"`
	AuthorizedAdmins []string  `json:"authorized_admins"`
	Bookings         []Booking `json:"bookings"`
	StatusChangedAt  time.Time `json:"status_changed_at"`
	StatusChangedBy  string    `json:"status_changed_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Booking is one weekly slot of a room's schedule
type Booking struct {
	Day      string `json:"day"`
	Duration string `json:"duration"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r *model.Room) Room {
	admins := make([]string, len(r.AuthorizedAdmins))
	for i, id := range r.AuthorizedAdmins {
		admins[i] = string(id)
	}
	bookings := make([]Booking, len(r.Bookings))
	for i, b := range r.Bookings {
		bookings[i] = Booking{Day: string(b.Day), Duration: b.Duration}
	}
	return Room{
		RoomNumber:       r.Number,
		Status:           string(r.Status),
		AuthorizedAdmins: admins,
		Bookings:         bookings,
		StatusChangedAt:  r.StatusChangedAt,
		StatusChangedBy:  string(r.StatusChangedBy),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// RoomsFromModel converts a slice of rooms
func RoomsFromModel(rooms []*model.Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = RoomFromModel(r)
	}
	return out
}

// Occupancy summarises room statuses
type Occupancy struct {
	Total    int            `json:"total"`
	Vacant   int            `json:"vacant"`
	Occupied int            `json:"occupied"`
	ByDay    []DayOccupancy `json:"by_day"`
}

// DayOccupancy counts one day's bookings
type DayOccupancy struct {
	Day      string `json:"day"`
	Total    int    `json:"total"`
	Vacant   int    `json:"vacant"`
	Occupied int    `json:"occupied"`
}

// OccupancyFromModel converts model.OccupancyStats
func OccupancyFromModel(s model.OccupancyStats) Occupancy {
	return Occupancy{
		Total:    s.Total,
		Vacant:   s.Vacant,
		Occupied: s.Occupied,
		ByDay:    DaysFromModel(s.ByDay),
	}
}

// DaysFromModel converts per-day counts
func DaysFromModel(days []model.DayOccupancy) []DayOccupancy {
	out := make([]DayOccupancy, len(days))
	for i, d := range days {
		out[i] = DayOccupancy{
			Day:      string(d.Day),
			Total:    d.Total,
			Vacant:   d.Vacant,
			Occupied: d.Occupied,
		}
	}
	return out
}

// StatusUpdate is the response to an accepted device status update
type StatusUpdate struct {
	Room      Room   `json:"room"`
	UpdatedBy string `json:"updated_by"`
}

// Activity represents an activity log entry
type Activity struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Message    string            `json:"message"`
	AdminID    string            `json:"admin_id,omitempty"`
	RoomNumber string            `json:"room_number,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ActivitiesFromModel converts activity log entries
func ActivitiesFromModel(entries []*model.Activity) []Activity {
	out := make([]Activity, len(entries))
	for i, a := range entries {
		out[i] = Activity{
			ID:         a.ID,
			Type:       string(a.Type),
			Message:    a.Message,
			AdminID:    string(a.AdminID),
			RoomNumber: a.RoomNumber,
			Metadata:   a.Metadata,
			CreatedAt:  a.CreatedAt,
		}
	}
	return out
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
