package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"code":    ErrorCode(err),
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Admin:
		o.printAdmin(v)
	case []Admin:
		o.printAdmins(v)
	case AuthResult:
		o.printAuthResult(v)
	case Room:
		o.printRoom(v)
	case []Room:
		o.printRooms(v)
	case StatusUpdate:
		o.printStatusUpdate(v)
	case Occupancy:
		o.printOccupancy(v)
	case []DayOccupancy:
		o.printDays(v)
	case []Activity:
		o.printActivities(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Admin response type (matches API)
type Admin struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FingerprintID int       `json:"fingerprint_id"`
	IsSuperAdmin  bool      `json:"is_super_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuthResult combines admin and token
type AuthResult struct {
	Admin        Admin     `json:"admin"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Room response type
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

// StatusUpdate is the response to a device status report
type StatusUpdate struct {
	Room      Room   `json:"room"`
	UpdatedBy string `json:"updated_by"`
}

// Occupancy response type
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

// Activity response type
type Activity struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Message    string            `json:"message"`
	AdminID    string            `json:"admin_id,omitempty"`
	RoomNumber string            `json:"room_number,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printAdmin(a Admin) {
	role := "admin"
	if a.IsSuperAdmin {
		role = "super admin"
	}
	fmt.Fprintf(o.w, "Admin: %s (%s)\n", a.Username, a.ID)
	fmt.Fprintf(o.w, "Email: %s\n", a.Email)
	fmt.Fprintf(o.w, "Fingerprint ID: %d\n", a.FingerprintID)
	fmt.Fprintf(o.w, "Role: %s\n", role)
}

func (o *Output) printAdmins(admins []Admin) {
	if len(admins) == 0 {
		fmt.Fprintln(o.w, "No admins")
		return
	}
	for _, a := range admins {
		marker := ""
		if a.IsSuperAdmin {
			marker = " *"
		}
		fmt.Fprintf(o.w, "%-24s %-16s fp=%-5d %s%s\n", a.ID, a.Username, a.FingerprintID, a.Email, marker)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAdmin(a.Admin)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomNumber)
	fmt.Fprintf(o.w, "Status: %s\n", r.Status)
	if r.StatusChangedBy != "" {
		fmt.Fprintf(o.w, "Changed: %s by %s\n", r.StatusChangedAt.Format(time.RFC3339), r.StatusChangedBy)
	} else {
		fmt.Fprintf(o.w, "Changed: %s\n", r.StatusChangedAt.Format(time.RFC3339))
	}
	if len(r.AuthorizedAdmins) == 0 {
		fmt.Fprintln(o.w, "Authorized: none")
	} else {
		fmt.Fprintf(o.w, "Authorized: %s\n", strings.Join(r.AuthorizedAdmins, ", "))
	}
	if len(r.Bookings) == 0 {
		fmt.Fprintln(o.w, "Bookings: none")
		return
	}
	fmt.Fprintln(o.w, "Bookings:")
	for _, b := range r.Bookings {
		fmt.Fprintf(o.w, "  %-9s %s\n", b.Day, b.Duration)
	}
}

func (o *Output) printRooms(rooms []Room) {
	if len(rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range rooms {
		fmt.Fprintf(o.w, "%-8s %-9s %d authorized, %d bookings\n", r.RoomNumber, r.Status, len(r.AuthorizedAdmins), len(r.Bookings))
	}
}

func (o *Output) printStatusUpdate(u StatusUpdate) {
	fmt.Fprintf(o.w, "Room %s is now %s (by %s)\n", u.Room.RoomNumber, u.Room.Status, u.UpdatedBy)
}

func (o *Output) printOccupancy(occ Occupancy) {
	fmt.Fprintf(o.w, "Total: %d\n", occ.Total)
	fmt.Fprintf(o.w, "Vacant: %d\n", occ.Vacant)
	fmt.Fprintf(o.w, "Occupied: %d\n", occ.Occupied)
	if len(occ.ByDay) > 0 {
		fmt.Fprintln(o.w)
		o.printDays(occ.ByDay)
	}
}

func (o *Output) printDays(days []DayOccupancy) {
	fmt.Fprintf(o.w, "%-9s %5s %6s %8s\n", "Day", "Total", "Vacant", "Occupied")
	for _, d := range days {
		fmt.Fprintf(o.w, "%-9s %5d %6d %8d\n", d.Day, d.Total, d.Vacant, d.Occupied)
	}
}

func (o *Output) printActivities(entries []Activity) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No activity")
		return
	}
	for _, a := range entries {
		fmt.Fprintf(o.w, "[%s] %-20s %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"), a.Type, a.Message)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}
