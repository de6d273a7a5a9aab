package request

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateAdminRequest is the request body for creating an admin
type CreateAdminRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	FingerprintID int    `json:"fingerprint_id"`
	IsSuperAdmin  bool   `json:"is_super_admin,omitempty"`
}

// UpdateAdminRequest is the request body for a partial admin update.
// Passwords cannot be changed here.
type UpdateAdminRequest struct {
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	FingerprintID *int    `json:"fingerprint_id,omitempty"`
	IsSuperAdmin  *bool   `json:"is_super_admin,omitempty"`
}

// Booking is one weekly slot, e.g. {"day":"Monday","duration":"9:00-10:00"}
type Booking struct {
	Day      string `json:"day"`
	Duration string `json:"duration"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	RoomNumber       string    `json:"room_number"`
	Status           string    `json:"status,omitempty"`
	AuthorizedAdmins []string  `json:"authorized_admins,omitempty"`
	Bookings         []Booking `json:"bookings,omitempty"`
}

// UpdateRoomRequest is the request body for a partial room update
type UpdateRoomRequest struct {
	Status           *string    `json:"status,omitempty"`
	AuthorizedAdmins *[]string  `json:"authorized_admins,omitempty"`
	Bookings         *[]Booking `json:"bookings,omitempty"`
}

// RoomStatusUpdateRequest is the body a room unit posts after an authorized selection
type RoomStatusUpdateRequest struct {
	RoomNumber    string `json:"room_number"`
	Status        string `json:"status"`
	FingerprintID int    `json:"fingerprint_id"`
}
