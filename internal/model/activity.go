package model

import "time"

// ActivityType categorises entries in the activity log
type ActivityType string

const (
	ActivityAdminLogin        ActivityType = "admin_login"
	ActivityAdminLogout       ActivityType = "admin_logout"
	ActivityAdminCreated      ActivityType = "admin_created"
	ActivityAdminUpdated      ActivityType = "admin_updated"
	ActivityAdminDeleted      ActivityType = "admin_deleted"
	ActivityRoomCreated       ActivityType = "room_created"
	ActivityRoomUpdated       ActivityType = "room_updated"
	ActivityRoomDeleted       ActivityType = "room_deleted"
	ActivityRoomStatusChanged ActivityType = "room_status_changed"
	ActivitySystem            ActivityType = "system"
)

// Activity is one entry of the append-only activity log
type Activity struct {
	ID         string
	Type       ActivityType
	Message    string
	AdminID    AdminID // Empty for system activity
	RoomNumber string  // Empty when no room is involved
	Metadata   map[string]string
	CreatedAt  time.Time
}
