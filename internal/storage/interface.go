package storage

import (
	"context"

	"github.com/mcoot/veriloc/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Admin operations
	SaveAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error)
	GetAdminByFingerprint(ctx context.Context, fingerprintID model.Identity) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]*model.Admin, error)
	DeleteAdmin(ctx context.Context, id model.AdminID) error

	// Credential operations
	SaveCredentials(ctx context.Context, creds *model.AdminCredentials) error
	GetCredentialsByUsername(ctx context.Context, username string) (*model.AdminCredentials, error)
	DeleteCredentials(ctx context.Context, id model.AdminID) error

	// Room operations; numbers are already normalized
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, number string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	DeleteRoom(ctx context.Context, number string) error
	RoomExists(ctx context.Context, number string) (bool, error)

	// Activity operations
	AppendActivity(ctx context.Context, activity *model.Activity) error
	ListActivity(ctx context.Context, limit int) ([]*model.Activity, error)
}
