package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	admins           map[model.AdminID]*model.Admin
	fingerprintIndex map[model.Identity]model.AdminID
	emailIndex       map[string]model.AdminID
	credentials      map[model.AdminID]*model.AdminCredentials
	usernameIndex    map[string]model.AdminID
	rooms            map[string]*model.Room
	activity         []*model.Activity // Oldest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		admins:           make(map[model.AdminID]*model.Admin),
		fingerprintIndex: make(map[model.Identity]model.AdminID),
		emailIndex:       make(map[string]model.AdminID),
		credentials:      make(map[model.AdminID]*model.AdminCredentials),
		usernameIndex:    make(map[string]model.AdminID),
		rooms:            make(map[string]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Admin operations

func (s *Storage) SaveAdmin(ctx context.Context, admin *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.admins[admin.ID]; ok {
		delete(s.fingerprintIndex, prev.FingerprintID)
		delete(s.emailIndex, strings.ToLower(prev.Email))
	}
	stored := *admin
	s.admins[admin.ID] = &stored
	s.fingerprintIndex[admin.FingerprintID] = admin.ID
	s.emailIndex[strings.ToLower(admin.Email)] = admin.ID
	return nil
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[id]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	out := *admin
	return &out, nil
}

func (s *Storage) GetAdminByFingerprint(ctx context.Context, fingerprintID model.Identity) (*model.Admin, error) {
	s.mu.RLock()
	id, ok := s.fingerprintIndex[fingerprintID]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	return s.GetAdmin(ctx, id)
}

func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	return s.GetAdmin(ctx, id)
}

func (s *Storage) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admins := make([]*model.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		out := *admin
		admins = append(admins, &out)
	}
	sortAdmins(admins)
	return admins, nil
}

func (s *Storage) DeleteAdmin(ctx context.Context, id model.AdminID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	admin, ok := s.admins[id]
	if !ok {
		return model.ErrAdminNotFound
	}
	delete(s.fingerprintIndex, admin.FingerprintID)
	delete(s.emailIndex, strings.ToLower(admin.Email))
	delete(s.admins, id)
	return nil
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.AdminCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.credentials[creds.AdminID]; ok {
		delete(s.usernameIndex, prev.Username)
	}
	stored := *creds
	s.credentials[creds.AdminID] = &stored
	s.usernameIndex[creds.Username] = creds.AdminID
	return nil
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.AdminCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	creds, ok := s.credentials[id]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	out := *creds
	return &out, nil
}

func (s *Storage) DeleteCredentials(ctx context.Context, id model.AdminID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds, ok := s.credentials[id]; ok {
		delete(s.usernameIndex, creds.Username)
		delete(s.credentials, id)
	}
	return nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Number] = copyRoom(room)
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, number string) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[number]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, copyRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[number]; !ok {
		return model.ErrRoomNotFound
	}
	delete(s.rooms, number)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[number]
	return ok, nil
}

// Activity operations

func (s *Storage) AppendActivity(ctx context.Context, activity *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *activity
	s.activity = append(s.activity, &stored)
	return nil
}

func (s *Storage) ListActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.activity) {
		limit = len(s.activity)
	}
	out := make([]*model.Activity, 0, limit)
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		entry := *s.activity[i]
		out = append(out, &entry)
	}
	return out, nil
}

func copyRoom(room *model.Room) *model.Room {
	out := *room
	out.AuthorizedAdmins = append([]model.AdminID(nil), room.AuthorizedAdmins...)
	out.Bookings = append([]model.Booking(nil), room.Bookings...)
	return &out
}

func sortAdmins(admins []*model.Admin) {
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].CreatedAt.Equal(admins[j].CreatedAt) {
			return admins[i].Username < admins[j].Username
		}
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
}
