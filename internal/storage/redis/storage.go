package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Admin operations

func (s *Storage) SaveAdmin(ctx context.Context, admin *model.Admin) error {
	data, err := json.Marshal(admin)
	if err != nil {
		return err
	}

	prev, err := s.GetAdmin(ctx, admin.ID)
	if err != nil && !errors.Is(err, model.ErrAdminNotFound) {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	if prev != nil {
		pipe.Del(ctx, fingerprintIndexKey(prev.FingerprintID), emailIndexKey(prev.Email))
	}
	pipe.Set(ctx, adminKey(admin.ID), data, 0)
	pipe.SAdd(ctx, adminsIndexKey(), string(admin.ID))
	pipe.Set(ctx, fingerprintIndexKey(admin.FingerprintID), string(admin.ID), 0)
	pipe.Set(ctx, emailIndexKey(admin.Email), string(admin.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	data, err := s.client.Get(ctx, adminKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}

	var admin model.Admin
	if err := json.Unmarshal(data, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *Storage) GetAdminByFingerprint(ctx context.Context, fingerprintID model.Identity) (*model.Admin, error) {
	return s.getAdminByIndex(ctx, fingerprintIndexKey(fingerprintID))
}

func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.getAdminByIndex(ctx, emailIndexKey(email))
}

func (s *Storage) getAdminByIndex(ctx context.Context, key string) (*model.Admin, error) {
	id, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}
	return s.GetAdmin(ctx, model.AdminID(id))
}

func (s *Storage) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	ids, err := s.client.SMembers(ctx, adminsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = adminKey(model.AdminID(id))
	}

	admins := make([]*model.Admin, 0, len(ids))
	err = s.loadAll(ctx, keys, func(data []byte) error {
		var admin model.Admin
		if err := json.Unmarshal(data, &admin); err != nil {
			return err
		}
		admins = append(admins, &admin)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(admins, func(i, j int) bool {
		if admins[i].CreatedAt.Equal(admins[j].CreatedAt) {
			return admins[i].Username < admins[j].Username
		}
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins, nil
}

func (s *Storage) DeleteAdmin(ctx context.Context, id model.AdminID) error {
	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, adminKey(id), fingerprintIndexKey(admin.FingerprintID), emailIndexKey(admin.Email))
	pipe.SRem(ctx, adminsIndexKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.AdminCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	prev, err := s.getCredentials(ctx, creds.AdminID)
	if err != nil && !errors.Is(err, model.ErrAdminNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	if prev != nil && prev.Username != creds.Username {
		pipe.Del(ctx, usernameIndexKey(prev.Username))
	}
	pipe.Set(ctx, credentialsKey(creds.AdminID), data, 0)
	pipe.Set(ctx, usernameIndexKey(creds.Username), string(creds.AdminID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.AdminCredentials, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}
	return s.getCredentials(ctx, model.AdminID(id))
}

func (s *Storage) getCredentials(ctx context.Context, id model.AdminID) (*model.AdminCredentials, error) {
	data, err := s.client.Get(ctx, credentialsKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}

	var creds model.AdminCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *Storage) DeleteCredentials(ctx context.Context, id model.AdminID) error {
	creds, err := s.getCredentials(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil
		}
		return err
	}
	return s.client.Del(ctx, credentialsKey(id), usernameIndexKey(creds.Username)).Err()
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.Number), data, 0)
	pipe.SAdd(ctx, roomsIndexKey(), room.Number)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, number string) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(number)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	numbers, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(numbers)

	keys := make([]string, len(numbers))
	for i, n := range numbers {
		keys[i] = roomKey(n)
	}

	rooms := make([]*model.Room, 0, len(numbers))
	err = s.loadAll(ctx, keys, func(data []byte) error {
		var room model.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		rooms = append(rooms, &room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, number string) error {
	removed, err := s.client.SRem(ctx, roomsIndexKey(), number).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return model.ErrRoomNotFound
	}
	return s.client.Del(ctx, roomKey(number)).Err()
}

func (s *Storage) RoomExists(ctx context.Context, number string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(number)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Activity operations

func (s *Storage) AppendActivity(ctx context.Context, activity *model.Activity) error {
	data, err := json.Marshal(activity)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, activityKey(), data)
	if s.cfg.ActivityRetention > 0 {
		pipe.LTrim(ctx, activityKey(), 0, s.cfg.ActivityRetention-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	entries, err := s.client.LRange(ctx, activityKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	activity := make([]*model.Activity, 0, len(entries))
	for _, entry := range entries {
		var a model.Activity
		if err := json.Unmarshal([]byte(entry), &a); err != nil {
			return nil, err
		}
		activity = append(activity, &a)
	}
	return activity, nil
}

// loadAll fetches keys in one pipeline, skipping keys that vanished meanwhile
func (s *Storage) loadAll(ctx context.Context, keys []string, decode func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return err
		}
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}
