// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/storage"
)

// Suite runs the storage contract against the backend returned by Open
type Suite struct {
	suite.Suite
	Open func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	now     time.Time
}

func (s *Suite) SetupTest() {
	s.Storage = s.Open()
	s.Ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) admin(id model.AdminID, username string, fp model.Identity) *model.Admin {
	return &model.Admin{
		ID:            id,
		Username:      username,
		Email:         username + "@example.com",
		FingerprintID: fp,
		CreatedAt:     s.now,
		UpdatedAt:     s.now,
	}
}

// Admin tests

func (s *Suite) TestSaveAndGetAdmin() {
	admin := s.admin("a-1", "alice", 1500)
	admin.IsSuperAdmin = true
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, admin))

	got, err := s.Storage.GetAdmin(s.Ctx, "a-1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal(model.Identity(1500), got.FingerprintID)
	s.True(got.IsSuperAdmin)
	s.True(admin.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetAdminNotFound() {
	_, err := s.Storage.GetAdmin(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrAdminNotFound)
}

func (s *Suite) TestGetAdminByFingerprint() {
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, s.admin("a-1", "alice", 1500)))

	got, err := s.Storage.GetAdminByFingerprint(s.Ctx, 1500)
	s.Require().NoError(err)
	s.Equal(model.AdminID("a-1"), got.ID)

	_, err = s.Storage.GetAdminByFingerprint(s.Ctx, 1501)
	s.ErrorIs(err, model.ErrAdminNotFound)
}

func (s *Suite) TestGetAdminByEmailIgnoresCase() {
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, s.admin("a-1", "alice", 1500)))

	got, err := s.Storage.GetAdminByEmail(s.Ctx, "ALICE@example.com")
	s.Require().NoError(err)
	s.Equal(model.AdminID("a-1"), got.ID)
}

func (s *Suite) TestSaveAdminMovesIndexes() {
	admin := s.admin("a-1", "alice", 1500)
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, admin))

	admin.FingerprintID = 1600
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, admin))

	_, err := s.Storage.GetAdminByFingerprint(s.Ctx, 1500)
	s.ErrorIs(err, model.ErrAdminNotFound)
	got, err := s.Storage.GetAdminByFingerprint(s.Ctx, 1600)
	s.Require().NoError(err)
	s.Equal(model.AdminID("a-1"), got.ID)
}

func (s *Suite) TestListAdminsInCreationOrder() {
	second := s.admin("a-2", "bob", 1501)
	second.CreatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, second))
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, s.admin("a-1", "alice", 1500)))

	admins, err := s.Storage.ListAdmins(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(admins, 2)
	s.Equal(model.AdminID("a-1"), admins[0].ID)
	s.Equal(model.AdminID("a-2"), admins[1].ID)
}

func (s *Suite) TestDeleteAdminClearsIndexes() {
	s.Require().NoError(s.Storage.SaveAdmin(s.Ctx, s.admin("a-1", "alice", 1500)))

	s.Require().NoError(s.Storage.DeleteAdmin(s.Ctx, "a-1"))

	_, err := s.Storage.GetAdmin(s.Ctx, "a-1")
	s.ErrorIs(err, model.ErrAdminNotFound)
	_, err = s.Storage.GetAdminByFingerprint(s.Ctx, 1500)
	s.ErrorIs(err, model.ErrAdminNotFound)
	_, err = s.Storage.GetAdminByEmail(s.Ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrAdminNotFound)
	s.ErrorIs(s.Storage.DeleteAdmin(s.Ctx, "a-1"), model.ErrAdminNotFound)
}

// Credential tests

func (s *Suite) TestCredentialsByUsername() {
	creds := &model.AdminCredentials{AdminID: "a-1", Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.Storage.SaveCredentials(s.Ctx, creds))

	got, err := s.Storage.GetCredentialsByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.AdminID("a-1"), got.AdminID)
	s.Equal("hash", got.PasswordHash)

	s.Require().NoError(s.Storage.DeleteCredentials(s.Ctx, "a-1"))
	_, err = s.Storage.GetCredentialsByUsername(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrAdminNotFound)
}

func (s *Suite) TestCredentialsRenameMovesUsernameIndex() {
	s.Require().NoError(s.Storage.SaveCredentials(s.Ctx, &model.AdminCredentials{AdminID: "a-1", Username: "alice", PasswordHash: "hash"}))
	s.Require().NoError(s.Storage.SaveCredentials(s.Ctx, &model.AdminCredentials{AdminID: "a-1", Username: "alicia", PasswordHash: "hash"}))

	_, err := s.Storage.GetCredentialsByUsername(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrAdminNotFound)
	got, err := s.Storage.GetCredentialsByUsername(s.Ctx, "alicia")
	s.Require().NoError(err)
	s.Equal(model.AdminID("a-1"), got.AdminID)
}

// Room tests

func (s *Suite) TestSaveAndGetRoom() {
	room := &model.Room{
		Number:           "101",
		Status:           model.StatusVacant,
		AuthorizedAdmins: []model.AdminID{"a-1"},
		CreatedAt:        s.now,
	}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	got, err := s.Storage.GetRoom(s.Ctx, "101")
	s.Require().NoError(err)
	s.Equal(model.StatusVacant, got.Status)
	s.Equal([]model.AdminID{"a-1"}, got.AuthorizedAdmins)

	exists, err := s.Storage.RoomExists(s.Ctx, "101")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestRoomKeepsBookings() {
	room := &model.Room{
		Number: "101",
		Status: model.StatusVacant,
		Bookings: []model.Booking{
			{Day: model.Monday, Duration: "9:00-10:00"},
			{Day: model.Friday, Duration: "14:00-15:30"},
		},
	}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))
	room.Bookings[0].Duration = "changed"

	got, err := s.Storage.GetRoom(s.Ctx, "101")
	s.Require().NoError(err)
	s.Equal([]model.Booking{
		{Day: model.Monday, Duration: "9:00-10:00"},
		{Day: model.Friday, Duration: "14:00-15:30"},
	}, got.Bookings)
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Storage.GetRoom(s.Ctx, "404")
	s.ErrorIs(err, model.ErrRoomNotFound)

	exists, err := s.Storage.RoomExists(s.Ctx, "404")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestListRoomsSortedByNumber() {
	for _, n := range []string{"B2", "101", "A1"} {
		s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{Number: n, Status: model.StatusVacant}))
	}

	rooms, err := s.Storage.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 3)
	s.Equal("101", rooms[0].Number)
	s.Equal("A1", rooms[1].Number)
	s.Equal("B2", rooms[2].Number)
}

func (s *Suite) TestDeleteRoom() {
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{Number: "101", Status: model.StatusVacant}))

	s.Require().NoError(s.Storage.DeleteRoom(s.Ctx, "101"))

	_, err := s.Storage.GetRoom(s.Ctx, "101")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.ErrorIs(s.Storage.DeleteRoom(s.Ctx, "101"), model.ErrRoomNotFound)
	rooms, err := s.Storage.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

// Activity tests

func (s *Suite) TestListActivityNewestFirst() {
	for i, msg := range []string{"first", "second", "third"} {
		s.Require().NoError(s.Storage.AppendActivity(s.Ctx, &model.Activity{
			ID:        msg,
			Type:      model.ActivitySystem,
			Message:   msg,
			CreatedAt: s.now.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.Storage.ListActivity(s.Ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("third", entries[0].Message)
	s.Equal("second", entries[1].Message)

	all, err := s.Storage.ListActivity(s.Ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *Suite) TestActivityKeepsMetadata() {
	s.Require().NoError(s.Storage.AppendActivity(s.Ctx, &model.Activity{
		ID:         "act-1",
		Type:       model.ActivityRoomStatusChanged,
		AdminID:    "a-1",
		RoomNumber: "101",
		Metadata:   map[string]string{"new_status": "Occupied"},
	}))

	entries, err := s.Storage.ListActivity(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("101", entries[0].RoomNumber)
	s.Equal("Occupied", entries[0].Metadata["new_status"])
}
