package factory

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
	"github.com/mcoot/veriloc/internal/services/rooms"
)

type IntegrationSuite struct {
	suite.Suite
	app  *TestApp
	ctx  context.Context
	root *model.Admin
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.BootstrapRoot())

	session, err := s.app.AuthService.Login(s.ctx, "root", "rootpass")
	s.Require().NoError(err)
	s.root = &session.Admin
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) createAdmin(username string, fingerprint model.Identity) *model.Admin {
	admin, err := s.app.AuthService.CreateAdmin(s.ctx, s.root, auth.NewAdmin{
		Username:      username,
		Password:      "secret123",
		Email:         username + "@example.com",
		FingerprintID: fingerprint,
	})
	s.Require().NoError(err)
	return admin
}

// Test: an admin is created, given a room, and changes its status from a device
func (s *IntegrationSuite) TestDeviceStatusFlow() {
	alice := s.createAdmin("alice", 1500)
	_, err := s.app.RoomService.Create(s.ctx, s.root, rooms.NewRoom{
		Number:           "101",
		AuthorizedAdmins: []model.AdminID{alice.ID},
	})
	s.Require().NoError(err)

	s.app.MockClock.Advance(5 * time.Minute)
	room, err := s.app.RoomService.UpdateStatusFromDevice(s.ctx, rooms.StatusUpdate{
		RoomNumber:    "101",
		Status:        "Occupied",
		FingerprintID: 1500,
	})
	s.Require().NoError(err)
	s.Equal(model.StatusOccupied, room.Status)
	s.Equal(alice.ID, room.StatusChangedBy)

	stats, err := s.app.RoomService.Occupancy(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(1, stats.Occupied)

	entries, err := s.app.ActivityService.Recent(s.ctx, 0)
	s.Require().NoError(err)
	types := make([]model.ActivityType, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}
	s.Equal([]model.ActivityType{
		model.ActivityRoomStatusChanged,
		model.ActivityRoomCreated,
		model.ActivityAdminCreated,
		model.ActivityAdminLogin,
		model.ActivitySystem,
	}, types)

	s.Equal(1.0, testutil.ToFloat64(s.app.Metrics.RoomStatusUpdates.WithLabelValues("accepted")))
}

// Test: the root admin has no implicit room access
func (s *IntegrationSuite) TestSuperAdminNeedsRoomAuthorization() {
	_, err := s.app.RoomService.Create(s.ctx, s.root, rooms.NewRoom{Number: "101"})
	s.Require().NoError(err)

	_, err = s.app.RoomService.UpdateStatusFromDevice(s.ctx, rooms.StatusUpdate{
		RoomNumber:    "101",
		Status:        "Occupied",
		FingerprintID: 1000,
	})
	s.ErrorIs(err, model.ErrAdminNotAuthorizedInRoom)
}

// Test: deleting an admin revokes their fingerprint on every device
func (s *IntegrationSuite) TestDeletedAdminFingerprintIsRejected() {
	bob := s.createAdmin("bob", 1600)
	_, err := s.app.RoomService.Create(s.ctx, s.root, rooms.NewRoom{
		Number:           "101",
		AuthorizedAdmins: []model.AdminID{bob.ID},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.app.AuthService.DeleteAdmin(s.ctx, s.root, bob.ID))

	_, err = s.app.RoomService.UpdateStatusFromDevice(s.ctx, rooms.StatusUpdate{
		RoomNumber:    "101",
		Status:        "Occupied",
		FingerprintID: 1600,
	})
	s.ErrorIs(err, model.ErrUnauthorizedFingerprint)
}

// Test: sessions expire with the mocked clock
func (s *IntegrationSuite) TestSessionExpiry() {
	session, err := s.app.AuthService.Login(s.ctx, "root", "rootpass")
	s.Require().NoError(err)

	s.app.MockClock.Advance(25 * time.Hour)
	_, err = s.app.AuthService.ValidateSession(session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

// Test: the bootstrap is idempotent
func (s *IntegrationSuite) TestBootstrapOnlyOnce() {
	admin, created, err := s.app.AuthService.BootstrapSuperAdmin(s.ctx, auth.NewAdmin{
		Username:      "other",
		Password:      "otherpass",
		Email:         "other@example.com",
		FingerprintID: 1001,
	})
	s.Require().NoError(err)
	s.False(created)
	s.Equal("root", admin.Username)
}
