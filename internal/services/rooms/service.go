package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/activity"
	"github.com/mcoot/veriloc/internal/storage"
)

// Notifier is told about accepted status changes and deleted rooms
type Notifier interface {
	BroadcastRoomStatus(event model.RoomStatusEvent)
	BroadcastRoomDeleted(room string)
}

// Service manages rooms and applies device status reports
type Service struct {
	storage  storage.Storage
	activity *activity.Service
	notifier Notifier
	clock    clock.Clock
	metrics  *metrics.Server
	logger   *slog.Logger

	idRange model.IdentityRange
}

// Config holds configuration for the rooms service
type Config struct {
	// IdentityRange bounds the fingerprint IDs room units may report
	IdentityRange model.IdentityRange
}

// New creates a new rooms Service
func New(
	storage storage.Storage,
	activity *activity.Service,
	notifier Notifier,
	clock clock.Clock,
	metrics *metrics.Server,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.IdentityRange == (model.IdentityRange{}) {
		cfg.IdentityRange = model.DefaultIdentityRange()
	}
	return &Service{
		storage:  storage,
		activity: activity,
		notifier: notifier,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		idRange:  cfg.IdentityRange,
	}
}

// Filter narrows a room listing; zero fields match everything
type Filter struct {
	Status model.StatusLabel
	// Number is a case-insensitive substring of the room number
	Number string
	// Day keeps rooms with a booking that day
	Day model.Day
	// Duration keeps rooms with a booking of exactly this duration
	Duration string
}

// NewRoom describes a room to create
type NewRoom struct {
	Number           string
	Status           model.StatusLabel // Defaults to Vacant
	AuthorizedAdmins []model.AdminID
	Bookings         []model.Booking
}

// RoomUpdate is a partial update; nil fields are left unchanged
type RoomUpdate struct {
	Status           *model.StatusLabel
	AuthorizedAdmins *[]model.AdminID
	// Bookings replaces the whole schedule
	Bookings *[]model.Booking
}

// StatusUpdate is a report sent by a room unit
type StatusUpdate struct {
	RoomNumber    string
	Status        string
	FingerprintID model.Identity
}

// List returns rooms sorted by number
func (s *Service) List(ctx context.Context, filter Filter) ([]*model.Room, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	needle := model.NormalizeRoomNumber(filter.Number)
	out := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if filter.Status != "" && room.Status != filter.Status {
			continue
		}
		if needle != "" && !strings.Contains(room.Number, needle) {
			continue
		}
		if !matchesBooking(room, filter.Day, strings.TrimSpace(filter.Duration)) {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func matchesBooking(room *model.Room, day model.Day, duration string) bool {
	if day == "" && duration == "" {
		return true
	}
	for _, b := range room.Bookings {
		if (day == "" || b.Day == day) && (duration == "" || b.Duration == duration) {
			return true
		}
	}
	return false
}

// Occupancy counts rooms by status, and bookings by day and room status.
// A non-empty day restricts both counts to rooms booked that day.
func (s *Service) Occupancy(ctx context.Context, day model.Day) (model.OccupancyStats, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return model.OccupancyStats{}, err
	}

	var stats model.OccupancyStats
	for _, room := range rooms {
		if day != "" && !room.IsBookedOn(day) {
			continue
		}
		stats.Total++
		if room.Status == model.StatusOccupied {
			stats.Occupied++
		} else {
			stats.Vacant++
		}
	}

	for _, d := range byDay(rooms) {
		if d.Total == 0 || (day != "" && d.Day != day) {
			continue
		}
		stats.ByDay = append(stats.ByDay, d)
	}
	return stats, nil
}

// Analytics counts bookings for every day of the week, zero-filled
func (s *Service) Analytics(ctx context.Context) ([]model.DayOccupancy, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return byDay(rooms), nil
}

func byDay(rooms []*model.Room) []model.DayOccupancy {
	days := make([]model.DayOccupancy, len(model.Week))
	for i, d := range model.Week {
		days[i].Day = d
	}
	for _, room := range rooms {
		for _, b := range room.Bookings {
			i := b.Day.Index()
			if i < 0 {
				continue
			}
			days[i].Total++
			if room.Status == model.StatusOccupied {
				days[i].Occupied++
			} else {
				days[i].Vacant++
			}
		}
	}
	return days
}

// Get returns a room by number
func (s *Service) Get(ctx context.Context, number string) (*model.Room, error) {
	number = model.NormalizeRoomNumber(number)
	if number == "" {
		return nil, model.ErrInvalidRoomNumber
	}
	return s.storage.GetRoom(ctx, number)
}

// Create adds a room
func (s *Service) Create(ctx context.Context, actor *model.Admin, in NewRoom) (*model.Room, error) {
	number := model.NormalizeRoomNumber(in.Number)
	if number == "" {
		return nil, model.ErrInvalidRoomNumber
	}

	status := in.Status
	if status == "" {
		status = model.StatusVacant
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, model.ErrInvalidStatus)
	}

	bookings, err := checkBookings(number, in.Bookings)
	if err != nil {
		return nil, err
	}

	admins, err := s.checkAdmins(ctx, in.AuthorizedAdmins)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.RoomExists(ctx, number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", model.ErrRoomExists, number)
	}

	now := s.clock.Now()
	room := &model.Room{
		Number:           number,
		Status:           status,
		AuthorizedAdmins: admins,
		Bookings:         bookings,
		StatusChangedAt:  now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room created", slog.String("room", number), slog.String("admin_id", string(actor.ID)))
	s.activity.Log(ctx, activity.Entry{
		Type:       model.ActivityRoomCreated,
		Message:    fmt.Sprintf("Room %s created by %s", number, actor.Username),
		AdminID:    actor.ID,
		RoomNumber: number,
	})
	return room, nil
}

// Update changes a room's status or authorized admins
func (s *Service) Update(ctx context.Context, actor *model.Admin, number string, in RoomUpdate) (*model.Room, error) {
	room, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: %w", model.ErrValidation, model.ErrInvalidStatus)
		}
		if *in.Status != room.Status {
			room.Status = *in.Status
			room.StatusChangedAt = now
			room.StatusChangedBy = actor.ID
		}
	}
	if in.AuthorizedAdmins != nil {
		admins, err := s.checkAdmins(ctx, *in.AuthorizedAdmins)
		if err != nil {
			return nil, err
		}
		room.AuthorizedAdmins = admins
	}
	if in.Bookings != nil {
		bookings, err := checkBookings(room.Number, *in.Bookings)
		if err != nil {
			return nil, err
		}
		room.Bookings = bookings
	}
	room.UpdatedAt = now

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, activity.Entry{
		Type:       model.ActivityRoomUpdated,
		Message:    fmt.Sprintf("Room %s updated by %s", room.Number, actor.Username),
		AdminID:    actor.ID,
		RoomNumber: room.Number,
	})
	return room, nil
}

// AddBooking adds one slot to a room's schedule
func (s *Service) AddBooking(ctx context.Context, actor *model.Admin, number string, booking model.Booking) (*model.Room, error) {
	room, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	bookings, err := checkBookings(room.Number, append(room.Bookings, booking))
	if err != nil {
		return nil, err
	}
	room.Bookings = bookings
	room.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	added := bookings[len(bookings)-1]
	s.logger.Info("room booked",
		slog.String("room", room.Number),
		slog.String("day", string(added.Day)),
		slog.String("duration", added.Duration),
	)
	s.activity.Log(ctx, activity.Entry{
		Type:       model.ActivityRoomUpdated,
		Message:    fmt.Sprintf("Room %s booked %s by %s", room.Number, added, actor.Username),
		AdminID:    actor.ID,
		RoomNumber: room.Number,
		Metadata: map[string]string{
			"day":      string(added.Day),
			"duration": added.Duration,
		},
	})
	return room, nil
}

// checkBookings normalizes each booking and rejects overlaps on the same day
func checkBookings(room string, in []model.Booking) ([]model.Booking, error) {
	out := make([]model.Booking, len(in))
	for i, b := range in {
		booking, err := model.NewBooking(string(b.Day), b.Duration)
		if err != nil {
			return nil, err
		}
		out[i] = booking
	}
	if err := model.CheckSchedule(room, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a room
func (s *Service) Delete(ctx context.Context, actor *model.Admin, number string) error {
	number = model.NormalizeRoomNumber(number)
	if number == "" {
		return model.ErrInvalidRoomNumber
	}
	if err := s.storage.DeleteRoom(ctx, number); err != nil {
		return err
	}

	s.notifier.BroadcastRoomDeleted(number)
	s.activity.Log(ctx, activity.Entry{
		Type:       model.ActivityRoomDeleted,
		Message:    fmt.Sprintf("Room %s deleted by %s", number, actor.Username),
		AdminID:    actor.ID,
		RoomNumber: number,
	})
	return nil
}

// UpdateStatusFromDevice applies a status report from a room unit.
// Checks run in order: input, fingerprint, room, room authorization.
func (s *Service) UpdateStatusFromDevice(ctx context.Context, in StatusUpdate) (*model.Room, error) {
	room, admin, err := s.authorizeDevice(ctx, in)
	if err != nil {
		s.metrics.IncrementRoomStatusUpdate(updateResult(err))
		s.logger.Warn("device status update rejected",
			slog.String("room", in.RoomNumber),
			slog.Int("fingerprint_id", int(in.FingerprintID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	status, _ := model.ParseStatusLabel(in.Status)
	now := s.clock.Now()
	event := model.RoomStatusEvent{
		RoomNumber:    room.Number,
		OldStatus:     room.Status,
		NewStatus:     status,
		AdminID:       admin.ID,
		AdminUsername: admin.Username,
		FingerprintID: admin.FingerprintID,
		Timestamp:     now,
	}

	room.Status = status
	room.StatusChangedAt = now
	room.StatusChangedBy = admin.ID
	room.UpdatedAt = now
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		s.metrics.IncrementRoomStatusUpdate("error")
		return nil, err
	}

	s.metrics.IncrementRoomStatusUpdate("accepted")
	s.logger.Info("room status changed",
		slog.String("room", room.Number),
		slog.String("old_status", string(event.OldStatus)),
		slog.String("new_status", string(status)),
		slog.String("admin", admin.Username),
	)
	s.activity.Log(ctx, activity.Entry{
		Type:       model.ActivityRoomStatusChanged,
		Message:    fmt.Sprintf("Room %s set to %s by %s", room.Number, status, admin.Username),
		AdminID:    admin.ID,
		RoomNumber: room.Number,
		Metadata: map[string]string{
			"old_status":     string(event.OldStatus),
			"new_status":     string(status),
			"fingerprint_id": admin.FingerprintID.String(),
		},
	})
	s.notifier.BroadcastRoomStatus(event)
	return room, nil
}

func (s *Service) authorizeDevice(ctx context.Context, in StatusUpdate) (*model.Room, *model.Admin, error) {
	number := model.NormalizeRoomNumber(in.RoomNumber)
	if number == "" {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrValidation, model.ErrInvalidRoomNumber)
	}
	if _, err := model.ParseStatusLabel(in.Status); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	if !s.idRange.Contains(in.FingerprintID) {
		return nil, nil, fmt.Errorf("%w: fingerprint_id must be within %s", model.ErrValidation, s.idRange)
	}

	admin, err := s.storage.GetAdminByFingerprint(ctx, in.FingerprintID)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, nil, fmt.Errorf("%w: %d", model.ErrUnauthorizedFingerprint, in.FingerprintID)
		}
		return nil, nil, err
	}

	room, err := s.storage.GetRoom(ctx, number)
	if err != nil {
		return nil, nil, err
	}

	if !room.IsAdminAuthorized(admin.ID) {
		return nil, nil, fmt.Errorf("%w: %s in %s", model.ErrAdminNotAuthorizedInRoom, admin.Username, number)
	}
	return room, admin, nil
}

// checkAdmins verifies every ID names an admin and drops duplicates
func (s *Service) checkAdmins(ctx context.Context, ids []model.AdminID) ([]model.AdminID, error) {
	seen := make(map[model.AdminID]bool, len(ids))
	out := make([]model.AdminID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, err := s.storage.GetAdmin(ctx, id); err != nil {
			if errors.Is(err, model.ErrAdminNotFound) {
				return nil, fmt.Errorf("%w: authorized admin %s not found", model.ErrValidation, id)
			}
			return nil, err
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func updateResult(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	case errors.Is(err, model.ErrUnauthorizedFingerprint):
		return "unauthorized_fingerprint"
	case errors.Is(err, model.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, model.ErrAdminNotAuthorizedInRoom):
		return "admin_not_authorized"
	default:
		return "error"
	}
}
