package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/storage"
)

const (
	// DefaultLimit is used when a caller does not ask for a page size
	DefaultLimit = 20
	// MaxLimit caps a single page
	MaxLimit = 200
)

// Service records and lists activity log entries
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new activity Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Entry describes an activity to record
type Entry struct {
	Type       model.ActivityType
	Message    string
	AdminID    model.AdminID
	RoomNumber string
	Metadata   map[string]string
}

// Log records an entry. Failures are logged and swallowed so that the
// operation being audited is never affected.
func (s *Service) Log(ctx context.Context, entry Entry) {
	activity := &model.Activity{
		ID:         uuid.NewString(),
		Type:       entry.Type,
		Message:    entry.Message,
		AdminID:    entry.AdminID,
		RoomNumber: entry.RoomNumber,
		Metadata:   entry.Metadata,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.storage.AppendActivity(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity",
			slog.String("type", string(entry.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// Recent returns up to limit entries, newest first
func (s *Service) Recent(ctx context.Context, limit int) ([]*model.Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.storage.ListActivity(ctx, limit)
}
