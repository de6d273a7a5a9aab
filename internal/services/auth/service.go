package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/dependencies/random"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/activity"
	"github.com/mcoot/veriloc/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Input limits for new admins
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// Session represents an authenticated admin session
type Session struct {
	Token     string
	AdminID   model.AdminID
	Admin     model.Admin
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles admin accounts and session management
type Service struct {
	storage  storage.Storage
	activity *activity.Service
	clock    clock.Clock
	random   random.Random
	metrics  *metrics.Server
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	idRange         model.IdentityRange
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// IdentityRange bounds admin fingerprint IDs
	IdentityRange model.IdentityRange
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		IdentityRange:   model.DefaultIdentityRange(),
	}
}

// New creates a new auth Service
func New(
	storage storage.Storage,
	activity *activity.Service,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Server,
	logger *slog.Logger,
	cfg Config,
) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.IdentityRange == (model.IdentityRange{}) {
		cfg.IdentityRange = defaults.IdentityRange
	}
	return &Service{
		storage:         storage,
		activity:        activity,
		clock:           clock,
		random:          random,
		metrics:         metrics,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		idRange:         cfg.IdentityRange,
	}
}

// NewAdmin describes an admin account to create
type NewAdmin struct {
	Username      string
	Password      string
	Email         string
	FingerprintID model.Identity
	IsSuperAdmin  bool
}

// AdminUpdate is a partial admin update; nil fields are left unchanged
type AdminUpdate struct {
	Username      *string
	Email         *string
	FingerprintID *model.Identity
	IsSuperAdmin  *bool
}

// Login authenticates an admin and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	creds, err := s.storage.GetCredentialsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			s.metrics.IncrementAdminLogin("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncrementAdminLogin("failure")
		return nil, ErrInvalidCredentials
	}

	admin, err := s.storage.GetAdmin(ctx, creds.AdminID)
	if err != nil {
		return nil, err
	}

	session := s.createSession(admin)
	s.metrics.IncrementAdminLogin("success")
	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivityAdminLogin,
		Message: fmt.Sprintf("Admin %s logged in", admin.Username),
		AdminID: admin.ID,
	})
	s.logger.Info("admin logged in", slog.String("admin_id", string(admin.ID)))
	return session, nil
}

// Logout ends a session
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.ValidateSession(token)
	if err != nil {
		return err
	}
	s.InvalidateSession(token)

	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivityAdminLogout,
		Message: fmt.Sprintf("Admin %s logged out", session.Admin.Username),
		AdminID: session.AdminID,
	})
	return nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CreateAdmin creates an admin account; only super admins may do so
func (s *Service) CreateAdmin(ctx context.Context, actor *model.Admin, in NewAdmin) (*model.Admin, error) {
	if actor == nil || !actor.IsSuperAdmin {
		return nil, model.ErrNotSuperAdmin
	}

	admin, err := s.createAdmin(ctx, in)
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivityAdminCreated,
		Message: fmt.Sprintf("Admin %s created by %s", admin.Username, actor.Username),
		AdminID: actor.ID,
		Metadata: map[string]string{
			"created_admin_id": string(admin.ID),
			"fingerprint_id":   admin.FingerprintID.String(),
		},
	})
	return admin, nil
}

// BootstrapSuperAdmin creates the initial super admin unless one already exists.
// It reports whether an account was created.
func (s *Service) BootstrapSuperAdmin(ctx context.Context, in NewAdmin) (*model.Admin, bool, error) {
	admins, err := s.storage.ListAdmins(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, a := range admins {
		if a.IsSuperAdmin {
			return a, false, nil
		}
	}

	in.IsSuperAdmin = true
	admin, err := s.createAdmin(ctx, in)
	if err != nil {
		return nil, false, err
	}

	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivitySystem,
		Message: fmt.Sprintf("Super admin %s bootstrapped", admin.Username),
		AdminID: admin.ID,
	})
	s.logger.Info("super admin bootstrapped", slog.String("username", admin.Username))
	return admin, true, nil
}

// GetAdmin returns an admin by ID
func (s *Service) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	return s.storage.GetAdmin(ctx, id)
}

// ListAdmins returns every admin in creation order
func (s *Service) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	return s.storage.ListAdmins(ctx)
}

// UpdateAdmin changes an admin's profile; only super admins may do so.
// Open sessions of the admin see the new profile.
func (s *Service) UpdateAdmin(ctx context.Context, actor *model.Admin, id model.AdminID, in AdminUpdate) (*model.Admin, error) {
	if actor == nil || !actor.IsSuperAdmin {
		return nil, model.ErrNotSuperAdmin
	}

	prev, err := s.storage.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}

	admin := *prev
	if in.Username != nil {
		admin.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		admin.Email = strings.TrimSpace(*in.Email)
	}
	if in.FingerprintID != nil {
		admin.FingerprintID = *in.FingerprintID
	}
	if in.IsSuperAdmin != nil {
		if actor.ID == id && !*in.IsSuperAdmin {
			return nil, model.ErrCannotDemoteSelf
		}
		admin.IsSuperAdmin = *in.IsSuperAdmin
	}

	if err := s.validateProfile(admin.Username, admin.Email, admin.FingerprintID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, id, admin.Username, admin.Email, admin.FingerprintID); err != nil {
		return nil, err
	}

	admin.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveAdmin(ctx, &admin); err != nil {
		return nil, err
	}
	if admin.Username != prev.Username {
		if err := s.renameCredentials(ctx, prev.Username, admin.Username); err != nil {
			_ = s.storage.SaveAdmin(ctx, prev)
			return nil, err
		}
	}

	s.mu.Lock()
	for token, session := range s.sessions {
		if session.AdminID == id {
			refreshed := *session
			refreshed.Admin = admin
			s.sessions[token] = &refreshed
		}
	}
	s.mu.Unlock()

	s.logger.Info("admin updated",
		slog.String("admin_id", string(id)),
		slog.String("username", admin.Username),
	)
	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivityAdminUpdated,
		Message: fmt.Sprintf("Admin %s updated by %s", admin.Username, actor.Username),
		AdminID: actor.ID,
		Metadata: map[string]string{
			"updated_admin_id": string(id),
		},
	})
	out := admin
	return &out, nil
}

func (s *Service) renameCredentials(ctx context.Context, from, to string) error {
	creds, err := s.storage.GetCredentialsByUsername(ctx, from)
	if err != nil {
		return err
	}
	creds.Username = to
	creds.UpdatedAt = s.clock.Now()
	return s.storage.SaveCredentials(ctx, creds)
}

// DeleteAdmin removes an admin account and its sessions
func (s *Service) DeleteAdmin(ctx context.Context, actor *model.Admin, id model.AdminID) error {
	if actor == nil || !actor.IsSuperAdmin {
		return model.ErrNotSuperAdmin
	}
	if actor.ID == id {
		return model.ErrCannotDeleteSelf
	}

	admin, err := s.storage.GetAdmin(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteCredentials(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteAdmin(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for token, session := range s.sessions {
		if session.AdminID == id {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	s.activity.Log(ctx, activity.Entry{
		Type:    model.ActivityAdminDeleted,
		Message: fmt.Sprintf("Admin %s deleted by %s", admin.Username, actor.Username),
		AdminID: actor.ID,
		Metadata: map[string]string{
			"deleted_admin_id": string(id),
		},
	})
	return nil
}

func (s *Service) createAdmin(ctx context.Context, in NewAdmin) (*model.Admin, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "", in.Username, in.Email, in.FingerprintID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	admin := &model.Admin{
		ID:            model.AdminID(uuid.NewString()),
		Username:      in.Username,
		Email:         in.Email,
		FingerprintID: in.FingerprintID,
		IsSuperAdmin:  in.IsSuperAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	creds := &model.AdminCredentials{
		AdminID:      admin.ID,
		Username:     admin.Username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAdmin(ctx, admin); err != nil {
		s.logger.Error("failed to save admin",
			slog.String("username", admin.Username),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if err := s.storage.SaveCredentials(ctx, creds); err != nil {
		_ = s.storage.DeleteAdmin(ctx, admin.ID)
		return nil, err
	}

	s.logger.Info("admin created",
		slog.String("admin_id", string(admin.ID)),
		slog.String("username", admin.Username),
		slog.Bool("super_admin", admin.IsSuperAdmin),
	)
	return admin, nil
}

func (s *Service) validate(in NewAdmin) error {
	if len(in.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, MinPasswordLength)
	}
	return s.validateProfile(in.Username, in.Email, in.FingerprintID)
}

func (s *Service) validateProfile(username, email string, fp model.Identity) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters", model.ErrValidation, MinUsernameLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", model.ErrValidation)
	}
	if !s.idRange.Contains(fp) {
		return fmt.Errorf("%w: fingerprint_id must be within %s", model.ErrValidation, s.idRange)
	}
	return nil
}

// checkUnique rejects a username, email or fingerprint held by an admin other than self
func (s *Service) checkUnique(ctx context.Context, self model.AdminID, username, email string, fp model.Identity) error {
	creds, err := s.storage.GetCredentialsByUsername(ctx, username)
	if err == nil && creds.AdminID != self {
		return fmt.Errorf("%w: username %q", model.ErrAdminExists, username)
	}
	if err != nil && !errors.Is(err, model.ErrAdminNotFound) {
		return err
	}

	other, err := s.storage.GetAdminByEmail(ctx, email)
	if err == nil && other.ID != self {
		return fmt.Errorf("%w: email %q", model.ErrAdminExists, email)
	}
	if err != nil && !errors.Is(err, model.ErrAdminNotFound) {
		return err
	}

	other, err = s.storage.GetAdminByFingerprint(ctx, fp)
	if err == nil && other.ID != self {
		return fmt.Errorf("%w: fingerprint %d", model.ErrAdminExists, fp)
	}
	if err != nil && !errors.Is(err, model.ErrAdminNotFound) {
		return err
	}
	return nil
}

// createSession creates a new session for an admin
func (s *Service) createSession(admin *model.Admin) *Session {
	token := "sess_" + s.random.Token(32)
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		AdminID:   admin.ID,
		Admin:     *admin,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
