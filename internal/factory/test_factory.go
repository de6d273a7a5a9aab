package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/veriloc/internal/dependencies/mocks"
	"github.com/mcoot/veriloc/internal/services/auth"
	"github.com/mcoot/veriloc/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, prometheus.NewRegistry(), auth.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// BootstrapRoot creates the super admin used by most tests
func (t *TestApp) BootstrapRoot() error {
	_, _, err := t.AuthService.BootstrapSuperAdmin(context.Background(), auth.NewAdmin{
		Username:      "root",
		Password:      "rootpass",
		Email:         "root@example.com",
		FingerprintID: 1000,
	})
	return err
}
