package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
)

// Reporter submits a status report to the remote authority
type Reporter interface {
	Submit(ctx context.Context, report model.StatusReport) model.Outcome
}

// Config holds access controller settings
type Config struct {
	// Room is the room number this unit reports for
	Room string
	// SelectionTimeout returns an authenticated unit to idle; zero disables expiry
	SelectionTimeout time.Duration
}

// Controller gates one status report behind one successful authentication
type Controller struct {
	sampler  sampler.Sampler
	reporter Reporter
	cfg      Config
	clock    clock.Clock
	metrics  *metrics.Device
	logger   *slog.Logger

	mu    sync.Mutex
	state model.AccessState
}

// NewController creates a new access Controller in AwaitAuthentication
func NewController(
	s sampler.Sampler,
	reporter Reporter,
	cfg Config,
	clock clock.Clock,
	metrics *metrics.Device,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		sampler:  s,
		reporter: reporter,
		cfg:      cfg,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		state:    model.AwaitingAuthentication(),
	}
}

// State returns the current state
func (c *Controller) State() model.AccessState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Poll runs one cycle. While awaiting authentication it classifies one sample:
// a match authenticates, anything else leaves the state unchanged. While
// authenticated it only applies the selection timeout.
// Only context errors are returned; sensor faults count as no match.
func (c *Controller) Poll(ctx context.Context) (model.AccessState, error) {
	if c.Expire() {
		return c.State(), nil
	}
	if state := c.State(); state.IsAuthenticated() {
		return state, nil
	}

	result, err := sampler.Classify(ctx, c.sampler)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.State(), ctxErr
		}
		if !sampler.IsNoFinger(err) {
			c.metrics.IncrementAuthentication("error")
			c.logger.Warn("access scan failed", slog.String("error", err.Error()))
		}
		return c.State(), nil
	}

	if !result.Matched {
		c.metrics.IncrementAuthentication("no_match")
		c.logger.Info("access denied: fingerprint not enrolled")
		return c.State(), nil
	}

	c.metrics.IncrementAuthentication("matched")
	c.logger.Info("access granted", slog.Int("identity", int(result.Identity)))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = model.AuthenticatedAs(result.Identity, c.clock.Now())
	return c.state, nil
}

// SelectStatus consumes the authentication: it builds one StatusReport,
// submits it and returns to AwaitAuthentication whatever the outcome.
// An invalid label is rejected without consuming the authentication.
func (c *Controller) SelectStatus(ctx context.Context, label model.StatusLabel) (model.Outcome, error) {
	if !label.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidStatus, label)
	}

	c.Expire()

	c.mu.Lock()
	id, ok := c.state.Identity()
	c.state = model.AwaitingAuthentication()
	c.mu.Unlock()

	if !ok {
		return "", model.ErrNotAuthenticated
	}

	report := model.StatusReport{
		Room:      c.cfg.Room,
		Identity:  id,
		Status:    label,
		CreatedAt: c.clock.Now(),
	}
	outcome := c.reporter.Submit(ctx, report)

	c.metrics.IncrementStatusReport(string(outcome))
	c.logger.Info("status report submitted",
		slog.String("room", report.Room),
		slog.Int("identity", int(id)),
		slog.String("status", string(label)),
		slog.String("outcome", string(outcome)),
	)
	return outcome, nil
}

// Expire returns an authenticated controller to idle once the selection
// timeout has passed. It reports whether a reset happened.
func (c *Controller) Expire() bool {
	if c.cfg.SelectionTimeout <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.state.Identity()
	if !ok || c.clock.Now().Sub(c.state.Since()) < c.cfg.SelectionTimeout {
		return false
	}

	c.logger.Info("authentication expired without a selection", slog.Int("identity", int(id)))
	c.state = model.AwaitingAuthentication()
	return true
}

// Reset abandons any authentication
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = model.AwaitingAuthentication()
}
