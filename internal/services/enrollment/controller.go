package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
)

// StepFunc is called every time a session enters a new state
type StepFunc func(session *model.EnrollmentSession)

// Controller runs the enrollment state machine against a Sampler
type Controller struct {
	poller  *sampler.Poller
	idRange model.IdentityRange
	clock   clock.Clock
	metrics *metrics.Device
	logger  *slog.Logger
	onStep  StepFunc
}

// NewController creates a new enrollment Controller
func NewController(
	poller *sampler.Poller,
	idRange model.IdentityRange,
	clock clock.Clock,
	metrics *metrics.Device,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		poller:  poller,
		idRange: idRange,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// OnStep registers a callback for state transitions, used to prompt the operator
func (c *Controller) OnStep(fn StepFunc) {
	c.onStep = fn
}

// IdentityRange returns the accepted identity range
func (c *Controller) IdentityRange() model.IdentityRange {
	return c.idRange
}

// Enroll registers a new fingerprint under id.
// The returned session is always non-nil and ends in a terminal state; the
// error is nil exactly when the session succeeded.
func (c *Controller) Enroll(ctx context.Context, id model.Identity) (*model.EnrollmentSession, error) {
	session := model.NewEnrollmentSession(id, c.clock.Now())
	c.notify(session)

	err := c.run(ctx, session)
	if err != nil {
		c.logger.Warn("enrollment failed",
			slog.Int("identity", int(id)),
			slog.String("reason", string(session.Reason)),
			slog.String("error", err.Error()),
		)
		c.metrics.IncrementEnrollment(string(session.Reason))
		return session, err
	}

	c.logger.Info("enrollment committed",
		slog.Int("identity", int(id)),
		slog.Duration("elapsed", session.FinishedAt.Sub(session.StartedAt)),
	)
	c.metrics.IncrementEnrollment(string(model.EnrollmentSuccess))
	return session, nil
}

func (c *Controller) run(ctx context.Context, session *model.EnrollmentSession) error {
	id := session.Identity
	s := c.poller.Sampler()

	if !c.idRange.Contains(id) {
		return c.fail(session, model.FailureInvalidIdentity,
			fmt.Errorf("%w: %d not in %s", model.ErrInvalidIdentity, id, c.idRange))
	}

	c.enter(session, model.EnrollmentCheckIdentityFree)
	_, exists, err := s.LookupByID(ctx, id)
	if err != nil {
		return c.failSampler(session, err)
	}
	if exists {
		return c.fail(session, model.FailureIdentityInUse,
			fmt.Errorf("%w: %d", model.ErrIdentityInUse, id))
	}

	c.enter(session, model.EnrollmentCheckDuplicateBiometric)
	match, err := c.poller.ClassifyWhenPresent(ctx)
	if err != nil {
		return c.failSampler(session, err)
	}
	if match.Matched {
		session.DuplicateOf = match.Identity
		return c.fail(session, model.FailureDuplicateBiometric,
			&model.DuplicateBiometricError{Existing: match.Identity})
	}

	c.enter(session, model.EnrollmentCaptureFirstSample)
	first, err := c.poller.Acquire(ctx, model.SlotFirst)
	if err != nil {
		return c.failSampler(session, err)
	}

	c.enter(session, model.EnrollmentAwaitFingerRemoval)
	if err := c.poller.AwaitRemoval(ctx); err != nil {
		return c.failSampler(session, err)
	}

	c.enter(session, model.EnrollmentCaptureSecondSample)
	second, err := c.poller.Acquire(ctx, model.SlotSecond)
	if err != nil {
		return c.failSampler(session, err)
	}

	c.enter(session, model.EnrollmentCommit)
	if err := s.FuseAndStore(ctx, id, first, second); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.failSampler(session, ctxErr)
		}
		return c.fail(session, model.FailureCommitError,
			fmt.Errorf("%w: %w", model.ErrCommitFailed, err))
	}

	session.Succeed(c.clock.Now())
	c.notify(session)
	return nil
}

// failSampler classifies an error raised while talking to the sensor
func (c *Controller) failSampler(session *model.EnrollmentSession, err error) error {
	switch {
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		if !errors.Is(err, model.ErrTimeout) {
			err = fmt.Errorf("%w: %w", model.ErrTimeout, err)
		}
		return c.fail(session, model.FailureTimeout, err)
	case errors.Is(err, context.Canceled):
		return c.fail(session, model.FailureCancelled, err)
	default:
		return c.fail(session, model.FailureSensorFault,
			fmt.Errorf("%w: %w", model.ErrSensorFault, err))
	}
}

func (c *Controller) fail(session *model.EnrollmentSession, reason model.FailureReason, err error) error {
	session.Err = err
	session.Fail(reason, c.clock.Now())
	c.notify(session)
	return err
}

func (c *Controller) enter(session *model.EnrollmentSession, state model.EnrollmentState) {
	session.Enter(state)
	c.notify(session)
}

func (c *Controller) notify(session *model.EnrollmentSession) {
	if c.onStep != nil {
		c.onStep(session)
	}
}
