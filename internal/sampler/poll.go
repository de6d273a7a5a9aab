package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/model"
)

// PollConfig bounds the polling loops around a Sampler
type PollConfig struct {
	// Interval is the pause between two polls
	Interval time.Duration
	// CaptureTimeout bounds the wait for a finger; zero waits indefinitely
	CaptureTimeout time.Duration
	// RemovalTimeout bounds the wait for the finger to leave; zero waits indefinitely
	RemovalTimeout time.Duration
}

// DefaultPollConfig returns the polling defaults used by the devices
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:       100 * time.Millisecond,
		CaptureTimeout: 30 * time.Second,
		RemovalTimeout: 30 * time.Second,
	}
}

// Poller runs blocking-with-retry operations against a Sampler.
// Control is yielded only between polls, through the clock.
type Poller struct {
	sampler Sampler
	clock   clock.Clock
	cfg     PollConfig
}

// NewPoller creates a Poller
func NewPoller(s Sampler, clk clock.Clock, cfg PollConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig().Interval
	}
	return &Poller{
		sampler: s,
		clock:   clk,
		cfg:     cfg,
	}
}

// Sampler returns the polled sampler
func (p *Poller) Sampler() Sampler {
	return p.sampler
}

// ClassifyWhenPresent polls Classify until a finger is present
func (p *Poller) ClassifyWhenPresent(ctx context.Context) (model.MatchResult, error) {
	var result model.MatchResult
	err := p.untilPresent(ctx, func(ctx context.Context) error {
		var err error
		result, err = Classify(ctx, p.sampler)
		return err
	})
	return result, err
}

// Acquire polls for a finger, then converts the capture into slot.
// Conversion is attempted exactly once.
func (p *Poller) Acquire(ctx context.Context, slot model.Slot) (model.Template, error) {
	var img model.RawImage
	err := p.untilPresent(ctx, func(ctx context.Context) error {
		var err error
		img, err = p.sampler.CaptureSample(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.sampler.Convert(ctx, img, slot)
}

// AwaitRemoval polls until the sensor reports no finger.
// Capture faults while waiting count as "still present".
func (p *Poller) AwaitRemoval(ctx context.Context) error {
	deadline := p.deadline(p.cfg.RemovalTimeout)
	for {
		_, err := p.sampler.CaptureSample(ctx)
		if IsNoFinger(err) {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p.expired(deadline) {
			return fmt.Errorf("%w: finger not removed within %s", model.ErrTimeout, p.cfg.RemovalTimeout)
		}
		if err := p.clock.Sleep(ctx, p.cfg.Interval); err != nil {
			return err
		}
	}
}

// untilPresent retries op while it returns ErrNoFinger
func (p *Poller) untilPresent(ctx context.Context, op func(context.Context) error) error {
	deadline := p.deadline(p.cfg.CaptureTimeout)
	for {
		err := op(ctx)
		if !errors.Is(err, ErrNoFinger) {
			return err
		}
		if p.expired(deadline) {
			return fmt.Errorf("%w: no finger within %s", model.ErrTimeout, p.cfg.CaptureTimeout)
		}
		if err := p.clock.Sleep(ctx, p.cfg.Interval); err != nil {
			return err
		}
	}
}

func (p *Poller) deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return p.clock.Now().Add(timeout)
}

func (p *Poller) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !p.clock.Now().Before(deadline)
}
