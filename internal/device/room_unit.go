package device

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/access"
)

// RoomUnit is the access profile: authenticate, take one selection, report it
type RoomUnit struct {
	controller *access.Controller
	input      StatusInput
	display    Display
	clock      clock.Clock
	cfg        RoomUnitConfig
	logger     *slog.Logger
}

// RoomUnitConfig holds the room unit loop timings
type RoomUnitConfig struct {
	PollInterval time.Duration
	// SelectionTimeout bounds the wait for a selection; zero waits forever
	SelectionTimeout time.Duration
}

// NewRoomUnit creates a RoomUnit
func NewRoomUnit(
	controller *access.Controller,
	input StatusInput,
	display Display,
	clock clock.Clock,
	cfg RoomUnitConfig,
	logger *slog.Logger,
) *RoomUnit {
	return &RoomUnit{
		controller: controller,
		input:      input,
		display:    display,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "room-unit")),
	}
}

// Run polls for a finger and handles selections until ctx is cancelled or the input ends
func (u *RoomUnit) Run(ctx context.Context) error {
	u.display.Show("Place finger")
	for {
		state, err := u.controller.Poll(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		if id, ok := state.Identity(); ok {
			done, err := u.handleSelection(ctx, id)
			if done || err != nil {
				return err
			}
			u.display.Show("Place finger")
		}

		if err := u.clock.Sleep(ctx, u.cfg.PollInterval); err != nil {
			return nil
		}
	}
}

// handleSelection waits for one selection and submits it; done reports that Run should stop
func (u *RoomUnit) handleSelection(ctx context.Context, id model.Identity) (done bool, err error) {
	u.display.Show("Access Granted", "ID "+id.String(), "V=Vacant O=Occupied")

	selectCtx := ctx
	if u.cfg.SelectionTimeout > 0 {
		var cancel context.CancelFunc
		selectCtx, cancel = context.WithTimeout(ctx, u.cfg.SelectionTimeout)
		defer cancel()
	}

	for {
		label, err := u.input.ReadStatus(selectCtx)
		switch {
		case ctx.Err() != nil:
			u.controller.Reset()
			return true, nil
		case errors.Is(err, io.EOF):
			u.controller.Reset()
			return true, nil
		case errors.Is(err, context.DeadlineExceeded):
			u.controller.Reset()
			u.display.Show("Timed Out")
			return false, nil
		case errors.Is(err, ErrUnknownCommand):
			u.display.Show("Press V or O")
			continue
		case err != nil:
			u.controller.Reset()
			return true, err
		}

		outcome, err := u.controller.SelectStatus(ctx, label)
		if err != nil {
			// Authentication expired between the poll and the selection
			u.logger.Info("selection rejected", slog.String("error", err.Error()))
			u.display.Show("Timed Out")
			return false, nil
		}
		u.display.Show(OutcomeMessage(outcome, label)...)
		return false, nil
	}
}

// OutcomeMessage is the display text for a submitted report
func OutcomeMessage(outcome model.Outcome, label model.StatusLabel) []string {
	switch outcome {
	case model.OutcomeAccepted:
		return []string{"Updated to " + string(label)}
	case model.OutcomeUnauthorized:
		return []string{"Unauthorized"}
	case model.OutcomeUnreachable:
		return []string{"WiFi Disconnected"}
	default:
		return []string{"Server Error"}
	}
}
