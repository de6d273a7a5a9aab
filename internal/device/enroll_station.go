package device

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/services/enrollment"
)

// EnrollStation is the enrollment profile: read an ID, enroll, show the result
type EnrollStation struct {
	controller *enrollment.Controller
	input      IdentityInput
	display    Display
	logger     *slog.Logger
}

// NewEnrollStation creates an EnrollStation and hooks step prompts onto the controller
func NewEnrollStation(controller *enrollment.Controller, input IdentityInput, display Display, logger *slog.Logger) *EnrollStation {
	s := &EnrollStation{
		controller: controller,
		input:      input,
		display:    display,
		logger:     logger.With(slog.String("component", "enroll-station")),
	}
	controller.OnStep(s.prompt)
	return s
}

// Run enrolls until the input ends or ctx is cancelled
func (s *EnrollStation) Run(ctx context.Context) error {
	for {
		s.display.Show("Enter ID", s.controller.IdentityRange().String())

		id, err := s.input.ReadIdentity(ctx)
		switch {
		case errors.Is(err, io.EOF), ctx.Err() != nil:
			return nil
		case errors.Is(err, model.ErrInvalidIdentity):
			s.display.Show("Invalid ID")
			continue
		case err != nil:
			return err
		}

		session, err := s.controller.Enroll(ctx, id)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.logger.Info("enrollment failed",
				slog.Int("id", int(id)),
				slog.String("reason", string(session.Reason)),
			)
		}
		s.display.Show(EnrollmentMessage(session)...)
	}
}

func (s *EnrollStation) prompt(session *model.EnrollmentSession) {
	switch session.State {
	case model.EnrollmentCheckDuplicateBiometric, model.EnrollmentCaptureFirstSample:
		s.display.Show("Place finger")
	case model.EnrollmentAwaitFingerRemoval:
		s.display.Show("Remove finger")
	case model.EnrollmentCaptureSecondSample:
		s.display.Show("Place same finger")
	}
}

// EnrollmentMessage is the display text for a finished session
func EnrollmentMessage(session *model.EnrollmentSession) []string {
	if session.Succeeded() {
		return []string{"Enrolled ID", session.Identity.String()}
	}
	switch session.Reason {
	case model.FailureInvalidIdentity:
		return []string{"Invalid ID"}
	case model.FailureIdentityInUse:
		return []string{"ID In Use"}
	case model.FailureDuplicateBiometric:
		return []string{"Duplicate Found", session.DuplicateOf.String()}
	case model.FailureTimeout:
		return []string{"Timed Out"}
	case model.FailureCancelled:
		return []string{"Cancelled"}
	}
	switch {
	case errors.Is(session.Err, sampler.ErrConversion):
		return []string{"Convert Error"}
	case errors.Is(session.Err, sampler.ErrFusionMismatch):
		return []string{"Model Error"}
	case errors.Is(session.Err, sampler.ErrStoreFault):
		return []string{"Store Error"}
	default:
		return []string{"Scan Error"}
	}
}
