package enrollment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/veriloc/internal/dependencies/mocks"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/sampler/sim"
	logutil "github.com/mcoot/veriloc/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	sensor     *sim.Sensor
	clock      *mocks.MockClock
	metrics    *metrics.Device
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.sensor = sim.New(sim.Config{AutoLift: true})
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = metrics.NewDevice(prometheus.NewRegistry())
	s.controller = s.newController(s.sensor)
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(sensor *sim.Sensor) *Controller {
	poller := sampler.NewPoller(sensor, s.clock, sampler.PollConfig{
		Interval:       100 * time.Millisecond,
		CaptureTimeout: 5 * time.Second,
		RemovalTimeout: 5 * time.Second,
	})
	return NewController(poller, model.DefaultIdentityRange(), s.clock, s.metrics, logutil.NopLogger())
}

// Identity validation

func (s *ControllerSuite) TestOutOfRangeIdentityMakesNoSamplerCalls() {
	for _, id := range []model.Identity{5, 999, 10000, -1, 0} {
		s.sensor.ResetCalls()

		session, err := s.controller.Enroll(s.ctx, id)

		s.ErrorIs(err, model.ErrInvalidIdentity, "identity %d", id)
		s.Equal(model.EnrollmentFailed, session.State, "identity %d", id)
		s.Equal(model.FailureInvalidIdentity, session.Reason, "identity %d", id)
		s.Equal(0, s.sensor.Calls().Total(), "identity %d touched the sensor", id)
	}
}

func (s *ControllerSuite) TestRangeBoundsAreInclusive() {
	s.sensor.Present("alice")
	session, err := s.controller.Enroll(s.ctx, 1000)
	s.Require().NoError(err)
	s.True(session.Succeeded())

	s.sensor.Present("bob")
	session, err = s.controller.Enroll(s.ctx, 9999)
	s.Require().NoError(err)
	s.True(session.Succeeded())
}

func (s *ControllerSuite) TestIdentityInUseMakesNoCapture() {
	s.Require().NoError(s.sensor.Enroll(1500, "alice"))
	s.sensor.Present("bob")

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrIdentityInUse)
	s.Equal(model.FailureIdentityInUse, session.Reason)
	s.Equal(0, s.sensor.Calls().Capture)
	s.Equal(1, s.sensor.Calls().Lookup)
	s.False(session.Visited(model.EnrollmentCheckDuplicateBiometric))
}

// Duplicate biometric

func (s *ControllerSuite) TestDuplicateFingerIsRejectedBeforeCommit() {
	s.Require().NoError(s.sensor.Enroll(1200, "alice"))
	s.sensor.Present("alice")

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrDuplicateBiometric)
	var dup *model.DuplicateBiometricError
	s.Require().True(errors.As(err, &dup))
	s.Equal(model.Identity(1200), dup.Existing)
	s.Equal(model.Identity(1200), session.DuplicateOf)
	s.Equal(model.FailureDuplicateBiometric, session.Reason)
	s.Equal(0, s.sensor.Calls().FuseAndStore)
	s.Equal(1, s.sensor.Size())
	s.False(session.Visited(model.EnrollmentCaptureFirstSample))
}

func (s *ControllerSuite) TestDuplicateCheckWaitsForFinger() {
	s.sensor.Queue(sim.NoFinger(), sim.NoFinger())
	s.sensor.Present("alice")

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.Require().NoError(err)
	s.True(session.Succeeded())
}

// Success path

func (s *ControllerSuite) TestSuccessfulEnrollmentAddsExactlyOneRecord() {
	s.Require().NoError(s.sensor.Enroll(1200, "alice"))
	s.sensor.Present("bob")

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.Require().NoError(err)
	s.Equal(model.EnrollmentSuccess, session.State)
	s.Equal(2, s.sensor.Size())
	s.Equal(1, s.sensor.Calls().FuseAndStore)

	finger, ok := s.sensor.FingerOf(1500)
	s.True(ok)
	s.Equal("bob", finger)

	record, ok, err := s.sensor.LookupByID(s.ctx, 1500)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(model.Identity(1500), record.Identity)
}

func (s *ControllerSuite) TestSuccessfulEnrollmentVisitsEveryState() {
	s.sensor.Present("bob")

	session, err := s.controller.Enroll(s.ctx, 1500)
	s.Require().NoError(err)

	s.Equal([]model.EnrollmentState{
		model.EnrollmentAwaitIdentityInput,
		model.EnrollmentCheckIdentityFree,
		model.EnrollmentCheckDuplicateBiometric,
		model.EnrollmentCaptureFirstSample,
		model.EnrollmentAwaitFingerRemoval,
		model.EnrollmentCaptureSecondSample,
		model.EnrollmentCommit,
		model.EnrollmentSuccess,
	}, session.History)
}

func (s *ControllerSuite) TestScriptedCapturesEnrollAfterRemoval() {
	sensor := sim.New(sim.Config{})
	controller := s.newController(sensor)
	sensor.Queue(
		sim.NoFinger(),
		sim.Finger("carol"), // duplicate check
		sim.Finger("carol"), // first sample
		sim.Finger("carol"), // still on the sensor
		sim.NoFinger(),      // removed
		sim.NoFinger(),
		sim.Finger("carol"), // second sample
	)

	session, err := controller.Enroll(s.ctx, 1500)

	s.Require().NoError(err)
	s.True(session.Succeeded())
	s.Equal(0, sensor.Pending())
	s.Equal(7, sensor.Calls().Capture)
}

func (s *ControllerSuite) TestOnStepReportsTransitions() {
	var states []model.EnrollmentState
	s.controller.OnStep(func(session *model.EnrollmentSession) {
		states = append(states, session.State)
	})
	s.sensor.Present("bob")

	session, err := s.controller.Enroll(s.ctx, 1500)
	s.Require().NoError(err)

	s.Equal(session.History, states)
}

// Sensor faults

func (s *ControllerSuite) TestImageFaultDuringFirstSampleIsSensorFault() {
	sensor := sim.New(sim.Config{})
	controller := s.newController(sensor)
	sensor.Queue(sim.Finger("carol"), sim.Fault())

	session, err := controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrSensorFault)
	s.ErrorIs(err, sampler.ErrImageFault)
	s.Equal(model.FailureSensorFault, session.Reason)
	s.Equal(0, sensor.Calls().FuseAndStore)
	s.Equal(0, sensor.Size())
}

func (s *ControllerSuite) TestConversionFaultDuringSecondSampleIsSensorFault() {
	sensor := sim.New(sim.Config{})
	controller := s.newController(sensor)
	sensor.Queue(sim.Finger("carol"), sim.Finger("carol"), sim.NoFinger(), sim.Smudged("carol"))

	session, err := controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrSensorFault)
	s.Equal(model.FailureSensorFault, session.Reason)
	s.True(session.Visited(model.EnrollmentCaptureSecondSample))
	s.False(session.Visited(model.EnrollmentCommit))
	s.Equal(0, sensor.Size())
}

func (s *ControllerSuite) TestFaultDuringDuplicateCheckIsSensorFault() {
	s.sensor.Queue(sim.Fault())

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrSensorFault)
	s.Equal(model.FailureSensorFault, session.Reason)
}

// Commit

func (s *ControllerSuite) TestInconsistentSamplesAreCommitError() {
	sensor := sim.New(sim.Config{})
	controller := s.newController(sensor)
	sensor.Queue(sim.Finger("carol"), sim.Finger("carol"), sim.NoFinger(), sim.Finger("dave"))

	session, err := controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrCommitFailed)
	s.ErrorIs(err, sampler.ErrFusionMismatch)
	s.Equal(model.FailureCommitError, session.Reason)
	s.ErrorIs(session.Err, sampler.ErrFusionMismatch)
	s.Equal(0, sensor.Size())
}

func (s *ControllerSuite) TestStorageFaultIsCommitError() {
	s.sensor.FailNextStore(sampler.ErrStoreFault)
	s.sensor.Present("bob")

	session, err := s.controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrCommitFailed)
	s.Equal(model.FailureCommitError, session.Reason)
	s.ErrorIs(session.Err, sampler.ErrStoreFault)
	s.Equal(0, s.sensor.Size())
}

// Timeouts

func (s *ControllerSuite) TestNoFingerTimesOut() {
	session, err := s.controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrTimeout)
	s.Equal(model.FailureTimeout, session.Reason)
	s.Equal(0, s.sensor.Size())
}

func (s *ControllerSuite) TestFingerNeverRemovedTimesOut() {
	sensor := sim.New(sim.Config{})
	controller := s.newController(sensor)
	sensor.Present("bob")

	session, err := controller.Enroll(s.ctx, 1500)

	s.ErrorIs(err, model.ErrTimeout)
	s.Equal(model.FailureTimeout, session.Reason)
	s.True(session.Visited(model.EnrollmentAwaitFingerRemoval))
	s.False(session.Visited(model.EnrollmentCaptureSecondSample))
}

func (s *ControllerSuite) TestCancelledContextStopsEnrollment() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	session, err := s.controller.Enroll(ctx, 1500)

	s.ErrorIs(err, context.Canceled)
	s.Equal(model.FailureCancelled, session.Reason)
	s.True(session.State.IsTerminal())
}

// Metrics

func (s *ControllerSuite) TestOutcomesAreCounted() {
	s.sensor.Present("bob")
	_, err := s.controller.Enroll(s.ctx, 1500)
	s.Require().NoError(err)
	_, _ = s.controller.Enroll(s.ctx, 1500)
	_, _ = s.controller.Enroll(s.ctx, 5)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrollments.WithLabelValues("success")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrollments.WithLabelValues("identity_in_use")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrollments.WithLabelValues("invalid_identity")))
}
