package device

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/veriloc/internal/dependencies/mocks"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/sampler/sim"
	logutil "github.com/mcoot/veriloc/internal/testutil"
)

type EnrollStationSuite struct {
	suite.Suite
	sensor  *sim.Sensor
	clock   *mocks.MockClock
	runtime *Runtime
	display *recordingDisplay
}

func TestEnrollStationSuite(t *testing.T) {
	suite.Run(t, new(EnrollStationSuite))
}

func (s *EnrollStationSuite) SetupTest() {
	s.sensor = sim.New(sim.Config{AutoLift: true})
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.CaptureTimeout = 5 * time.Second
	cfg.RemovalTimeout = 5 * time.Second
	s.runtime = NewRuntime(cfg, s.sensor, s.clock, logutil.NopLogger())
	s.display = &recordingDisplay{}
}

func (s *EnrollStationSuite) run(input string) {
	station := s.runtime.EnrollStation(NewLineInput(strings.NewReader(input)), s.display)
	s.Require().NoError(station.Run(context.Background()))
}

func (s *EnrollStationSuite) TestEnrollsPresentedFinger() {
	s.sensor.Present("alice")

	s.run("1500\n")

	s.Equal([]string{"Enrolled ID | 1500"}, s.display.results("Enrolled", "Invalid", "ID In Use", "Duplicate", "Scan Error"))
	finger, ok := s.sensor.FingerOf(1500)
	s.True(ok)
	s.Equal("alice", finger)
}

func (s *EnrollStationSuite) TestPromptsFollowTheSteps() {
	s.sensor.Present("alice")

	s.run("1500\n")

	s.Equal([]string{
		"Enter ID | 1000-9999",
		"Place finger",
		"Place finger",
		"Remove finger",
		"Place same finger",
		"Enrolled ID | 1500",
		"Enter ID | 1000-9999",
	}, s.display.Updates())
}

func (s *EnrollStationSuite) TestReportsEveryFailureAndKeepsGoing() {
	s.sensor.Present("alice")

	s.run("abc\n42\n1500\n1500\n1600\n")

	s.Equal([]string{
		"Invalid ID",
		"Invalid ID",
		"Enrolled ID | 1500",
		"ID In Use",
		"Duplicate Found | 1500",
	}, s.display.results("Enrolled", "Invalid", "ID In Use", "Duplicate", "Scan Error"))
	s.Equal(1, s.sensor.Size())
	s.Equal(1.0, testutil.ToFloat64(s.runtime.Metrics.Enrollments.WithLabelValues("success")))
	s.Equal(1.0, testutil.ToFloat64(s.runtime.Metrics.Enrollments.WithLabelValues(string(model.FailureDuplicateBiometric))))
}

func (s *EnrollStationSuite) TestScanErrorOnSensorFault() {
	s.sensor.Queue(sim.Fault())

	s.run("1500\n")

	s.Contains(s.display.Updates(), "Scan Error")
	s.Equal(0, s.sensor.Size())
}

func (s *EnrollStationSuite) TestStopsWhenCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	station := s.runtime.EnrollStation(NewLineInput(strings.NewReader("1500\n")), s.display)
	s.NoError(station.Run(ctx))
	s.Equal(0, s.sensor.Size())
}

func (s *EnrollStationSuite) TestConvertErrorOnSmudgedSample() {
	s.sensor.Queue(sim.Finger("carol"), sim.Finger("carol"), sim.NoFinger(), sim.Smudged("carol"))

	s.run("1500\n")

	s.Contains(s.display.Updates(), "Convert Error")
	s.Equal(0, s.sensor.Size())
}

func (s *EnrollStationSuite) TestModelErrorOnDifferentFingers() {
	s.sensor.Queue(sim.Finger("carol"), sim.Finger("carol"), sim.NoFinger(), sim.Finger("dave"))

	s.run("1500\n")

	s.Contains(s.display.Updates(), "Model Error")
	s.Equal(0, s.sensor.Size())
}

func (s *EnrollStationSuite) TestStoreErrorOnFailedCommit() {
	s.sensor.FailNextStore(fmt.Errorf("%w: flash write", sampler.ErrStoreFault))
	s.sensor.Present("alice")

	s.run("1500\n")

	s.Contains(s.display.Updates(), "Store Error")
	s.Equal(0, s.sensor.Size())
}

func TestEnrollmentMessage(t *testing.T) {
	tests := []struct {
		name   string
		reason model.FailureReason
		err    error
		want   string
	}{
		{"timeout", model.FailureTimeout, model.ErrTimeout, "Timed Out"},
		{"cancelled", model.FailureCancelled, context.Canceled, "Cancelled"},
		{"image fault", model.FailureSensorFault, fmt.Errorf("%w: %w", model.ErrSensorFault, sampler.ErrImageFault), "Scan Error"},
		{"conversion", model.FailureSensorFault, fmt.Errorf("%w: %w", model.ErrSensorFault, sampler.ErrConversion), "Convert Error"},
		{"fusion mismatch", model.FailureCommitError, fmt.Errorf("%w: %w", model.ErrCommitFailed, sampler.ErrFusionMismatch), "Model Error"},
		{"store fault", model.FailureCommitError, fmt.Errorf("%w: %w", model.ErrCommitFailed, sampler.ErrStoreFault), "Store Error"},
		{"store fault while matching", model.FailureSensorFault, fmt.Errorf("%w: %w", model.ErrSensorFault, sampler.ErrStoreFault), "Store Error"},
		{"unknown cause", model.FailureCommitError, nil, "Scan Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := model.NewEnrollmentSession(1500, time.Time{})
			session.Err = tt.err
			session.Fail(tt.reason, time.Time{})

			assert.Equal(t, []string{tt.want}, EnrollmentMessage(session))
		})
	}
}
