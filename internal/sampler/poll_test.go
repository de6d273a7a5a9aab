package sampler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/veriloc/internal/dependencies/mocks"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/sampler/sim"
)

type PollerSuite struct {
	suite.Suite
	sensor *sim.Sensor
	clock  *mocks.MockClock
	poller *sampler.Poller
	ctx    context.Context
}

func TestPollerSuite(t *testing.T) {
	suite.Run(t, new(PollerSuite))
}

func (s *PollerSuite) SetupTest() {
	s.sensor = sim.New(sim.Config{})
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.poller = sampler.NewPoller(s.sensor, s.clock, sampler.PollConfig{
		Interval:       100 * time.Millisecond,
		CaptureTimeout: time.Second,
		RemovalTimeout: time.Second,
	})
	s.ctx = context.Background()
}

func (s *PollerSuite) TestClassifyReturnsNoFingerUnchanged() {
	_, err := sampler.Classify(s.ctx, s.sensor)
	s.ErrorIs(err, sampler.ErrNoFinger)
	s.Equal(0, s.sensor.Calls().Convert)
}

func (s *PollerSuite) TestClassifyWhenPresentRetriesUntilFinger() {
	s.Require().NoError(s.sensor.Enroll(1500, "alice"))
	s.sensor.Queue(sim.NoFinger(), sim.NoFinger(), sim.Finger("alice"))

	result, err := s.poller.ClassifyWhenPresent(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.MatchedIdentity(1500), result)
	s.Equal(2, s.clock.SleepCount())
}

func (s *PollerSuite) TestClassifyWhenPresentTimesOut() {
	_, err := s.poller.ClassifyWhenPresent(s.ctx)
	s.ErrorIs(err, model.ErrTimeout)
	s.Equal(10, s.clock.SleepCount())
}

func (s *PollerSuite) TestAcquireStopsOnFault() {
	s.sensor.Queue(sim.NoFinger(), sim.Fault())

	_, err := s.poller.Acquire(s.ctx, model.SlotFirst)
	s.ErrorIs(err, sampler.ErrImageFault)
	s.Equal(0, s.sensor.Calls().Convert)
}

func (s *PollerSuite) TestAcquireConvertsOnce() {
	s.sensor.Queue(sim.Smudged("alice"), sim.Finger("alice"))

	_, err := s.poller.Acquire(s.ctx, model.SlotSecond)
	s.ErrorIs(err, sampler.ErrConversion)
	s.Equal(1, s.sensor.Calls().Convert)
	s.Equal(1, s.sensor.Pending())
}

func (s *PollerSuite) TestAwaitRemovalIgnoresFaults() {
	s.sensor.Queue(sim.Finger("alice"), sim.Fault(), sim.NoFinger())

	s.Require().NoError(s.poller.AwaitRemoval(s.ctx))
	s.Equal(3, s.sensor.Calls().Capture)
}

func (s *PollerSuite) TestAwaitRemovalTimesOut() {
	s.sensor.Present("alice")

	err := s.poller.AwaitRemoval(s.ctx)
	s.ErrorIs(err, model.ErrTimeout)
}

func (s *PollerSuite) TestZeroTimeoutWaitsUntilCancelled() {
	poller := sampler.NewPoller(s.sensor, s.clock, sampler.PollConfig{Interval: time.Second})
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := poller.Acquire(ctx, model.SlotFirst)
	s.ErrorIs(err, context.Canceled)
}
