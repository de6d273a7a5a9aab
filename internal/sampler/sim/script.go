package sim

import (
	"fmt"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
)

type eventKind uint8

const (
	eventFinger eventKind = iota
	eventNoFinger
	eventSmudged
	eventFault
)

// Event is one scripted capture result
type Event struct {
	kind   eventKind
	finger string
	err    error
}

// Finger scripts a clean capture of the named finger
func Finger(name string) Event {
	return Event{kind: eventFinger, finger: name}
}

// NoFinger scripts an empty sensor
func NoFinger() Event {
	return Event{kind: eventNoFinger}
}

// Smudged scripts a capture that fails conversion
func Smudged(name string) Event {
	return Event{kind: eventSmudged, finger: name}
}

// Fault scripts a hardware fault while imaging
func Fault() Event {
	return Event{kind: eventFault, err: sampler.ErrImageFault}
}

// Queue appends scripted captures; they take precedence over the presented finger
func (s *Sensor) Queue(events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, events...)
}

// Pending returns the number of scripted captures not yet consumed
func (s *Sensor) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Present places the named finger on the sensor until Lift is called
func (s *Sensor) Present(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presented = name
	s.lifted = false
}

// Lift removes the presented finger
func (s *Sensor) Lift() {
	s.Present("")
}

// FailNextStore makes the next FuseAndStore of matching samples fail with err
func (s *Sensor) FailNextStore(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeErr = err
}

// Enroll stores a record for the named finger directly, bypassing capture
func (s *Sensor) Enroll(id model.Identity, finger string) error {
	tpl, err := encode(template{Finger: finger, Samples: 2})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.library.Get(int(id)); exists {
		return fmt.Errorf("identity %d already enrolled", id)
	}
	s.library.Put(int(id), tpl)
	return nil
}

// Size returns the number of enrolled records
func (s *Sensor) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library.Size()
}

// FingerOf returns the finger enrolled under id
func (s *Sensor) FingerOf(id model.Identity) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.library.Get(int(id))
	if !ok {
		return "", false
	}
	t, err := decodeTemplate(value.(model.Template))
	if err != nil {
		return "", false
	}
	return t.Finger, true
}

// Identities returns the enrolled identities in ascending order
func (s *Sensor) Identities() []model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.library.Keys()
	ids := make([]model.Identity, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, model.Identity(k.(int)))
	}
	return ids
}

// Calls returns a snapshot of the call counters
func (s *Sensor) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ResetCalls zeroes the call counters
func (s *Sensor) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = Calls{}
}
