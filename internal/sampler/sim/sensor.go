// Package sim provides an in-memory fingerprint sensor.
//
// Fingers are identified by name. Captures come from a scripted queue when
// one is set, otherwise from the finger currently presented. Images and
// templates are CBOR documents naming the finger, so the matcher is exact:
// two templates match when they name the same finger.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/fxamacker/cbor/v2"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
)

// Config holds settings for a simulated sensor
type Config struct {
	// Capacity is the maximum number of records; zero means unlimited
	Capacity int
	// AutoLift reports no finger for one poll after every successful capture,
	// as if the operator lifted and replaced their finger
	AutoLift bool
}

// Calls counts invocations of each Sampler operation
type Calls struct {
	Capture      int
	Convert      int
	Match        int
	FuseAndStore int
	Lookup       int
}

// Total returns the number of Sampler calls of any kind
func (c Calls) Total() int {
	return c.Capture + c.Convert + c.Match + c.FuseAndStore + c.Lookup
}

// image is the CBOR payload of a simulated raw capture
type image struct {
	Finger  string `cbor:"1,keyasint"`
	Smudged bool   `cbor:"2,keyasint,omitempty"`
}

// template is the CBOR payload of a simulated template
type template struct {
	Finger  string `cbor:"1,keyasint"`
	Slot    uint8  `cbor:"2,keyasint,omitempty"`
	Samples uint8  `cbor:"3,keyasint,omitempty"` // 2 once fused
}

// Sensor is a simulated fingerprint sensor implementing sampler.Sampler
type Sensor struct {
	mu sync.Mutex

	library *treemap.Map // int identity -> model.Template, ascending like sensor pages
	cfg     Config

	queue     []Event
	presented string
	lifted    bool
	storeErr  error
	calls     Calls
}

// Ensure Sensor implements Sampler
var _ sampler.Sampler = (*Sensor)(nil)

// New creates an empty simulated sensor
func New(cfg Config) *Sensor {
	return &Sensor{
		library: treemap.NewWith(utils.IntComparator),
		cfg:     cfg,
	}
}

// CaptureSample implements sampler.Sampler
func (s *Sensor) CaptureSample(ctx context.Context) (model.RawImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Capture++

	if len(s.queue) > 0 {
		ev := s.queue[0]
		s.queue = s.queue[1:]
		switch ev.kind {
		case eventNoFinger:
			return nil, sampler.ErrNoFinger
		case eventFault:
			return nil, ev.err
		default:
			return encode(image{Finger: ev.finger, Smudged: ev.kind == eventSmudged})
		}
	}

	if s.presented == "" || s.lifted {
		s.lifted = false
		return nil, sampler.ErrNoFinger
	}
	if s.cfg.AutoLift {
		s.lifted = true
	}
	return encode(image{Finger: s.presented})
}

// Convert implements sampler.Sampler
func (s *Sensor) Convert(ctx context.Context, img model.RawImage, slot model.Slot) (model.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls.Convert++
	s.mu.Unlock()

	if slot != model.SlotFirst && slot != model.SlotSecond {
		return nil, fmt.Errorf("%w: invalid slot %d", sampler.ErrConversion, slot)
	}

	var raw image
	if err := cbor.Unmarshal(img, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", sampler.ErrConversion, err)
	}
	if raw.Smudged || raw.Finger == "" {
		return nil, fmt.Errorf("%w: too few features", sampler.ErrConversion)
	}
	return encode(template{Finger: raw.Finger, Slot: uint8(slot)})
}

// MatchAgainstStore implements sampler.Sampler.
// The lowest matching identity wins, as with a page-ordered sensor search.
func (s *Sensor) MatchAgainstStore(ctx context.Context, tpl model.Template) (model.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return model.NoMatch(), err
	}

	probe, err := decodeTemplate(tpl)
	if err != nil {
		return model.NoMatch(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Match++

	it := s.library.Iterator()
	for it.Next() {
		stored, err := decodeTemplate(it.Value().(model.Template))
		if err != nil {
			return model.NoMatch(), fmt.Errorf("%w: record %d unreadable", sampler.ErrStoreFault, it.Key())
		}
		if stored.Finger == probe.Finger {
			return model.MatchedIdentity(model.Identity(it.Key().(int))), nil
		}
	}
	return model.NoMatch(), nil
}

// FuseAndStore implements sampler.Sampler
func (s *Sensor) FuseAndStore(ctx context.Context, id model.Identity, first, second model.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a, err := decodeTemplate(first)
	if err != nil {
		return err
	}
	b, err := decodeTemplate(second)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.FuseAndStore++

	if a.Finger != b.Finger {
		return sampler.ErrFusionMismatch
	}
	if s.storeErr != nil {
		err := s.storeErr
		s.storeErr = nil
		return err
	}
	if _, exists := s.library.Get(int(id)); !exists && s.cfg.Capacity > 0 && s.library.Size() >= s.cfg.Capacity {
		return fmt.Errorf("%w: library full (%d records)", sampler.ErrStoreFault, s.cfg.Capacity)
	}

	fused, err := encode(template{Finger: a.Finger, Samples: 2})
	if err != nil {
		return err
	}
	s.library.Put(int(id), fused)
	return nil
}

// LookupByID implements sampler.Sampler
func (s *Sensor) LookupByID(ctx context.Context, id model.Identity) (model.EnrollmentRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.EnrollmentRecord{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Lookup++

	value, ok := s.library.Get(int(id))
	if !ok {
		return model.EnrollmentRecord{}, false, nil
	}
	return model.EnrollmentRecord{Identity: id, Template: value.(model.Template)}, true, nil
}

func encode(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sampler.ErrImageFault, err)
	}
	return data, nil
}

func decodeTemplate(tpl model.Template) (template, error) {
	var t template
	if err := cbor.Unmarshal(tpl, &t); err != nil {
		return template{}, fmt.Errorf("%w: %v", sampler.ErrConversion, err)
	}
	return t, nil
}
