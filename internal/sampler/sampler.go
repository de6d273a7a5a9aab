// Package sampler defines the fingerprint capability shared by the enrollment
// station and the room unit, and the polling operations built on top of it.
//
// A Sampler is owned by exactly one controller for the duration of one
// operation; implementations need not be safe for concurrent use by
// several controllers.
package sampler

import (
	"context"
	"errors"

	"github.com/mcoot/veriloc/internal/model"
)

// Sampler errors reported by implementations
var (
	// ErrNoFinger means no finger is on the sensor yet; callers retry
	ErrNoFinger = errors.New("no finger on sensor")

	ErrImageFault     = errors.New("image capture fault")
	ErrConversion     = errors.New("image conversion failed")
	ErrFusionMismatch = errors.New("samples do not belong to the same finger")
	ErrStoreFault     = errors.New("template store fault")
)

// Sampler is the contract of the external biometric subsystem.
// The enrollment store is owned by the implementation; callers never cache it.
type Sampler interface {
	// CaptureSample takes one image. It returns ErrNoFinger when nothing is
	// on the sensor and ErrImageFault (or another error) on hardware faults.
	CaptureSample(ctx context.Context) (model.RawImage, error)

	// Convert turns an image into a template held in the given slot
	Convert(ctx context.Context, img model.RawImage, slot model.Slot) (model.Template, error)

	// MatchAgainstStore searches every enrolled record for the template
	MatchAgainstStore(ctx context.Context, tpl model.Template) (model.MatchResult, error)

	// FuseAndStore combines two samples into one record bound to id.
	// Either the record is stored or nothing is.
	FuseAndStore(ctx context.Context, id model.Identity, first, second model.Template) error

	// LookupByID returns the record enrolled under id, if any
	LookupByID(ctx context.Context, id model.Identity) (model.EnrollmentRecord, bool, error)
}

// IsNoFinger reports whether err is the transient "no finger yet" signal
func IsNoFinger(err error) bool {
	return errors.Is(err, ErrNoFinger)
}

// Classify captures one sample, converts it into the first slot and searches
// the store. It is the single "classify a fresh sample" path used both by the
// enrollment duplicate check and by authentication. ErrNoFinger is returned
// unchanged so callers can decide whether to poll.
func Classify(ctx context.Context, s Sampler) (model.MatchResult, error) {
	img, err := s.CaptureSample(ctx)
	if err != nil {
		return model.NoMatch(), err
	}

	tpl, err := s.Convert(ctx, img, model.SlotFirst)
	if err != nil {
		return model.NoMatch(), err
	}

	return s.MatchAgainstStore(ctx, tpl)
}
