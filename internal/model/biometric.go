package model

// RawImage is an unprocessed capture held by the sensor
type RawImage []byte

// Template is a processed feature set derived from a RawImage.
// The core never interprets its contents.
type Template []byte

// Slot selects the sensor buffer a converted template is written to
type Slot uint8

const (
	SlotFirst  Slot = 1
	SlotSecond Slot = 2
)

// MatchResult is the outcome of searching the sensor's template store
type MatchResult struct {
	Matched  bool
	Identity Identity // Only meaningful when Matched
}

// NoMatch returns a MatchResult for a template that is not enrolled
func NoMatch() MatchResult {
	return MatchResult{}
}

// MatchedIdentity returns a MatchResult resolved to id
func MatchedIdentity(id Identity) MatchResult {
	return MatchResult{Matched: true, Identity: id}
}

// EnrollmentRecord binds one identity to one fused template
type EnrollmentRecord struct {
	Identity Identity
	Template Template
}
