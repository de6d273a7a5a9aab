package mocks

import (
	"fmt"

	"github.com/mcoot/veriloc/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// TokenResults is a queue of results to return from Token
	TokenResults []string
	tokenIndex   int
	generated    int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Token returns the next queued token, or a unique sequential token when the queue is empty
func (r *MockRandom) Token(n int) string {
	if r.tokenIndex >= len(r.TokenResults) {
		r.generated++
		return fmt.Sprintf("token-%d", r.generated)
	}
	result := r.TokenResults[r.tokenIndex]
	r.tokenIndex++
	return result
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.TokenResults = append(r.TokenResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.TokenResults = nil
	r.tokenIndex = 0
	r.generated = 0
}
