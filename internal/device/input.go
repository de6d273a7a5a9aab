package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mcoot/veriloc/internal/model"
)

var (
	// ErrUnknownCommand is returned for a line that is not a status selection
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInputClosed is returned by reads after Close
	ErrInputClosed = errors.New("input closed")
)

// IdentityInput supplies identities to an enrollment station
type IdentityInput interface {
	ReadIdentity(ctx context.Context) (model.Identity, error)
}

// StatusInput supplies status selections to a room unit
type StatusInput interface {
	ReadStatus(ctx context.Context) (model.StatusLabel, error)
}

// LineInput reads operator input one line at a time.
// Reads honour ctx; io.EOF is returned once the stream ends.
// Close releases the reader goroutine; a Read blocked on r itself
// still has to return before the goroutine exits.
type LineInput struct {
	lines chan string
	err   chan error

	done      chan struct{}
	closeOnce sync.Once
	exited    chan struct{}
}

// NewLineInput starts reading r in the background
func NewLineInput(r io.Reader) *LineInput {
	in := &LineInput{
		lines:  make(chan string),
		err:    make(chan error, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go in.scan(r)
	return in
}

func (in *LineInput) scan(r io.Reader) {
	defer close(in.exited)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case in.lines <- line:
		case <-in.done:
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	in.err <- err
	close(in.lines)
}

// Close stops delivering lines. It is safe to call more than once.
func (in *LineInput) Close() error {
	in.closeOnce.Do(func() { close(in.done) })
	return nil
}

// ReadLine returns the next non-empty line
func (in *LineInput) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-in.done:
		return "", ErrInputClosed
	case line, ok := <-in.lines:
		if !ok {
			err := <-in.err
			in.err <- err
			return "", err
		}
		return line, nil
	}
}

// ReadIdentity implements IdentityInput
func (in *LineInput) ReadIdentity(ctx context.Context) (model.Identity, error) {
	line, err := in.ReadLine(ctx)
	if err != nil {
		return model.NoIdentity, err
	}
	return model.ParseIdentity(line)
}

// ReadStatus implements StatusInput
func (in *LineInput) ReadStatus(ctx context.Context) (model.StatusLabel, error) {
	line, err := in.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	return ParseSelection(line)
}

// ParseSelection maps keypad-style input to a status label
func ParseSelection(s string) (model.StatusLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v", "vacant":
		return model.StatusVacant, nil
	case "o", "occupied":
		return model.StatusOccupied, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
}
