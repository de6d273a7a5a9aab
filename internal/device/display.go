package device

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Display shows short status lines to the operator; it never fails
type Display interface {
	Show(lines ...string)
}

// LogDisplay writes display lines to a logger
type LogDisplay struct {
	logger *slog.Logger
}

// NewLogDisplay creates a display that logs each update
func NewLogDisplay(logger *slog.Logger) *LogDisplay {
	return &LogDisplay{logger: logger}
}

// Show implements Display
func (d *LogDisplay) Show(lines ...string) {
	d.logger.Info("display", slog.String("text", strings.Join(lines, " | ")))
}

// ConsoleDisplay writes display lines to a terminal
type ConsoleDisplay struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleDisplay creates a display writing to w
func NewConsoleDisplay(w io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{w: w}
}

// Show implements Display
func (d *ConsoleDisplay) Show(lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = fmt.Fprintf(d.w, "[ %s ]\n", strings.Join(lines, " / "))
}

// multiDisplay fans out to several displays
type multiDisplay []Display

// MultiDisplay shows every update on all displays
func MultiDisplay(displays ...Display) Display {
	return multiDisplay(displays)
}

// Show implements Display
func (m multiDisplay) Show(lines ...string) {
	for _, d := range m {
		d.Show(lines...)
	}
}
