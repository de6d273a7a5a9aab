package device

import (
	"strings"
	"sync"
)

// recordingDisplay keeps every update; onShow runs synchronously for each one
type recordingDisplay struct {
	mu      sync.Mutex
	updates []string
	onShow  func(text string)
}

func (d *recordingDisplay) Show(lines ...string) {
	text := strings.Join(lines, " | ")
	d.mu.Lock()
	d.updates = append(d.updates, text)
	onShow := d.onShow
	d.mu.Unlock()
	if onShow != nil {
		onShow(text)
	}
}

func (d *recordingDisplay) Updates() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.updates...)
}

// results keeps only the updates that end an attempt
func (d *recordingDisplay) results(prefixes ...string) []string {
	var out []string
	for _, u := range d.Updates() {
		for _, p := range prefixes {
			if strings.HasPrefix(u, p) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}
