package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeConnectivity(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != HealthPath || !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	probe := NewProbeConnectivity(server.URL+"/", time.Second)
	assert.True(t, probe.Online(context.Background()))

	healthy.Store(false)
	assert.False(t, probe.Online(context.Background()))

	server.Close()
	assert.False(t, probe.Online(context.Background()))
}

func TestProbeConnectivityTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	probe := NewProbeConnectivity(server.URL, 20*time.Millisecond)
	assert.False(t, probe.Online(context.Background()))
}

func TestAlwaysOnline(t *testing.T) {
	assert.True(t, AlwaysOnline{}.Online(context.Background()))
}
