package device

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/veriloc/internal/services/reporter"
)

// HealthPath is probed to decide whether the server is reachable
const HealthPath = "/api/v1/health"

// AlwaysOnline reports the link as always up
type AlwaysOnline struct{}

// Online implements reporter.Connectivity
func (AlwaysOnline) Online(context.Context) bool { return true }

// ProbeConnectivity checks the link with a short health request
type ProbeConnectivity struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

var (
	_ reporter.Connectivity = AlwaysOnline{}
	_ reporter.Connectivity = (*ProbeConnectivity)(nil)
)

// NewProbeConnectivity probes baseURL's health endpoint
func NewProbeConnectivity(baseURL string, timeout time.Duration) *ProbeConnectivity {
	return &ProbeConnectivity{
		url:     strings.TrimRight(baseURL, "/") + HealthPath,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Online implements reporter.Connectivity
func (p *ProbeConnectivity) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
