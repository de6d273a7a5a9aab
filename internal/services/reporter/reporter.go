package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/veriloc/internal/model"
)

// UpdatePath is the authority endpoint receiving status reports
const UpdatePath = "/api/v1/rooms/update"

// DefaultTimeout bounds one submit when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Connectivity reports whether the network link is up
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Payload is the JSON body of a status report
type Payload struct {
	RoomNumber    string `json:"room_number"`
	Status        string `json:"status"`
	FingerprintID int    `json:"fingerprint_id"`
}

// Reporter submits status reports to the remote authority
type Reporter struct {
	endpoint     string
	connectivity Connectivity
	httpClient   *http.Client
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a Reporter posting to baseURL
func New(baseURL string, connectivity Connectivity, timeout time.Duration, logger *slog.Logger) *Reporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reporter{
		endpoint:     strings.TrimSuffix(baseURL, "/") + UpdatePath,
		connectivity: connectivity,
		httpClient:   &http.Client{},
		timeout:      timeout,
		logger:       logger,
	}
}

// Submit sends the report once and maps the response to an Outcome.
// It never retries.
func (r *Reporter) Submit(ctx context.Context, report model.StatusReport) model.Outcome {
	if !r.connectivity.Online(ctx) {
		r.logger.Warn("status report not sent: offline", slog.String("room", report.Room))
		return model.OutcomeUnreachable
	}

	status, err := r.post(ctx, report)
	if err != nil {
		r.logger.Warn("status report failed",
			slog.String("room", report.Room),
			slog.String("error", err.Error()),
		)
		return model.OutcomeUnreachable
	}

	outcome := outcomeFor(status)
	r.logger.Debug("status report answered",
		slog.String("room", report.Room),
		slog.Int("http_status", status),
		slog.String("outcome", string(outcome)),
	)
	return outcome
}

// post performs one request inside its own deadline; the body is always closed
func (r *Reporter) post(ctx context.Context, report model.StatusReport) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := json.Marshal(Payload{
		RoomNumber:    report.Room,
		Status:        string(report.Status),
		FingerprintID: int(report.Identity),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func outcomeFor(status int) model.Outcome {
	switch status {
	case http.StatusOK:
		return model.OutcomeAccepted
	case http.StatusForbidden:
		return model.OutcomeUnauthorized
	default:
		return model.OutcomeServerError
	}
}
