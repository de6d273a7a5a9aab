package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/veriloc/internal/api"
	"github.com/mcoot/veriloc/internal/factory"
	"github.com/mcoot/veriloc/internal/services/auth"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(projectRoot, "bin", "veriloc-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/veriloc")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithInput(input string, args ...string) (string, error) {
	cmd := r.command(args...)
	cmd.Stdin = strings.NewReader(input)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	output, err := exec.Command(r.binaryPath, fullArgs...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	_, _, err = app.AuthService.BootstrapSuperAdmin(context.Background(), auth.NewAdmin{
		Username:      "root",
		Password:      "rootpass",
		Email:         "root@example.com",
		FingerprintID: 1000,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		RoomService:     app.RoomService,
		ActivityService: app.ActivityService,
		HubManager:      app.HubManager,
		Gatherer:        app.Registry,
		StorageType:     app.StorageType,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type adminResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FingerprintID int    `json:"fingerprint_id"`
	IsSuperAdmin  bool   `json:"is_super_admin"`
}

type authResponse struct {
	Admin        adminResponse `json:"admin"`
	SessionToken string        `json:"session_token"`
}

type roomResponse struct {
	RoomNumber       string            `json:"room_number"`
	Status           string            `json:"status"`
	AuthorizedAdmins []string          `json:"authorized_admins"`
	Bookings         []bookingResponse `json:"bookings"`
	StatusChangedBy  string            `json:"status_changed_by"`
}

type bookingResponse struct {
	Day      string `json:"day"`
	Duration string `json:"duration"`
}

type dayResponse struct {
	Day      string `json:"day"`
	Total    int    `json:"total"`
	Vacant   int    `json:"vacant"`
	Occupied int    `json:"occupied"`
}

type statusUpdateResponse struct {
	Room      roomResponse `json:"room"`
	UpdatedBy string       `json:"updated_by"`
}

type occupancyResponse struct {
	Total    int `json:"total"`
	Vacant   int `json:"vacant"`
	Occupied int `json:"occupied"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[healthResponse](t, output)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_AdminCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("admin", "login", "--user", "root", "--pass", "rootpass")
	require.NoError(t, err, "output: %s", output)
	auth := decode[authResponse](t, output)
	assert.Equal(t, "root", auth.Admin.Username)
	assert.True(t, auth.Admin.IsSuperAdmin)
	assert.NotEmpty(t, auth.SessionToken)

	// Token is saved in the token file
	output, err = cli.run("admin", "me")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "root", decode[adminResponse](t, output).Username)

	output, err = cli.run("admin", "create",
		"--user", "alice", "--pass", "secret", "--email", "alice@example.com", "--fingerprint", "1500")
	require.NoError(t, err, "output: %s", output)
	alice := decode[adminResponse](t, output)
	assert.Equal(t, 1500, alice.FingerprintID)
	assert.False(t, alice.IsSuperAdmin)

	output, err = cli.run("admin", "list")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]adminResponse](t, output), 2)

	// Non super admins cannot create admins
	output, err = cli.run("admin", "login", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("admin", "create",
		"--user", "carol", "--pass", "secret", "--email", "carol@example.com", "--fingerprint", "1700")
	require.Error(t, err)
	assert.Contains(t, output, "NOT_SUPER_ADMIN")

	output, err = cli.run("admin", "logout")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "Logged out", decode[messageResponse](t, output).Message)

	output, err = cli.run("admin", "me")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	// Update alice as root
	output, err = cli.runWithToken(auth.SessionToken, "admin", "update", alice.ID, "--fingerprint", "1700", "--email", "alice@corp.example.com")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 1700, decode[adminResponse](t, output).FingerprintID)

	output, err = cli.runWithToken(auth.SessionToken, "admin", "update", alice.ID, "--fingerprint", "42")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")

	output, err = cli.runWithToken(auth.SessionToken, "admin", "update", alice.ID)
	require.Error(t, err)
	assert.Contains(t, output, "nothing to update")

	// Delete alice as root
	output, err = cli.runWithToken(auth.SessionToken, "admin", "delete", alice.ID)
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, decode[messageResponse](t, output).Message, alice.ID)
}

func TestCLI_RoomCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("admin", "login", "--user", "root", "--pass", "rootpass")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("admin", "create",
		"--user", "alice", "--pass", "secret", "--email", "alice@example.com", "--fingerprint", "1500")
	require.NoError(t, err, "output: %s", output)
	alice := decode[adminResponse](t, output)

	output, err = cli.run("room", "create", "101a", "--admins", alice.ID)
	require.NoError(t, err, "output: %s", output)
	room := decode[roomResponse](t, output)
	assert.Equal(t, "101A", room.RoomNumber)
	assert.Equal(t, "Vacant", room.Status)
	assert.Equal(t, []string{alice.ID}, room.AuthorizedAdmins)

	output, err = cli.run("room", "create", "102", "--status", "occupied")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("room", "list", "--status", "occupied")
	require.NoError(t, err, "output: %s", output)
	rooms := decode[[]roomResponse](t, output)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].RoomNumber)

	output, err = cli.run("room", "occupancy")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, occupancyResponse{Total: 2, Vacant: 1, Occupied: 1}, decode[occupancyResponse](t, output))

	// Weekly schedule
	output, err = cli.run("room", "update", "102", "--booking", "Monday 9:00-10:00", "--booking", "friday 14:00-15:00")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, []bookingResponse{
		{Day: "Monday", Duration: "9:00-10:00"},
		{Day: "Friday", Duration: "14:00-15:00"},
	}, decode[roomResponse](t, output).Bookings)

	output, err = cli.run("room", "book", "102", "--day", "Monday", "--duration", "9:30-10:30")
	require.Error(t, err)
	assert.Contains(t, output, "TIME_SLOT_CONFLICT")

	output, err = cli.run("room", "book", "101A", "--day", "Monday", "--duration", "9:30-10:30")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[roomResponse](t, output).Bookings, 1)

	output, err = cli.run("room", "list", "--day", "friday")
	require.NoError(t, err, "output: %s", output)
	friday := decode[[]roomResponse](t, output)
	require.Len(t, friday, 1)
	assert.Equal(t, "102", friday[0].RoomNumber)

	output, err = cli.run("room", "occupancy", "--day", "Monday")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, occupancyResponse{Total: 2, Vacant: 1, Occupied: 1}, decode[occupancyResponse](t, output))

	output, err = cli.run("room", "analytics")
	require.NoError(t, err, "output: %s", output)
	days := decode[[]dayResponse](t, output)
	require.Len(t, days, 7)
	assert.Equal(t, dayResponse{Day: "Monday", Total: 2, Vacant: 1, Occupied: 1}, days[0])
	assert.Equal(t, dayResponse{Day: "Friday", Total: 1, Occupied: 1}, days[4])

	// Device style status report
	output, err = cli.run("room", "status", "101A", "occupied", "--fingerprint", "1500")
	require.NoError(t, err, "output: %s", output)
	update := decode[statusUpdateResponse](t, output)
	assert.Equal(t, "Occupied", update.Room.Status)
	assert.Equal(t, alice.ID, update.UpdatedBy)

	// Root is not authorized for 101A
	output, err = cli.run("room", "status", "101A", "vacant", "--fingerprint", "1000")
	require.Error(t, err)
	assert.Contains(t, output, "ADMIN_NOT_AUTHORIZED")

	output, err = cli.run("room", "status", "101A", "vacant", "--fingerprint", "4242")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED_FINGERPRINT")

	output, err = cli.run("room", "update", "101A", "--admins", "")
	require.NoError(t, err, "output: %s", output)
	assert.Empty(t, decode[roomResponse](t, output).AuthorizedAdmins)

	output, err = cli.run("room", "get", "101A")
	require.NoError(t, err, "output: %s", output)
	got := decode[roomResponse](t, output)
	assert.Equal(t, "Occupied", got.Status)
	assert.Equal(t, alice.ID, got.StatusChangedBy)

	output, err = cli.run("room", "delete", "102")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("room", "get", "102")
	require.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")

	output, err = cli.run("activity", "--limit", "1")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[[]map[string]any](t, output), 1)
}

func TestCLI_DeviceRoomUnit(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("admin", "login", "--user", "root", "--pass", "rootpass")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("admin", "create",
		"--user", "alice", "--pass", "secret", "--email", "alice@example.com", "--fingerprint", "1500")
	require.NoError(t, err, "output: %s", output)
	alice := decode[adminResponse](t, output)
	output, err = cli.run("room", "create", "201", "--admins", alice.ID)
	require.NoError(t, err, "output: %s", output)

	configPath := filepath.Join(t.TempDir(), "unit.toml")
	config := fmt.Sprintf(`room = "201"
server_url = %q
poll_interval = "10ms"

[[sim.enrolled]]
id = 1500
finger = "alice-index"
`, ts.addr)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0600))

	// One selection, then stdin closes and the unit stops at the next prompt
	output, err = cli.runWithInput("o\n", "device", "room", "--config", configPath, "--finger", "alice-index")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "[ Access Granted / ID 1500 / V=Vacant O=Occupied ]")
	assert.Contains(t, output, "[ Updated to Occupied ]")

	output, err = cli.run("room", "get", "201")
	require.NoError(t, err, "output: %s", output)
	room := decode[roomResponse](t, output)
	assert.Equal(t, "Occupied", room.Status)
	assert.Equal(t, "alice", room.StatusChangedBy)
}

func TestCLI_DeviceEnrollStation(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.runWithInput("1500\n", "device", "enroll", "--finger", "bob-thumb")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "[ Enter ID / 1000-9999 ]")
	assert.Contains(t, output, "[ Enrolled ID / 1500 ]")
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("admin", "login", "--user", "root", "--pass", "wrong")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")

	output, err = cli.run("room", "list", "--status", "flooded")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")

	output, err = cli.run("room", "create", "999")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.run("room", "update", "999")
	require.Error(t, err)
	assert.Contains(t, output, "nothing to update")
}
