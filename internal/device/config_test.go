package device

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/veriloc/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, model.IdentityRange{Min: 1000, Max: 9999}, cfg.IdentityRange())
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.CaptureTimeout)
	assert.Equal(t, 30*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 127, cfg.Sim.Capacity)
	assert.True(t, cfg.Sim.AutoLift)
	assert.Empty(t, cfg.LogFile)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig(`
room = "b12"
server_url = "http://authority:9000"
poll_interval = "250ms"
selection_timeout = "5s"

[sim]
auto_lift = false

[[sim.enrolled]]
id = 1500
finger = "alice"
`)
	require.NoError(t, err)

	assert.Equal(t, "http://authority:9000", cfg.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, 30*time.Second, cfg.RemovalTimeout)
	assert.False(t, cfg.Sim.AutoLift)
	assert.Equal(t, []SimRecord{{ID: 1500, Finger: "alice"}}, cfg.Sim.Enrolled)

	accessCfg, err := cfg.AccessConfig()
	require.NoError(t, err)
	assert.Equal(t, "B12", accessCfg.Room)
	assert.Equal(t, 5*time.Second, accessCfg.SelectionTimeout)
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	_, err := ParseConfig(`identity_min = 5000
identity_max = 4000`)
	assert.Error(t, err)

	_, err = ParseConfig(`poll_interval = "0s"`)
	assert.Error(t, err)

	_, err = ParseConfig(`room = `)
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`room = "101"`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "101", cfg.Room)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestAccessConfigRequiresRoom(t *testing.T) {
	_, err := DefaultConfig().AccessConfig()
	assert.Error(t, err)
}

func TestNewSimSensorPreloadsRecords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sim.Enrolled = []SimRecord{{ID: 1500, Finger: "alice"}, {ID: 1600, Finger: "bob"}}

	sensor, err := cfg.NewSimSensor()
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{1500, 1600}, sensor.Identities())

	cfg.Sim.Enrolled = []SimRecord{{ID: 42, Finger: "carol"}}
	_, err = cfg.NewSimSensor()
	assert.ErrorIs(t, err, model.ErrInvalidIdentity)
}
