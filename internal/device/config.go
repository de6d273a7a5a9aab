// Package device runs the enrollment station and room unit profiles.
package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/sampler/sim"
	"github.com/mcoot/veriloc/internal/services/access"
)

// Config is the device configuration file
type Config struct {
	// Room is the room number a room unit reports for
	Room string `toml:"room"`
	// ServerURL is the base URL of the remote authority
	ServerURL string `toml:"server_url" default:"http://localhost:8080"`

	IdentityMin int `toml:"identity_min" default:"1000"`
	IdentityMax int `toml:"identity_max" default:"9999"`

	PollInterval     time.Duration `toml:"poll_interval" default:"100ms"`
	CaptureTimeout   time.Duration `toml:"capture_timeout" default:"30s"`
	RemovalTimeout   time.Duration `toml:"removal_timeout" default:"30s"`
	SelectionTimeout time.Duration `toml:"selection_timeout" default:"30s"`
	RequestTimeout   time.Duration `toml:"request_timeout" default:"10s"`
	ProbeTimeout     time.Duration `toml:"probe_timeout" default:"2s"`

	// LogFile enables rotating file logs at this path; empty logs to stdout
	LogFile string `toml:"log_file"`
	// MetricsAddr serves /metrics when set, e.g. ":9100"
	MetricsAddr string `toml:"metrics_addr"`

	Sim SimConfig `toml:"sim"`
}

// SimConfig configures the simulated sensor
type SimConfig struct {
	Capacity int  `toml:"capacity" default:"127"`
	AutoLift bool `toml:"auto_lift" default:"true"`
	// Enrolled preloads the sensor library
	Enrolled []SimRecord `toml:"enrolled"`
}

// SimRecord is one preloaded simulated record
type SimRecord struct {
	ID     int    `toml:"id"`
	Finger string `toml:"finger"`
}

// DefaultConfig returns a Config holding only defaults
func DefaultConfig() Config {
	var cfg Config
	defaults.SetDefaults(&cfg)
	return cfg
}

// LoadConfig reads a TOML file over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading device config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ParseConfig decodes TOML text over the defaults
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing device config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings shared by both profiles
func (c Config) Validate() error {
	if err := c.IdentityRange().Validate(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.CaptureTimeout < 0 || c.RemovalTimeout < 0 || c.SelectionTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// IdentityRange returns the configured identity range
func (c Config) IdentityRange() model.IdentityRange {
	return model.IdentityRange{Min: model.Identity(c.IdentityMin), Max: model.Identity(c.IdentityMax)}
}

// PollConfig returns the sampler polling settings
func (c Config) PollConfig() sampler.PollConfig {
	return sampler.PollConfig{
		Interval:       c.PollInterval,
		CaptureTimeout: c.CaptureTimeout,
		RemovalTimeout: c.RemovalTimeout,
	}
}

// AccessConfig returns the room unit settings; the room must be set
func (c Config) AccessConfig() (access.Config, error) {
	room := model.NormalizeRoomNumber(c.Room)
	if room == "" {
		return access.Config{}, errors.New("room is required for a room unit")
	}
	return access.Config{Room: room, SelectionTimeout: c.SelectionTimeout}, nil
}

// NewSimSensor builds the simulated sensor with its preloaded records
func (c Config) NewSimSensor() (*sim.Sensor, error) {
	sensor := sim.New(sim.Config{Capacity: c.Sim.Capacity, AutoLift: c.Sim.AutoLift})
	for _, rec := range c.Sim.Enrolled {
		id := model.Identity(rec.ID)
		if !c.IdentityRange().Contains(id) {
			return nil, fmt.Errorf("sim record %d: %w", rec.ID, model.ErrInvalidIdentity)
		}
		if err := sensor.Enroll(id, rec.Finger); err != nil {
			return nil, err
		}
	}
	return sensor, nil
}
