// ABOUTME: Session and settings configuration loaded from TOML
// ABOUTME: Holds player, remote, logging and track list settings with defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	Player  PlayerConfig  `toml:"player"`
	Remote  RemoteConfig  `toml:"remote"`
	Logging LoggingConfig `toml:"logging"`
	Tracks  []TrackConfig `toml:"track"`
}

// PlayerConfig contains playback settings
type PlayerConfig struct {
	// Engine is "oto" (audio device) or "memory" (dry run)
	Engine         string   `toml:"engine"`
	UpdateInterval Duration `toml:"update_interval"`
	BufferSize     Duration `toml:"buffer_size"`
	// SampleRate overrides the reference output rate when non-zero
	SampleRate int `toml:"sample_rate"`
	// Duration is "longest" or "shortest"
	Duration string `toml:"duration"`
	// Format is "lowest" or "highest" sample rate
	Format string `toml:"format"`
	// Loop restarts the group from the top when it finishes
	Loop bool `toml:"loop"`
}

// RemoteConfig contains websocket remote-control settings
type RemoteConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	MDNS    bool   `toml:"mdns"`
	Name    string `toml:"name"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TrackConfig is one [[track]] entry
type TrackConfig struct {
	Path  string   `toml:"path"`
	Delay Duration `toml:"delay"`
	// Gain is optional; unset means unity
	Gain *float64 `toml:"gain,omitempty"`
}

// GainOrDefault returns Gain, or 1 when unset
func (t TrackConfig) GainOrDefault() float64 {
	if t.Gain == nil {
		return 1
	}
	return *t.Gain
}

// Duration is a time.Duration written as "2.5s" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText accepts Go duration strings or plain seconds ("2.5")
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalTOML also accepts bare TOML numbers as seconds
func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case int64:
		d.Duration = time.Duration(v) * time.Second
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration value %v (%T)", v, v)
	}
	return nil
}

// MarshalText writes the duration string form
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ParseDuration parses "1m30s", "250ms" or bare seconds like "2.5"
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Player: PlayerConfig{
			Engine:         "oto",
			UpdateInterval: Duration{100 * time.Millisecond},
			BufferSize:     Duration{100 * time.Millisecond},
			Duration:       "longest",
			Format:         "lowest",
		},
		Remote: RemoteConfig{
			Enabled: false,
			Port:    8928,
			MDNS:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "multitrack.log",
		},
	}
}

// Load reads a TOML file over the defaults. Relative track paths resolve
// against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logrus.Warnf("Ignoring unknown config keys in %s: %v", path, undecoded)
	}

	base := filepath.Dir(path)
	for i := range cfg.Tracks {
		p := cfg.Tracks[i].Path
		if p != "" && !filepath.IsAbs(p) {
			cfg.Tracks[i].Path = filepath.Join(base, p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as TOML
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := "# Multitrack session\n# Each [[track]] is placed on the shared timeline after its delay.\n\n"
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return nil
}

var (
	validEngines   = map[string]bool{"oto": true, "memory": true}
	validDurations = map[string]bool{"longest": true, "shortest": true}
	validFormats   = map[string]bool{"lowest": true, "highest": true}
	validLevels    = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
)

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if !validEngines[c.Player.Engine] {
		result = multierror.Append(result, fmt.Errorf("invalid engine: %q (must be oto or memory)", c.Player.Engine))
	}
	if c.Player.UpdateInterval.Duration <= 0 {
		result = multierror.Append(result, fmt.Errorf("update interval must be positive"))
	}
	if c.Player.BufferSize.Duration < 0 {
		result = multierror.Append(result, fmt.Errorf("buffer size cannot be negative"))
	}
	if c.Player.SampleRate < 0 {
		result = multierror.Append(result, fmt.Errorf("sample rate cannot be negative"))
	}
	if !validDurations[c.Player.Duration] {
		result = multierror.Append(result, fmt.Errorf("invalid duration policy: %q (must be longest or shortest)", c.Player.Duration))
	}
	if !validFormats[c.Player.Format] {
		result = multierror.Append(result, fmt.Errorf("invalid format policy: %q (must be lowest or highest)", c.Player.Format))
	}

	if c.Remote.Enabled && (c.Remote.Port < 1 || c.Remote.Port > 65535) {
		result = multierror.Append(result, fmt.Errorf("remote port out of range: %d", c.Remote.Port))
	}

	if !validLevels[c.Logging.Level] {
		result = multierror.Append(result, fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", c.Logging.Level))
	}

	for i, t := range c.Tracks {
		if t.Path == "" {
			result = multierror.Append(result, fmt.Errorf("track %d: path cannot be empty", i))
		}
		if t.Delay.Duration < 0 {
			result = multierror.Append(result, fmt.Errorf("track %d: delay cannot be negative", i))
		}
		if t.Gain != nil && *t.Gain < 0 {
			result = multierror.Append(result, fmt.Errorf("track %d: gain cannot be negative", i))
		}
	}

	return result.ErrorOrNil()
}

// ParseTrack parses a command-line track of the form path[@delay[:gain]]
func ParseTrack(spec string) (TrackConfig, error) {
	t := TrackConfig{Path: spec}

	at := strings.LastIndex(spec, "@")
	if at < 0 {
		return t, nil
	}
	t.Path = spec[:at]
	rest := spec[at+1:]
	if t.Path == "" {
		return t, fmt.Errorf("track %q: path cannot be empty", spec)
	}

	delayPart, gainPart, hasGain := strings.Cut(rest, ":")
	delay, err := ParseDuration(delayPart)
	if err != nil {
		return t, fmt.Errorf("track %q: %w", spec, err)
	}
	if delay < 0 {
		return t, fmt.Errorf("track %q: delay cannot be negative", spec)
	}
	t.Delay = Duration{delay}

	if hasGain {
		gain, err := strconv.ParseFloat(gainPart, 64)
		if err != nil {
			return t, fmt.Errorf("track %q: invalid gain %q: %w", spec, gainPart, err)
		}
		if gain < 0 {
			return t, fmt.Errorf("track %q: gain cannot be negative", spec)
		}
		t.Gain = &gain
	}

	return t, nil
}

// LogLevel returns the logrus level for Logging.Level
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
