package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Config holds runtime configuration for the relay controller and the
// ground-station reader. Fields may be loaded from a JSON or YAML file and
// overridden by SPUTNIK_* environment variables.
type Config struct {
	Debug     DebugConfig     `json:"debug" yaml:"debug"`
	Camera    CameraConfig    `json:"camera" yaml:"camera"`
	Serial    SerialConfig    `json:"serial" yaml:"serial"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Relay     RelayConfig     `json:"relay" yaml:"relay"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	UI        UIConfig        `json:"ui" yaml:"ui"`
}

type DebugConfig struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	LogInterval Duration `json:"log_interval" yaml:"log_interval"`
}

// CameraConfig selects the frame source. Source is one of "camera",
// "screen" or "replay".
type CameraConfig struct {
	Source    string `json:"source" yaml:"source"`
	Device    int    `json:"device" yaml:"device"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	ReplayDir string `json:"replay_dir" yaml:"replay_dir"`
	Loop      bool   `json:"loop" yaml:"loop"`
	ScreenX   int    `json:"screen_x" yaml:"screen_x"`
	ScreenY   int    `json:"screen_y" yaml:"screen_y"`
}

type SerialConfig struct {
	Port        string   `json:"port" yaml:"port"`
	Baud        int      `json:"baud" yaml:"baud"`
	ReadTimeout Duration `json:"read_timeout" yaml:"read_timeout"`
	Settle      Duration `json:"settle" yaml:"settle"`
}

type DetectionConfig struct {
	MinAreaRatio  float64 `json:"min_area_ratio" yaml:"min_area_ratio"`
	MaxAreaRatio  float64 `json:"max_area_ratio" yaml:"max_area_ratio"`
	SaturationMin int     `json:"saturation_min" yaml:"saturation_min"`
	SaturationMax int     `json:"saturation_max" yaml:"saturation_max"`
	ValueMin      int     `json:"value_min" yaml:"value_min"`
	ValueMax      int     `json:"value_max" yaml:"value_max"`
	RBMin         float64 `json:"rb_min" yaml:"rb_min"`
	RBMax         float64 `json:"rb_max" yaml:"rb_max"`
	BlurKernel    int     `json:"blur_kernel" yaml:"blur_kernel"`
	MorphKernel   int     `json:"morph_kernel" yaml:"morph_kernel"`
}

// RelayConfig tunes the relay. A Cooldown of zero or less is replaced with
// the default 5s; alerts cannot be unthrottled. HeartbeatEvery of 0
// disables the heartbeat.
type RelayConfig struct {
	Cooldown       Duration `json:"cooldown" yaml:"cooldown"`
	HeartbeatEvery int      `json:"heartbeat_every" yaml:"heartbeat_every"`
	ChunkSize      int      `json:"chunk_size" yaml:"chunk_size"`
	StartDelay     Duration `json:"start_delay" yaml:"start_delay"`
	ChunkDelay     Duration `json:"chunk_delay" yaml:"chunk_delay"`
	EndDelay       Duration `json:"end_delay" yaml:"end_delay"`
	ImageWidth     int      `json:"image_width" yaml:"image_width"`
	ImageHeight    int      `json:"image_height" yaml:"image_height"`
	JPEGQuality    int      `json:"jpeg_quality" yaml:"jpeg_quality"`
}

type TelemetryConfig struct {
	Ports            []string `json:"ports" yaml:"ports"`
	Baud             int      `json:"baud" yaml:"baud"`
	PollInterval     Duration `json:"poll_interval" yaml:"poll_interval"`
	SimulateInterval Duration `json:"simulate_interval" yaml:"simulate_interval"`
}

type HTTPConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
}

type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type UIConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Dark    bool `json:"dark" yaml:"dark"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug: DebugConfig{LogInterval: Duration(10 * time.Second)},
		Camera: CameraConfig{
			Source: "camera",
			Width:  640,
			Height: 480,
		},
		Serial: SerialConfig{
			Port:        "/dev/ttyUSB0",
			Baud:        9600,
			ReadTimeout: Duration(time.Second),
			Settle:      Duration(2 * time.Second),
		},
		Detection: DetectionConfig{
			MinAreaRatio:  0.01,
			MaxAreaRatio:  0.6,
			SaturationMin: 0,
			SaturationMax: 60,
			ValueMin:      40,
			ValueMax:      180,
			RBMin:         -0.2,
			RBMax:         0.2,
			BlurKernel:    5,
			MorphKernel:   5,
		},
		Relay: RelayConfig{
			Cooldown:       Duration(5 * time.Second),
			HeartbeatEvery: 900,
			ChunkSize:      64,
			StartDelay:     Duration(10 * time.Millisecond),
			ChunkDelay:     Duration(5 * time.Millisecond),
			EndDelay:       Duration(10 * time.Millisecond),
			ImageWidth:     320,
			ImageHeight:    240,
			JPEGQuality:    70,
		},
		Telemetry: TelemetryConfig{
			Ports:            []string{"/dev/ttyUSB0", "/dev/ttyACM0", "/dev/tty.usbserial-1410", "COM3"},
			Baud:             9600,
			PollInterval:     Duration(100 * time.Millisecond),
			SimulateInterval: Duration(5 * time.Second),
		},
		HTTP:    HTTPConfig{AllowOrigins: []string{"*"}},
		Journal: JournalConfig{Path: "sputnik-journal.db"},
		UI:      UIConfig{Enabled: false},
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	switch c.Camera.Source {
	case "camera", "screen", "replay":
	default:
		c.Camera.Source = d.Camera.Source
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		c.Camera.Width, c.Camera.Height = d.Camera.Width, d.Camera.Height
	}
	if c.Camera.Source == "replay" && c.Camera.ReplayDir == "" {
		return errs.New(errs.KindConfig, "validate", "camera.replay_dir is required for the replay source")
	}
	if c.Serial.Baud <= 0 {
		c.Serial.Baud = d.Serial.Baud
	}
	if c.Serial.ReadTimeout <= 0 {
		c.Serial.ReadTimeout = d.Serial.ReadTimeout
	}
	if c.Serial.Settle < 0 {
		c.Serial.Settle = 0
	}

	det := &c.Detection
	if det.MinAreaRatio < 0 || det.MinAreaRatio >= 1 {
		det.MinAreaRatio = d.Detection.MinAreaRatio
	}
	if det.MaxAreaRatio <= det.MinAreaRatio || det.MaxAreaRatio > 1 {
		det.MaxAreaRatio = d.Detection.MaxAreaRatio
	}
	det.SaturationMin, det.SaturationMax = clampByteRange(det.SaturationMin, det.SaturationMax, d.Detection.SaturationMin, d.Detection.SaturationMax)
	det.ValueMin, det.ValueMax = clampByteRange(det.ValueMin, det.ValueMax, d.Detection.ValueMin, d.Detection.ValueMax)
	if det.RBMin < -1 || det.RBMax > 1 || det.RBMin > det.RBMax {
		det.RBMin, det.RBMax = d.Detection.RBMin, d.Detection.RBMax
	}
	if det.BlurKernel < 1 || det.BlurKernel%2 == 0 {
		det.BlurKernel = d.Detection.BlurKernel
	}
	if det.MorphKernel < 1 || det.MorphKernel%2 == 0 {
		det.MorphKernel = d.Detection.MorphKernel
	}

	r := &c.Relay
	// The cooldown always applies; zero or negative means the default.
	if r.Cooldown <= 0 {
		r.Cooldown = d.Relay.Cooldown
	}
	if r.HeartbeatEvery < 0 {
		r.HeartbeatEvery = 0
	}
	if r.ChunkSize <= 0 {
		r.ChunkSize = d.Relay.ChunkSize
	}
	if r.StartDelay < 0 || r.ChunkDelay < 0 || r.EndDelay < 0 {
		r.StartDelay, r.ChunkDelay, r.EndDelay = d.Relay.StartDelay, d.Relay.ChunkDelay, d.Relay.EndDelay
	}
	if r.ImageWidth <= 0 || r.ImageHeight <= 0 {
		r.ImageWidth, r.ImageHeight = d.Relay.ImageWidth, d.Relay.ImageHeight
	}
	if r.JPEGQuality < 1 || r.JPEGQuality > 100 {
		r.JPEGQuality = d.Relay.JPEGQuality
	}

	if len(c.Telemetry.Ports) == 0 {
		c.Telemetry.Ports = d.Telemetry.Ports
	}
	if c.Telemetry.Baud <= 0 {
		c.Telemetry.Baud = d.Telemetry.Baud
	}
	if c.Telemetry.PollInterval <= 0 {
		c.Telemetry.PollInterval = d.Telemetry.PollInterval
	}
	if c.Telemetry.SimulateInterval <= 0 {
		c.Telemetry.SimulateInterval = d.Telemetry.SimulateInterval
	}
	if c.Debug.LogInterval <= 0 {
		c.Debug.LogInterval = d.Debug.LogInterval
	}
	if c.Journal.Path == "" {
		c.Journal.Path = d.Journal.Path
	}
	return nil
}

func clampByteRange(lo, hi, defLo, defHi int) (int, int) {
	if lo < 0 || hi > 255 || lo > hi {
		return defLo, defHi
	}
	return lo, hi
}

// Load reads configuration from path. JSON is used unless the extension is
// .yaml or .yml. If the file does not exist it returns DefaultConfig() with
// environment overrides applied. A .env file next to the working directory
// is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, errs.Wrap(errs.KindConfig, "load", "read "+path, err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return cfg, errs.Wrap(errs.KindConfig, "load", "decode "+path, err)
			}
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to path, as YAML for .yaml/.yml and
// indented JSON otherwise.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindConfig, "save", "create "+path, err)
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return errs.Wrap(errs.KindConfig, "save", "encode yaml", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
