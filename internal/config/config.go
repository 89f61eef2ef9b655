// Package config loads wavein settings from an optional YAML file, an
// optional .env file and WAVEIN_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	LedgerCSV    = "csv"
	LedgerSQLite = "sqlite"
)

type Config struct {
	DataDir string        `yaml:"data_dir"`
	Camera  CameraConfig  `yaml:"camera"`
	Match   MatchConfig   `yaml:"match"`
	Enroll  EnrollConfig  `yaml:"enroll"`
	Mark    MarkConfig    `yaml:"mark"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Server  ServerConfig  `yaml:"server"`
	Files   FilesConfig   `yaml:"files"`
	Hand    HandConfig    `yaml:"hand"`
	Plugins PluginsConfig `yaml:"plugins"`
	Tray    bool          `yaml:"tray"`
}

type CameraConfig struct {
	Device          string  `yaml:"device"` // index ("0") or file/URL
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	IdleFPS         int     `yaml:"idle_fps"`
	ActiveFPS       int     `yaml:"active_fps"`
}

type MatchConfig struct {
	Threshold  float64 `yaml:"threshold"`
	Downsample float64 `yaml:"downsample"`
	SampleSize int     `yaml:"sample_size"`
}

type EnrollConfig struct {
	Samples  int           `yaml:"samples"`
	Interval time.Duration `yaml:"interval"`
}

type MarkConfig struct {
	Gesture  string        `yaml:"gesture"`
	Cooldown time.Duration `yaml:"cooldown"`
}

type LedgerConfig struct {
	Backend string `yaml:"backend"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// FilesConfig holds file and directory names. Relative entries resolve
// against DataDir.
type FilesConfig struct {
	Gallery  string `yaml:"gallery"`
	Ledger   string `yaml:"ledger"`
	Database string `yaml:"database"`
	Samples  string `yaml:"samples"`
	Plugins  string `yaml:"plugins"`
	Models   string `yaml:"models"`
}

type HandConfig struct {
	Script        string  `yaml:"script"` // empty searches the usual locations
	MinConfidence float64 `yaml:"min_confidence"`
}

type PluginsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".wavein"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".wavein")
	}
	return &Config{
		DataDir: dataDir,
		Camera: CameraConfig{
			Device:          "0",
			Width:           640,
			Height:          480,
			MotionThreshold: 1.0,
			IdleFPS:         5,
			ActiveFPS:       15,
		},
		Match: MatchConfig{
			Threshold:  0.6,
			Downsample: 0.25,
			SampleSize: 200,
		},
		Enroll: EnrollConfig{
			Samples:  10,
			Interval: 2 * time.Second,
		},
		Mark: MarkConfig{
			Gesture:  "open_hand",
			Cooldown: 5 * time.Second,
		},
		Ledger: LedgerConfig{Backend: LedgerCSV},
		Server: ServerConfig{Listen: ":8080"},
		Files: FilesConfig{
			Gallery:  "face_encodings.gob",
			Ledger:   "attendance.csv",
			Database: "wavein.db",
			Samples:  "face_images",
			Plugins:  "plugins",
			Models:   "models",
		},
		Hand:    HandConfig{MinConfidence: 0.5},
		Plugins: PluginsConfig{Timeout: 5 * time.Second},
	}
}

// Load builds the configuration. path may be empty; a missing file at an
// explicit path is an error, a missing .env is not.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = envString("WAVEIN_DATA_DIR", c.DataDir)
	c.Camera.Device = envString("WAVEIN_CAMERA", c.Camera.Device)
	c.Camera.Width = envInt("WAVEIN_CAMERA_WIDTH", c.Camera.Width)
	c.Camera.Height = envInt("WAVEIN_CAMERA_HEIGHT", c.Camera.Height)
	c.Camera.MotionThreshold = envFloat("WAVEIN_MOTION_THRESHOLD", c.Camera.MotionThreshold)
	c.Match.Threshold = envFloat("WAVEIN_MATCH_THRESHOLD", c.Match.Threshold)
	c.Match.Downsample = envFloat("WAVEIN_DOWNSAMPLE", c.Match.Downsample)
	c.Enroll.Samples = envInt("WAVEIN_ENROLL_SAMPLES", c.Enroll.Samples)
	c.Enroll.Interval = envDuration("WAVEIN_ENROLL_INTERVAL", c.Enroll.Interval)
	c.Mark.Gesture = envString("WAVEIN_MARK_GESTURE", c.Mark.Gesture)
	c.Mark.Cooldown = envDuration("WAVEIN_MARK_COOLDOWN", c.Mark.Cooldown)
	c.Ledger.Backend = envString("WAVEIN_LEDGER", c.Ledger.Backend)
	c.Server.Listen = envString("WAVEIN_LISTEN", c.Server.Listen)
	c.Plugins.Timeout = envDuration("WAVEIN_PLUGIN_TIMEOUT", c.Plugins.Timeout)
	c.Hand.Script = envString("WAVEIN_HAND_SCRIPT", c.Hand.Script)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("config: data_dir is required")
	case c.Match.Threshold <= 0:
		return fmt.Errorf("config: match.threshold must be positive, got %v", c.Match.Threshold)
	case c.Match.Downsample <= 0 || c.Match.Downsample > 1:
		return fmt.Errorf("config: match.downsample must be in (0, 1], got %v", c.Match.Downsample)
	case c.Enroll.Samples <= 0:
		return fmt.Errorf("config: enroll.samples must be positive, got %d", c.Enroll.Samples)
	case c.Ledger.Backend != LedgerCSV && c.Ledger.Backend != LedgerSQLite:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	return nil
}

// Path resolves name against DataDir unless it is absolute.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *Config) GalleryPath() string  { return c.Path(c.Files.Gallery) }
func (c *Config) LedgerPath() string   { return c.Path(c.Files.Ledger) }
func (c *Config) DatabasePath() string { return c.Path(c.Files.Database) }
func (c *Config) SamplesDir() string   { return c.Path(c.Files.Samples) }
func (c *Config) PluginsDir() string   { return c.Path(c.Files.Plugins) }
func (c *Config) ModelsDir() string    { return c.Path(c.Files.Models) }

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads a positive integer, falling back on unset or invalid values.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration accepts Go durations ("2s") or bare seconds ("2").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n > 0 {
		return time.Duration(n * float64(time.Second))
	}
	return defaultVal
}
