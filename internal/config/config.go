// Package config holds the runtime settings of cellscan: where the
// prediction service lives, how long the UI keeps notifications on screen,
// and where files are written.
package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"

	"cellscan/pkg/utils"
)

// AppName is used for XDG directory paths.
const AppName = "cellscan"

// Defaults.
const (
	DefaultServerURL = "http://127.0.0.1:5000"

	// DefaultTimeout bounds one /predict round trip. Model inference on a
	// large batch is slow, so keep it generous.
	DefaultTimeout = 2 * time.Minute

	DefaultNotificationDuration = 4 * time.Second
	DefaultWarningDuration      = 6 * time.Second

	DefaultMaxFilenameLength = utils.DefaultFilenameLength
	DefaultPreviewWidth      = 16
	DefaultPreviewHeight     = 8
	DefaultMaxDepth          = -1
)

// Config holds all user-tunable settings. It is populated from defaults, then
// the optional YAML file, then CLI flags.
type Config struct {
	// ServerURL is the base URL of the prediction service; /predict and
	// /download are resolved against it.
	ServerURL string `yaml:"server_url"`

	// Timeout applies to each request. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`

	// NotificationDuration is the default auto-dismiss delay.
	NotificationDuration time.Duration `yaml:"notification_duration"`
	// WarningDuration is used for warnings and informational results.
	WarningDuration time.Duration `yaml:"warning_duration"`

	MaxFilenameLength int `yaml:"max_filename_length"`

	// Preview thumbnail size in terminal cells.
	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`

	// Concurrency for preview decoding.
	Concurrency int `yaml:"concurrency"`

	MaxDepth      int      `yaml:"max_depth"`
	Excludes      []string `yaml:"excludes"`
	FollowSymlink bool     `yaml:"follow_symlinks"`

	DownloadDir string `yaml:"download_dir"`
	LogFile     string `yaml:"log_file"`
	Verbose     bool   `yaml:"verbose"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		ServerURL:            DefaultServerURL,
		Timeout:              DefaultTimeout,
		NotificationDuration: DefaultNotificationDuration,
		WarningDuration:      DefaultWarningDuration,
		MaxFilenameLength:    DefaultMaxFilenameLength,
		PreviewWidth:         DefaultPreviewWidth,
		PreviewHeight:        DefaultPreviewHeight,
		Concurrency:          runtime.NumCPU(),
		MaxDepth:             DefaultMaxDepth,
		DownloadDir:          DefaultDownloadDir(),
		LogFile:              DefaultLogFile(),
	}
}

// DefaultDownloadDir is ~/Downloads/cellscan on most systems.
func DefaultDownloadDir() string {
	return filepath.Join(xdg.UserDirs.Download, AppName)
}

// DefaultLogFile lives under the XDG state directory.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

// DefaultConfigFile is $XDG_CONFIG_HOME/cellscan/config.yaml.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return ErrNoServerURL
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.NotificationDuration < 0 || c.WarningDuration < 0 {
		return ErrInvalidDuration
	}
	if c.MaxFilenameLength <= 0 {
		return ErrInvalidFilenameLength
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		return ErrInvalidPreviewSize
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return nil
}
