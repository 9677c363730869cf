package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Archive describes the primary and backup archive trees.
type Archive struct {
	PrimaryDir    string `toml:"primary_dir"`
	BackupDir     string `toml:"backup_dir"`
	PrimaryMarker string `toml:"primary_marker"`
	BackupMarker  string `toml:"backup_marker"`
}

// Media describes where removable cards are mounted and how they are released.
type Media struct {
	MountRoot     string `toml:"mount_root"`
	User          string `toml:"user"`
	Unmount       bool   `toml:"unmount"`
	UnmountBinary string `toml:"unmount_binary"`
}

// Session contains the day/session bucketing threshold.
type Session struct {
	DayBreakSeconds int `toml:"day_break_seconds"`
}

// Probe configures the embedded capture-date fallback.
type Probe struct {
	Backend        string `toml:"backend"`
	ExifToolBinary string `toml:"exiftool_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transfer contains transfer-operation settings.
type Transfer struct {
	MockPlanFile string `toml:"mock_plan_file"`
}

// Paths contains state and log directories.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Ledger toggles the SQLite import history.
type Ledger struct {
	Enabled bool `toml:"enabled"`
}

// Notifications configures push messages sent when unattended imports finish.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for cardvault.
//
// Configuration sections by subsystem:
//   - Archive: primary/backup archive roots and their sanity markers
//   - Media: card mount root, owning user, unmount behaviour
//   - Session: minimum gap that starts a new archive day
//   - Probe: embedded capture-date fallback backend
//   - Transfer: mock plan output
//   - Paths: state (lock, ledger) and log directories
//   - Ledger: import history persistence
//   - Notifications: ntfy topic for import results
//   - Logging: log format, level, and rotation
type Config struct {
	Archive       Archive       `toml:"archive"`
	Media         Media         `toml:"media"`
	Session       Session       `toml:"session"`
	Probe         Probe         `toml:"probe"`
	Transfer      Transfer      `toml:"transfer"`
	Paths         Paths         `toml:"paths"`
	Ledger        Ledger        `toml:"ledger"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Overrides carries command-line values that take precedence over the file.
type Overrides struct {
	PrimaryDir string
	BackupDir  string
	MountRoot  string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cardvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ApplyOverrides replaces archive and media locations with command-line values
// and re-validates the result.
func (c *Config) ApplyOverrides(o Overrides) error {
	var err error
	if v := strings.TrimSpace(o.PrimaryDir); v != "" {
		if c.Archive.PrimaryDir, err = expandPath(v); err != nil {
			return fmt.Errorf("--main: %w", err)
		}
	}
	if v := strings.TrimSpace(o.BackupDir); v != "" {
		if c.Archive.BackupDir, err = expandPath(v); err != nil {
			return fmt.Errorf("--bak: %w", err)
		}
	}
	if v := strings.TrimSpace(o.MountRoot); v != "" {
		if c.Media.MountRoot, err = expandPath(v); err != nil {
			return fmt.Errorf("--media: %w", err)
		}
	}
	return c.Validate()
}

// EnsureDirectories creates the state and log directories. Archive roots are
// never created here: their absence is a precondition failure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DayBreak returns the session break threshold.
func (c *Config) DayBreak() time.Duration {
	return time.Duration(c.Session.DayBreakSeconds) * time.Second
}

// ProbeTimeout returns the per-file probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "cardvault.lock")
}

// WatchLockPath returns the lock held for the lifetime of "cardvault watch".
func (c *Config) WatchLockPath() string {
	return filepath.Join(c.Paths.StateDir, "watch.lock")
}

// LedgerPath returns the import history database location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LogPath returns the rotating log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cardvault.log")
}

// MarkerPath returns the sanity marker path for an archive root, or "" when
// the marker check is disabled.
func MarkerPath(root, marker string) string {
	if strings.TrimSpace(marker) == "" {
		return ""
	}
	return filepath.Join(root, marker)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
