package config

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	if err := c.normalizeMedia(); err != nil {
		return err
	}
	if err := c.normalizeProbe(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeArchive() error {
	if value, ok := os.LookupEnv("CARDVAULT_PRIMARY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Archive.PrimaryDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CARDVAULT_BACKUP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Archive.BackupDir = strings.TrimSpace(value)
	}
	var err error
	if c.Archive.PrimaryDir, err = expandPath(strings.TrimSpace(c.Archive.PrimaryDir)); err != nil {
		return fmt.Errorf("archive.primary_dir: %w", err)
	}
	if c.Archive.BackupDir, err = expandPath(strings.TrimSpace(c.Archive.BackupDir)); err != nil {
		return fmt.Errorf("archive.backup_dir: %w", err)
	}
	c.Archive.PrimaryMarker = strings.TrimSpace(c.Archive.PrimaryMarker)
	c.Archive.BackupMarker = strings.TrimSpace(c.Archive.BackupMarker)
	return nil
}

func (c *Config) normalizeMedia() error {
	var err error
	if strings.TrimSpace(c.Media.MountRoot) == "" {
		c.Media.MountRoot = defaultMountRoot
	}
	if c.Media.MountRoot, err = expandPath(c.Media.MountRoot); err != nil {
		return fmt.Errorf("media.mount_root: %w", err)
	}
	c.Media.User = strings.TrimSpace(c.Media.User)
	if c.Media.User == "" {
		c.Media.User = currentLogin()
	}
	c.Media.UnmountBinary = strings.TrimSpace(c.Media.UnmountBinary)
	if c.Media.UnmountBinary == "" {
		c.Media.UnmountBinary = defaultUnmountBinary
	}
	return nil
}

func (c *Config) normalizeProbe() error {
	c.Probe.Backend = strings.ToLower(strings.TrimSpace(c.Probe.Backend))
	if c.Probe.Backend == "" {
		c.Probe.Backend = defaultProbeBackend
	}
	c.Probe.ExifToolBinary = strings.TrimSpace(c.Probe.ExifToolBinary)
	if c.Probe.ExifToolBinary == "" {
		c.Probe.ExifToolBinary = defaultExifToolBinary
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Transfer.MockPlanFile) != "" {
		if c.Transfer.MockPlanFile, err = expandPath(strings.TrimSpace(c.Transfer.MockPlanFile)); err != nil {
			return fmt.Errorf("transfer.mock_plan_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

func currentLogin() string {
	if u, err := user.Current(); err == nil && strings.TrimSpace(u.Username) != "" {
		return u.Username
	}
	return strings.TrimSpace(os.Getenv("USER"))
}
