package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateArchive() error {
	if strings.TrimSpace(c.Archive.PrimaryDir) == "" {
		return errors.New("archive.primary_dir must be set")
	}
	if strings.TrimSpace(c.Archive.BackupDir) == "" {
		return errors.New("archive.backup_dir must be set")
	}
	if filepath.Clean(c.Archive.PrimaryDir) == filepath.Clean(c.Archive.BackupDir) {
		return fmt.Errorf("archive.primary_dir and archive.backup_dir must differ (both %s)", c.Archive.PrimaryDir)
	}
	for key, marker := range map[string]string{
		"archive.primary_marker": c.Archive.PrimaryMarker,
		"archive.backup_marker":  c.Archive.BackupMarker,
	} {
		if strings.ContainsRune(marker, filepath.Separator) {
			return fmt.Errorf("%s must be a file name, not a path", key)
		}
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.DayBreakSeconds <= 0 {
		return errors.New("session.day_break_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProbe() error {
	switch c.Probe.Backend {
	case ProbeBackendExifTool, ProbeBackendNative:
	default:
		return fmt.Errorf("probe.backend: unsupported value %q (want %q or %q)", c.Probe.Backend, ProbeBackendExifTool, ProbeBackendNative)
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return errors.New("probe.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}
