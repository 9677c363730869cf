package config

const (
	defaultPrimaryDir      = "~/Pictures"
	defaultBackupDir       = "~/Pictures-backup"
	defaultPrimaryMarker   = "raid-sanity-main"
	defaultBackupMarker    = "raid-sanity-backup"
	defaultMountRoot       = "/media"
	defaultUnmountBinary   = "umount"
	defaultDayBreakSeconds = 4 * 3600
	defaultProbeBackend    = ProbeBackendExifTool
	defaultExifToolBinary  = "exiftool"
	defaultProbeTimeout    = 30
	defaultStateDir        = "~/.local/share/cardvault"
	defaultLogDir          = "~/.local/share/cardvault/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 5
	defaultNotifyTimeout   = 10
)

const (
	// ProbeBackendExifTool shells out to exiftool for embedded capture dates.
	ProbeBackendExifTool = "exiftool"
	// ProbeBackendNative decodes EXIF in-process; TIFF-family formats only.
	ProbeBackendNative = "native"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Archive: Archive{
			PrimaryDir:    defaultPrimaryDir,
			BackupDir:     defaultBackupDir,
			PrimaryMarker: defaultPrimaryMarker,
			BackupMarker:  defaultBackupMarker,
		},
		Media: Media{
			MountRoot:     defaultMountRoot,
			Unmount:       true,
			UnmountBinary: defaultUnmountBinary,
		},
		Session: Session{
			DayBreakSeconds: defaultDayBreakSeconds,
		},
		Probe: Probe{
			Backend:        defaultProbeBackend,
			ExifToolBinary: defaultExifToolBinary,
			TimeoutSeconds: defaultProbeTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
