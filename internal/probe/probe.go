package probe

import (
	"cardvault/internal/capture"
	"cardvault/internal/config"
)

// FromConfig returns the prober selected by probe.backend.
func FromConfig(cfg *config.Config) capture.Prober {
	if cfg.Probe.Backend == config.ProbeBackendNative {
		return NativeEXIF{}
	}
	return ExifTool{Binary: cfg.Probe.ExifToolBinary, Timeout: cfg.ProbeTimeout()}
}
