package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"cardvault/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the cardvault configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the annotated sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := sampleTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("inspect %s: %w", target, statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample configuration written to %s\n", target)
			fmt.Fprintln(out, "Next: point archive.primary_dir and archive.backup_dir at your archives and touch the marker file in each.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default ~/.config/cardvault/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func sampleTarget(flagValue string) (string, error) {
	flagValue = strings.TrimSpace(flagValue)
	if flagValue == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(flagValue)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", flagValue, err)
	}
	return path, nil
}

// loadForInspection loads the file named by --config without the lazy
// commandContext so that errors are reported rather than cached.
func loadForInspection(ctx *commandContext) (*config.Config, string, bool, error) {
	var path string
	if ctx.configFlag != nil {
		path = strings.TrimSpace(*ctx.configFlag)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, resolved, exists, fmt.Errorf("load config: %w", err)
	}
	return cfg, resolved, exists, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and summarize the effective settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			source := resolved
			if !exists {
				source = resolved + " (missing, defaults in effect)"
			}
			rows := [][]string{
				{"Config file", source},
				{"Primary archive", cfg.Archive.PrimaryDir},
				{"Backup archive", cfg.Archive.BackupDir},
				{"Card mounts", filepath.Join(cfg.Media.MountRoot, cfg.Media.User)},
				{"Unmount after import", yesNo(cfg.Media.Unmount)},
				{"Session break", cfg.DayBreak().String()},
				{"Date probe", cfg.Probe.Backend},
				{"Ledger", yesNo(cfg.Ledger.Enabled)},
				{"Notifications", yesNo(cfg.Notifications.NtfyTopic != "")},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tableSpec{headers: []string{"Setting", "Value"}, rows: rows}.render())
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration as TOML",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
