package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"platewright/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			pathStatus, pathNote := statusOK, ctx.configPath
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				pathStatus, pathNote = statusWarn, ctx.configPath+" (missing, defaults used)"
			}
			fmt.Fprintln(out, renderStatusLine("Config path", pathStatus, pathNote, colorize))
			fmt.Fprintln(out, renderStatusLine("Logging", statusInfo, cfg.Logging.Format+" at "+cfg.Logging.Level, colorize))

			if _, err := ctx.loadCatalog(cmd.Context()); err != nil {
				fmt.Fprintln(out, renderStatusLine("Catalog", statusError, err.Error(), colorize))
				return fmt.Errorf("catalog: %w", err)
			}
			fmt.Fprintln(out, renderStatusLine("Catalog", statusOK, cfg.Catalog.Source, colorize))

			if _, _, err := dispenseDefaults(cfg.Dispense); err != nil {
				fmt.Fprintln(out, renderStatusLine("Dispense", statusError, err.Error(), colorize))
				return fmt.Errorf("dispense: %w", err)
			}
			fmt.Fprintln(out, renderStatusLine("Dispense", statusOK,
				fmt.Sprintf("prime %s, predispense %s", cfg.Dispense.PrimeVolume, cfg.Dispense.PredispenseVolume), colorize))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
