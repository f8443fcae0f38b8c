// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dirwatch/dirwatch/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `dirwatch config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dirwatch configuration",
		Long: `Manage dirwatch configuration.

Configuration is stored in:
  - Linux: ~/.config/dirwatch/config.cue
  - macOS: ~/Library/Application Support/dirwatch/config.cue
  - Windows: %APPDATA%\dirwatch\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				renderGuidance(cmd.ErrOrStderr(), err, flags.verbose)
				return err
			}
			switch format {
			case "cue":
				fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			case "toml":
				out, err := config.EncodeTOML(cfg)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			default:
				return fmt.Errorf("unknown format %q (valid: cue, toml)", format)
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&format, "format", "cue", "output format: cue or toml")

	var (
		initDir string
		force   bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(initDir, force)
			if errors.Is(err, config.ErrConfigExists) {
				fmt.Fprintln(cmd.OutOrStdout(), WarningStyle.Render("Config already exists: ")+path)
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Use --force to overwrite it."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Created ")+path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initDir, "dir", "", "directory to write config.cue to (default is the platform config directory)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.configPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), flags.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	}

	cfgCmd.AddCommand(showCmd, initCmd, pathCmd)
	return cfgCmd
}
