// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/errors"
	"gopkg.in/yaml.v2"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage netpanel configuration",
	}

	cmd.AddCommand(NewLoadConfigCmd())
	cmd.AddCommand(NewPrintConfigCmd())
	cmd.AddCommand(NewSaveConfigCmd())
	return cmd
}

func NewLoadConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the configuration file, creating it from defaults if missing",
		Long:  "Loads the file named by --config, NETPANEL_CONFIG or the system path, in that order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration loaded from: %s\n", config.GetLoadedConfigPath())
			return cfg.Validate()
		},
	}
}

func NewPrintConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				return errors.New(errors.ConfigLoadFailed, "no configuration loaded")
			}

			ymlData, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(err, errors.ConfigMarshalFailed)
			}

			out := cmd.OutOrStdout()
			if path := config.GetLoadedConfigPath(); path != "" {
				fmt.Fprintf(out, "# %s\n", path)
			}
			fmt.Fprint(out, string(ymlData))
			return nil
		},
	}
}

func NewSaveConfigCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration, defaults included, to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = config.GetConfig()
			dest, err := common.ExpandPath(path)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", config.GetLoadedConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "Destination file (defaults to the config directory)")
	return cmd
}
