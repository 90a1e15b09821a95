// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/netpanel/cmd/config"
	"github.com/stratastor/netpanel/cmd/health"
	"github.com/stratastor/netpanel/cmd/logs"
	"github.com/stratastor/netpanel/cmd/serve"
	"github.com/stratastor/netpanel/cmd/status"
	"github.com/stratastor/netpanel/cmd/version"
	netpanelconfig "github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/common"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "netpanel",
		Short: "netpanel: network configuration agent",
		Long: "netpanel serves a REST API for configuring interfaces, routes, DNS,\n" +
			"firewall and time synchronisation on a Linux host.",
		SilenceUsage: true,
		// An explicit --config wins over NETPANEL_CONFIG and the system path.
		// Must run before anything calls config.GetConfig.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			path, err := common.ExpandPath(configPath)
			if err != nil {
				return err
			}
			netpanelconfig.LoadConfig(path)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(logs.NewLogsCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
