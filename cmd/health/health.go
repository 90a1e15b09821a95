// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/health"
)

func NewHealthCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of the running agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			checker := health.NewHealthChecker(config.GetConfig())
			status, err := checker.CheckHealth(ctx)
			if err != nil {
				return fmt.Errorf("health check failed: %s", common.ErrorMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\ntimestamp: %s\n", status.Status, status.Timestamp)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Give up after this long, retries included")
	return cmd
}
