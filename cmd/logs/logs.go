/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logs

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/pkg/errors"
)

func NewLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View agent logs",
		Long: "Tails the agent log file. When logs go to stdout the agent is\n" +
			"expected to run under systemd and the journal is read instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				return errors.New(errors.ConfigLoadFailed, "no configuration loaded")
			}

			name, cmdArgs := logCommand(cfg.Logs.Output, cfg.Logs.Path, lines, follow)
			if name == "tail" {
				if _, err := os.Stat(cfg.Logs.Path); os.IsNotExist(err) {
					return errors.New(errors.NotFoundError, "log file does not exist: "+cfg.Logs.Path)
				}
			}

			execCmd := exec.CommandContext(cmd.Context(), name, cmdArgs...)
			execCmd.Stdout = cmd.OutOrStdout()
			execCmd.Stderr = cmd.ErrOrStderr()
			if err := execCmd.Run(); err != nil {
				return errors.Wrap(err, errors.CommandExecution).WithMetadata("command", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of lines to show")
	return cmd
}

// logCommand picks the viewer for the configured log output
func logCommand(output, path string, lines int, follow bool) (string, []string) {
	if output == "stdout" {
		args := []string{"-u", "netpanel", "-n", strconv.Itoa(lines), "--no-pager"}
		if follow {
			args = append(args, "-f")
		}
		return "journalctl", args
	}

	args := []string{"-n", strconv.Itoa(lines)}
	if follow {
		args = append(args, "-f")
	}
	return "tail", append(args, path)
}
