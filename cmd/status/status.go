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

package status

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/health"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the agent is running and which backend it uses",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			pid, running := readPID(config.GetPIDFilePath())
			if !running {
				fmt.Fprintln(out, "netpanel is not running")
				return
			}
			fmt.Fprintf(out, "netpanel is running (PID %d)\n", pid)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			checker := health.NewHealthChecker(config.GetConfig())
			checker.Client.SetRetryCount(0)
			caps, err := checker.Capabilities(ctx)
			if err != nil {
				fmt.Fprintf(out, "API unreachable: %s\n", common.ErrorMessage(err))
				return
			}
			fmt.Fprintf(out, "backend: %s\n", caps.Backend)
			fmt.Fprintf(out, "nmcli=%t ip=%t ufw=%t resolvectl=%t timedatectl=%t\n",
				caps.HasNmcli, caps.HasIP, caps.HasUfw, caps.HasResolvectl, caps.HasTimedatectl)
		},
	}
}

// readPID reports the PID recorded in path and whether that process is
// alive
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	return pid, proc.Signal(syscall.Signal(0)) == nil
}
