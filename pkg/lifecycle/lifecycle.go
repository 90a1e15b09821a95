// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/errors"
)

var (
	mu            sync.Mutex
	shutdownHooks []func()
	cancel        context.CancelFunc
	exit          = os.Exit
)

// RegisterShutdownHook queues hook to run on SIGTERM/SIGINT. Hooks run in
// reverse registration order.
func RegisterShutdownHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	shutdownHooks = append(shutdownHooks, hook)
}

func RegisterContextCanceller(c context.CancelFunc) {
	mu.Lock()
	defer mu.Unlock()
	cancel = c
}

// HandleSignals blocks until a terminating signal arrives or ctx ends.
// SIGHUP is logged and ignored; configuration is read once at startup.
func HandleSignals(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(stop)

	for {
		select {
		case sig := <-stop:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				common.Log.Info("Received signal, shutting down", "signal", sig.String())
				shutdown()
				return
			case syscall.SIGHUP:
				common.Log.Info("SIGHUP ignored; restart the agent to apply configuration changes")
			}
		case <-ctx.Done():
			return
		}
	}
}

func shutdown() {
	mu.Lock()
	c := cancel
	mu.Unlock()
	if c != nil {
		c()
	}
	RunShutdownHooks()
	exit(0)
}

// RunShutdownHooks runs and clears the registered hooks
func RunShutdownHooks() {
	mu.Lock()
	hooks := shutdownHooks
	shutdownHooks = nil
	mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// EnsureSingleInstance writes the current PID to pidPath, failing when the
// file names a live process. Stale or empty PID files are replaced.
func EnsureSingleInstance(pidPath string) error {
	if pidPath == "" {
		return errors.New(errors.LifecyclePID, "invalid PID file path")
	}

	if pidBytes, err := os.ReadFile(pidPath); err == nil {
		content := strings.TrimSpace(string(pidBytes))
		if content != "" {
			pid, err := strconv.Atoi(content)
			if err != nil {
				return errors.Wrap(err, errors.LifecyclePID).
					WithMetadata("path", pidPath).
					WithMetadata("content", content)
			}
			if pid != os.Getpid() && processAlive(pid) {
				return errors.New(errors.LifecyclePID,
					fmt.Sprintf("another instance is already running (PID: %d)", pid)).
					WithMetadata("path", pidPath)
			}
		}
		_ = os.Remove(pidPath)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
	}

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
	}

	RegisterShutdownHook(func() {
		_ = os.Remove(pidPath)
	})

	return nil
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
