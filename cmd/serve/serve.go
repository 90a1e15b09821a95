// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/lifecycle"
	"github.com/stratastor/netpanel/pkg/server"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the netpanel API server",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	log, err := logger.NewTag(config.NewLoggerConfig(rc), "serve")
	if err != nil {
		panic(err)
	}

	if err := rc.Validate(); err != nil {
		log.Error("Invalid configuration", "path", config.GetLoadedConfigPath(), "error", err)
		os.Exit(1)
	}

	if err := config.EnsureDirectories(); err != nil {
		log.Error("Failed to prepare directories", "error", err)
		os.Exit(1)
	}

	logPath, err := common.ExpandPath(rc.Logs.Path)
	if err != nil {
		log.Error("Invalid log path", "path", rc.Logs.Path, "error", err)
		os.Exit(1)
	}
	if detached || rc.Logs.Output != "stdout" {
		if err := common.EnsureDir(filepath.Dir(logPath), 0755); err != nil {
			log.Error("Failed to create log directory", "error", err)
			os.Exit(1)
		}
	}

	pidFile := config.GetPIDFilePath()

	if detached || rc.Server.Daemonize {
		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: logPath,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        daemonArgs(os.Args, config.GetLoadedConfigPath()),
		}

		d, err := ctx.Reborn()
		if err != nil {
			log.Error("Failed to start daemon", "error",
				errors.Wrap(err, errors.LifecycleDaemon).WithMetadata("pid_file", pidFile))
			os.Exit(1)
		}

		if d != nil {
			log.Info("netpanel is running as a daemon", "pid", d.Pid)
			return
		}
		defer ctx.Release()
	} else if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		// go-daemon holds a lock on the PID file in detached mode
		log.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if err := startServer(log, rc); err != nil {
		os.Exit(1)
	}
}

// daemonArgs forwards the invocation to the reborn child. The child runs
// with WorkDir "/", so the config path is pinned to the absolute path that
// was actually loaded.
func daemonArgs(argv []string, configPath string) []string {
	out := make([]string, 0, len(argv)+2)
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--config":
			i++
			continue
		case strings.HasPrefix(arg, "--config="):
			continue
		}
		out = append(out, arg)
	}
	if configPath != "" {
		out = append(out, "--config", configPath)
	}
	return out
}

func startServer(log logger.Logger, cfg *config.Config) error {
	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle.RegisterContextCanceller(cancel)

	lifecycle.RegisterShutdownHook(func() {
		log.Info("Shutting down server...")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("Error during server shutdown", "error", err)
		}
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	log.Info("Starting netpanel server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := server.Start(ctx, cfg.Server.Port); err != nil {
		log.Error("Failed to start server", "error", err)
		lifecycle.RunShutdownHooks()
		return err
	}
	return nil
}
