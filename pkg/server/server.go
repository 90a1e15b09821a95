// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Gist of what's happening:
//
// gin.New() gives us a router with middleware support that implements
// http.Handler. It is mounted on a plain http.Server so shutdown can be
// driven from the lifecycle package with Shutdown(ctx), and timeouts can
// be set on the listener.

package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/pkg/errors"
)

var srv *http.Server

// Start brings up the network backend and serves the API until ctx is
// cancelled. A backend that cannot be initialised is fatal.
func Start(ctx context.Context, port int) error {
	l, err := logger.NewTag(config.NewLoggerConfig(config.GetConfig()), "server")
	if err != nil {
		return err
	}
	cfg := config.GetConfig()

	// Switch to debug mode for non-production environments
	switch cfg.Environment {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	manager, err := newNetworkManager(ctx, cfg, l)
	if err != nil {
		return err
	}

	engine := newEngine(l, manager)

	if port == 0 {
		port = cfg.Server.Port
	}
	srv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(port)),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to catch server startup errors
	errChan := make(chan error, 1)

	go func() {
		l.Info("Listening", "addr", srv.Addr, "backend", manager.Capabilities().Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for either server error or context cancellation
	select {
	case err := <-errChan:
		return errors.Wrap(err, errors.ServerBind).WithMetadata("addr", srv.Addr)
	case <-ctx.Done():
		return Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight
// requests until ctx expires
func Shutdown(ctx context.Context) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ServerShutdown)
	}
	return nil
}
