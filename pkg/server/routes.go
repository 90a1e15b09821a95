// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/internal/metrics"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage"
	"github.com/stratastor/netpanel/pkg/netmage/api"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const defaultStartupTimeout = 15 * time.Second

// newEngine builds the router: recovery, access log, health, metrics and
// the network API. Unknown routes and methods answer JSON.
func newEngine(l logger.Logger, manager types.Manager) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(RecoveryMiddleware(l))
	engine.Use(LoggerMiddleware(l))

	engine.NoRoute(noRoute)
	engine.NoMethod(noMethod)

	engine.GET(constants.APIHealth, healthCheck)
	engine.GET(constants.APIMetrics, gin.WrapH(metrics.Handler()))

	registerNetworkRoutes(engine, manager, l)
	return engine
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func registerNetworkRoutes(engine *gin.Engine, manager types.Manager, l logger.Logger) {
	handler := api.NewNetworkHandler(manager, l)
	handler.RegisterRoutes(engine.Group(constants.APINetwork))
}

// newNetworkManager probes the host tools once and builds the manager.
// Detection must finish within the startup timeout.
func newNetworkManager(ctx context.Context, cfg *config.Config, l logger.Logger) (types.Manager, error) {
	executor := command.NewCommandExecutor(
		cfg.Network.UseSudo,
		command.WithTimeout(cfg.Network.CommandTimeout),
		command.WithLogger(l),
	)

	timeout := cfg.Server.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}
	detectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	caps, err := netmage.DetectCapabilities(detectCtx, executor, executor, l)
	if err != nil {
		return nil, errors.Wrap(err, errors.ServerStart).
			WithMetadata("startup_timeout", timeout.String())
	}

	return netmage.NewManager(l, executor, caps, cfg.Network)
}
