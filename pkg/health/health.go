// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/httpclient"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// Status is the body of GET /api/health
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type HealthChecker struct {
	Client   *httpclient.Client
	Logger   logger.Logger
	endpoint string
}

// NewHealthChecker targets the agent described by cfg. A wildcard listen
// host is reached over loopback.
func NewHealthChecker(cfg *config.Config) *HealthChecker {
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "health")
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}

	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	clientConfig := httpclient.NewClientConfig()
	clientConfig.Timeout = 5 * time.Second
	clientConfig.RetryCount = 3
	clientConfig.RetryWaitTime = 2 * time.Second
	clientConfig.BaseURL = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))

	endpoint := cfg.Health.Endpoint
	if endpoint == "" {
		endpoint = constants.APIHealth
	}

	return &HealthChecker{
		Client:   httpclient.NewClient(clientConfig),
		Logger:   l,
		endpoint: endpoint,
	}
}

// CheckHealth asks the agent for its health record
func (hc *HealthChecker) CheckHealth(ctx context.Context) (*Status, error) {
	var status Status
	if err := hc.Client.GetJSON(ctx, hc.endpoint, &status); err != nil {
		hc.Logger.Debug("Health check failed", "endpoint", hc.endpoint, "error", err)
		return nil, errors.Wrap(err, errors.HealthCheckFailed)
	}
	if status.Status != "ok" {
		return &status, errors.New(errors.HealthCheckFailed,
			fmt.Sprintf("agent reported status %q", status.Status))
	}
	return &status, nil
}

// Capabilities fetches the tool set the running agent detected at startup
func (hc *HealthChecker) Capabilities(ctx context.Context) (*types.Capabilities, error) {
	var caps types.Capabilities
	if err := hc.Client.GetJSON(ctx, constants.APINetwork+"/capabilities", &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}
