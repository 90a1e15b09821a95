// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// NetworkHandler handles REST API requests for network management
type NetworkHandler struct {
	manager types.Manager
	logger  logger.Logger
}

// NewNetworkHandler creates a new network API handler
func NewNetworkHandler(manager types.Manager, logger logger.Logger) *NetworkHandler {
	RegisterValidators()
	return &NetworkHandler{
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers the network management routes
func (h *NetworkHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/capabilities", h.GetCapabilities)

	// Interface management routes
	interfaces := router.Group("/interfaces")
	{
		interfaces.GET("", h.ListInterfaces)
		interfaces.GET("/:id", h.GetInterface)
		interfaces.PUT("/:id", h.ConfigureInterface)
		interfaces.POST("/:id/toggle", h.ToggleInterface)
	}

	// Static route management
	routing := router.Group("/routing")
	{
		routing.GET("", h.ListRoutes)
		routing.POST("", h.AddRoute)
		routing.DELETE("/:id", h.DeleteRoute)
	}

	// Global DNS
	router.GET("/dns", h.GetDNS)
	router.PUT("/dns", h.SetDNS)

	diagnostics := router.Group("/diagnostics")
	{
		diagnostics.POST("/ping", h.Ping)
		diagnostics.POST("/traceroute", h.Traceroute)
		diagnostics.POST("/dns", h.ProbeDNS)
	}

	router.GET("/statistics", h.GetStatistics)

	// ufw
	firewall := router.Group("/firewall")
	{
		firewall.GET("/status", h.FirewallStatus)
		firewall.POST("/enable", h.EnableFirewall)
		firewall.POST("/disable", h.DisableFirewall)
		firewall.POST("/reset", h.ResetFirewall)
		firewall.PUT("/default", h.SetFirewallDefault)
		firewall.POST("/rules", h.AddFirewallRule)
		firewall.DELETE("/rules/:n", h.DeleteFirewallRule)
		firewall.GET("/logs", h.FirewallLogs)
	}

	// Time synchronisation
	router.GET("/ntp", h.GetNTP)
	router.PUT("/ntp", h.SetNTP)

	router.GET("/hostname", h.GetHostname)
	router.PUT("/hostname", h.SetHostname)
}

// sendError logs err and writes it as {"error": "..."}
func (h *NetworkHandler) sendError(c *gin.Context, err error) {
	h.logger.Error("Network API error",
		"error", err,
		"code", errors.CodeOf(err),
		"kind", errors.KindOf(err),
		"path", c.Request.URL.Path)
	common.APIError(c, err)
}

// sendDone writes the success envelope of a mutation
func (h *NetworkHandler) sendDone(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// GetCapabilities handles GET /capabilities
func (h *NetworkHandler) GetCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Capabilities())
}

// ListInterfaces handles GET /interfaces
func (h *NetworkHandler) ListInterfaces(c *gin.Context) {
	interfaces, err := h.manager.ListInterfaces(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	if interfaces == nil {
		interfaces = []*types.Interface{}
	}

	c.JSON(http.StatusOK, gin.H{"interfaces": interfaces})
}

// GetInterface handles GET /interfaces/:id
func (h *NetworkHandler) GetInterface(c *gin.Context) {
	iface, err := h.manager.GetInterface(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, iface)
}

// ConfigureInterface handles PUT /interfaces/:id
func (h *NetworkHandler) ConfigureInterface(c *gin.Context) {
	name := c.Param("id")

	var req types.InterfaceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.ConfigureInterface(c.Request.Context(), name, req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Interface configured",
		"interface", name,
		"method", result.Method,
		"profile", result.Profile,
		"created", result.Created)
	c.JSON(http.StatusOK, result)
}

// ToggleInterface handles POST /interfaces/:id/toggle. A WiFi device with
// no usable saved network answers success=false with the visible networks.
func (h *NetworkHandler) ToggleInterface(c *gin.Context) {
	name := c.Param("id")

	result, err := h.manager.ToggleInterface(c.Request.Context(), name)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Interface toggled",
		"interface", name,
		"action", result.Action,
		"success", result.Success)
	c.JSON(http.StatusOK, result)
}

// ListRoutes handles GET /routing
func (h *NetworkHandler) ListRoutes(c *gin.Context) {
	routes, err := h.manager.ListRoutes(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	if routes == nil {
		routes = []*types.Route{}
	}

	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// AddRoute handles POST /routing
func (h *NetworkHandler) AddRoute(c *gin.Context) {
	var req types.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	route, err := h.manager.AddRoute(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.sendDone(c, http.StatusCreated, "Route added successfully", gin.H{"route": route})
}

// DeleteRoute handles DELETE /routing/:id
func (h *NetworkHandler) DeleteRoute(c *gin.Context) {
	result, err := h.manager.DeleteRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Route deleted", "id", c.Param("id"), "strategy", result.Strategy)
	c.JSON(http.StatusOK, result)
}

// GetDNS handles GET /dns
func (h *NetworkHandler) GetDNS(c *gin.Context) {
	settings, err := h.manager.GetDNS(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SetDNS handles PUT /dns
func (h *NetworkHandler) SetDNS(c *gin.Context) {
	var req types.DNSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.SetDNS(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	if result.Warning != "" {
		h.logger.Warn("DNS written to fallback", "strategy", result.Strategy, "warning", result.Warning)
	}
	c.JSON(http.StatusOK, result)
}

// ProbeDNS handles POST /diagnostics/dns
func (h *NetworkHandler) ProbeDNS(c *gin.Context) {
	var req types.DNSProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.ProbeDNS(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Ping handles POST /diagnostics/ping
func (h *NetworkHandler) Ping(c *gin.Context) {
	var req types.PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.Ping(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Traceroute handles POST /diagnostics/traceroute
func (h *NetworkHandler) Traceroute(c *gin.Context) {
	var req types.TracerouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.Traceroute(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStatistics handles GET /statistics
func (h *NetworkHandler) GetStatistics(c *gin.Context) {
	stats, err := h.manager.GetStatistics(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// FirewallStatus handles GET /firewall/status
func (h *NetworkHandler) FirewallStatus(c *gin.Context) {
	status, err := h.manager.FirewallStatus(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// EnableFirewall handles POST /firewall/enable
func (h *NetworkHandler) EnableFirewall(c *gin.Context) {
	if err := h.manager.EnableFirewall(c.Request.Context()); err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Firewall enabled")
	h.sendDone(c, http.StatusOK, "Firewall enabled", nil)
}

// DisableFirewall handles POST /firewall/disable
func (h *NetworkHandler) DisableFirewall(c *gin.Context) {
	if err := h.manager.DisableFirewall(c.Request.Context()); err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Firewall disabled")
	h.sendDone(c, http.StatusOK, "Firewall disabled", nil)
}

// ResetFirewall handles POST /firewall/reset
func (h *NetworkHandler) ResetFirewall(c *gin.Context) {
	if err := h.manager.ResetFirewall(c.Request.Context()); err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Firewall reset")
	h.sendDone(c, http.StatusOK, "Firewall reset to defaults", nil)
}

// SetFirewallDefault handles PUT /firewall/default
func (h *NetworkHandler) SetFirewallDefault(c *gin.Context) {
	var req types.FirewallDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	if err := h.manager.SetFirewallDefault(c.Request.Context(), req); err != nil {
		h.sendError(c, err)
		return
	}

	h.sendDone(c, http.StatusOK,
		fmt.Sprintf("Default %s policy set to %s", req.Direction, req.Policy),
		gin.H{"direction": req.Direction, "policy": req.Policy})
}

// AddFirewallRule handles POST /firewall/rules
func (h *NetworkHandler) AddFirewallRule(c *gin.Context) {
	var req types.FirewallRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	if err := h.manager.AddFirewallRule(c.Request.Context(), req); err != nil {
		h.sendError(c, err)
		return
	}

	h.sendDone(c, http.StatusCreated, "Firewall rule added", nil)
}

// DeleteFirewallRule handles DELETE /firewall/rules/:n
func (h *NetworkHandler) DeleteFirewallRule(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		h.sendError(c, errors.New(errors.FirewallRuleInvalid,
			fmt.Sprintf("rule number %q is not an integer", c.Param("n"))))
		return
	}

	if err := h.manager.DeleteFirewallRule(c.Request.Context(), number); err != nil {
		h.sendError(c, err)
		return
	}

	h.sendDone(c, http.StatusOK, fmt.Sprintf("Firewall rule %d deleted", number),
		gin.H{"number": number})
}

// FirewallLogs handles GET /firewall/logs?lines=N
func (h *NetworkHandler) FirewallLogs(c *gin.Context) {
	lines := 0
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.sendError(c, errors.New(errors.ServerRequestValidation,
				fmt.Sprintf("lines %q is not an integer", raw)))
			return
		}
		lines = n
	}

	logs, err := h.manager.FirewallLogs(c.Request.Context(), lines)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// GetNTP handles GET /ntp?probe=true
func (h *NetworkHandler) GetNTP(c *gin.Context) {
	probe, _ := strconv.ParseBool(c.DefaultQuery("probe", "false"))

	status, err := h.manager.GetNTP(c.Request.Context(), probe)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// SetNTP handles PUT /ntp
func (h *NetworkHandler) SetNTP(c *gin.Context) {
	var req types.NTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	status, err := h.manager.SetNTP(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.sendDone(c, http.StatusOK, "Time synchronisation updated", gin.H{"ntp": status})
}

// GetHostname handles GET /hostname
func (h *NetworkHandler) GetHostname(c *gin.Context) {
	info, err := h.manager.GetHostname(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// SetHostname handles PUT /hostname
func (h *NetworkHandler) SetHostname(c *gin.Context) {
	var req types.HostnameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, bindError(err))
		return
	}

	result, err := h.manager.SetHostname(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.logger.Info("Hostname changed",
		"hostname", result.Hostname,
		"pretty_applied", result.PrettyApplied)
	c.JSON(http.StatusOK, result)
}
