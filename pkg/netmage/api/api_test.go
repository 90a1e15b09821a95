// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager records the requests the handler forwards. Methods a test
// does not exercise fall through to the nil embedded interface and panic.
type fakeManager struct {
	types.Manager

	err error

	interfaces   []*types.Interface
	configured   map[string]types.InterfaceConfigRequest
	toggle       *types.ToggleResult
	routes       []*types.Route
	addedRoute   *types.RouteRequest
	deletedRoute string
	dnsReq       *types.DNSRequest
	ruleReq      *types.FirewallRuleRequest
	deletedRule  int
	logLines     int
	ntpProbe     bool
	hostnameReq  *types.HostnameRequest

	hostnameResult *types.HostnameResult
}

func (f *fakeManager) Capabilities() types.Capabilities {
	return types.Capabilities{HasNmcli: true, HasIP: true, Backend: types.BackendNetworkManager}
}

func (f *fakeManager) ListInterfaces(ctx context.Context) ([]*types.Interface, error) {
	return f.interfaces, f.err
}

func (f *fakeManager) GetInterface(ctx context.Context, name string) (*types.Interface, error) {
	for _, iface := range f.interfaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return nil, errors.New(errors.NetworkInterfaceNotFound, "interface "+name+" not found")
}

func (f *fakeManager) ConfigureInterface(
	ctx context.Context,
	name string,
	req types.InterfaceConfigRequest,
) (*types.ConfigureResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.configured == nil {
		f.configured = map[string]types.InterfaceConfigRequest{}
	}
	f.configured[name] = req
	method := types.MethodStatic
	if req.Address == "" {
		method = types.MethodDHCP
	}
	return &types.ConfigureResult{
		Success: true,
		Message: "Interface " + name + " configured",
		Backend: types.BackendNetworkManager,
		Method:  method,
	}, nil
}

func (f *fakeManager) ToggleInterface(ctx context.Context, name string) (*types.ToggleResult, error) {
	return f.toggle, f.err
}

func (f *fakeManager) ListRoutes(ctx context.Context) ([]*types.Route, error) {
	return f.routes, f.err
}

func (f *fakeManager) AddRoute(ctx context.Context, req types.RouteRequest) (*types.Route, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.addedRoute = &req
	return &types.Route{ID: "r3f2a9c01b7de", Destination: req.Destination, Interface: req.Interface}, nil
}

func (f *fakeManager) DeleteRoute(ctx context.Context, id string) (*types.RouteDeleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletedRoute = id
	return &types.RouteDeleteResult{
		Success:   true,
		Message:   "Route deleted",
		Strategy:  "dest-dev",
		Attempted: []string{"dest-dev"},
	}, nil
}

func (f *fakeManager) SetDNS(ctx context.Context, req types.DNSRequest) (*types.DNSUpdateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dnsReq = &req
	return &types.DNSUpdateResult{Success: true, Message: "DNS updated", Strategy: "networkmanager"}, nil
}

func (f *fakeManager) AddFirewallRule(ctx context.Context, req types.FirewallRuleRequest) error {
	f.ruleReq = &req
	return f.err
}

func (f *fakeManager) DeleteFirewallRule(ctx context.Context, number int) error {
	f.deletedRule = number
	return f.err
}

func (f *fakeManager) FirewallLogs(ctx context.Context, lines int) (*types.FirewallLogs, error) {
	f.logLines = lines
	return &types.FirewallLogs{Lines: []string{"[UFW BLOCK] IN=eth0"}, Source: "/var/log/ufw.log"}, f.err
}

func (f *fakeManager) EnableFirewall(ctx context.Context) error {
	return f.err
}

func (f *fakeManager) GetNTP(ctx context.Context, probe bool) (*types.NTPStatus, error) {
	f.ntpProbe = probe
	return &types.NTPStatus{Enabled: true, Servers: []string{"pool.ntp.org"}}, f.err
}

func (f *fakeManager) SetHostname(ctx context.Context, req types.HostnameRequest) (*types.HostnameResult, error) {
	f.hostnameReq = &req
	if f.err != nil {
		return nil, f.err
	}
	if f.hostnameResult != nil {
		return f.hostnameResult, nil
	}
	return &types.HostnameResult{
		Success:       true,
		Message:       "Hostname updated",
		Hostname:      req.Hostname,
		Pretty:        req.Pretty,
		PrettyApplied: req.Pretty != "",
	}, nil
}

func setupAPITest(t *testing.T, fm *fakeManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.netmage.api")
	require.NoError(t, err, "Failed to create logger")

	router := gin.New()
	handler := NewNetworkHandler(fm, log)
	handler.RegisterRoutes(router.Group("/api/network"))
	return router
}

// makeRequest performs method on path with payload marshalled as JSON.
// A string payload is sent verbatim.
func makeRequest(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case nil:
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(p)
		require.NoError(t, err, "Failed to marshal request payload")
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestListInterfaces(t *testing.T) {
	t.Run("Populated", func(t *testing.T) {
		fm := &fakeManager{interfaces: []*types.Interface{
			{Name: "eth0", Kind: types.KindEthernet, AdminState: types.StateUp, IPv4Address: "192.168.1.10"},
		}}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodGet, "/api/network/interfaces", nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		ifaces := body["interfaces"].([]any)
		require.Len(t, ifaces, 1)
		assert.Equal(t, "eth0", ifaces[0].(map[string]any)["name"])
	})

	t.Run("EmptyIsArray", func(t *testing.T) {
		w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodGet, "/api/network/interfaces", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"interfaces":[]}`, w.Body.String())
	})

	t.Run("BackendError", func(t *testing.T) {
		fm := &fakeManager{err: errors.New(errors.NMCommandNotFound, "nmcli missing")}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodGet, "/api/network/interfaces", nil)

		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.Equal(t, "NetworkManager is not available: nmcli missing", decode(t, w)["error"])
	})
}

func TestGetInterfaceNotFound(t *testing.T) {
	w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodGet, "/api/network/interfaces/eth9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "eth9")
}

func TestConfigureInterface(t *testing.T) {
	t.Run("Static", func(t *testing.T) {
		fm := &fakeManager{}
		router := setupAPITest(t, fm)
		w := makeRequest(t, router, http.MethodPut, "/api/network/interfaces/eth0", map[string]string{
			"address": "192.168.1.50",
			"netmask": "255.255.255.0",
			"gateway": "192.168.1.1",
			"dns1":    "1.1.1.1",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "static", body["method"])
		assert.Equal(t, "255.255.255.0", fm.configured["eth0"].Netmask)
	})

	t.Run("EmptyBodySelectsDHCP", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/interfaces/eth0", map[string]string{})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "dhcp", decode(t, w)["method"])
	})

	t.Run("AddressWithPrefix", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/interfaces/eth0",
			map[string]string{"address": "10.0.0.5/24"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "10.0.0.5/24", fm.configured["eth0"].Address)
	})

	t.Run("PrefixNetmask", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/interfaces/eth0",
			map[string]string{"address": "10.0.0.5", "netmask": "/16"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	tests := []struct {
		name    string
		payload any
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "CommaInDNS",
			payload: map[string]string{"address": "10.0.0.5", "dns1": "1.1.1.1,8.8.8.8"},
			code:    errors.NetworkFieldContainsComma,
			message: "dns1 must not contain a comma",
		},
		{
			name:    "NonContiguousNetmask",
			payload: map[string]string{"address": "10.0.0.5", "netmask": "255.0.255.0"},
			code:    errors.NetworkNetmaskInvalid,
			message: "netmask must be a dotted netmask or prefix length",
		},
		{
			name:    "BadAddress",
			payload: map[string]string{"address": "10.0.0.500"},
			code:    errors.NetworkIPAddressInvalid,
			message: "address must be an IPv4 address, optionally with a /prefix",
		},
		{
			name:    "BadAddressPrefix",
			payload: map[string]string{"address": "10.0.0.5/33"},
			code:    errors.NetworkIPAddressInvalid,
		},
		{
			name:    "IPv6DNS",
			payload: map[string]string{"address": "10.0.0.5", "netmask": "24", "dns1": "fe80::1"},
			code:    errors.NetworkIPAddressInvalid,
			message: "dns1 must be a valid IPv4 address",
		},
		{
			name:    "IPv6Gateway",
			payload: map[string]string{"address": "10.0.0.5", "gateway": "fe80::1"},
			code:    errors.NetworkIPAddressInvalid,
			message: "gateway must be a valid IPv4 address",
		},
		{
			name:    "MalformedJSON",
			payload: `{"address": `,
			code:    errors.ServerRequestValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := &fakeManager{}
			w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/interfaces/eth0", tt.payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errorCodeHeader(tt.code), w.Header().Get("X-Error-Code"))
			if tt.message != "" {
				assert.Contains(t, decode(t, w)["error"], tt.message)
			}
			assert.Empty(t, fm.configured, "manager must not be called")
		})
	}
}

func TestConfigureInterfaceStripsHTML(t *testing.T) {
	fm := &fakeManager{err: errors.New(errors.NetworkActivationFailed,
		"<html><body><h1>Error</h1><p>device &amp; profile mismatch</p></body></html>")}
	w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/interfaces/eth0",
		map[string]string{"address": "10.0.0.5"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	msg := decode(t, w)["error"].(string)
	assert.NotContains(t, msg, "<")
	assert.Equal(t, "Failed to activate connection profile: Error device & profile mismatch", msg)
}

func TestToggleInterfaceNeedsSelection(t *testing.T) {
	fm := &fakeManager{toggle: &types.ToggleResult{
		Success:               false,
		Message:               "No saved network is in range",
		Action:                "connect",
		NeedsNetworkSelection: true,
		Networks:              []types.WifiNetwork{{SSID: "office", Signal: 71, Security: "WPA2"}},
	}}
	w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/interfaces/wlan0/toggle", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["needsNetworkSelection"])
	assert.Len(t, body["networks"], 1)
}

func TestRoutes(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		fm := &fakeManager{routes: []*types.Route{{ID: "r0c4d1e2f3a4b", Destination: "default"}}}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodGet, "/api/network/routing", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["routes"], 1)
	})

	t.Run("Add", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/routing", map[string]any{
			"destination": "10.0.0.0/8",
			"interface":   "eth1",
			"metric":      0,
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		require.NotNil(t, fm.addedRoute)
		require.NotNil(t, fm.addedRoute.Metric)
		assert.Equal(t, 0, *fm.addedRoute.Metric)
	})

	t.Run("AddMissingInterface", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/routing",
			map[string]any{"destination": "10.0.0.0/8"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Request validation failed: interface is required", decode(t, w)["error"])
		assert.Nil(t, fm.addedRoute)
	})

	t.Run("AddNegativeMetric", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/routing",
			map[string]any{"destination": "10.0.0.0/8", "interface": "eth1", "metric": -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "metric must be >= 0")
	})

	t.Run("Delete", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodDelete, "/api/network/routing/r3f2a9c01b7de", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "dest-dev", decode(t, w)["strategy"])
		assert.Equal(t, "r3f2a9c01b7de", fm.deletedRoute)
	})

	t.Run("DeleteUnknown", func(t *testing.T) {
		fm := &fakeManager{err: errors.New(errors.NetworkRouteNotFound, "no route with id x")}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodDelete, "/api/network/routing/x", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSetDNS(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/dns", map[string]any{
			"primary":       "1.1.1.1",
			"secondary":     "9.9.9.9",
			"searchDomains": []string{"corp.example.com"},
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, fm.dnsReq)
		assert.Equal(t, []string{"corp.example.com"}, fm.dnsReq.SearchDomains)
	})

	t.Run("IPv6Resolver", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/dns", map[string]any{
			"primary": "2606:4700:4700::1111",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errorCodeHeader(errors.NetworkIPAddressInvalid), w.Header().Get("X-Error-Code"))
		assert.Contains(t, decode(t, w)["error"], "primary must be a valid IPv4 address")
		assert.Nil(t, fm.dnsReq)
	})

	t.Run("CommaInSearchDomain", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/dns", map[string]any{
			"primary":       "1.1.1.1",
			"searchDomains": []string{"a.example,b.example"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errorCodeHeader(errors.NetworkFieldContainsComma), w.Header().Get("X-Error-Code"))
		assert.Nil(t, fm.dnsReq)
	})
}

func TestDiagnosticsValidation(t *testing.T) {
	router := setupAPITest(t, &fakeManager{})

	w := makeRequest(t, router, http.MethodPost, "/api/network/diagnostics/ping", map[string]any{"target": "1.1.1.1", "count": 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "count must be <= 20")

	w = makeRequest(t, router, http.MethodPost, "/api/network/diagnostics/traceroute", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "target is required")

	w = makeRequest(t, router, http.MethodPost, "/api/network/diagnostics/dns", map[string]any{"name": "example.com", "type": "A1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "type must contain letters only")
}

func TestFirewallEndpoints(t *testing.T) {
	t.Run("Enable", func(t *testing.T) {
		w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodPost, "/api/network/firewall/enable", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Firewall enabled"}`, w.Body.String())
	})

	t.Run("DefaultPolicyValidation", func(t *testing.T) {
		w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodPut, "/api/network/firewall/default",
			map[string]string{"policy": "drop", "direction": "incoming"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "policy must be one of: allow deny reject")
	})

	t.Run("AddRule", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/firewall/rules",
			map[string]string{"action": "allow", "protocol": "tcp", "port": "8443"})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, fm.ruleReq)
		assert.Equal(t, "8443", fm.ruleReq.Port)
	})

	t.Run("DeleteRule", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodDelete, "/api/network/firewall/rules/3", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, fm.deletedRule)
	})

	t.Run("DeleteRuleNotANumber", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodDelete, "/api/network/firewall/rules/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, fm.deletedRule)
	})

	t.Run("Logs", func(t *testing.T) {
		fm := &fakeManager{}
		w := makeRequest(t, setupAPITest(t, fm), http.MethodGet, "/api/network/firewall/logs?lines=25", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 25, fm.logLines)
		assert.Equal(t, "/var/log/ufw.log", decode(t, w)["source"])
	})

	t.Run("LogsBadLines", func(t *testing.T) {
		w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodGet, "/api/network/firewall/logs?lines=many", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetNTPProbeFlag(t *testing.T) {
	fm := &fakeManager{}
	router := setupAPITest(t, fm)

	w := makeRequest(t, router, http.MethodGet, "/api/network/ntp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, fm.ntpProbe)

	w = makeRequest(t, router, http.MethodGet, "/api/network/ntp?probe=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fm.ntpProbe)
}

func TestSetHostname(t *testing.T) {
	fm := &fakeManager{}
	w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/hostname",
		map[string]string{"hostname": "panel-01", "pretty": "Rack 2 Panel"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "panel-01", decode(t, w)["hostname"])
	require.NotNil(t, fm.hostnameReq)
	assert.Equal(t, "Rack 2 Panel", fm.hostnameReq.Pretty)

	assert.Equal(t, true, decode(t, w)["prettyApplied"])

	w = makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodPut, "/api/network/hostname",
		map[string]string{"hostname": "a,b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetHostnamePrettyNotApplied(t *testing.T) {
	fm := &fakeManager{hostnameResult: &types.HostnameResult{
		Success:  true,
		Message:  "Hostname updated; pretty name not applied",
		Hostname: "panel-01",
		Pretty:   "Rack 2",
		Warning:  "pretty name not applied: Access denied",
	}}
	w := makeRequest(t, setupAPITest(t, fm), http.MethodPut, "/api/network/hostname",
		map[string]string{"hostname": "panel-01", "pretty": "Rack 2"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body["prettyApplied"])
	assert.Equal(t, "Hostname updated; pretty name not applied", body["message"])
	assert.Contains(t, body["warning"], "Access denied")
}

func TestCapabilities(t *testing.T) {
	w := makeRequest(t, setupAPITest(t, &fakeManager{}), http.MethodGet, "/api/network/capabilities", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "networkmanager", body["backend"])
	assert.Equal(t, true, body["nmcli"])
}

func TestErrorBodiesAreSingleLine(t *testing.T) {
	fm := &fakeManager{err: errors.New(errors.NetworkActivationFailed, "line one\n  line two")}
	w := makeRequest(t, setupAPITest(t, fm), http.MethodPost, "/api/network/interfaces/eth0/toggle", nil)

	msg := decode(t, w)["error"].(string)
	assert.False(t, strings.Contains(msg, "\n"))
	assert.True(t, strings.HasSuffix(msg, "line one line two"))
}

func errorCodeHeader(code errors.ErrorCode) string {
	return strconv.Itoa(int(code))
}
