// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// ListRoutes returns the main IPv4 routing table. Route ids are derived
// from destination, gateway and interface, so two routes differing only
// in metric share an id.
func (m *manager) ListRoutes(ctx context.Context) ([]*types.Route, error) {
	routes, err := m.ip.Routes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Route, len(routes))
	seen := map[string]bool{}
	for i := range routes {
		out[i] = &routes[i]
		if seen[routes[i].ID] {
			m.logger.Warn("Routes share an id",
				"id", routes[i].ID,
				"destination", routes[i].Destination,
				"interface", routes[i].Interface)
		}
		seen[routes[i].ID] = true
	}
	return out, nil
}

// AddRoute adds a static route and returns it as it will be listed
func (m *manager) AddRoute(ctx context.Context, req types.RouteRequest) (*types.Route, error) {
	req, err := validateRouteRequest(req)
	if err != nil {
		return nil, err
	}
	if err := m.ip.AddRoute(ctx, req.Destination, req.Gateway, req.Interface, req.Metric); err != nil {
		return nil, err
	}

	route := &types.Route{
		ID:          parsers.RouteID(req.Destination, req.Gateway, req.Interface),
		Destination: req.Destination,
		Gateway:     req.Gateway,
		Interface:   req.Interface,
	}
	if req.Metric != nil {
		route.Metric = *req.Metric
	}
	m.logger.Info("Route added",
		"id", route.ID,
		"destination", route.Destination,
		"gateway", route.Gateway,
		"interface", route.Interface)
	return route, nil
}

// DeleteRoute removes the route with id. Selectors are tried from the
// most to the least specific and the first that works wins.
func (m *manager) DeleteRoute(ctx context.Context, id string) (*types.RouteDeleteResult, error) {
	routes, err := m.ip.Routes(ctx)
	if err != nil {
		return nil, err
	}
	var route *types.Route
	for i := range routes {
		if routes[i].ID == id {
			route = &routes[i]
			break
		}
	}
	if route == nil {
		return nil, errors.New(errors.NetworkRouteNotFound, id)
	}

	del := func(dest, gw, dev string) func(context.Context) (struct{}, error) {
		return func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.ip.DeleteRoute(ctx, dest, gw, dev)
		}
	}
	_, out, err := RunStrategies(ctx, m.logger, "route_delete", []Strategy[struct{}]{
		{
			Name:       "exact",
			Applicable: func() bool { return route.Gateway != "" },
			Run:        del(route.Destination, route.Gateway, route.Interface),
		},
		{
			Name:       "dest-dev",
			Applicable: func() bool { return route.Interface != "" },
			Run:        del(route.Destination, "", route.Interface),
		},
		{
			Name: "dest-only",
			Run:  del(route.Destination, "", ""),
		},
	})
	if err != nil {
		m.logger.Error("Route deletion failed", "id", id, "attempted", out.Attempted, "error", err)
		return nil, errors.Wrap(err, errors.NetworkRouteOperationFailed).
			WithMetadata("id", id).
			WithMetadata("destination", route.Destination)
	}

	m.logger.Info("Route deleted", "id", id, "destination", route.Destination, "strategy", out.Strategy)
	return &types.RouteDeleteResult{
		Success:   true,
		Message:   fmt.Sprintf("Route to %s deleted", parsers.RenderDestination(route.Destination)),
		Strategy:  out.Strategy,
		Attempted: out.Attempted,
		Route:     route,
	}, nil
}
