// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"

	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/metrics"
	"github.com/stratastor/netpanel/pkg/errors"
)

// Strategy is one named way of performing an operation. Applicable may be
// nil; a strategy that is not applicable is skipped, not attempted.
type Strategy[T any] struct {
	Name       string
	Applicable func() bool
	Run        func(ctx context.Context) (T, error)
}

// Outcome records which strategies were attempted and which one won
type Outcome struct {
	Strategy  string   `json:"strategy"`
	Attempted []string `json:"attempted"`
}

// RunStrategies tries each applicable strategy in order and returns the
// value of the first success. When every strategy fails, the error of
// the last attempt is returned.
func RunStrategies[T any](
	ctx context.Context,
	log logger.Logger,
	operation string,
	strategies []Strategy[T],
) (T, Outcome, error) {
	var (
		zero    T
		out     = Outcome{Attempted: []string{}}
		lastErr error
	)

	for _, s := range strategies {
		if s.Applicable != nil && !s.Applicable() {
			metrics.ObserveStrategy(operation, s.Name, metrics.OutcomeSkipped)
			if log != nil {
				log.Debug("Strategy skipped", "operation", operation, "strategy", s.Name)
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return zero, out, errors.Wrap(err, errors.CommandContext).
				WithMetadata("operation", operation)
		}

		out.Attempted = append(out.Attempted, s.Name)
		v, err := s.Run(ctx)
		if err == nil {
			out.Strategy = s.Name
			metrics.ObserveStrategy(operation, s.Name, metrics.OutcomeSuccess)
			if log != nil {
				log.Debug("Strategy succeeded", "operation", operation, "strategy", s.Name)
			}
			return v, out, nil
		}

		lastErr = err
		metrics.ObserveStrategy(operation, s.Name, metrics.OutcomeFailure)
		if log != nil {
			log.Debug("Strategy failed", "operation", operation, "strategy", s.Name, "error", err)
		}
	}

	if lastErr == nil {
		lastErr = errors.New(errors.NetworkFeatureUnsupported,
			fmt.Sprintf("no applicable strategy for %s", operation))
	}
	return zero, out, lastErr
}
