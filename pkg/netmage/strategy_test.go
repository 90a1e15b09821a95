// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStrategies(t *testing.T) {
	ctx := context.Background()
	log := newTestLogger(t)

	t.Run("FirstSuccessWins", func(t *testing.T) {
		var calls []string
		mk := func(name string, err error) Strategy[string] {
			return Strategy[string]{
				Name: name,
				Run: func(context.Context) (string, error) {
					calls = append(calls, name)
					return name, err
				},
			}
		}
		v, out, err := RunStrategies(ctx, log, "test", []Strategy[string]{
			mk("one", stderrors.New("boom")),
			mk("two", nil),
			mk("three", nil),
		})
		require.NoError(t, err)
		assert.Equal(t, "two", v)
		assert.Equal(t, "two", out.Strategy)
		assert.Equal(t, []string{"one", "two"}, out.Attempted)
		assert.Equal(t, []string{"one", "two"}, calls)
	})

	t.Run("LastErrorSurfaced", func(t *testing.T) {
		first := stderrors.New("first")
		last := stderrors.New("last")
		_, out, err := RunStrategies(ctx, log, "test", []Strategy[int]{
			{Name: "a", Run: func(context.Context) (int, error) { return 0, first }},
			{Name: "b", Run: func(context.Context) (int, error) { return 0, last }},
		})
		assert.Same(t, last, err)
		assert.Empty(t, out.Strategy)
		assert.Equal(t, []string{"a", "b"}, out.Attempted)
	})

	t.Run("InapplicableSkipped", func(t *testing.T) {
		ran := false
		_, out, err := RunStrategies(ctx, log, "test", []Strategy[int]{
			{
				Name:       "skipped",
				Applicable: func() bool { return false },
				Run: func(context.Context) (int, error) {
					ran = true
					return 1, nil
				},
			},
			{Name: "used", Run: func(context.Context) (int, error) { return 2, nil }},
		})
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, []string{"used"}, out.Attempted)
	})

	t.Run("NothingApplicable", func(t *testing.T) {
		_, _, err := RunStrategies(ctx, log, "test", []Strategy[int]{
			{Name: "x", Applicable: func() bool { return false }},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NetworkFeatureUnsupported))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, out, err := RunStrategies(cctx, log, "test", []Strategy[int]{
			{Name: "x", Run: func(context.Context) (int, error) { return 1, nil }},
		})
		require.Error(t, err)
		assert.Empty(t, out.Attempted)
	})
}
