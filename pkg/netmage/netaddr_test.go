// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"testing"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetmaskPrefixRoundTrip(t *testing.T) {
	for prefix := 0; prefix <= 32; prefix++ {
		mask, err := PrefixToNetmask(prefix)
		require.NoError(t, err)
		back, err := NetmaskToPrefix(mask)
		require.NoError(t, err)
		assert.Equal(t, prefix, back, "mask %s", mask)
	}
}

func TestNetmaskToPrefix(t *testing.T) {
	tests := []struct {
		mask    string
		want    int
		wantErr bool
	}{
		{"255.255.255.0", 24, false},
		{"255.255.0.0", 16, false},
		{"255.255.255.252", 30, false},
		{"0.0.0.0", 0, false},
		{"255.255.255.255", 32, false},
		{"255.0.255.0", 0, true},
		{"255.255.255.1", 0, true},
		{"not-a-mask", 0, true},
		{"ffff:ffff::", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			got, err := NetmaskToPrefix(tt.mask)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.NetworkNetmaskInvalid))
				assert.Equal(t, errors.KindValidation, errors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrefixToNetmask(t *testing.T) {
	mask, err := PrefixToNetmask(24)
	require.NoError(t, err)
	assert.Equal(t, "255.255.255.0", mask)

	_, err = PrefixToNetmask(33)
	assert.Error(t, err)
	_, err = PrefixToNetmask(-1)
	assert.Error(t, err)
}

func TestParseNetmask(t *testing.T) {
	tests := map[string]int{
		"255.255.255.0": 24,
		"24":            24,
		"/16":           16,
		" 8 ":           8,
	}
	for in, want := range tests {
		got, err := ParseNetmask(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "33", "/x", "255.0.255.0"} {
		_, err := ParseNetmask(bad)
		assert.Error(t, err, bad)
	}
}
