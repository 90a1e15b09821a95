// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"context"
	"strings"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	calls []string
	fail  map[string]error
}

func (r *recordingRunner) Run(
	_ context.Context,
	name string,
	args ...string,
) (*command.Result, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, line)
	if err, ok := r.fail[name]; ok {
		return &command.Result{ExitCode: command.ExitCode(err)}, err
	}
	return &command.Result{}, nil
}

func newTestOps(t *testing.T, r *recordingRunner) *SudoFileOperations {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.privilege")
	require.NoError(t, err)
	return NewOperationsFactory(l, r, DefaultConfig()).Create().(*SudoFileOperations)
}

func TestIsPathAllowed(t *testing.T) {
	ops := newTestOps(t, &recordingRunner{})

	assert.True(t, ops.isPathAllowed("/etc/resolv.conf"))
	assert.True(t, ops.isPathAllowed("/etc/systemd/timesyncd.conf.d/netpanel.conf"))
	assert.False(t, ops.isPathAllowed("/etc/resolv.conf.d/evil"))
	assert.False(t, ops.isPathAllowed("/etc/shadow"))
	assert.False(t, ops.isPathAllowed("/etc/systemd/timesyncd.conf.d/../../shadow"))
}

func TestWriteFile(t *testing.T) {
	r := &recordingRunner{}
	ops := newTestOps(t, r)

	err := ops.WriteFile(context.Background(),
		"/etc/systemd/timesyncd.conf.d/netpanel.conf", []byte("[Time]\n"), 0644)
	require.NoError(t, err)

	require.Len(t, r.calls, 3)
	assert.Equal(t, "mkdir -p /etc/systemd/timesyncd.conf.d", r.calls[0])
	assert.True(t, strings.HasPrefix(r.calls[1], "cp "))
	assert.True(t, strings.HasSuffix(r.calls[1], " /etc/systemd/timesyncd.conf.d/netpanel.conf"))
	assert.Equal(t, "chmod 644 /etc/systemd/timesyncd.conf.d/netpanel.conf", r.calls[2])
}

func TestWriteFileDenied(t *testing.T) {
	r := &recordingRunner{}
	ops := newTestOps(t, r)

	err := ops.WriteFile(context.Background(), "/etc/passwd", []byte("x"), 0644)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.PermissionDenied))
	assert.Empty(t, r.calls)
}

func TestExists(t *testing.T) {
	missing := errors.New(errors.CommandExecution, "").WithMetadata("exit_code", "1")
	r := &recordingRunner{fail: map[string]error{"test": missing}}
	ops := newTestOps(t, r)

	ok, err := ops.Exists(context.Background(), "/etc/resolv.conf")
	require.NoError(t, err)
	assert.False(t, ok)
}
