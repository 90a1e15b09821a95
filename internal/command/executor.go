// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/internal/metrics"
	rterrors "github.com/stratastor/netpanel/pkg/errors"
)

// Characters refused in the command name. Arguments go straight to
// execve and are never seen by a shell, so they are checked only for NUL.
var dangerousChars = "&|><$`\\[];{}"

// Command execution timeout
const defaultCommandTimeout = 30 * time.Second

const maxArgs = 64

// Result is the captured outcome of one process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs external tools. The returned Result is never nil, even when
// err is set, so callers can inspect partial output of a failed command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// PathFinder reports whether a tool is installed.
type PathFinder interface {
	LookPath(name string) (string, error)
}

// CommandExecutor runs commands with a pinned locale and environment so
// their output stays parseable, optionally through sudo.
type CommandExecutor struct {
	useSudo bool
	timeout time.Duration
	logger  logger.Logger
}

// Option customises a CommandExecutor
type Option func(*CommandExecutor)

// WithTimeout sets the per-command timeout used when the caller's context
// carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *CommandExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used for command tracing
func WithLogger(l logger.Logger) Option {
	return func(e *CommandExecutor) {
		e.logger = l
	}
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(useSudo bool, opts ...Option) *CommandExecutor {
	e := &CommandExecutor{
		useSudo: useSudo,
		timeout: defaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		l, err := logger.NewTag(logger.Config{LogLevel: "info"}, "command")
		if err == nil {
			e.logger = l
		}
	}
	return e
}

// LookPath resolves name against the pinned search path
func (e *CommandExecutor) LookPath(name string) (string, error) {
	for _, dir := range filepath.SplitList(constants.DefaultCommandSearchPath) {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return path, nil
		}
	}
	return exec.LookPath(name)
}

// Run executes name with args and captures stdout and stderr separately.
func (e *CommandExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	result := &Result{ExitCode: -1}

	if err := validateCommand(name, args); err != nil {
		return result, err
	}

	// Apply timeout if not already set
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	bin, argv := name, args
	if e.useSudo && os.Geteuid() != 0 {
		bin = "sudo"
		argv = append([]string{"-n", name}, args...)
	}

	cmdString := shellquote.Join(append([]string{name}, args...)...)
	e.debug("Executing command", "cmd", cmdString, "sudo", bin == "sudo")

	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Env = []string{"LC_ALL=C", "LANG=C", "PATH=" + constants.DefaultCommandSearchPath}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err == nil {
		result.ExitCode = 0
		metrics.ObserveCommand(name, metrics.OutcomeSuccess, result.Duration.Seconds())
		return result, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		metrics.ObserveCommand(name, metrics.OutcomeTimeout, result.Duration.Seconds())
		e.warn("Command timed out", "cmd", cmdString, "duration", result.Duration)
		return result, rterrors.New(rterrors.CommandTimeout, cmdString).
			WithMetadata("command", cmdString).
			WithMetadata("timeout", result.Duration.String())
	}

	metrics.ObserveCommand(name, metrics.OutcomeFailure, result.Duration.Seconds())

	if errors.Is(err, exec.ErrNotFound) {
		return result, rterrors.Wrap(err, rterrors.CommandNotFound).
			WithMetadata("command", cmdString)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		e.debug("Command exited with non-zero status",
			"cmd", cmdString,
			"exit_code", result.ExitCode,
			"stderr", strings.TrimSpace(result.Stderr))

		return result, execError(cmdString, result.ExitCode, result.Stderr, err.Error())
	}

	e.warn("Command execution failed", "cmd", cmdString, "err", err)
	return result, rterrors.Wrap(err, rterrors.CommandExecution).
		WithMetadata("command", cmdString)
}

// ExecutionError builds the error returned for a command that exited
// non-zero. Runner implementations other than CommandExecutor use it so
// callers can rely on ExitCode and Stderr.
func ExecutionError(cmdline string, exitCode int, stderr string) error {
	return execError(cmdline, exitCode, stderr, fmt.Sprintf("exit status %d", exitCode))
}

func execError(cmdline string, exitCode int, stderr, fallback string) *rterrors.RodentError {
	return rterrors.New(rterrors.CommandExecution, firstLine(stderr, fallback)).
		WithMetadata("command", cmdline).
		WithMetadata("exit_code", strconv.Itoa(exitCode)).
		WithMetadata("stderr", strings.TrimSpace(stderr))
}

func (e *CommandExecutor) debug(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, kv...)
	}
}

func (e *CommandExecutor) warn(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, kv...)
	}
}

// ExitCode extracts the exit status recorded on a command error, or -1.
func ExitCode(err error) int {
	for err != nil {
		var re *rterrors.RodentError
		if !errors.As(err, &re) {
			return -1
		}
		if v, ok := re.Metadata["exit_code"]; ok {
			if code, convErr := strconv.Atoi(v); convErr == nil {
				return code
			}
		}
		err = re.Unwrap()
	}
	return -1
}

// Stderr returns the stderr recorded on a command error
func Stderr(err error) string {
	var re *rterrors.RodentError
	if errors.As(err, &re) {
		return re.Metadata["stderr"]
	}
	return ""
}

// CommandLine renders name and args the way they appear in logs
func CommandLine(name string, args ...string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// validateCommand performs security checks on the command and arguments
func validateCommand(name string, args []string) error {
	// Check for empty command
	if name == "" {
		return rterrors.New(rterrors.CommandInvalidInput, "empty command")
	}

	// Check for absolute path or valid command name
	if !strings.HasPrefix(name, "/") && strings.ContainsAny(name, "/\\") {
		return rterrors.New(
			rterrors.CommandInvalidInput,
			"relative paths are not allowed for commands",
		)
	}

	if strings.ContainsAny(name, dangerousChars) || strings.Contains(name, "..") {
		return rterrors.New(rterrors.CommandInvalidInput, "command contains invalid characters")
	}

	for _, arg := range args {
		if strings.IndexByte(arg, 0) >= 0 {
			return rterrors.New(
				rterrors.CommandInvalidInput,
				fmt.Sprintf("argument %q contains a NUL byte", arg),
			)
		}
	}

	// Limit arguments count
	if len(args) > maxArgs {
		return rterrors.New(rterrors.CommandInvalidInput, "too many arguments")
	}

	return nil
}
