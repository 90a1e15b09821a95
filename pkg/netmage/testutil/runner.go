// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides scripted stand-ins for the host tools the
// netmage package drives.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
)

// Call is one recorded invocation
type Call struct {
	Name string
	Args []string
}

// String renders the call as a quoted command line
func (c Call) String() string {
	return command.CommandLine(c.Name, c.Args...)
}

// Response is a canned command outcome. A non-zero ExitCode produces the
// same error shape as the real executor.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Handler computes a response from the invocation
type Handler func(ctx context.Context, name string, args []string) (*command.Result, error)

type rule struct {
	prefix    string
	responses []Response
	handler   Handler
}

// ScriptedRunner implements command.Runner. Rules are matched against
// the rendered command line by prefix and the longest prefix wins. Several
// responses for one prefix are served in order and the last one repeats.
// A call that matches no rule fails as if the binary were missing.
type ScriptedRunner struct {
	mu    sync.Mutex
	rules []*rule
	calls []Call
}

// NewScriptedRunner returns an empty runner
func NewScriptedRunner() *ScriptedRunner {
	return &ScriptedRunner{}
}

// On queues a response for command lines starting with prefix
func (r *ScriptedRunner) On(prefix string, resp Response) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ru := range r.rules {
		if ru.prefix == prefix && ru.handler == nil {
			ru.responses = append(ru.responses, resp)
			return r
		}
	}
	r.rules = append(r.rules, &rule{prefix: prefix, responses: []Response{resp}})
	return r
}

// OK queues a successful response with stdout
func (r *ScriptedRunner) OK(prefix, stdout string) *ScriptedRunner {
	return r.On(prefix, Response{Stdout: stdout})
}

// Fail queues a non-zero exit with stderr
func (r *ScriptedRunner) Fail(prefix string, exitCode int, stderr string) *ScriptedRunner {
	return r.On(prefix, Response{ExitCode: exitCode, Stderr: stderr})
}

// Handle routes command lines starting with prefix to h
func (r *ScriptedRunner) Handle(prefix string, h Handler) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, &rule{prefix: prefix, handler: h})
	return r
}

// Run implements command.Runner
func (r *ScriptedRunner) Run(ctx context.Context, name string, args ...string) (*command.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	line := call.String()

	r.mu.Lock()
	r.calls = append(r.calls, call)
	var best *rule
	for _, ru := range r.rules {
		if strings.HasPrefix(line, ru.prefix) && (best == nil || len(ru.prefix) > len(best.prefix)) {
			best = ru
		}
	}
	var resp Response
	if best != nil && best.handler == nil {
		resp = best.responses[0]
		if len(best.responses) > 1 {
			best.responses = best.responses[1:]
		}
	}
	r.mu.Unlock()

	if best == nil {
		return &command.Result{ExitCode: -1}, errors.New(errors.CommandNotFound, name).
			WithMetadata("command", line)
	}
	if best.handler != nil {
		return best.handler(ctx, name, args)
	}
	return Respond(line, resp)
}

// Respond converts a Response into the executor's return shape
func Respond(line string, resp Response) (*command.Result, error) {
	res := &command.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, command.ExecutionError(line, resp.ExitCode, resp.Stderr)
	}
	return res, nil
}

// Calls returns the recorded invocations
func (r *ScriptedRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded invocations as command lines
func (r *ScriptedRunner) Lines() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// LinesWithPrefix returns the recorded command lines starting with prefix
func (r *ScriptedRunner) LinesWithPrefix(prefix string) []string {
	var out []string
	for _, l := range r.Lines() {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	return out
}
