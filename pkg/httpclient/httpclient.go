/*
 * Copyright 2024 Raamsri Kumar <raam@tinkershack.in> and The StrataSTOR Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpclient is the resty client the CLI uses to talk to a running
// agent.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultRetryCount      = 3
	defaultRetryWaitTime   = 2 * time.Second
	defaultRetryMaxWait    = 10 * time.Second
	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 90 * time.Second
	defaultUserAgent       = "netpanel-cli"
)

// Client wraps resty.Client with the agent's error envelope
type Client struct {
	*resty.Client
	config ClientConfig
}

// ClientConfig holds configuration values for the HTTP client
type ClientConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	UserAgent        string
	Headers          map[string]string

	MaxIdleConns    int
	IdleConnTimeout time.Duration

	Debug bool
}

// NewClientConfig returns a ClientConfig with sensible defaults
func NewClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:          defaultTimeout,
		RetryCount:       defaultRetryCount,
		RetryWaitTime:    defaultRetryWaitTime,
		RetryMaxWaitTime: defaultRetryMaxWait,
		UserAgent:        defaultUserAgent + "/" + constants.Version,
		Headers:          make(map[string]string),
		MaxIdleConns:     defaultMaxIdleConns,
		IdleConnTimeout:  defaultIdleConnTimeout,
	}
}

// NewClient creates a new Resty client with provided configuration
func NewClient(config ClientConfig) *Client {
	client := &Client{
		Client: resty.New(),
		config: config,
	}
	client.applyConfig()
	return client
}

func (c *Client) applyConfig() {
	if c.config.Timeout > 0 {
		c.Client.SetTimeout(c.config.Timeout)
	}
	if c.config.RetryCount > 0 {
		c.Client.SetRetryCount(c.config.RetryCount)
	}
	if c.config.RetryWaitTime > 0 {
		c.Client.SetRetryWaitTime(c.config.RetryWaitTime)
	}
	if c.config.RetryMaxWaitTime > 0 {
		c.Client.SetRetryMaxWaitTime(c.config.RetryMaxWaitTime)
	}
	if c.config.UserAgent != "" {
		c.Client.SetHeader("User-Agent", c.config.UserAgent)
	}
	if c.config.BaseURL != "" {
		c.Client.SetBaseURL(c.config.BaseURL)
	}
	if c.config.Headers != nil {
		c.Client.SetHeaders(c.config.Headers)
	}
	if c.config.Debug {
		c.Client.SetDebug(true)
	} else {
		c.Client.SetLogger(NoOpLogger{})
	}

	// Connection failures are retried by resty itself; 5xx answers are
	// retried too since the agent may still be starting
	c.Client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r != nil && r.StatusCode() >= http.StatusInternalServerError
	})

	c.Client.SetTransport(&http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxIdleConns:    c.config.MaxIdleConns,
		IdleConnTimeout: c.config.IdleConnTimeout,
	})
}

// errorBody is the JSON shape of every agent error
type errorBody struct {
	Error string `json:"error"`
}

// GetJSON fetches path and decodes a 2xx body into result. Non-2xx
// answers become a ServerResponseError carrying the agent's message.
func (c *Client) GetJSON(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// SendJSON sends body with method and decodes a 2xx answer into result
func (c *Client) SendJSON(ctx context.Context, method, path string, body, result interface{}) error {
	return c.do(ctx, method, path, body, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var apiErr errorBody
	req := c.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrap(err, errors.ServerResponseError).
			WithMetadata("url", c.config.BaseURL+path)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.String()
		}
		return errors.New(errors.ServerResponseError,
			fmt.Sprintf("%s %s: %s", method, path, msg)).
			WithMetadata("status", resp.Status()).
			WithMetadata("error_code", resp.Header().Get("X-Error-Code"))
	}
	return nil
}

// NoOpLogger suppresses resty's own logging
type NoOpLogger struct{}

func (NoOpLogger) Errorf(format string, v ...interface{}) {}
func (NoOpLogger) Warnf(format string, v ...interface{})  {}
func (NoOpLogger) Debugf(format string, v ...interface{}) {}
