/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/common"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/internal/metrics"
	"github.com/stratastor/netpanel/pkg/errors"
)

// LoggerMiddleware stamps every request with an X-Request-Id, records its
// duration and logs it, with RodentError fields flattened into the entry
func LoggerMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Get or generate request ID
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-Id", requestID)

		// Store request ID in context for error correlation
		c.Set("request_id", requestID)

		// Process request
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		// Unmatched paths share one label so scanners cannot blow up
		// metric cardinality
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), elapsed.Seconds())

		// Health probes are polled; keep them out of the access log
		if path == constants.APIHealth && len(c.Errors) == 0 {
			return
		}

		attrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", status),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.Int("bytes_out", c.Writer.Size()),
			slog.String("ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		}

		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			attrs = append(attrs, slog.String("forwarded_for", xff))
		}

		if len(c.Errors) == 0 {
			l.Info("Request", logAttrs(attrs)...)
			return
		}

		for _, err := range c.Errors {
			if re, ok := err.Err.(*errors.RodentError); ok {
				attrs = append(attrs,
					slog.Int("error_code", int(re.Code)),
					slog.String("error_domain", string(re.Domain)),
					slog.String("error_kind", string(errors.KindOf(re))),
					slog.String("error_message", re.Message),
					slog.String("error_details", re.Details),
				)
				for k, v := range re.Metadata {
					attrs = append(attrs, slog.String("error_metadata_"+k, v))
				}
			} else {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
		}

		// Log as error for 5xx, warn for 4xx
		switch {
		case status >= 500:
			l.Error("Server Error", logAttrs(attrs)...)
		case status >= 400:
			l.Warn("Client Error", logAttrs(attrs)...)
		default:
			l.Info("Request", logAttrs(attrs)...)
		}
	}
}

// RecoveryMiddleware turns a handler panic into a JSON 500
func RecoveryMiddleware(l logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.Error("Recovered from panic",
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(recovered))
		common.APIError(c, errors.New(errors.ServerInternalError, "unexpected failure while handling the request"))
	})
}

func noRoute(c *gin.Context) {
	common.APIError(c, errors.New(errors.ServerNotFound,
		fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path)))
}

func noMethod(c *gin.Context) {
	common.APIError(c, errors.New(errors.ServerMethodNotAllowed,
		fmt.Sprintf("%s is not allowed on %s", c.Request.Method, c.Request.URL.Path)))
}

// Helper to convert slog.Attr slice to interface slice
func logAttrs(attrs []slog.Attr) []interface{} {
	args := make([]interface{}, len(attrs)*2)
	for i, attr := range attrs {
		args[i*2] = attr.Key
		args[i*2+1] = attr.Value.Any()
	}
	return args
}
