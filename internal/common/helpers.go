// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	stderrors "errors"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/pkg/errors"
)

// Global logger. Built from the default logger settings so importing this
// package does not load the configuration file.
var Log logger.Logger

func init() {
	var err error
	Log, err = logger.NewTag(config.NewLoggerConfig(nil), "global")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
}

var (
	htmlTagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeMessage reduces s to a single line of plain text. Upstream
// proxies sometimes hand back HTML error pages; none of that markup may
// reach a JSON error body.
func SanitizeMessage(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ErrorMessage renders err for API consumers: the registered message plus
// details, without the internal domain/code prefix.
func ErrorMessage(err error) string {
	var re *errors.RodentError
	if stderrors.As(err, &re) {
		msg := re.Message
		if re.Details != "" && re.Details != re.Message {
			msg += ": " + re.Details
		}
		return SanitizeMessage(msg)
	}
	return SanitizeMessage(err.Error())
}

// APIError writes err as {"error": "..."} with the status registered for
// its code and aborts the handler chain.
func APIError(c *gin.Context, err error) {
	status := errors.HTTPStatusOf(err)
	msg := ErrorMessage(err)
	if msg == "" {
		msg = http.StatusText(status)
	}

	if code := errors.CodeOf(err); code != 0 {
		c.Header("X-Error-Code", strconv.Itoa(int(code)))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
