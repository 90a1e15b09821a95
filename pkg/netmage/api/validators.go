// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	stderrors "errors"
	"fmt"
	"net/netip"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by the request
// types on gin's validator engine. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("nocomma", validateNoComma); err != nil {
			panic(err)
		}
		if err := v.RegisterValidation("netmask", validateNetmask); err != nil {
			panic(err)
		}
		if err := v.RegisterValidation("ipv4host", validateIPv4Host); err != nil {
			panic(err)
		}

		// Report JSON field names instead of Go struct field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func validateNoComma(fl validator.FieldLevel) bool {
	return !strings.Contains(fl.Field().String(), ",")
}

func validateNetmask(fl validator.FieldLevel) bool {
	_, err := netmage.ParseNetmask(fl.Field().String())
	return err == nil
}

// validateIPv4Host accepts an IPv4 address with an optional /prefix or
// /netmask suffix, such as 10.0.0.5 or 10.0.0.5/24
func validateIPv4Host(fl validator.FieldLevel) bool {
	addr, mask, hasMask := strings.Cut(fl.Field().String(), "/")
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return false
	}
	if hasMask {
		if _, err := netmage.ParseNetmask(mask); err != nil {
			return false
		}
	}
	return true
}

// bindError converts a ShouldBindJSON failure into a validation error. The
// first failing field decides the code.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, errors.ServerRequestValidation)
	}

	fe := verrs[0]
	return errors.New(tagCode(fe.Tag()), fieldMessage(fe)).
		WithMetadata("field", fe.Field()).
		WithMetadata("tag", fe.Tag())
}

func tagCode(tag string) errors.ErrorCode {
	switch tag {
	case "nocomma":
		return errors.NetworkFieldContainsComma
	case "netmask":
		return errors.NetworkNetmaskInvalid
	case "ip", "ipv4", "ipv4host":
		return errors.NetworkIPAddressInvalid
	default:
		return errors.ServerRequestValidation
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "nocomma":
		return fmt.Sprintf("%s must not contain a comma", field)
	case "netmask":
		return fmt.Sprintf("%s must be a dotted netmask or prefix length", field)
	case "ip":
		return fmt.Sprintf("%s must be a valid IP address", field)
	case "ipv4":
		return fmt.Sprintf("%s must be a valid IPv4 address", field)
	case "ipv4host":
		return fmt.Sprintf("%s must be an IPv4 address, optionally with a /prefix", field)
	case "min":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
