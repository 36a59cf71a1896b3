// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	resolutionPattern = regexp.MustCompile(`^\s*\d{1,5}\s*[xX×*]\s*\d{1,5}\s*$`)
	deviceHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// GetValidator returns the shared validator. Field names in errors use the
// json tag so they match request bodies.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// resolution: "1920x1080", "1080 x 1920" and similar capture forms
		_ = validate.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
			return resolutionPattern.MatchString(fl.Field().String())
		})

		// devicehash: lower-case hex SHA-256
		_ = validate.RegisterValidation("devicehash", func(fl validator.FieldLevel) bool {
			return deviceHashPattern.MatchString(fl.Field().String())
		})
	})

	return validate
}

// ValidateStruct validates s and returns a *models.ValidationError listing
// every failing field, or nil.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &models.ValidationError{Reason: err.Error()}
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, translateError(fe))
	}

	first := fieldErrs[0]
	return &models.ValidationError{
		Field:   fieldPath(first),
		Reason:  translateError(first),
		Details: details,
	}
}

// ValidateVar validates a single value against tag.
func ValidateVar(field string, value interface{}, tag string) error {
	if err := GetValidator().Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &models.ValidationError{Field: field, Reason: translateTag(field, fieldErrs[0].Tag(), fieldErrs[0].Param(), fieldErrs[0].Kind())}
		}
		return &models.ValidationError{Field: field, Reason: err.Error()}
	}
	return nil
}

// fieldPath strips the top-level struct name from the namespace so
// "DeviceSignals.hardware.screen_resolution" becomes "hardware.screen_resolution".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var messageTemplates = map[string]string{
	"required":    "%s is required",
	"ip":          "%s must be a valid IP address",
	"latitude":    "%s must be a valid latitude (-90 to 90)",
	"longitude":   "%s must be a valid longitude (-180 to 180)",
	"resolution":  "%s must look like WIDTHxHEIGHT",
	"devicehash":  "%s must be a 64-character hex device hash",
	"hexadecimal": "%s must be hexadecimal",
}

var messageTemplatesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError) string {
	return translateTag(fieldPath(fe), fe.Tag(), fe.Param(), fe.Kind())
}

func translateTag(field, tag, param string, kind reflect.Kind) string {
	if template, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := messageTemplatesWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	unit := ""
	switch kind {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		unit = " items"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
