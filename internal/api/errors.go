// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package api

import (
	"errors"
	"net/http"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// policyViolationMessage is the only text a blocked user ever sees. Ban
// reasons and related accounts stay internal.
const policyViolationMessage = "This device or account cannot be used with this service"

// writeServiceError maps the engine error taxonomy onto HTTP responses.
func writeServiceError(rw *ResponseWriter, r *http.Request, op string, err error) {
	var (
		banned      *models.DeviceBannedError
		invalid     *models.ValidationError
		unavailable *models.StoreUnavailableError
	)

	switch {
	case errors.As(err, &banned):
		rw.ErrorWithDetails(http.StatusForbidden, ErrCodePolicyViolation, policyViolationMessage,
			map[string]interface{}{"appealable": banned.Appealable})

	case errors.As(err, &invalid):
		details := map[string]interface{}{}
		if invalid.Field != "" {
			details["field"] = invalid.Field
		}
		if len(invalid.Details) > 0 {
			details["errors"] = invalid.Details
		}
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, invalid.Reason, details)

	case errors.Is(err, models.ErrNotFound):
		rw.NotFound("resource not found")

	case errors.As(err, &unavailable):
		logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Str("store", unavailable.Store).Msg("Store unavailable")
		rw.ServiceUnavailable(ErrCodeStoreUnavailable, "a backing store is unavailable, retry later")

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("Request failed")
		rw.InternalError("internal error")
	}
}
