/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/bookkeeper/finance"
)

// actorHeader carries the ID of the user authorizing a write.
const actorHeader = "X-Actor-ID"

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(c flamego.Context, status int, body interface{}) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(c.ResponseWriter()).Encode(body); err != nil {
		logger.Error("Failed to encode response", "path", c.Request().URL.Path, "error", err)
	}
}

func writeBadRequest(c flamego.Context, err error) {
	writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps finance errors to status codes. Unexpected errors are
// logged and reported without detail.
func writeError(c flamego.Context, err error) {
	var validation *finance.ValidationError

	switch {
	case errors.As(err, &validation):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.Is(err, finance.ErrValidation):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, finance.ErrNotFound):
		writeJSON(c, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, finance.ErrDuplicateSource):
		writeJSON(c, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		fields := append([]interface{}{"error", err}, baseRequestFields(c)...)
		logger.Error("Finance request failed", fields...)
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(c flamego.Context, dst interface{}) error {
	decoder := json.NewDecoder(c.Request().Body().ReadCloser())
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errInvalidBody
	}

	return nil
}

func paramUUID(c flamego.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, errInvalidID
	}

	return id, nil
}

// requestActor reads the acting user from the actor header. An absent header
// yields the empty actor, which the finance layer rejects where one is needed.
func requestActor(c flamego.Context) (finance.Actor, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(actorHeader))
	if raw == "" {
		return "", nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errInvalidActor
	}

	return finance.UserActor(id), nil
}
