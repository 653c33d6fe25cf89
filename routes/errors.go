/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errInvalidID         = errors.New("invalid id")
	errInvalidActor      = errors.New("invalid actor header")
	errInvalidBody       = errors.New("invalid request body")
	errInvalidHorizon    = errors.New("horizon must be YYYY-MM-DD")
	errInvalidStatusFlag = errors.New("unknown definition status")
)
