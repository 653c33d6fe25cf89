/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import "github.com/google/uuid"

// Actor identifies who authorized a ledger write.
type Actor string

// SystemActor attributes writes made by background jobs and collaborator
// workflows that have no interactive user.
const SystemActor Actor = "system"

// UserActor attributes a write to a specific user.
func UserActor(id uuid.UUID) Actor {
	return Actor(id.String())
}

// IsSystem reports whether the actor is the system sentinel.
func (a Actor) IsSystem() bool {
	return a == SystemActor
}

// UserID returns the user id behind a user actor.
func (a Actor) UserID() (uuid.UUID, bool) {
	if a == "" || a.IsSystem() {
		return uuid.UUID{}, false
	}

	id, err := uuid.Parse(string(a))
	if err != nil {
		return uuid.UUID{}, false
	}

	return id, true
}
