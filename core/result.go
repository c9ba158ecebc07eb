// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package core

import (
	"fmt"

	"github.com/croessner/ldapauth/definitions"
)

// Reason is the opaque failure code handed to the host framework: a
// 401-equivalent for malformed requests, a 403-equivalent for rejected
// binds, a directory status code for empty search completions, or a
// challenge value for verify rejections.
type Reason struct {
	Code    int
	Message string
}

func (r Reason) String() string {
	return fmt.Sprintf("%d %s", r.Code, r.Message)
}

// Result is the terminal outcome of one authentication attempt. Exactly one
// of the three terminal states is ever reported per attempt.
type Result struct {
	// State is one of AuthStateSucceeded, AuthStateFailed or AuthStateErrored.
	State definitions.AuthState

	// User carries the application user value on success.
	User any

	// Reason carries the failure code on a failed attempt.
	Reason Reason

	// Err carries the unexpected error on an errored attempt.
	Err error
}

// Reporter is the three-way contract a host authentication framework
// implements to consume attempt outcomes.
type Reporter interface {
	// Success delivers the authenticated application user.
	Success(user any)

	// Failure delivers a normal authentication failure with its reason.
	Failure(reason Reason)

	// Error delivers an unexpected error, distinct from a failure; hosts
	// should treat it as an abort-request condition, not as bad credentials.
	Error(err error)
}

// Report dispatches the result onto the matching Reporter method.
func (r *Result) Report(reporter Reporter) {
	switch r.State {
	case definitions.AuthStateSucceeded:
		reporter.Success(r.User)
	case definitions.AuthStateErrored:
		reporter.Error(r.Err)
	default:
		reporter.Failure(r.Reason)
	}
}
