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
	"context"

	"github.com/croessner/ldapauth/directory"
)

// Verdict is the decision of a verify callback about one directory profile.
// The zero value is a rejection; use Accept to carry the application user.
type Verdict struct {
	user     any
	accepted bool
}

// Accept produces a verdict that maps the profile onto an application user.
func Accept(user any) Verdict {
	return Verdict{user: user, accepted: true}
}

// Reject produces a verdict that refuses the profile without an error.
func Reject() Verdict {
	return Verdict{}
}

// Accepted returns the application user and whether the profile was accepted.
func (v Verdict) Accepted() (any, bool) {
	return v.user, v.accepted
}

// VerifyFunc decides whether a matched directory profile maps onto a valid
// application user. It is invoked at most once per matching entry and only
// before the attempt has settled. Returning an error aborts the attempt with
// an error outcome; a rejection fails it with the challenge reason.
type VerifyFunc func(ctx context.Context, profile *directory.Entry) (Verdict, error)

// ChallengeFunc computes the failure reason reported when a verify callback
// rejects a profile.
type ChallengeFunc func() Reason
