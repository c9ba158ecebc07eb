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

package errors

import (
	"errors"
)

type DetailedError struct {
	err     error
	guid    string
	details string
}

func (d *DetailedError) Error() string {
	return d.err.Error()
}

func (d *DetailedError) WithGUID(guid string) *DetailedError {
	if d == nil {
		return nil
	}

	d.guid = guid

	return d
}

func (d *DetailedError) WithDetail(detail string) *DetailedError {
	if d == nil {
		return nil
	}

	d.details = detail

	return d
}

func (d *DetailedError) GetGUID() string {
	return d.guid
}

func (d *DetailedError) GetDetails() string {
	return d.details
}

func NewDetailedError(err string) *DetailedError {
	return &DetailedError{err: errors.New(err)}
}

// auth.

var (
	ErrMissingCredentials = errors.New("missing username or password")
	ErrMalformedUsername  = errors.New("windows style username lacks a domain separator")
	ErrNoTerminalEvent    = errors.New("search stream ended without a terminal event")
)

// config.

var (
	ErrWrongVerboseLevel = errors.New("wrong verbose level")
	ErrWrongLDAPScope    = errors.New("wrong LDAP scope: <%s>")
	ErrWrongDNMode       = errors.New("wrong dn mode: <%s>")
)

// ldap.

var (
	ErrLDAPConnect        = NewDetailedError("ldap_servers_connect_error")
	ErrLDAPConnectTimeout = NewDetailedError("ldap_connect_timeout")
	ErrNoLDAPSearchResult = NewDetailedError("ldap_no_search_result")
	ErrAuthTimeout        = NewDetailedError("auth_pipeline_timeout")
)
