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

package definitions

// Logging strings.
const (
	LogKeyGUID         = "session"
	LogKeyMsg          = "msg"
	LogKeyError        = "error"
	LogKeyErrorDetails = "error_details"
	LogKeyInstance     = "instance"
	LogKeyUsername     = "username"
	LogKeyBindDN       = "bind_dn"
	LogKeyBaseDN       = "base_dn"
	LogKeyFilter       = "filter"
	LogKeyAuthState    = "state"
	LogKeyAuthStatus   = "status"
	LogKeyReason       = "reason"
	LogKeyLatency      = "latency"

	NotAvailable = "N/A"
)

// Defaults.
const (
	InstanceName = "ldapauth1"

	DefaultUsernameField = "username"
	DefaultPasswordField = "password"
	DefaultUIDAttribute  = "uid"

	PasswordFail = "Invalid login or password"

	LDAPConnectTimeout = 30
	LDAPMaxRetries     = 9

	AuthPipelineTimeout = 60
)

// FilterPlaceholder is the token inside a configured search filter that gets
// replaced with the (escaped) login name of the current attempt.
const FilterPlaceholder = "$uid$"

// Log level.
const (
	LogLevelNone  = iota
	LogLevelError = iota
	LogLevelWarn  = iota
	LogLevelInfo  = iota
	LogLevelDebug = iota
)

// DN construction styles.
const (
	DNModeUnix    DNMode = iota
	DNModeWindows DNMode = iota
)

const (
	DNModeUnixName    = "unix"
	DNModeWindowsName = "windows"
)

// States of a single authentication attempt.
const (
	AuthStateStart         AuthState = iota
	AuthStateValidating    AuthState = iota
	AuthStateBinding       AuthState = iota
	AuthStateSearching     AuthState = iota
	AuthStateAwaitingEntry AuthState = iota
	AuthStateVerifying     AuthState = iota
	AuthStateSucceeded     AuthState = iota
	AuthStateFailed        AuthState = iota
	AuthStateErrored       AuthState = iota
)

const (
	AuthStateStartName         = "start"
	AuthStateValidatingName    = "validating"
	AuthStateBindingName       = "binding"
	AuthStateSearchingName     = "searching"
	AuthStateAwaitingEntryName = "awaiting_entry"
	AuthStateVerifyingName     = "verifying"
	AuthStateSucceededName     = "succeeded"
	AuthStateFailedName        = "failed"
	AuthStateErroredName       = "errored"
)

// Statistics labels for the outcome counter.
const (
	LabelSuccess = "success"
	LabelFailure = "failure"
	LabelError   = "error"
)

const (
	DbgNone DbgModule = iota
	DbgAll  DbgModule = iota
	DbgAuth DbgModule = iota
	DbgLDAP DbgModule = iota
	DbgDN   DbgModule = iota
)

const (
	DbgNoneName = "none"
	DbgAllName  = "all"
	DbgAuthName = "auth"
	DbgLDAPName = "ldap"
	DbgDNName   = "dn"
)

const DistinguishedName = "dn"
