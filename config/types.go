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

package config

import (
	"strings"

	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/errors"
	"github.com/go-ldap/ldap/v3"
)

// Verbosity is the level of detail for logging.
type Verbosity struct {
	verboseLevel int
	name         string
}

func (v *Verbosity) String() string {
	return v.name
}

// Set updates the verbosity level and name based on the provided value. Valid
// values are "none", "error", "warn", "info" and "debug".
func (v *Verbosity) Set(value string) error {
	value = strings.TrimSpace(value)

	switch value {
	case "none", "":
		v.verboseLevel = definitions.LogLevelNone
	case "error":
		v.verboseLevel = definitions.LogLevelError
	case "warn":
		v.verboseLevel = definitions.LogLevelWarn
	case "info":
		v.verboseLevel = definitions.LogLevelInfo
	case "debug":
		v.verboseLevel = definitions.LogLevelDebug
	default:
		return errors.ErrWrongVerboseLevel
	}

	v.name = value

	return nil
}

// Type returns the name of the type.
func (v *Verbosity) Type() string {
	return "Verbosity"
}

// Level returns the numeric verbosity level.
func (v *Verbosity) Level() int {
	return v.verboseLevel
}

// Get returns the name of the log level as string.
func (v *Verbosity) Get() string {
	return v.name
}

// LDAPScope is the search scope of an LDAP query.
type LDAPScope struct {
	scope int
	name  string
}

func (l *LDAPScope) String() string {
	return l.name
}

// Set sets the numeric LDAP search scope by its string representation.
func (l *LDAPScope) Set(value string) error {
	value = strings.TrimSpace(value)

	switch value {
	case "base":
		l.scope = ldap.ScopeBaseObject
	case "one":
		l.scope = ldap.ScopeSingleLevel
	case "sub":
		l.scope = ldap.ScopeWholeSubtree
	default:
		return errors.ErrWrongLDAPScope
	}

	l.name = value

	return nil
}

// Type returns the name of the type.
func (l *LDAPScope) Type() string {
	return "LDAPScope"
}

// Get returns the numeric LDAP search scope.
func (l *LDAPScope) Get() int {
	return l.scope
}

// DNModeFlag is the bind DN construction style of a directory.
type DNModeFlag struct {
	mode definitions.DNMode
	name string
}

func (d *DNModeFlag) String() string {
	return d.name
}

// Set sets the DN mode by its string representation. Besides the canonical
// names, the common directory family names are accepted as aliases.
func (d *DNModeFlag) Set(value string) error {
	value = strings.TrimSpace(value)

	switch value {
	case definitions.DNModeUnixName, "openldap":
		d.mode = definitions.DNModeUnix
	case definitions.DNModeWindowsName, "activedirectory", "ad":
		d.mode = definitions.DNModeWindows
	default:
		return errors.ErrWrongDNMode
	}

	d.name = value

	return nil
}

// Type returns the name of the type.
func (d *DNModeFlag) Type() string {
	return "DNModeFlag"
}

// Get returns the numeric DN mode.
func (d *DNModeFlag) Get() definitions.DNMode {
	return d.mode
}
