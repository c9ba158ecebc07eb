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

package util

import (
	"regexp"
	"sync/atomic"

	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/log"
	"github.com/go-kit/log/level"
)

var crlfPattern = regexp.MustCompile(`\s*[\r\n]+\s*`)

var debugFlag atomic.Bool

// SetDebug toggles emission of DebugModule traces. The traces additionally
// require the debug log level.
func SetDebug(enabled bool) {
	debugFlag.Store(enabled)
}

// Debug reports whether DebugModule traces are enabled.
func Debug() bool {
	return debugFlag.Load()
}

// RemoveCRLFFromQueryOrFilter strips line breaks (and surrounding whitespace)
// from an LDAP filter before it is sent to a directory server.
func RemoveCRLFFromQueryOrFilter(value string, sep string) string {
	return crlfPattern.ReplaceAllString(value, sep)
}

// DebugModule emits a debug log line tagged with the given module name. It is
// a no-op unless the log level is at least debug.
func DebugModule(module definitions.DbgModule, keyvals ...any) {
	var moduleName string

	if !debugFlag.Load() || log.Level() < definitions.LogLevelDebug {
		return
	}

	switch module {
	case definitions.DbgAll:
		moduleName = definitions.DbgAllName
	case definitions.DbgAuth:
		moduleName = definitions.DbgAuthName
	case definitions.DbgLDAP:
		moduleName = definitions.DbgLDAPName
	case definitions.DbgDN:
		moduleName = definitions.DbgDNName
	default:
		moduleName = definitions.DbgNoneName
	}

	keyvals = append(keyvals, "debug_module", moduleName)

	level.Debug(log.Logger).Log(keyvals...)
}
