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
	"strings"

	"github.com/croessner/ldapauth/config"
	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/errors"
)

// resolvedDN is the outcome of the pure DN computation step of one attempt.
type resolvedDN struct {
	// bindDN is the name the credential check binds with.
	bindDN string

	// searchBase is the subtree root of the follow-up profile search.
	searchBase string

	// localName is the value substituted for the filter placeholder.
	localName string
}

// resolveDN computes the bind DN and the search base DN for a login name.
// The computation is pure; the only failure mode is a Windows style login
// name that lacks the domain separator.
func resolveDN(conf *config.Config, username string) (*resolvedDN, error) {
	if conf.GetDNMode() == definitions.DNModeWindows {
		return resolveWindowsDN(conf, username)
	}

	return resolveUnixDN(conf, username), nil
}

// resolveUnixDN builds "<uidAttribute>=<username>,<base>". The search is
// rooted at the user's own entry, so the search base equals the bind DN.
func resolveUnixDN(conf *config.Config, username string) *resolvedDN {
	bindDN := fmt.Sprintf("%s=%s,%s", conf.GetUIDAttribute(), username, conf.GetJoinedBaseDN())

	return &resolvedDN{
		bindDN:     bindDN,
		searchBase: bindDN,
		localName:  username,
	}
}

// resolveWindowsDN accepts "DOMAIN\name" login names. Active Directory binds
// with the raw login name, so the bind DN stays untouched; the search base is
// derived by prepending "dc=<domain>" to the configured base components when
// it is not already among them.
func resolveWindowsDN(conf *config.Config, username string) (*resolvedDN, error) {
	domain, localName, found := strings.Cut(username, `\`)
	if !found || domain == "" || localName == "" {
		return nil, errors.ErrMalformedUsername
	}

	searchBase := conf.BaseDN

	if searchBase == "" {
		domainComponent := "dc=" + strings.ToLower(domain)
		parts := conf.GetBaseDNParts()

		hasDomainComponent := false

		for _, part := range parts {
			if strings.EqualFold(part, domainComponent) {
				hasDomainComponent = true

				break
			}
		}

		if !hasDomainComponent {
			parts = append([]string{domainComponent}, parts...)
		}

		searchBase = strings.Join(parts, ",")
	}

	return &resolvedDN{
		bindDN:     username,
		searchBase: searchBase,
		localName:  localName,
	}, nil
}
