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

package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/croessner/ldapauth/config"
	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/errors"
	"github.com/croessner/ldapauth/stats"
	"github.com/croessner/ldapauth/util"
	"github.com/go-ldap/ldap/v3"
)

// LDAPConnector creates go-ldap backed connections from a strategy
// configuration. It implements the Connector interface.
type LDAPConnector struct {
	conf *config.Config
}

// NewConnector returns a Connector that dials the configured directory
// servers with go-ldap.
func NewConnector(conf *config.Config) *LDAPConnector {
	util.SetDebug(conf.IsDebug())

	return &LDAPConnector{conf: conf}
}

var _ Connector = (*LDAPConnector)(nil)

// Connect dials the configured server URIs in order, retrying across the
// list until one answers or the connect timeout is reached. It handles TLS
// setup for ldaps:// URIs and optional StartTLS upgrades.
func (c *LDAPConnector) Connect(ctx context.Context, guid string) (Conn, error) {
	var (
		err       error
		tlsConfig *tls.Config
		conn      *ldap.Conn
	)

	ctx, cancel := context.WithTimeout(ctx, c.conf.GetConnectAbortTimeout())

	defer cancel()

	serverURIs := c.conf.GetServerURIs()

	for retryLimit := 0; retryLimit <= definitions.LDAPMaxRetries; retryLimit++ {
		select {
		case <-ctx.Done():
			return nil, errors.ErrLDAPConnectTimeout.WithGUID(guid).WithDetail("Connection timeout reached")
		default:
		}

		serverURI := serverURIs[retryLimit%len(serverURIs)]

		util.DebugModule(
			definitions.DbgLDAP,
			definitions.LogKeyGUID, guid,
			"ldap_uri", serverURI,
			"current_attempt", retryLimit+1,
			"max_attempt", definitions.LDAPMaxRetries+1,
		)

		u, parseErr := url.Parse(serverURI)
		if parseErr != nil {
			err = parseErr

			continue
		}

		if u.Scheme == "ldaps" || c.conf.StartTLS {
			tlsConfig, err = c.setTLSConfig(u)
			if err != nil {
				return nil, err
			}
		}

		conn, err = ldap.DialURL(serverURI, ldap.DialWithTLSConfig(tlsConfig))
		if err != nil {
			stats.ConnectRetriesCounter.Inc()

			continue
		}

		if c.conf.StartTLS {
			if err = conn.StartTLS(tlsConfig); err != nil {
				conn.Close()

				continue
			}

			util.DebugModule(definitions.DbgLDAP, definitions.LogKeyGUID, guid, definitions.LogKeyMsg, "STARTTLS")
		}

		util.DebugModule(definitions.DbgLDAP, definitions.LogKeyGUID, guid, definitions.LogKeyMsg, "Connection established")

		return &ldapConn{conn: conn, guid: guid}, nil
	}

	return nil, errors.ErrLDAPConnect.WithGUID(guid).WithDetail(
		fmt.Sprintf("Could not connect to any of the LDAP servers: %v (%v)", serverURIs, err))
}

// setTLSConfig loads the optional CA chain and client key pair and creates a
// TLS configuration for the directory connection.
func (c *LDAPConnector) setTLSConfig(u *url.URL) (*tls.Config, error) {
	var (
		caCertPool   *x509.CertPool
		certificates []tls.Certificate
	)

	if c.conf.TLSCAFile != "" {
		caCert, err := os.ReadFile(c.conf.TLSCAFile)
		if err != nil {
			return nil, err
		}

		caCertPool = x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
	}

	if c.conf.TLSClientCert != "" && c.conf.TLSClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.conf.TLSClientCert, c.conf.TLSClientKey)
		if err != nil {
			return nil, err
		}

		certificates = []tls.Certificate{cert}
	}

	host := u.Host

	if strings.Contains(u.Host, ":") {
		var err error

		host, _, err = net.SplitHostPort(u.Host)
		if err != nil {
			return nil, err
		}
	}

	return &tls.Config{
		Certificates:       certificates,
		RootCAs:            caCertPool,
		InsecureSkipVerify: c.conf.TLSSkipVerify, //nolint:gosec // Support self-signed certificates
		ServerName:         host,
	}, nil
}

// ldapConn wraps one go-ldap connection for a single authentication attempt.
type ldapConn struct {
	conn *ldap.Conn
	guid string
}

var _ Conn = (*ldapConn)(nil)

func (l *ldapConn) Bind(_ context.Context, bindDN string, password string) error {
	util.DebugModule(definitions.DbgLDAP, definitions.LogKeyGUID, l.guid, definitions.LogKeyMsg, "simple bind")
	util.DebugModule(definitions.DbgLDAP, definitions.LogKeyGUID, l.guid, definitions.LogKeyBindDN, bindDN)

	_, err := l.conn.SimpleBind(&ldap.SimpleBindRequest{
		Username: bindDN,
		Password: password,
	})

	return err
}

// Search runs the query and converts the result set into the event stream
// form of the Conn contract: entry events followed by one terminal event.
func (l *ldapConn) Search(_ context.Context, request *SearchRequest) (<-chan SearchEvent, error) {
	util.DebugModule(
		definitions.DbgLDAP,
		definitions.LogKeyGUID, l.guid,
		definitions.LogKeyBaseDN, request.BaseDN,
		definitions.LogKeyFilter, request.Filter,
	)

	searchRequest := ldap.NewSearchRequest(
		request.BaseDN,
		request.Scope,
		ldap.NeverDerefAliases,
		request.SizeLimit,
		int(request.TimeLimit/time.Second),
		false,
		request.Filter,
		request.Attributes,
		nil,
	)

	searchResult, err := l.conn.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	events := make(chan SearchEvent, len(searchResult.Entries)+1)

	for _, rawEntry := range searchResult.Entries {
		events <- SearchEvent{Kind: EventEntry, Entry: convertEntry(rawEntry)}
	}

	events <- SearchEvent{Kind: EventEnd, Status: ldap.LDAPResultSuccess}

	close(events)

	return events, nil
}

func (l *ldapConn) Close() error {
	return l.conn.Close()
}

// convertEntry maps a go-ldap entry onto the transport-neutral Entry form.
// The distinguished name is additionally exposed as an attribute so that
// verify callbacks can rely on it being part of the profile.
func convertEntry(rawEntry *ldap.Entry) *Entry {
	attributes := make(map[string][]string, len(rawEntry.Attributes)+1)

	for _, attribute := range rawEntry.Attributes {
		if len(attribute.Values) == 0 {
			continue
		}

		attributes[attribute.Name] = attribute.Values
	}

	attributes[definitions.DistinguishedName] = []string{rawEntry.DN}

	return &Entry{DN: rawEntry.DN, Attributes: attributes}
}
