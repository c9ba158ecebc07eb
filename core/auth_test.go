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
	"net/http"
	"testing"
	"time"

	"github.com/croessner/ldapauth/config"
	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/directory"
	"github.com/croessner/ldapauth/errors"
	"github.com/croessner/ldapauth/log"
	"github.com/croessner/ldapauth/util"
	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formValues map[string]string

func (f formValues) FormValue(name string) string {
	return f[name]
}

type mockConn struct {
	bindDN     string
	bindPW     string
	bindCalls  int
	bindError  error
	searchReq  *directory.SearchRequest
	searchErr  error
	searchHang bool
	events     []directory.SearchEvent
	closed     bool
	closeCalls int
}

func (m *mockConn) Bind(_ context.Context, bindDN string, password string) error {
	m.bindCalls++
	m.bindDN = bindDN
	m.bindPW = password

	return m.bindError
}

func (m *mockConn) Search(_ context.Context, request *directory.SearchRequest) (<-chan directory.SearchEvent, error) {
	m.searchReq = request

	if m.searchErr != nil {
		return nil, m.searchErr
	}

	// A stream that never delivers anything, not even its terminal event.
	if m.searchHang {
		return make(chan directory.SearchEvent), nil
	}

	events := make(chan directory.SearchEvent, len(m.events))

	for _, event := range m.events {
		events <- event
	}

	close(events)

	return events, nil
}

func (m *mockConn) Close() error {
	m.closed = true
	m.closeCalls++

	return nil
}

type mockConnector struct {
	conn         *mockConn
	connectError error
	connectCalls int
}

func (m *mockConnector) Connect(_ context.Context, _ string) (directory.Conn, error) {
	m.connectCalls++

	if m.connectError != nil {
		return nil, m.connectError
	}

	return m.conn, nil
}

func testConfig() *config.Config {
	return &config.Config{
		BaseDN: "ou=people,dc=example,dc=org",
		Search: config.SearchSection{
			Filter:    "(&(objectClass=person)(uid=$uid$))",
			Scope:     "sub",
			SizeLimit: 1,
		},
		ServerURIs: []string{"ldap://localhost:389"},
	}
}

func entryEvent(dn string) directory.SearchEvent {
	return directory.SearchEvent{
		Kind: directory.EventEntry,
		Entry: &directory.Entry{
			DN:         dn,
			Attributes: map[string][]string{"uid": {"testuser"}},
		},
	}
}

func endEvent(status int) directory.SearchEvent {
	return directory.SearchEvent{Kind: directory.EventEnd, Status: status}
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	connector := &mockConnector{conn: &mockConn{}}
	auth := NewAuthenticator(testConfig(), connector, nil)

	for _, tc := range []struct {
		name    string
		request formValues
	}{
		{name: "NoUsername", request: formValues{"password": "secret"}},
		{name: "NoPassword", request: formValues{"username": "testuser"}},
		{name: "Empty", request: formValues{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := auth.Authenticate(context.Background(), tc.request)

			assert.Equal(t, definitions.AuthStateFailed, result.State)
			assert.Equal(t, http.StatusUnauthorized, result.Reason.Code)
		})
	}

	// Rejecting incomplete requests must not touch the directory.
	assert.Zero(t, connector.connectCalls)
}

func TestAuthenticateBindRejected(t *testing.T) {
	conn := &mockConn{bindError: errors.NewDetailedError("invalid credentials")}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "wrong"})

	assert.Equal(t, definitions.AuthStateFailed, result.State)
	assert.Equal(t, http.StatusForbidden, result.Reason.Code)
	assert.Equal(t, "uid=testuser,ou=people,dc=example,dc=org", conn.bindDN)
	assert.True(t, conn.closed)
}

func TestAuthenticateConnectErrored(t *testing.T) {
	connector := &mockConnector{connectError: errors.ErrLDAPConnect}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateErrored, result.State)
	assert.Error(t, result.Err)
}

func TestAuthenticateSearchNotIssued(t *testing.T) {
	conn := &mockConn{searchErr: errors.NewDetailedError("search failed")}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateFailed, result.State)
	assert.Equal(t, http.StatusForbidden, result.Reason.Code)
	assert.True(t, conn.closed)
}

func TestAuthenticateNoEntries(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{endEvent(0)}}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateFailed, result.State)
	assert.Equal(t, 0, result.Reason.Code)
}

func TestAuthenticateStreamError(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{
		{Kind: directory.EventError, Err: errors.ErrLDAPConnect},
	}}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateErrored, result.State)
	assert.Error(t, result.Err)
}

func TestAuthenticateStreamTruncated(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{entryEvent("uid=testuser,ou=people,dc=example,dc=org")}}
	connector := &mockConnector{conn: conn}

	auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, _ *directory.Entry) (Verdict, error) {
		return Verdict{}, errors.NewDetailedError("profile backend down")
	})

	// The verify error settles the attempt before the missing terminal
	// event could matter.
	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateErrored, result.State)

	// Without any event at all the truncated stream itself is the error.
	conn = &mockConn{}
	connector = &mockConnector{conn: conn}
	auth = NewAuthenticator(testConfig(), connector, nil)

	result = auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateErrored, result.State)
	assert.ErrorIs(t, result.Err, errors.ErrNoTerminalEvent)
}

func TestAuthenticateVerifyDecides(t *testing.T) {
	profileDN := "uid=testuser,ou=people,dc=example,dc=org"

	t.Run("Accept", func(t *testing.T) {
		conn := &mockConn{events: []directory.SearchEvent{entryEvent(profileDN), endEvent(0)}}
		connector := &mockConnector{conn: conn}

		auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, profile *directory.Entry) (Verdict, error) {
			require.Equal(t, profileDN, profile.DN)

			return Accept(profile.GetAttributeValues("uid")[0]), nil
		})

		result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

		assert.Equal(t, definitions.AuthStateSucceeded, result.State)
		assert.Equal(t, "testuser", result.User)
	})

	t.Run("Reject", func(t *testing.T) {
		conn := &mockConn{events: []directory.SearchEvent{entryEvent(profileDN), endEvent(0)}}
		connector := &mockConnector{conn: conn}

		auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, _ *directory.Entry) (Verdict, error) {
			return Reject(), nil
		})

		result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

		assert.Equal(t, definitions.AuthStateFailed, result.State)
		assert.Equal(t, http.StatusUnauthorized, result.Reason.Code)
		assert.Equal(t, definitions.PasswordFail, result.Reason.Message)
	})

	t.Run("RejectWithChallenge", func(t *testing.T) {
		conn := &mockConn{events: []directory.SearchEvent{entryEvent(profileDN), endEvent(0)}}
		connector := &mockConnector{conn: conn}

		auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, _ *directory.Entry) (Verdict, error) {
			return Reject(), nil
		}).WithChallenge(func() Reason {
			return Reason{Code: http.StatusForbidden, Message: "account locked"}
		})

		result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

		assert.Equal(t, definitions.AuthStateFailed, result.State)
		assert.Equal(t, http.StatusForbidden, result.Reason.Code)
		assert.Equal(t, "account locked", result.Reason.Message)
	})

	t.Run("Error", func(t *testing.T) {
		conn := &mockConn{events: []directory.SearchEvent{entryEvent(profileDN), endEvent(0)}}
		connector := &mockConnector{conn: conn}

		auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, _ *directory.Entry) (Verdict, error) {
			return Verdict{}, errors.NewDetailedError("backend unavailable")
		})

		result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

		assert.Equal(t, definitions.AuthStateErrored, result.State)
		assert.Error(t, result.Err)
	})
}

func TestAuthenticateNilVerifyAcceptsProfile(t *testing.T) {
	profileDN := "uid=testuser,ou=people,dc=example,dc=org"
	conn := &mockConn{events: []directory.SearchEvent{entryEvent(profileDN), endEvent(0)}}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	require.Equal(t, definitions.AuthStateSucceeded, result.State)

	profile, ok := result.User.(*directory.Entry)

	require.True(t, ok)
	assert.Equal(t, profileDN, profile.DN)
}

func TestAuthenticateFirstSettleWins(t *testing.T) {
	profileDN := "uid=testuser,ou=people,dc=example,dc=org"
	verifyCalls := 0

	// Extra entry and terminal events after the first entry must not
	// re-settle an attempt that already succeeded.
	conn := &mockConn{events: []directory.SearchEvent{
		entryEvent(profileDN),
		entryEvent("uid=other,ou=people,dc=example,dc=org"),
		endEvent(0),
		{Kind: directory.EventError, Err: errors.ErrLDAPConnect},
	}}
	connector := &mockConnector{conn: conn}

	auth := NewAuthenticator(testConfig(), connector, func(_ context.Context, profile *directory.Entry) (Verdict, error) {
		verifyCalls++

		return Accept(profile.DN), nil
	})

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateSucceeded, result.State)
	assert.Equal(t, profileDN, result.User)
	assert.Equal(t, 1, verifyCalls)
}

func TestAuthenticateAuthOnly(t *testing.T) {
	conf := testConfig()
	conf.AuthOnly = true

	conn := &mockConn{}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(conf, connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	require.Equal(t, definitions.AuthStateSucceeded, result.State)

	profile, ok := result.User.(*directory.Entry)

	require.True(t, ok)
	assert.Equal(t, "uid=testuser,ou=people,dc=example,dc=org", profile.DN)

	// Auth-only mode never searches.
	assert.Nil(t, conn.searchReq)
}

func TestAuthenticateFilterSubstitution(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{endEvent(0)}}
	connector := &mockConnector{conn: conn}

	conf := testConfig()
	conf.Search.TimeLimit = 30 * time.Second
	auth := NewAuthenticator(conf, connector, nil)

	auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

	require.NotNil(t, conn.searchReq)
	assert.Equal(t, "(&(objectClass=person)(uid=testuser))", conn.searchReq.Filter)
	assert.Equal(t, "uid=testuser,ou=people,dc=example,dc=org", conn.searchReq.BaseDN)
	assert.Equal(t, 1, conn.searchReq.SizeLimit)
	assert.Equal(t, 30*time.Second, conn.searchReq.TimeLimit)

	// The shared configuration still holds the placeholder.
	assert.Equal(t, "(&(objectClass=person)(uid=$uid$))", conf.Search.Filter)
}

func TestAuthenticateFilterEscapesLoginName(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{endEvent(0)}}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	auth.Authenticate(context.Background(), formValues{"username": "test*)(uid=*", "password": "secret"})

	require.NotNil(t, conn.searchReq)
	assert.Equal(t, `(&(objectClass=person)(uid=test\2a\29\28uid=\2a))`, conn.searchReq.Filter)
}

func TestAuthenticateWindowsMalformedUsername(t *testing.T) {
	conf := testConfig()
	conf.DNMode = definitions.DNModeWindowsName

	connector := &mockConnector{conn: &mockConn{}}
	auth := NewAuthenticator(conf, connector, nil)

	result := auth.Authenticate(context.Background(), formValues{"username": "nodomain", "password": "secret"})

	assert.Equal(t, definitions.AuthStateFailed, result.State)
	assert.Equal(t, http.StatusUnauthorized, result.Reason.Code)
	assert.Zero(t, connector.connectCalls)
}

func TestAuthenticatePipelineTimeout(t *testing.T) {
	conn := &mockConn{searchHang: true}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	result := auth.Authenticate(ctx, formValues{"username": "testuser", "password": "secret"})

	assert.Equal(t, definitions.AuthStateErrored, result.State)
	assert.ErrorIs(t, result.Err, errors.ErrAuthTimeout)
	assert.True(t, conn.closed)
}

func TestNewAuthenticatorDebugFlag(t *testing.T) {
	t.Cleanup(func() {
		util.SetDebug(false)
	})

	conf := testConfig()
	conf.Debug = true

	NewAuthenticator(conf, &mockConnector{conn: &mockConn{}}, nil)

	assert.True(t, util.Debug())

	NewAuthenticator(testConfig(), &mockConnector{conn: &mockConn{}}, nil)

	assert.False(t, util.Debug())
}

func TestAuthenticateOutcomeLogging(t *testing.T) {
	var captured [][]any

	log.Logger = kitlog.LoggerFunc(func(keyvals ...any) error {
		captured = append(captured, keyvals)

		return nil
	})

	t.Cleanup(func() {
		log.Logger = kitlog.NewNopLogger()
	})

	containsValue := func(value any) bool {
		for _, line := range captured {
			for _, keyval := range line {
				if keyval == value {
					return true
				}
			}
		}

		return false
	}

	t.Run("MissingUsernameLoggedAsPlaceholder", func(t *testing.T) {
		captured = nil

		auth := NewAuthenticator(testConfig(), &mockConnector{conn: &mockConn{}}, nil)

		auth.Authenticate(context.Background(), formValues{"password": "secret"})

		assert.True(t, containsValue(definitions.NotAvailable))
	})

	t.Run("ErrorDetailsLogged", func(t *testing.T) {
		captured = nil

		connector := &mockConnector{
			connectError: errors.NewDetailedError("connect failed").WithDetail("dial tcp: connection refused"),
		}
		auth := NewAuthenticator(testConfig(), connector, nil)

		result := auth.Authenticate(context.Background(), formValues{"username": "testuser", "password": "secret"})

		assert.Equal(t, definitions.AuthStateErrored, result.State)
		assert.True(t, containsValue(definitions.LogKeyErrorDetails))
		assert.True(t, containsValue("dial tcp: connection refused"))
	})
}

func TestAuthenticateIndependentAttempts(t *testing.T) {
	conn := &mockConn{events: []directory.SearchEvent{endEvent(0)}}
	connector := &mockConnector{conn: conn}
	auth := NewAuthenticator(testConfig(), connector, nil)

	auth.Authenticate(context.Background(), formValues{"username": "alice", "password": "secret"})

	assert.Equal(t, "uid=alice,ou=people,dc=example,dc=org", conn.bindDN)

	auth.Authenticate(context.Background(), formValues{"username": "bob", "password": "secret"})

	assert.Equal(t, "uid=bob,ou=people,dc=example,dc=org", conn.bindDN)
	assert.Equal(t, 2, connector.connectCalls)
	assert.Equal(t, 2, conn.closeCalls)
}
