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
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/croessner/ldapauth/config"
	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/directory"
	"github.com/croessner/ldapauth/errors"
	"github.com/croessner/ldapauth/log"
	"github.com/croessner/ldapauth/stats"
	"github.com/croessner/ldapauth/util"
	"github.com/go-kit/log/level"
	"github.com/segmentio/ksuid"
)

// CredentialSource exposes the named fields of an incoming request. It is
// satisfied by *http.Request among others; the strategy itself never parses
// HTTP.
type CredentialSource interface {
	FormValue(name string) string
}

// Authenticator drives the bind-search-verify pipeline against a directory
// server. It holds no per-request state; concurrent Authenticate calls are
// independent and each own their connection.
type Authenticator struct {
	conf      *config.Config
	connector directory.Connector
	verify    VerifyFunc
	challenge ChallengeFunc
}

// NewAuthenticator creates an authentication strategy from a validated
// configuration, a directory connector and a verify callback. The callback
// may be nil, in which case every matched profile is accepted as the user
// value itself.
func NewAuthenticator(conf *config.Config, connector directory.Connector, verify VerifyFunc) *Authenticator {
	util.SetDebug(conf.IsDebug())

	return &Authenticator{
		conf:      conf,
		connector: connector,
		verify:    verify,
		challenge: defaultChallenge,
	}
}

// WithChallenge replaces the reason computed for verify rejections.
func (a *Authenticator) WithChallenge(challenge ChallengeFunc) *Authenticator {
	if challenge != nil {
		a.challenge = challenge
	}

	return a
}

func defaultChallenge() Reason {
	return Reason{Code: http.StatusUnauthorized, Message: definitions.PasswordFail}
}

// Authenticate runs one attempt and returns exactly one terminal result. The
// whole pipeline is bounded by the configured auth timeout; expiry surfaces
// as an errored outcome, never as a credential failure.
func (a *Authenticator) Authenticate(ctx context.Context, request CredentialSource) *Result {
	attempt := &authAttempt{
		auth:    a,
		guid:    ksuid.New().String(),
		state:   definitions.AuthStateStart,
		started: time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, a.conf.GetAuthTimeout())

	defer cancel()

	result := attempt.run(ctx, request)

	stats.AuthOutcomesCounter.WithLabelValues(outcomeLabel(result)).Inc()

	username := attempt.username
	if username == "" {
		username = definitions.NotAvailable
	}

	level.Info(log.Logger).Log(
		definitions.LogKeyGUID, attempt.guid,
		definitions.LogKeyUsername, username,
		definitions.LogKeyAuthStatus, result.State.String(),
		definitions.LogKeyLatency, time.Since(attempt.started).String(),
	)

	return result
}

func outcomeLabel(result *Result) string {
	switch result.State {
	case definitions.AuthStateSucceeded:
		return definitions.LabelSuccess
	case definitions.AuthStateErrored:
		return definitions.LabelError
	default:
		return definitions.LabelFailure
	}
}

// authAttempt is the per-request state machine. Outcome reporting is
// idempotent: the first terminal transition wins and every later event is
// ignored.
type authAttempt struct {
	auth     *Authenticator
	guid     string
	username string
	state    definitions.AuthState
	settled  bool
	result   *Result
	started  time.Time
}

func (t *authAttempt) transition(state definitions.AuthState) {
	util.DebugModule(
		definitions.DbgAuth,
		definitions.LogKeyGUID, t.guid,
		definitions.LogKeyAuthState, state.String(),
	)

	t.state = state
}

func (t *authAttempt) succeed(user any) *Result {
	if t.settled {
		return t.result
	}

	t.settled = true
	t.transition(definitions.AuthStateSucceeded)
	t.result = &Result{State: definitions.AuthStateSucceeded, User: user}

	return t.result
}

func (t *authAttempt) fail(reason Reason) *Result {
	if t.settled {
		return t.result
	}

	t.settled = true
	t.transition(definitions.AuthStateFailed)
	t.result = &Result{State: definitions.AuthStateFailed, Reason: reason}

	util.DebugModule(
		definitions.DbgAuth,
		definitions.LogKeyGUID, t.guid,
		definitions.LogKeyReason, reason.String(),
	)

	return t.result
}

func (t *authAttempt) errored(err error) *Result {
	if t.settled {
		return t.result
	}

	t.settled = true
	t.transition(definitions.AuthStateErrored)
	t.result = &Result{State: definitions.AuthStateErrored, Err: err}

	keyvals := []any{
		definitions.LogKeyGUID, t.guid,
		definitions.LogKeyError, err,
	}

	var detailed *errors.DetailedError

	if stderrors.As(err, &detailed) && detailed.GetDetails() != "" {
		keyvals = append(keyvals, definitions.LogKeyErrorDetails, detailed.GetDetails())
	}

	level.Error(log.Logger).Log(keyvals...)

	return t.result
}

// run walks the attempt through validating, binding, searching and verifying.
// The connection is scoped to this call and released on every exit path.
func (t *authAttempt) run(ctx context.Context, request CredentialSource) *Result {
	conf := t.auth.conf

	t.transition(definitions.AuthStateValidating)

	t.username = request.FormValue(conf.GetUsernameField())
	password := request.FormValue(conf.GetPasswordField())

	// No network I/O happens before this check.
	if t.username == "" || password == "" {
		return t.fail(Reason{Code: http.StatusUnauthorized, Message: errors.ErrMissingCredentials.Error()})
	}

	resolved, err := resolveDN(conf, t.username)
	if err != nil {
		return t.fail(Reason{Code: http.StatusUnauthorized, Message: err.Error()})
	}

	util.DebugModule(
		definitions.DbgDN,
		definitions.LogKeyGUID, t.guid,
		definitions.LogKeyBindDN, resolved.bindDN,
		definitions.LogKeyBaseDN, resolved.searchBase,
	)

	t.transition(definitions.AuthStateBinding)

	conn, err := t.auth.connector.Connect(ctx, t.guid)
	if err != nil {
		return t.errored(err)
	}

	defer conn.Close()

	bindStart := time.Now()

	if err = conn.Bind(ctx, resolved.bindDN, password); err != nil {
		// Deliberately collapsed: wrong passwords and protocol-level bind
		// errors are indistinguishable to callers guessing credentials.
		util.DebugModule(definitions.DbgAuth, definitions.LogKeyGUID, t.guid, definitions.LogKeyError, err)

		return t.fail(forbiddenReason())
	}

	stats.BindDurationSeconds.Observe(time.Since(bindStart).Seconds())

	if conf.IsAuthOnly() {
		return t.succeed(syntheticProfile(resolved.bindDN))
	}

	t.transition(definitions.AuthStateSearching)

	searchSpec := conf.Search.Clone()

	filter := strings.ReplaceAll(
		searchSpec.Filter,
		definitions.FilterPlaceholder,
		util.EscapeLDAPFilter(resolved.localName),
	)
	filter = util.RemoveCRLFFromQueryOrFilter(filter, "")

	events, err := conn.Search(ctx, &directory.SearchRequest{
		BaseDN:     resolved.searchBase,
		Filter:     filter,
		Scope:      conf.GetScope(),
		Attributes: searchSpec.Attributes,
		SizeLimit:  searchSpec.SizeLimit,
		TimeLimit:  searchSpec.TimeLimit,
	})
	if err != nil {
		util.DebugModule(definitions.DbgLDAP, definitions.LogKeyGUID, t.guid, definitions.LogKeyError, err)

		return t.fail(forbiddenReason())
	}

	t.transition(definitions.AuthStateAwaitingEntry)

	return t.consumeEvents(ctx, events)
}

// consumeEvents drains the search response stream until the attempt settles.
// Entry events trigger one verify invocation each; the first terminal
// transition wins and later events are not processed.
func (t *authAttempt) consumeEvents(ctx context.Context, events <-chan directory.SearchEvent) *Result {
	for {
		select {
		case <-ctx.Done():
			return t.errored(errors.ErrAuthTimeout.WithGUID(t.guid).WithDetail(ctx.Err().Error()))

		case event, ok := <-events:
			if !ok {
				if t.settled {
					return t.result
				}

				return t.errored(errors.ErrNoTerminalEvent)
			}

			switch event.Kind {
			case directory.EventEntry:
				if t.settled {
					continue
				}

				t.transition(definitions.AuthStateVerifying)
				t.verifyProfile(ctx, event.Entry)

			case directory.EventError:
				t.errored(event.Err)

			case directory.EventEnd:
				t.fail(Reason{Code: event.Status, Message: errors.ErrNoLDAPSearchResult.Error()})
			}

			if t.settled {
				return t.result
			}
		}
	}
}

// verifyProfile hands the matched profile to the verify callback and settles
// the attempt with its decision. Without a callback the profile itself
// becomes the user value.
func (t *authAttempt) verifyProfile(ctx context.Context, profile *directory.Entry) {
	if t.auth.verify == nil {
		t.succeed(profile)

		return
	}

	verdict, err := t.auth.verify(ctx, profile)
	if err != nil {
		t.errored(err)

		return
	}

	if user, accepted := verdict.Accepted(); accepted {
		t.succeed(user)

		return
	}

	t.fail(t.auth.challenge())
}

func forbiddenReason() Reason {
	return Reason{Code: http.StatusForbidden, Message: http.StatusText(http.StatusForbidden)}
}

// syntheticProfile is the minimal profile reported in auth-only mode, where
// a successful bind alone authenticates the user.
func syntheticProfile(bindDN string) *directory.Entry {
	return &directory.Entry{
		DN: bindDN,
		Attributes: map[string][]string{
			definitions.DefaultUIDAttribute: {bindDN},
		},
	}
}
