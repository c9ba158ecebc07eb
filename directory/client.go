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
	"time"
)

// Entry is one matched directory object: its distinguished name plus the
// attribute set that was requested by the search.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// GetAttributeValues returns the values of the named attribute, or nil when
// the entry does not carry it.
func (e *Entry) GetAttributeValues(name string) []string {
	if e == nil {
		return nil
	}

	return e.Attributes[name]
}

// EventKind discriminates the events of a search response stream.
type EventKind uint8

const (
	// EventEntry carries one matching directory entry.
	EventEntry EventKind = iota

	// EventEnd terminates the stream normally, carrying the directory
	// status code of the search.
	EventEnd

	// EventError terminates the stream with a protocol error.
	EventError
)

// SearchEvent is one event of a search response stream. A stream consists of
// zero or more entry events followed by exactly one terminal event, either
// EventEnd or EventError. Consumers must tolerate events arriving after a
// terminal event and ignore them.
type SearchEvent struct {
	Kind   EventKind
	Entry  *Entry
	Status int
	Err    error
}

// SearchRequest describes one directory search. A zero TimeLimit leaves the
// server-side limit unset.
type SearchRequest struct {
	BaseDN     string
	Filter     string
	Scope      int
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// Conn is a single directory connection. Implementations are not required to
// be safe for concurrent use; every authentication attempt owns its own Conn.
type Conn interface {
	// Bind authenticates the DN/password pair against the directory.
	Bind(ctx context.Context, bindDN string, password string) error

	// Search issues a directory search and returns its response stream. An
	// error return means the search could not be issued at all; errors that
	// occur mid-stream arrive as an EventError on the channel.
	Search(ctx context.Context, request *SearchRequest) (<-chan SearchEvent, error)

	// Close releases the connection.
	Close() error
}

// Connector creates one directory connection per authentication attempt.
type Connector interface {
	Connect(ctx context.Context, guid string) (Conn, error)
}
