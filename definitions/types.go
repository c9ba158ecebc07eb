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

// DNMode selects how a bind DN is constructed from a login name.
type DNMode uint8

func (m DNMode) String() string {
	switch m {
	case DNModeWindows:
		return DNModeWindowsName
	default:
		return DNModeUnixName
	}
}

// AuthState is the state of a single authentication attempt.
type AuthState uint8

func (s AuthState) String() string {
	switch s {
	case AuthStateValidating:
		return AuthStateValidatingName
	case AuthStateBinding:
		return AuthStateBindingName
	case AuthStateSearching:
		return AuthStateSearchingName
	case AuthStateAwaitingEntry:
		return AuthStateAwaitingEntryName
	case AuthStateVerifying:
		return AuthStateVerifyingName
	case AuthStateSucceeded:
		return AuthStateSucceededName
	case AuthStateFailed:
		return AuthStateFailedName
	case AuthStateErrored:
		return AuthStateErroredName
	default:
		return AuthStateStartName
	}
}

// DbgModule represents a debug module identifier.
type DbgModule uint8
