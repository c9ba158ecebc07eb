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

package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthOutcomesCounter counts finished authentication attempts by
	// terminal outcome.
	AuthOutcomesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldap_auth_outcomes_total",
			Help: "Terminal outcomes of LDAP authentication attempts",
		},
		[]string{"outcome"},
	)

	// BindDurationSeconds tracks the latency of LDAP simple binds.
	BindDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ldap_auth_bind_duration_seconds",
			Help:    "Duration of LDAP bind operations",
			Buckets: prometheus.DefBuckets,
		})

	// ConnectRetriesCounter counts failover retries while establishing
	// directory connections.
	ConnectRetriesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ldap_auth_connect_retries_total",
			Help: "Number of LDAP connect retries across all attempts",
		})
)
