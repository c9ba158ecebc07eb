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
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/croessner/ldapauth/definitions"
	"github.com/go-ldap/ldap/v3"
	"github.com/go-playground/validator/v10"
)

// Config holds all settings of one LDAP authentication strategy. It is
// constructed once and must not be mutated afterwards; per-attempt state is
// derived from it but never written back.
type Config struct {
	StartTLS      bool `mapstructure:"starttls"`
	TLSSkipVerify bool `mapstructure:"tls_skip_verify"`

	TLSCAFile     string `mapstructure:"tls_ca_cert" validate:"omitempty,file"`
	TLSClientCert string `mapstructure:"tls_client_cert" validate:"omitempty,file"`
	TLSClientKey  string `mapstructure:"tls_client_key" validate:"omitempty,file"`

	ConnectAbortTimeout time.Duration `mapstructure:"connect_abort_timeout" validate:"omitempty,max=10m"`
	AuthTimeout         time.Duration `mapstructure:"auth_timeout" validate:"omitempty,max=10m"`

	UsernameField string `mapstructure:"username_field" validate:"omitempty,printascii"`
	PasswordField string `mapstructure:"password_field" validate:"omitempty,printascii"`

	DNMode       string   `mapstructure:"dn_mode" validate:"omitempty,oneof=unix openldap windows activedirectory ad"`
	UIDAttribute string   `mapstructure:"uid_attribute" validate:"omitempty,printascii"`
	BaseDN       string   `mapstructure:"base_dn" validate:"omitempty,printascii"`
	BaseDNParts  []string `mapstructure:"base_dn_parts" validate:"omitempty,dive,printascii"`

	Search SearchSection `mapstructure:"search"`

	AuthOnly bool `mapstructure:"auth_only"`
	Debug    bool `mapstructure:"debug"`

	ServerURIs []string `mapstructure:"server_uri" validate:"required,dive,uri"`
}

// SearchSection describes the profile lookup that follows a successful bind.
// The filter may contain the placeholder token which is substituted with the
// escaped login name of the attempt.
type SearchSection struct {
	Filter     string        `mapstructure:"filter" validate:"omitempty"`
	Scope      string        `mapstructure:"scope" validate:"omitempty,oneof=base one sub"`
	Attributes []string      `mapstructure:"attributes" validate:"omitempty,dive,printascii"`
	SizeLimit  int           `mapstructure:"size_limit" validate:"omitempty,min=0,max=100000"`
	TimeLimit  time.Duration `mapstructure:"time_limit" validate:"omitempty,max=10m"`
}

// Clone returns a deep copy of the search section. Attempts substitute the
// filter placeholder on the copy, never on the shared configuration.
func (s *SearchSection) Clone() SearchSection {
	if s == nil {
		return SearchSection{}
	}

	clone := *s
	clone.Attributes = slices.Clone(s.Attributes)

	return clone
}

func (c *Config) String() string {
	if c == nil {
		return "Config: <nil>"
	}

	return fmt.Sprintf(
		"Config: {ServerURIs[%v] StartTLS[%v] DNMode[%s] UIDAttribute[%s] BaseDN[%s] BaseDNParts[%v] AuthOnly[%v] Search[%+v]}",
		c.ServerURIs, c.StartTLS, c.GetDNMode(), c.GetUIDAttribute(), c.BaseDN, c.BaseDNParts, c.AuthOnly, c.Search,
	)
}

// GetUsernameField returns the request field name that carries the login name.
// Returns the default field name if the Config is nil or the field is unset.
func (c *Config) GetUsernameField() string {
	if c == nil || c.UsernameField == "" {
		return definitions.DefaultUsernameField
	}

	return c.UsernameField
}

// GetPasswordField returns the request field name that carries the password.
// Returns the default field name if the Config is nil or the field is unset.
func (c *Config) GetPasswordField() string {
	if c == nil || c.PasswordField == "" {
		return definitions.DefaultPasswordField
	}

	return c.PasswordField
}

// GetDNMode returns the configured DN construction style.
// Returns the Unix style if the Config is nil or the mode is unset.
func (c *Config) GetDNMode() definitions.DNMode {
	if c == nil || c.DNMode == "" {
		return definitions.DNModeUnix
	}

	mode := &DNModeFlag{}
	if err := mode.Set(c.DNMode); err != nil {
		return definitions.DNModeUnix
	}

	return mode.Get()
}

// GetUIDAttribute returns the attribute used to build a Unix style bind DN.
// Returns "uid" if the Config is nil or the attribute is unset.
func (c *Config) GetUIDAttribute() string {
	if c == nil || c.UIDAttribute == "" {
		return definitions.DefaultUIDAttribute
	}

	return c.UIDAttribute
}

// GetBaseDNParts returns the base DN as an ordered component list. A single
// configured base DN string wins over the component form.
func (c *Config) GetBaseDNParts() []string {
	if c == nil {
		return nil
	}

	if c.BaseDN != "" {
		return []string{c.BaseDN}
	}

	return slices.Clone(c.BaseDNParts)
}

// GetJoinedBaseDN returns the base DN as a single string, joining components
// with commas when the base was configured as a sequence.
func (c *Config) GetJoinedBaseDN() string {
	if c == nil {
		return ""
	}

	if c.BaseDN != "" {
		return c.BaseDN
	}

	return strings.Join(c.BaseDNParts, ",")
}

// GetScope returns the numeric LDAP search scope.
// Returns the whole-subtree scope if the Config is nil or the scope is unset.
func (c *Config) GetScope() int {
	if c == nil || c.Search.Scope == "" {
		return ldap.ScopeWholeSubtree
	}

	scope := &LDAPScope{}
	if err := scope.Set(c.Search.Scope); err != nil {
		return ldap.ScopeWholeSubtree
	}

	return scope.Get()
}

// GetConnectAbortTimeout returns the timeout for establishing a directory
// connection. Returns the default if the Config is nil or the value is unset.
func (c *Config) GetConnectAbortTimeout() time.Duration {
	if c == nil || c.ConnectAbortTimeout == 0 {
		return definitions.LDAPConnectTimeout * time.Second
	}

	return c.ConnectAbortTimeout
}

// GetAuthTimeout returns the timeout for the whole bind-search-verify
// pipeline. Returns the default if the Config is nil or the value is unset.
func (c *Config) GetAuthTimeout() time.Duration {
	if c == nil || c.AuthTimeout == 0 {
		return definitions.AuthPipelineTimeout * time.Second
	}

	return c.AuthTimeout
}

// IsAuthOnly reports whether a successful bind alone authenticates a user.
// Returns false if the Config is nil.
func (c *Config) IsAuthOnly() bool {
	if c == nil {
		return false
	}

	return c.AuthOnly
}

// IsDebug reports whether diagnostic tracing is enabled.
// Returns false if the Config is nil.
func (c *Config) IsDebug() bool {
	if c == nil {
		return false
	}

	return c.Debug
}

// GetServerURIs returns the directory server URIs.
// Returns []string{"ldap://localhost"} if the Config is nil.
func (c *Config) GetServerURIs() []string {
	if c == nil || len(c.ServerURIs) == 0 {
		return []string{"ldap://localhost"}
	}

	return c.ServerURIs
}

// validateConfig checks the cross-field invariants: a base DN and a search
// filter are mandatory unless auth-only mode skips the search phase.
func validateConfig(sl validator.StructLevel) {
	conf, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}

	if conf.AuthOnly {
		return
	}

	if conf.BaseDN == "" && len(conf.BaseDNParts) == 0 {
		sl.ReportError(conf.BaseDN, "BaseDN", "base_dn", "base_dn_required", "")
	}

	if conf.Search.Filter == "" {
		sl.ReportError(conf.Search.Filter, "Search.Filter", "filter", "search_filter_required", "")
	}
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterStructValidation(validateConfig, Config{})

	return validate.Struct(c)
}
