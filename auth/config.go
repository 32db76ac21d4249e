package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/william251082/fileupload/auth/jwt"
)

// Config holds authentication and role configuration.
type Config struct {
	// Enabled turns bearer authentication on. Disabling it is only allowed
	// outside production and makes every request anonymous.
	Enabled bool `mapstructure:"enabled"`

	JWT jwt.Config `mapstructure:"jwt"`

	// Roles maps a role name to permission patterns, e.g.
	// editor: ["article:manage"].
	Roles map[string][]string `mapstructure:"roles"`
}

// DefaultRoles is used when no roles are configured.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"admin":  {"*:*"},
		"editor": {"article:manage"},
		"author": {"article:manage_own"},
	}
}

func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	if len(c.Roles) == 0 {
		c.Roles = DefaultRoles()
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a one-line summary for startup logs.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	roles := make([]string, 0, len(c.Roles))
	for r := range c.Roles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return fmt.Sprintf("JWT(%s) ttl=%s roles=%s", c.JWT.Method, c.JWT.AccessTokenTTL, strings.Join(roles, ","))
}
