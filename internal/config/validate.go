package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

var (
	// repoPattern matches a GitHub "owner/repo" identifier.
	repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

	// idPattern keeps server IDs usable as directory names.
	idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// Validate checks a Config for required fields and valid values.
func Validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Servers))

	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		if err := ValidateServer(s); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}

		if seen[s.ID] {
			return fmt.Errorf("servers[%d]: duplicate id %q", i, s.ID)
		}

		seen[s.ID] = true
	}

	if cfg.DefaultServer != "" && !seen[cfg.DefaultServer] {
		return fmt.Errorf("default_server %q does not match any server", cfg.DefaultServer)
	}

	return nil
}

// ValidateServer checks a single server entry.
func ValidateServer(s *ServerConfig) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("id is required")
	}

	if !idPattern.MatchString(s.ID) {
		return fmt.Errorf("invalid id %q, must be letters, digits, '.', '_' or '-'", s.ID)
	}

	if strings.TrimSpace(s.Tool) == "" {
		return fmt.Errorf("%s: tool is required", s.ID)
	}

	if strings.ContainsAny(s.Tool, `/\`) {
		return fmt.Errorf("%s: tool %q must not contain path separators", s.ID, s.Tool)
	}

	if !repoPattern.MatchString(s.Repo) {
		return fmt.Errorf("%s: invalid repo %q, expected owner/repo", s.ID, s.Repo)
	}

	if s.Version != "" {
		if _, err := version.NewConstraint(s.Version); err != nil {
			return fmt.Errorf("%s: invalid version constraint %q: %w", s.ID, s.Version, err)
		}
	}

	return nil
}
