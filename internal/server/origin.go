package server

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/nowplaying/internal/shared"
)

var localhostOrigin = regexp.MustCompile(`^http://localhost(?::\d+)?$`)

// OriginGate decides which browser origins may read responses.
//
// It is compiled once at startup and is safe for concurrent use.
type OriginGate struct {
	domain *regexp.Regexp
}

// NewOriginGate compiles the allowlist for base domain.
//
// An empty domain yields a permissive gate that allows every origin.
func NewOriginGate(domain string) (*OriginGate, error) {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	if domain == "" {
		return &OriginGate{}, nil
	}

	// QuoteMeta escapes every dot, so "example.com" cannot match "exampleXcom".
	pattern := `^https://([a-zA-Z0-9-]+\.)*` + regexp.QuoteMeta(domain) + `(?::\d+)?$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: allowed origin domain %q: %v", shared.ErrInvalidConfig, domain, err)
	}

	return &OriginGate{domain: re}, nil
}

// Permissive reports whether the gate was built without a base domain.
func (g *OriginGate) Permissive() bool {
	return g.domain == nil
}

// Allow reports whether a request carrying origin may receive CORS headers.
//
// An empty origin (same-origin or non-browser caller) is always allowed.
func (g *OriginGate) Allow(origin string) bool {
	if origin == "" || g.Permissive() {
		return true
	}
	return localhostOrigin.MatchString(origin) || g.domain.MatchString(origin)
}

func normalizeDomain(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "*.")
	d = strings.Trim(d, "./")

	if strings.ContainsAny(d, "/:*?#@ ") {
		return "", fmt.Errorf("%w: allowed origin domain must be a bare host name, got %q", shared.ErrInvalidConfig, domain)
	}
	return d, nil
}
