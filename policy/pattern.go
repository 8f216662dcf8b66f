// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "strings"

// patternKind discriminates the three pattern forms.
type patternKind int

const (
	// exactPattern matches one domain exactly.
	exactPattern patternKind = iota

	// wildcardSubdomainPattern matches a domain suffix and every
	// subdomain of it.
	wildcardSubdomainPattern

	// wildcardPattern matches everything.
	wildcardPattern
)

// Pattern is one allowlist entry: an exact domain ("github.com"), a
// wildcard-subdomain pattern ("*.github.com"), or the universal
// wildcard ("*").
//
// Matching is case-insensitive on both sides with plain ASCII
// lowercasing; no punycode/IDNA normalization is performed.
type Pattern struct {
	kind   patternKind
	domain string
}

// ParsePattern parses a pattern string. The string is trimmed and
// lowercased; "*" yields the universal wildcard, a "*." prefix yields
// a wildcard-subdomain pattern, and anything else an exact match.
// There is no error path: every string parses to some pattern.
func ParsePattern(raw string) Pattern {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "*" {
		return Pattern{kind: wildcardPattern}
	}
	if suffix, ok := strings.CutPrefix(cleaned, "*."); ok {
		return Pattern{kind: wildcardSubdomainPattern, domain: suffix}
	}
	return Pattern{kind: exactPattern, domain: cleaned}
}

// Matches reports whether domain matches this pattern.
//
// A wildcard-subdomain pattern matches its bare suffix too:
// "*.github.com" matches both "api.github.com" and "github.com". This
// inclusive-suffix behavior is deliberate — operators who allow a
// domain's subdomains invariably mean the apex as well.
func (p Pattern) Matches(domain string) bool {
	domain = strings.ToLower(domain)
	switch p.kind {
	case wildcardPattern:
		return true
	case exactPattern:
		return domain == p.domain
	case wildcardSubdomainPattern:
		return domain == p.domain || strings.HasSuffix(domain, "."+p.domain)
	default:
		return false
	}
}

// String renders the pattern back to its source form.
func (p Pattern) String() string {
	switch p.kind {
	case wildcardPattern:
		return "*"
	case wildcardSubdomainPattern:
		return "*." + p.domain
	default:
		return p.domain
	}
}
