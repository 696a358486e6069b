package overlay

import (
	"path"
	"path/filepath"
	"strings"
)

// Matcher decides whether a path relative to a sync root is excluded.
// Patterns follow rsync --exclude: a pattern without a slash matches any
// path component, a pattern with one matches the relative path (anchored
// to the root when it starts with a slash), and a trailing slash limits the
// pattern to directories.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob     string
	anchored bool
	hasSlash bool
	dirOnly  bool
}

// NewMatcher compiles patterns; empty patterns are ignored.
func NewMatcher(patterns ...[]string) *Matcher {
	m := &Matcher{}
	for _, list := range patterns {
		for _, raw := range list {
			if p, ok := compile(raw); ok {
				m.patterns = append(m.patterns, p)
			}
		}
	}
	return m
}

func compile(raw string) (pattern, bool) {
	p := filepath.ToSlash(strings.TrimSpace(raw))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	var pat pattern
	if strings.HasSuffix(p, "/") {
		pat.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		pat.anchored = true
		p = strings.TrimLeft(p, "/")
	}
	if p == "" || p == "." {
		return pattern{}, false
	}
	pat.hasSlash = pat.anchored || strings.Contains(p, "/")
	pat.glob = p
	return pat, true
}

// Excluded reports whether rel (slash or OS separated, relative to the
// sync root) is excluded.
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.matches(rel) {
			return true
		}
	}
	return false
}

func (p pattern) matches(rel string) bool {
	if !p.hasSlash {
		ok, _ := path.Match(p.glob, path.Base(rel))
		return ok
	}
	if p.anchored {
		ok, _ := path.Match(p.glob, rel)
		return ok
	}
	// Unanchored patterns with a slash match any trailing run of components.
	for candidate := rel; ; {
		if ok, _ := path.Match(p.glob, candidate); ok {
			return true
		}
		i := strings.Index(candidate, "/")
		if i < 0 {
			return false
		}
		candidate = candidate[i+1:]
	}
}
