package httpapi

import "strings"

// BypassList holds paths served without authentication. An entry ending in
// "/*" matches that prefix and everything below it; any other entry must
// match exactly.
type BypassList struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewBypassList(paths []string) *BypassList {
	b := &BypassList{exact: make(map[string]struct{})}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			b.prefixes = append(b.prefixes, prefix)
			continue
		}
		b.exact[p] = struct{}{}
	}
	return b
}

// Match reports whether path skips the gate.
func (b *BypassList) Match(path string) bool {
	if _, ok := b.exact[path]; ok {
		return true
	}
	for _, prefix := range b.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
