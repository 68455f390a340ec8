package discord

import "strings"

// WordFilter deletes messages containing configured words, unless the author
// holds a bypass. Matching is case-insensitive on whole words.
type WordFilter struct {
	words  map[string]struct{}
	bypass map[string]struct{}
}

// NewWordFilter builds a filter from word and bypass-user lists. Empty lists
// yield a filter that never matches.
func NewWordFilter(words, bypassUsers []string) *WordFilter {
	f := &WordFilter{
		words:  make(map[string]struct{}, len(words)),
		bypass: make(map[string]struct{}, len(bypassUsers)),
	}
	for _, w := range words {
		if w = strings.ToUpper(strings.TrimSpace(w)); w != "" {
			f.words[w] = struct{}{}
		}
	}
	for _, u := range bypassUsers {
		if u = strings.TrimSpace(u); u != "" {
			f.bypass[u] = struct{}{}
		}
	}
	return f
}

// Match reports whether the message contains a filtered word, and which.
func (f *WordFilter) Match(content string) (string, bool) {
	if len(f.words) == 0 {
		return "", false
	}
	for _, word := range strings.Fields(content) {
		if _, ok := f.words[strings.ToUpper(word)]; ok {
			return word, true
		}
	}
	return "", false
}

// Bypassed reports whether the user id is exempt from filtering.
func (f *WordFilter) Bypassed(userID string) bool {
	_, ok := f.bypass[userID]
	return ok
}
