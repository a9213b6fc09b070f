package engine

import "strings"

// DefaultSuggestLimit caps suggestion lists when no limit is supplied.
const DefaultSuggestLimit = 10

// Suggest returns up to limit vocabulary tokens starting with the
// lowercased prefix. Order follows the trie's breadth-first insertion
// order, not relevance.
func (ix *Index) Suggest(prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vocab.SearchPrefix(strings.ToLower(strings.TrimSpace(prefix)), limit)
}
