package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/msrch/mailindex/internal/pkg/fuzzy"
	"github.com/msrch/mailindex/internal/pkg/token"
	"github.com/msrch/mailindex/internal/query"
)

// DefaultLimit caps result lists when the caller supplies no limit.
const DefaultLimit = 50

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	SortByRelevance SortOrder = "relevance"
	SortByDate      SortOrder = "date"
)

// Options controls a single Search call.
type Options struct {
	Limit  int       // maximum results; values <= 0 fall back to DefaultLimit
	Fuzzy  bool      // enable n-gram candidates and similarity scoring
	SortBy SortOrder // SortByRelevance unless SortByDate
}

// DefaultOptions returns the standard search configuration: fuzzy
// matching on, relevance ordering, DefaultLimit results.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, Fuzzy: true, SortBy: SortByRelevance}
}

// Highlight records which search tokens matched a given field.
type Highlight struct {
	Field   string   `json:"field"`
	Matches []string `json:"matches"`
}

// Result pairs a matching record with its relevance score. Results are
// recomputed on every Search call and never persisted.
type Result struct {
	Email      *Email      `json:"email"`
	Score      float64     `json:"score"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Search parses the query string, gathers candidates from the inverted
// and n-gram indexes, filters them against the query's operators, scores
// the survivors, and returns a sorted list capped at opts.Limit. It is a
// pure read of the current index state.
func (ix *Index) Search(raw string, opts Options) []Result {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	q := query.Parse(raw)
	searchTokens := token.Tokenize(q.Text)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := ix.candidates(searchTokens, opts.Fuzzy)

	now := ix.now()
	var results []Result
	for id := range candidates {
		e, ok := ix.emails[id]
		if !ok {
			continue
		}
		if !matchesFilters(e, q) {
			continue
		}

		score, highlights := scoreEmail(e, searchTokens, opts.Fuzzy, now)
		results = append(results, Result{Email: e, Score: score, Highlights: highlights})
	}

	if opts.SortBy == SortByDate {
		sort.Slice(results, func(i, j int) bool {
			if results[i].Email.Date != results[j].Email.Date {
				return results[i].Email.Date > results[j].Email.Date
			}
			return results[i].Email.ID < results[j].Email.ID
		})
	} else {
		sort.Slice(results, func(i, j int) bool {
			if results[i].Score != results[j].Score {
				return results[i].Score > results[j].Score
			}
			if results[i].Email.Date != results[j].Email.Date {
				return results[i].Email.Date > results[j].Email.Date
			}
			return results[i].Email.ID < results[j].Email.ID
		})
	}

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// candidates returns the candidate id set for the search tokens: exact
// postings plus, when fuzzy is on, every id posted under any n-gram of
// each token. With no tokens, every indexed id is a candidate. Caller
// holds at least the read lock.
func (ix *Index) candidates(searchTokens []string, fuzzyOn bool) map[string]struct{} {
	ids := make(map[string]struct{})

	if len(searchTokens) == 0 {
		for id := range ix.emails {
			ids[id] = struct{}{}
		}
		return ids
	}

	for _, t := range searchTokens {
		for id := range ix.postings[t] {
			ids[id] = struct{}{}
		}
		if !fuzzyOn {
			continue
		}
		for _, g := range token.NGrams(t, token.DefaultNGramSize) {
			for id := range ix.ngrams[g] {
				ids[id] = struct{}{}
			}
		}
	}
	return ids
}

// matchesFilters applies every structural filter present on the query.
// The in: folder token is carried on the query but never evaluated here;
// records hold no folder field.
func matchesFilters(e *Email, q *query.Query) bool {
	if q.From != "" {
		if !strings.Contains(strings.ToLower(e.From), q.From) &&
			!strings.Contains(strings.ToLower(e.FromName), q.From) {
			return false
		}
	}

	if q.To != "" {
		found := false
		for _, addr := range e.To {
			if strings.Contains(strings.ToLower(addr), q.To) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.Subject != "" {
		if !strings.Contains(strings.ToLower(e.Subject), strings.ToLower(q.Subject)) {
			return false
		}
	}

	if q.HasAttachment != nil && e.HasAttachment != *q.HasAttachment {
		return false
	}
	if q.IsRead != nil && e.IsRead != *q.IsRead {
		return false
	}
	if q.IsStarred != nil && e.IsStarred != *q.IsStarred {
		return false
	}

	if len(q.Labels) > 0 {
		found := false
		for _, want := range q.Labels {
			for _, have := range e.Labels {
				if have == want {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.After != nil && e.Date < q.After.UnixMilli() {
		return false
	}
	if q.Before != nil && e.Date > q.Before.UnixMilli() {
		return false
	}

	return true
}

// scoreEmail computes the relevance score and highlights for one record.
// Each search token awards +10 for a subject hit, +5 for a sender hit,
// +2 for exact token membership, and with fuzzy on, +1 per indexed token
// within the similarity threshold. Recency and starred boosts multiply
// the summed token score. With no search tokens every record scores a
// flat 1.
func scoreEmail(e *Email, searchTokens []string, fuzzyOn bool, now time.Time) (float64, []Highlight) {
	if len(searchTokens) == 0 {
		return 1, nil
	}

	subject := strings.ToLower(e.Subject)
	from := strings.ToLower(e.From)
	fromName := strings.ToLower(e.FromName)

	var score float64
	var subjectMatches, fromMatches []string

	for _, t := range searchTokens {
		if strings.Contains(subject, t) {
			score += 10
			subjectMatches = append(subjectMatches, t)
		}
		if strings.Contains(from, t) || strings.Contains(fromName, t) {
			score += 5
			fromMatches = append(fromMatches, t)
		}

		for _, indexed := range e.Tokens {
			if indexed == t {
				score += 2
			}
			if fuzzyOn && fuzzy.Similar(indexed, t, fuzzy.DefaultThreshold) {
				score++
			}
		}
	}

	age := now.Sub(time.UnixMilli(e.Date))
	switch {
	case age < 7*24*time.Hour:
		score *= 1.5
	case age < 30*24*time.Hour:
		score *= 1.2
	}
	if e.IsStarred {
		score *= 1.3
	}

	var highlights []Highlight
	if len(subjectMatches) > 0 {
		highlights = append(highlights, Highlight{Field: "subject", Matches: subjectMatches})
	}
	if len(fromMatches) > 0 {
		highlights = append(highlights, Highlight{Field: "from", Matches: fromMatches})
	}
	return score, highlights
}
