// Package engine implements the in-memory email search index: canonical
// records, a token inverted index, a subject n-gram index for fuzzy
// candidate generation, ranked search, and autocomplete.
package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/msrch/mailindex/internal/pkg/token"
	"github.com/msrch/mailindex/internal/pkg/trie"
)

// Email is the canonical indexed record. Tokens is a cache derived from
// the textual fields, deduplicated in first-occurrence order.
type Email struct {
	ID            string   `json:"id"`
	ThreadID      string   `json:"threadId,omitempty"`
	Subject       string   `json:"subject"`
	Snippet       string   `json:"snippet,omitempty"`
	From          string   `json:"from"`
	FromName      string   `json:"fromName,omitempty"`
	To            []string `json:"to,omitempty"`
	Cc            []string `json:"cc,omitempty"`
	Date          int64    `json:"date"` // epoch millis
	Labels        []string `json:"labels,omitempty"`
	IsRead        bool     `json:"isRead"`
	IsStarred     bool     `json:"isStarred"`
	HasAttachment bool     `json:"hasAttachment"`
	Tokens        []string `json:"tokens,omitempty"`
}

// Input is the caller-supplied record for indexing. FromName and Tokens
// are derived by the index; Body contributes tokens but is not stored.
type Input struct {
	ID            string   `json:"id"`
	ThreadID      string   `json:"threadId,omitempty"`
	Subject       string   `json:"subject"`
	Snippet       string   `json:"snippet,omitempty"`
	From          string   `json:"from"`
	To            []string `json:"to,omitempty"`
	Cc            []string `json:"cc,omitempty"`
	Date          int64    `json:"date"`
	Labels        []string `json:"labels,omitempty"`
	IsRead        bool     `json:"isRead"`
	IsStarred     bool     `json:"isStarred"`
	HasAttachment bool     `json:"hasAttachment"`
	Body          string   `json:"body,omitempty"`
}

// Stats describes the current index size.
type Stats struct {
	TotalIndexed   int   `json:"totalIndexed"`
	LastIndexedAt  int64 `json:"lastIndexedAt"` // epoch millis, 0 when never indexed
	IndexSizeBytes int64 `json:"indexSizeBytes"`
}

// perIDOverhead is the fixed bookkeeping estimate per posting entry used
// by the index size calculation.
const perIDOverhead = 8

// Index owns the canonical records and both lookup structures. A single
// RWMutex serializes mutations against concurrent searches; the caller
// creates and owns the instance, there is no process-wide singleton.
type Index struct {
	mu sync.RWMutex

	emails   map[string]*Email
	postings map[string]map[string]struct{} // token -> email IDs
	ngrams   map[string]map[string]struct{} // subject n-gram -> email IDs
	vocab    *trie.Trie                     // token vocabulary for autocomplete

	lastIndexedAt time.Time

	now func() time.Time // time source, mockable for testing
}

// New creates an empty index.
func New() *Index {
	return &Index{
		emails:   make(map[string]*Email),
		postings: make(map[string]map[string]struct{}),
		ngrams:   make(map[string]map[string]struct{}),
		vocab:    trie.NewTrie(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Add indexes the record, replacing any previous record with the same
// id. Old postings are fully removed before the new ones are inserted,
// so calling Add repeatedly for one id is safe. Records without an id
// are ignored.
func (ix *Index) Add(in Input) {
	if in.ID == "" {
		return
	}

	fromName := deriveFromName(in.From)
	e := &Email{
		ID:            in.ID,
		ThreadID:      in.ThreadID,
		Subject:       in.Subject,
		Snippet:       in.Snippet,
		From:          in.From,
		FromName:      fromName,
		To:            in.To,
		Cc:            in.Cc,
		Date:          in.Date,
		Labels:        in.Labels,
		IsRead:        in.IsRead,
		IsStarred:     in.IsStarred,
		HasAttachment: in.HasAttachment,
		Tokens:        recordTokens(in.Subject, in.Snippet, fromName, in.From, in.Body),
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.emails[in.ID]; ok {
		ix.removePostings(old)
	}
	ix.insert(e)
	ix.lastIndexedAt = ix.now()
}

// Remove deletes the record and all of its postings. Unknown ids are a
// no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.emails[id]
	if !ok {
		return
	}
	ix.removePostings(e)
	delete(ix.emails, id)
}

// Clear drops every record and both indexes.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.reset()
}

// Stats returns the record count, the last indexing time, and a rough
// byte estimate of the inverted index. The estimate sums token storage
// plus a fixed per-posting overhead; it is not an exact measurement.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.stats()
}

func (ix *Index) stats() Stats {
	var size int64
	for tok, ids := range ix.postings {
		size += int64(len(tok)*2) + int64(len(ids)*perIDOverhead)
	}

	var last int64
	if !ix.lastIndexedAt.IsZero() {
		last = ix.lastIndexedAt.UnixMilli()
	}

	return Stats{
		TotalIndexed:   len(ix.emails),
		LastIndexedAt:  last,
		IndexSizeBytes: size,
	}
}

// insert stores the record and adds its token and subject n-gram
// postings. Caller holds the write lock.
func (ix *Index) insert(e *Email) {
	ix.emails[e.ID] = e

	for _, t := range e.Tokens {
		ids, ok := ix.postings[t]
		if !ok {
			ids = make(map[string]struct{})
			ix.postings[t] = ids
			ix.vocab.Insert(t)
		}
		ids[e.ID] = struct{}{}
	}

	for _, g := range token.NGrams(e.Subject, token.DefaultNGramSize) {
		ids, ok := ix.ngrams[g]
		if !ok {
			ids = make(map[string]struct{})
			ix.ngrams[g] = ids
		}
		ids[e.ID] = struct{}{}
	}
}

// removePostings deletes the record's id from every posting set it
// appears in, pruning sets that become empty. Caller holds the write
// lock.
func (ix *Index) removePostings(e *Email) {
	for _, t := range e.Tokens {
		ids, ok := ix.postings[t]
		if !ok {
			continue
		}
		delete(ids, e.ID)
		if len(ids) == 0 {
			delete(ix.postings, t)
			ix.vocab.Remove(t)
		}
	}

	for _, g := range token.NGrams(e.Subject, token.DefaultNGramSize) {
		ids, ok := ix.ngrams[g]
		if !ok {
			continue
		}
		delete(ids, e.ID)
		if len(ids) == 0 {
			delete(ix.ngrams, g)
		}
	}
}

// reset reinitializes the record map and both indexes. Caller holds
// the write lock.
func (ix *Index) reset() {
	ix.emails = make(map[string]*Email)
	ix.postings = make(map[string]map[string]struct{})
	ix.ngrams = make(map[string]map[string]struct{})
	ix.vocab = trie.NewTrie()
	ix.lastIndexedAt = time.Time{}
}

// recordTokens derives the deduplicated token set for a record.
func recordTokens(subject, snippet, fromName, from, body string) []string {
	var all []string
	all = append(all, token.Tokenize(subject)...)
	all = append(all, token.Tokenize(snippet)...)
	all = append(all, token.Tokenize(fromName)...)
	all = append(all, token.Tokenize(from)...)
	if body != "" {
		all = append(all, token.Tokenize(body)...)
	}
	return token.Dedup(all)
}

// deriveFromName extracts a display name from a raw From value: the
// text before '<' for "Name <addr>" shapes, otherwise the local part
// before '@'.
func deriveFromName(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		if name := strings.TrimSpace(from[:idx]); name != "" {
			return name
		}
	}
	if idx := strings.Index(from, "@"); idx > 0 {
		return strings.Trim(from[:idx], `"< `)
	}
	return from
}
