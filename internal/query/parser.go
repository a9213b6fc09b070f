// Package query parses the Gmail-like search mini-language into a typed
// Query.
package query

import (
	"strings"
	"time"
)

// Query is a parsed search query: free text plus typed filters. Pointer
// fields are nil when the corresponding operator is absent.
type Query struct {
	Text          string     // free text remaining after operators are stripped
	From          string     // from: substring filter, lowercased
	To            string     // to: substring filter, lowercased
	Subject       string     // subject: substring filter
	Folder        string     // in: folder token, parsed but not evaluated by the index
	Labels        []string   // label: filters, OR-matched
	HasAttachment *bool      // has:attachment
	IsRead        *bool      // is:read / is:unread
	IsStarred     *bool      // is:starred
	After         *time.Time // after: lower date bound
	Before        *time.Time // before: upper date bound
}

// IsEmpty returns true if the query has no search criteria at all.
func (q *Query) IsEmpty() bool {
	return q.Text == "" &&
		q.From == "" &&
		q.To == "" &&
		q.Subject == "" &&
		q.Folder == "" &&
		len(q.Labels) == 0 &&
		q.HasAttachment == nil &&
		q.IsRead == nil &&
		q.IsStarred == nil &&
		q.After == nil &&
		q.Before == nil
}

// operatorFn applies a recognized operator:value pair to the query. It
// returns false when the value is not valid for the operator, in which
// case the whole token is kept as free text.
type operatorFn func(q *Query, value string) bool

// operators maps operator names to their handler functions. Scalar
// operators keep the last occurrence; label: accumulates.
var operators = map[string]operatorFn{
	"from": func(q *Query, v string) bool {
		q.From = strings.ToLower(v)
		return true
	},
	"to": func(q *Query, v string) bool {
		q.To = strings.ToLower(v)
		return true
	},
	"subject": func(q *Query, v string) bool {
		q.Subject = v
		return true
	},
	"in": func(q *Query, v string) bool {
		q.Folder = strings.ToLower(v)
		return true
	},
	"label": func(q *Query, v string) bool {
		q.Labels = append(q.Labels, v)
		return true
	},
	"has": func(q *Query, v string) bool {
		if strings.ToLower(v) != "attachment" {
			return false
		}
		b := true
		q.HasAttachment = &b
		return true
	},
	"is": func(q *Query, v string) bool {
		b := true
		f := false
		switch strings.ToLower(v) {
		case "read":
			q.IsRead = &b
		case "unread":
			q.IsRead = &f
		case "starred":
			q.IsStarred = &b
		default:
			return false
		}
		return true
	},
	"after": func(q *Query, v string) bool {
		// invalid dates consume the token but drop the filter
		if t := parseDate(v); t != nil {
			q.After = t
		}
		return true
	},
	"before": func(q *Query, v string) bool {
		if t := parseDate(v); t != nil {
			q.Before = t
		}
		return true
	},
}

// Parse converts a raw query string into a Query.
//
// Supported operators, matched case-insensitively:
//   - from:, to:, subject:, in: - substring filters (last one wins)
//   - label: - label filter, repeatable
//   - has:attachment
//   - is:read, is:unread, is:starred
//   - after:, before: - date bounds (YYYY-MM-DD or YYYY/MM/DD)
//   - bare words and "quoted phrases" - free text
//
// Parsing is tolerant: anything unrecognized stays in the free text.
// When both is:read and is:unread appear, the last one in scan order
// wins. Unparseable after:/before: dates drop that bound entirely.
func Parse(raw string) *Query {
	q := &Query{}
	var text []string

	for _, tok := range splitQuery(raw) {
		if isQuotedPhrase(tok) {
			text = append(text, unquote(tok))
			continue
		}

		if idx := strings.Index(tok, ":"); idx > 0 {
			op := strings.ToLower(tok[:idx])
			value := unquote(tok[idx+1:])

			if handler, ok := operators[op]; ok && value != "" && handler(q, value) {
				continue
			}
		}

		text = append(text, tok)
	}

	q.Text = strings.TrimSpace(strings.Join(text, " "))
	return q
}

// unquote removes surrounding double quotes from a string if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// isQuotedPhrase returns true if the token is a double-quoted phrase.
func isQuotedPhrase(tok string) bool {
	return len(tok) > 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}

// splitQuery splits a query string on spaces, keeping quoted phrases
// together and keeping op:"quoted value" pairs as a single token.
func splitQuery(raw string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	afterColon := false
	opQuoted := false

	for _, char := range raw {
		switch {
		case char == '"' && !inQuotes:
			inQuotes = true
			opQuoted = afterColon
			if !afterColon && current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			if afterColon {
				current.WriteRune(char)
			}
			afterColon = false
		case char == '"' && inQuotes:
			inQuotes = false
			if opQuoted {
				current.WriteRune(char)
				tokens = append(tokens, current.String())
				current.Reset()
			} else if current.Len() > 0 {
				tokens = append(tokens, "\""+current.String()+"\"")
				current.Reset()
			}
			opQuoted = false
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			afterColon = false
		default:
			current.WriteRune(char)
			afterColon = char == ':'
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// parseDate parses date strings like YYYY-MM-DD or YYYY/MM/DD.
func parseDate(value string) *time.Time {
	formats := []string{
		"2006-01-02",
		"2006/01/02",
	}

	value = strings.TrimSpace(value)
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
