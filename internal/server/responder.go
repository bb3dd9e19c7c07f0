// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/jeranaias/newsdesk/internal/model"
)

// MaxResults is how many cards a reply carries.
const MaxResults = 3

// DefaultSearchBase is the link prefix for generated cards.
const DefaultSearchBase = "https://news.example.com/search"

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true, "at": true,
	"for": true, "from": true, "how": true, "in": true, "is": true, "it": true,
	"me": true, "news": true, "of": true, "on": true, "or": true, "show": true,
	"tell": true, "the": true, "to": true, "today": true, "what": true,
	"whats": true, "with": true,
}

// EchoResponder answers from the words of the message itself. It needs no
// network and is deterministic.
type EchoResponder struct {
	// SearchBase is the link prefix for cards.
	SearchBase string
}

// NewEchoResponder creates an EchoResponder with the default link prefix.
func NewEchoResponder() *EchoResponder {
	return &EchoResponder{SearchBase: DefaultSearchBase}
}

// Respond builds up to MaxResults cards, one per keyword. A message without
// keywords yields an empty answer.
func (e *EchoResponder) Respond(ctx context.Context, q Query) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	words := Keywords(q.Message)
	if len(words) == 0 {
		return Answer{}, nil
	}
	if len(words) > MaxResults {
		words = words[:MaxResults]
	}

	base := e.SearchBase
	if base == "" {
		base = DefaultSearchBase
	}

	results := make([]model.ResultItem, 0, len(words))
	for _, w := range words {
		results = append(results, model.ResultItem{
			Title:       fmt.Sprintf("Latest on %s", w),
			Description: fmt.Sprintf("Recent coverage mentioning %q.", w),
			Link:        base + "?query=" + url.QueryEscape(w),
		})
	}

	var reply string
	switch q.Mode {
	case model.ModeAssistant:
		reply = fmt.Sprintf("Here is a summary of the news about %s. Ask a follow-up to dig deeper.", strings.Join(words, ", "))
	default:
		reply = fmt.Sprintf("I found %d articles about %s.", len(results), strings.Join(words, ", "))
	}

	return Answer{Reply: reply, Source: SourceNaver, Results: results}, nil
}

// Keywords returns the distinct lowercased words of s that are at least two
// letters or digits long and not stopwords, in order of appearance.
func Keywords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var words []string
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}
	return words
}
