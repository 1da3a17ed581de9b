// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match decides which configured keywords a paper record matches.
//
// Fixed keywords match when their case-folded text is a substring of the
// case-folded title and abstract. Variable keywords match when their
// normalized form is a substring of the normalized text; the normalization
// chain is configurable (see Normalizer).
package match

import (
	"strings"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Result pairs a record with the keywords it matched.
type Result struct {
	Record   types.PaperRecord `json:"record" yaml:"record"`
	Keywords []types.Keyword   `json:"keywords" yaml:"keywords"`
}

type prepared struct {
	kw   types.Keyword
	form string
}

// Matcher holds keywords with their comparison forms precomputed.
type Matcher struct {
	keywords []prepared
	variable *Normalizer
	anyVar   bool
}

// New prepares a matcher for keywords. A nil normalizer uses the default
// chain.
func New(keywords []types.Keyword, variable *Normalizer) *Matcher {
	if variable == nil {
		variable = DefaultNormalizer()
	}
	m := &Matcher{variable: variable}
	for _, kw := range keywords {
		p := prepared{kw: kw}
		if kw.Mode == types.ModeVariable {
			p.form = variable.Normalize(kw.Text)
			m.anyVar = true
		} else {
			p.form = strings.ToLower(kw.Text)
		}
		m.keywords = append(m.keywords, p)
	}
	return m
}

// Keywords returns the configured keywords in order.
func (m *Matcher) Keywords() []types.Keyword {
	out := make([]types.Keyword, len(m.keywords))
	for i, p := range m.keywords {
		out[i] = p.kw
	}
	return out
}

// Match returns the keywords that match the record, in configuration
// order. The result is empty when nothing matches.
func (m *Matcher) Match(record types.PaperRecord) []types.Keyword {
	return m.MatchText(record.SearchText())
}

// MatchText is Match over arbitrary text.
func (m *Matcher) MatchText(text string) []types.Keyword {
	folded := strings.ToLower(text)
	var normalized string
	if m.anyVar {
		normalized = m.variable.Normalize(text)
	}

	var matched []types.Keyword
	for _, p := range m.keywords {
		if p.form == "" {
			continue
		}
		haystack := folded
		if p.kw.Mode == types.ModeVariable {
			haystack = normalized
		}
		if strings.Contains(haystack, p.form) {
			matched = append(matched, p.kw)
		}
	}
	return matched
}

// Filter keeps the records that match at least one keyword.
func (m *Matcher) Filter(records []types.PaperRecord) []Result {
	var out []Result
	for _, r := range records {
		if kws := m.Match(r); len(kws) > 0 {
			out = append(out, Result{Record: r, Keywords: kws})
		}
	}
	return out
}
