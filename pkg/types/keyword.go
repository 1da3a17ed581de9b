// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// KeywordMode selects how a keyword is compared against paper text.
type KeywordMode string

const (
	// ModeFixed matches the exact surface form, ignoring case.
	ModeFixed KeywordMode = "fixed"

	// ModeVariable matches after normalization, tolerating plural forms,
	// hyphenation and punctuation differences.
	ModeVariable KeywordMode = "variable"
)

// Valid reports whether m is a known mode.
func (m KeywordMode) Valid() bool {
	return m == ModeFixed || m == ModeVariable
}

// Keyword is a single configured search term.
type Keyword struct {
	Text string      `json:"text" yaml:"text"`
	Mode KeywordMode `json:"mode" yaml:"mode"`
}

// String renders the keyword for logs, e.g. "SAR (fixed)".
func (k Keyword) String() string {
	return fmt.Sprintf("%s (%s)", k.Text, k.Mode)
}

// Texts returns the keyword texts in order.
func Texts(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Text
	}
	return out
}
