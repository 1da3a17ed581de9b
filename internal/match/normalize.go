// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"fmt"
	"strings"
	"unicode"
)

// Step is one named text transformation in a normalization chain.
type Step struct {
	Name  string
	Apply func(string) string
}

// DefaultSteps is the chain applied to variable keywords when the
// configuration does not name one.
var DefaultSteps = []string{"lowercase", "punctuation", "plural"}

var registry = map[string]Step{
	"lowercase":   {Name: "lowercase", Apply: strings.ToLower},
	"punctuation": {Name: "punctuation", Apply: stripPunctuation},
	"plural":      {Name: "plural", Apply: stripPlurals},
}

// RegisterStep makes a custom step available to ParseSteps. Registering
// an existing name replaces it.
func RegisterStep(s Step) {
	registry[s.Name] = s
}

// ParseSteps resolves step names to steps, in order.
func ParseSteps(names []string) ([]Step, error) {
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown normalization step %q", name)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// Normalizer applies an ordered chain of steps to text.
type Normalizer struct {
	steps []Step
}

// NewNormalizer builds a normalizer from steps. With no steps it is the
// identity transform.
func NewNormalizer(steps ...Step) *Normalizer {
	return &Normalizer{steps: steps}
}

// DefaultNormalizer returns a normalizer running DefaultSteps.
func DefaultNormalizer() *Normalizer {
	steps, _ := ParseSteps(DefaultSteps)
	return NewNormalizer(steps...)
}

// Normalize runs every step over s.
func (n *Normalizer) Normalize(s string) string {
	for _, step := range n.steps {
		s = step.Apply(s)
	}
	return s
}

// Steps returns the step names in order.
func (n *Normalizer) Steps() []string {
	names := make([]string, len(n.steps))
	for i, s := range n.steps {
		names[i] = s.Name
	}
	return names
}

// stripPunctuation replaces every rune that is not a letter or digit with a
// space and collapses runs of whitespace, so "Super-Resolution" and
// "super resolution" normalize the same way.
func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripPlurals reduces each whitespace-separated word to a singular form
// using simple English suffix rules.
func stripPlurals(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = singular(w)
	}
	return strings.Join(words, " ")
}

func singular(w string) string {
	if len([]rune(w)) <= 3 {
		return w
	}
	switch {
	case hasSuffixFold(w, "ies"):
		return w[:len(w)-3] + "y"
	case hasSuffixFold(w, "sses"),
		hasSuffixFold(w, "xes"),
		hasSuffixFold(w, "zes"),
		hasSuffixFold(w, "ches"),
		hasSuffixFold(w, "shes"):
		return w[:len(w)-2]
	case hasSuffixFold(w, "ss"),
		hasSuffixFold(w, "us"),
		hasSuffixFold(w, "is"):
		return w
	case hasSuffixFold(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

// hasSuffixFold reports whether the last len(suffix) bytes of w equal the
// ASCII suffix, ignoring case.
func hasSuffixFold(w, suffix string) bool {
	return len(w) >= len(suffix) && strings.EqualFold(w[len(w)-len(suffix):], suffix)
}
