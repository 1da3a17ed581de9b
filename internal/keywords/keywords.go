// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords loads keyword definitions from a YAML file.
//
// Two layouts are accepted and may be combined:
//
//	fixed:
//	  - SAR
//	  - Super-Resolution
//	variable:
//	  - segmentation
//	keywords:
//	  - text: change detection
//	    mode: variable
//
// Entries under keywords without a mode default to variable.
package keywords

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperbot/pkg/types"
)

// File is the on-disk representation of a keyword list.
type File struct {
	Fixed    []string        `yaml:"fixed,omitempty"`
	Variable []string        `yaml:"variable,omitempty"`
	Keywords []types.Keyword `yaml:"keywords,omitempty"`
}

// Load reads and parses the keyword file at path.
func Load(path string) ([]types.Keyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword file: %w", err)
	}
	kws, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("keyword file %s: %w", path, err)
	}
	return kws, nil
}

// Parse decodes keyword YAML. Fixed entries come first, then variable
// entries, then the explicit list, with exact duplicates removed.
func Parse(data []byte) ([]types.Keyword, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing keywords: %w", err)
	}

	var all []types.Keyword
	for _, text := range f.Fixed {
		all = append(all, types.Keyword{Text: text, Mode: types.ModeFixed})
	}
	for _, text := range f.Variable {
		all = append(all, types.Keyword{Text: text, Mode: types.ModeVariable})
	}
	for _, kw := range f.Keywords {
		if kw.Mode == "" {
			kw.Mode = types.ModeVariable
		}
		kw.Mode = types.KeywordMode(strings.ToLower(string(kw.Mode)))
		all = append(all, kw)
	}

	seen := make(map[types.Keyword]bool, len(all))
	out := make([]types.Keyword, 0, len(all))
	for i, kw := range all {
		kw.Text = strings.TrimSpace(kw.Text)
		if kw.Text == "" {
			return nil, fmt.Errorf("keyword %d: empty text", i+1)
		}
		if !kw.Mode.Valid() {
			return nil, fmt.Errorf("keyword %q: unknown mode %q (want fixed or variable)", kw.Text, kw.Mode)
		}
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no keywords defined")
	}
	return out, nil
}
