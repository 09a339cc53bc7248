// Package rename catalogues the rename templates a save task can carry.
// Templates are opaque to cloudsave: they are validated, stored on the task
// and handed to whatever applies them; no expansion happens here.
package rename

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind separates shipped templates from user-written ones.
type Kind string

const (
	KindPreset Kind = "preset"
	KindCustom Kind = "custom"
)

// Template is a rename pattern a save task can reference by key.
type Template struct {
	Key         string
	Description string
	Pattern     string
	Kind        Kind
}

// Variable is one substitution token a pattern may use.
type Variable struct {
	Token       string
	Description string
}

var variables = []Variable{
	{"{title}", "series or collection title"},
	{"{season}", "season number, zero padded"},
	{"{episode}", "episode number, zero padded"},
	{"{date}", "air or publish date, YYYY-MM-DD"},
	{"{part}", "part label for multi-part episodes"},
	{"{index}", "running index within the save batch"},
	{"{original}", "original file name without extension"},
	{"{ext}", "original file extension"},
}

var presets = []Template{
	{
		Key:         "VIDEO_SERIES",
		Description: "episodic series, season/episode numbering",
		Pattern:     "{title}.S{season}E{episode}.{ext}",
		Kind:        KindPreset,
	},
	{
		Key:         "VARIETY_SHOW",
		Description: "variety shows keyed by air date",
		Pattern:     "{title}.{date}.{part}.{ext}",
		Kind:        KindPreset,
	},
	{
		Key:         "SERIES_FORMAT",
		Description: "plain numbered episodes",
		Pattern:     "{title}.E{episode}.{ext}",
		Kind:        KindPreset,
	},
	{
		Key:         "KEEP_ORIGINAL",
		Description: "keep provider file names unchanged",
		Pattern:     "{original}.{ext}",
		Kind:        KindPreset,
	},
}

// Presets returns the shipped templates in display order.
func Presets() []Template {
	out := make([]Template, len(presets))
	copy(out, presets)
	return out
}

// Variables returns the substitution tokens patterns may use.
func Variables() []Variable {
	out := make([]Variable, len(variables))
	copy(out, variables)
	return out
}

// Lookup finds a preset by key.
func Lookup(key string) (Template, bool) {
	for _, t := range presets {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

var tokenRe = regexp.MustCompile(`\{[^{}]*\}`)

// ValidatePattern checks a custom pattern: non-empty, braces balanced, every
// token drawn from the known catalogue.
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is empty")
	}

	stripped := tokenRe.ReplaceAllString(pattern, "")
	if strings.ContainsAny(stripped, "{}") {
		return fmt.Errorf("unbalanced braces in pattern: %s", pattern)
	}

	known := make(map[string]bool, len(variables))
	for _, v := range variables {
		known[v.Token] = true
	}
	for _, tok := range tokenRe.FindAllString(pattern, -1) {
		if !known[tok] {
			return fmt.Errorf("unknown token %s in pattern", tok)
		}
	}
	return nil
}

// Resolve returns the pattern for a template reference: a preset key, or a
// custom pattern verbatim. Empty means no renaming.
func Resolve(ref string) (Template, error) {
	if strings.TrimSpace(ref) == "" {
		return Template{}, nil
	}
	if t, ok := Lookup(ref); ok {
		return t, nil
	}
	if err := ValidatePattern(ref); err != nil {
		return Template{}, err
	}
	return Template{Key: "custom", Pattern: ref, Kind: KindCustom}, nil
}
