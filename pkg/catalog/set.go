package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the format of [Set.ReleasedAt].
const DateLayout = "2006-01-02"

// Set is one catalog item as published by Scryfall.
type Set struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	SetType     string `json:"set_type"`
	CardCount   int    `json:"card_count"`
	ReleasedAt  string `json:"released_at,omitempty"`
	Digital     bool   `json:"digital"`
	IconSVGURI  string `json:"icon_svg_uri,omitempty"`
	ScryfallURI string `json:"scryfall_uri,omitempty"`
}

// Validate checks the fields a label needs.
func (s Set) Validate() error {
	switch {
	case strings.TrimSpace(s.ID) == "":
		return fmt.Errorf("set %q: empty id", s.Code)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("set %q: empty name", s.Code)
	case len(s.Code) < 2 || len(s.Code) > 6:
		return fmt.Errorf("set %q: code must be 2-6 characters", s.Code)
	case s.CardCount < 0:
		return fmt.Errorf("set %q: negative card count %d", s.Code, s.CardCount)
	}
	if s.ReleasedAt != "" {
		if _, err := time.Parse(DateLayout, s.ReleasedAt); err != nil {
			return fmt.Errorf("set %q: released_at %q is not YYYY-MM-DD", s.Code, s.ReleasedAt)
		}
	}
	return nil
}

// Released returns the release date, or the zero time when unknown.
func (s Set) Released() time.Time {
	t, _ := time.Parse(DateLayout, s.ReleasedAt)
	return t
}

// Subtitle is the second label line: upper-cased code and release month.
func (s Set) Subtitle() string {
	code := strings.ToUpper(s.Code)
	if s.ReleasedAt == "" {
		return code
	}
	if t := s.Released(); !t.IsZero() {
		return code + " - " + t.Format("January 2006")
	}
	return code + " - " + s.ReleasedAt
}

// MinimumSetSize is the default smallest card count worth a label.
const MinimumSetSize = 10

// DefaultSetTypes lists the set types kept by [Filter] by default.
var DefaultSetTypes = []string{
	"core", "expansion", "masters", "eternal", "alchemy", "masterpiece",
	"from_the_vault", "premium_deck", "duel_deck", "draft_innovation",
	"commander", "planechase", "funny", "starter", "box", "minigame",
}

// DefaultIgnoredCodes lists set codes that never get a label.
var DefaultIgnoredCodes = []string{
	"cmb1", "amh1", "cmb2", "fbb", "sum", "4bb", "bchr",
	"rin", "ren", "rqs", "itp", "sir", "sis", "cst",
}

// FilterOptions controls [Filter]. The zero value keeps every non-digital set.
type FilterOptions struct {
	SetTypes     []string
	MinimumSize  int
	IgnoredCodes []string
	// IncludeDigital keeps digital-only sets.
	IncludeDigital bool
}

// DefaultFilter returns the filter used by the generator.
func DefaultFilter() FilterOptions {
	return FilterOptions{
		SetTypes:     DefaultSetTypes,
		MinimumSize:  MinimumSetSize,
		IgnoredCodes: DefaultIgnoredCodes,
	}
}

// Filter returns the sets matching opts in their original order.
func Filter(sets []Set, opts FilterOptions) []Set {
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if s.Digital && !opts.IncludeDigital {
			continue
		}
		if len(opts.SetTypes) > 0 && !slices.Contains(opts.SetTypes, s.SetType) {
			continue
		}
		if s.CardCount < opts.MinimumSize {
			continue
		}
		if slices.Contains(opts.IgnoredCodes, strings.ToLower(s.Code)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Group buckets sets by display name of their set type
// ("duel_deck" becomes "Duel Deck").
func Group(sets []Set) map[string][]Set {
	groups := make(map[string][]Set)
	for _, s := range sets {
		k := TypeTitle(s.SetType)
		groups[k] = append(groups[k], s)
	}
	return groups
}

// TypeTitle turns a set type into a title-cased display name.
func TypeTitle(setType string) string {
	words := strings.Fields(strings.ReplaceAll(setType, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Lookup indexes sets by ID.
func Lookup(sets []Set) map[string]Set {
	m := make(map[string]Set, len(sets))
	for _, s := range sets {
		m[s.ID] = s
	}
	return m
}
