package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
)

// MaxNameLength is the longest set name printed without truncation.
const MaxNameLength = 32

//go:embed abbreviations.toml
var abbreviationsTOML string

var loadAbbreviations = sync.OnceValue(func() map[string]string {
	var doc struct {
		Names map[string]string `toml:"names"`
	}
	if _, err := toml.Decode(abbreviationsTOML, &doc); err != nil {
		panic(fmt.Sprintf("catalog: embedded abbreviations: %v", err))
	}
	return doc.Names
})

// Abbreviations returns the built-in name abbreviations. The map is shared;
// callers must not modify it.
func Abbreviations() map[string]string {
	return loadAbbreviations()
}

// Abbreviate returns the short form of name from abbrev, or name cut to
// maxLen runes with a trailing "..." when it is longer. A maxLen below 4
// disables truncation.
func Abbreviate(name string, abbrev map[string]string, maxLen int) string {
	if short, ok := abbrev[name]; ok {
		return short
	}
	r := []rune(name)
	if maxLen < 4 || len(r) <= maxLen {
		return name
	}
	return string(r[:maxLen-3]) + "..."
}
