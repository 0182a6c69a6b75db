package catalog

import "strings"

// Colors in the order they appear in the types view.
var Colors = []string{"White", "Blue", "Black", "Red", "Green", "Multicolor", "Colorless"}

// CardTypeNames are the card types offered for every color.
var CardTypeNames = []string{
	"Creature", "Instant", "Sorcery", "Artifact", "Enchantment", "Planeswalker", "Land", "Battle",
}

// CardType is a label in the "types" view: one card type of one color.
type CardType struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

// NewCardType builds the CardType with ID "Color:Type".
func NewCardType(color, typ string) CardType {
	return CardType{ID: color + ":" + typ, Color: color, Type: typ}
}

// ParseCardType parses an ID of the form "Color:Type".
func ParseCardType(id string) (CardType, bool) {
	color, typ, ok := strings.Cut(id, ":")
	if !ok || color == "" || typ == "" {
		return CardType{}, false
	}
	return NewCardType(color, typ), true
}

// CardTypesByColor returns the card types offered for each color.
func CardTypesByColor() map[string][]string {
	m := make(map[string][]string, len(Colors))
	for _, c := range Colors {
		m[c] = CardTypeNames
	}
	return m
}

// manaSymbols maps a color to its Scryfall symbol code.
var manaSymbols = map[string]string{
	"White":      "{W}",
	"Blue":       "{U}",
	"Black":      "{B}",
	"Red":        "{R}",
	"Green":      "{G}",
	"Multicolor": "{PW}",
	"Colorless":  "{C}",
}

// ManaSymbol returns the symbol code drawn for color.
func ManaSymbol(color string) (string, bool) {
	s, ok := manaSymbols[color]
	return s, ok
}

// Symbology maps a symbol code such as "{W}" to its SVG URI.
type Symbology map[string]string

// ManaSymbolURI resolves the SVG for color. Multicolor has no symbol of
// its own and uses the planeswalker symbol.
func (s Symbology) ManaSymbolURI(color string) (string, bool) {
	code, ok := ManaSymbol(color)
	if !ok {
		return "", false
	}
	uri, ok := s[code]
	return uri, ok && uri != ""
}
