package layout

import "fmt"

// Occupant is one selected item placed on Quantity consecutive slots.
type Occupant struct {
	Ref      string `json:"ref"`
	Quantity int    `json:"quantity"`
	Ordinal  int    `json:"ordinal"` // 1-based position in the selection
}

// Selection is a content reference with the number of labels wanted.
type Selection struct {
	Ref      string `json:"ref"`
	Quantity int    `json:"quantity"`
}

// Slot is one label slot on a page. Occupant is nil for an empty slot.
type Slot struct {
	Index    int       `json:"index"` // 0-based within the page
	Occupant *Occupant `json:"occupant,omitempty"`
}

// Empty reports whether the slot has no occupant.
func (s Slot) Empty() bool { return s.Occupant == nil }

// Page is one sheet of slots. Number is 1-based.
type Page struct {
	Number int    `json:"number"`
	Slots  []Slot `json:"slots"`
}

// Occupied returns the number of occupied slots on the page.
func (p Page) Occupied() int {
	n := 0
	for _, s := range p.Slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// Expand converts selections into occupants with 1-based ordinals.
// Selections with a quantity below 1 are dropped.
func Expand(selections []Selection) []Occupant {
	occupants := make([]Occupant, 0, len(selections))
	for _, s := range selections {
		if s.Quantity < 1 {
			continue
		}
		occupants = append(occupants, Occupant{
			Ref:      s.Ref,
			Quantity: s.Quantity,
			Ordinal:  len(occupants) + 1,
		})
	}
	return occupants
}

// TotalSlots returns the number of slots the occupants need.
func TotalSlots(occupants []Occupant) int {
	n := 0
	for _, o := range occupants {
		n += o.Quantity
	}
	return n
}

// ClampPlaceholders limits leading placeholders so that at least one slot
// of the first page remains for content.
func ClampPlaceholders(n, slotsPerPage int) int {
	return max(0, min(n, slotsPerPage-1))
}

// PageCount returns how many pages Paginate will produce.
func PageCount(occupants []Occupant, placeholders, slotsPerPage int) int {
	total := TotalSlots(occupants)
	if total == 0 {
		return 0
	}
	return (total + placeholders + slotsPerPage - 1) / slotsPerPage
}

// Paginate lays occupants out across pages. The first placeholders slots
// of page 1 stay empty; each occupant then fills Quantity consecutive
// slots. Every page has exactly slotsPerPage slots, the trailing ones
// empty. Occupants needing zero slots in total yield zero pages.
func Paginate(occupants []Occupant, placeholders, slotsPerPage int) []Page {
	if slotsPerPage < 1 {
		panic(fmt.Sprintf("layout: slotsPerPage must be positive, got %d", slotsPerPage))
	}
	if placeholders < 0 {
		panic(fmt.Sprintf("layout: placeholders must not be negative, got %d", placeholders))
	}
	for _, o := range occupants {
		if o.Quantity < 0 {
			panic(fmt.Sprintf("layout: occupant %q has negative quantity %d", o.Ref, o.Quantity))
		}
	}

	count := PageCount(occupants, placeholders, slotsPerPage)
	if count == 0 {
		return nil
	}

	pages := make([]Page, count)
	for i := range pages {
		pages[i] = Page{Number: i + 1, Slots: make([]Slot, slotsPerPage)}
		for j := range pages[i].Slots {
			pages[i].Slots[j].Index = j
		}
	}

	owned := append([]Occupant(nil), occupants...)
	cursor := placeholders
	for i := range owned {
		o := &owned[i]
		for range o.Quantity {
			pages[cursor/slotsPerPage].Slots[cursor%slotsPerPage].Occupant = o
			cursor++
		}
	}
	return pages
}
