package state

import (
	"cloudsave/internal/models"
)

// SelectionSet stages the entries chosen inside the current listing
// snapshot, keyed by entry id. It is cleared on every navigation by the
// owning browser.
type SelectionSet struct {
	selected map[string]bool
}

// NewSelectionSet returns an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{selected: make(map[string]bool)}
}

// Toggle flips the selection state of an entry.
func (s *SelectionSet) Toggle(entry models.DirectoryEntry) {
	if s.selected[entry.ID] {
		delete(s.selected, entry.ID)
	} else {
		s.selected[entry.ID] = true
	}
}

// Clear drops all selections.
func (s *SelectionSet) Clear() {
	s.selected = make(map[string]bool)
}

// IsSelected reports whether the entry id is staged.
func (s *SelectionSet) IsSelected(id string) bool {
	return s.selected[id]
}

// Count returns the number of staged entries.
func (s *SelectionSet) Count() int {
	return len(s.selected)
}

// SelectedIDs returns the staged ids in listing-independent order.
func (s *SelectionSet) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	return ids
}

// ResolveEffective returns the staged subset of the listing, or the whole
// listing when nothing is staged. This is the single place the
// "select none = select all" fallback is decided; callers must not
// reimplement it. Order follows the listing snapshot.
func (s *SelectionSet) ResolveEffective(listing models.Listing) []models.DirectoryEntry {
	if len(s.selected) == 0 {
		out := make([]models.DirectoryEntry, len(listing.Entries))
		copy(out, listing.Entries)
		return out
	}
	out := make([]models.DirectoryEntry, 0, len(s.selected))
	for _, e := range listing.Entries {
		if s.selected[e.ID] {
			out = append(out, e)
		}
	}
	return out
}
