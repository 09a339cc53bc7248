// Package state provides the in-memory navigation state containers for
// cloudsave. PathStack tracks the breadcrumb of a single browsing context;
// SelectionSet stages per-file choices inside the current listing.
package state

import (
	"cloudsave/internal/models"
)

// PathStack is the ordered breadcrumb of folders the user descended into,
// root-first. The tree root is represented by an empty stack. Each stack is
// exclusively owned by one DirectoryBrowser and is never shared.
//
// Invariant: entry ids are unique within the stack, and each element was a
// listed child of its predecessor at the time of descent.
type PathStack struct {
	entries []models.DirectoryEntry
}

// NewPathStack returns an empty stack positioned at the root.
func NewPathStack() *PathStack {
	return &PathStack{}
}

// DescendOrJump mutates the stack for a navigation to entry.
//
// A nil entry resets to the root. An entry whose id is not on the stack is
// appended (descend). An entry whose id is already present truncates the
// stack to end at that entry (breadcrumb jump) - it is never pushed twice.
// Non-folder entries are ignored.
func (p *PathStack) DescendOrJump(entry *models.DirectoryEntry) {
	if entry == nil {
		p.entries = p.entries[:0]
		return
	}
	if !entry.IsFolder() {
		return
	}
	for i, e := range p.entries {
		if e.ID == entry.ID {
			p.entries = p.entries[:i+1]
			return
		}
	}
	p.entries = append(p.entries, *entry)
}

// Current returns the top of the stack, or ok=false at the root.
func (p *PathStack) Current() (models.DirectoryEntry, bool) {
	if len(p.entries) == 0 {
		return models.DirectoryEntry{}, false
	}
	return p.entries[len(p.entries)-1], true
}

// CurrentID returns the top entry id, or the empty string at the root.
// Callers map the empty id to their provider's root id.
func (p *PathStack) CurrentID() string {
	if cur, ok := p.Current(); ok {
		return cur.ID
	}
	return ""
}

// Breadcrumbs returns a read-only copy of the stack, root-first.
func (p *PathStack) Breadcrumbs() []models.DirectoryEntry {
	out := make([]models.DirectoryEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Depth returns the number of folders below the root.
func (p *PathStack) Depth() int {
	return len(p.entries)
}

// AtRoot reports whether the stack is positioned at the tree root.
func (p *PathStack) AtRoot() bool {
	return len(p.entries) == 0
}
