// Package models defines the data types shared across cloudsave.
package models

// EntryKind discriminates folders from files in a directory listing.
type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

// DirectoryEntry is one child of a directory as reported by the provider.
// ID is provider-assigned, unique within its parent and stable across
// listings. Kind never changes once an entry has been surfaced; a rename
// only affects Name.
type DirectoryEntry struct {
	ID   string
	Name string
	Kind EntryKind
}

// IsFolder reports whether the entry can be descended into.
func (e DirectoryEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Folder builds a folder entry.
func Folder(id, name string) DirectoryEntry {
	return DirectoryEntry{ID: id, Name: name, Kind: KindFolder}
}

// File builds a file entry.
func File(id, name string) DirectoryEntry {
	return DirectoryEntry{ID: id, Name: name, Kind: KindFile}
}

// Listing is the snapshot of a directory's children: all folders first in
// provider order, then all files in provider order. Entries carry no
// identity across snapshots beyond their ID.
type Listing struct {
	// DirectoryID is the directory the snapshot belongs to
	// (the provider's root id for the tree root).
	DirectoryID string

	Entries []DirectoryEntry
}

// Folders returns the folder entries of the snapshot.
func (l Listing) Folders() []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.IsFolder() {
			out = append(out, e)
		}
	}
	return out
}

// Files returns the file entries of the snapshot.
func (l Listing) Files() []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if !e.IsFolder() {
			out = append(out, e)
		}
	}
	return out
}

// FindByID locates an entry in the snapshot.
func (l Listing) FindByID(id string) (DirectoryEntry, bool) {
	for _, e := range l.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return DirectoryEntry{}, false
}

// EntryRef is the wire reference the mutation and commit-copy calls take:
// `{fileId, fileName, isFolder}` on the provider side.
type EntryRef struct {
	ID       string `json:"fileId"`
	Name     string `json:"fileName"`
	IsFolder bool   `json:"isFolder"`
}

// Ref converts an entry to its wire reference.
func (e DirectoryEntry) Ref() EntryRef {
	return EntryRef{ID: e.ID, Name: e.Name, IsFolder: e.IsFolder()}
}

// Refs converts a set of entries to wire references, preserving order.
func Refs(entries []DirectoryEntry) []EntryRef {
	refs := make([]EntryRef, len(entries))
	for i, e := range entries {
		refs[i] = e.Ref()
	}
	return refs
}

// ShareRef identifies a publicly shared folder tree. It is used in place of
// an owned directory id when browsing a shared source.
type ShareRef struct {
	// ShareID is the provider-side identifier resolved from the share code.
	ShareID string

	// FileID is the shared root directory inside the share.
	FileID string

	// ShareMode as reported by the provider ("1" for public shares).
	ShareMode string

	// AccessCode protects private shares; empty for open ones.
	AccessCode string

	// IsFolder is the provider's folder flag for the shared root.
	IsFolder bool
}
