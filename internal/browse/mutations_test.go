package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cloudsave/internal/api"
	"cloudsave/internal/models"
)

// fakeProvider is an in-memory api.Provider over a mutable owned tree.
type fakeProvider struct {
	mu       sync.Mutex
	children map[string][]models.DirectoryEntry // keyed by parent id, "" is root
	nextID   int
	failNext error
	calls    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		children: map[string][]models.DirectoryEntry{
			"": {
				models.Folder("A", "Shows"),
				models.File("f1", "readme.txt"),
			},
			"A": {
				models.File("f2", "ep01.mp4"),
			},
		},
		nextID: 1000,
	}
}

func (p *fakeProvider) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return err
	}
	return nil
}

func (p *fakeProvider) Kind() string { return "fake" }

func (p *fakeProvider) ListChildren(ctx context.Context, dirID string) (*models.Listing, error) {
	if err := p.record("list:" + dirID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]models.DirectoryEntry, len(p.children[dirID]))
	copy(entries, p.children[dirID])
	return &models.Listing{DirectoryID: dirID, Entries: entries}, nil
}

func (p *fakeProvider) ListShareChildren(ctx context.Context, share *models.ShareRef, dirID string) (*models.Listing, error) {
	return nil, errors.New("not a share provider")
}

func (p *fakeProvider) GetShareInfo(ctx context.Context, shareCode, accessCode string) (*models.ShareRef, error) {
	return nil, errors.New("not a share provider")
}

func (p *fakeProvider) SaveShareFiles(ctx context.Context, share *models.ShareRef, destDirID string, refs []models.EntryRef) error {
	return errors.New("not a share provider")
}

func (p *fakeProvider) CreateFolder(ctx context.Context, parentID, name string) (*models.DirectoryEntry, error) {
	if err := p.record("create:" + name); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	entry := models.Folder(fmt.Sprint(p.nextID), name)
	p.children[parentID] = append([]models.DirectoryEntry{entry}, p.children[parentID]...)
	return &entry, nil
}

func (p *fakeProvider) Rename(ctx context.Context, ref models.EntryRef, newName string) error {
	if err := p.record("rename:" + ref.ID); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for dir, entries := range p.children {
		for i, e := range entries {
			if e.ID == ref.ID {
				p.children[dir][i].Name = newName
				return nil
			}
		}
	}
	return errors.New("not found")
}

func (p *fakeProvider) Delete(ctx context.Context, refs []models.EntryRef) error {
	if err := p.record(fmt.Sprintf("delete:%d", len(refs))); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	doomed := make(map[string]bool, len(refs))
	for _, r := range refs {
		doomed[r.ID] = true
	}
	for dir, entries := range p.children {
		kept := entries[:0]
		for _, e := range entries {
			if !doomed[e.ID] {
				kept = append(kept, e)
			}
		}
		p.children[dir] = kept
	}
	return nil
}

func newMutationFixture(t *testing.T) (*fakeProvider, *DirectoryBrowser, *MutationCoordinator) {
	t.Helper()
	provider := newFakeProvider()
	browser := NewOwnedBrowser(provider, "destination", nil)
	if err := browser.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	coord := NewMutationCoordinator(provider, browser, nil)
	return provider, browser, coord
}

func TestCreateFolderRefreshesListing(t *testing.T) {
	_, browser, coord := newMutationFixture(t)

	if err := coord.CreateFolder(context.Background(), "New Season"); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	listing := browser.Listing()
	found := false
	for _, e := range listing.Entries {
		if e.Name == "New Season" && e.IsFolder() {
			found = true
		}
	}
	if !found {
		t.Errorf("new folder missing from refreshed listing: %+v", listing.Entries)
	}
	if browser.IsBusy() {
		t.Error("busy flag not released")
	}
}

func TestCreateFolderInSubfolderRefreshesThatListing(t *testing.T) {
	_, browser, coord := newMutationFixture(t)
	ctx := context.Background()

	a := models.Folder("A", "Shows")
	if err := browser.Navigate(ctx, &a); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := coord.CreateFolder(ctx, "Specials"); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	// Position is preserved and the refresh lists the folder we were in,
	// not the root
	if browser.CurrentID() != "A" {
		t.Errorf("position moved to %q, want A", browser.CurrentID())
	}
	crumbs := browser.Breadcrumbs()
	if len(crumbs) != 1 || crumbs[0].ID != "A" {
		t.Errorf("breadcrumbs = %+v", crumbs)
	}

	listing := browser.Listing()
	if listing.DirectoryID != "A" {
		t.Errorf("refreshed listing is for %q, want A", listing.DirectoryID)
	}
	found := false
	for _, e := range listing.Entries {
		if e.Name == "Specials" && e.IsFolder() {
			found = true
		}
	}
	if !found {
		t.Errorf("new folder missing from refreshed listing: %+v", listing.Entries)
	}
}

func TestCreateFolderEmptyNameNeverHitsProvider(t *testing.T) {
	provider, _, coord := newMutationFixture(t)
	callsBefore := len(provider.calls)

	err := coord.CreateFolder(context.Background(), "  ")
	if !api.IsValidationError(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if len(provider.calls) != callsBefore {
		t.Error("invalid name must be rejected before any provider call")
	}
}

func TestRename(t *testing.T) {
	_, browser, coord := newMutationFixture(t)

	if err := coord.Rename(context.Background(), "A", "Archive"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	entry, ok := browser.Listing().FindByID("A")
	if !ok || entry.Name != "Archive" {
		t.Errorf("entry after rename = %+v, ok=%v", entry, ok)
	}
}

func TestRenameUnknownEntry(t *testing.T) {
	_, _, coord := newMutationFixture(t)

	err := coord.Rename(context.Background(), "nope", "x")
	if !errors.Is(err, ErrEntryNotListed) {
		t.Errorf("err = %v, want ErrEntryNotListed", err)
	}
}

func TestDelete(t *testing.T) {
	_, browser, coord := newMutationFixture(t)

	if err := coord.Delete(context.Background(), []string{"f1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := browser.Listing().FindByID("f1"); ok {
		t.Error("deleted entry still listed")
	}
}

func TestMutationFailureLeavesListingIntact(t *testing.T) {
	provider, browser, coord := newMutationFixture(t)
	before := browser.Listing()

	provider.mu.Lock()
	provider.failNext = errors.New("quota exceeded")
	provider.mu.Unlock()

	if err := coord.CreateFolder(context.Background(), "Doomed"); err == nil {
		t.Fatal("expected error")
	}

	after := browser.Listing()
	if len(after.Entries) != len(before.Entries) {
		t.Errorf("listing changed on failed mutation: %d -> %d entries", len(before.Entries), len(after.Entries))
	}
	if browser.IsBusy() {
		t.Error("busy flag not released after failure")
	}
}
