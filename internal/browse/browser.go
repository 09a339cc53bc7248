// Package browse implements directory navigation over a provider tree: one
// DirectoryBrowser per browsing context, each owning its breadcrumb stack,
// listing snapshot and staged selection.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloudsave/internal/api"
	"cloudsave/internal/events"
	"cloudsave/internal/logging"
	"cloudsave/internal/models"
	"cloudsave/internal/state"
)

// ErrBrowserBusy is returned when a navigation or mutation is requested
// while another one is still in flight.
var ErrBrowserBusy = errors.New("browser is busy")

// ErrEntryNotListed is returned when an operation references an entry id
// that is not part of the current listing snapshot.
var ErrEntryNotListed = errors.New("entry not in current listing")

// Lister fetches one directory's children. The empty dirID means the root of
// the tree being browsed.
type Lister interface {
	List(ctx context.Context, dirID string) (*models.Listing, error)
}

// ownedLister lists the user's own tree.
type ownedLister struct {
	provider api.Provider
}

func (l ownedLister) List(ctx context.Context, dirID string) (*models.Listing, error) {
	return l.provider.ListChildren(ctx, dirID)
}

// shareLister lists inside a resolved share.
type shareLister struct {
	provider api.Provider
	share    *models.ShareRef
}

func (l shareLister) List(ctx context.Context, dirID string) (*models.Listing, error) {
	return l.provider.ListShareChildren(ctx, l.share, dirID)
}

// DirectoryBrowser navigates one tree. All state transitions happen under a
// single lock; at most one remote call is in flight per browser.
//
// On a failed listing call the previous position and snapshot are kept, so
// the caller can retry or navigate elsewhere.
type DirectoryBrowser struct {
	mu         sync.RWMutex
	scope      string
	lister     Lister
	stack      *state.PathStack
	selection  *state.SelectionSet
	listing    models.Listing
	busy       bool
	generation uint64
	opened     bool

	bus *events.EventBus
	log *logging.Logger
}

// NewOwnedBrowser creates a browser over the user's own tree. scope labels
// the browser in published events ("source" or "destination").
func NewOwnedBrowser(provider api.Provider, scope string, bus *events.EventBus) *DirectoryBrowser {
	return newBrowser(ownedLister{provider: provider}, scope, bus)
}

// NewShareBrowser creates a browser over a resolved share.
func NewShareBrowser(provider api.Provider, share *models.ShareRef, scope string, bus *events.EventBus) *DirectoryBrowser {
	return newBrowser(shareLister{provider: provider, share: share}, scope, bus)
}

// NewBrowser creates a browser over an arbitrary Lister. Used by tests and
// by callers with a pre-wrapped listing source.
func NewBrowser(lister Lister, scope string, bus *events.EventBus) *DirectoryBrowser {
	return newBrowser(lister, scope, bus)
}

func newBrowser(lister Lister, scope string, bus *events.EventBus) *DirectoryBrowser {
	return &DirectoryBrowser{
		scope:     scope,
		lister:    lister,
		stack:     state.NewPathStack(),
		selection: state.NewSelectionSet(),
		bus:       bus,
		log:       logging.NewLogger("browse"),
	}
}

// Scope returns the browser's event scope label.
func (b *DirectoryBrowser) Scope() string { return b.scope }

// Opened reports whether the root listing has been loaded at least once.
func (b *DirectoryBrowser) Opened() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opened
}

// IsBusy reports whether a remote call is in flight.
func (b *DirectoryBrowser) IsBusy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.busy
}

// Listing returns a copy of the current snapshot.
func (b *DirectoryBrowser) Listing() models.Listing {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]models.DirectoryEntry, len(b.listing.Entries))
	copy(entries, b.listing.Entries)
	return models.Listing{DirectoryID: b.listing.DirectoryID, Entries: entries}
}

// Breadcrumbs returns the breadcrumb trail, root-first.
func (b *DirectoryBrowser) Breadcrumbs() []models.DirectoryEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stack.Breadcrumbs()
}

// CurrentID returns the current directory id, empty at the root.
func (b *DirectoryBrowser) CurrentID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stack.CurrentID()
}

// Open resets the browser and loads the root listing. Prior position,
// listing and selection are cleared synchronously, before the remote call is
// issued, so stale data is never visible while the root loads.
func (b *DirectoryBrowser) Open(ctx context.Context) error {
	gen, err := b.begin()
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.stack.DescendOrJump(nil)
	b.listing = models.Listing{}
	b.selection.Clear()
	b.mu.Unlock()

	b.publish(events.NewListingLoading(b.scope, "", true))
	listing, fetchErr := b.lister.List(ctx, "")
	b.publish(events.NewListingLoading(b.scope, "", false))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false

	if b.generation != gen {
		return nil
	}

	if fetchErr != nil {
		b.log.Error().Str("scope", b.scope).Err(fetchErr).Msg("open failed")
		b.publish(events.NewListingError(b.scope, "", fetchErr))
		return fmt.Errorf("failed to open root: %w", fetchErr)
	}

	b.listing = *listing
	b.opened = true

	b.publish(events.NewListingChanged(b.scope, listing.DirectoryID, listing.Entries))
	b.publish(events.NewSelectionChanged(b.scope, nil))
	return nil
}

// Reset clears position, listing and selection without a remote call. The
// next Open loads the root again.
func (b *DirectoryBrowser) Reset() {
	b.mu.Lock()
	b.stack.DescendOrJump(nil)
	b.listing = models.Listing{}
	b.selection.Clear()
	b.opened = false
	b.mu.Unlock()
}

// Navigate moves to a folder: nil resets to the root, a listed folder
// descends, a breadcrumb entry jumps back. Non-folder entries are ignored.
//
// Exactly one navigation runs at a time; concurrent calls get
// ErrBrowserBusy. On failure the previous position and listing stay intact.
func (b *DirectoryBrowser) Navigate(ctx context.Context, entry *models.DirectoryEntry) error {
	if entry != nil && !entry.IsFolder() {
		return nil
	}

	gen, err := b.begin()
	if err != nil {
		return err
	}

	targetID := ""
	if entry != nil {
		targetID = entry.ID
	}

	b.publish(events.NewListingLoading(b.scope, targetID, true))
	listing, fetchErr := b.lister.List(ctx, targetID)
	b.publish(events.NewListingLoading(b.scope, targetID, false))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false

	if b.generation != gen {
		// A newer navigation superseded this one; drop the response.
		b.log.Debug().Str("scope", b.scope).Str("dir", targetID).Msg("discarding stale listing")
		return nil
	}

	if fetchErr != nil {
		b.log.Error().Str("scope", b.scope).Str("dir", targetID).Err(fetchErr).Msg("listing failed")
		b.publish(events.NewListingError(b.scope, targetID, fetchErr))
		return fmt.Errorf("failed to list directory: %w", fetchErr)
	}

	b.stack.DescendOrJump(entry)
	b.listing = *listing
	b.selection.Clear()
	b.opened = true

	b.publish(events.NewListingChanged(b.scope, listing.DirectoryID, listing.Entries))
	b.publish(events.NewSelectionChanged(b.scope, nil))
	return nil
}

// RefreshCurrent reloads the current directory without moving. The
// breadcrumb trail is preserved; the selection is cleared because entry ids
// may no longer exist.
func (b *DirectoryBrowser) RefreshCurrent(ctx context.Context) error {
	gen, err := b.begin()
	if err != nil {
		return err
	}

	dirID := b.CurrentID()

	b.publish(events.NewListingLoading(b.scope, dirID, true))
	listing, fetchErr := b.lister.List(ctx, dirID)
	b.publish(events.NewListingLoading(b.scope, dirID, false))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false

	if b.generation != gen {
		return nil
	}

	if fetchErr != nil {
		b.publish(events.NewListingError(b.scope, dirID, fetchErr))
		return fmt.Errorf("failed to refresh directory: %w", fetchErr)
	}

	b.listing = *listing
	b.selection.Clear()
	b.publish(events.NewListingChanged(b.scope, listing.DirectoryID, listing.Entries))
	b.publish(events.NewSelectionChanged(b.scope, nil))
	return nil
}

// Toggle flips the staged selection of a listed entry.
func (b *DirectoryBrowser) Toggle(id string) error {
	b.mu.Lock()
	entry, ok := b.listing.FindByID(id)
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntryNotListed, id)
	}
	b.selection.Toggle(entry)
	ids := b.selection.SelectedIDs()
	b.mu.Unlock()

	b.publish(events.NewSelectionChanged(b.scope, ids))
	return nil
}

// ClearSelection drops all staged selections, restoring the all-entries
// fallback.
func (b *DirectoryBrowser) ClearSelection() {
	b.mu.Lock()
	b.selection.Clear()
	b.mu.Unlock()

	b.publish(events.NewSelectionChanged(b.scope, nil))
}

// IsSelected reports whether an entry id is staged.
func (b *DirectoryBrowser) IsSelected(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection.IsSelected(id)
}

// SelectionCount returns the number of staged entries.
func (b *DirectoryBrowser) SelectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection.Count()
}

// EffectiveSelection resolves the entries an operation should act on: the
// staged subset, or every listed entry when nothing is staged.
func (b *DirectoryBrowser) EffectiveSelection() []models.DirectoryEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection.ResolveEffective(b.listing)
}

// begin claims the busy flag and bumps the generation. Callers must release
// busy under b.mu when the operation completes.
func (b *DirectoryBrowser) begin() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.busy {
		return 0, ErrBrowserBusy
	}
	b.busy = true
	b.generation++
	return b.generation, nil
}

// endOp releases the busy flag without touching state. Used by the mutation
// coordinator for operations that do not replace the listing themselves.
func (b *DirectoryBrowser) endOp() {
	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

func (b *DirectoryBrowser) publish(ev events.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}
