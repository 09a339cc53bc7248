package browse

import (
	"context"
	"fmt"

	"cloudsave/internal/api"
	"cloudsave/internal/events"
	"cloudsave/internal/logging"
	"cloudsave/internal/models"
	"cloudsave/internal/validation"
)

// MutationCoordinator applies create/rename/delete to the directory a
// browser is positioned at. Mutations share the browser's busy flag with
// navigation, so a mutation and a navigation never race, and every
// successful mutation ends with a refresh of the current listing.
type MutationCoordinator struct {
	provider api.Provider
	browser  *DirectoryBrowser
	bus      *events.EventBus
	log      *logging.Logger
}

// NewMutationCoordinator binds a coordinator to a browser. The browser must
// be over the user's own tree; shares are read-only.
func NewMutationCoordinator(provider api.Provider, browser *DirectoryBrowser, bus *events.EventBus) *MutationCoordinator {
	return &MutationCoordinator{
		provider: provider,
		browser:  browser,
		bus:      bus,
		log:      logging.NewLogger("mutations"),
	}
}

// CreateFolder creates a child folder in the current directory. An invalid
// name fails locally before the busy flag is taken or any network call is
// made.
func (m *MutationCoordinator) CreateFolder(ctx context.Context, name string) error {
	if err := validation.ValidateEntryName(name); err != nil {
		return api.NewValidationError("name", err.Error())
	}

	if _, err := m.browser.begin(); err != nil {
		return err
	}

	parentID := m.browser.CurrentID()
	_, callErr := m.provider.CreateFolder(ctx, parentID, name)
	m.browser.endOp()

	if callErr != nil {
		m.log.Error().Str("name", name).Err(callErr).Msg("create folder failed")
		return fmt.Errorf("failed to create folder: %w", callErr)
	}

	m.publish(events.NewMutationApplied(m.browser.Scope(), "create", parentID, name))
	return m.browser.RefreshCurrent(ctx)
}

// Rename changes the display name of a listed entry.
func (m *MutationCoordinator) Rename(ctx context.Context, id, newName string) error {
	if err := validation.ValidateEntryName(newName); err != nil {
		return api.NewValidationError("name", err.Error())
	}

	entry, ok := m.browser.Listing().FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotListed, id)
	}

	if _, err := m.browser.begin(); err != nil {
		return err
	}

	callErr := m.provider.Rename(ctx, entry.Ref(), newName)
	m.browser.endOp()

	if callErr != nil {
		m.log.Error().Str("id", id).Str("name", newName).Err(callErr).Msg("rename failed")
		return fmt.Errorf("failed to rename: %w", callErr)
	}

	m.publish(events.NewMutationApplied(m.browser.Scope(), "rename", m.browser.CurrentID(), newName))
	return m.browser.RefreshCurrent(ctx)
}

// Delete removes the listed entries with the given ids. Folder deletion is
// recursive on the provider side.
func (m *MutationCoordinator) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return api.NewValidationError("ids", "nothing to delete")
	}

	listing := m.browser.Listing()
	refs := make([]models.EntryRef, 0, len(ids))
	for _, id := range ids {
		entry, ok := listing.FindByID(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrEntryNotListed, id)
		}
		refs = append(refs, entry.Ref())
	}

	if _, err := m.browser.begin(); err != nil {
		return err
	}

	callErr := m.provider.Delete(ctx, refs)
	m.browser.endOp()

	if callErr != nil {
		m.log.Error().Int("count", len(refs)).Err(callErr).Msg("delete failed")
		return fmt.Errorf("failed to delete: %w", callErr)
	}

	m.publish(events.NewMutationApplied(m.browser.Scope(), "delete", m.browser.CurrentID(), ""))
	return m.browser.RefreshCurrent(ctx)
}

func (m *MutationCoordinator) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
