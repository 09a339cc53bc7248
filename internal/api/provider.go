package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cloudsave/internal/config"
	"cloudsave/internal/models"
)

// Provider is the remote directory surface cloudsave navigates. One
// implementation exists per cloud-drive vendor; the rest of the code never
// names a concrete vendor.
type Provider interface {
	// Kind returns the provider kind string used in configuration.
	Kind() string

	// ListChildren returns the children of an owned directory. dirID is the
	// provider's root id for the tree root.
	ListChildren(ctx context.Context, dirID string) (*models.Listing, error)

	// ListShareChildren returns the children of a directory inside a share.
	// dirID empty means the shared root itself.
	ListShareChildren(ctx context.Context, share *models.ShareRef, dirID string) (*models.Listing, error)

	// GetShareInfo resolves a share code (plus optional access code) into a
	// ShareRef usable for listing and saving.
	GetShareInfo(ctx context.Context, shareCode, accessCode string) (*models.ShareRef, error)

	// SaveShareFiles copies entries from a share into an owned destination
	// directory. The provider performs the copy server side.
	SaveShareFiles(ctx context.Context, share *models.ShareRef, destDirID string, refs []models.EntryRef) error

	// CreateFolder creates a child folder and returns the new entry.
	CreateFolder(ctx context.Context, parentID, name string) (*models.DirectoryEntry, error)

	// Rename changes an entry's display name.
	Rename(ctx context.Context, ref models.EntryRef, newName string) error

	// Delete removes entries. Folder deletion is recursive on the provider
	// side.
	Delete(ctx context.Context, refs []models.EntryRef) error
}

// Factory builds a provider from configuration.
type Factory func(cfg *config.Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// RegisterProvider registers a factory for a provider kind. Called from the
// implementation's init.
func RegisterProvider(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(kind)] = factory
}

// NewProvider builds the provider named by cfg.ProviderKind. Unknown kinds
// return ErrUnsupportedProvider with the known kinds listed.
func NewProvider(cfg *config.Config) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(cfg.ProviderKind)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)",
			ErrUnsupportedProvider, cfg.ProviderKind, strings.Join(RegisteredKinds(), ", "))
	}
	return factory(cfg)
}

// RegisteredKinds returns the registered provider kinds, sorted.
func RegisteredKinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
