package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsave/internal/events"
	"cloudsave/internal/models"
)

// syncProvider serves a share tree and a mutable owned tree, and applies
// saves and folder creation so a run's effects are observable.
type syncProvider struct {
	mu            sync.Mutex
	shareChildren map[string][]models.DirectoryEntry
	ownChildren   map[string][]models.DirectoryEntry
	shareFiles    map[string]string // file id -> name, for applying saves
	nextID        int
	saveBatches   []int
}

func newSyncProvider() *syncProvider {
	return &syncProvider{
		shareChildren: map[string][]models.DirectoryEntry{
			"555": {
				models.Folder("556", "Season 1"),
				models.File("600", "ep01.mp4"),
				models.File("601", "ep02.mp4"),
				models.File("602", "poster.jpg"),
			},
			"556": {
				models.File("610", "s01e01.mp4"),
			},
		},
		ownChildren: map[string][]models.DirectoryEntry{
			"8042": {
				models.File("900", "ep01.mp4"), // already saved
			},
		},
		nextID: 1000,
	}
}

func (p *syncProvider) Kind() string { return "fake" }

func (p *syncProvider) ListChildren(ctx context.Context, dirID string) (*models.Listing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]models.DirectoryEntry, len(p.ownChildren[dirID]))
	copy(entries, p.ownChildren[dirID])
	return &models.Listing{DirectoryID: dirID, Entries: entries}, nil
}

func (p *syncProvider) ListShareChildren(ctx context.Context, share *models.ShareRef, dirID string) (*models.Listing, error) {
	if dirID == "" {
		dirID = share.FileID
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]models.DirectoryEntry, len(p.shareChildren[dirID]))
	copy(entries, p.shareChildren[dirID])
	return &models.Listing{DirectoryID: dirID, Entries: entries}, nil
}

func (p *syncProvider) GetShareInfo(ctx context.Context, shareCode, accessCode string) (*models.ShareRef, error) {
	return &models.ShareRef{ShareID: "777", FileID: "555", ShareMode: "1", AccessCode: accessCode, IsFolder: true}, nil
}

func (p *syncProvider) SaveShareFiles(ctx context.Context, share *models.ShareRef, destDirID string, refs []models.EntryRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveBatches = append(p.saveBatches, len(refs))
	for _, ref := range refs {
		p.nextID++
		p.ownChildren[destDirID] = append(p.ownChildren[destDirID], models.File(fmt.Sprint(p.nextID), ref.Name))
	}
	return nil
}

func (p *syncProvider) CreateFolder(ctx context.Context, parentID, name string) (*models.DirectoryEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	entry := models.Folder(fmt.Sprint(p.nextID), name)
	p.ownChildren[parentID] = append(p.ownChildren[parentID], entry)
	return &entry, nil
}

func (p *syncProvider) Rename(ctx context.Context, ref models.EntryRef, newName string) error {
	return nil
}

func (p *syncProvider) Delete(ctx context.Context, refs []models.EntryRef) error {
	return nil
}

func (p *syncProvider) destNames(dirID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, e := range p.ownChildren[dirID] {
		names = append(names, e.Name)
	}
	return names
}

func TestRunnerSavesOnlyNewFiles(t *testing.T) {
	provider := newSyncProvider()
	runner := NewRunner(provider, nil)

	task := validTask("weekly-show")
	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	// ep01.mp4 already exists at the destination; ep02, poster and the
	// season folder's episode are new
	assert.Equal(t, 3, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.FoldersCreated)

	assert.Contains(t, provider.destNames("8042"), "ep02.mp4")
	assert.Contains(t, provider.destNames("8042"), "Season 1")
	assert.NotContains(t, provider.destNames("8042"), "ep01.mp4 (copy)")
}

func TestRunnerMirrorsFolderTree(t *testing.T) {
	provider := newSyncProvider()
	runner := NewRunner(provider, nil)

	_, err := runner.Run(context.Background(), validTask("weekly-show"))
	require.NoError(t, err)

	// Find the mirrored folder and check its content arrived
	var seasonID string
	for _, e := range provider.ownChildren["8042"] {
		if e.IsFolder() && e.Name == "Season 1" {
			seasonID = e.ID
		}
	}
	require.NotEmpty(t, seasonID, "Season 1 folder was not mirrored")
	assert.Contains(t, provider.destNames(seasonID), "s01e01.mp4")
}

func TestRunnerIsIdempotent(t *testing.T) {
	provider := newSyncProvider()
	runner := NewRunner(provider, nil)

	_, err := runner.Run(context.Background(), validTask("weekly-show"))
	require.NoError(t, err)

	second, err := runner.Run(context.Background(), validTask("weekly-show"))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Saved)
	assert.Equal(t, 0, second.FoldersCreated)
}

func TestRunnerNameFilters(t *testing.T) {
	provider := newSyncProvider()
	runner := NewRunner(provider, nil)

	task := validTask("weekly-show")
	task.NameFilters = []string{`\.mp4$`}

	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	assert.NotContains(t, provider.destNames("8042"), "poster.jpg")
	assert.Equal(t, 2, result.Saved) // ep02.mp4 + s01e01.mp4
}

func TestRunnerIgnoreExtension(t *testing.T) {
	provider := newSyncProvider()
	provider.mu.Lock()
	provider.ownChildren["8042"] = []models.DirectoryEntry{
		models.File("900", "ep01.mkv"),
		models.File("901", "ep02.mkv"),
	}
	provider.mu.Unlock()

	runner := NewRunner(provider, nil)

	task := validTask("weekly-show")
	task.IgnoreExtension = true

	result, err := runner.Run(context.Background(), task)
	require.NoError(t, err)

	// ep01.mp4 and ep02.mp4 both count as present despite the different
	// container format
	assert.NotContains(t, provider.destNames("8042"), "ep01.mp4")
	assert.NotContains(t, provider.destNames("8042"), "ep02.mp4")
	assert.Equal(t, 2, result.Skipped)
}

func TestRunnerPublishesCommitEvents(t *testing.T) {
	provider := newSyncProvider()
	bus := events.NewEventBus(10)
	commits := bus.Subscribe(events.EventTransferCommit)

	runner := NewRunner(provider, bus)
	_, err := runner.Run(context.Background(), validTask("weekly-show"))
	require.NoError(t, err)
	bus.Close()

	// One commit event per directory batch: the share root and Season 1
	var counts []int
	for ev := range commits {
		commit, ok := ev.(*events.TransferCommitEvent)
		require.True(t, ok)
		require.NoError(t, commit.Err)
		counts = append(counts, commit.FileCount)
	}
	assert.Equal(t, []int{2, 1}, counts)
}

func TestRunnerCancelledContext(t *testing.T) {
	provider := newSyncProvider()
	runner := NewRunner(provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, validTask("weekly-show"))
	assert.ErrorIs(t, err, context.Canceled)
}
