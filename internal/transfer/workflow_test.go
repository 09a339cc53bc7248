package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsave/internal/api"
	"cloudsave/internal/browse"
	"cloudsave/internal/models"
)

// saveProvider serves a share tree and an owned tree, and records saves.
type saveProvider struct {
	mu            sync.Mutex
	shareChildren map[string][]models.DirectoryEntry // keyed by dir id; share root under its FileID
	ownChildren   map[string][]models.DirectoryEntry // keyed by dir id; "" is root
	savedDest     string
	savedRefs     []models.EntryRef
	saveCalls     int
	failSave      error
}

func newSaveProvider() *saveProvider {
	return &saveProvider{
		shareChildren: map[string][]models.DirectoryEntry{
			"555": {
				models.Folder("556", "Season 1"),
				models.File("600", "ep01.mp4"),
				models.File("601", "ep02.mp4"),
			},
			"556": {
				models.File("610", "ep01.extended.mp4"),
			},
		},
		ownChildren: map[string][]models.DirectoryEntry{
			"": {
				models.Folder("8042", "Saved Shows"),
			},
			"8042": {},
		},
	}
}

func (p *saveProvider) Kind() string { return "fake" }

func (p *saveProvider) ListChildren(ctx context.Context, dirID string) (*models.Listing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]models.DirectoryEntry, len(p.ownChildren[dirID]))
	copy(entries, p.ownChildren[dirID])
	return &models.Listing{DirectoryID: dirID, Entries: entries}, nil
}

func (p *saveProvider) ListShareChildren(ctx context.Context, share *models.ShareRef, dirID string) (*models.Listing, error) {
	if dirID == "" {
		dirID = share.FileID
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]models.DirectoryEntry, len(p.shareChildren[dirID]))
	copy(entries, p.shareChildren[dirID])
	return &models.Listing{DirectoryID: dirID, Entries: entries}, nil
}

func (p *saveProvider) GetShareInfo(ctx context.Context, shareCode, accessCode string) (*models.ShareRef, error) {
	return &models.ShareRef{ShareID: "777", FileID: "555", ShareMode: "1", IsFolder: true}, nil
}

func (p *saveProvider) SaveShareFiles(ctx context.Context, share *models.ShareRef, destDirID string, refs []models.EntryRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveCalls++
	if p.failSave != nil {
		err := p.failSave
		p.failSave = nil
		return err
	}
	p.savedDest = destDirID
	p.savedRefs = refs
	return nil
}

func (p *saveProvider) CreateFolder(ctx context.Context, parentID, name string) (*models.DirectoryEntry, error) {
	return nil, errors.New("not supported")
}

func (p *saveProvider) Rename(ctx context.Context, ref models.EntryRef, newName string) error {
	return errors.New("not supported")
}

func (p *saveProvider) Delete(ctx context.Context, refs []models.EntryRef) error {
	return errors.New("not supported")
}

func newWorkflowFixture(t *testing.T) (*saveProvider, *Workflow) {
	t.Helper()
	provider := newSaveProvider()
	share := &models.ShareRef{ShareID: "777", FileID: "555", ShareMode: "1", IsFolder: true}
	source := browse.NewShareBrowser(provider, share, "source", nil)
	dest := browse.NewOwnedBrowser(provider, "destination", nil)
	return provider, NewWorkflow(provider, share, source, dest, nil)
}

func TestWorkflowFullSave(t *testing.T) {
	provider, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	assert.Equal(t, StepBrowsingSource, wf.Step())
	require.Len(t, wf.Source().Listing().Entries, 3)

	// Stage two entries
	require.NoError(t, wf.Source().Toggle("600"))
	require.NoError(t, wf.Source().Toggle("601"))

	require.NoError(t, wf.Advance(ctx))
	assert.Equal(t, StepBrowsingDestination, wf.Step())

	// Descend into the destination folder
	target := models.Folder("8042", "Saved Shows")
	require.NoError(t, wf.Dest().Navigate(ctx, &target))

	require.NoError(t, wf.Commit(ctx))
	assert.Equal(t, StepDone, wf.Step())

	assert.Equal(t, "8042", provider.savedDest)
	require.Len(t, provider.savedRefs, 2)
	assert.Equal(t, "600", provider.savedRefs[0].ID)
	assert.Equal(t, "ep01.mp4", provider.savedRefs[0].Name)
	assert.False(t, provider.savedRefs[0].IsFolder)

	// A finished workflow cannot be reused
	assert.ErrorIs(t, wf.Commit(ctx), ErrWorkflowDone)
	assert.ErrorIs(t, wf.Advance(ctx), ErrWorkflowDone)
	assert.ErrorIs(t, wf.Activate(ctx), ErrWorkflowDone)
}

func TestWorkflowSelectNoneMeansAll(t *testing.T) {
	provider, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	require.NoError(t, wf.Advance(ctx))
	require.NoError(t, wf.Commit(ctx))

	// Nothing was staged, so the whole source listing is saved,
	// folders included
	require.Len(t, provider.savedRefs, 3)
	assert.Equal(t, "556", provider.savedRefs[0].ID)
	assert.True(t, provider.savedRefs[0].IsFolder)
}

func TestWorkflowBackPreservesBothPositions(t *testing.T) {
	_, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	require.NoError(t, wf.Source().Toggle("600"))
	require.NoError(t, wf.Advance(ctx))

	target := models.Folder("8042", "Saved Shows")
	require.NoError(t, wf.Dest().Navigate(ctx, &target))

	require.NoError(t, wf.Back())
	assert.Equal(t, StepBrowsingSource, wf.Step())

	// Source selection survived the round trip
	assert.True(t, wf.Source().IsSelected("600"))

	// Destination keeps its position; re-advancing must not reload the root
	require.NoError(t, wf.Advance(ctx))
	assert.Equal(t, "8042", wf.Dest().CurrentID())
}

func TestWorkflowAdvanceFromDestinationRejected(t *testing.T) {
	_, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	require.NoError(t, wf.Advance(ctx))

	assert.ErrorIs(t, wf.Advance(ctx), ErrWrongStep)

	// The step transitions stay symmetric: Back, then Advance again
	require.NoError(t, wf.Back())
	require.NoError(t, wf.Advance(ctx))
	assert.Equal(t, StepBrowsingDestination, wf.Step())
}

func TestWorkflowCommitFromSourceRejected(t *testing.T) {
	_, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	assert.ErrorIs(t, wf.Commit(ctx), ErrWrongStep)
	assert.ErrorIs(t, wf.Back(), ErrWrongStep)
}

func TestWorkflowCommitFailureIsRetryable(t *testing.T) {
	provider, wf := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, wf.Activate(ctx))
	require.NoError(t, wf.Source().Toggle("600"))
	require.NoError(t, wf.Advance(ctx))

	provider.mu.Lock()
	provider.failSave = errors.New("quota exceeded")
	provider.mu.Unlock()

	err := wf.Commit(ctx)
	require.Error(t, err)
	assert.Equal(t, StepBrowsingDestination, wf.Step())

	// Selection is still staged; retry succeeds and finishes the workflow
	require.NoError(t, wf.Commit(ctx))
	assert.Equal(t, StepDone, wf.Step())
	assert.Equal(t, 2, provider.saveCalls)
	require.Len(t, provider.savedRefs, 1)
	assert.Equal(t, "600", provider.savedRefs[0].ID)
}

func TestWorkflowCommitEmptySourceDirectory(t *testing.T) {
	provider, wf := newWorkflowFixture(t)
	provider.mu.Lock()
	provider.shareChildren["555"] = nil
	provider.mu.Unlock()

	ctx := context.Background()
	require.NoError(t, wf.Activate(ctx))
	require.NoError(t, wf.Advance(ctx))

	err := wf.Commit(ctx)
	require.Error(t, err)
	assert.True(t, api.IsValidationError(err))
	assert.Equal(t, 0, provider.saveCalls)
}
