package tasks

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"cloudsave/internal/api"
	"cloudsave/internal/events"
	"cloudsave/internal/logging"
	"cloudsave/internal/models"
)

// Result summarizes one task run.
type Result struct {
	Saved          int
	Skipped        int
	FoldersCreated int
}

// Runner replays a save task against the provider: it mirrors the share's
// folder structure under the task's target directory and saves every file
// that is not already there.
type Runner struct {
	provider api.Provider
	bus      *events.EventBus
	log      *logging.Logger
}

// NewRunner builds a runner over a provider.
func NewRunner(provider api.Provider, bus *events.EventBus) *Runner {
	return &Runner{
		provider: provider,
		bus:      bus,
		log:      logging.NewLogger("tasks"),
	}
}

// Run executes one task. Files already present in the destination are
// skipped; with IgnoreExtension set, "ep01.mp4" counts as present when
// "ep01.mkv" exists. Name filters, when set, must match for a file to be
// saved.
func (r *Runner) Run(ctx context.Context, task Task) (*Result, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	filters, err := compileFilters(task.NameFilters)
	if err != nil {
		return nil, err
	}

	shareCode, accessCode, err := api.ParseShareLink(task.ShareLink)
	if err != nil {
		return nil, err
	}
	if task.AccessCode != "" {
		accessCode = task.AccessCode
	}

	share, err := r.provider.GetShareInfo(ctx, shareCode, accessCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share: %w", err)
	}

	r.log.Info().Str("task", task.Name).Str("share", share.ShareID).Msg("task run started")

	result := &Result{}
	if err := r.syncDir(ctx, task, share, "", task.TargetDirID, filters, result); err != nil {
		return result, err
	}

	r.log.Info().Str("task", task.Name).
		Int("saved", result.Saved).
		Int("skipped", result.Skipped).
		Int("folders_created", result.FoldersCreated).
		Msg("task run finished")
	return result, nil
}

// syncDir mirrors one share directory into one destination directory, then
// recurses into subfolders. shareDirID empty means the shared root.
func (r *Runner) syncDir(ctx context.Context, task Task, share *models.ShareRef, shareDirID, destDirID string, filters []*regexp.Regexp, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	shareListing, err := r.provider.ListShareChildren(ctx, share, shareDirID)
	if err != nil {
		return fmt.Errorf("failed to list share directory: %w", err)
	}

	destListing, err := r.provider.ListChildren(ctx, destDirID)
	if err != nil {
		return fmt.Errorf("failed to list destination directory: %w", err)
	}

	existing := existingNames(destListing, task.IgnoreExtension)

	// Save the new files of this directory in one batch
	var newFiles []models.EntryRef
	for _, e := range shareListing.Files() {
		if !matchesFilters(filters, e.Name) {
			result.Skipped++
			continue
		}
		if existing[normalizeName(e.Name, task.IgnoreExtension)] {
			result.Skipped++
			continue
		}
		newFiles = append(newFiles, e.Ref())
	}

	if len(newFiles) > 0 {
		err := r.provider.SaveShareFiles(ctx, share, destDirID, newFiles)
		r.publish(events.NewTransferCommit(destDirID, len(newFiles), err))
		if err != nil {
			return fmt.Errorf("failed to save files: %w", err)
		}
		result.Saved += len(newFiles)
	}

	// Mirror subfolders and recurse
	for _, folder := range shareListing.Folders() {
		destSub, ok := findFolderByName(destListing, folder.Name)
		if !ok {
			created, err := r.provider.CreateFolder(ctx, destDirID, folder.Name)
			if err != nil {
				return fmt.Errorf("failed to mirror folder %q: %w", folder.Name, err)
			}
			destSub = *created
			result.FoldersCreated++
		}
		if err := r.syncDir(ctx, task, share, folder.ID, destSub.ID, filters, result); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) publish(ev events.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

func compileFilters(patterns []string) ([]*regexp.Regexp, error) {
	filters := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid name filter %q: %w", p, err)
		}
		filters = append(filters, re)
	}
	return filters, nil
}

// matchesFilters reports whether a file name passes the task's filters.
// No filters means everything passes.
func matchesFilters(filters []*regexp.Regexp, name string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, re := range filters {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func normalizeName(name string, ignoreExt bool) string {
	name = strings.ToLower(name)
	if ignoreExt {
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	return name
}

func existingNames(listing *models.Listing, ignoreExt bool) map[string]bool {
	names := make(map[string]bool, len(listing.Entries))
	for _, e := range listing.Files() {
		names[normalizeName(e.Name, ignoreExt)] = true
	}
	return names
}

func findFolderByName(listing *models.Listing, name string) (models.DirectoryEntry, bool) {
	for _, e := range listing.Folders() {
		if e.Name == name {
			return e, true
		}
	}
	return models.DirectoryEntry{}, false
}
