package cli

import (
	"context"
	"fmt"
	"strings"

	"cloudsave/internal/browse"
	"cloudsave/internal/models"
)

// descendPath walks an opened browser down a slash-separated path of folder
// names, e.g. "Shows/Season 1". Empty path is a no-op.
func descendPath(ctx context.Context, b *browse.DirectoryBrowser, path string) error {
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		var target *models.DirectoryEntry
		for _, e := range b.Listing().Folders() {
			if e.Name == segment {
				entry := e
				target = &entry
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no folder named %q in %s", segment, breadcrumbPath(b))
		}
		if err := b.Navigate(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

// breadcrumbPath renders the browser's position for messages.
func breadcrumbPath(b *browse.DirectoryBrowser) string {
	crumbs := b.Breadcrumbs()
	if len(crumbs) == 0 {
		return "/"
	}
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	return "/" + strings.Join(names, "/")
}

// printListing writes a listing to stdout, folders first.
func printListing(listing models.Listing) {
	for _, e := range listing.Folders() {
		fmt.Printf("  [dir]  %-12s %s\n", e.ID, e.Name)
	}
	for _, e := range listing.Files() {
		fmt.Printf("  [file] %-12s %s\n", e.ID, e.Name)
	}
	if len(listing.Entries) == 0 {
		fmt.Println("  (empty)")
	}
}
