package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/browse"
	"cloudsave/internal/models"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (create, rename, delete)",
		Long:  `Commands for changing your own tree. Shares are read-only.`,
	}

	foldersCmd.AddCommand(newFoldersCreateCmd())
	foldersCmd.AddCommand(newFoldersRenameCmd())
	foldersCmd.AddCommand(newFoldersDeleteCmd())

	return foldersCmd
}

// openAt opens an owned browser, walks it to path and pairs it with a
// mutation coordinator.
func openAt(path string) (*browse.DirectoryBrowser, *browse.MutationCoordinator, error) {
	provider, _, err := newProvider()
	if err != nil {
		return nil, nil, err
	}

	ctx := GetContext()
	browser := browse.NewOwnedBrowser(provider, "destination", nil)
	if err := browser.Open(ctx); err != nil {
		return nil, nil, err
	}
	if err := descendPath(ctx, browser, path); err != nil {
		return nil, nil, err
	}

	return browser, browse.NewMutationCoordinator(provider, browser, nil), nil
}

// findByName locates a listed entry by display name.
func findByName(browser *browse.DirectoryBrowser, name string) (models.DirectoryEntry, error) {
	for _, e := range browser.Listing().Entries {
		if e.Name == name {
			return e, nil
		}
	}
	return models.DirectoryEntry{}, fmt.Errorf("no entry named %q in %s", name, breadcrumbPath(browser))
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var name string
	var path string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new folder",
		Long: `Create a new folder in your tree.

Example:
  # Create folder in the root
  cloudsave folders create --name "Saved Shows"

  # Create a subfolder
  cloudsave folders create --name "Season 2" --path "Saved Shows"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			browser, coord, err := openAt(path)
			if err != nil {
				return err
			}

			if err := coord.CreateFolder(GetContext(), name); err != nil {
				return err
			}

			logger.Info().Str("name", name).Str("in", breadcrumbPath(browser)).Msg("Folder created")
			fmt.Printf("Created %q in %s\n", name, breadcrumbPath(browser))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Folder name (required)")
	cmd.Flags().StringVar(&path, "path", "", "Parent folder path (default: root)")

	cmd.MarkFlagRequired("name")

	return cmd
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	var path string
	var from string
	var to string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a file or folder",
		Long: `Rename an entry in your tree.

Example:
  cloudsave folders rename --path "Saved Shows" --from "Season 2" --to "S02"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, coord, err := openAt(path)
			if err != nil {
				return err
			}

			entry, err := findByName(browser, from)
			if err != nil {
				return err
			}

			if err := coord.Rename(GetContext(), entry.ID, to); err != nil {
				return err
			}

			fmt.Printf("Renamed %q to %q\n", from, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Parent folder path (default: root)")
	cmd.Flags().StringVar(&from, "from", "", "Current entry name (required)")
	cmd.Flags().StringVar(&to, "to", "", "New name (required)")

	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

// newFoldersDeleteCmd creates the 'folders delete' command.
func newFoldersDeleteCmd() *cobra.Command {
	var path string
	var names []string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete files or folders",
		Long: `Delete entries from your tree. Folder deletion is recursive.

Example:
  cloudsave folders delete --path "Saved Shows" --name "Season 2" --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}

			browser, coord, err := openAt(path)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(names))
			for _, n := range names {
				entry, err := findByName(browser, n)
				if err != nil {
					return err
				}
				ids = append(ids, entry.ID)
			}

			if err := coord.Delete(GetContext(), ids); err != nil {
				return err
			}

			fmt.Printf("Deleted %d entries from %s\n", len(ids), breadcrumbPath(browser))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Parent folder path (default: root)")
	cmd.Flags().StringArrayVar(&names, "name", nil, "Entry name to delete (repeatable, required)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	cmd.MarkFlagRequired("name")

	return cmd
}
