package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/browse"
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory in your own tree",
		Long: `List the files and folders of a directory in your cloud drive.

The path is a slash-separated chain of folder names starting at the
root.

Example:
  # List the root
  cloudsave ls

  # List a nested folder
  cloudsave ls "Shows/Season 1"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _, err := newProvider()
			if err != nil {
				return err
			}

			ctx := GetContext()
			browser := browse.NewOwnedBrowser(provider, "source", nil)
			if err := browser.Open(ctx); err != nil {
				return err
			}

			if len(args) == 1 {
				if err := descendPath(ctx, browser, args[0]); err != nil {
					return err
				}
			}

			fmt.Printf("%s\n", breadcrumbPath(browser))
			printListing(browser.Listing())
			return nil
		},
	}

	return cmd
}
