package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/browse"
	"cloudsave/internal/transfer"
)

// newSaveCmd creates the 'save' command.
func newSaveCmd() *cobra.Command {
	var accessCode string
	var fromPath string
	var toPath string
	var selectNames []string

	cmd := &cobra.Command{
		Use:   "save <share-link>",
		Short: "Save entries from a share into your own tree",
		Long: `Save files and folders from a shared link into a folder of your
own. The copy runs on the provider's side; nothing is downloaded.

With no --select, everything in the source directory is saved.

Example:
  # Save a whole share into the root
  cloudsave save https://cloud.189.cn/t/AbCd1234

  # Save two episodes from a subfolder into a target folder
  cloudsave save AbCd1234 --from "Season 1" \
    --select ep01.mp4 --select ep02.mp4 --to "Shows/Season 1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			provider, _, err := newProvider()
			if err != nil {
				return err
			}

			share, err := resolveShare(provider, args[0], accessCode)
			if err != nil {
				return err
			}

			ctx := GetContext()
			source := browse.NewShareBrowser(provider, share, "source", nil)
			dest := browse.NewOwnedBrowser(provider, "destination", nil)
			wf := transfer.NewWorkflow(provider, share, source, dest, nil)

			if err := wf.Activate(ctx); err != nil {
				return err
			}
			if err := descendPath(ctx, source, fromPath); err != nil {
				return err
			}

			for _, name := range selectNames {
				entry, err := findByName(source, name)
				if err != nil {
					return err
				}
				if err := source.Toggle(entry.ID); err != nil {
					return err
				}
			}

			if err := wf.Advance(ctx); err != nil {
				return err
			}
			if err := descendPath(ctx, dest, toPath); err != nil {
				return err
			}

			count := len(source.EffectiveSelection())
			if err := wf.Commit(ctx); err != nil {
				return err
			}

			logger.Info().Int("count", count).Str("dest", breadcrumbPath(dest)).Msg("Save committed")
			fmt.Printf("Saved %d entries from %s to %s\n", count, breadcrumbPath(source), breadcrumbPath(dest))
			return nil
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "Access code for private shares")
	cmd.Flags().StringVar(&fromPath, "from", "", "Folder path inside the share")
	cmd.Flags().StringVar(&toPath, "to", "", "Destination folder path (default: root)")
	cmd.Flags().StringArrayVar(&selectNames, "select", nil, "Entry name to stage (repeatable; default: everything)")

	return cmd
}
