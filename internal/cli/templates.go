package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/rename"
)

// newTemplatesCmd creates the 'templates' command.
func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List rename templates and their variables",
		Long: `List the shipped rename templates and the tokens a custom pattern
may use. Templates are attached to save tasks with 'tasks add
--template'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Preset templates:")
			for _, t := range rename.Presets() {
				fmt.Printf("  %-15s %-40s %s\n", t.Key, t.Pattern, t.Description)
			}

			fmt.Println("\nVariables for custom patterns:")
			for _, v := range rename.Variables() {
				fmt.Printf("  %-12s %s\n", v.Token, v.Description)
			}
			return nil
		},
	}
}
