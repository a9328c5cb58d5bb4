package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litterscan/litterscan/internal/buildinfo"
	"github.com/litterscan/litterscan/internal/conf"
)

// Command creates a new cobra.Command that prints build information.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of " + conf.AppName,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", conf.AppName, buildinfo.Current())
			return err
		},
	}
}
