package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the version, commit, and build date of elgato-prompter-text.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "elgato-prompter-text %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
