package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/release"
)

var floatingTagFlag string

var floatingTagCmd = &cobra.Command{
	Use:   "floating-tag",
	Short: "Print the floating major tag for a release tag",
	Long: `Print the floating major version tag ("v1", "v2") for a stable
semver release tag. Pre-release tags print nothing: they never move a
floating tag. Non-semver tags are an error.

Examples:
  landfall floating-tag --tag v1.2.3    # prints v1
  landfall floating-tag --tag v2.0.0-rc.1  # prints nothing`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		major, err := release.FloatingMajorTag(floatingTagFlag)
		if err != nil {
			return err
		}
		if major != "" {
			fmt.Fprintln(cmd.OutOrStdout(), major)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(floatingTagCmd)

	floatingTagCmd.Flags().StringVar(&floatingTagFlag, "tag", "", "Release tag to derive the floating tag from (required)")
	_ = floatingTagCmd.MarkFlagRequired("tag")
}
