package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify index integrity",
	Long:  "Parse the index file, checking the format and the trailing checksum, and report the result.",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dc, err := loadIndex()
	if err != nil {
		return fmt.Errorf("%s: %w", indexPath(), err)
	}

	state := "fully merged"
	if !dc.FullyMerged() {
		state = "has conflicts"
	}
	fmt.Printf("%s: ok, %d entries, %s\n", indexPath(), dc.Len(), state)
	return nil
}
