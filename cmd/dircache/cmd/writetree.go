package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/dircache"
)

var writeTreeCmd = &cobra.Command{
	Use:   "write-tree",
	Short: "Write staged paths as tree objects",
	Long:  "Convert the index into tree objects, store them as loose objects, and print the id of the tree for --prefix (the root by default).",
	Args:  cobra.NoArgs,
	RunE:  runWriteTree,
}

func init() {
	writeTreeCmd.Flags().String("prefix", "", "subdirectory to report instead of the root")
	rootCmd.AddCommand(writeTreeCmd)
}

func runWriteTree(cmd *cobra.Command, args []string) error {
	dc, err := loadIndex()
	if err != nil {
		return fmt.Errorf("parse %s: %w", indexPath(), err)
	}

	prefix, _ := cmd.Flags().GetString("prefix")
	tree, trees, err := dc.TreeObjects(prefix)
	if err != nil {
		return err
	}

	s, err := dircache.NewLocalStore(objectDir())
	if err != nil {
		return err
	}
	if err := dircache.StoreTrees(context.Background(), s, trees); err != nil {
		return err
	}

	fmt.Println(tree.ID)
	return nil
}
