package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/dircache"
)

var lsFilesCmd = &cobra.Command{
	Use:   "ls-files",
	Short: "List staged entries",
	Long:  "Parse the index file and print one line per entry: mode, object id, stage and path.",
	Args:  cobra.NoArgs,
	RunE:  runLsFiles,
}

func init() {
	rootCmd.AddCommand(lsFilesCmd)
}

func loadIndex() (dc *dircache.DirCache, err error) {
	f, err := os.Open(indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return dircache.Empty(), nil
		}
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return dircache.Parse(dircache.NewHashReader(f))
}

func runLsFiles(cmd *cobra.Command, args []string) error {
	dc, err := loadIndex()
	if err != nil {
		return fmt.Errorf("parse %s: %w", indexPath(), err)
	}

	for _, e := range dc.Entries() {
		fmt.Printf("%06o %s %d\t%s\n", uint32(e.Mode), e.ID, e.Stage, e.Name)
	}
	return nil
}
