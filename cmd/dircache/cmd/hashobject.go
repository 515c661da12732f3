package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/dircache"
)

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object <file>",
	Short: "Compute a blob id",
	Long:  "Compute the git object id of a file's content as a blob; with -w, also store it as a loose object.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashObject,
}

func init() {
	hashObjectCmd.Flags().BoolP("write", "w", false, "write the blob into the object store")
	rootCmd.AddCommand(hashObjectCmd)
}

func runHashObject(cmd *cobra.Command, args []string) error {
	path := args[0]

	src, err := dircache.FileSource(path)
	if err != nil {
		return err
	}
	id, err := dircache.CalculateID(src, dircache.TypeBlob)
	if err != nil {
		return err
	}

	if write, _ := cmd.Flags().GetBool("write"); write {
		s, err := dircache.NewLocalStore(objectDir())
		if err != nil {
			return err
		}
		r, err := src.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(r)
		if cerr := r.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		stored, err := s.Put(context.Background(), dircache.StoreObject{
			Type:    string(dircache.TypeBlob),
			Content: content,
		})
		if err != nil {
			return err
		}
		if stored != id.String() {
			fmt.Fprintf(os.Stderr, "warning: file changed while hashing %s\n", path)
		}
	}

	fmt.Println(id)
	return nil
}
