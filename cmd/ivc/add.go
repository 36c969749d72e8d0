package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var addCmd = &cobra.Command{
	Use:   "add <image>",
	Short: "Add an original image to the collection store",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().String("filename", "", "store under this filename (default: source filename)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	_, store := newEngine()

	filename, _ := cmd.Flags().GetString("filename")
	if filename == "" {
		filename = filepath.Base(args[0])
	}

	path, err := store.SaveOriginal(args[0], filename)
	if err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	util.SuccessLog("Image added: %s", path)
	return nil
}
