package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List original images in the store",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, store := newEngine()

	names, err := store.ListOriginals()
	if err != nil {
		return fmt.Errorf("failed to list originals: %w", err)
	}
	if len(names) == 0 {
		util.WarnLog("No images found. Run 'ivc add' first.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
