package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show <stem>",
	Short: "Show a collection's versions and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	stem := args[0]
	engine, _ := newEngine()

	doc, err := engine.Index().Load(false)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	entry := doc.Images[stem]
	if entry == nil {
		util.WarnLog("No versions recorded for %s.", stem)
		return nil
	}

	fmt.Printf("Collection: %s\n", stem)
	fmt.Printf("Versions:   %v\n", entry.Versions)
	fmt.Println("Edges:")

	keys := make([]string, 0, len(entry.Matrices))
	for k := range entry.Matrices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := entry.Matrices[key]
		size := "missing"
		if fi, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(fi.Size()))
		}
		fmt.Printf("  %-10s %s (%s)\n", key, path, size)
	}
	return nil
}
