package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var historyCmd = &cobra.Command{
	Use:   "history [stem]",
	Short: "Show the recording journal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	stem := ""
	if len(args) == 1 {
		stem = args[0]
	}

	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	recs, err := j.History(stem)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(recs) == 0 {
		util.WarnLog("No recordings found.")
		return nil
	}

	for _, r := range recs {
		fmt.Printf("%-12s %s  %d->%d  %-10s %s\n",
			humanize.Time(r.CreatedAt), r.Stem, r.FromVersion, r.ToVersion, r.Mode, r.MatrixPath)
	}
	return nil
}
