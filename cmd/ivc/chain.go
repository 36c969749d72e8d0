package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var chainCmd = &cobra.Command{
	Use:   "chain <stem> <edited>...",
	Short: "Record a sequence of edited images as consecutive versions",
	Long: `Record several edited images as a version chain in one pass. The stored
original is version 1; the given images become versions 2, 3, ... with one
edge recorded per step, each against its predecessor.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChain,
}

func init() {
	rootCmd.AddCommand(chainCmd)

	chainCmd.Flags().Bool("pixel", false, "store per-pixel differences instead of transforms")
}

func runChain(cmd *cobra.Command, args []string) error {
	stem := args[0]
	edits := args[1:]
	pixel, _ := cmd.Flags().GetBool("pixel")

	engine, store := newEngine()

	prev, err := store.FindOriginal(stem)
	if err != nil {
		return err
	}

	j, jerr := openJournal()
	if jerr != nil {
		util.WarnLog("journal unavailable: %v", jerr)
	} else {
		defer j.Close()
	}

	barWidth := util.GetTerminalWidth() / 3
	if barWidth > 40 {
		barWidth = 40
	}
	bar := progressbar.NewOptions(len(edits),
		progressbar.OptionSetDescription("recording"),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for i, edited := range edits {
		from, to := i+1, i+2

		mode := "transform"
		var matrixPath string
		if pixel {
			mode = "pixeldiff"
			arts, err := engine.RecordDiffVersion(stem, from, to, prev, edited)
			if err != nil {
				return fmt.Errorf("edge %d->%d: %w", from, to, err)
			}
			matrixPath = arts.MatrixPath
		} else {
			arts, err := engine.RecordTransformVersion(stem, from, to, prev, edited)
			if err != nil {
				return fmt.Errorf("edge %d->%d: %w", from, to, err)
			}
			matrixPath = arts.MatrixPath
		}

		if j != nil {
			if err := j.Add(stem, from, to, mode, matrixPath); err != nil {
				util.WarnLog("journal write failed: %v", err)
			}
		}
		prev = edited
		bar.Add(1)
	}

	util.SuccessLog("Recorded %d version edges for %s", len(edits), stem)
	return nil
}
