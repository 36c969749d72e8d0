package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/util"
)

var recordCmd = &cobra.Command{
	Use:   "record <stem> <from> <to> <edited>",
	Short: "Record a new version edge from an edited image",
	Long: `Record a new version of a collection. The edge artifact is a geometric
transform estimated between the stored original and the edited image, or,
with --pixel, a dense per-pixel difference matrix for edits that no global
transform can express.`,
	Args: cobra.ExactArgs(4),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().Bool("pixel", false, "store a per-pixel difference instead of a transform")
	recordCmd.Flags().String("original", "", "original image path (default: resolved from the stem)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	stem := args[0]
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("from version %q is not an integer", args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("to version %q is not an integer", args[2])
	}
	editedPath := args[3]

	engine, store := newEngine()

	originalPath, _ := cmd.Flags().GetString("original")
	if originalPath == "" {
		originalPath, err = store.FindOriginal(stem)
		if err != nil {
			return err
		}
	}

	pixel, _ := cmd.Flags().GetBool("pixel")
	mode := "transform"
	var matrixPath string
	if pixel {
		mode = "pixeldiff"
		arts, err := engine.RecordDiffVersion(stem, from, to, originalPath, editedPath)
		if err != nil {
			return err
		}
		matrixPath = arts.MatrixPath
		util.SuccessLog("Version recorded:")
		util.InfoLog("  Matrix: %s", arts.MatrixPath)
	} else {
		arts, err := engine.RecordTransformVersion(stem, from, to, originalPath, editedPath)
		if err != nil {
			return err
		}
		matrixPath = arts.MatrixPath
		util.SuccessLog("Version recorded:")
		util.InfoLog("  Matrix: %s", arts.MatrixPath)
		util.InfoLog("  RGB metrics: %s", arts.RGBMetricsPath)
		util.InfoLog("  Intensity metrics: %s", arts.IntensityMetricsPath)
	}

	j, err := openJournal()
	if err != nil {
		util.WarnLog("journal unavailable: %v", err)
		return nil
	}
	defer j.Close()
	if err := j.Add(stem, from, to, mode, matrixPath); err != nil {
		util.WarnLog("journal write failed: %v", err)
	}
	return nil
}
