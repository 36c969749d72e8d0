package main

import (
	"image"

	"github.com/spf13/cobra"

	"github.com/franz/imagevault/internal/raster"
	"github.com/franz/imagevault/internal/util"
	"github.com/franz/imagevault/internal/versioning"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <original> <output> [matrix...]",
	Short: "Replay version artifacts onto an original image",
	Long: `Reconstruct an edited version by applying one or more stored artifacts to
the original image. A single artifact may be a transform or a pixel diff;
multiple artifacts form a transform chain that is composed and applied
once. With no artifacts the original is written out unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReconstruct,
}

func init() {
	rootCmd.AddCommand(reconstructCmd)
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	originalPath, outputPath := args[0], args[1]
	matrixPaths := args[2:]

	var result image.Image
	var err error
	if len(matrixPaths) == 1 {
		result, err = versioning.Reconstruct(originalPath, matrixPaths[0])
	} else {
		result, err = versioning.ReconstructChain(originalPath, matrixPaths)
	}
	if err != nil {
		return err
	}

	if err := raster.Save(result, outputPath); err != nil {
		return err
	}
	util.SuccessLog("Reconstructed version saved to: %s", outputPath)
	return nil
}
