package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/imagevault/internal/api"
	"github.com/franz/imagevault/internal/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the version engine over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8585", "listen address")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, store := newEngine()

	j, err := openJournal()
	if err != nil {
		util.WarnLog("journal unavailable, history disabled: %v", err)
		j = nil
	} else {
		defer j.Close()
	}

	addr := viper.GetString("addr")
	handler := api.NewHandler(engine, store, j)

	util.InfoLog("Serving on %s (root %s)", addr, viper.GetString("root"))
	if err := http.ListenAndServe(addr, api.NewRouter(handler)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
