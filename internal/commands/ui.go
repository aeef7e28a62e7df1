package datasheet

import (
	"github.com/spf13/cobra"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/tui"
)

// startUI is a function alias to tui.Start, replaced in tests.
var startUI = tui.Start

// uiCmd implements 'ui', which opens the interactive analyzer.
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive analyzer",
	Long:  `The 'ui' command opens a full-screen interface to configure the provider, upload a dataset, pick a model, and run, retry or regenerate analyses.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		backend, err := newBackend(cfg)
		if err != nil {
			return err
		}
		return startUI(cmd.Context(), cfg, backend)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
