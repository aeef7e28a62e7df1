package datasheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/preview"
)

// uploadCmd implements 'upload <file>', which sends a dataset to the server
// and prints what the server made of it.
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a dataset and show its preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sess, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		handle, err := sess.Upload(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		debugDump(cmd.ErrOrStderr(), cfg, handle)
		if cfg.JSONMode {
			return writeJSON(cmd.OutOrStdout(), handle)
		}
		full, _ := cmd.Flags().GetBool("full")
		printDataset(cmd.OutOrStdout(), handle, full)
		return nil
	},
}

func init() {
	uploadCmd.Flags().Bool("full", false, "show the full preview instead of the short one")
	rootCmd.AddCommand(uploadCmd)
}

// printDataset writes the dataset overview followed by its preview.
func printDataset(out io.Writer, h analysis.DatasetHandle, full bool) {
	fmt.Fprintf(out, "%s %s (%d rows)\n", label("File:"), h.Filename, h.RowCount)
	fmt.Fprintf(out, "%s %s\n", label("Columns:"), strings.Join(h.Columns, ", "))
	if strings.TrimSpace(h.Preview) == "" {
		return
	}
	p, err := preview.Parse(h.Preview)
	if err != nil {
		fmt.Fprintln(out, muted("(preview unavailable)"))
		return
	}
	fmt.Fprintln(out, p.Render(full))
}
