package datasheet

import (
	"fmt"

	"github.com/spf13/cobra"
)

// modelsCmd implements 'models', which lists the models the server offers
// for the stored provider config.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available for analysis",
	Long:  `The 'models' command lists the models the analysis server offers for the stored provider config. The first one is used when --model is not set.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sess, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		d := sess.Display()
		if cfg.JSONMode {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"models": d.Models, "selected": d.SelectedModel})
		}
		if len(d.Models) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), muted("No models available."))
			return nil
		}
		for _, name := range d.Models {
			marker := " "
			if name == d.SelectedModel {
				marker = success("*")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
