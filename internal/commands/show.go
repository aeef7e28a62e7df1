package datasheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/metrics"
)

// showCmd represents the 'show' command group for displaying local settings.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying local settings",
	Long:  `The 'show' command groups subcommands that display information about the datasheet client itself.`,
}

// showConfigCmd implements 'show config', which displays the merged client settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		fallback := appconfig.Config{
			Server:             viper.GetString("server"),
			Debug:              viper.GetBool("debug"),
			JSONMode:           viper.GetBool("jsonMode"),
			TimeoutSeconds:     viper.GetInt("timeout"),
			LogFile:            viper.GetString("logFile"),
			Model:              viper.GetString("model"),
			ExportMarkdownPath: viper.GetString("exportMarkdown"),
			MetricsFile:        viper.GetString("metricsFile"),
		}
		file := viper.ConfigFileUsed()
		if cfg := GetConfig(); cfg != nil {
			file = cfg.ConfigPath
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), file, GetConfig(), fallback)
	},
}

// showCommandsCmd implements 'show commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var showCommandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Run: func(cmd *cobra.Command, args []string) {
		commandData := collectCommandData(rootCmd, "", "")
		filtered := make([]commandInfo, 0, len(commandData))
		for _, data := range commandData {
			if strings.Contains(data.path, "completion") || strings.Contains(data.path, "help") {
				continue
			}
			filtered = append(filtered, data)
		}
		listCommands(cmd.OutOrStdout(), filtered)
	},
}

// showMetricsCmd implements 'show metrics', which summarizes the recorded
// analysis timings and outcomes per model.
var showMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recorded analysis metrics per model",
	Long:  `Show the per-model analysis metrics recorded while --metricsFile is set: request counts, outcomes and durations, overall and per attempt.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil || cfg.MetricsFile == "" {
			return fmt.Errorf("no metrics file configured (set --metricsFile)")
		}
		all, err := metrics.Load(cfg.MetricsFile)
		if err != nil {
			return err
		}
		if cfg.JSONMode {
			return writeJSON(cmd.OutOrStdout(), all)
		}
		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), muted("No analysis metrics recorded yet."))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), metrics.RenderTable(all))
		return nil
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showMetricsCmd)
	showCmd.AddCommand(showCommandsCmd)
	rootCmd.AddCommand(showCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, commands []commandInfo) {
	maxPathLength := 0
	for _, data := range commands {
		if len(data.path) > maxPathLength {
			maxPathLength = len(data.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commands {
		fmt.Fprintf(out, "  %s%s%s\n", data.path, strings.Repeat(" ", maxPathLength-len(data.path)+2), data.description)
	}
}

// collectCommandData walks the command tree and returns a flattened slice of
// path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	all := []commandInfo{{path: indent + fullPath, description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}
