package datasheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// configCmd groups the commands that manage the provider config stored on the server.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the provider config stored on the server",
	Long:  `The 'config' command groups subcommands that read and store the AI provider settings (type, key, base URL, retry budget) held by the analysis server.`,
}

// configLoadCmd implements 'config load'.
var configLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Show the provider config stored on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		backend, err := newBackend(cfg)
		if err != nil {
			return err
		}
		stored, err := backend.LoadConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		stored = stored.WithDefaults()
		debugDump(cmd.ErrOrStderr(), cfg, stored)
		return printAPIConfig(cmd.OutOrStdout(), stored, cfg.JSONMode)
	},
}

// configSaveCmd implements 'config save'.
var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store provider settings on the server",
	Long:  `The 'save' subcommand sends the provider type, API key, optional base URL and retry budget to the server. A missing or invalid retry budget falls back to 3.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		form := session.ConfigForm{}
		form.Type, _ = cmd.Flags().GetString("type")
		form.Key, _ = cmd.Flags().GetString("key")
		form.Base, _ = cmd.Flags().GetString("base")
		form.MaxRetries, _ = cmd.Flags().GetString("max-retries")

		cfg := GetConfig()
		backend, err := newBackend(cfg)
		if err != nil {
			return err
		}
		sess := session.New(backend)
		if err := sess.SaveConfig(cmd.Context(), form); err != nil {
			return err
		}
		saved := sess.Config()
		if cfg.JSONMode {
			return printAPIConfig(cmd.OutOrStdout(), saved, true)
		}
		fmt.Fprintln(cmd.OutOrStdout(), success("Configuration saved."))
		return printAPIConfig(cmd.OutOrStdout(), saved, false)
	},
}

func init() {
	configSaveCmd.Flags().String("type", string(analysis.ProviderOpenAI), "provider type: openai, azure or custom")
	configSaveCmd.Flags().String("key", "", "provider API key")
	configSaveCmd.Flags().String("base", "", "provider base URL (azure and custom only)")
	configSaveCmd.Flags().String("max-retries", strconv.Itoa(analysis.DefaultMaxRetries), "maximum analysis attempts per query")

	configCmd.AddCommand(configLoadCmd)
	configCmd.AddCommand(configSaveCmd)
	rootCmd.AddCommand(configCmd)
}

// printAPIConfig prints cfg with its key masked.
func printAPIConfig(out io.Writer, cfg analysis.APIConfig, asJSON bool) error {
	masked := cfg
	masked.Key = cfg.MaskedKey()
	if asJSON {
		return writeJSON(out, masked)
	}

	status := session.StatusDisconnected
	if cfg.Configured() {
		status = session.StatusConnected
	}
	fmt.Fprintf(out, "  %s     %s\n", label("Status:"), status)
	fmt.Fprintf(out, "  %s       %s\n", label("Type:"), masked.Type)
	fmt.Fprintf(out, "  %s        %s\n", label("Key:"), orNone(masked.Key))
	if session.BaseFieldVisible(cfg.Type) {
		fmt.Fprintf(out, "  %s   %s\n", label("Base URL:"), orNone(masked.Base))
	}
	fmt.Fprintf(out, "  %s %d\n", label("Max retries:"), masked.MaxRetries)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return muted("(none)")
	}
	return s
}
