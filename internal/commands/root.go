// Package datasheet wires the command-line interface of the datasheet client.
package datasheet

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
)

var (
	cfgFile       string
	configUsed    string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

var (
	boolFlags   = []string{"debug", "jsonMode"}
	stringFlags = []string{"server", "logFile", "model", "exportMarkdown", "metricsFile"}
	intFlags    = []string{"timeout"}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "datasheet",
	Short:         "datasheet: terminal client for the AI data-analysis service",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range boolFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(name)))
			}
		}
		for _, name := range stringFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}
		for _, name := range intFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, strconv.Itoa(viper.GetInt(name)))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = configUsed
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg

		// The full-screen UI owns the terminal, so it only logs to file.
		echo := cfg.Debug && cmd.Name() != "ui"
		if err := logging.Init(currentConfig.LogFilePath(), echo); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, failure("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().String("server", appconfig.DefaultServerURL, "base URL of the analysis server")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging and response dumps")
	rootCmd.PersistentFlags().Bool("jsonMode", false, "print machine-readable JSON instead of formatted output")
	rootCmd.PersistentFlags().Int("timeout", 0, "per-request timeout in seconds (0 = wait for the server)")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("model", "", "model used for analysis (defaults to the first one the server lists)")
	rootCmd.PersistentFlags().String("exportMarkdown", "", "write the rendered analysis result to this Markdown file")
	rootCmd.PersistentFlags().String("metricsFile", "", "record per-model analysis timings and outcomes in this JSON file")

	for _, name := range append(append(append([]string{}, boolFlags...), stringFlags...), intFlags...) {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and sets safe defaults. A missing file
// is not an error: every setting has a flag default.
func ensureConfigLoaded() error {
	configUsed = ""
	path, err := appconfig.ResolvePath(cfgFile)
	if errors.Is(err, appconfig.ErrNoConfigFile) {
		return nil
	}
	if err != nil {
		return err
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	configUsed = path
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// JSONModeEnabled returns true if JSON mode is enabled.
func JSONModeEnabled() bool { return viper.GetBool("jsonMode") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
