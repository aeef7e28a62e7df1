package datasheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/render"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/util"
)

// terminalWidth is the wrap width for results printed by the CLI.
const terminalWidth = 100

// analyzeCmd implements 'analyze <file> --query ...'. It uploads the file,
// runs the query, and optionally retries failed attempts while the server
// allows it.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Upload a dataset and analyze it with a natural-language query",
	Long: `The 'analyze' command uploads a dataset, asks the server to generate and run an analysis script for the query, and prints the script and the rendered result.

Failed attempts can be retried automatically with --retries; --regenerate asks for a fresh script after a successful run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		retries, _ := cmd.Flags().GetInt("retries")
		regenerate, _ := cmd.Flags().GetBool("regenerate")
		htmlPath, _ := cmd.Flags().GetString("html")
		if strings.TrimSpace(query) == "" {
			return session.ErrEmptyQuery
		}

		cfg := GetConfig()
		sess, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if _, err := sess.Upload(cmd.Context(), args[0]); err != nil {
			return err
		}

		if !cfg.JSONMode {
			sess.SetObserver(progressObserver(cmd.ErrOrStderr()))
		}
		logging.LogEvent("analyze %s: %q", args[0], util.TruncateRunes(util.OneLine(query), 80))

		attempt, err := sess.Analyze(cmd.Context(), query)
		for i := 0; err == nil && i < retries && sess.Display().RetryVisible; i++ {
			attempt, err = sess.Retry(cmd.Context())
		}
		if err == nil && regenerate && sess.Display().RegenerateVisible {
			attempt, err = sess.Regenerate(cmd.Context())
		}
		if err != nil && !errors.Is(err, session.ErrAnalysisFailed) {
			return err
		}

		d := sess.Display()
		debugDump(cmd.ErrOrStderr(), cfg, attempt)
		if cfg.JSONMode {
			if attempt == nil {
				return session.ErrAnalysisFailed
			}
			if err := writeJSON(cmd.OutOrStdout(), attempt); err != nil {
				return err
			}
		} else {
			printDisplay(cmd.OutOrStdout(), d)
		}

		if err := exportResult(cmd.ErrOrStderr(), cfg, htmlPath, d); err != nil {
			return err
		}
		if d.State != session.StateSucceeded {
			if d.Error != "" {
				return fmt.Errorf("analysis failed: %s", d.Error)
			}
			return session.ErrAnalysisFailed
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringP("query", "q", "", "question to ask about the dataset")
	analyzeCmd.Flags().Int("retries", 0, "retry a failed attempt up to N times while the server allows it")
	analyzeCmd.Flags().Bool("regenerate", false, "after a successful run, ask for a freshly generated script")
	analyzeCmd.Flags().String("html", "", "write the rendered result as an HTML fragment to this path")
	rootCmd.AddCommand(analyzeCmd)
}

// progressObserver reports each analysis request as it starts.
func progressObserver(out io.Writer) func(session.Display) {
	lastAttempt := 0
	return func(d session.Display) {
		if !d.InProgress {
			lastAttempt = 0
			return
		}
		if d.ProgressAttempt == lastAttempt {
			return
		}
		lastAttempt = d.ProgressAttempt
		fmt.Fprintf(out, "%s %s\n", muted(d.State.String()+"..."), muted(fmt.Sprintf("attempt %d", d.ProgressAttempt)))
	}
}

// printDisplay writes the outcome of the last attempt the way the UI shows it:
// counters, error or status, script, then the result.
func printDisplay(out io.Writer, d session.Display) {
	if d.CountersVisible {
		fmt.Fprintf(out, "%s %d of %d (retries so far: %d)\n", label("Attempt"), d.Attempt, d.MaxAttempts, d.RetryCount)
	}
	if d.Error != "" {
		fmt.Fprintln(out, failure("Error: "+d.Error))
		if d.Details != "" {
			fmt.Fprintln(out, d.Details)
		}
	} else if d.StatusText != "" {
		fmt.Fprintln(out, success(d.StatusText))
	}
	if d.RetryVisible {
		fmt.Fprintln(out, muted("Retry available: rerun with --retries 1."))
	}

	if d.Script != "" {
		fmt.Fprintf(out, "\n%s\n", label("Generated script"))
		if d.Script == session.ScriptPending || d.Script == session.ScriptMissing {
			fmt.Fprintln(out, muted(d.Script))
		} else {
			fmt.Fprintln(out, render.Script(d.Script))
		}
	}
	if d.HasOutput() {
		fmt.Fprintf(out, "\n%s\n", label("Result"))
		fmt.Fprintln(out, render.Terminal(d.Output, terminalWidth))
	}
}

// exportResult writes the mounted result as HTML and Markdown when asked to.
// Nothing is written for an attempt without a result.
func exportResult(out io.Writer, cfg *appconfig.Config, htmlPath string, d session.Display) error {
	if !d.HasOutput() {
		return nil
	}
	if htmlPath != "" {
		doc, err := render.HTML(d.Output)
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		if err := util.WriteFile(htmlPath, []byte(doc)); err != nil {
			return fmt.Errorf("write html export: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n", muted("HTML written to"), htmlPath)
	}
	if cfg.ExportMarkdownPath != "" {
		if err := util.WriteFile(cfg.ExportMarkdownPath, []byte(render.Markdown(d.Output))); err != nil {
			return fmt.Errorf("write markdown export: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n", muted("Markdown written to"), cfg.ExportMarkdownPath)
	}
	return nil
}
