// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/offload"
	"github.com/pdiddy/research-agent/internal/orchestrate"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/pkg/types"
)

// --- research subcommand ---

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Research a question with the supervisor loop",
	Long: `Research runs the supervisor loop. Each round the model reflects, starts a
research task on a sub-topic, or declares the research complete. The loop also
stops at --max-rounds, and the report is written from the gathered notes.

The run is archived under runs/<run-id>/ unless --no-archive is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), creds)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-rounds") {
		cfg.Deep.Supervisor.MaxRounds, _ = cmd.Flags().GetInt("max-rounds")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Deep.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	brief, _ := cmd.Flags().GetString("brief")

	s, err := newSession(cmd.Context(), cfg, progressPrinter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer s.Close()

	out := s.runner.DeepResearch(cmd.Context(), strings.Join(args, " "), brief, cfg.Deep)
	return finishRun(cmd, cfg, out)
}

// --- parallel subcommand ---

var parallelCmd = &cobra.Command{
	Use:   "parallel [question]",
	Short: "Research a question by parallel sub-questions",
	Long: `Parallel splits the question into sub-questions, researches them
concurrently, and writes one report. It is faster than research but cannot
follow up on gaps it discovers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParallel,
}

func runParallel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), creds)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("sub-questions") {
		cfg.Parallel.MaxSubQuestions, _ = cmd.Flags().GetInt("sub-questions")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Parallel.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Parallel.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	s, err := newSession(cmd.Context(), cfg, progressPrinter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer s.Close()

	out := s.runner.Parallel(cmd.Context(), strings.Join(args, " "), cfg.Parallel)
	return finishRun(cmd, cfg, out)
}

func progressPrinter(w io.Writer) orchestrate.ProgressFunc {
	return func(msg string, ratio float64) {
		fmt.Fprintf(w, "[%3.0f%%] %s\n", ratio*100, msg)
	}
}

// finishRun prints the report, archives the run, and writes the requested
// exports. A failed or timed-out run still gets its partial report
// written before the error is returned.
func finishRun(cmd *cobra.Command, cfg appConfig, out orchestrate.Output) error {
	fmt.Fprintln(cmd.OutOrStdout(), out.Report)

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		dir, err := offload.Archive{Dir: cfg.Offload.Dir}.Save(out.Record())
		if err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s archived to %s\n", out.RunID, dir)
	}

	if err := writeExports(cmd, out.Query, out.Report, out.State.AllSources()); err != nil {
		return err
	}
	return out.Err
}

// writeExports writes the files named by --html, --bibtex, and --csl.
func writeExports(cmd *cobra.Command, title, markdown string, sources []types.SourceRecord) error {
	if path, _ := cmd.Flags().GetString("html"); path != "" {
		if err := writeFile(path, func(w io.Writer) error { return report.HTML(title, markdown, w) }); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
	}
	if path, _ := cmd.Flags().GetString("bibtex"); path != "" {
		if err := os.WriteFile(path, []byte(report.BibTeX(sources)), 0o644); err != nil {
			return fmt.Errorf("writing BibTeX: %w", err)
		}
	}
	if path, _ := cmd.Flags().GetString("csl"); path != "" {
		if err := writeFile(path, func(w io.Writer) error { return report.CSL(sources, w) }); err != nil {
			return fmt.Errorf("writing CSL: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("html", "", "also write the report as HTML to this file")
	cmd.Flags().String("bibtex", "", "write the sources as BibTeX to this file")
	cmd.Flags().String("csl", "", "write the sources as CSL YAML to this file")
}

func init() {
	researchCmd.Flags().String("brief", "", "research brief (default: generated from the question)")
	researchCmd.Flags().Int("max-rounds", types.DefaultSupervisorConfig().MaxRounds, "maximum supervisor rounds")
	researchCmd.Flags().Duration("timeout", types.DefaultDeepResearchConfig().Timeout, "wall-clock budget (0 disables)")
	researchCmd.Flags().Bool("no-archive", false, "do not archive the run under the offload directory")
	addExportFlags(researchCmd)

	parallelCmd.Flags().Int("sub-questions", types.DefaultParallelConfig().MaxSubQuestions, "maximum sub-questions")
	parallelCmd.Flags().Int("workers", types.DefaultParallelConfig().Workers, "concurrent research tasks (1-5)")
	parallelCmd.Flags().Duration("timeout", types.DefaultParallelConfig().Timeout, "wall-clock budget (0 disables)")
	parallelCmd.Flags().Bool("no-archive", false, "do not archive the run under the offload directory")
	addExportFlags(parallelCmd)

	rootCmd.AddCommand(researchCmd, parallelCmd)
}
