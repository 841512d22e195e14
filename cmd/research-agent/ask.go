// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/guide"
	"github.com/pdiddy/research-agent/internal/intent"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question by search or full research, whichever fits",
	Long: `Ask routes the question. Definitions and narrow lookups get a paper
search with a reading guide; comparisons, surveys, and long questions get the
supervisor research loop. --mode forces a route.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), creds)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	s, err := newSession(cmd.Context(), cfg, progressPrinter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer s.Close()

	mode := intent.Mode(mustString(cmd, "mode"))
	if mode == "" {
		mode = intent.New(s.gateway, intent.WithLogger(logger)).Route(cmd.Context(), query)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Route: %s\n", mode)

	switch mode {
	case intent.ModeSimple:
		limit, _ := cmd.Flags().GetInt("max-results")
		papers, err := s.searcher.Search(cmd.Context(), query, limit)
		if err != nil {
			return err
		}
		printGuided(cmd.OutOrStdout(), cmd, s.gateway, query, papers)
		return nil
	case intent.ModeDeepResearch:
		out := s.runner.DeepResearch(cmd.Context(), query, "", cfg.Deep)
		return finishRun(cmd, cfg, out)
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", mode, intent.ModeSimple, intent.ModeDeepResearch)
	}
}

// printGuided prints the result table followed by a reading guide.
func printGuided(w io.Writer, cmd *cobra.Command, gateway llm.Gateway, query string, papers []types.PaperRecord) {
	search.FormatTable(papers, w)
	g := guide.New(gateway, guide.WithLogger(logger)).Generate(cmd.Context(), query, papers)
	fmt.Fprintln(w)
	fmt.Fprint(w, g.Markdown())
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	askCmd.Flags().String("mode", "", "force a route: simple or deep_research")
	askCmd.Flags().Int("max-results", 10, "results per provider for simple questions")
	askCmd.Flags().Bool("no-archive", false, "do not archive deep research runs")
	addExportFlags(askCmd)

	rootCmd.AddCommand(askCmd)
}
