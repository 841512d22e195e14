// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/offload"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/pkg/types"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect archived runs and offloaded raw notes",
	Long: `Notes reads what earlier runs left behind: the archived state and report
under runs/<run-id>/, and the raw search results offloaded to the notes
store.`,
}

// --- retrieve subcommand ---

var notesRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Full-text search over offloaded papers",
	Long: `Retrieve searches the titles and abstracts of every paper offloaded by
earlier runs, using the SQLite FTS5 index. Only the sqlite backend supports
search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNotesRetrieve,
}

func runNotesRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), creds)
	if err != nil {
		return err
	}
	store, err := offload.Open(cmd.Context(), cfg.Offload)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("offload backend %q keeps no notes", cfg.Offload.Backend)
	}
	defer store.Close()

	searcher, ok := store.(offload.Searcher)
	if !ok {
		return fmt.Errorf("offload backend %q does not support search", cfg.Offload.Backend)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := searcher.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHits(cmd.OutOrStdout(), hits, jsonOutput)
}

func formatHits(w io.Writer, hits []offload.Hit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-36s  %-5s  %-30s  %-50s  %s\n", "Rank", "Run", "Round", "Topic", "Title", "Year")
	fmt.Fprintln(w, strings.Repeat("-", 140))
	for i, h := range hits {
		fmt.Fprintf(w, "%-4d  %-36s  %-5d  %-30s  %-50s  %s\n",
			i+1, h.RunID, h.Round, clip(h.Topic, 30), clip(h.Paper.Title, 50), types.YearString(h.Paper.Year))
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- show subcommand ---

var notesShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the report of an archived run",
	Long: `Show prints the report of an archived run. With --raw it prints the raw
notes offloaded for the run instead, as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), creds)
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			store, err := offload.Open(cmd.Context(), cfg.Offload)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("offload backend %q keeps no notes", cfg.Offload.Backend)
			}
			defer store.Close()

			notes, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(notes)
		}

		rec, err := offload.Archive{Dir: cfg.Offload.Dir}.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.Report)
		return nil
	},
}

// --- export subcommand ---

var notesExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export an archived run",
	Long: `Export writes an archived run to stdout as html (the rendered report),
bibtex or csl (the cited sources), or yaml and json (the full record).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), creds)
		if err != nil {
			return err
		}
		rec, err := offload.Archive{Dir: cfg.Offload.Dir}.Load(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return exportRecord(cmd.OutOrStdout(), rec, format)
	},
}

func exportRecord(w io.Writer, rec offload.RunRecord, format string) error {
	switch strings.ToLower(format) {
	case "html":
		return report.HTML(rec.Query, rec.Report, w)
	case "bibtex", "bib":
		_, err := io.WriteString(w, report.BibTeX(rec.Sources))
		return err
	case "csl":
		return report.CSL(rec.Sources, w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q (want html, bibtex, csl, json, or yaml)", format)
	}
}

func init() {
	notesRetrieveCmd.Flags().Int("limit", 20, "maximum number of results")
	notesRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	notesShowCmd.Flags().Bool("raw", false, "print the offloaded raw notes instead of the report")
	notesExportCmd.Flags().String("format", "yaml", "export format: html, bibtex, csl, json, or yaml")

	notesCmd.AddCommand(notesRetrieveCmd, notesShowCmd, notesExportCmd)
	rootCmd.AddCommand(notesCmd)
}
