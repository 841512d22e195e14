// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords]",
	Short: "Search academic APIs for papers",
	Long: `Search queries the configured providers (arXiv and OpenAlex by default)
for papers matching the keywords. Results are deduplicated by title, with
arXiv preprints first and OpenAlex works ranked by citations and recency.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), creds)
		if err != nil {
			return err
		}
		if providers, _ := cmd.Flags().GetStringSlice("providers"); len(providers) > 0 {
			cfg.Search.Providers = providers
		}

		gw, err := search.New(cfg.Search, logger)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("max-results")
		papers, err := gw.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if withGuide, _ := cmd.Flags().GetBool("guide"); withGuide {
			client, err := optionalClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			var gateway llm.Gateway
			if client != nil {
				gateway = client
			}
			printGuided(w, cmd, gateway, strings.Join(args, " "), papers)
			return nil
		}
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			return search.FormatJSON(papers, w)
		case "csl":
			return search.FormatCSL(papers, w)
		default:
			search.FormatTable(papers, w)
			return nil
		}
	},
}

func init() {
	searchCmd.Flags().Int("max-results", 10, "results per provider")
	searchCmd.Flags().StringSlice("providers", nil, "providers to query (arxiv, openalex, semantic_scholar)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().Bool("guide", false, "follow the table with a reading guide")

	rootCmd.AddCommand(searchCmd)
}
