package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/course-engine/internal/websearch"
)

var websearchCmd = &cobra.Command{
	Use:   "websearch <query>",
	Short: "Run the web search channel for a free-text query",
	Long: `Websearch queries the configured backends in fallback order (tavily,
duckduckgo, arxiv) and prints the merged, deduplicated results. It is the
same channel generate and serve use, run on its own.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWebsearch,
}

func runWebsearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	wcfg := cfg.WebSearch

	if backends, _ := cmd.Flags().GetStringSlice("backends"); len(backends) > 0 {
		wcfg.Backends = backends
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		wcfg.MaxResults = n
	}
	enrich, _ := cmd.Flags().GetBool("enrich")
	asJSON, _ := cmd.Flags().GetBool("json")

	client := &http.Client{Timeout: wcfg.Timeout}
	backends, err := websearch.NewBackends(wcfg, client)
	if err != nil {
		return err
	}
	if len(backends) == 0 {
		return fmt.Errorf("no web search backends configured")
	}

	ctx := context.Background()
	q := websearch.Query{Text: strings.Join(args, " ")}
	out, err := websearch.Search(ctx, q, backends, wcfg, os.Stderr)
	if err != nil {
		return err
	}
	if enrich || wcfg.Enrich {
		e := &websearch.Enricher{Client: client, UserAgent: wcfg.UserAgent}
		if n := e.Enrich(ctx, out.Results, os.Stderr); n > 0 {
			fmt.Fprintf(os.Stderr, "Enriched %d result(s)\n", n)
		}
	}

	if asJSON {
		return websearch.FormatJSON(out, os.Stdout)
	}
	websearch.FormatTable(out, os.Stdout)
	return nil
}

func init() {
	websearchCmd.Flags().StringSlice("backends", nil, "backends in fallback order (default from config)")
	websearchCmd.Flags().Int("max-results", 0, "maximum merged results (0 = use config)")
	websearchCmd.Flags().Bool("enrich", false, "fetch pages to fill empty snippets")
	websearchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(websearchCmd)
}
