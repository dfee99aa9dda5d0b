// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/course-engine/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local reference library",
	Long: `The reference library is a SQLite full-text index of curated course
material. Drop YAML, JSON, Markdown or text files into <dir>/sources/ and run
library ingest; generate and serve query the index for every request.`,
}

// --- ingest subcommand ---

var libraryIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index source files into the library",
	Long: `Ingest reads every supported file in <dir>/sources/ and indexes its
documents. Unchanged files are skipped, changed files are re-indexed and
files removed from sources/ are dropped from the index.`,
	RunE: runLibraryIngest,
}

func runLibraryIngest(cmd *cobra.Command, args []string) error {
	store, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d source(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var librarySearchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Query the library index",
	RunE:  runLibrarySearch,
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.Retrieve(context.Background(), queryFromFlags(cmd, args))
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}
	fmt.Printf("%-24s %-50s %s\n", "ID", "Title", "Source")
	fmt.Println(strings.Repeat("-", 100))
	for _, d := range docs {
		fmt.Printf("%-24s %-50s %s\n", d.ID, truncate(d.Title, 50), d.Source)
	}
	fmt.Printf("\n%d document(s)\n", len(docs))
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export [terms...]",
	Short: "Export library documents to YAML or JSON",
	Long: `Export writes matching documents (all of them when no filter is given)
to <dir>/index/export.yaml or export.json.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	q := queryFromFlags(cmd, args)
	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), q)
	case "json":
		path, err = store.ExportJSON(context.Background(), q)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openLibrary() (*library.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return library.NewStore(cfg.Library)
}

func queryFromFlags(cmd *cobra.Command, args []string) library.Query {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	return library.Query{Text: text, Source: source, Limit: limit}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	libraryCmd.PersistentFlags().String("dir", "library", "library base directory (contains sources/, index/)")
	_ = viper.BindPFlag("library.dir", libraryCmd.PersistentFlags().Lookup("dir"))

	librarySearchCmd.Flags().String("query", "", "full-text query (defaults to the positional terms)")
	librarySearchCmd.Flags().String("source", "", "filter by source file name")
	librarySearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	librarySearchCmd.Flags().Bool("json", false, "output results as JSON")

	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	libraryExportCmd.Flags().String("query", "", "full-text filter for partial export")
	libraryExportCmd.Flags().String("source", "", "filter by source file name")

	libraryCmd.AddCommand(libraryIngestCmd)
	libraryCmd.AddCommand(librarySearchCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
