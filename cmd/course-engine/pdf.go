// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/course-engine/internal/pdf"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Extract text from a syllabus document",
	Long: `Pdf runs the document channel on a single file. PDFs are converted with
the markitdown container image (docker or podman); .md and .txt files are
read directly. With --chunks the text is split into the prompt excerpts the
agent would see.`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func runPDF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	chunks, _ := cmd.Flags().GetBool("chunks")
	asJSON, _ := cmd.Flags().GetBool("json")

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	text, err := buildExtractor(ctx, cfg.PDF, logger).Extract(ctx, args[0])
	if err != nil {
		return err
	}

	if !chunks {
		fmt.Println(text)
		return nil
	}

	parts := pdf.Chunk(text, cfg.PDF.ChunkSize)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parts)
	}
	for i, p := range parts {
		fmt.Printf("--- chunk %d/%d (%d chars) ---\n%s\n\n", i+1, len(parts), len([]rune(p)), p)
	}
	return nil
}

func init() {
	pdfCmd.Flags().Bool("chunks", false, "print the text as prompt-sized chunks")
	pdfCmd.Flags().Bool("json", false, "with --chunks, output the chunks as a JSON array")

	rootCmd.AddCommand(pdfCmd)
}
