// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the course-engine CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/course-engine/internal/config"
	"github.com/pdiddy/course-engine/internal/secrets"
	"github.com/pdiddy/course-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the course-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "course-engine",
	Short: "Generate structured course outlines from educator requirements",
	Long: `course-engine turns an educator's course requirements (title, audience,
learning mode, depth, duration) into a structured outline of modules,
objectives, lessons and assessments.

Context for the outline comes from up to three channels: a local reference
library, web search, and an uploaded syllabus PDF. A single LLM call then
synthesizes the outline.

Use generate for one-off outlines, serve for the HTTP API, and library,
websearch and pdf to inspect each channel on its own.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./course-engine.yaml or ~/.config/course-engine/course-engine.yaml)")
	rootCmd.PersistentFlags().String("log-mode", "", "logging mode: dev (console) or prod (JSON)")
	_ = viper.BindPFlag("log_mode", rootCmd.PersistentFlags().Lookup("log-mode"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := config.Init(viper.GetViper(), cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

// loadConfig resolves the configuration after flags and secrets are in place.
func loadConfig() (types.Config, error) {
	return config.Load(viper.GetViper(), loadedSecrets)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
