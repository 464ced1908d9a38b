// Package main provides the entry point for the imagescan server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for imagescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imagescan",
		Short: "Image forensics analysis service",
		Long: `Imagescan analyzes uploaded images for forensic signals.

Each upload is bound to an expiring session and examined by four analyzers
running concurrently: EXIF metadata extraction, tamper scoring via error
level analysis, AI-generation detection, and face analysis. Results are
served as JSON or Markdown, with reverse image search links for Google
Lens, Bing, Yandex, and TinEye.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
