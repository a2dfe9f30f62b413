package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxnote/snippets-api/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snippets-api",
	Short: "Audio snippet capture and transcription server",
	Long: `Snippets API - capture, clip and transcribe moments from audio sources.

Point it at a podcast episode, a video, or an audiobook with a time range,
and it downloads the audio in the background, cuts the requested window,
transcribes it, and keeps the text browsable and exportable per source.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
}

// loadConfig loads the configuration when a command needs it
func loadConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}
