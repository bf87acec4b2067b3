/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voxnote",
	Short: "Backend for the voxnote speech transcription service",
	Long: `Backend for the voxnote speech transcription service.

Accepts uploaded audio recordings, normalizes them with ffmpeg,
transcribes them through a speech-recognition API and keeps each
user's transcription history.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
