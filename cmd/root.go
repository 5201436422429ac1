// Package cmd implements the goodfoods CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/config"
)

const version = "0.1.0"

var envFile string

var rootCmd = &cobra.Command{
	Use:           "goodfoods",
	Short:         "GoodFoods restaurant reservation assistant",
	Long:          "GoodFoods searches restaurants, checks table availability and manages reservations, either through an LLM chat or by invoking tools directly.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if envFile != "" {
			configx.SetEnvFile(envFile)
		}
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (defaults to ./.env when present)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(seedCmd)
}
