package main

import (
	"fmt"
	"os"

	"github.com/dondada876/ASEAGI-sub007/internal/buildconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "credctl",
	Short: "Score statements and detect contradictions in an evidence corpus",
	Long: `credctl runs the statement scoring pipeline over a YAML corpus using an
in-memory store and prints the resulting scores, relationships,
classifications, aggregates and party profiles.

Scores are analytical aids. They are not findings of fact.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(corporaCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = buildconfig.Version()
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
