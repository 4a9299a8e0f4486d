/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Debug bool

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "rbprof",
	Short: "Infers method signatures for Ruby programs",
	Long: `rbprof runs an abstract interpreter over a whole Ruby program, given as
	compiled instruction sequences, and reports the argument and return types
	of every method it reaches along with the errors it found on the way.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !Debug && os.Getenv("DEBUG") == "" {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Log analysis progress to stderr (also enabled by the DEBUG environment variable)")
}
