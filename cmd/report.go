/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/export"
	"github.com/spf13/cobra"
)

var className string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report on the methods of built-in types",
	Long: `Lists the library classes and modules the analyzer knows about together
	with the signatures of their methods. Methods computed per call site are shown
	as taking and returning untyped.`,
	Run: func(cmd *cobra.Command, args []string) {
		reg := analyzer.New(analyzer.Config{Logger: logger}).Registry
		if err := export.WriteBuiltins(os.Stdout, reg, className); err != nil {
			fmt.Printf("Class '%s' not found in rbprof class registry.\n", className)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&className, "class", "c", "", "Ruby class report will be generated for (defaults to all built-in classes)")
}
