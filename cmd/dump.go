/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/redneckbeard/rbprof/ir"
	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Disassembles the input",
	Long: `'rbprof dump' loads the instruction sequences in FILE and prints them with
	resolved jump targets and nested bodies. Useful for checking what a front
	end produced before analyzing it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		main, err := ir.Load(fs, args[0])
		if err != nil {
			color.Red(err.Error())
			return
		}
		fmt.Print(main.Disasm())
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
