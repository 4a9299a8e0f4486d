/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/export"
	"github.com/redneckbeard/rbprof/ir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/tools/txtar"
)

var TestDir, TestCase string

const (
	programFile  = "program.yaml"
	expectedFile = "expected"
)

// runFixture analyzes the program in a fixture archive, with the other
// archive members available to require_relative, and returns the report
// next to the one the archive expects.
func runFixture(ar *txtar.Archive) (got, want string, err error) {
	mem := afero.NewMemMapFs()
	for _, f := range ar.Files {
		if f.Name == expectedFile {
			want = string(f.Data)
			continue
		}
		if err := afero.WriteFile(mem, "/"+f.Name, f.Data, 0644); err != nil {
			return "", "", err
		}
	}
	main, err := ir.Load(mem, "/"+programFile)
	if err != nil {
		return "", "", err
	}
	res, err := analyzer.New(analyzer.Config{Logger: logger, Fs: mem}).Analyze(context.Background(), main)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, res, export.Options{ShowErrors: true}); err != nil {
		return "", "", err
	}
	return buf.String(), want, nil
}

func runTest(path, name string) bool {
	fmt.Printf("Running test '%s': ", name)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		color.Red("FAIL\n    ")
		color.Red(err.Error())
		return false
	}
	got, want, err := runFixture(txtar.Parse(data))
	if err != nil {
		color.Red("FAIL\n    ")
		color.Red(errors.Wrap(err, path).Error())
		return false
	} else if diff := cmp.Diff(want, got); diff != "" {
		color.Red(`FAIL

%s
Report:
-------
%s`, diff, got)
		return false
	} else {
		color.Green("PASS")
		return true
	}
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "runs rbprof smoke tests",
	Long: `Runs the rbprof smoke suite. Every .txtar archive in the test directory
	holds a program.yaml to analyze, an expected report, and optionally further
	files the program loads with require_relative. The runner analyzes each
	program (or only the one named with -g) and compares the report it renders
	against the expected one.`,
	Run: func(cmd *cobra.Command, args []string) {
		archives, err := afero.Glob(fs, filepath.Join(TestDir, "*.txtar"))
		if err != nil {
			fmt.Println(err)
			return
		}
		sort.Strings(archives)
		tests := map[string]string{}
		var names []string
		for _, path := range archives {
			name := strings.TrimSuffix(filepath.Base(path), ".txtar")
			tests[name] = path
			names = append(names, name)
		}
		if TestCase != "" {
			if path, ok := tests[TestCase]; ok {
				runTest(path, TestCase)
			} else {
				fmt.Println("Could not find test:", TestCase)
			}
		} else {
			var passes, fails int
			for _, name := range names {
				if runTest(tests[name], name) {
					passes++
				} else {
					fails++
				}
			}
			summary := fmt.Sprintf("\n%d passing tests, %d failures\n", passes, fails)
			if fails > 0 {
				color.Red(summary)
			} else {
				color.Green(summary)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringVarP(&TestDir, "dir", "d", "tests", "Directory where smoke test archives are located")
	testCmd.Flags().StringVarP(&TestCase, "gauntlet", "g", "", "Runs only the test with the given name")
}
