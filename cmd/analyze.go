package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/chroma/quick"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/export"
	"github.com/redneckbeard/rbprof/ir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	Output       string
	MaxIteration int
	MaxSecond    float64
	ShowErrors   bool
	ShowBuiltins bool
	Stat         bool
	Trace        bool
	ColorMode    string
)

var fs = afero.NewOsFs()

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Report the inferred signatures of a program",
	Long: `Loads the instruction sequences in FILE (YAML), analyzes the program from its
	top-level body and prints one block per class or module listing the
	signatures of every method that was reached. Files loaded with
	require_relative are resolved next to FILE.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		main, err := ir.Load(fs, args[0])
		if err != nil {
			return err
		}
		cfg := analyzer.Config{
			MaxIterations: MaxIteration,
			MaxDuration:   time.Duration(MaxSecond * float64(time.Second)),
			Logger:        logger,
			Trace:         Trace,
			Fs:            fs,
		}
		res, err := analyzer.New(cfg).Analyze(context.Background(), main)
		if err != nil {
			return err
		}
		if res.Stats.Aborted {
			color.New(color.FgYellow).Fprintln(os.Stderr, "analysis stopped early; the report is incomplete")
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, res, export.Options{ShowErrors: ShowErrors, Builtins: ShowBuiltins}); err != nil {
			return err
		}
		if Output != "" {
			if err := afero.WriteFile(fs, Output, buf.Bytes(), 0644); err != nil {
				return errors.Wrapf(err, "writing %s", Output)
			}
		} else if err := printReport(os.Stdout, buf.String()); err != nil {
			return err
		}
		if Stat {
			printStats(os.Stderr, res.Stats)
		}
		return nil
	},
}

func useColor(f *os.File) (bool, error) {
	switch ColorMode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	}
	return false, errors.Errorf("unknown color mode %q (want auto, always or never)", ColorMode)
}

// printReport highlights the report as Ruby signatures when stdout is a
// terminal.
func printReport(f *os.File, report string) error {
	colored, err := useColor(f)
	if err != nil {
		return err
	}
	if !colored {
		_, err := io.WriteString(f, report)
		return err
	}
	return quick.Highlight(f, report, "ruby", "terminal256", "monokai")
}

func printStats(w io.Writer, st analyzer.Stats) {
	fmt.Fprintln(w, "# Analysis stats")
	fmt.Fprintf(w, "  iterations: %s\n", humanize.Comma(int64(st.Iterations)))
	fmt.Fprintf(w, "  execution points: %s\n", humanize.Comma(int64(st.Points)))
	fmt.Fprintf(w, "  contexts: %s\n", humanize.Comma(int64(st.Contexts)))
	fmt.Fprintf(w, "  elapsed: %s\n", st.Duration.Round(time.Millisecond))
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&Output, "output", "o", "", "Destination for the report (defaults to stdout)")
	analyzeCmd.Flags().IntVar(&MaxIteration, "max-iteration", 0, "Stop after this many analysis steps (0 means no limit)")
	analyzeCmd.Flags().Float64Var(&MaxSecond, "max-second", 0, "Stop after this many seconds (0 means no limit)")
	analyzeCmd.Flags().BoolVar(&ShowErrors, "show-errors", false, "Include errors and warnings in the report")
	analyzeCmd.Flags().BoolVar(&ShowBuiltins, "show-builtins", false, "Include builtin classes that gained methods or variables")
	analyzeCmd.Flags().BoolVar(&Stat, "stat", false, "Print analysis statistics to stderr")
	analyzeCmd.Flags().BoolVar(&Trace, "trace", false, "Log every analysis step (requires --debug)")
	analyzeCmd.Flags().StringVar(&ColorMode, "color", "auto", "Highlight the report: auto, always or never")
}
