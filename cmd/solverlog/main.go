package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"solverlog/internal/export"
	"solverlog/internal/report"
	"solverlog/internal/runner"
	"solverlog/internal/summary"
	"solverlog/pkg/simlog"

	"github.com/spf13/cobra"
)

var (
	maxTimeSteps    int
	maxLines        int
	stripRankPrefix bool

	outputPath string
	format     string
	table      string

	runLogPath string
	runLive    bool
	thenParse  bool
)

var rootCmd = &cobra.Command{
	Use:   "solverlog",
	Short: "solverlog - solver progress-log parsing and tabulation",
	Long: `solverlog reads the textual progress log of a numerical simulation solver,
reconstructs the run (time steps, nonlinear iterations, convergence records)
and exports it as flat rows for tabular analysis.`,
}

// parseOptions collects the flags shared by all log-reading subcommands.
func parseOptions() simlog.Options {
	return simlog.Options{
		MaxTimeSteps:    maxTimeSteps,
		MaxLines:        maxLines,
		StripRankPrefix: stripRankPrefix,
	}
}

// openOutput returns the writer for --output, stdout for "" or "-".
func openOutput() (*os.File, func(), error) {
	if outputPath == "" || outputPath == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

var parseCmd = &cobra.Command{
	Use:   "parse <logfile>",
	Short: "Parse a solver log and export the convergence rows",
	Long: `Parse a solver log and export one row per convergence measurement.

Formats: ` + strings.Join(export.Formats(), ", ") + `. The sqlite format writes to the
file given with --output instead of streaming.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := simlog.ParseFile(args[0], parseOptions())
		if err != nil {
			return err
		}

		if format == "sqlite" {
			if outputPath == "" || outputPath == "-" {
				return fmt.Errorf("the sqlite format needs --output pointing at a database file")
			}
			return export.WriteSQLite(outputPath, table, sim)
		}

		out, closeOut, err := openOutput()
		if err != nil {
			return err
		}
		defer closeOut()
		return export.Write(format, out, sim)
	},
}

var summaryCmd = &cobra.Command{
	Use:           "summary <logfile>",
	Short:         "Print a per-time-step digest of a solver log",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := simlog.ParseFile(args[0], parseOptions())
		if err != nil {
			return err
		}
		return summary.Write(os.Stdout, sim)
	},
}

var reportCmd = &cobra.Command{
	Use:           "report <logfile>",
	Short:         "Render an HTML report of a solver log",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := simlog.ParseFile(args[0], parseOptions())
		if err != nil {
			return err
		}
		out, closeOut, err := openOutput()
		if err != nil {
			return err
		}
		defer closeOut()
		return report.WriteHTML(out, sim)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <solver> [args...]",
	Short: "Run the solver, capture its log, and optionally parse it",
	Long: `Run the solver binary, capture its combined output to a log file and report
exit code, wall time and peak resource usage. With --then-parse the captured
log is parsed and written as CSV next to it.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.Run(cmd.Context(), runner.Options{
			Command:     args[0],
			Args:        args[1:],
			LogPath:     runLogPath,
			Live:        runLive,
			SampleEvery: 500 * time.Millisecond,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "solver exited with code %d after %s (peak RSS %.1f MB)\n",
			res.ExitCode, res.WallTime.Round(time.Millisecond), float64(res.PeakRSS)/(1024*1024))

		if !thenParse {
			if res.ExitCode != 0 {
				os.Exit(res.ExitCode)
			}
			return nil
		}

		sim, err := simlog.ParseFile(runLogPath, parseOptions())
		if err != nil {
			return err
		}
		csvPath := strings.TrimSuffix(runLogPath, ".log") + ".csv"
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating csv file: %w", err)
		}
		defer f.Close()
		if err := export.WriteCSV(f, sim); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", csvPath)
		if res.ExitCode != 0 {
			os.Exit(res.ExitCode)
		}
		return nil
	},
}

func addParseFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&maxTimeSteps, "max-timesteps", 0, "Stop at the first time step with a larger number (0 = unbounded)")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Stop at the first time-step boundary past this many lines (0 = unbounded)")
	cmd.Flags().BoolVar(&stripRankPrefix, "strip-rank-prefix", false, "Strip the leading '[0] ' rank marker of parallel runs before parsing")
}

func init() {
	addParseFlags(parseCmd)
	parseCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout; required for sqlite)")
	parseCmd.Flags().StringVar(&format, "format", "csv", "Output format: "+strings.Join(export.Formats(), ", "))
	parseCmd.Flags().StringVar(&table, "table", export.DefaultTable, "Table name for the sqlite format")

	addParseFlags(summaryCmd)

	addParseFlags(reportCmd)
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")

	addParseFlags(runCmd)
	runCmd.Flags().StringVar(&runLogPath, "log", "solver.log", "File the solver output is captured to")
	runCmd.Flags().BoolVar(&runLive, "live", false, "Run the solver under a pty and mirror its output while capturing")
	runCmd.Flags().BoolVar(&thenParse, "then-parse", false, "Parse the captured log and write a CSV next to it")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
