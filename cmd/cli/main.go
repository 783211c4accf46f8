package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"propztest/adapters/excel"
	"propztest/domain/stats"
	"propztest/internal"
	"propztest/internal/config"
	"propztest/internal/ztest"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// testFlags are shared by every command that runs a test.
type testFlags struct {
	alpha      float64
	convention string
	strict     bool
	minN       int
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "propztest",
		Short:         "Two-proportion z-test with a pooled variance estimate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newFileCmd(),
	)
	return rootCmd
}

func newEvaluateCmd() *cobra.Command {
	flags := &testFlags{}

	cmd := &cobra.Command{
		Use:   "evaluate [value1] [n1] [value2] [n2]",
		Short: "Test whether two success rates differ",
		Long: `Test whether two independent binomial samples share a success probability.

Values above 1 are read as success counts, values in [0, 1] as proportions,
unless --convention says otherwise.

Example: propztest evaluate 0.1 100 0.5 100
         propztest evaluate 30 100 50 100 --alpha 0.01 --json`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums := make([]float64, len(args))
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("argument %d (%q) is not a number", i+1, arg)
				}
				nums[i] = v
			}

			sample1, err := ztest.SampleFromPair(1, nums[0:2])
			if err != nil {
				return err
			}
			sample2, err := ztest.SampleFromPair(2, nums[2:4])
			if err != nil {
				return err
			}
			tester, err := testerFor(cmd, flags)
			if err != nil {
				return err
			}
			return runTest(cmd, tester, flags.jsonOut, sample1, sample2)
		},
	}

	bindTestFlags(cmd, flags)
	return cmd
}

func newFileCmd() *cobra.Command {
	flags := &testFlags{}
	var spec excel.ColumnSpec

	cmd := &cobra.Command{
		Use:   "file [path]",
		Short: "Test two columns of 0/1 outcomes from an .xlsx or .csv file",
		Long: `Read per-observation outcomes (1/0, true/false, yes/no) from two named
columns and test whether their success rates differ. Blank cells are skipped.

Example: propztest file results.xlsx --col-a control --col-b treatment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tester, err := testerFor(cmd, flags)
			if err != nil {
				return err
			}
			spec.Convention = tester.Config().Convention

			logger := internal.NewDefaultLogger()
			sample1, sample2, err := excel.NewObservationReader(args[0], logger).ReadSamples(spec)
			if err != nil {
				return err
			}
			return runTest(cmd, tester, flags.jsonOut, sample1, sample2)
		},
	}

	cmd.Flags().StringVar(&spec.ColumnA, "col-a", "", "Column holding the first sample's outcomes")
	cmd.Flags().StringVar(&spec.ColumnB, "col-b", "", "Column holding the second sample's outcomes")
	cmd.Flags().StringVar(&spec.Sheet, "sheet", "", "Sheet name for .xlsx files (default: first sheet)")
	_ = cmd.MarkFlagRequired("col-a")
	_ = cmd.MarkFlagRequired("col-b")
	bindTestFlags(cmd, flags)
	return cmd
}

func bindTestFlags(cmd *cobra.Command, flags *testFlags) {
	cmd.Flags().Float64Var(&flags.alpha, "alpha", 0, "Significance level (default: ZTEST_ALPHA or 0.05)")
	cmd.Flags().StringVar(&flags.convention, "convention", "", "auto|proportions|counts (default: ZTEST_CONVENTION or auto)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail instead of warning when n is below the minimum")
	cmd.Flags().IntVar(&flags.minN, "min-n", 0, "Minimum sample size (default: ZTEST_MIN_SAMPLE_SIZE or 10)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the result as JSON")
}

// testerFor merges environment configuration with explicitly set flags.
func testerFor(cmd *cobra.Command, flags *testFlags) (*ztest.Tester, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	tc := cfg.Test.Tester()
	if cmd.Flags().Changed("alpha") {
		tc.Alpha = flags.alpha
	}
	if cmd.Flags().Changed("min-n") {
		tc.MinSampleSize = flags.minN
	}
	if cmd.Flags().Changed("strict") {
		tc.StrictSampleSize = flags.strict
	}
	if cmd.Flags().Changed("convention") {
		convention, err := stats.ParseConvention(flags.convention)
		if err != nil {
			return nil, err
		}
		tc.Convention = convention
	}

	return ztest.NewTester(tc, internal.NewLogger(cfg.LogLevel))
}

func runTest(cmd *cobra.Command, tester *ztest.Tester, jsonOut bool, sample1, sample2 *stats.Sample) error {
	result, err := tester.Evaluate(sample1, sample2)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), sample1, sample2, result)
	return nil
}

func printResult(w io.Writer, sample1, sample2 *stats.Sample, r *stats.Result) {
	decision := "fail to reject H0 (no significant difference)"
	if r.Rejected {
		decision = "reject H0 (success rates differ)"
	}

	fmt.Fprintf(w, "sample 1:    %s -> p1=%.6g\n", sample1, r.P1)
	fmt.Fprintf(w, "sample 2:    %s -> p2=%.6g\n", sample2, r.P2)
	fmt.Fprintf(w, "pooled p:    %.6g (se=%.6g)\n", r.PooledP, r.PooledSE)
	fmt.Fprintf(w, "z-statistic: %.6g\n", r.ZStatistic)
	fmt.Fprintf(w, "p-value:     %.6g\n", r.PValue)
	fmt.Fprintf(w, "thresholds:  [%.6g, %.6g] at alpha=%g\n", r.CriticalLow, r.CriticalHigh, r.Alpha)
	fmt.Fprintf(w, "decision:    %s\n", decision)
	for _, n := range r.Notices {
		fmt.Fprintf(w, "%s: sample %d: %s\n", n.Level, n.Sample, n.Message)
	}
}
