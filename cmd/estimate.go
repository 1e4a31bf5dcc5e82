package cmd

import (
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mc-integrator/integrator"
	"mc-integrator/metrics"
)

type estimateFlags struct {
	jobFlags
	exportPath  string
	metricsPath string
	summary     bool
}

func newEstimateCommand(g *globalFlags) *cobra.Command {
	f := &estimateFlags{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate an integral and its error bar",
		Example: `  mcint estimate --region 0:1 --func x0
  mcint estimate -r 0:1,0:2 -f "x0 * x1" -n 1000000 --no-round --seed 7
  mcint estimate --config job.yaml --export result.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, g, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.exportPath, "export", "", "write the result as JSON to this path")
	cmd.Flags().StringVar(&f.metricsPath, "metrics-file", "", "write Prometheus metrics in text format to this path")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "print the run metrics summary")
	return cmd
}

func runEstimate(cmd *cobra.Command, g *globalFlags, f *estimateFlags) error {
	j, err := f.resolve(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := g.newLogger(j.cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer closeLog()

	collector := metrics.NewCollector()
	collector.Start()

	log.Info("estimating integral",
		zap.String("name", j.cfg.Name),
		zap.String("region", j.region.String()),
		zap.String("function", j.expr.String()),
		zap.Int("samples", j.cfg.Samples),
		zap.Uint64("seed", j.seed))

	est := integrator.New(
		integrator.WithSeed(j.seed),
		integrator.WithPrecision(j.precision()),
		integrator.WithLogger(log),
		integrator.WithRecorder(collector),
	)
	res, err := est.Estimate(cmd.Context(), j.region, j.target(), j.cfg.Samples)
	collector.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Estimate", strconv.FormatFloat(res.Value, 'g', 10, 64)})
	table.Append([]string{"Error bar", strconv.FormatFloat(res.Error, 'g', 6, 64)})
	if j.cfg.Expected != nil {
		table.Append([]string{"Expected", strconv.FormatFloat(*j.cfg.Expected, 'g', 10, 64)})
		table.Append([]string{"Abs error", strconv.FormatFloat(math.Abs(res.Value-*j.cfg.Expected), 'g', 6, 64)})
	}
	table.Append([]string{"Samples", strconv.Itoa(res.Samples)})
	table.Append([]string{"Volume", strconv.FormatFloat(res.Volume, 'g', 10, 64)})
	table.Append([]string{"Variance", strconv.FormatFloat(res.Variance, 'g', 6, 64)})
	table.Append([]string{"Duration", res.Duration.String()})
	table.Render()

	if f.summary {
		collector.PrintSummary(out)
	}
	if f.exportPath != "" {
		if err := saveJSON(f.exportPath, res); err != nil {
			return err
		}
		log.Info("result exported", zap.String("path", f.exportPath))
	}
	if f.metricsPath != "" {
		if err := collector.WriteTextfile(f.metricsPath); err != nil {
			return err
		}
		log.Info("metrics written", zap.String("path", f.metricsPath))
	}
	return nil
}
