package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mc-integrator/evaluation"
	"mc-integrator/metrics"
)

type convergeFlags struct {
	jobFlags
	outputDir   string
	workers     int
	replicates  int
	counts      []int
	scalability []int
}

func newConvergeCommand(g *globalFlags) *cobra.Command {
	f := &convergeFlags{}
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Run a convergence study over increasing sample counts",
		Example: `  mcint converge --config job.yaml
  mcint converge -r 0:1 -f "x*x" --expected 0.333333 --counts 100,1000,10000 --replicates 20
  mcint converge --config job.yaml --scalability 1,2,4,8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConverge(cmd, g, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "evaluation_results", "output directory for results")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent replicate runs (0 means one per CPU)")
	cmd.Flags().IntVar(&f.replicates, "replicates", 0, "independent runs per sample count (overrides config)")
	cmd.Flags().IntSliceVar(&f.counts, "counts", nil, "sample counts to study (overrides config)")
	cmd.Flags().IntSliceVar(&f.scalability, "scalability", nil, "also time the study at these worker counts")
	return cmd
}

func runConverge(cmd *cobra.Command, g *globalFlags, f *convergeFlags) error {
	j, err := f.resolve(cmd)
	if err != nil {
		return err
	}
	if len(f.counts) > 0 {
		j.cfg.Study.SampleCounts = f.counts
	}
	if f.replicates > 0 {
		j.cfg.Study.Replicates = f.replicates
	}
	if cmd.Flags().Changed("workers") {
		j.cfg.Study.Workers = f.workers
	}
	if err := j.cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := g.newLogger(j.cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer closeLog()

	name := j.cfg.Name
	if name == "" {
		name = j.expr.String()
	}
	collector := metrics.NewCollector()
	study := evaluation.StudyConfig{
		Name:         name,
		Region:       j.region,
		Func:         j.target(),
		SampleCounts: j.cfg.Study.SampleCounts,
		Replicates:   j.cfg.Study.Replicates,
		Workers:      j.cfg.Study.Workers,
		Precision:    j.precision(),
		Seed:         j.seed,
		Expected:     j.cfg.Expected,
		Logger:       log,
		Recorder:     collector,
	}

	collector.Start()
	res, err := evaluation.RunStudy(cmd.Context(), study)
	collector.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	evaluation.PrintReport(out, res)
	collector.PrintSummary(out)

	base := "convergence_" + fileSafe(name)
	if err := saveJSON(filepath.Join(f.outputDir, base+".json"), res); err != nil {
		return err
	}
	if err := saveJSON(filepath.Join(f.outputDir, base+"_metrics.json"), collector.GetSummary()); err != nil {
		return err
	}

	if len(f.scalability) > 0 {
		study.Recorder = nil
		scaling, err := evaluation.RunScalabilityTest(cmd.Context(), study, f.scalability)
		if err != nil {
			return err
		}
		evaluation.PrintScalingReport(out, scaling)
		if err := saveJSON(filepath.Join(f.outputDir, base+"_scalability.json"), scaling); err != nil {
			return err
		}
	}

	log.Info("convergence study saved", zap.String("dir", f.outputDir), zap.String("study_id", res.ID))
	fmt.Fprintf(out, "\nResults saved to: %s\n", f.outputDir)
	return nil
}

// fileSafe keeps letters, digits, '-' and '_' and replaces everything else.
func fileSafe(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if s == "" {
		return "study"
	}
	return s
}
