package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mc-integrator/config"
	"mc-integrator/expr"
	"mc-integrator/integrator"
	"mc-integrator/random"
	"mc-integrator/region"
	"mc-integrator/sampler"
)

// jobFlags are the flags shared by commands that run estimations. Flags that
// were set explicitly override the job file.
type jobFlags struct {
	configPath string
	region     string
	function   string
	samples    int
	precision  int
	noRound    bool
	seed       uint64
	expected   float64
}

func (f *jobFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "path to a YAML job file")
	flags.StringVarP(&f.region, "region", "r", "", `region as lower:upper pairs, e.g. "0:1,-1:1"`)
	flags.StringVarP(&f.function, "func", "f", "", `integrand expression, e.g. "x0 * sin(x1)"`)
	flags.IntVarP(&f.samples, "samples", "n", config.DefaultSamples, "number of sampled points")
	flags.IntVar(&f.precision, "precision", sampler.DefaultPrecision, "fractional digits kept per sampled coordinate")
	flags.BoolVar(&f.noRound, "no-round", false, "sample unrounded coordinates")
	flags.Uint64Var(&f.seed, "seed", 0, "seed for reproducible runs (random when unset)")
	flags.Float64Var(&f.expected, "expected", 0, "analytic value to compare against")
}

// job is a fully resolved estimation job.
type job struct {
	cfg    *config.Config
	region region.Region
	expr   *expr.Expression
	seed   uint64
}

func (j *job) precision() int {
	return *j.cfg.Precision
}

func (j *job) target() integrator.Func {
	return j.expr.Func()
}

func (f *jobFlags) resolve(cmd *cobra.Command) (*job, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("region") {
		r, err := region.Parse(f.region)
		if err != nil {
			return nil, err
		}
		cfg.Region = make([][]float64, len(r))
		for i, b := range r {
			cfg.Region[i] = []float64{b.Lower, b.Upper}
		}
	}
	if changed("func") {
		cfg.Function = f.function
	}
	if changed("samples") || cfg.Samples == 0 {
		cfg.Samples = f.samples
	}
	if changed("precision") {
		p := f.precision
		cfg.Precision = &p
	}
	if f.noRound {
		p := sampler.NoRounding
		cfg.Precision = &p
	}
	if changed("seed") {
		s := f.seed
		cfg.Seed = &s
	}
	if changed("expected") {
		e := f.expected
		cfg.Expected = &e
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r, err := cfg.ToRegion()
	if err != nil {
		return nil, err
	}
	e, err := expr.Compile(cfg.Function, r.Dims())
	if err != nil {
		return nil, err
	}

	seed := uint64(0)
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else if seed, err = random.NewSeed(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	return &job{cfg: cfg, region: r, expr: e, seed: seed}, nil
}
