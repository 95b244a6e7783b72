package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godilite/astromatch/internal/app"
	"github.com/godilite/astromatch/internal/config"
	"github.com/godilite/astromatch/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type synastry interface {
	BuildChart(ctx context.Context, d service.BirthDetails) (service.ChartResult, error)
	Match(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error)
	QuickMatch(sign1, sign2 string) service.QuickResult
}

type globalFlags struct {
	offline bool
	verbose bool
	dbPath  string
	envFile string
}

// serviceFactory builds the service for one invocation and returns its closer.
type serviceFactory func(ctx context.Context, g *globalFlags) (synastry, func() error, error)

func defaultFactory(ctx context.Context, g *globalFlags) (synastry, func() error, error) {
	cfg := config.Load(g.envFile)
	if g.offline {
		cfg.Geocoder.Enabled = false
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}

	logger := zap.NewNop()
	if g.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}

	core, err := app.NewCore(ctx, cfg, logger, nil)
	if err != nil {
		return nil, nil, err
	}
	return core.Synastry, func() error {
		_ = logger.Sync()
		return core.Close()
	}, nil
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "astro",
		Short:         "Natal charts and synastry scores",
		Long:          "astro computes tropical natal charts and compatibility scores between two people.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&g.offline, "offline", false, "never query the network geocoder")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "geocode cache database (default $DB_PATH)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file to load")

	withService := func(cmd *cobra.Command, fn func(s synastry) (any, error)) error {
		s, closeFn, err := factory(cmd.Context(), g)
		if err != nil {
			return err
		}
		defer closeFn()

		out, err := fn(s)
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	}

	root.AddCommand(newChartCmd(withService), newMatchCmd(withService), newQuickCmd(withService))
	return root
}

type personFlags struct {
	date, time, city string
	lat, lon         float64
	prefix           string
}

func (p *personFlags) register(cmd *cobra.Command, prefix, who string) {
	p.prefix = prefix
	cmd.Flags().StringVar(&p.date, prefix+"date", "", "birth date of "+who+" (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.time, prefix+"time", "", "birth time of "+who+", e.g. 14:30 or 2:30 PM")
	cmd.Flags().StringVar(&p.city, prefix+"city", "", "birth city of "+who)
	cmd.Flags().Float64Var(&p.lat, prefix+"lat", 0, "birth latitude of "+who)
	cmd.Flags().Float64Var(&p.lon, prefix+"lon", 0, "birth longitude of "+who)
	_ = cmd.MarkFlagRequired(prefix + "date")
	cmd.MarkFlagsRequiredTogether(prefix+"lat", prefix+"lon")
}

func (p *personFlags) details(cmd *cobra.Command) service.BirthDetails {
	d := service.BirthDetails{Date: p.date, Time: p.time, City: p.city}
	if cmd.Flags().Changed(p.prefix + "lat") {
		lat, lon := p.lat, p.lon
		d.Latitude, d.Longitude = &lat, &lon
	}
	return d
}

func newChartCmd(withService func(*cobra.Command, func(synastry) (any, error)) error) *cobra.Command {
	var person personFlags
	var houses bool

	cmd := &cobra.Command{
		Use:     "chart",
		Short:   "Compute a natal chart",
		Example: "  astro chart --date 1990-07-15 --time 14:30 --city Paris --houses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(s synastry) (any, error) {
				d := person.details(cmd)
				d.IncludeHouses = houses
				return s.BuildChart(cmd.Context(), d)
			})
		},
	}
	person.register(cmd, "", "the person")
	cmd.Flags().BoolVar(&houses, "houses", false, "include equal-house cusps")
	return cmd
}

func newMatchCmd(withService func(*cobra.Command, func(synastry) (any, error)) error) *cobra.Command {
	var a, b personFlags

	cmd := &cobra.Command{
		Use:     "match",
		Short:   "Score compatibility between two people",
		Example: "  astro match --a-date 1990-07-15 --a-city Paris --b-date 1992-03-02 --b-city Tokyo",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(s synastry) (any, error) {
				return s.Match(cmd.Context(), a.details(cmd), b.details(cmd))
			})
		},
	}
	a.register(cmd, "a-", "person A")
	b.register(cmd, "b-", "person B")
	return cmd
}

func newQuickCmd(withService func(*cobra.Command, func(synastry) (any, error)) error) *cobra.Command {
	return &cobra.Command{
		Use:     "quick SIGN1 SIGN2",
		Short:   "Element-based compatibility from two sun signs",
		Example: "  astro quick Aries Gemini",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(s synastry) (any, error) {
				return s.QuickMatch(args[0], args[1]), nil
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
