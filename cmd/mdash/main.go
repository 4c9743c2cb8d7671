package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/komsit37/mdash/pkg/mdash/config"
	"github.com/komsit37/mdash/pkg/mdash/filter"
	"github.com/komsit37/mdash/pkg/mdash/logger"
	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/pipeline"
	"github.com/komsit37/mdash/pkg/mdash/render"
	"github.com/komsit37/mdash/pkg/mdash/source"
)

// demoSessions is the length of the synthetic history used by --offline.
const demoSessions = 1300

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     *slog.Logger
	cfgFile string
	offline bool

	width int  // stdout width, 0 when not a terminal
	tty   bool // stdout is a terminal
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:          "mdash",
		Short:        "Market-data dashboard: trailing returns, RSI and a momentum screener",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./mdash.yaml or ~/.config/mdash/mdash.yaml)")
	pf.String("format", "table", "output format: "+strings.Join(render.Formats, ", "))
	pf.Bool("no-color", false, "disable colored output")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("suffix", ".NS", "exchange suffix appended to bare symbols")
	pf.String("universes-path", "", "universe YAML file or directory, or CSV file (default built-in)")
	pf.BoolVar(&a.offline, "offline", false, "use deterministic synthetic prices instead of live endpoints")
	bind(a.v, pf.Lookup("format"), "output.format")
	bind(a.v, pf.Lookup("log-level"), "log.level")
	bind(a.v, pf.Lookup("suffix"), "market.suffix")
	bind(a.v, pf.Lookup("universes-path"), "universes.path")

	root.AddCommand(
		newReportCmd(a),
		newScanCmd(a),
		newWatchCmd(a),
		newUniversesCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if f := cmd.Flags().Lookup("no-color"); f != nil && f.Changed {
		a.v.Set("output.color", false)
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format, cfg.Output.Color && isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	a.cfg, a.log = cfg, log
	a.width, a.tty = terminalWidth(os.Stdout)
	if !a.tty {
		a.width = 0
	}
	log.Debug("config loaded", slog.String("file", a.v.ConfigFileUsed()), slog.Bool("offline", a.offline))
	return nil
}

func (a *app) runner(cmd *cobra.Command) (*pipeline.Runner, error) {
	rd, err := render.New(a.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	r := &pipeline.Runner{
		Source:   source.FileSource{Suffix: a.cfg.Market.Suffix},
		Renderer: rd,
		Writer:   cmd.OutOrStdout(),
		Logger:   a.log,
		Settings: a.cfg.Settings(),
	}
	if !a.offline {
		r.Provider = a.cfg.Provider()
	}
	return r, nil
}

// useDemo switches r to synthetic data for syms when running offline.
func (a *app) useDemo(r *pipeline.Runner, syms []string) {
	if !a.offline {
		return
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	r.Provider = market.NewDemo(syms, demoSessions, end).Provider()
}

func (a *app) execOptions() pipeline.ExecuteOptions {
	return pipeline.ExecuteOptions{
		Columns:     a.cfg.Scan.Columns,
		Color:       a.cfg.Output.Color && a.tty,
		PrettyJSON:  a.cfg.Output.PrettyJSON,
		MaxColWidth: a.cfg.Output.MaxColWidth,
		TermWidth:   a.width,
	}
}

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <SYMBOL>",
		Short: "Show returns, RSI and fundamentals for one symbol",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly 1 symbol argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			a.useDemo(r, []string{r.Settings.Symbols.Normalize(args[0])})
			return r.RunReport(cmd.Context(), args[0], a.execOptions())
		},
	}
	cmd.Flags().Bool("shareholding", false, "fetch the shareholding pattern from screener.in")
	bind(a.v, cmd.Flags().Lookup("shareholding"), "market.screener.enabled")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var (
		universe string
		symbols  []string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Screen a universe for symbols with a positive 1M return and a low RSI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			f, err := filter.Parse(universe)
			if err != nil {
				return err
			}
			req := pipeline.ScanRequest{
				Spec:      a.cfg.Universes.Path,
				Filter:    f,
				Symbols:   symbols,
				Criterion: a.cfg.Criterion(),
				Period:    a.cfg.Scan.Period,
			}
			if a.offline {
				syms, err := r.Resolve(cmd.Context(), req)
				if err != nil {
					return err
				}
				a.useDemo(r, syms)
				req.Symbols = syms
			}
			if isTerminal(os.Stderr) {
				var prog *render.Progress
				req.Started = func(n int) { prog = render.NewProgress(os.Stderr, "scanning", n) }
				req.Progress = func(done, total int, sym string) { prog.Update(done, total, sym) }
				req.Finished = func() {
					if prog != nil {
						prog.Stop()
					}
				}
			}
			r.Settings.Timeout = a.cfg.Scan.Timeout
			return r.RunScan(cmd.Context(), req, a.execOptions())
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&universe, "universe", "u", "nifty50", "universe filter: name, list a,b, glob nifty*, /regex/ or !negation")
	fl.StringSliceVar(&symbols, "symbols", nil, "scan these symbols instead of a universe")
	fl.Float64("min-gain", 0, "minimum 1M return in percent (exclusive)")
	fl.Float64("max-rsi", 30, "maximum RSI (exclusive)")
	fl.StringSlice("columns", []string{"default"}, "columns or column sets: default, compact, full, sym, ticker, price, rsi, 1m%, zone")
	fl.Int("workers", 8, "concurrent fetches")
	fl.String("period", "3mo", "history range fetched per symbol")
	bind(a.v, fl.Lookup("min-gain"), "scan.min_gain_1m")
	bind(a.v, fl.Lookup("max-rsi"), "scan.max_oscillator")
	bind(a.v, fl.Lookup("columns"), "scan.columns")
	bind(a.v, fl.Lookup("workers"), "scan.workers")
	bind(a.v, fl.Lookup("period"), "scan.period")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the index panel, optionally refreshing on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			indices := r.Settings.Symbols.NormalizeAll(a.cfg.Watch.Indices)
			a.useDemo(r, indices)

			opts := a.execOptions()
			refresh := func(ctx context.Context) error {
				if a.cfg.Watch.Every != "" && a.tty {
					fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")
				}
				return r.RunWatch(ctx, indices, opts)
			}
			if err := refresh(cmd.Context()); err != nil {
				return err
			}
			if a.cfg.Watch.Every == "" {
				return nil
			}
			return pipeline.Every(cmd.Context(), a.cfg.Watch.Every, a.log, refresh)
		},
	}
	cmd.Flags().StringSlice("indices", pipeline.DefaultIndices, "index symbols to show")
	cmd.Flags().String("every", "", `refresh schedule, e.g. "@every 1m" or "*/5 9-15 * * 1-5"`)
	bind(a.v, cmd.Flags().Lookup("indices"), "watch.indices")
	bind(a.v, cmd.Flags().Lookup("every"), "watch.every")
	return cmd
}

func newUniversesCmd(a *app) *cobra.Command {
	var universe string
	cmd := &cobra.Command{
		Use:   "universes",
		Short: "List the available symbol universes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			f, err := filter.Parse(universe)
			if err != nil {
				return err
			}
			return r.RunUniverses(cmd.Context(), a.cfg.Universes.Path, f, a.execOptions())
		},
	}
	cmd.Flags().StringVarP(&universe, "universe", "u", "", "universe filter")
	return cmd
}

func bind(v *viper.Viper, f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
