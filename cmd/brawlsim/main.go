package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brawlsim/internal/combat"
	"brawlsim/internal/config"
	"brawlsim/internal/narrator"
	"brawlsim/internal/progression"
	"brawlsim/internal/roster"
	"brawlsim/internal/util"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	configPath string
	assets     string
	mode       string
	out        string
	name       string
	class      string
	seed       int64
	n          int
	record     bool
	manual     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.configPath, "config", "assets/brawlsim.toml", "runtime settings (TOML); empty for defaults")
	flag.StringVar(&o.assets, "assets", "", "game data dir (overrides config)")
	flag.StringVar(&o.mode, "mode", "single", "watch | single | batch")
	flag.StringVar(&o.out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&o.name, "name", "Cyber Shogun", "player brawler name")
	flag.StringVar(&o.class, "class", "Crimson Brute", "player class; empty picks at random per battle in batch mode")
	flag.Int64Var(&o.seed, "seed", 0, "seed (overrides config; 0 keeps config)")
	flag.IntVar(&o.n, "n", 100, "number of battles in batch mode")
	flag.BoolVar(&o.record, "log", true, "save full event log in single mode")
	flag.BoolVar(&o.manual, "manual", false, "watch mode: start with auto-battle off and read actions from stdin")
	flag.Parse()

	cfg := config.Defaults()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	if o.assets != "" {
		cfg.Assets = o.assets
	}
	if o.seed != 0 {
		cfg.Battle.Seed = o.seed
	}
	if cfg.Battle.Seed == 0 {
		cfg.Battle.Seed = time.Now().UnixNano()
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	data, err := config.LoadAll(cfg.Assets)
	if err != nil {
		return fmt.Errorf("load game data: %w", err)
	}
	catalog, err := combat.NewCatalog(data.Effects)
	if err != nil {
		return fmt.Errorf("effects: %w", err)
	}
	classes, err := combat.NewClassBook(data.Classes, catalog)
	if err != nil {
		return fmt.Errorf("classes: %w", err)
	}
	log.Info("game data loaded",
		zap.String("assets", cfg.Assets),
		zap.Int("effects", len(catalog.Keys())),
		zap.Strings("classes", classes.Names()),
		zap.Int64("seed", cfg.Battle.Seed),
	)

	g := &game{cfg: cfg, data: data, catalog: catalog, classes: classes, log: log}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch o.mode {
	case "watch":
		return g.watch(ctx, o)
	case "single":
		return g.single(ctx, o)
	case "batch":
		return g.batch(ctx, o)
	default:
		return fmt.Errorf("unknown mode %q", o.mode)
	}
}

// game bundles what every mode needs.
type game struct {
	cfg     *config.Settings
	data    *config.GameData
	catalog *combat.Catalog
	classes *combat.ClassBook
	log     *zap.Logger
}

// world is the per-battle set of seeded collaborators.
type world struct {
	rng      util.Rand
	factory  *roster.Factory
	progress *progression.Service
}

func (g *game) newWorld(seed int64, log *zap.Logger) (*world, error) {
	rng := util.New(seed)
	prog, err := progression.NewService(g.data.Arena, g.classes, rng,
		progression.WithLogger(log),
		progression.WithRates(g.cfg.Rates),
	)
	if err != nil {
		return nil, err
	}
	f := roster.NewFactory(g.classes, prog.Ladder(), g.data.Arena, rng, log)
	return &world{rng: rng, factory: f, progress: prog}, nil
}

func (g *game) engine(rng util.Rand, n combat.Narrator, log *zap.Logger) *combat.Engine {
	return combat.NewEngine(g.catalog, rng,
		combat.WithNarrator(n),
		combat.WithLogger(log),
		combat.WithMaxTurns(g.cfg.Battle.MaxTurns),
		combat.WithLogCap(g.cfg.Battle.LogCap),
		combat.WithPotionHeal(g.data.Arena.PotionHeal),
	)
}

func (g *game) single(ctx context.Context, o options) error {
	w, err := g.newWorld(g.cfg.Battle.Seed, g.log)
	if err != nil {
		return err
	}
	player, opp, err := matchup(w.factory, o.name, o.class, w.rng, g.classes)
	if err != nil {
		return err
	}
	n, release := narrator.New(g.cfg.Narrator, g.log)
	defer release()

	res, err := combat.RunSingle(ctx, g.engine(w.rng, n, g.log), player, opp, o.record)
	if err != nil {
		return err
	}
	rewards, err := w.progress.Apply(res.Outcome, player, opp)
	if err != nil {
		return err
	}

	report := map[string]any{"battle": res, "rewards": rewards, "tokens": w.progress.Tokens()}
	if err := os.WriteFile(o.out, combat.MarshalPretty(report), 0644); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	fmt.Printf("Single battle finished. %s vs %s: win=%v turns=%d (%s) -> %s\n",
		player.Name, opp.Name, res.Win, res.Turns, res.Reason, o.out)
	return nil
}

// matchup creates the player brawler and finds an opponent for it. An empty
// class picks one at random.
func matchup(f *roster.Factory, name, class string, rng util.Rand, classes *combat.ClassBook) (*combat.Combatant, *combat.Combatant, error) {
	if class == "" {
		names := classes.Names()
		if len(names) == 0 {
			return nil, nil, roster.ErrNoClasses
		}
		class = names[rng.Intn(len(names))]
	}
	player, err := f.NewBrawler(name, class)
	if err != nil {
		return nil, nil, err
	}
	opp, err := f.Matchmake(player)
	if err != nil {
		return nil, nil, err
	}
	return player, opp, nil
}

func newLogger(cfg config.LoggingSettings) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, combat.ErrBattleCancelled)
}
