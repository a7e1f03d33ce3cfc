package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"brawlsim/internal/combat"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batchStats struct {
	Runs       int
	Wins       int
	Stalemates int
	SumTurns   int
	BySkill    map[string]float64
	WinsVs     map[string]int
	FightsVs   map[string]int
}

// batch runs o.n independent battles on a worker pool. Each battle gets its
// own seeded source, engine and brawlers; only the summary is shared.
func (g *game) batch(ctx context.Context, o options) error {
	if o.n <= 0 {
		return fmt.Errorf("batch needs -n > 0, got %d", o.n)
	}
	st := batchStats{
		BySkill:  map[string]float64{},
		WinsVs:   map[string]int{},
		FightsVs: map[string]int{},
	}
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Batch.Workers)
	quiet := g.log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))

	for i := 0; i < o.n; i++ {
		i := i
		seed := g.cfg.Battle.Seed + int64(i)*7919
		eg.Go(func() error {
			w, err := g.newWorld(seed, quiet)
			if err != nil {
				return err
			}
			player, opp, err := matchup(w.factory, o.name, o.class, w.rng, g.classes)
			if err != nil {
				return err
			}
			res, err := combat.RunSingle(ctx, g.engine(w.rng, combat.Templates{}, quiet), player, opp, false)
			if err != nil {
				return fmt.Errorf("battle %d: %w", i, err)
			}

			mu.Lock()
			defer mu.Unlock()
			st.Runs++
			if res.Win {
				st.Wins++
				st.WinsVs[opp.Class]++
			}
			if res.Reason == combat.ReasonStalemate {
				st.Stalemates++
			}
			st.FightsVs[opp.Class]++
			st.SumTurns += res.Turns
			for k, v := range res.DamageBySkill {
				st.BySkill[k] += v
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	totalDmg := 0.0
	for _, v := range st.BySkill {
		totalDmg += v
	}
	bySkill := map[string]any{}
	for k, v := range st.BySkill {
		share := 0.0
		if totalDmg > 0 {
			share = v / totalDmg
		}
		bySkill[k] = map[string]any{"total": v, "ratio": share}
	}
	winRateVs := map[string]float64{}
	for cls, n := range st.FightsVs {
		winRateVs[cls] = float64(st.WinsVs[cls]) / float64(n)
	}

	summary := map[string]any{
		"runs":         st.Runs,
		"player_class": o.class,
		"win_rate":     float64(st.Wins) / float64(st.Runs),
		"stalemates":   st.Stalemates,
		"avg_turns":    float64(st.SumTurns) / float64(st.Runs),
		"total_damage": totalDmg,
		"by_skill":     bySkill,
		"win_rate_vs":  winRateVs,
	}
	if err := os.WriteFile(o.out, combat.MarshalPretty(summary), 0644); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	fmt.Printf("Batch %d done -> %s\n", st.Runs, filepath.Base(o.out))
	return nil
}
