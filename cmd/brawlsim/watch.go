package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"brawlsim/internal/arena"
	"brawlsim/internal/combat"
	"brawlsim/internal/narrator"

	"go.uber.org/zap"
)

// watch plays one battle at the configured cadence, printing the log as it
// grows. With -manual the player's turns wait for stdin commands.
func (g *game) watch(ctx context.Context, o options) error {
	w, err := g.newWorld(g.cfg.Battle.Seed, g.log)
	if err != nil {
		return err
	}
	player, opp, err := matchup(w.factory, o.name, o.class, w.rng, g.classes)
	if err != nil {
		return err
	}
	fmt.Printf("Match found: %s (%s, %s) vs %s (%s, %s)\n",
		player.Name, player.Class, player.Tier, opp.Name, opp.Class, opp.Tier)

	n, release := narrator.New(g.cfg.Narrator, g.log)
	defer release()

	eng := g.engine(w.rng, n, g.log)
	s, err := eng.Start(player, opp)
	if err != nil {
		return err
	}
	for _, e := range s.Log.Entries() {
		fmt.Println(e.Text)
	}
	if o.manual {
		s.SetAutoBattle(false)
		fmt.Println("Manual mode: attack | defend | dodge | item | skill <id> | auto on|off | quit")
		printSkills(player)
	}

	r := arena.NewRunner(eng, g.cfg.Battle.TickInterval, g.log)
	r.OnTurn = func(tr combat.TurnResult) {
		for _, e := range tr.Entries {
			fmt.Println(e.Text)
		}
		fmt.Printf("   [%s %d/%d HP %d MP | %s %d/%d HP %d MP]\n",
			player.Name, player.Health, player.Stats.MaxHealth, player.Mana,
			opp.Name, opp.Health, opp.Stats.MaxHealth, opp.Mana)
	}
	if o.manual {
		go readCommands(ctx, os.Stdin, r, player, g.log)
	}

	out, err := r.Run(ctx, s)
	if err != nil {
		if isCancel(err) {
			fmt.Println("Battle aborted. Returning to hub.")
			return nil
		}
		return err
	}
	rewards, err := w.progress.Apply(out, player, opp)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s | XP %+d | tokens %+d (balance %d) | arena points %+d -> %d (%s)\n",
		rewards.Result, rewards.XPGained, rewards.TokensDelta, w.progress.Tokens(),
		rewards.PointsDelta, player.ArenaPoints, rewards.Tier)
	if rewards.LevelsGained > 0 {
		fmt.Printf("LEVEL UP! %s is now level %d.\n", player.Name, rewards.Level)
	}
	return nil
}

func printSkills(c *combat.Combatant) {
	for _, sk := range c.Skills {
		t := sk.Template
		fmt.Printf("  %-18s %-16s cost %2d  cd %d\n", t.ID, t.Name, t.ManaCost, t.Cooldown)
	}
}

// readCommands feeds stdin commands to the runner until EOF, quit or the
// battle ends.
func readCommands(ctx context.Context, in io.Reader, r *arena.Runner, player *combat.Combatant, log *zap.Logger) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		fields := strings.Fields(strings.ToLower(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		var err error
		switch fields[0] {
		case "quit", "q":
			r.Cancel()
			return
		case "auto":
			err = r.SetAuto(ctx, len(fields) < 2 || fields[1] != "off")
		default:
			a, perr := parseAction(fields, player)
			if perr != nil {
				fmt.Println(perr)
				continue
			}
			err = r.Act(ctx, a)
		}
		if errors.Is(err, arena.ErrNotRunning) {
			return
		}
		if err != nil {
			fmt.Println("rejected:", err)
			log.Debug("manual command rejected", zap.Strings("cmd", fields), zap.Error(err))
		}
	}
}

func parseAction(fields []string, player *combat.Combatant) (combat.Action, error) {
	switch fields[0] {
	case "attack", "a":
		return combat.Attack(), nil
	case "defend", "d":
		return combat.Action{Kind: combat.ActionDefend}, nil
	case "dodge", "g":
		return combat.Action{Kind: combat.ActionDodge}, nil
	case "item", "i", "potion":
		return combat.Action{Kind: combat.ActionItem}, nil
	case "skill", "s":
		if len(fields) < 2 {
			return combat.Action{}, fmt.Errorf("usage: skill <id>")
		}
		sk := player.Skill(fields[1])
		if sk == nil {
			return combat.Action{}, fmt.Errorf("%s has no skill %q", player.Name, fields[1])
		}
		return combat.UseSkill(sk), nil
	}
	return combat.Action{}, fmt.Errorf("unknown command %q", fields[0])
}
