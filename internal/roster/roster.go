// Package roster creates brawlers from class stat ranges and finds
// opponents for the arena.
package roster

import (
	"errors"
	"fmt"
	"strings"

	"brawlsim/internal/combat"
	"brawlsim/internal/config"
	"brawlsim/internal/progression"
	"brawlsim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StartingPotions   = 1
	BotNameRange      = 1000
	TierSpread        = 1
	TierPointsJitter  = 100
	DefaultXPPerLevel = progression.DefaultXPPerLevel
)

var ErrNoClasses = errors.New("no brawler classes loaded")

// Factory rolls new brawlers. It is not safe for concurrent use.
type Factory struct {
	classes *combat.ClassBook
	ladder  *progression.Ladder
	rng     util.Rand
	log     *zap.Logger

	initialPoints int
	xpPerLevel    int
}

func NewFactory(classes *combat.ClassBook, ladder *progression.Ladder, arena *config.ArenaConfig, rng util.Rand, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Factory{
		classes:    classes,
		ladder:     ladder,
		rng:        rng,
		log:        log,
		xpPerLevel: DefaultXPPerLevel,
	}
	if arena != nil {
		f.initialPoints = arena.InitialPoints
		if arena.XPPerLevel > 0 {
			f.xpPerLevel = arena.XPPerLevel
		}
	}
	return f
}

// NewBrawler creates a level 1 brawler of the named class with stats rolled
// uniformly within the class ranges.
func (f *Factory) NewBrawler(name, class string) (*combat.Combatant, error) {
	cls, err := f.classes.Lookup(class)
	if err != nil {
		return nil, fmt.Errorf("new brawler %s: %w", name, err)
	}
	if name == "" {
		return nil, errors.New("new brawler: empty name")
	}
	r := cls.Ranges
	stats := combat.Stats{
		Strength:     f.roll(r.Strength),
		Health:       f.roll(r.Health),
		Armor:        f.roll(r.Armor),
		Agility:      f.roll(r.Agility),
		Intelligence: f.roll(r.Intelligence),
		Mana:         f.roll(r.Mana),
		Luck:         f.roll(r.Luck),
		Accuracy:     f.roll(r.Accuracy),
	}
	stats.MaxHealth = stats.Health
	stats.MaxMana = stats.Mana

	c := &combat.Combatant{
		ID:          uuid.NewString(),
		Name:        name,
		Class:       cls.Name,
		Level:       1,
		Stats:       stats,
		Health:      stats.MaxHealth,
		Mana:        stats.MaxMana,
		Skills:      cls.Instantiate(),
		Potions:     StartingPotions,
		XPToNext:    f.xpPerLevel,
		ArenaPoints: f.initialPoints,
		Tier:        f.ladder.TierFor(f.initialPoints).Name,
	}
	f.log.Debug("brawler created", zap.String("name", c.Name), zap.String("class", c.Class))
	return c, nil
}

// roll draws uniformly from the inclusive range.
func (f *Factory) roll(r [2]int) int {
	lo, hi := r[0], r[1]
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + f.rng.Intn(hi-lo+1)
}

// Matchmake builds an opponent of a random class placed within one tier of
// the player. Errors leave the caller free to return the player to the hub.
func (f *Factory) Matchmake(player *combat.Combatant) (*combat.Combatant, error) {
	names := f.classes.Names()
	if len(names) == 0 {
		return nil, ErrNoClasses
	}
	class := names[f.rng.Intn(len(names))]
	name := fmt.Sprintf("%sBot%d", strings.ReplaceAll(class, " ", ""), f.rng.Intn(BotNameRange))

	opp, err := f.NewBrawler(name, class)
	if err != nil {
		return nil, fmt.Errorf("matchmake: %w", err)
	}

	idx, err := f.ladder.Index(player.Tier)
	if err != nil {
		idx = 0
		f.log.Warn("player tier unknown, matching from the bottom tier",
			zap.String("player", player.Name), zap.String("tier", player.Tier))
	}
	offset := f.rng.Intn(2*TierSpread+1) - TierSpread
	tier := f.ladder.At(idx + offset)
	opp.Tier = tier.Name
	opp.ArenaPoints = tier.MinPoints + f.rng.Intn(TierPointsJitter)

	f.log.Info("opponent found",
		zap.String("player", player.Name),
		zap.String("opponent", opp.Name),
		zap.String("class", opp.Class),
		zap.String("tier", opp.Tier),
	)
	return opp, nil
}
