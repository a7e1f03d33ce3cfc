// Package progression turns battle outcomes into XP, levels, tokens and
// arena standing, and keeps a short battle history.
package progression

import (
	"errors"
	"fmt"
	"math"
	"time"

	"brawlsim/internal/combat"
	"brawlsim/internal/config"
	"brawlsim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultXPPerLevel = 100
	DefaultHistoryCap = 10
	XPCurveExponent   = 1.5

	WinXPRoll        = 50
	WinXPPerLevel    = 25
	WinTokenPerLevel = 10
	WinTokenBase     = 20
	LossTokenShare   = 0.10

	LevelHealthGain   = 5
	LevelManaShare    = 0.1
	LevelManaFlatGain = 2
)

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// Rewards is what one battle changed for the player.
type Rewards struct {
	Result       Result `json:"result"`
	XPGained     int    `json:"xp_gained"`
	TokensDelta  int    `json:"tokens_delta"`
	PointsDelta  int    `json:"arena_points_delta"`
	LevelsGained int    `json:"levels_gained"`
	Level        int    `json:"level"`
	Tier         string `json:"tier"`
	PrevTier     string `json:"prev_tier"`
}

func (r Rewards) Promoted() bool { return r.Tier != r.PrevTier && r.PointsDelta > 0 }

type HistoryEntry struct {
	ID            string    `json:"id"`
	BattleID      string    `json:"battle_id"`
	OpponentName  string    `json:"opponent_name"`
	OpponentClass string    `json:"opponent_class"`
	Result        Result    `json:"result"`
	XPGained      int       `json:"xp_gained"`
	TokensGained  int       `json:"tokens_gained"`
	PointsChange  int       `json:"arena_points_change"`
	At            time.Time `json:"at"`
}

// Service tracks one player's token balance and battle history. It is not
// safe for concurrent use.
type Service struct {
	classes *combat.ClassBook
	ladder  *Ladder
	rng     util.Rand
	log     *zap.Logger
	now     func() time.Time

	xpPerLevel int
	pointsWin  int
	pointsLoss int
	historyCap int
	expRate    float64
	tokenRate  float64
	tokens     int
	history    []HistoryEntry
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// WithRates scales XP and token gains.
func WithRates(r config.RatesSettings) Option {
	return func(s *Service) {
		s.expRate = r.ExpRate
		s.tokenRate = r.TokenRate
	}
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(cfg *config.ArenaConfig, classes *combat.ClassBook, rng util.Rand, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("progression: missing arena config")
	}
	ladder, err := NewLadder(cfg.Tiers)
	if err != nil {
		return nil, fmt.Errorf("progression: %w", err)
	}
	s := &Service{
		classes:    classes,
		ladder:     ladder,
		rng:        rng,
		log:        zap.NewNop(),
		now:        time.Now,
		xpPerLevel: cfg.XPPerLevel,
		pointsWin:  cfg.PointsPerWin,
		pointsLoss: cfg.PointsPerLoss,
		historyCap: cfg.HistoryCap,
		expRate:    1,
		tokenRate:  1,
		tokens:     cfg.InitialTokens,
	}
	if s.xpPerLevel <= 0 {
		s.xpPerLevel = DefaultXPPerLevel
	}
	if s.historyCap <= 0 {
		s.historyCap = DefaultHistoryCap
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Ladder() *Ladder { return s.ladder }

func (s *Service) Tokens() int { return s.tokens }

// History returns battles newest first.
func (s *Service) History() []HistoryEntry {
	return append([]HistoryEntry(nil), s.history...)
}

// XPToNext is the XP needed to leave level.
func (s *Service) XPToNext(level int) int {
	return int(math.Floor(float64(s.xpPerLevel) * math.Pow(float64(level), XPCurveExponent)))
}

// Apply settles a finished battle for player.
func (s *Service) Apply(out *combat.BattleOutcome, player, opponent *combat.Combatant) (Rewards, error) {
	if out == nil {
		return Rewards{}, errors.New("progression: nil outcome")
	}
	if out.WinnerID != player.ID && out.LoserID != player.ID {
		return Rewards{}, fmt.Errorf("progression: battle %s did not involve %s", out.BattleID, player.Name)
	}

	r := Rewards{PrevTier: s.ladder.TierFor(player.ArenaPoints).Name}
	if out.WinnerID == player.ID {
		r.Result = ResultWin
		xp := s.rng.Intn(WinXPRoll) + WinXPPerLevel*opponent.Level
		r.XPGained = int(math.Floor(float64(xp) * s.expRate))
		tokens := s.rng.Intn(max(1, opponent.Level*WinTokenPerLevel)) + WinTokenBase
		r.TokensDelta = int(math.Floor(float64(tokens) * s.tokenRate))
		r.PointsDelta = s.pointsWin
		levels, err := s.GainXP(player, r.XPGained)
		if err != nil {
			return Rewards{}, err
		}
		r.LevelsGained = levels
	} else {
		r.Result = ResultLoss
		r.TokensDelta = -int(math.Floor(float64(s.tokens) * LossTokenShare))
		r.PointsDelta = -min(s.pointsLoss, player.ArenaPoints)
	}

	s.tokens += r.TokensDelta
	player.ArenaPoints += r.PointsDelta
	player.Tier = s.ladder.TierFor(player.ArenaPoints).Name
	r.Tier = player.Tier
	r.Level = player.Level

	s.record(HistoryEntry{
		ID:            uuid.NewString(),
		BattleID:      out.BattleID,
		OpponentName:  opponent.Name,
		OpponentClass: opponent.Class,
		Result:        r.Result,
		XPGained:      r.XPGained,
		TokensGained:  r.TokensDelta,
		PointsChange:  r.PointsDelta,
		At:            s.now(),
	})

	s.log.Info("battle settled",
		zap.String("battle", out.BattleID),
		zap.String("player", player.Name),
		zap.String("result", string(r.Result)),
		zap.Int("xp", r.XPGained),
		zap.Int("tokens", r.TokensDelta),
		zap.Int("points", r.PointsDelta),
		zap.String("tier", r.Tier),
	)
	return r, nil
}

func (s *Service) record(e HistoryEntry) {
	s.history = append([]HistoryEntry{e}, s.history...)
	if len(s.history) > s.historyCap {
		s.history = s.history[:s.historyCap]
	}
}

// GainXP adds xp and applies every level-up it pays for. Each level raises
// the class primary stat and one random secondary stat by 1, max health by
// 5 and max mana by a tenth of the class mana ceiling plus 2, then restores
// health and mana. Cooldowns are reset.
func (s *Service) GainXP(c *combat.Combatant, xp int) (int, error) {
	cls, err := s.classes.Lookup(c.Class)
	if err != nil {
		return 0, fmt.Errorf("gain xp for %s: %w", c.Name, err)
	}
	if c.XPToNext <= 0 {
		c.XPToNext = s.XPToNext(max(1, c.Level))
	}
	c.XP += xp

	levels := 0
	for c.XP >= c.XPToNext {
		c.XP -= c.XPToNext
		c.Level++
		levels++

		c.Stats.Add(cls.PrimaryStat, 1)
		secondary := secondaryStats(cls.PrimaryStat)
		c.Stats.Add(secondary[s.rng.Intn(len(secondary))], 1)

		c.Stats.MaxHealth += LevelHealthGain
		c.Stats.Health = c.Stats.MaxHealth
		c.Stats.MaxMana += int(math.Floor(float64(cls.Ranges.Mana[1])*LevelManaShare)) + LevelManaFlatGain
		c.Stats.Mana = c.Stats.MaxMana
		c.Health = c.Stats.MaxHealth
		c.Mana = c.Stats.MaxMana

		c.XPToNext = s.XPToNext(c.Level)
	}
	for _, sk := range c.Skills {
		sk.CurrentCooldown = 0
	}
	if levels > 0 {
		s.log.Info("level up", zap.String("brawler", c.Name), zap.Int("level", c.Level))
	}
	return levels, nil
}

var levelStats = []combat.Stat{
	combat.StatStrength,
	combat.StatArmor,
	combat.StatAgility,
	combat.StatIntelligence,
	combat.StatLuck,
	combat.StatAccuracy,
}

func secondaryStats(primary combat.Stat) []combat.Stat {
	out := make([]combat.Stat, 0, len(levelStats))
	for _, st := range levelStats {
		if st != primary {
			out = append(out, st)
		}
	}
	return out
}
