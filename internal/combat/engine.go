package combat

import (
	"context"
	"errors"
	"fmt"
	"math"

	"brawlsim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBattleOver      = errors.New("battle is over")
	ErrBattleCancelled = errors.New("battle cancelled")
	ErrAwaitingInput   = errors.New("waiting for player action")
	ErrSkillNotUsable  = errors.New("skill not usable")
	ErrNoItem          = errors.New("no item left")
)

const (
	DefaultMaxTurns   = 200
	DefaultPotionHeal = 25
	InitiativeJitter  = 10.0
)

// TurnResult is the intermediate result of one Advance call.
type TurnResult struct {
	Turn    int        `json:"turn"`
	ActorID string     `json:"actor_id"`
	Stunned bool       `json:"stunned,omitempty"`
	Action  string     `json:"action,omitempty"`
	Entries []LogEntry `json:"entries"`
	Events  []Event    `json:"events,omitempty"`
}

// Engine resolves battles one turn at a time. It holds no battle state; every
// call takes the session explicitly. An Engine is not safe for concurrent use
// because it shares one random source.
type Engine struct {
	catalog    *Catalog
	rng        util.Rand
	policy     Policy
	narrator   Narrator
	log        *zap.Logger
	maxTurns   int
	logCap     int
	potionHeal int
}

type Option func(*Engine)

func WithNarrator(n Narrator) Option { return func(e *Engine) { e.narrator = n } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

func WithPolicy(p Policy) Option { return func(e *Engine) { e.policy = p } }

// WithMaxTurns sets the stalemate cutoff. 0 disables it.
func WithMaxTurns(n int) Option { return func(e *Engine) { e.maxTurns = n } }

func WithLogCap(n int) Option { return func(e *Engine) { e.logCap = n } }

func WithPotionHeal(n int) Option { return func(e *Engine) { e.potionHeal = n } }

func NewEngine(catalog *Catalog, rng util.Rand, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog,
		rng:        rng,
		narrator:   Templates{},
		log:        zap.NewNop(),
		maxTurns:   DefaultMaxTurns,
		logCap:     DefaultLogCap,
		potionHeal: DefaultPotionHeal,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy == nil {
		e.policy = NewSelector(rng)
	}
	return e
}

// Start opens a session between player and opponent. Both are reset for
// battle and the first actor is picked by agility plus a random jitter;
// ties go to the opponent.
func (e *Engine) Start(player, opponent *Combatant) (*Session, error) {
	if player == nil || opponent == nil {
		return nil, errors.New("start battle: missing combatant")
	}
	if player.ID == opponent.ID {
		return nil, fmt.Errorf("start battle: combatants share id %s", player.ID)
	}
	if player.Defeated() || opponent.Defeated() {
		return nil, errors.New("start battle: combatant already defeated")
	}
	player.ResetForBattle()
	opponent.ResetForBattle()

	s := &Session{
		ID:         uuid.NewString(),
		Player:     player,
		Opponent:   opponent,
		AutoBattle: true,
		Log:        NewBattleLog(e.logCap),
	}
	pInit := float64(player.Stats.Agility) + e.rng.Float64()*InitiativeJitter
	oInit := float64(opponent.Stats.Agility) + e.rng.Float64()*InitiativeJitter
	first := opponent
	if pInit > oInit {
		first = player
	}
	s.ActiveID = first.ID

	s.logf(LogSystem, "%s (%s) faces %s (%s)!", player.Name, player.Class, opponent.Name, opponent.Class)
	s.logf(LogSystem, "%s takes initiative!", first.Name)
	e.log.Info("battle started",
		zap.String("battle", s.ID),
		zap.String("player", player.Name),
		zap.String("opponent", opponent.Name),
		zap.String("first", first.Name),
	)
	return s, nil
}

// Submit queues a manual action for the player's next turn.
func (e *Engine) Submit(s *Session, a Action) error {
	if err := checkOpen(s); err != nil {
		return err
	}
	p := s.Player
	switch a.Kind {
	case ActionSkill:
		if a.Skill == nil || p.Skill(a.Skill.Template.ID) != a.Skill {
			return fmt.Errorf("%w: not owned by %s", ErrSkillNotUsable, p.Name)
		}
		if !a.Skill.Usable(p.Mana) {
			return fmt.Errorf("%w: %s (cooldown %d, mana %d/%d)", ErrSkillNotUsable,
				a.Skill.Template.Name, a.Skill.CurrentCooldown, p.Mana, a.Skill.Template.ManaCost)
		}
	case ActionItem:
		if p.Potions <= 0 {
			return fmt.Errorf("%w: health potion", ErrNoItem)
		}
	case ActionAttack, ActionDefend, ActionDodge:
	default:
		return fmt.Errorf("unknown action %d", int(a.Kind))
	}
	s.pending = &a
	return nil
}

// Cancel aborts the battle between turns. No outcome is produced.
func (e *Engine) Cancel(s *Session) {
	if s.Over() {
		return
	}
	s.cancelled = true
	s.AutoBattle = false
	s.pending = nil
	s.logf(LogSystem, "Battle aborted.")
	e.log.Info("battle cancelled", zap.String("battle", s.ID), zap.Int("turn", s.Turn))
}

func checkOpen(s *Session) error {
	if s.cancelled {
		return ErrBattleCancelled
	}
	if s.Outcome != nil {
		return ErrBattleOver
	}
	return nil
}

// turn collects what one Advance call produced.
type turn struct {
	s   *Session
	res TurnResult
}

func (t *turn) entry(kind LogKind, text string) {
	le := LogEntry{Turn: t.s.Turn, Kind: kind, Text: text}
	t.s.Log.Append(le)
	t.res.Entries = append(t.res.Entries, le)
}

func (t *turn) entryf(kind LogKind, format string, args ...any) {
	t.entry(kind, fmt.Sprintf(format, args...))
}

func (t *turn) emit(typ string, payload map[string]any) {
	t.res.Events = append(t.res.Events, Event{Turn: t.s.Turn, Type: typ, Payload: payload})
}

// Advance runs one full turn for the active combatant: status tick, cooldown
// tick, action selection and resolution, termination check and handoff. A
// non-nil outcome means the battle has ended.
func (e *Engine) Advance(ctx context.Context, s *Session) (TurnResult, *BattleOutcome, error) {
	if err := checkOpen(s); err != nil {
		return TurnResult{}, nil, err
	}
	if err := ctx.Err(); err != nil {
		return TurnResult{}, nil, err
	}
	if s.AwaitingInput() {
		return TurnResult{}, nil, ErrAwaitingInput
	}

	actor, target := s.Actor(), s.Reactor()
	t := &turn{s: s, res: TurnResult{Turn: s.Turn, ActorID: actor.ID}}
	t.entryf(LogSystem, "--- %s's Turn (%d) ---", actor.Name, s.Turn)

	actor.Status.Defending = false

	stunned := e.statusTick(t, actor, target)
	if actor.Defeated() {
		return t.res, e.finish(t, target, actor, ReasonKnockout), nil
	}

	for _, sk := range actor.Skills {
		sk.Tick()
	}

	var pending *Action
	if actor == s.Player {
		pending, s.pending = s.pending, nil
	}

	if stunned {
		t.res.Stunned = true
		t.entryf(LogStatus, "%s is stunned and cannot act!", actor.Name)
		t.emit("Stunned", map[string]any{"target": actor.ID})
	} else {
		a := e.choose(actor, target, pending)
		t.res.Action = a.Kind.String()
		e.resolve(ctx, t, actor, target, a)
	}

	switch {
	case target.Defeated():
		return t.res, e.finish(t, actor, target, ReasonKnockout), nil
	case actor.Defeated():
		return t.res, e.finish(t, target, actor, ReasonKnockout), nil
	}

	s.ActiveID = target.ID
	s.Turn++

	if e.maxTurns > 0 && s.Turn >= e.maxTurns {
		winner, loser := s.Opponent, s.Player
		if s.Player.HealthFraction() > s.Opponent.HealthFraction() {
			winner, loser = s.Player, s.Opponent
		}
		t.entryf(LogSystem, "The arena calls time after %d turns.", s.Turn)
		return t.res, e.finish(t, winner, loser, ReasonStalemate), nil
	}

	e.log.Debug("turn resolved",
		zap.String("battle", s.ID),
		zap.Int("turn", t.res.Turn),
		zap.String("actor", actor.Name),
		zap.String("action", t.res.Action),
		zap.Int("actor_hp", actor.Health),
		zap.Int("target_hp", target.Health),
	)
	return t.res, nil, nil
}

func (e *Engine) choose(actor, opponent *Combatant, pending *Action) Action {
	if pending == nil {
		return e.policy.Choose(actor, opponent)
	}
	if pending.Kind == ActionSkill && !pending.Skill.Usable(actor.Mana) {
		panic(fmt.Sprintf("combat: queued skill %s became unusable", pending.Skill.Template.ID))
	}
	return *pending
}

func (e *Engine) finish(t *turn, winner, loser *Combatant, reason Reason) *BattleOutcome {
	s := t.s
	out := &BattleOutcome{
		BattleID: s.ID,
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Turn:     s.Turn,
		Reason:   reason,
	}
	s.Outcome = out
	s.AutoBattle = false
	s.pending = nil
	if reason == ReasonKnockout {
		t.emit("Defeat", map[string]any{"target": loser.ID})
	}
	if reason == ReasonStalemate {
		t.entryf(LogSystem, "%s outlasts %s on points.", winner.Name, loser.Name)
	} else {
		t.entryf(LogSystem, "%s is defeated! %s wins.", loser.Name, winner.Name)
	}
	e.log.Info("battle finished",
		zap.String("battle", s.ID),
		zap.String("winner", winner.Name),
		zap.String("loser", loser.Name),
		zap.Int("turn", s.Turn),
		zap.Stringer("reason", reason),
	)
	return out
}

// statusTick applies per-turn effect behaviour to the actor, then ages and
// expires its effects. It reports whether a stun prevents the action.
func (e *Engine) statusTick(t *turn, actor, opponent *Combatant) bool {
	stunned := false
	kept := actor.Effects[:0]
	for _, fx := range actor.Effects {
		switch fx.Type {
		case EffectDamageOverTime:
			n := actor.TakeDamage(tickAmount(fx, actor.Stats.MaxHealth))
			t.entryf(LogStatus, "%s takes %d damage from %s.", actor.Name, n, fx.Name)
			t.emit("StatusTick", map[string]any{
				"target": actor.ID, "source": opponent.ID, "effect": fx.Key,
				"skill": fx.SourceSkill, "amount": n,
			})
		case EffectHealOverTime:
			n := actor.Heal(tickAmount(fx, actor.Stats.MaxHealth))
			t.entryf(LogStatus, "%s recovers %d HP from %s.", actor.Name, n, fx.Name)
			t.emit("Heal", map[string]any{"target": actor.ID, "effect": fx.Key, "amount": n})
		case EffectManaRegen:
			n := actor.AddMana(tickAmount(fx, actor.Stats.MaxMana))
			t.entryf(LogStatus, "%s recovers %d MP from %s.", actor.Name, n, fx.Name)
		case EffectStun:
			if fx.Duration > 0 {
				stunned = true
			}
		case EffectDamageReduction, EffectDodgeIncrease, EffectAccuracyIncrease,
			EffectStatBuff, EffectStatDebuff, EffectAbsorbShield:
			// passive; read by the calculator
		default:
			panic(fmt.Sprintf("combat: unhandled effect type %d", int(fx.Type)))
		}

		fx.Duration--
		if fx.Duration > 0 {
			kept = append(kept, fx)
			continue
		}
		t.entryf(LogStatus, "%s wears off %s.", fx.Name, actor.Name)
	}
	clear(actor.Effects[len(kept):])
	actor.Effects = kept

	if actor.Status.Stunned && !actor.hasActiveStun() {
		actor.Status.Stunned = false
	}
	return stunned
}

func tickAmount(fx *Effect, limit int) int {
	if fx.ValueType == ValuePercentage {
		return int(math.Floor(float64(limit) * fx.Value / 100))
	}
	return int(math.Floor(fx.Value))
}

func (e *Engine) resolve(ctx context.Context, t *turn, actor, target *Combatant, a Action) {
	line := Line{Action: a.Kind.String(), Actor: actor.Name, Class: actor.Class, Target: target.Name}
	kind := LogCombat

	switch a.Kind {
	case ActionAttack:
		st := e.strike(t, actor, target, BasicAttackDamage(actor), AttackAccuracyWeight, false, "attack")
		st.fill(&line)
	case ActionDefend:
		actor.Status.Defending = true
	case ActionDodge:
		actor.Status.Dodging = true
	case ActionItem:
		kind = LogItem
		actor.Potions--
		line.Healed = actor.Heal(e.potionHeal)
		t.emit("Heal", map[string]any{"target": actor.ID, "item": "health_potion", "amount": line.Healed})
	case ActionSkill:
		kind = LogSkill
		e.useSkill(t, actor, target, a.Skill, &line)
	default:
		panic(fmt.Sprintf("combat: unhandled action %d", int(a.Kind)))
	}

	t.entry(kind, e.narrate(ctx, t.s, line))
}

func (e *Engine) useSkill(t *turn, actor, target *Combatant, sk *Skill, line *Line) {
	tpl := sk.Template
	actor.AddMana(-tpl.ManaCost)
	sk.Trigger()
	line.Skill = tpl.Name

	switch tpl.Type {
	case SkillDamage, SkillSpecialAttack:
		base := tpl.Value
		if base <= 0 {
			base = float64(actor.Stats.Strength)
		}
		st := e.strike(t, actor, target, base, SkillAccuracyWeight, tpl.Type == SkillSpecialAttack, tpl.ID)
		st.fill(line)
		if st.landed() && tpl.Applies != "" && e.statusRoll(tpl.StatusChance) {
			def := e.apply(t, target, sk, nil)
			line.Details = append(line.Details, def.Name)
		}
	case SkillHeal:
		amount := int(math.Floor(tpl.Value))
		if amount <= 0 {
			amount = int(math.Floor(float64(actor.Stats.Intelligence) * HealIntMultiplier))
		}
		line.Target = ""
		line.Healed = actor.Heal(amount)
		t.emit("Heal", map[string]any{"target": actor.ID, "skill": tpl.ID, "amount": line.Healed})
		if tpl.Applies != "" {
			e.apply(t, actor, sk, nil)
		}
	case SkillBuffSelf, SkillShieldSelf, SkillBuffTarget, SkillDebuffTarget:
		recipient := actor
		if tpl.Target == TargetEnemy {
			recipient = target
		}
		line.Target = recipient.Name
		if tpl.Applies == "" {
			line.Status = fmt.Sprintf("A strange energy surrounds %s.", recipient.Name)
			return
		}
		var shield *float64
		if tpl.Type == SkillShieldSelf && tpl.Value > 0 {
			v := tpl.Value
			shield = &v
		}
		def := e.apply(t, recipient, sk, shield)
		line.Status = def.Description
	case SkillUtility:
		line.Status = fmt.Sprintf("%s readies %s.", actor.Name, tpl.Name)
	default:
		panic(fmt.Sprintf("combat: unhandled skill type %d", int(tpl.Type)))
	}
}

// apply instantiates the skill's status effect on the recipient.
func (e *Engine) apply(t *turn, recipient *Combatant, sk *Skill, shield *float64) EffectDef {
	tpl := sk.Template
	def := e.catalog.MustLookup(tpl.Applies)
	fx := def.Instantiate(t.s.Turn, tpl.ID, EffectOverride{
		Duration:    tpl.StatusDuration,
		Value:       tpl.StatusValue,
		ShieldValue: shield,
	})
	got, change := recipient.AddEffect(fx)
	payload := map[string]any{
		"target": recipient.ID, "effect": def.Key, "skill": tpl.ID,
		"change": change.String(), "duration": got.Duration,
	}
	if got.Shield != nil {
		payload["shield"] = got.Shield.Current
	}
	t.emit("ApplyStatus", payload)
	return def
}

func (e *Engine) statusRoll(chance float64) bool {
	if chance >= 1 {
		return true
	}
	return e.rng.Float64() < chance
}

type strike struct {
	hit      bool
	dodged   bool
	critical bool
	damage   int
	absorbed int
	details  []string
}

func (st strike) landed() bool { return st.hit && !st.dodged }

func (st strike) fill(l *Line) {
	l.Hit = st.hit
	l.Dodged = st.dodged
	l.Critical = st.critical
	l.Damage = st.damage
	l.Absorbed = st.absorbed
	l.Details = append(l.Details, st.details...)
}

// strike rolls to hit, lets a dodging defender evade, rolls a crit, resolves
// damage and drains shields before health.
func (e *Engine) strike(t *turn, attacker, defender *Combatant, base, accWeight float64, special bool, source string) strike {
	var st strike
	if e.rng.Float64()*100 >= HitChance(attacker, defender, accWeight) {
		t.emit("Miss", map[string]any{"actor": attacker.ID, "target": defender.ID, "skill": source})
		return st
	}
	st.hit = true
	if defender.Status.Dodging {
		defender.Status.Dodging = false
		st.dodged = true
		t.emit("Dodge", map[string]any{"actor": attacker.ID, "target": defender.ID, "skill": source})
		return st
	}

	st.critical = e.rng.Float64()*100 < CritChance(attacker, special)
	res := ResolveDamage(base, attacker, defender, st.critical)
	st.details = res.Details

	absorbed, taken := AbsorbShield(defender, res.Final)
	st.absorbed, st.damage = absorbed, taken
	if absorbed > 0 {
		t.emit("ShieldAbsorb", map[string]any{"target": defender.ID, "amount": absorbed})
	}
	t.emit("Hit", map[string]any{
		"actor": attacker.ID, "target": defender.ID, "skill": source,
		"amount": taken, "absorbed": absorbed, "critical": st.critical,
	})
	return st
}

// narrate asks the narrator for flavour text, falling back to templates on
// error or empty output.
func (e *Engine) narrate(ctx context.Context, s *Session, l Line) string {
	text, err := e.narrator.Describe(ctx, l)
	if err != nil || text == "" {
		if err != nil {
			e.log.Debug("narrator failed, using template",
				zap.String("battle", s.ID), zap.String("action", l.Action), zap.Error(err))
		}
		return templateText(l)
	}
	return text
}
