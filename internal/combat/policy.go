package combat

import "brawlsim/internal/util"

type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionSkill
	ActionDefend
	ActionDodge
	ActionItem
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionSkill:
		return "skill"
	case ActionDefend:
		return "defend"
	case ActionDodge:
		return "dodge"
	case ActionItem:
		return "item"
	}
	return "unknown"
}

// Action is what a combatant does with its turn. Skill is set only for
// ActionSkill.
type Action struct {
	Kind  ActionKind
	Skill *Skill
}

func Attack() Action             { return Action{Kind: ActionAttack} }
func UseSkill(sk *Skill) Action { return Action{Kind: ActionSkill, Skill: sk} }

// Policy picks an action for the acting combatant.
type Policy interface {
	Choose(actor, opponent *Combatant) Action
}

// Selector thresholds and roll chances.
const (
	HealThreshold     = 0.4
	FinisherThreshold = 0.3
	BuffRollChance    = 0.4
	OffenseRollChance = 0.6
	RandomSkillChance = 0.5
)

// Selector is the auto-battle heuristic. It is deliberately stochastic and
// not optimal; rules are tried in order and the first match wins.
type Selector struct {
	Rng util.Rand
}

func NewSelector(rng util.Rand) *Selector { return &Selector{Rng: rng} }

func (s *Selector) Choose(actor, opponent *Combatant) Action {
	usable := actor.UsableSkills()
	if len(usable) == 0 {
		return Attack()
	}

	heal := firstSkill(usable, (*Skill).SelfHeal)
	if heal != nil && float64(actor.Health) < float64(actor.Stats.MaxHealth)*HealThreshold {
		return UseSkill(heal)
	}

	offense := firstSkill(usable, (*Skill).Offensive)
	if offense != nil && float64(opponent.Health) < float64(opponent.Stats.MaxHealth)*FinisherThreshold {
		return UseSkill(offense)
	}

	buff := firstSkill(usable, (*Skill).SelfBuff)
	if buff != nil && !actor.HasEffect(buff.Template.Applies) && s.roll(BuffRollChance) {
		return UseSkill(buff)
	}

	if offense != nil && s.roll(OffenseRollChance) {
		return UseSkill(offense)
	}

	if s.roll(RandomSkillChance) {
		return UseSkill(usable[s.Rng.Intn(len(usable))])
	}
	return Attack()
}

func (s *Selector) roll(chance float64) bool {
	return s.Rng.Float64() < chance
}

func firstSkill(skills []*Skill, pred func(*Skill) bool) *Skill {
	for _, sk := range skills {
		if pred(sk) {
			return sk
		}
	}
	return nil
}
