package combat

import (
	"fmt"
	"sort"
)

// EffectType is the closed set of status-effect behaviours. Tick and damage
// code switch over it exhaustively.
type EffectType int

const (
	EffectDamageReduction EffectType = iota + 1
	EffectDamageOverTime
	EffectDodgeIncrease
	EffectAccuracyIncrease
	EffectStatBuff
	EffectStatDebuff
	EffectStun
	EffectHealOverTime
	EffectAbsorbShield
	EffectManaRegen
)

var effectTypeNames = map[EffectType]string{
	EffectDamageReduction:  "damage_reduction",
	EffectDamageOverTime:   "damage_over_time",
	EffectDodgeIncrease:    "dodge_increase",
	EffectAccuracyIncrease: "accuracy_increase",
	EffectStatBuff:         "stat_buff",
	EffectStatDebuff:       "stat_debuff",
	EffectStun:             "stun",
	EffectHealOverTime:     "heal_over_time",
	EffectAbsorbShield:     "absorb_shield",
	EffectManaRegen:        "mana_regen",
}

func (t EffectType) String() string { return enumName(t, effectTypeNames) }

func ParseEffectType(s string) (EffectType, error) {
	return parseEnum("effect type", s, effectTypeNames)
}

// ValueType says how an effect's magnitude is read.
type ValueType int

const (
	ValueFlat ValueType = iota
	ValuePercentage
)

var valueTypeNames = map[ValueType]string{
	ValueFlat:       "flat",
	ValuePercentage: "percentage",
}

func (v ValueType) String() string { return enumName(v, valueTypeNames) }

func ParseValueType(s string) (ValueType, error) {
	if s == "" {
		return ValueFlat, nil
	}
	return parseEnum("value type", s, valueTypeNames)
}

// apply modifies base by v under this interpretation: flat adds v,
// percentage scales by (1 + v/100). Pass a negative v to reduce.
func (v ValueType) apply(base, value float64) float64 {
	switch v {
	case ValueFlat:
		return base + value
	case ValuePercentage:
		return base * (1 + value/100)
	default:
		panic(fmt.Sprintf("combat: unhandled value type %d", int(v)))
	}
}

type Stat int

const (
	StatNone Stat = iota
	StatStrength
	StatHealth
	StatMaxHealth
	StatArmor
	StatAgility
	StatIntelligence
	StatMana
	StatMaxMana
	StatLuck
	StatAccuracy
)

var statNames = map[Stat]string{
	StatNone:         "",
	StatStrength:     "strength",
	StatHealth:       "health",
	StatMaxHealth:    "max_health",
	StatArmor:        "armor",
	StatAgility:      "agility",
	StatIntelligence: "intelligence",
	StatMana:         "mana",
	StatMaxMana:      "max_mana",
	StatLuck:         "luck",
	StatAccuracy:     "accuracy",
}

func (s Stat) String() string { return enumName(s, statNames) }

func ParseStat(s string) (Stat, error) {
	return parseEnum("stat", s, statNames)
}

// SkillType is what a skill does when it resolves.
type SkillType int

const (
	SkillDamage SkillType = iota + 1
	SkillHeal
	SkillBuffSelf
	SkillBuffTarget
	SkillDebuffTarget
	SkillSpecialAttack
	SkillShieldSelf
	SkillUtility
)

var skillTypeNames = map[SkillType]string{
	SkillDamage:        "damage",
	SkillHeal:          "heal",
	SkillBuffSelf:      "buff_self",
	SkillBuffTarget:    "buff_target",
	SkillDebuffTarget:  "debuff_target",
	SkillSpecialAttack: "special_attack",
	SkillShieldSelf:    "shield_self",
	SkillUtility:       "utility",
}

func (t SkillType) String() string { return enumName(t, skillTypeNames) }

func ParseSkillType(s string) (SkillType, error) {
	return parseEnum("skill effect", s, skillTypeNames)
}

type Target int

const (
	TargetNone Target = iota
	TargetSelf
	TargetEnemy
)

var targetNames = map[Target]string{
	TargetNone:  "none",
	TargetSelf:  "self",
	TargetEnemy: "enemy",
}

func (t Target) String() string { return enumName(t, targetNames) }

func ParseTarget(s string) (Target, error) {
	if s == "" {
		return TargetNone, nil
	}
	return parseEnum("skill target", s, targetNames)
}

func enumName[T ~int](v T, names map[T]string) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

func parseEnum[T ~int](kind, s string, names map[T]string) (T, error) {
	for v, n := range names {
		if n == s {
			return v, nil
		}
	}
	valid := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			valid = append(valid, n)
		}
	}
	sort.Strings(valid)
	var zero T
	return zero, fmt.Errorf("unknown %s %q (want one of %v)", kind, s, valid)
}

func (t EffectType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EffectType) UnmarshalText(b []byte) error {
	v, err := ParseEffectType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (v ValueType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ValueType) UnmarshalText(b []byte) error {
	p, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func (s Stat) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stat) UnmarshalText(b []byte) error {
	v, err := ParseStat(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (t SkillType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SkillType) UnmarshalText(b []byte) error {
	v, err := ParseSkillType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
