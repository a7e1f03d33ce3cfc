package combat

import (
	"context"
	"errors"
	"testing"

	"brawlsim/internal/config"
	"brawlsim/internal/util"

	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := NewCatalog(&config.EffectsConfig{Effects: []config.EffectDef{
		{Key: "IRON_SKIN", Name: "Iron Skin", Type: "damage_reduction", Value: 30, ValueType: "percentage", DefaultDuration: 2},
		{Key: "MANA_SHIELD", Name: "Mana Shield", Type: "absorb_shield", Value: 25, ValueType: "flat", DefaultDuration: 3},
		{Key: "BURNING", Name: "Burning", Type: "damage_over_time", Value: 5, ValueType: "flat", DefaultDuration: 3},
		{Key: "STUNNED", Name: "Stunned", Type: "stun", Value: 1, DefaultDuration: 1},
		{Key: "STRENGTH_BUFF", Name: "Strengthened", Type: "stat_buff", Stat: "strength", Value: 5, ValueType: "flat", DefaultDuration: 3},
		{Key: "ARMOR_DEBUFF", Name: "Armor Shattered", Type: "stat_debuff", Stat: "armor", Value: 15, ValueType: "percentage", DefaultDuration: 2},
		{Key: "SMOKE_BOMB_DODGE", Name: "Evasive Cloud", Type: "dodge_increase", Value: 50, ValueType: "percentage", DefaultDuration: 1},
		{Key: "MANA_REGEN", Name: "Mana Flow", Type: "mana_regen", Value: 5, ValueType: "flat", DefaultDuration: 3},
		{Key: "REGENERATION", Name: "Regeneration", Type: "heal_over_time", Value: 3, ValueType: "flat", DefaultDuration: 3},
		{Key: "FOCUSED", Name: "Focused", Type: "accuracy_increase", Value: 10, ValueType: "flat", DefaultDuration: 2},
	}})
	require.NoError(t, err)
	return cat
}

// newFighter returns a plain combatant: no armor, no luck, no skills.
func newFighter(id string, hp int) *Combatant {
	return &Combatant{
		ID:    id,
		Name:  id,
		Class: "Test",
		Level: 1,
		Stats: Stats{
			Strength: 10, Health: hp, MaxHealth: hp,
			Agility: 5, Mana: 50, MaxMana: 50, Accuracy: 5,
		},
		Health: hp,
		Mana:   50,
	}
}

func effect(t *testing.T, cat *Catalog, key string) *Effect {
	t.Helper()
	def, err := cat.Lookup(key)
	require.NoError(t, err)
	return def.Instantiate(0, "test", EffectOverride{})
}

func skill(id string, typ SkillType, target Target, cost, cooldown int) *Skill {
	return &Skill{Template: SkillTemplate{
		ID: id, Name: id, Type: typ, Target: target,
		ManaCost: cost, Cooldown: cooldown, StatusChance: 1,
	}}
}

// firstUsable uses the first usable skill, else attacks.
type firstUsable struct{}

func (firstUsable) Choose(actor, _ *Combatant) Action {
	if u := actor.UsableSkills(); len(u) > 0 {
		return UseSkill(u[0])
	}
	return Attack()
}

type failingNarrator struct{}

func (failingNarrator) Describe(context.Context, Line) (string, error) {
	return "", errors.New("narrator offline")
}

type fixedNarrator string

func (n fixedNarrator) Describe(context.Context, Line) (string, error) { return string(n), nil }

// allMiss makes every roll 0.99: initiative ties (opponent first), every
// hit roll misses, every chance roll fails.
func allMiss() util.Rand { return util.NewScript(0.99) }
