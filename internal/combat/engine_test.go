package combat

import (
	"context"
	"testing"

	"brawlsim/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBattle(t *testing.T, eng *Engine, p, o *Combatant) *Session {
	t.Helper()
	s, err := eng.Start(p, o)
	require.NoError(t, err)
	return s
}

func advance(t *testing.T, eng *Engine, s *Session) (TurnResult, *BattleOutcome) {
	t.Helper()
	tr, out, err := eng.Advance(context.Background(), s)
	require.NoError(t, err)
	return tr, out
}

func TestStartBattle(t *testing.T) {
	cat := testCatalog(t)
	p, o := newFighter("p", 50), newFighter("o", 50)
	p.Status.Defending = true
	p.Skills = []*Skill{skill("jab", SkillDamage, TargetEnemy, 0, 2)}
	p.Skills[0].CurrentCooldown = 2

	s := startBattle(t, NewEngine(cat, allMiss()), p, o)

	assert.Zero(t, s.Turn)
	assert.True(t, s.AutoBattle)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, o.ID, s.ActiveID, "tied initiative goes to the opponent")
	assert.False(t, p.Status.Defending)
	assert.Zero(t, p.Skills[0].CurrentCooldown)
	assert.Equal(t, 2, s.Log.Len())

	p.Stats.Agility = 6
	s = startBattle(t, NewEngine(cat, allMiss()), p, o)
	assert.Equal(t, p.ID, s.ActiveID)
}

func TestStartBattleRejectsBadInput(t *testing.T) {
	eng := NewEngine(testCatalog(t), allMiss())
	p := newFighter("p", 50)

	_, err := eng.Start(p, nil)
	assert.Error(t, err)
	_, err = eng.Start(p, newFighter("p", 50))
	assert.Error(t, err)
	dead := newFighter("o", 50)
	dead.Health = 0
	_, err = eng.Start(p, dead)
	assert.Error(t, err)
}

func TestDamageOverTimeTicksThenExpires(t *testing.T) {
	cat := testCatalog(t)
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(cat, allMiss())
	s := startBattle(t, eng, p, o)
	p.AddEffect(cat.MustLookup("BURNING").Instantiate(s.Turn, "dart", EffectOverride{}))

	for _, want := range []int{45, 40, 35} {
		advance(t, eng, s)
		tr, out := advance(t, eng, s)
		require.Nil(t, out)
		assert.Equal(t, p.ID, tr.ActorID)
		assert.Equal(t, want, p.Health)
	}
	assert.False(t, p.HasEffect("BURNING"))

	advance(t, eng, s)
	advance(t, eng, s)
	assert.Equal(t, 35, p.Health)
}

func TestStunSkipsAction(t *testing.T) {
	cat := testCatalog(t)
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(cat, allMiss())
	s := startBattle(t, eng, p, o)
	p.AddEffect(effect(t, cat, "STUNNED"))
	require.True(t, p.Status.Stunned)

	advance(t, eng, s)
	tr, _ := advance(t, eng, s)
	assert.True(t, tr.Stunned)
	assert.Empty(t, tr.Action)
	assert.False(t, p.Status.Stunned)
	assert.False(t, p.HasEffect("STUNNED"))

	advance(t, eng, s)
	tr, _ = advance(t, eng, s)
	assert.False(t, tr.Stunned)
	assert.Equal(t, "attack", tr.Action)
}

func TestLongStunKeepsFlagUntilExpired(t *testing.T) {
	cat := testCatalog(t)
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(cat, allMiss())
	s := startBattle(t, eng, p, o)
	p.AddEffect(cat.MustLookup("STUNNED").Instantiate(0, "bash", EffectOverride{Duration: 2}))

	advance(t, eng, s)
	tr, _ := advance(t, eng, s)
	assert.True(t, tr.Stunned)
	assert.True(t, p.Status.Stunned)

	advance(t, eng, s)
	tr, _ = advance(t, eng, s)
	assert.True(t, tr.Stunned)
	assert.False(t, p.Status.Stunned)
}

func TestCooldownCountsOwnTurns(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	jab := skill("jab", SkillDamage, TargetEnemy, 0, 2)
	jab.Template.Value = 3
	p.Skills = []*Skill{jab}
	eng := NewEngine(testCatalog(t), allMiss(), WithPolicy(firstUsable{}))
	s := startBattle(t, eng, p, o)

	wantAction := []string{"skill", "attack", "skill"}
	wantCooldown := []int{2, 1, 2}
	for i := range wantAction {
		advance(t, eng, s)
		tr, _ := advance(t, eng, s)
		assert.Equal(t, wantAction[i], tr.Action, "player turn %d", i)
		assert.Equal(t, wantCooldown[i], jab.CurrentCooldown, "player turn %d", i)
		assert.GreaterOrEqual(t, jab.CurrentCooldown, 0)
	}
}

func TestTurnsAlternate(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(testCatalog(t), allMiss())
	s := startBattle(t, eng, p, o)

	prev := ""
	for i := 0; i < 10; i++ {
		tr, out := advance(t, eng, s)
		require.Nil(t, out)
		assert.Equal(t, i, tr.Turn)
		assert.Equal(t, i+1, s.Turn)
		assert.NotEqual(t, prev, tr.ActorID)
		prev = tr.ActorID
	}
}

func TestBattleRunsToKnockout(t *testing.T) {
	p, o := newFighter("p", 30), newFighter("o", 30)
	eng := NewEngine(testCatalog(t), util.New(42), WithMaxTurns(0))
	s := startBattle(t, eng, p, o)

	var out *BattleOutcome
	for i := 0; out == nil && i < 10000; i++ {
		_, out = advance(t, eng, s)
	}
	require.NotNil(t, out)
	assert.Equal(t, ReasonKnockout, out.Reason)
	assert.NotEqual(t, out.WinnerID, out.LoserID)
	assert.ElementsMatch(t, []string{p.ID, o.ID}, []string{out.WinnerID, out.LoserID})
	assert.True(t, s.combatant(out.LoserID).Defeated())
	assert.False(t, s.combatant(out.WinnerID).Defeated())
	assert.Same(t, out, s.Outcome)

	turn := s.Turn
	_, again, err := eng.Advance(context.Background(), s)
	assert.ErrorIs(t, err, ErrBattleOver)
	assert.Nil(t, again)
	assert.Equal(t, turn, s.Turn)
}

func TestDamageOverTimeCanEndBattle(t *testing.T) {
	cat := testCatalog(t)
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(cat, allMiss())
	s := startBattle(t, eng, p, o)
	p.Health = 3
	p.AddEffect(effect(t, cat, "BURNING"))

	advance(t, eng, s)
	tr, out := advance(t, eng, s)

	require.NotNil(t, out)
	assert.Equal(t, o.ID, out.WinnerID)
	assert.Equal(t, p.ID, out.LoserID)
	assert.Empty(t, tr.Action)
	assert.Zero(t, p.Health)
}

func TestStalemateGuard(t *testing.T) {
	tests := []struct {
		name       string
		playerHP   int
		opponentHP int
		wantPlayer bool
	}{
		{"player ahead on health", 50, 10, true},
		{"opponent ahead on health", 10, 50, false},
		{"tie goes to opponent", 50, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, o := newFighter("p", 50), newFighter("o", 50)
			eng := NewEngine(testCatalog(t), allMiss(), WithMaxTurns(6))
			s := startBattle(t, eng, p, o)
			p.Health, o.Health = tt.playerHP, tt.opponentHP

			var out *BattleOutcome
			for i := 0; i < 6; i++ {
				require.Nil(t, out, "ended early at turn %d", i)
				_, out = advance(t, eng, s)
			}
			require.NotNil(t, out)
			assert.Equal(t, ReasonStalemate, out.Reason)
			assert.Equal(t, 6, out.Turn)
			assert.Equal(t, tt.wantPlayer, out.WinnerID == p.ID)
		})
	}
}

func TestManualDefendHalvesNextHit(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	p.Stats.Agility = 6
	// initiative, initiative, opponent hit roll, opponent crit roll
	eng := NewEngine(testCatalog(t), util.NewScript(0.5, 0.5, 0.0, 0.99))
	s := startBattle(t, eng, p, o)
	require.Equal(t, p.ID, s.ActiveID)
	s.SetAutoBattle(false)

	_, _, err := eng.Advance(context.Background(), s)
	require.ErrorIs(t, err, ErrAwaitingInput)
	assert.True(t, s.AwaitingInput())

	require.NoError(t, eng.Submit(s, Action{Kind: ActionDefend}))
	tr, _ := advance(t, eng, s)
	assert.Equal(t, "defend", tr.Action)
	assert.True(t, p.Status.Defending)

	advance(t, eng, s)
	assert.Equal(t, 46, p.Health, "9 damage halved and floored")

	require.NoError(t, eng.Submit(s, Attack()))
	advance(t, eng, s)
	assert.False(t, p.Status.Defending)
}

func TestManualPotion(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	p.Stats.Agility = 6
	eng := NewEngine(testCatalog(t), allMiss())
	s := startBattle(t, eng, p, o)
	s.SetAutoBattle(false)
	p.Health, p.Potions = 20, 1

	require.NoError(t, eng.Submit(s, Action{Kind: ActionItem}))
	tr, _ := advance(t, eng, s)

	assert.Equal(t, 45, p.Health)
	assert.Zero(t, p.Potions)
	require.NotEmpty(t, tr.Entries)
	assert.Equal(t, LogItem, tr.Entries[len(tr.Entries)-1].Kind)

	advance(t, eng, s)
	assert.ErrorIs(t, eng.Submit(s, Action{Kind: ActionItem}), ErrNoItem)
}

func TestSubmitRejectsUnusableSkills(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	jab := skill("jab", SkillDamage, TargetEnemy, 10, 2)
	p.Skills = []*Skill{jab}
	eng := NewEngine(testCatalog(t), allMiss())
	s := startBattle(t, eng, p, o)

	jab.CurrentCooldown = 1
	assert.ErrorIs(t, eng.Submit(s, UseSkill(jab)), ErrSkillNotUsable)

	jab.CurrentCooldown = 0
	p.Mana = 9
	assert.ErrorIs(t, eng.Submit(s, UseSkill(jab)), ErrSkillNotUsable)

	foreign := skill("jab", SkillDamage, TargetEnemy, 0, 0)
	assert.ErrorIs(t, eng.Submit(s, UseSkill(foreign)), ErrSkillNotUsable)
	assert.False(t, s.Pending())

	p.Mana = 10
	assert.NoError(t, eng.Submit(s, UseSkill(jab)))
	assert.True(t, s.Pending())
}

func TestDodgeConsumedOnlyByLandedRoll(t *testing.T) {
	t.Run("hit roll succeeds", func(t *testing.T) {
		p, o := newFighter("p", 50), newFighter("o", 50)
		eng := NewEngine(testCatalog(t), util.NewScript(0.99, 0.99, 0.0))
		s := startBattle(t, eng, p, o)
		p.Status.Dodging = true

		tr, _ := advance(t, eng, s)

		assert.False(t, p.Status.Dodging)
		assert.Equal(t, 50, p.Health)
		assert.Equal(t, "Dodge", tr.Events[0].Type)
	})
	t.Run("hit roll fails", func(t *testing.T) {
		p, o := newFighter("p", 50), newFighter("o", 50)
		eng := NewEngine(testCatalog(t), allMiss())
		s := startBattle(t, eng, p, o)
		p.Status.Dodging = true

		tr, _ := advance(t, eng, s)

		assert.True(t, p.Status.Dodging)
		assert.Equal(t, "Miss", tr.Events[0].Type)
	})
}

func TestDamagingSkillAppliesStatusOnHit(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	p.Stats.Agility = 6
	dart := skill("dart", SkillDamage, TargetEnemy, 0, 3)
	dart.Template.Value = 5
	dart.Template.Applies = "BURNING"
	dart.Template.StatusDuration = 3
	v := 4.0
	dart.Template.StatusValue = &v
	p.Skills = []*Skill{dart}
	// initiative x2, player hit, player crit; opponent hit, opponent crit
	eng := NewEngine(testCatalog(t), util.NewScript(0.5, 0.5, 0.0, 0.99, 0.99, 0.99), WithPolicy(firstUsable{}))
	s := startBattle(t, eng, p, o)

	tr, _ := advance(t, eng, s)
	assert.Equal(t, 45, o.Health)
	burn := o.EffectByKey("BURNING")
	require.NotNil(t, burn)
	assert.Equal(t, 4.0, burn.Value)
	assert.Equal(t, 3, burn.Duration)
	assert.Equal(t, "dart", burn.SourceSkill)
	assert.Contains(t, eventTypes(tr.Events), "ApplyStatus")

	advance(t, eng, s)
	assert.Equal(t, 41, o.Health)
}

func TestStatusChanceRoll(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	p.Stats.Agility = 6
	zap := skill("zap", SkillDamage, TargetEnemy, 0, 0)
	zap.Template.Value = 5
	zap.Template.Applies = "STUNNED"
	zap.Template.StatusChance = 0.3
	p.Skills = []*Skill{zap}
	// initiative x2, hit, no crit, status roll fails
	eng := NewEngine(testCatalog(t), util.NewScript(0.5, 0.5, 0.0, 0.99, 0.5), WithPolicy(firstUsable{}))
	s := startBattle(t, eng, p, o)

	advance(t, eng, s)
	assert.Equal(t, 45, o.Health)
	assert.False(t, o.HasEffect("STUNNED"))
}

func TestSupportSkills(t *testing.T) {
	cat := testCatalog(t)
	tests := []struct {
		name  string
		skill *Skill
		check func(t *testing.T, p, o *Combatant)
	}{
		{
			name: "shield uses skill value as pool",
			skill: func() *Skill {
				s := skill("ward", SkillShieldSelf, TargetSelf, 20, 3)
				s.Template.Applies, s.Template.Value = "MANA_SHIELD", 40
				return s
			}(),
			check: func(t *testing.T, p, _ *Combatant) {
				sh := p.ActiveShield()
				require.NotNil(t, sh)
				assert.Equal(t, 40, sh.Shield.Current)
				assert.Equal(t, 30, p.Mana)
			},
		},
		{
			name: "debuff lands on the enemy",
			skill: func() *Skill {
				s := skill("sunder", SkillDebuffTarget, TargetEnemy, 5, 3)
				s.Template.Applies = "ARMOR_DEBUFF"
				return s
			}(),
			check: func(t *testing.T, p, o *Combatant) {
				assert.True(t, o.HasEffect("ARMOR_DEBUFF"))
				assert.False(t, p.HasEffect("ARMOR_DEBUFF"))
			},
		},
		{
			name:  "heal defaults to intelligence",
			skill: skill("mend", SkillHeal, TargetSelf, 5, 3),
			check: func(t *testing.T, p, _ *Combatant) {
				assert.Equal(t, 25, p.Health)
			},
		},
		{
			name: "buff without status only narrates",
			skill: skill("pose", SkillBuffSelf, TargetSelf, 0, 1),
			check: func(t *testing.T, p, _ *Combatant) {
				assert.Empty(t, p.Effects)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, o := newFighter("p", 50), newFighter("o", 50)
			p.Stats.Agility = 6
			p.Stats.Intelligence = 10
			p.Skills = []*Skill{tt.skill}
			eng := NewEngine(cat, allMiss(), WithPolicy(firstUsable{}))
			s := startBattle(t, eng, p, o)
			p.Health = 10

			tr, _ := advance(t, eng, s)

			assert.Equal(t, "skill", tr.Action)
			assert.Equal(t, tt.skill.Template.Cooldown, tt.skill.CurrentCooldown)
			tt.check(t, p, o)
		})
	}
}

func TestNarratorFallback(t *testing.T) {
	tests := []struct {
		name     string
		narrator Narrator
		want     string
	}{
		{"failing narrator uses template", failingNarrator{}, "o attacks p but misses!"},
		{"empty text uses template", fixedNarrator(""), "o attacks p but misses!"},
		{"narrator text is used", fixedNarrator("o flails at the air."), "o flails at the air."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, o := newFighter("p", 50), newFighter("o", 50)
			eng := NewEngine(testCatalog(t), allMiss(), WithNarrator(tt.narrator))
			s := startBattle(t, eng, p, o)

			tr, _ := advance(t, eng, s)

			require.NotEmpty(t, tr.Entries)
			last := tr.Entries[len(tr.Entries)-1]
			assert.Equal(t, tt.want, last.Text)
			assert.Equal(t, LogCombat, last.Kind)
		})
	}
}

func TestCancelStopsBattle(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(testCatalog(t), allMiss())
	s := startBattle(t, eng, p, o)
	advance(t, eng, s)

	eng.Cancel(s)

	assert.True(t, s.Cancelled())
	assert.False(t, s.AutoBattle)
	assert.Nil(t, s.Outcome)
	_, _, err := eng.Advance(context.Background(), s)
	assert.ErrorIs(t, err, ErrBattleCancelled)
	assert.ErrorIs(t, eng.Submit(s, Attack()), ErrBattleCancelled)
}

func TestAdvanceHonoursContext(t *testing.T) {
	p, o := newFighter("p", 50), newFighter("o", 50)
	eng := NewEngine(testCatalog(t), allMiss())
	s := startBattle(t, eng, p, o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := eng.Advance(ctx, s)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Turn)
}

func TestInvariantsHoldAcrossRandomBattles(t *testing.T) {
	cat := testCatalog(t)
	kit := func() []*Skill {
		blast := skill("blast", SkillDamage, TargetEnemy, 12, 1)
		blast.Template.Value = 12
		shot := skill("shot", SkillSpecialAttack, TargetEnemy, 8, 2)
		shot.Template.Value = 10
		ward := skill("ward", SkillShieldSelf, TargetSelf, 20, 3)
		ward.Template.Applies = "MANA_SHIELD"
		skin := skill("skin", SkillBuffSelf, TargetSelf, 15, 4)
		skin.Template.Applies = "IRON_SKIN"
		flow := skill("flow", SkillBuffSelf, TargetSelf, 5, 5)
		flow.Template.Applies = "MANA_REGEN"
		dart := skill("dart", SkillDamage, TargetEnemy, 15, 3)
		dart.Template.Value, dart.Template.Applies = 5, "BURNING"
		mend := skill("mend", SkillHeal, TargetSelf, 16, 4)
		mend.Template.Applies = "REGENERATION"
		bolt := skill("bolt", SkillDamage, TargetEnemy, 18, 4)
		bolt.Template.Value, bolt.Template.Applies, bolt.Template.StatusChance = 10, "STUNNED", 0.3
		return []*Skill{blast, shot, ward, skin, flow, dart, mend, bolt}
	}
	for seed := int64(1); seed <= 25; seed++ {
		p, o := newFighter("p", 45), newFighter("o", 55)
		p.Stats.Intelligence, o.Stats.Armor, o.Stats.Luck = 12, 6, 3
		p.Skills, o.Skills = kit(), kit()
		eng := NewEngine(cat, util.New(seed))
		s := startBattle(t, eng, p, o)

		var out *BattleOutcome
		for out == nil {
			_, out = advance(t, eng, s)
			for _, c := range []*Combatant{p, o} {
				require.GreaterOrEqual(t, c.Health, 0)
				require.LessOrEqual(t, c.Health, c.Stats.MaxHealth)
				require.GreaterOrEqual(t, c.Mana, 0)
				require.LessOrEqual(t, c.Mana, c.Stats.MaxMana)
				for _, sk := range c.Skills {
					require.GreaterOrEqual(t, sk.CurrentCooldown, 0)
				}
				for _, fx := range c.Effects {
					if fx.Shield != nil {
						require.Greater(t, fx.Shield.Current, 0)
					}
				}
			}
		}
		assert.LessOrEqual(t, out.Turn, DefaultMaxTurns, "seed %d", seed)
		assert.LessOrEqual(t, s.Log.Len(), DefaultLogCap)
	}
}

func eventTypes(evs []Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}
