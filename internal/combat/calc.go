package combat

import "math"

const (
	BaseHitChance        = 75.0
	MinHitChance         = 10.0
	MaxHitChance         = 95.0
	SkillAccuracyWeight  = 1.5
	AttackAccuracyWeight = 1.0
	LuckHitWeight        = 0.5
	DodgeEvasionBonus    = 1.2

	BaseCritChance    = 5.0
	LuckCritWeight    = 1.5
	SpecialCritBonus  = 10.0
	CritMultiplier    = 1.75
	ArmorFactor       = 0.5
	DefendMultiplier  = 0.5
	AttackStrWeight   = 0.8
	AttackAgiWeight   = 0.2
	HealIntMultiplier = 1.5
)

// EffectiveArmor is base armor after armor debuffs, never negative.
func EffectiveArmor(c *Combatant) float64 {
	armor := float64(c.Stats.Armor)
	for _, e := range c.Effects {
		if e.Type == EffectStatDebuff && e.Stat == StatArmor {
			armor = e.ValueType.apply(armor, -e.Value)
		}
	}
	return math.Max(0, armor)
}

// effectiveAccuracy folds accuracy_increase effects into the accuracy stat.
func effectiveAccuracy(c *Combatant) float64 {
	acc := float64(c.Stats.Accuracy)
	for _, e := range c.Effects {
		if e.Type == EffectAccuracyIncrease {
			acc = e.ValueType.apply(acc, e.Value)
		}
	}
	return acc
}

// HitChance is the percent chance that attacker lands a blow on defender.
// accuracyWeight differs between skills and basic attacks.
func HitChance(attacker, defender *Combatant, accuracyWeight float64) float64 {
	rating := effectiveAccuracy(attacker)*accuracyWeight + float64(attacker.Stats.Luck)*LuckHitWeight
	evasion := float64(defender.Stats.Agility)
	if defender.Status.Dodging {
		evasion *= DodgeEvasionBonus
	}
	return clamp(BaseHitChance+rating-evasion, MinHitChance, MaxHitChance)
}

func CritChance(attacker *Combatant, special bool) float64 {
	chance := BaseCritChance + float64(attacker.Stats.Luck)*LuckCritWeight
	if special {
		chance += SpecialCritBonus
	}
	return chance
}

// BasicAttackDamage is the pre-mitigation damage of an unarmed strike.
func BasicAttackDamage(c *Combatant) float64 {
	return float64(c.Stats.Strength)*AttackStrWeight + float64(c.Stats.Agility)*AttackAgiWeight
}

type DamageResult struct {
	Final     int
	CritBonus int
	Details   []string
}

// ResolveDamage runs base damage through the mitigation pipeline. Order:
// attacker buffs, crit, armor, damage reduction, defend, then floor with a
// minimum of 1.
func ResolveDamage(base float64, attacker, defender *Combatant, critical bool) DamageResult {
	var res DamageResult
	dmg := base

	for _, e := range attacker.Effects {
		if e.Type == EffectStatBuff && (e.Stat == StatStrength || e.Stat == StatIntelligence) {
			dmg = e.ValueType.apply(dmg, e.Value)
			res.Details = append(res.Details, e.Name)
		}
	}

	if critical {
		before := dmg
		dmg *= CritMultiplier
		res.CritBonus = int(math.Floor(dmg - before))
		res.Details = append(res.Details, "CRITICAL HIT!")
	}

	dmg -= EffectiveArmor(defender) * ArmorFactor

	for _, e := range defender.Effects {
		if e.Type == EffectDamageReduction {
			dmg = e.ValueType.apply(dmg, -e.Value)
			res.Details = append(res.Details, e.Name)
		}
	}

	if defender.Status.Defending {
		dmg *= DefendMultiplier
		res.Details = append(res.Details, "Defended")
	}

	res.Final = int(math.Floor(dmg))
	if res.Final < 1 {
		res.Final = 1
	}
	return res
}

// AbsorbShield drains dmg from the defender's active shield first, removing
// the shield once its pool is empty, then applies the rest to health.
func AbsorbShield(defender *Combatant, dmg int) (absorbed, taken int) {
	if sh := defender.ActiveShield(); sh != nil {
		absorbed = min(sh.Shield.Current, dmg)
		sh.Shield.Current -= absorbed
		if sh.Shield.Current <= 0 {
			defender.removeEffect(sh.ID)
		}
	}
	taken = defender.TakeDamage(dmg - absorbed)
	return absorbed, taken
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
