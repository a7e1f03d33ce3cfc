package combat

import (
	"context"
	"encoding/json"
	"fmt"
)

type SimResult struct {
	Win               bool               `json:"win"`
	Turns             int                `json:"turns"`
	Reason            Reason             `json:"reason"`
	Outcome           *BattleOutcome     `json:"outcome,omitempty"`
	Events            []Event            `json:"events,omitempty"`
	Log               []LogEntry         `json:"log,omitempty"`
	DamageBySkill     map[string]float64 `json:"damage_by_skill,omitempty"`
	DamageByCombatant map[string]float64 `json:"damage_by_combatant,omitempty"`
	Statuses          map[string]int     `json:"statuses"`
	Meta              SimMeta            `json:"meta"`
}

type SimMeta struct {
	Player   SimCombatantMeta `json:"player"`
	Opponent SimCombatantMeta `json:"opponent"`
}

type SimCombatantMeta struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Level     int    `json:"level"`
	MaxHP     int    `json:"max_hp"`
	FinalHP   int    `json:"final_hp"`
	FinalMana int    `json:"final_mana"`
}

func combatantMeta(c *Combatant) SimCombatantMeta {
	return SimCombatantMeta{
		ID:        c.ID,
		Name:      c.Name,
		Class:     c.Class,
		Level:     c.Level,
		MaxHP:     c.Stats.MaxHealth,
		FinalHP:   c.Health,
		FinalMana: c.Mana,
	}
}

// RunSingle fights one battle to completion in auto mode. Win is from the
// player's side. With record set the result carries every event and the
// retained battle log.
func RunSingle(ctx context.Context, eng *Engine, player, opponent *Combatant, record bool) (SimResult, error) {
	s, err := eng.Start(player, opponent)
	if err != nil {
		return SimResult{}, err
	}

	names := map[string]string{player.ID: player.Name, opponent.ID: opponent.Name}
	damageBySkill := map[string]float64{}
	damageByCombatant := map[string]float64{}
	statuses := map[string]int{}
	var events []Event

	var out *BattleOutcome
	for out == nil {
		var tr TurnResult
		tr, out, err = eng.Advance(ctx, s)
		if err != nil {
			return SimResult{}, fmt.Errorf("battle %s turn %d: %w", s.ID, s.Turn, err)
		}
		for _, ev := range tr.Events {
			switch ev.Type {
			case "Hit":
				amt := payloadInt(ev.Payload, "amount") + payloadInt(ev.Payload, "absorbed")
				damageBySkill[payloadString(ev.Payload, "skill")] += float64(amt)
				damageByCombatant[names[payloadString(ev.Payload, "actor")]] += float64(amt)
			case "StatusTick":
				amt := payloadInt(ev.Payload, "amount")
				damageBySkill[payloadString(ev.Payload, "skill")] += float64(amt)
				damageByCombatant[names[payloadString(ev.Payload, "source")]] += float64(amt)
			case "ApplyStatus":
				statuses[payloadString(ev.Payload, "effect")]++
			}
		}
		if record {
			events = append(events, tr.Events...)
		}
	}

	res := SimResult{
		Win:               out.WinnerID == player.ID,
		Turns:             out.Turn,
		Reason:            out.Reason,
		Outcome:           out,
		DamageBySkill:     damageBySkill,
		DamageByCombatant: damageByCombatant,
		Statuses:          statuses,
		Meta:              SimMeta{Player: combatantMeta(player), Opponent: combatantMeta(opponent)},
	}
	if record {
		res.Events = events
		res.Log = s.Log.Entries()
	}
	return res, nil
}

func payloadInt(p map[string]any, key string) int {
	v, _ := p[key].(int)
	return v
}

func payloadString(p map[string]any, key string) string {
	v, _ := p[key].(string)
	return v
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
