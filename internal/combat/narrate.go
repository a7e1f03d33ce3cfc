package combat

import (
	"context"
	"fmt"
	"strings"
)

// Line describes one resolved action for narration.
type Line struct {
	Action   string   `json:"action"` // attack, skill, defend, dodge, item
	Actor    string   `json:"actor"`
	Class    string   `json:"class"`
	Target   string   `json:"target"`
	Skill    string   `json:"skill,omitempty"`
	Hit      bool     `json:"hit"`
	Dodged   bool     `json:"dodged"`
	Critical bool     `json:"critical"`
	Damage   int      `json:"damage"`
	Absorbed int      `json:"absorbed"`
	Healed   int      `json:"healed"`
	Status   string   `json:"status,omitempty"`
	Details  []string `json:"details,omitempty"`
}

// Narrator turns a resolved action into flavour text. Implementations may be
// slow or fail; the engine falls back to Templates.
type Narrator interface {
	Describe(ctx context.Context, line Line) (string, error)
}

// Templates is the deterministic narrator. It never fails.
type Templates struct{}

func (Templates) Describe(_ context.Context, l Line) (string, error) {
	return templateText(l), nil
}

func templateText(l Line) string {
	var b strings.Builder
	switch l.Action {
	case "defend":
		fmt.Fprintf(&b, "%s braces for impact!", l.Actor)
		return b.String()
	case "dodge":
		fmt.Fprintf(&b, "%s becomes a blur, ready to evade the next attack.", l.Actor)
		return b.String()
	case "item":
		fmt.Fprintf(&b, "%s uses a Health Potion and recovers %d HP!", l.Actor, l.Healed)
		return b.String()
	case "skill":
		fmt.Fprintf(&b, "%s uses %s!", l.Actor, l.Skill)
	}

	switch {
	case l.Healed > 0:
		fmt.Fprintf(&b, "%s%s recovers %d HP.", sep(&b), l.Actor, l.Healed)
	case l.Status != "":
		fmt.Fprintf(&b, "%s%s", sep(&b), l.Status)
	case l.Dodged:
		if l.Action == "attack" {
			fmt.Fprintf(&b, "%s attacks, but %s dodges!", l.Actor, l.Target)
		} else {
			fmt.Fprintf(&b, " But %s dodges!", l.Target)
		}
	case !l.Hit && (l.Action == "attack" || l.Damage == 0 && l.Absorbed == 0 && l.Target != ""):
		if l.Action == "attack" {
			fmt.Fprintf(&b, "%s attacks %s but misses!", l.Actor, l.Target)
		} else {
			fmt.Fprintf(&b, " But it misses %s.", l.Target)
		}
	case l.Hit:
		if l.Absorbed > 0 {
			fmt.Fprintf(&b, "%s%s's shield absorbs %d damage!", sep(&b), l.Target, l.Absorbed)
		}
		verb := "hits"
		if l.Critical {
			verb = "critically hits"
		}
		fmt.Fprintf(&b, "%s%s %s %s for %d damage.", sep(&b), l.Actor, verb, l.Target, l.Damage)
		if d := detailText(l.Details); d != "" {
			fmt.Fprintf(&b, " %s", d)
		}
	}
	return b.String()
}

func sep(b *strings.Builder) string {
	if b.Len() == 0 {
		return ""
	}
	return " "
}

func detailText(details []string) string {
	var parts []string
	for _, d := range details {
		if d == "CRITICAL HIT!" {
			continue
		}
		parts = append(parts, "("+d+")")
	}
	return strings.Join(parts, " ")
}
