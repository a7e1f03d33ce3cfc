package progression

import (
	"errors"
	"fmt"
	"sort"

	"brawlsim/internal/config"
)

var ErrUnknownTier = errors.New("unknown arena tier")

type Tier struct {
	Name      string
	MinPoints int
}

// Ladder is the ordered set of arena tiers, lowest first.
type Ladder struct {
	tiers []Tier
}

func NewLadder(defs []config.ArenaTierDef) (*Ladder, error) {
	if len(defs) == 0 {
		return nil, errors.New("arena ladder needs at least one tier")
	}
	l := &Ladder{tiers: make([]Tier, 0, len(defs))}
	seen := map[string]bool{}
	for _, d := range defs {
		if d.Name == "" {
			return nil, errors.New("arena tier without name")
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("arena tier %q defined twice", d.Name)
		}
		seen[d.Name] = true
		l.tiers = append(l.tiers, Tier{Name: d.Name, MinPoints: d.MinPoints})
	}
	sort.SliceStable(l.tiers, func(i, j int) bool { return l.tiers[i].MinPoints < l.tiers[j].MinPoints })
	if l.tiers[0].MinPoints > 0 {
		return nil, fmt.Errorf("lowest arena tier %s must start at 0 points", l.tiers[0].Name)
	}
	return l, nil
}

// TierFor returns the highest tier whose threshold the points reach.
func (l *Ladder) TierFor(points int) Tier {
	cur := l.tiers[0]
	for _, t := range l.tiers[1:] {
		if points >= t.MinPoints {
			cur = t
		}
	}
	return cur
}

func (l *Ladder) Index(name string) (int, error) {
	for i, t := range l.tiers {
		if t.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTier, name)
}

// At returns the tier at i, clamped to the ladder.
func (l *Ladder) At(i int) Tier {
	i = max(0, min(len(l.tiers)-1, i))
	return l.tiers[i]
}

func (l *Ladder) Len() int { return len(l.tiers) }
