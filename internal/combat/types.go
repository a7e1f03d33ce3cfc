package combat

// Event is a visual hint emitted while a turn resolves.
type Event struct {
	Turn    int            `json:"turn"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Stats struct {
	Strength     int `json:"strength"`
	Health       int `json:"health"`
	MaxHealth    int `json:"max_health"`
	Armor        int `json:"armor"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Mana         int `json:"mana"`
	MaxMana      int `json:"max_mana"`
	Luck         int `json:"luck"`
	Accuracy     int `json:"accuracy"`
}

// Get returns the value of a named stat.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatStrength:
		return s.Strength
	case StatHealth:
		return s.Health
	case StatMaxHealth:
		return s.MaxHealth
	case StatArmor:
		return s.Armor
	case StatAgility:
		return s.Agility
	case StatIntelligence:
		return s.Intelligence
	case StatMana:
		return s.Mana
	case StatMaxMana:
		return s.MaxMana
	case StatLuck:
		return s.Luck
	case StatAccuracy:
		return s.Accuracy
	}
	return 0
}

// Add raises a named stat by n.
func (s *Stats) Add(stat Stat, n int) {
	switch stat {
	case StatStrength:
		s.Strength += n
	case StatHealth:
		s.Health += n
	case StatMaxHealth:
		s.MaxHealth += n
	case StatArmor:
		s.Armor += n
	case StatAgility:
		s.Agility += n
	case StatIntelligence:
		s.Intelligence += n
	case StatMana:
		s.Mana += n
	case StatMaxMana:
		s.MaxMana += n
	case StatLuck:
		s.Luck += n
	case StatAccuracy:
		s.Accuracy += n
	}
}

type CombatStatus struct {
	Defending bool `json:"defending"`
	Dodging   bool `json:"dodging"`
	Stunned   bool `json:"stunned"`
}

// Combatant is a brawler taking part in a battle.
type Combatant struct {
	ID    string
	Name  string
	Class string
	Level int

	Stats  Stats
	Health int
	Mana   int

	Skills  []*Skill
	Effects []*Effect
	Status  CombatStatus
	Potions int

	XP          int
	XPToNext    int
	ArenaPoints int
	Tier        string
}

func (c *Combatant) Defeated() bool { return c.Health == 0 }

// TakeDamage lowers health by n, floored at 0, and returns the amount lost.
func (c *Combatant) TakeDamage(n int) int {
	if n <= 0 {
		return 0
	}
	before := c.Health
	c.Health -= n
	if c.Health < 0 {
		c.Health = 0
	}
	return before - c.Health
}

// Heal raises health by n, capped at max, and returns the amount gained.
func (c *Combatant) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := c.Health
	c.Health += n
	if c.Health > c.Stats.MaxHealth {
		c.Health = c.Stats.MaxHealth
	}
	return c.Health - before
}

// AddMana changes mana by n (negative to spend), clamped to [0, max].
func (c *Combatant) AddMana(n int) int {
	before := c.Mana
	c.Mana += n
	if c.Mana > c.Stats.MaxMana {
		c.Mana = c.Stats.MaxMana
	}
	if c.Mana < 0 {
		c.Mana = 0
	}
	return c.Mana - before
}

func (c *Combatant) HealthFraction() float64 {
	if c.Stats.MaxHealth <= 0 {
		return 0
	}
	return float64(c.Health) / float64(c.Stats.MaxHealth)
}

func (c *Combatant) Skill(id string) *Skill {
	for _, sk := range c.Skills {
		if sk.Template.ID == id {
			return sk
		}
	}
	return nil
}

// UsableSkills lists skills off cooldown that current mana can pay for, in
// skill-book order.
func (c *Combatant) UsableSkills() []*Skill {
	var out []*Skill
	for _, sk := range c.Skills {
		if sk.Usable(c.Mana) {
			out = append(out, sk)
		}
	}
	return out
}

// ResetForBattle clears per-battle state: effects, flags and cooldowns.
func (c *Combatant) ResetForBattle() {
	c.Effects = nil
	c.Status = CombatStatus{}
	for _, sk := range c.Skills {
		sk.CurrentCooldown = 0
	}
}
