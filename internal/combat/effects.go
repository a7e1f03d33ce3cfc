package combat

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"brawlsim/internal/config"

	"github.com/google/uuid"
)

var ErrEffectNotFound = errors.New("status effect not found")

// EffectDef is an immutable catalog entry.
type EffectDef struct {
	Key             string
	Name            string
	Description     string
	Type            EffectType
	Value           float64
	ValueType       ValueType
	Stat            Stat
	DefaultDuration int
}

// Catalog is the registry of status-effect definitions. It is read-only once
// built.
type Catalog struct {
	defs map[string]EffectDef
}

func NewCatalog(cfg *config.EffectsConfig) (*Catalog, error) {
	c := &Catalog{defs: map[string]EffectDef{}}
	if cfg == nil {
		return c, nil
	}
	for _, d := range cfg.Effects {
		def, err := buildEffectDef(d)
		if err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.Key]; dup {
			return nil, fmt.Errorf("status effect %q defined twice", def.Key)
		}
		c.defs[def.Key] = def
	}
	return c, nil
}

func buildEffectDef(d config.EffectDef) (EffectDef, error) {
	if d.Key == "" {
		return EffectDef{}, errors.New("status effect without key")
	}
	typ, err := ParseEffectType(d.Type)
	if err != nil {
		return EffectDef{}, fmt.Errorf("status effect %s: %w", d.Key, err)
	}
	vt, err := ParseValueType(d.ValueType)
	if err != nil {
		return EffectDef{}, fmt.Errorf("status effect %s: %w", d.Key, err)
	}
	stat, err := ParseStat(d.Stat)
	if err != nil {
		return EffectDef{}, fmt.Errorf("status effect %s: %w", d.Key, err)
	}
	if (typ == EffectStatBuff || typ == EffectStatDebuff) && stat == StatNone {
		return EffectDef{}, fmt.Errorf("status effect %s: %s needs a stat", d.Key, typ)
	}
	if d.DefaultDuration <= 0 {
		return EffectDef{}, fmt.Errorf("status effect %s: default_duration must be positive", d.Key)
	}
	name := d.Name
	if name == "" {
		name = d.Key
	}
	return EffectDef{
		Key:             d.Key,
		Name:            name,
		Description:     d.Description,
		Type:            typ,
		Value:           d.Value,
		ValueType:       vt,
		Stat:            stat,
		DefaultDuration: d.DefaultDuration,
	}, nil
}

func (c *Catalog) Lookup(key string) (EffectDef, error) {
	def, ok := c.defs[key]
	if !ok {
		return EffectDef{}, fmt.Errorf("%w: %s", ErrEffectNotFound, key)
	}
	return def, nil
}

// MustLookup is for keys already validated at load time.
func (c *Catalog) MustLookup(key string) EffectDef {
	def, err := c.Lookup(key)
	if err != nil {
		panic(err)
	}
	return def
}

func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.defs))
	for k := range c.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShieldDetails is the absorption pool of an absorb_shield instance.
type ShieldDetails struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Effect is a status-effect instance active on a combatant.
type Effect struct {
	EffectDef
	ID          string
	SourceSkill string
	Duration    int
	AppliedTurn int
	Shield      *ShieldDetails
}

// EffectOverride carries per-application overrides from the applying skill.
// Zero/nil fields fall back to the definition.
type EffectOverride struct {
	Duration    int
	Value       *float64
	ShieldValue *float64
}

// Instantiate creates a fresh instance of the definition.
func (d EffectDef) Instantiate(turn int, sourceSkill string, ov EffectOverride) *Effect {
	e := &Effect{
		EffectDef:   d,
		ID:          uuid.NewString(),
		SourceSkill: sourceSkill,
		Duration:    d.DefaultDuration,
		AppliedTurn: turn,
	}
	if ov.Duration > 0 {
		e.Duration = ov.Duration
	}
	if ov.Value != nil {
		e.Value = *ov.Value
	}
	if d.Type == EffectAbsorbShield {
		pool := e.Value
		if ov.ShieldValue != nil {
			pool = *ov.ShieldValue
		}
		v := int(math.Floor(pool))
		e.Shield = &ShieldDetails{Current: v, Max: v}
	}
	return e
}

// EffectChange reports what AddEffect did.
type EffectChange int

const (
	EffectAdded EffectChange = iota
	EffectRefreshed
	EffectReinforced
)

func (c EffectChange) String() string {
	switch c {
	case EffectAdded:
		return "added"
	case EffectRefreshed:
		return "refreshed"
	case EffectReinforced:
		return "reinforced"
	}
	return "unknown"
}

// AddEffect applies e to the combatant. A non-shield effect whose key is
// already active refreshes that instance in place (identity kept). A shield
// with a matching key adds its pool to the existing one and keeps the longer
// duration. Stun and dodge effects raise the matching combat flag.
func (c *Combatant) AddEffect(e *Effect) (*Effect, EffectChange) {
	switch e.Type {
	case EffectStun:
		c.Status.Stunned = true
	case EffectDodgeIncrease:
		c.Status.Dodging = true
	}

	existing := c.EffectByKey(e.Key)
	if existing == nil {
		c.Effects = append(c.Effects, e)
		return e, EffectAdded
	}
	if e.Type == EffectAbsorbShield && e.Shield != nil {
		total := e.Shield.Current
		if existing.Shield != nil {
			total += existing.Shield.Current
		} else {
			existing.Shield = &ShieldDetails{}
		}
		existing.Shield.Current = total
		if total > existing.Shield.Max {
			existing.Shield.Max = total
		}
		if e.Duration > existing.Duration {
			existing.Duration = e.Duration
		}
		return existing, EffectReinforced
	}
	id := existing.ID
	*existing = *e
	existing.ID = id
	return existing, EffectRefreshed
}

func (c *Combatant) EffectByKey(key string) *Effect {
	for _, e := range c.Effects {
		if e.Key == key {
			return e
		}
	}
	return nil
}

func (c *Combatant) HasEffect(key string) bool { return c.EffectByKey(key) != nil }

func (c *Combatant) removeEffect(id string) {
	for i, e := range c.Effects {
		if e.ID == id {
			c.Effects = append(c.Effects[:i], c.Effects[i+1:]...)
			return
		}
	}
}

// ActiveShield returns the first shield with pool left, or nil.
func (c *Combatant) ActiveShield() *Effect {
	for _, e := range c.Effects {
		if e.Type == EffectAbsorbShield && e.Shield != nil && e.Shield.Current > 0 {
			return e
		}
	}
	return nil
}

func (c *Combatant) hasActiveStun() bool {
	for _, e := range c.Effects {
		if e.Type == EffectStun && e.Duration > 0 {
			return true
		}
	}
	return false
}
