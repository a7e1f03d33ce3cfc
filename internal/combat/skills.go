package combat

import (
	"errors"
	"fmt"
	"sort"

	"brawlsim/internal/config"
)

var ErrUnknownClass = errors.New("unknown brawler class")

type SkillTemplate struct {
	ID          string
	Name        string
	Description string
	ManaCost    int
	Cooldown    int
	Type        SkillType
	Value       float64
	Target      Target

	// Applies names a catalog effect; the Status* fields override it.
	Applies        string
	StatusDuration int
	StatusValue    *float64
	StatusChance   float64
}

type Skill struct {
	Template        SkillTemplate
	CurrentCooldown int
}

func (s *Skill) Ready() bool { return s.CurrentCooldown == 0 }

func (s *Skill) Usable(mana int) bool {
	return s.Ready() && mana >= s.Template.ManaCost
}

func (s *Skill) Trigger() { s.CurrentCooldown = s.Template.Cooldown }

// Tick decrements the remaining cooldown, floored at 0.
func (s *Skill) Tick() {
	if s.CurrentCooldown > 0 {
		s.CurrentCooldown--
	}
}

func (s *Skill) Offensive() bool {
	switch s.Template.Type {
	case SkillDamage, SkillSpecialAttack, SkillDebuffTarget:
		return s.Template.Target == TargetEnemy
	}
	return false
}

func (s *Skill) SelfBuff() bool {
	switch s.Template.Type {
	case SkillBuffSelf, SkillShieldSelf:
		return s.Template.Target == TargetSelf
	}
	return false
}

func (s *Skill) SelfHeal() bool {
	return s.Template.Type == SkillHeal && s.Template.Target == TargetSelf
}

// Class is an archetype: primary stat, stat rolls and a fixed skill set.
type Class struct {
	Name        string
	Description string
	PrimaryStat Stat
	Ranges      config.StatRange
	Skills      []SkillTemplate
}

// ClassBook indexes the playable classes.
type ClassBook struct {
	byName map[string]*Class
	names  []string
}

// NewClassBook builds classes from config, checking every referenced status
// effect against the catalog.
func NewClassBook(cfg *config.ClassesConfig, catalog *Catalog) (*ClassBook, error) {
	cb := &ClassBook{byName: map[string]*Class{}}
	if cfg == nil {
		return cb, nil
	}
	for _, cd := range cfg.Classes {
		if cd.Name == "" {
			return nil, errors.New("class without name")
		}
		if _, dup := cb.byName[cd.Name]; dup {
			return nil, fmt.Errorf("class %q defined twice", cd.Name)
		}
		primary, err := ParseStat(cd.PrimaryStat)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cd.Name, err)
		}
		cls := &Class{
			Name:        cd.Name,
			Description: cd.Description,
			PrimaryStat: primary,
			Ranges:      cd.Stats,
		}
		for _, s := range cd.Skills {
			tpl, err := buildSkillTemplate(s, catalog)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", cd.Name, err)
			}
			cls.Skills = append(cls.Skills, tpl)
		}
		cb.byName[cls.Name] = cls
		cb.names = append(cb.names, cls.Name)
	}
	sort.Strings(cb.names)
	return cb, nil
}

func buildSkillTemplate(s config.Skill, catalog *Catalog) (SkillTemplate, error) {
	if s.ID == "" {
		return SkillTemplate{}, errors.New("skill without id")
	}
	typ, err := ParseSkillType(s.Effect)
	if err != nil {
		return SkillTemplate{}, fmt.Errorf("skill %s: %w", s.ID, err)
	}
	target, err := ParseTarget(s.Target)
	if err != nil {
		return SkillTemplate{}, fmt.Errorf("skill %s: %w", s.ID, err)
	}
	if s.ManaCost < 0 || s.Cooldown < 0 {
		return SkillTemplate{}, fmt.Errorf("skill %s: negative cost or cooldown", s.ID)
	}
	if s.Applies != "" {
		if catalog == nil {
			return SkillTemplate{}, fmt.Errorf("skill %s: %w: %s", s.ID, ErrEffectNotFound, s.Applies)
		}
		if _, err := catalog.Lookup(s.Applies); err != nil {
			return SkillTemplate{}, fmt.Errorf("skill %s: %w", s.ID, err)
		}
	}
	chance := 1.0
	if s.StatusChance != nil {
		chance = *s.StatusChance
	}
	if chance < 0 || chance > 1 {
		return SkillTemplate{}, fmt.Errorf("skill %s: status_chance must be within [0, 1]", s.ID)
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return SkillTemplate{
		ID:             s.ID,
		Name:           name,
		Description:    s.Description,
		ManaCost:       s.ManaCost,
		Cooldown:       s.Cooldown,
		Type:           typ,
		Value:          s.Value,
		Target:         target,
		Applies:        s.Applies,
		StatusDuration: s.StatusDuration,
		StatusValue:    s.StatusValue,
		StatusChance:   chance,
	}, nil
}

func (cb *ClassBook) Lookup(name string) (*Class, error) {
	cls, ok := cb.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return cls, nil
}

func (cb *ClassBook) Names() []string {
	return append([]string(nil), cb.names...)
}

// Instantiate returns fresh skills for the class, all off cooldown.
func (c *Class) Instantiate() []*Skill {
	out := make([]*Skill, len(c.Skills))
	for i := range c.Skills {
		out[i] = &Skill{Template: c.Skills[i]}
	}
	return out
}
