package config

type ClassesConfig struct {
	Classes []ClassDef `yaml:"classes"`
}

type ClassDef struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	PrimaryStat string    `yaml:"primary_stat"`
	Stats       StatRange `yaml:"stats"`
	Skills      []Skill   `yaml:"skills"`
}

// StatRange holds inclusive [min, max] rolls for a freshly minted brawler.
type StatRange struct {
	Strength     [2]int `yaml:"strength"`
	Health       [2]int `yaml:"health"`
	Armor        [2]int `yaml:"armor"`
	Agility      [2]int `yaml:"agility"`
	Intelligence [2]int `yaml:"intelligence"`
	Mana         [2]int `yaml:"mana"`
	Luck         [2]int `yaml:"luck"`
	Accuracy     [2]int `yaml:"accuracy"`
}

type Skill struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	ManaCost       int      `yaml:"mana_cost"`
	Cooldown       int      `yaml:"cooldown"`
	Effect         string   `yaml:"effect"`
	Value          float64  `yaml:"value"`
	Target         string   `yaml:"target"`
	Applies        string   `yaml:"applies"`
	StatusDuration int      `yaml:"status_duration"`
	StatusValue    *float64 `yaml:"status_value"`
	StatusChance   *float64 `yaml:"status_chance"`
}
