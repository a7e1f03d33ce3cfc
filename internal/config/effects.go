package config

type EffectsConfig struct {
	Effects []EffectDef `yaml:"effects"`
}

type EffectDef struct {
	Key             string  `yaml:"key"`
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	Type            string  `yaml:"type"`
	Value           float64 `yaml:"value"`
	ValueType       string  `yaml:"value_type"`
	Stat            string  `yaml:"stat"`
	DefaultDuration int     `yaml:"default_duration"`
}
