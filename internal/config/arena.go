package config

type ArenaConfig struct {
	InitialPoints int            `yaml:"initial_points"`
	InitialTokens int            `yaml:"initial_tokens"`
	PointsPerWin  int            `yaml:"points_per_win"`
	PointsPerLoss int            `yaml:"points_per_loss"`
	XPPerLevel    int            `yaml:"xp_per_level"`
	PotionHeal    int            `yaml:"potion_heal"`
	HistoryCap    int            `yaml:"history_cap"`
	Tiers         []ArenaTierDef `yaml:"tiers"`
}

type ArenaTierDef struct {
	Name      string `yaml:"name"`
	MinPoints int    `yaml:"min_points"`
}
