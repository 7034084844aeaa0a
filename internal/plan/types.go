// types.go
package plan

// Raw config loaded from YAML (or JSON request bodies); every layer of the
// defaults → banners → plan merge has this shape.
type RawConfig struct {
	Version    string                      `yaml:"version" json:"version,omitempty"`
	Rules      *RulesConfig                `yaml:"rules,omitempty" json:"rules,omitempty"`
	Yields     *YieldsConfig               `yaml:"yields,omitempty" json:"yields,omitempty"`
	Simulation *SimulationConfig           `yaml:"simulation,omitempty" json:"simulation,omitempty"`
	Banners    []BannerConfig              `yaml:"banners,omitempty" json:"banners,omitempty"`
	Start      *StartConfig                `yaml:"start,omitempty" json:"start,omitempty"`
	Allocation map[string]AllocationConfig `yaml:"allocation,omitempty" json:"allocation,omitempty"`
	Goals      []GoalConfig                `yaml:"goals,omitempty" json:"goals,omitempty"`
	Budget     *int                        `yaml:"budget,omitempty" json:"budget,omitempty"`
	Notes      string                      `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type RulesConfig struct {
	Character            *CurveConfig `yaml:"character,omitempty" json:"character,omitempty"`
	Weapon               *CurveConfig `yaml:"weapon,omitempty" json:"weapon,omitempty"`
	CharacterNotable     *CurveConfig `yaml:"character_notable,omitempty" json:"character_notable,omitempty"`
	WeaponNotable        *CurveConfig `yaml:"weapon_notable,omitempty" json:"weapon_notable,omitempty"`
	FeaturedChance       *float64     `yaml:"featured_chance,omitempty" json:"featured_chance,omitempty"`
	WeaponFeaturedChance *float64     `yaml:"weapon_featured_chance,omitempty" json:"weapon_featured_chance,omitempty"`
	RadianceAfter        *int         `yaml:"radiance_after,omitempty" json:"radiance_after,omitempty"`
	FateThreshold        *int         `yaml:"fate_threshold,omitempty" json:"fate_threshold,omitempty"`
}

type CurveConfig struct {
	Base      *float64 `yaml:"base,omitempty" json:"base,omitempty"`
	SoftStart *int     `yaml:"soft_start,omitempty" json:"soft_start,omitempty"`
	Step      *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Hard      *int     `yaml:"hard,omitempty" json:"hard,omitempty"`
}

type YieldsConfig struct {
	CharacterNotable *float64 `yaml:"character_notable,omitempty" json:"character_notable,omitempty"`
	WeaponNotable    *float64 `yaml:"weapon_notable,omitempty" json:"weapon_notable,omitempty"`
	Duplicate        *float64 `yaml:"duplicate,omitempty" json:"duplicate,omitempty"`
	FirstCopy        *float64 `yaml:"first_copy,omitempty" json:"first_copy,omitempty"`
	PerPull          *int     `yaml:"per_pull,omitempty" json:"per_pull,omitempty"` // currency per pull
}

type SimulationConfig struct {
	Repetitions *int    `yaml:"repetitions,omitempty" json:"repetitions,omitempty"`
	ChunkSize   *int    `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	Workers     *int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	Seed        *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	CarryOver   *bool   `yaml:"carry_over,omitempty" json:"carry_over,omitempty"`
}

type BannerConfig struct {
	ID         string   `yaml:"id" json:"id"`
	Start      string   `yaml:"start,omitempty" json:"start,omitempty"` // YYYY-MM-DD
	End        string   `yaml:"end,omitempty" json:"end,omitempty"`
	Characters []string `yaml:"characters,omitempty" json:"characters,omitempty"`
	Weapons    []string `yaml:"weapons,omitempty" json:"weapons,omitempty"`
}

type StartConfig struct {
	Character PityConfig `yaml:"character" json:"character"`
	Weapon    PityConfig `yaml:"weapon" json:"weapon"`
}

type PityConfig struct {
	Pity       int  `yaml:"pity" json:"pity"`
	Guaranteed bool `yaml:"guaranteed" json:"guaranteed"`
	Losses     int  `yaml:"losses,omitempty" json:"losses,omitempty"`
	FatePoints int  `yaml:"fate_points,omitempty" json:"fate_points,omitempty"`
}

type AllocationConfig struct {
	Characters []CharacterGoalConfig `yaml:"characters,omitempty" json:"characters,omitempty"`
	Weapon     *WeaponGoalConfig     `yaml:"weapon,omitempty" json:"weapon,omitempty"`
}

type CharacterGoalConfig struct {
	ID       string `yaml:"id" json:"id"`
	Pulls    int    `yaml:"pulls" json:"pulls"`
	MaxLevel int    `yaml:"max_level" json:"max_level"`
}

type WeaponGoalConfig struct {
	Target   string `yaml:"target" json:"target"`
	Pulls    int    `yaml:"pulls" json:"pulls"`
	MaxLevel int    `yaml:"max_level" json:"max_level"`
	Policy   string `yaml:"policy,omitempty" json:"policy,omitempty"` // "stop" | "continue"
}

// GoalConfig is an optimizer goal with its priority label.
type GoalConfig struct {
	Banner   string `yaml:"banner" json:"banner"`
	Kind     string `yaml:"kind" json:"kind"` // "character" | "weapon"
	Item     string `yaml:"item" json:"item"`
	Priority string `yaml:"priority" json:"priority"` // highest | high | medium | skip
	MaxLevel int    `yaml:"max_level,omitempty" json:"max_level,omitempty"`
	Policy   string `yaml:"policy,omitempty" json:"policy,omitempty"`
}
