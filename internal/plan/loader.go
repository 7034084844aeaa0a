package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for defaults/banners/plan files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/configs
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "defaults.yaml")
}
func (p Paths) BannersPath() string {
	return filepath.Join(p.BaseDir, "banners.yaml")
}
func (p Paths) PlanPath(name string) string {
	return filepath.Join(p.BaseDir, "plans", name+".yaml")
}

// Loader reads YAML configs and merges defaults → banners → plan.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: plan name, or "$base" for defaults+banners
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

// Paths returns the files this loader reads.
func (l *Loader) Paths() Paths { return l.paths }

// Base loads and merges defaults → banners (both optional).
func (l *Loader) Base() (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache["$base"]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read defaults: %w", err)
	}
	bannerCfg, err := readYAML(l.paths.BannersPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read banners: %w", err)
	}
	merged := Merge(defCfg, bannerCfg)

	l.mu.Lock()
	l.cache["$base"] = merged
	l.mu.Unlock()
	return merged, nil
}

// LoadMerged loads and merges defaults → banners → plans/<name>.yaml.
// It returns the merged RawConfig (without resolution).
func (l *Loader) LoadMerged(name string) (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	base, err := l.Base()
	if err != nil {
		return RawConfig{}, err
	}
	path := l.paths.PlanPath(name)
	if _, err := os.Stat(path); err != nil {
		return RawConfig{}, fmt.Errorf("plan %q: %w", name, err)
	}
	planCfg, err := readYAML(path)
	if err != nil {
		return RawConfig{}, fmt.Errorf("read plan %q: %w", name, err)
	}
	merged := Merge(base, planCfg)

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()
	return merged, nil
}

// LoadFile merges an arbitrary plan file over the base config.
func (l *Loader) LoadFile(path string) (RawConfig, error) {
	base, err := l.Base()
	if err != nil {
		return RawConfig{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, fmt.Errorf("read plan file: %w", err)
	}
	var cfg RawConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("parse plan file: %w", err)
	}
	return Merge(base, cfg), nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Merge performs a deep merge: 'b' overrides 'a' where non-zero/non-nil.
// Slices (banners, goals) are replaced whole; allocation entries are replaced per banner id.
func Merge(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if b.Budget != nil {
		out.Budget = b.Budget
	}

	// rules
	switch {
	case out.Rules == nil && b.Rules != nil:
		c := *b.Rules
		out.Rules = &c
	case out.Rules != nil && b.Rules != nil:
		r := *out.Rules
		r.Character = mergeCurve(r.Character, b.Rules.Character)
		r.Weapon = mergeCurve(r.Weapon, b.Rules.Weapon)
		r.CharacterNotable = mergeCurve(r.CharacterNotable, b.Rules.CharacterNotable)
		r.WeaponNotable = mergeCurve(r.WeaponNotable, b.Rules.WeaponNotable)
		if b.Rules.FeaturedChance != nil {
			r.FeaturedChance = b.Rules.FeaturedChance
		}
		if b.Rules.WeaponFeaturedChance != nil {
			r.WeaponFeaturedChance = b.Rules.WeaponFeaturedChance
		}
		if b.Rules.RadianceAfter != nil {
			r.RadianceAfter = b.Rules.RadianceAfter
		}
		if b.Rules.FateThreshold != nil {
			r.FateThreshold = b.Rules.FateThreshold
		}
		out.Rules = &r
	}

	// yields
	switch {
	case out.Yields == nil && b.Yields != nil:
		c := *b.Yields
		out.Yields = &c
	case out.Yields != nil && b.Yields != nil:
		y := *out.Yields
		if b.Yields.CharacterNotable != nil {
			y.CharacterNotable = b.Yields.CharacterNotable
		}
		if b.Yields.WeaponNotable != nil {
			y.WeaponNotable = b.Yields.WeaponNotable
		}
		if b.Yields.Duplicate != nil {
			y.Duplicate = b.Yields.Duplicate
		}
		if b.Yields.FirstCopy != nil {
			y.FirstCopy = b.Yields.FirstCopy
		}
		if b.Yields.PerPull != nil {
			y.PerPull = b.Yields.PerPull
		}
		out.Yields = &y
	}

	// simulation
	switch {
	case out.Simulation == nil && b.Simulation != nil:
		c := *b.Simulation
		out.Simulation = &c
	case out.Simulation != nil && b.Simulation != nil:
		s := *out.Simulation
		if b.Simulation.Repetitions != nil {
			s.Repetitions = b.Simulation.Repetitions
		}
		if b.Simulation.ChunkSize != nil {
			s.ChunkSize = b.Simulation.ChunkSize
		}
		if b.Simulation.Workers != nil {
			s.Workers = b.Simulation.Workers
		}
		if b.Simulation.Seed != nil {
			s.Seed = b.Simulation.Seed
		}
		if b.Simulation.CarryOver != nil {
			s.CarryOver = b.Simulation.CarryOver
		}
		out.Simulation = &s
	}

	if len(b.Banners) > 0 {
		out.Banners = append([]BannerConfig(nil), b.Banners...)
	}
	if b.Start != nil {
		c := *b.Start
		out.Start = &c
	}
	if len(b.Allocation) > 0 {
		alloc := make(map[string]AllocationConfig, len(a.Allocation)+len(b.Allocation))
		for id, ac := range a.Allocation {
			alloc[id] = ac
		}
		for id, ac := range b.Allocation {
			alloc[id] = ac
		}
		out.Allocation = alloc
	}
	if len(b.Goals) > 0 {
		out.Goals = append([]GoalConfig(nil), b.Goals...)
	}

	return out
}

func mergeCurve(a, b *CurveConfig) *CurveConfig {
	if b == nil {
		return a
	}
	if a == nil {
		c := *b
		return &c
	}
	c := *a
	if b.Base != nil {
		c.Base = b.Base
	}
	if b.SoftStart != nil {
		c.SoftStart = b.SoftStart
	}
	if b.Step != nil {
		c.Step = b.Step
	}
	if b.Hard != nil {
		c.Hard = b.Hard
	}
	return &c
}
