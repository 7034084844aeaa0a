package sim

import (
	"math"
	"sort"
	"strings"

	"github.com/xtding233/gacha-planner/internal/plan"
)

// Stats summarizes pulls used per repetition.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}

// GoalResult is the aggregate of one (banner, goal) pair.
type GoalResult struct {
	Banner   string        `json:"banner"`
	Kind     plan.GoalKind `json:"kind"`
	Item     string        `json:"item"`
	Budget   int           `json:"budget"`
	MaxLevel int           `json:"max_level"`

	SuccessRate float64 `json:"success_rate"`
	LossRate    float64 `json:"loss_rate"`
	// LevelRates[i] is P(level >= i).
	LevelRates []float64 `json:"level_rates"`
	PullsUsed  Stats     `json:"pulls_used"`

	Secondary     string  `json:"secondary,omitempty"`
	SecondaryRate float64 `json:"secondary_rate,omitempty"`
}

// Scenario is one distinct per-banner outcome pattern and how often it occurred.
type Scenario struct {
	Pattern   string  `json:"pattern"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

// Result is the aggregate of a batch run.
type Result struct {
	Repetitions int          `json:"repetitions"`
	Seed        uint64       `json:"seed"`
	Goals       []GoalResult `json:"goals"`
	Scenarios   []Scenario   `json:"scenarios"`
}

// Goal finds the result for item on banner.
func (r *Result) Goal(banner, item string) (GoalResult, bool) {
	if r == nil {
		return GoalResult{}, false
	}
	for _, g := range r.Goals {
		if g.Banner == banner && g.Item == item {
			return g, true
		}
	}
	return GoalResult{}, false
}

// Scenario symbols.
const (
	SymObtained = 'O'
	SymLost     = 'L'
	SymNothing  = 'X'
	SymSkipped  = '-'
)

func symbol(o GoalOutcome) byte {
	switch {
	case o.Skipped:
		return SymSkipped
	case o.Obtained:
		return SymObtained
	case o.Lost:
		return SymLost
	}
	return SymNothing
}

// accumulator collects outcomes of one chunk. Chunks merge in index order.
type accumulator struct {
	n         int
	obtained  []int
	lost      []int
	secondary []int
	levels    [][]int // levels[g][l]: repetitions ending at level l; the last bucket holds maxLevel and above
	pulls     [][]int

	scenarios map[string]int
	order     []string // first appearance
}

func newAccumulator(goals []boundGoal, size int) *accumulator {
	a := &accumulator{
		obtained:  make([]int, len(goals)),
		lost:      make([]int, len(goals)),
		secondary: make([]int, len(goals)),
		levels:    make([][]int, len(goals)),
		pulls:     make([][]int, len(goals)),
		scenarios: make(map[string]int),
	}
	for i, g := range goals {
		a.levels[i] = make([]int, g.maxLevel+1)
		a.pulls[i] = make([]int, 0, size)
	}
	return a
}

func (a *accumulator) add(outs []GoalOutcome, pattern string) {
	a.n++
	for i, o := range outs {
		if o.Obtained {
			a.obtained[i]++
			// continue-policy weapon goals can keep drawing the target past maxLevel
			a.levels[i][min(o.Level, len(a.levels[i])-1)]++
		}
		if o.Lost {
			a.lost[i]++
		}
		if o.SecondaryObtained {
			a.secondary[i]++
		}
		a.pulls[i] = append(a.pulls[i], o.Pulls)
	}
	if _, ok := a.scenarios[pattern]; !ok {
		a.order = append(a.order, pattern)
	}
	a.scenarios[pattern]++
}

func (a *accumulator) merge(b *accumulator) {
	a.n += b.n
	for i := range a.obtained {
		a.obtained[i] += b.obtained[i]
		a.lost[i] += b.lost[i]
		a.secondary[i] += b.secondary[i]
		for l := range a.levels[i] {
			a.levels[i][l] += b.levels[i][l]
		}
		a.pulls[i] = append(a.pulls[i], b.pulls[i]...)
	}
	for _, p := range b.order {
		if _, ok := a.scenarios[p]; !ok {
			a.order = append(a.order, p)
		}
		a.scenarios[p] += b.scenarios[p]
	}
}

func (a *accumulator) result(goals []boundGoal, seed uint64) *Result {
	res := &Result{Repetitions: a.n, Seed: seed}
	if a.n == 0 {
		return res
	}
	n := float64(a.n)
	for i, g := range goals {
		gr := GoalResult{
			Banner:     g.banner,
			Kind:       g.kind,
			Item:       g.item,
			Budget:     g.budget,
			MaxLevel:   g.maxLevel,
			LevelRates: make([]float64, g.maxLevel+1),
			Secondary:  g.secondary,
		}
		if g.budget > 0 {
			gr.SuccessRate = float64(a.obtained[i]) / n
			gr.LossRate = float64(a.lost[i]) / n
			gr.SecondaryRate = float64(a.secondary[i]) / n
			atLeast := 0
			for l := g.maxLevel; l >= 0; l-- {
				atLeast += a.levels[i][l]
				gr.LevelRates[l] = float64(atLeast) / n
			}
			gr.PullsUsed = calcStats(a.pulls[i])
		}
		res.Goals = append(res.Goals, gr)
	}

	res.Scenarios = make([]Scenario, 0, len(a.order))
	for _, p := range a.order {
		c := a.scenarios[p]
		res.Scenarios = append(res.Scenarios, Scenario{Pattern: p, Count: c, Frequency: float64(c) / n})
	}
	sort.SliceStable(res.Scenarios, func(i, j int) bool {
		return res.Scenarios[i].Count > res.Scenarios[j].Count
	})
	return res
}

// pattern builds the scenario string: one token per banner, goal symbols in order.
func pattern(banners int, goals []boundGoal, outs []GoalOutcome) string {
	tokens := make([][]byte, banners)
	for i, g := range goals {
		tokens[g.bannerIndex] = append(tokens[g.bannerIndex], symbol(outs[i]))
	}
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if len(t) == 0 {
			sb.WriteByte(SymSkipped)
			continue
		}
		sb.Write(t)
	}
	return sb.String()
}
