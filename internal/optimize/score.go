package optimize

import (
	"context"

	"github.com/xtding233/gacha-planner/internal/plan"
	"github.com/xtding233/gacha-planner/internal/sim"
)

// PerfectScore is the score of an allocation meeting every target.
const PerfectScore = 100.0

// GoalScore is one goal's contribution to a candidate's score.
type GoalScore struct {
	Banner    string  `json:"banner"`
	Item      string  `json:"item"`
	Priority  string  `json:"priority"`
	Pulls     int     `json:"pulls"`
	Target    float64 `json:"target"`
	Achieved  float64 `json:"achieved"`
	Shortfall float64 `json:"shortfall"`
}

// achieved is P(level >= MaxLevel) for g, or 0 when g produced no result.
func achieved(g plan.Goal, res *sim.Result) float64 {
	gr, ok := res.Goal(g.Banner, g.Item)
	if !ok {
		return 0
	}
	if g.MaxLevel >= 0 && g.MaxLevel < len(gr.LevelRates) {
		return gr.LevelRates[g.MaxLevel]
	}
	return gr.SuccessRate
}

// Score starts at PerfectScore and subtracts every goal's shortfall below its
// target, in percentage points. Beating a target earns nothing.
func Score(goals []plan.Goal, res *sim.Result) float64 {
	s, _ := breakdown(goals, nil, res)
	return s
}

func breakdown(goals []plan.Goal, pulls []int, res *sim.Result) (float64, []GoalScore) {
	score := PerfectScore
	out := make([]GoalScore, len(goals))
	for i, g := range goals {
		gs := GoalScore{
			Banner:   g.Banner,
			Item:     g.Item,
			Priority: g.Priority,
			Target:   Priority(g.Priority).Target(),
			Achieved: achieved(g, res),
		}
		if pulls != nil {
			gs.Pulls = pulls[i]
		}
		gs.Shortfall = max(0, gs.Target-gs.Achieved)
		score -= gs.Shortfall * 100
		out[i] = gs
	}
	return score, out
}

// Candidate is one evaluated allocation.
type Candidate struct {
	Allocation plan.Allocation `json:"allocation"`
	Pulls      []int           `json:"pulls"`
	Score      float64         `json:"score"`
	Goals      []GoalScore     `json:"goals"`
	Result     *sim.Result     `json:"result,omitempty"`
}

// evaluate simulates pulls with the search's fixed seed so candidates share
// random numbers and differ only by allocation.
func (p Problem) evaluate(ctx context.Context, pulls []int, seed uint64) (Candidate, error) {
	alloc := p.Allocation(pulls)
	s := sim.New(sim.Options{
		Repetitions: p.Repetitions,
		Workers:     p.Workers,
		Seed:        seed,
		Logger:      p.Logger,
	})
	res, err := s.Run(ctx, sim.Request{Banners: p.Banners, Allocation: alloc, Start: p.Start, Rules: p.Rules})
	if err != nil {
		return Candidate{}, err
	}
	score, goals := breakdown(p.Goals, pulls, res)
	return Candidate{
		Allocation: alloc,
		Pulls:      append([]int(nil), pulls...),
		Score:      score,
		Goals:      goals,
		Result:     res,
	}, nil
}
