package optimize

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xtding233/gacha-planner/internal/sim"
)

const (
	DefaultMaxIterations = 10
	DefaultTolerance     = 0.05
	DefaultLargeGap      = 0.20
)

// Proportional starts from the priority seed and nudges each goal's pulls by
// its gap to target, doubling the nudge when the gap exceeds LargeGap, until
// every goal is within Tolerance or MaxIterations rounds have run.
type Proportional struct {
	MaxIterations int
	Tolerance     float64
	LargeGap      float64
	Keep          int
}

func (Proportional) Name() string { return "proportional" }

func (pa Proportional) Search(ctx context.Context, p Problem) (Report, error) {
	p, seed, err := prepare(p)
	if err != nil {
		return Report{}, err
	}
	maxIter := pa.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := pa.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	large := pa.LargeGap
	if large <= 0 {
		large = DefaultLargeGap
	}
	keep := pa.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}

	ctx, span := startSpan(ctx, pa.Name(), p)
	defer span.End()
	started := time.Now()
	log := p.logger().With("strategy", pa.Name())

	rep := Report{Strategy: pa.Name(), Seed: seed}
	h := &candidateHeap{}
	active := p.active()
	pulls := p.seed()

	for rep.Iterations < maxIter {
		if ctx.Err() != nil && h.Len() > 0 {
			rep.Stopped = true
			break
		}
		cand, err := p.evaluate(ctx, pulls, seed)
		if errors.Is(err, sim.ErrCanceled) && h.Len() > 0 {
			rep.Stopped = true
			break
		}
		if err != nil {
			return Report{}, err
		}
		rep.Iterations++
		heap.Push(h, cand)

		within := true
		next := append([]int(nil), pulls...)
		for i, gs := range cand.Goals {
			if !active[i] {
				continue
			}
			gap := gs.Target - gs.Achieved
			if math.Abs(gap) <= tol {
				continue
			}
			within = false
			adjust := gap
			if math.Abs(gap) > large {
				adjust *= 2
			}
			delta := int(math.Round(adjust * float64(max(pulls[i], 10))))
			if delta == 0 {
				delta = 1
				if gap < 0 {
					delta = -1
				}
			}
			next[i] = max(pulls[i]+delta, 0)
		}
		log.Debug("round", "iteration", rep.Iterations, "score", cand.Score, "within", within)
		if within {
			rep.Converged = true
			break
		}
		pulls = fitBudget(next, p.Budget)
	}

	rep.Ranked = h.ranked(keep)
	rep.Best = rep.Ranked[0]
	rep.Elapsed = time.Since(started)
	span.SetAttributes(
		attribute.Int("optimize.iterations", rep.Iterations),
		attribute.Float64("optimize.best_score", rep.Best.Score),
	)
	return rep, nil
}

// fitBudget scales pulls down proportionally when they exceed budget.
func fitBudget(pulls []int, budget int) []int {
	total := sum(pulls)
	if total <= budget || total == 0 {
		return pulls
	}
	scale := float64(budget) / float64(total)
	for i, n := range pulls {
		pulls[i] = int(math.Floor(float64(n) * scale))
	}
	return pulls
}
