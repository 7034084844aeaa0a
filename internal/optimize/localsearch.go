package optimize

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/sim"
)

// LocalSearch seeds an allocation by priority, then repeatedly moves a random
// fraction of one goal's pulls and keeps the move when the score improves.
type LocalSearch struct {
	Iterations int     // default DefaultIterations
	Step       float64 // largest fractional move, default 0.5
	Keep       int     // ranked candidates reported, default DefaultKeep
}

func (LocalSearch) Name() string { return "local_search" }

func (ls LocalSearch) Search(ctx context.Context, p Problem) (Report, error) {
	p, seed, err := prepare(p)
	if err != nil {
		return Report{}, err
	}
	iterations := ls.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	step := ls.Step
	if step <= 0 || step > 1 {
		step = 0.5
	}
	keep := ls.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}

	ctx, span := startSpan(ctx, ls.Name(), p)
	defer span.End()
	started := time.Now()
	log := p.logger().With("strategy", ls.Name())

	current, err := p.evaluate(ctx, p.seed(), seed)
	if err != nil {
		return Report{}, err
	}
	h := &candidateHeap{}
	heap.Push(h, current)

	rep := Report{Strategy: ls.Name(), Seed: seed}
	active := p.active()
	movable := make([]int, 0, len(active))
	for i, ok := range active {
		if ok {
			movable = append(movable, i)
		}
	}
	rng := gacha.NewStreamRNG(seed, math.MaxUint64)

	for rep.Iterations < iterations && len(movable) > 0 {
		if current.Score >= PerfectScore {
			rep.Converged = true
			break
		}
		if ctx.Err() != nil {
			rep.Stopped = true
			break
		}
		rep.Iterations++

		pulls, ok := ls.perturb(current.Pulls, movable, p.Budget, step, rng)
		if !ok {
			continue
		}
		cand, err := p.evaluate(ctx, pulls, seed)
		if errors.Is(err, sim.ErrCanceled) {
			rep.Stopped = true
			break
		}
		if err != nil {
			return Report{}, err
		}
		heap.Push(h, cand)
		if cand.Score > current.Score {
			log.Debug("move accepted", "iteration", rep.Iterations, "score", cand.Score)
			current = cand
		}
	}
	if current.Score >= PerfectScore {
		rep.Converged = true
	}

	rep.Ranked = h.ranked(keep)
	rep.Best = rep.Ranked[0]
	rep.Elapsed = time.Since(started)
	span.SetAttributes(
		attribute.Int("optimize.iterations", rep.Iterations),
		attribute.Float64("optimize.best_score", rep.Best.Score),
	)
	log.Debug("search finished", "iterations", rep.Iterations, "score", rep.Best.Score, "elapsed", rep.Elapsed)
	return rep, nil
}

// perturb moves a random fraction of one goal's pulls. Growth is paid from the
// unspent budget first, then from another random goal. ok is false when nothing moved.
func (ls LocalSearch) perturb(cur []int, movable []int, budget int, step float64, rng gacha.RandomSource) ([]int, bool) {
	pulls := append([]int(nil), cur...)
	i := movable[int(rng.Float64()*float64(len(movable)))]
	f := (rng.Float64()*2 - 1) * step
	amount := int(math.Round(math.Abs(f) * float64(max(pulls[i], 20))))
	if amount == 0 {
		return nil, false
	}

	if f < 0 {
		amount = min(amount, pulls[i])
		if amount == 0 {
			return nil, false
		}
		pulls[i] -= amount
		return pulls, true
	}

	free := max(budget-sum(pulls), 0)
	take := min(amount, free)
	if take < amount && len(movable) > 1 {
		j := i
		for j == i {
			j = movable[int(rng.Float64()*float64(len(movable)))]
		}
		moved := min(amount-take, pulls[j])
		pulls[j] -= moved
		take += moved
	}
	if take == 0 {
		return nil, false
	}
	pulls[i] += take
	return pulls, true
}
