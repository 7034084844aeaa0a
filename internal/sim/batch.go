package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
)

const DefaultChunkSize = 1000

// ErrCanceled is returned when ctx is done between chunks.
var ErrCanceled = errors.New("simulation canceled")

// Options configures a Simulator.
type Options struct {
	Repetitions int
	ChunkSize   int    // repetitions per chunk, default DefaultChunkSize
	Workers     int    // chunks run in parallel, default GOMAXPROCS
	Seed        uint64 // 0 picks a random seed
	CarryOver   bool   // unused pulls roll into the next goal with a budget
	Progress    func(percent int)
	Logger      *slog.Logger
}

// OptionsFrom maps resolved plan settings to Options.
func OptionsFrom(s plan.SimulationSettings) Options {
	return Options{
		Repetitions: s.Repetitions,
		ChunkSize:   s.ChunkSize,
		Workers:     s.Workers,
		Seed:        s.Seed,
		CarryOver:   s.CarryOver,
	}
}

// Request is the input of one batch run.
type Request struct {
	Banners    []plan.Banner
	Allocation plan.Allocation
	Start      plan.StartState
	Rules      gacha.Rules
}

// RequestFrom builds a Request from a resolved plan, overriding its allocation when alloc is non-nil.
func RequestFrom(p plan.Plan, alloc plan.Allocation) Request {
	if alloc == nil {
		alloc = p.Allocation
	}
	return Request{Banners: p.Banners, Allocation: alloc, Start: p.Start, Rules: p.Rules}
}

// Simulator replays banners many times and aggregates goal outcomes.
// Every chunk draws from its own RNG stream derived from the seed, so results
// depend on Seed and ChunkSize only, not on Workers.
type Simulator struct {
	opts   Options
	log    *slog.Logger
	tracer trace.Tracer
}

func New(opts Options) *Simulator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		opts:   opts,
		log:    log,
		tracer: otel.Tracer("github.com/xtding233/gacha-planner/internal/sim"),
	}
}

// boundGoal is one allocation entry bound to its banner.
type boundGoal struct {
	bannerIndex int
	banner      string
	kind        plan.GoalKind
	item        string
	secondary   string
	budget      int
	maxLevel    int
	policy      plan.WeaponPolicy
	weapons     [2]string
}

// goals flattens the allocation in banner order: characters first, then the weapon.
func (s *Simulator) goals(req Request) []boundGoal {
	known := make(map[string]bool, len(req.Banners))
	var out []boundGoal
	for bi, b := range req.Banners {
		known[b.ID] = true
		ba, ok := req.Allocation[b.ID]
		if !ok {
			continue
		}
		for _, c := range ba.Characters {
			if !b.Features(c.ID) {
				s.log.Debug("character not featured, goal ignored", "banner", b.ID, "character", c.ID)
				continue
			}
			out = append(out, boundGoal{
				bannerIndex: bi,
				banner:      b.ID,
				kind:        plan.KindCharacter,
				item:        c.ID,
				budget:      c.Pulls,
				maxLevel:    max(c.MaxLevel, 0),
			})
		}
		if w := ba.Weapon; w != nil {
			if b.Weapons[0] == "" || (w.Target != b.Weapons[0] && w.Target != b.Weapons[1]) {
				s.log.Debug("weapon target not featured, goal ignored", "banner", b.ID, "weapon", w.Target)
				continue
			}
			g := boundGoal{
				bannerIndex: bi,
				banner:      b.ID,
				kind:        plan.KindWeapon,
				item:        w.Target,
				budget:      w.Pulls,
				maxLevel:    max(w.MaxLevel, 0),
				policy:      w.Policy,
				weapons:     b.Weapons,
			}
			if w.Policy == plan.PolicyContinue {
				g.secondary = b.Weapons[0]
				if g.secondary == w.Target {
					g.secondary = b.Weapons[1]
				}
			}
			out = append(out, g)
		}
	}
	for id := range req.Allocation {
		if !known[id] {
			s.log.Debug("allocation for unknown banner ignored", "banner", id)
		}
	}
	return out
}

// Run executes the batch. Non-positive Repetitions yield an empty result.
// ctx is checked between chunk waves; on cancellation the error wraps both
// ErrCanceled and ctx.Err().
func (s *Simulator) Run(ctx context.Context, req Request) (*Result, error) {
	n := s.opts.Repetitions
	if n <= 0 {
		return &Result{}, nil
	}
	seed := s.opts.Seed
	if seed == 0 {
		seed = gacha.NewSeed()
	}
	goals := s.goals(req)
	chunks := (n + s.opts.ChunkSize - 1) / s.opts.ChunkSize

	ctx, span := s.tracer.Start(ctx, "sim.Run", trace.WithAttributes(
		attribute.Int("sim.repetitions", n),
		attribute.Int("sim.goals", len(goals)),
		attribute.Int("sim.chunks", chunks),
		attribute.Int("sim.workers", s.opts.Workers),
	))
	defer span.End()

	started := time.Now()
	s.log.Debug("simulation started",
		"repetitions", n, "chunks", chunks, "workers", s.opts.Workers, "seed", seed, "goals", len(goals))

	total := newAccumulator(goals, n)
	done := 0
	for wave := 0; wave < chunks; wave += s.opts.Workers {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		last := min(wave+s.opts.Workers, chunks)
		accs := make([]*accumulator, last-wave)

		var g errgroup.Group
		for c := wave; c < last; c++ {
			g.Go(func() error {
				size := min(s.opts.ChunkSize, n-c*s.opts.ChunkSize)
				accs[c-wave] = s.runChunk(req, goals, size, gacha.NewStreamRNG(seed, uint64(c)))
				return nil
			})
		}
		_ = g.Wait() // chunks never fail

		for _, a := range accs {
			total.merge(a)
			done += a.n
			if s.opts.Progress != nil {
				s.opts.Progress(done * 100 / n)
			}
		}
		span.AddEvent("wave", trace.WithAttributes(attribute.Int("sim.done", done)))
	}

	s.log.Debug("simulation finished", "repetitions", n, "elapsed", time.Since(started))
	return total.result(goals, seed), nil
}

func (s *Simulator) runChunk(req Request, goals []boundGoal, size int, rng gacha.RandomSource) *accumulator {
	acc := newAccumulator(goals, size)
	outs := make([]GoalOutcome, len(goals))
	for i := 0; i < size; i++ {
		s.repetition(req, goals, outs, rng)
		acc.add(outs, pattern(len(req.Banners), goals, outs))
	}
	return acc
}

// repetition walks the banners once, threading pity state from goal to goal.
// Weapon fate points reset at the start of every banner after the first; pity and
// guarantees carry. The starting fate points belong to the first banner in the list.
func (s *Simulator) repetition(req Request, goals []boundGoal, outs []GoalOutcome, rng gacha.RandomSource) {
	cs, ws := req.Start.Character, req.Start.Weapon
	carry := 0
	bannerIndex := -1
	for i, g := range goals {
		if g.bannerIndex != bannerIndex {
			bannerIndex = g.bannerIndex
			if bannerIndex > 0 {
				ws.FatePoints = 0
			}
		}
		budget := g.budget
		if s.opts.CarryOver && budget > 0 {
			budget += carry
			carry = 0
		}
		var o GoalOutcome
		switch g.kind {
		case plan.KindCharacter:
			cs, o = RunCharacterGoal(cs, budget, g.maxLevel, req.Rules, rng)
		case plan.KindWeapon:
			ws, o = RunWeaponGoal(ws, g.item, g.weapons, budget, g.maxLevel, g.policy, req.Rules, rng)
		}
		if s.opts.CarryOver && budget > 0 {
			carry = budget - o.Pulls
		}
		outs[i] = o
	}
}
