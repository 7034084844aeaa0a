package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/gacha-planner/internal/currency"
	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/optimize"
	"github.com/xtding233/gacha-planner/internal/plan"
	"github.com/xtding233/gacha-planner/internal/sim"
)

var (
	// ErrBadRequest marks caller mistakes the service itself detects.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned for unknown plan names.
	ErrNotFound = errors.New("not found")
)

// Service is the planner surface shared by the HTTP and gRPC servers.
type Service struct {
	loader         *plan.Loader
	log            *slog.Logger
	workers        int
	maxRepetitions int
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Workers        int // simulator workers; 0 means GOMAXPROCS
	MaxRepetitions int // upper bound per request; 0 means no bound
	Logger         *slog.Logger
}

func NewService(loader *plan.Loader, opts ServiceOptions) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{loader: loader, log: log, workers: opts.Workers, maxRepetitions: opts.MaxRepetitions}
}

// PlanRequest names a stored plan and/or carries an inline config merged over it.
type PlanRequest struct {
	Plan        string          `json:"plan,omitempty"`
	Config      *plan.RawConfig `json:"config,omitempty"`
	Repetitions *int            `json:"repetitions,omitempty"`
	Seed        *uint64         `json:"seed,omitempty"`
	Budget      *int            `json:"budget,omitempty"`
	CarryOver   *bool           `json:"carry_over,omitempty"`
}

type SimulateResponse struct {
	RunID     string      `json:"run_id"`
	Result    *sim.Result `json:"result"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

type OptimizeRequest struct {
	PlanRequest
	Strategies []string `json:"strategies,omitempty"` // local_search | proportional; empty runs both
	Iterations int      `json:"iterations,omitempty"`
}

type OptimizeResponse struct {
	RunID     string            `json:"run_id"`
	Reports   []optimize.Report `json:"reports"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

type EstimateRequest struct {
	Plan           string  `json:"plan,omitempty"`
	CharacterPulls float64 `json:"character_pulls"`
	WeaponPulls    float64 `json:"weapon_pulls"`
	Flexible       float64 `json:"flexible"`
	Targets        int     `json:"targets"`
	CharacterPity  int     `json:"character_pity"`
	WeaponPity     int     `json:"weapon_pity"`
}

// resolve merges base (and the named plan) with the inline config and resolves it.
func (s *Service) resolve(req PlanRequest) (plan.Plan, error) {
	var (
		raw plan.RawConfig
		err error
	)
	if req.Plan != "" {
		raw, err = s.loader.LoadMerged(req.Plan)
		if errors.Is(err, os.ErrNotExist) {
			return plan.Plan{}, fmt.Errorf("%w: plan %q", ErrNotFound, req.Plan)
		}
	} else {
		raw, err = s.loader.Base()
	}
	if err != nil {
		return plan.Plan{}, err
	}
	if req.Config != nil {
		raw = plan.Merge(raw, *req.Config)
	}
	o := plan.Overrides{Repetitions: req.Repetitions, Seed: req.Seed, Budget: req.Budget, CarryOver: req.CarryOver}
	if s.workers > 0 {
		o.Workers = &s.workers
	}
	p, err := plan.Resolve(raw, o)
	if err != nil {
		return plan.Plan{}, err
	}
	if s.maxRepetitions > 0 && p.Simulation.Repetitions > s.maxRepetitions {
		return plan.Plan{}, fmt.Errorf("%w: repetitions %d exceed limit %d", ErrBadRequest, p.Simulation.Repetitions, s.maxRepetitions)
	}
	return p, nil
}

// Simulate runs the batch simulator over the request's plan.
func (s *Service) Simulate(ctx context.Context, req PlanRequest) (SimulateResponse, error) {
	p, err := s.resolve(req)
	if err != nil {
		return SimulateResponse{}, err
	}
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	opts := sim.OptionsFrom(p.Simulation)
	opts.Logger = log

	started := time.Now()
	res, err := sim.New(opts).Run(ctx, sim.RequestFrom(p, nil))
	if err != nil {
		return SimulateResponse{}, err
	}
	elapsed := time.Since(started)
	log.Info("simulation done", "repetitions", res.Repetitions, "goals", len(res.Goals), "elapsed", elapsed)
	return SimulateResponse{RunID: runID, Result: res, ElapsedMS: elapsed.Milliseconds()}, nil
}

// Optimize runs the requested strategies (both by default).
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error) {
	p, err := s.resolve(req.PlanRequest)
	if err != nil {
		return OptimizeResponse{}, err
	}
	strategies, err := Strategies(req.Strategies, req.Iterations)
	if err != nil {
		return OptimizeResponse{}, err
	}
	runID := uuid.NewString()
	prob := optimize.ProblemFrom(p)
	prob.Logger = s.log.With("run_id", runID)
	if req.Repetitions != nil {
		prob.Repetitions = p.Simulation.Repetitions
	}

	started := time.Now()
	reports, err := optimize.RunAll(ctx, prob, strategies...)
	if err != nil {
		return OptimizeResponse{}, err
	}
	elapsed := time.Since(started)
	s.log.Info("optimization done", "run_id", runID, "strategies", len(reports), "elapsed", elapsed)
	return OptimizeResponse{RunID: runID, Reports: reports, ElapsedMS: elapsed.Milliseconds()}, nil
}

// Strategies maps strategy names to implementations. Empty names select both.
func Strategies(names []string, iterations int) ([]optimize.Strategy, error) {
	if len(names) == 0 {
		names = []string{"local_search", "proportional"}
	}
	out := make([]optimize.Strategy, 0, len(names))
	for _, n := range names {
		switch n {
		case "local_search":
			out = append(out, optimize.LocalSearch{Iterations: iterations})
		case "proportional":
			out = append(out, optimize.Proportional{MaxIterations: iterations})
		default:
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrBadRequest, n)
		}
	}
	return out, nil
}

// Estimate runs the secondary-currency estimator with the plan's rules and yields.
func (s *Service) Estimate(_ context.Context, req EstimateRequest) (currency.Estimate, error) {
	p, err := s.resolve(PlanRequest{Plan: req.Plan})
	if err != nil {
		return currency.Estimate{}, err
	}
	if req.CharacterPity < 0 || req.CharacterPity >= p.Rules.Character.Hard ||
		req.WeaponPity < 0 || req.WeaponPity >= p.Rules.Weapon.Hard {
		return currency.Estimate{}, fmt.Errorf("%w: pity out of range", ErrBadRequest)
	}
	est := currency.NewFixedPoint(p.Rules, p.Yields, p.Exchange)
	return est.Estimate(currency.Input{
		CharacterPulls: req.CharacterPulls,
		WeaponPulls:    req.WeaponPulls,
		Flexible:       req.Flexible,
		Targets:        req.Targets,
		CharacterPity:  req.CharacterPity,
		WeaponPity:     req.WeaponPity,
	}), nil
}

// Rate returns the top-tier probability at pity counter for kind.
func (s *Service) Rate(kind plan.GoalKind, pity int) (float64, error) {
	if pity < 0 {
		return 0, fmt.Errorf("%w: pity must be >= 0", ErrBadRequest)
	}
	p, err := s.resolve(PlanRequest{})
	if err != nil {
		return 0, err
	}
	switch kind {
	case plan.KindCharacter:
		return p.Rules.Character.Prob(pity), nil
	case plan.KindWeapon:
		return p.Rules.Weapon.Prob(pity), nil
	}
	return 0, fmt.Errorf("%w: kind must be character or weapon", ErrBadRequest)
}

// Banners lists the banner catalog.
func (s *Service) Banners() ([]plan.Banner, error) {
	p, err := s.resolve(PlanRequest{})
	if err != nil {
		return nil, err
	}
	return p.Banners, nil
}

// IsInvalid reports whether err is the caller's fault.
func IsInvalid(err error) bool {
	for _, target := range []error{
		ErrBadRequest,
		plan.ErrInvalidConfig,
		gacha.ErrRules,
		gacha.ErrCurveConfig,
		optimize.ErrNoGoals,
		optimize.ErrUnknownPriority,
		optimize.ErrInvalidBudget,
		optimize.ErrConflictingGoals,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
