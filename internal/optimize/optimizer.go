package optimize

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-planner/internal/gacha"
)

// DefaultKeep is how many ranked candidates a report carries.
const DefaultKeep = 5

var tracer = otel.Tracer("github.com/xtding233/gacha-planner/internal/optimize")

// Strategy searches for an allocation of a Problem's budget.
type Strategy interface {
	Name() string
	Search(ctx context.Context, p Problem) (Report, error)
}

// Report is a strategy's outcome. Ranked is best first; Best is Ranked[0].
type Report struct {
	Strategy   string        `json:"strategy"`
	Best       Candidate     `json:"best"`
	Ranked     []Candidate   `json:"ranked"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Stopped    bool          `json:"stopped,omitempty"` // ctx ended the search early
	Seed       uint64        `json:"seed"`
	Elapsed    time.Duration `json:"elapsed"`
}

// DefaultStrategies returns both strategies with default settings.
func DefaultStrategies() []Strategy {
	return []Strategy{LocalSearch{}, Proportional{}}
}

// RunAll runs every strategy concurrently and returns their reports in the given order.
// No report is preferred over another.
func RunAll(ctx context.Context, p Problem, strategies ...Strategy) ([]Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if p.Seed == 0 {
		p.Seed = gacha.NewSeed()
	}
	reports := make([]Report, len(strategies))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			r, err := s.Search(ctx, p)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// startSpan opens the search span shared by both strategies.
func startSpan(ctx context.Context, name string, p Problem) (context.Context, trace.Span) {
	return tracer.Start(ctx, "optimize."+name, trace.WithAttributes(
		attribute.String("optimize.strategy", name),
		attribute.Int("optimize.goals", len(p.Goals)),
		attribute.Int("optimize.budget", p.Budget),
		attribute.Int("optimize.repetitions", p.Repetitions),
	))
}

func prepare(p Problem) (Problem, uint64, error) {
	if err := p.Validate(); err != nil {
		return p, 0, err
	}
	if p.Repetitions <= 0 {
		p.Repetitions = DefaultRepetitions
	}
	seed := p.Seed
	if seed == 0 {
		seed = gacha.NewSeed()
	}
	return p, seed, nil
}
