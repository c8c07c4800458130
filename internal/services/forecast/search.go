package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	domsvc "SpillNet/internal/domain/service"
	applogger "SpillNet/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Grid is a hyperparameter search space. Empty Heads or Layers mean "not used".
type Grid struct {
	Hidden        []int
	Heads         []int
	Layers        []int
	LearningRates []float64
	Dropouts      []float64
}

func DefaultGraphGrid() Grid {
	return Grid{
		Hidden:        []int{32, 64},
		Heads:         []int{2, 4},
		Layers:        []int{2, 3},
		LearningRates: []float64{0.001, 0.0005},
		Dropouts:      []float64{0.1, 0.3},
	}
}

func DefaultBaselineGrid() Grid {
	return Grid{
		Hidden:        []int{32, 64, 128},
		LearningRates: []float64{0.0001, 0.001, 0.01},
		Dropouts:      []float64{0.3, 0.5, 0.7},
	}
}

// Expand enumerates the cartesian product, hidden outermost and dropout innermost.
func (g Grid) Expand() []models.Hyperparams {
	heads, layers := g.Heads, g.Layers
	if len(heads) == 0 {
		heads = []int{0}
	}
	if len(layers) == 0 {
		layers = []int{0}
	}
	var out []models.Hyperparams
	for _, h := range g.Hidden {
		for _, k := range heads {
			for _, l := range layers {
				for _, lr := range g.LearningRates {
					for _, d := range g.Dropouts {
						out = append(out, models.Hyperparams{Hidden: h, Heads: k, Layers: l, LearningRate: lr, Dropout: d})
					}
				}
			}
		}
	}
	return out
}

type Searcher struct {
	seed        int64
	parallelism int
	logger      *applogger.Logger
	metrics     domrepo.Metrics
}

type SearchOption func(*Searcher)

func WithSeed(seed int64) SearchOption {
	return func(s *Searcher) { s.seed = seed }
}

// WithParallelism bounds concurrent trials; values below one run sequentially.
func WithParallelism(n int) SearchOption {
	return func(s *Searcher) {
		if n < 1 {
			n = 1
		}
		s.parallelism = n
	}
}

func WithLogger(l *applogger.Logger) SearchOption {
	return func(s *Searcher) { s.logger = l }
}

func WithMetrics(m domrepo.Metrics) SearchOption {
	return func(s *Searcher) { s.metrics = m }
}

func NewSearcher(opts ...SearchOption) *Searcher {
	s := &Searcher{seed: 42, parallelism: 1, logger: applogger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrialSeed is the model seed of trial i; re-training with it reproduces the trial.
func (s *Searcher) TrialSeed(i int) int64 {
	return s.seed + int64(i)
}

// Search trains one model per grid point (trial i seeded with seed+i) and picks the
// lowest final validation loss, ties going to the earlier trial.
func (s *Searcher) Search(ctx context.Context, name string, factory domsvc.ModelFactory, grid []models.Hyperparams, train, validation models.Sample) (models.SearchResult, error) {
	res := models.SearchResult{Model: name}
	if len(grid) == 0 {
		return res, errors.New("search: empty grid")
	}

	trials := make([]models.TrialResult, len(grid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, params := range grid {
		g.Go(func() error {
			start := time.Now()
			model := factory(params, s.TrialSeed(i))
			hist, err := model.Train(gctx, train, validation)
			if err != nil {
				return fmt.Errorf("trial %d %+v: %w", i, params, err)
			}
			trials[i] = models.TrialResult{
				Index:           i,
				Params:          params,
				Losses:          hist,
				FinalValidation: hist.FinalValidation(),
				Elapsed:         time.Since(start),
			}
			s.logger.Debug("trial finished",
				applogger.String("model", name),
				applogger.Int("trial", i),
				applogger.Any("params", params),
				applogger.Float64("val_loss", trials[i].FinalValidation),
				applogger.Duration("elapsed_ms", trials[i].Elapsed),
			)
			if s.metrics != nil {
				s.metrics.RecordTrial(name, trials[i].FinalValidation)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("search %s: %w", name, err)
	}

	best := 0
	for i := 1; i < len(trials); i++ {
		if lossKey(trials[i].FinalValidation) < lossKey(trials[best].FinalValidation) {
			best = i
		}
	}
	res.Trials = trials
	res.Best = trials[best]
	if s.metrics != nil {
		s.metrics.RecordBestLoss(name, res.Best.FinalValidation)
	}
	s.logger.Info("grid search complete",
		applogger.String("model", name),
		applogger.Int("trials", len(trials)),
		applogger.Any("best", res.Best.Params),
		applogger.Float64("best_val_loss", res.Best.FinalValidation),
	)
	return res, nil
}

// lossKey orders NaN last.
func lossKey(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}
