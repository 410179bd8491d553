package forest

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Config holds random forest hyperparameters.
type Config struct {
	NumTrees       int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
	Bootstrap      bool
	// Workers bounds parallel tree fitting; 0 means GOMAXPROCS.
	Workers int
}

// DefaultConfig is the regressor used for mandi price models.
func DefaultConfig() Config {
	return Config{
		NumTrees:       100,
		MaxDepth:       12,
		MinSamplesLeaf: 3,
		Seed:           42,
		Bootstrap:      true,
	}
}

// Forest is an ensemble of regression trees whose individual predictions
// stay available, so callers can read the spread across trees.
type Forest struct {
	trees     []*Tree
	nFeatures int
}

// Fit grows cfg.NumTrees trees. Each tree draws its bootstrap sample and
// feature order from its own seed, taken in sequence from cfg.Seed, so the
// result does not depend on how the trees are scheduled.
func Fit(ctx context.Context, X [][]float64, y []float64, cfg Config) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("fit forest: no rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d targets", len(X), len(y))
	}
	if cfg.NumTrees < 1 {
		return nil, fmt.Errorf("fit forest: num trees must be positive, got %d", cfg.NumTrees)
	}
	nf := len(X[0])
	for i, row := range X {
		if len(row) != nf {
			return nil, fmt.Errorf("fit forest: row %d has %d columns, want %d", i, len(row), nf)
		}
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.NumTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	params := treeParams{maxDepth: cfg.MaxDepth, minSamplesLeaf: cfg.MinSamplesLeaf}
	trees := make([]*Tree, cfg.NumTrees)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			trees[i] = growTree(X, y, sampleRows(len(X), cfg.Bootstrap, rng), params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &Forest{trees: trees, nFeatures: nf}, nil
}

func sampleRows(n int, bootstrap bool, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		if bootstrap {
			idx[i] = rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

func (f *Forest) NumTrees() int { return len(f.trees) }

func (f *Forest) NumFeatures() int { return f.nFeatures }

// PredictEach returns one prediction per tree, in tree order.
func (f *Forest) PredictEach(x []float64) []float64 {
	out := make([]float64, len(f.trees))
	for i, t := range f.trees {
		out[i] = t.Predict(x)
	}
	return out
}

// Predict is the ensemble mean.
func (f *Forest) Predict(x []float64) float64 {
	return stat.Mean(f.PredictEach(x), nil)
}

// PredictSpread returns the ensemble mean and the population standard
// deviation of the per-tree predictions.
func (f *Forest) PredictSpread(x []float64) (mean, std float64) {
	return stat.PopMeanStdDev(f.PredictEach(x), nil)
}

func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = f.Predict(row)
	}
	return out
}
