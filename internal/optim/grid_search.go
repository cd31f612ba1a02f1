package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/caustics/internal/sim"
)

// LossFunc scores one flat parameter vector; lower is better.
type LossFunc func(flat []float64) (float64, error)

// Axis scans the flat vector entry Index over Values.
type Axis struct {
	Index  int
	Values []float64
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes []Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Search evaluates every combination of axis values, holding the other
// entries of base fixed, and returns the best vector and its loss.
func (g *GridSearch) Search(ctx context.Context, base []float64, loss LossFunc) ([]float64, float64, error) {
	for _, a := range g.axes {
		if a.Index < 0 || a.Index >= len(base) {
			return nil, 0, fmt.Errorf("grid axis index %d out of range for %d params", a.Index, len(base))
		}
	}

	best := math.Inf(1)
	var bestParams []float64
	pool := sim.NewVectorPool(len(base))
	current := pool.GetAndCopy(base)
	defer pool.Put(current)

	err := g.searchRecursive(ctx, 0, current, loss, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("no grid point gave a finite loss (%d points)", g.Size())
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	loss LossFunc,
	best *float64,
	bestParams *[]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.axes) {
		val, err := loss(current)
		if err != nil {
			return err
		}
		if val < *best {
			*best = val
			*bestParams = append((*bestParams)[:0], current...)
		}
		return nil
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		current[axis.Index] = val
		if err := g.searchRecursive(ctx, depth+1, current, loss, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// Size is the number of grid points Search evaluates.
func (g *GridSearch) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}
