package optim

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// NelderMead minimises loss without gradients using at most maxEval loss
// evaluations. A loss error or a done ctx stops the search at the next
// simplex iteration and is returned.
func NelderMead(ctx context.Context, x0 []float64, loss LossFunc, maxEval int) (*Result, error) {
	res, _, err := nelderMead(ctx, x0, loss, maxEval)
	return res, err
}

func nelderMead(ctx context.Context, x0 []float64, loss LossFunc, maxEval int) (*Result, *guardedLoss, error) {
	g := &guardedLoss{ctx: ctx, loss: loss, next: &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 100}}
	settings := &optimize.Settings{FuncEvaluations: maxEval, Converger: g}

	res, err := optimize.Minimize(optimize.Problem{Func: g.eval}, x0, settings, &optimize.NelderMead{})
	if g.err != nil {
		return nil, g, g.err
	}
	if res == nil {
		return nil, g, err
	}
	return &Result{
		X:          res.X,
		Loss:       res.F,
		History:    g.history,
		Iterations: res.Stats.MajorIterations,
		Converged:  err == nil && res.Status != optimize.FunctionEvaluationLimit,
	}, g, nil
}

// guardedLoss evaluates loss until the first error and then reports NaN,
// which the optimizer never takes as an improvement. As a converger it
// ends the run once an error is recorded.
type guardedLoss struct {
	ctx     context.Context
	loss    LossFunc
	next    optimize.Converger
	err     error
	calls   int
	history []float64
}

func (g *guardedLoss) eval(x []float64) float64 {
	g.calls++
	if g.err != nil {
		return math.NaN()
	}
	if err := g.ctx.Err(); err != nil {
		g.err = err
		return math.NaN()
	}
	l, err := g.loss(x)
	if err != nil {
		g.err = err
		return math.NaN()
	}
	g.history = append(g.history, l)
	return l
}

func (g *guardedLoss) Init(dim int) {
	g.next.Init(dim)
}

func (g *guardedLoss) Converged(loc *optimize.Location) optimize.Status {
	if g.err != nil {
		return optimize.Failure
	}
	return g.next.Converged(loc)
}
