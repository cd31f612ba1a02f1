package optim

import (
	"context"
	"errors"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// Result is the outcome of a local minimisation.
type Result struct {
	X          []float64
	Loss       float64
	History    []float64
	Iterations int
	Converged  bool
}

// GradientDescent takes fixed-rate steps along the central finite
// difference gradient of the loss.
type GradientDescent struct {
	LearningRate float64
	MaxIter      int
	Tol          float64
	Step         float64 // finite difference step
}

func NewGradientDescent(lr float64, maxIter int) *GradientDescent {
	return &GradientDescent{LearningRate: lr, MaxIter: maxIter, Tol: 1e-10, Step: 1e-6}
}

// Minimize runs until the loss improves by less than Tol, MaxIter is
// reached or ctx is done. History holds the loss before every step and
// after the last one.
func (g *GradientDescent) Minimize(ctx context.Context, x0 []float64, loss LossFunc) (*Result, error) {
	if g.LearningRate <= 0 {
		return nil, errors.New("learning rate must be positive")
	}

	x := append([]float64(nil), x0...)
	cur, err := loss(x)
	if err != nil {
		return nil, err
	}
	res := &Result{History: []float64{cur}}

	var lossErr error
	f := func(v []float64) float64 {
		l, err := loss(v)
		if err != nil {
			if lossErr == nil {
				lossErr = err
			}
			return math.NaN()
		}
		return l
	}
	settings := &fd.Settings{Formula: fd.Central, Step: g.Step}
	grad := make([]float64, len(x))

	for res.Iterations < g.MaxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fd.Gradient(grad, f, x, settings)
		if lossErr != nil {
			return nil, lossErr
		}
		floats.AddScaled(x, -g.LearningRate, grad)
		res.Iterations++

		next, err := loss(x)
		if err != nil {
			return nil, err
		}
		res.History = append(res.History, next)

		logrus.WithFields(logrus.Fields{
			"iter": res.Iterations,
			"loss": next,
		}).Debug("gradient step")

		if math.Abs(cur-next) < g.Tol {
			cur = next
			res.Converged = true
			break
		}
		cur = next
	}

	res.X = x
	res.Loss = cur
	return res, nil
}
