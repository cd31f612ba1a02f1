package cosmology

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/caustics/internal/integrators"
	"github.com/san-kum/caustics/internal/tensor"
)

const (
	helperPoints = 500
	helperLogMin = -3.0
	helperLogMax = 1.0
	quadNodes    = 64
	rkSubsteps   = 4
)

// distanceIntegral returns F(x) = int_0^x du / sqrt(1 + u^3), which equals
// x 2F1(1/3, 1/2; 4/3; -x^3).
func distanceIntegral(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return quad.Fixed(func(u float64) float64 {
		return 1 / math.Sqrt(1+u*u*u)
	}, 0, x, quadNodes, nil, 0)
}

// smallX is the series F(x) = x - x^4/8 + 3x^7/56 for x below the grid.
func smallX(x float64) float64 {
	x3 := x * x * x
	return x * (1 - x3/8 + 3*x3*x3/56)
}

var (
	baseGridOnce sync.Once
	baseX        []float64
	baseY        []float64
)

func baseGrid() ([]float64, []float64) {
	baseGridOnce.Do(func() {
		baseX = make([]float64, helperPoints)
		baseY = make([]float64, helperPoints)
		step := (helperLogMax - helperLogMin) / float64(helperPoints-1)
		for i := range baseX {
			baseX[i] = math.Pow(10, helperLogMin+float64(i)*step)
		}

		// F' = (1 + x^3)^(-1/2), integrated node to node from the series value
		sys := integrators.SystemFunc(func(_ []float64, x float64) []float64 {
			return []float64{1 / math.Sqrt(1+x*x*x)}
		})
		rk := integrators.NewRK4()
		f := []float64{smallX(baseX[0])}
		baseY[0] = f[0]
		for i := 1; i < helperPoints; i++ {
			traj := rk.Trajectory(sys, f, baseX[i-1], baseX[i], rkSubsteps)
			f = traj[len(traj)-1]
			baseY[i] = f[0]
		}
	})
	return baseX, baseY
}

// helperGrid interpolates F on a log-spaced grid held at one precision.
type helperGrid struct {
	mu     sync.RWMutex
	xs, ys []float64
	spline interp.AkimaSpline
	dtype  tensor.DType
}

func newHelperGrid(dtype tensor.DType) *helperGrid {
	g := &helperGrid{}
	g.convert(dtype)
	return g
}

func (g *helperGrid) convert(dtype tensor.DType) {
	bx, by := baseGrid()
	xs := make([]float64, len(bx))
	ys := make([]float64, len(by))
	for i := range bx {
		xs[i], ys[i] = bx[i], by[i]
		if dtype == tensor.Float32 {
			xs[i], ys[i] = float64(float32(xs[i])), float64(float32(ys[i]))
		}
	}

	var spline interp.AkimaSpline
	if err := spline.Fit(xs, ys); err != nil {
		// the base grid is strictly increasing; float32 rounding keeps it so
		panic(err)
	}

	g.mu.Lock()
	g.xs, g.ys, g.spline, g.dtype = xs, ys, spline, dtype
	g.mu.Unlock()
}

func (g *helperGrid) eval(x float64) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch {
	case x < g.xs[0]:
		return smallX(x)
	case x > g.xs[len(g.xs)-1]:
		return distanceIntegral(x)
	default:
		return g.spline.Predict(x)
	}
}

func (g *helperGrid) apply(x *tensor.Tensor) *tensor.Tensor {
	return x.Apply(g.eval)
}
