package integrators

// System is a first-order ODE dx/dt = f(x, t).
type System interface {
	Derivative(x []float64, t float64) []float64
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(x []float64, t float64) []float64

func (f SystemFunc) Derivative(x []float64, t float64) []float64 { return f(x, t) }

type RK4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

func (r *RK4) Step(sys System, x []float64, t, dt float64) []float64 {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derivative(x, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derivative(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, sys.Derivative(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, sys.Derivative(r.scratch, t+dt))

	result := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// Trajectory integrates from t0 to t1 in steps equal steps and returns the
// state at every step boundary, starting with x0.
func (r *RK4) Trajectory(sys System, x0 []float64, t0, t1 float64, steps int) [][]float64 {
	out := make([][]float64, 0, steps+1)
	x := append([]float64(nil), x0...)
	out = append(out, x)
	if steps <= 0 {
		return out
	}
	dt := (t1 - t0) / float64(steps)
	for i := 0; i < steps; i++ {
		x = r.Step(sys, x, t0+float64(i)*dt, dt)
		out = append(out, x)
	}
	return out
}
