package tensor

import (
	"fmt"
	"math"

	"github.com/san-kum/caustics/internal/compute"
)

// broadcastShape returns the result shape of an elementwise binary op.
// Operands must share a shape or one of them must hold a single element.
func broadcastShape(a, b *Tensor) Shape {
	switch {
	case a.shape.Equal(b.shape):
		return a.shape
	case len(b.data) == 1 && (len(a.data) != 1 || len(a.shape) >= len(b.shape)):
		return a.shape
	case len(a.data) == 1:
		return b.shape
	default:
		panic(fmt.Sprintf("tensor: shapes not compatible for broadcasting: %v vs %v", a.shape, b.shape))
	}
}

func (t *Tensor) zip(other *Tensor, fn func(x, y float64) float64) *Tensor {
	out := t.like(broadcastShape(t, other), promote(t.dtype, other.dtype))
	compute.ForDevice(t.device).Zip(out.data, t.data, other.data, fn)
	out.roundInPlace()
	return out
}

// Apply maps fn over every element.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	out := t.like(t.shape, t.dtype)
	compute.ForDevice(t.device).Map(out.data, t.data, fn)
	out.roundInPlace()
	return out
}

func (t *Tensor) roundInPlace() {
	if t.dtype == Float32 {
		for i, v := range t.data {
			t.data[i] = float64(float32(v))
		}
	}
}

func (t *Tensor) Add(o *Tensor) *Tensor {
	return t.zip(o, func(x, y float64) float64 { return x + y })
}

func (t *Tensor) Sub(o *Tensor) *Tensor {
	return t.zip(o, func(x, y float64) float64 { return x - y })
}

func (t *Tensor) Mul(o *Tensor) *Tensor {
	return t.zip(o, func(x, y float64) float64 { return x * y })
}

func (t *Tensor) Div(o *Tensor) *Tensor {
	return t.zip(o, func(x, y float64) float64 { return x / y })
}

func (t *Tensor) Pow(o *Tensor) *Tensor {
	return t.zip(o, math.Pow)
}

// Atan2 returns atan2(t, o) elementwise.
func (t *Tensor) Atan2(o *Tensor) *Tensor {
	return t.zip(o, math.Atan2)
}

func (t *Tensor) AddScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return x + s })
}

func (t *Tensor) SubScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return x - s })
}

func (t *Tensor) MulScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return x * s })
}

func (t *Tensor) DivScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return x / s })
}

func (t *Tensor) PowScalar(p float64) *Tensor {
	return t.Apply(func(x float64) float64 { return math.Pow(x, p) })
}

// RSubScalar returns s - t.
func (t *Tensor) RSubScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return s - x })
}

// RDivScalar returns s / t.
func (t *Tensor) RDivScalar(s float64) *Tensor {
	return t.Apply(func(x float64) float64 { return s / x })
}

func (t *Tensor) Neg() *Tensor  { return t.Apply(func(x float64) float64 { return -x }) }
func (t *Tensor) Sqrt() *Tensor { return t.Apply(math.Sqrt) }
func (t *Tensor) Exp() *Tensor  { return t.Apply(math.Exp) }
func (t *Tensor) Log() *Tensor  { return t.Apply(math.Log) }
func (t *Tensor) Cos() *Tensor  { return t.Apply(math.Cos) }
func (t *Tensor) Sin() *Tensor  { return t.Apply(math.Sin) }

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	s := 0.0
	for _, v := range t.data {
		s += v
	}
	return s
}

// Max returns the largest element.
func (t *Tensor) Max() float64 {
	m := math.Inf(-1)
	for _, v := range t.data {
		if v > m {
			m = v
		}
	}
	return m
}

// Min returns the smallest element.
func (t *Tensor) Min() float64 {
	m := math.Inf(1)
	for _, v := range t.data {
		if v < m {
			m = v
		}
	}
	return m
}

// Hypot returns sqrt(x^2 + y^2) elementwise.
func Hypot(x, y *Tensor) *Tensor {
	return x.zip(y, math.Hypot)
}
