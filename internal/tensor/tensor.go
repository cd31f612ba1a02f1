// Package tensor provides the dense numeric tensors that parameters and
// physics formulas operate on.
//
// Tensors have value semantics: every operation returns a new tensor and
// never writes into its operands, so a tensor can be shared freely between
// goroutines once built.
package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type Tensor struct {
	data   []float64
	shape  Shape
	dtype  DType
	device Device
}

// New creates a float64 CPU tensor from data. len(data) must match shape.
func New(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), shape, shape.NumElements())
	}
	d := make([]float64, len(data))
	copy(d, data)
	return &Tensor{data: d, shape: shape.Clone()}, nil
}

// MustNew is New for literals known to be well formed.
func MustNew(data []float64, shape Shape) *Tensor {
	t, err := New(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a zero-dimensional tensor.
func Scalar(v float64) *Tensor {
	return &Tensor{data: []float64{v}, shape: Shape{}}
}

// FromSlice creates a one-dimensional tensor.
func FromSlice(values ...float64) *Tensor {
	d := make([]float64, len(values))
	copy(d, values)
	return &Tensor{data: d, shape: Shape{len(values)}}
}

func Full(shape Shape, v float64) *Tensor {
	d := make([]float64, shape.NumElements())
	for i := range d {
		d[i] = v
	}
	return &Tensor{data: d, shape: shape.Clone()}
}

func Zeros(shape Shape) *Tensor {
	return Full(shape, 0)
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) *Tensor {
	d := make([]float64, n)
	if n == 1 {
		d[0] = lo
	} else if n > 1 {
		floats.Span(d, lo, hi)
	}
	return &Tensor{data: d, shape: Shape{n}}
}

// Logspace returns n values spaced evenly on a log scale over [10^lo, 10^hi].
func Logspace(lo, hi float64, n int) *Tensor {
	t := Linspace(lo, hi, n)
	for i, v := range t.data {
		t.data[i] = math.Pow(10, v)
	}
	return t
}

// Meshgrid returns the [len(y), len(x)] coordinate grids of two 1-D tensors,
// with x varying along columns.
func Meshgrid(x, y *Tensor) (*Tensor, *Tensor) {
	nx, ny := x.Len(), y.Len()
	gx := make([]float64, nx*ny)
	gy := make([]float64, nx*ny)
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			gx[i*nx+j] = x.data[j]
			gy[i*nx+j] = y.data[i]
		}
	}
	shape := Shape{ny, nx}
	return &Tensor{data: gx, shape: shape, dtype: x.dtype, device: x.device},
		&Tensor{data: gy, shape: shape.Clone(), dtype: y.dtype, device: y.device}
}

func (t *Tensor) Shape() Shape   { return t.shape.Clone() }
func (t *Tensor) DType() DType   { return t.dtype }
func (t *Tensor) Device() Device { return t.device }
func (t *Tensor) Len() int       { return len(t.data) }

// Data returns a copy of the flat row-major values.
func (t *Tensor) Data() []float64 {
	d := make([]float64, len(t.data))
	copy(d, t.data)
	return d
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Item on tensor with %d elements", len(t.data)))
	}
	return t.data[0]
}

// At returns the element at flat index i.
func (t *Tensor) At(i int) float64 {
	return t.data[i]
}

// Reshape returns a tensor sharing no storage with t, viewed as shape.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v into %v", t.shape, shape)
	}
	out := t.like(shape, t.dtype)
	copy(out.data, t.data)
	return out, nil
}

// To returns a copy of t on device with precision dtype.
func (t *Tensor) To(device Device, dtype DType) *Tensor {
	out := &Tensor{
		data:   make([]float64, len(t.data)),
		shape:  t.shape.Clone(),
		dtype:  dtype,
		device: device,
	}
	for i, v := range t.data {
		out.data[i] = dtype.round(v)
	}
	return out
}

// Equal reports whether t and other have the same shape and values.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return floats.Equal(t.data, other.data)
}

// AllClose reports elementwise equality within an absolute-or-relative tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return floats.EqualApprox(t.data, other.data, tol)
}

func (t *Tensor) String() string {
	if len(t.shape) == 0 {
		return fmt.Sprintf("tensor(%g, dtype=%s, device=%s)", t.data[0], t.dtype, t.device)
	}
	return fmt.Sprintf("tensor(%v, shape=%v, dtype=%s, device=%s)", t.data, t.shape, t.dtype, t.device)
}

func (t *Tensor) like(shape Shape, dtype DType) *Tensor {
	return &Tensor{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: t.device,
	}
}
