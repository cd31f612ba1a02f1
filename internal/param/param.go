package param

import (
	"fmt"

	"github.com/san-kum/caustics/internal/tensor"
)

// Param is a single value cell. It is static when it holds a value and
// dynamic when it only knows the shape its value will have.
type Param struct {
	value *tensor.Tensor
	shape tensor.Shape
}

// New creates a Param. A nil shape with a value adopts the value's shape;
// a nil value makes the param dynamic, with a nil shape meaning scalar.
func New(value *tensor.Tensor, shape tensor.Shape) (*Param, error) {
	if value == nil {
		return &Param{shape: shape.Clone()}, nil
	}
	if shape != nil && !shape.Equal(value.Shape()) {
		return nil, fmt.Errorf("%w: value shape %v, declared %v", ErrShapeMismatch, value.Shape(), shape)
	}
	return &Param{value: value, shape: value.Shape()}, nil
}

// Static creates a param holding v.
func Static(v *tensor.Tensor) *Param {
	return &Param{value: v, shape: v.Shape()}
}

// Dynamic creates a param that takes a value of the given shape per call.
func Dynamic(shape tensor.Shape) *Param {
	return &Param{shape: shape.Clone()}
}

func (p *Param) IsStatic() bool  { return p.value != nil }
func (p *Param) IsDynamic() bool { return p.value == nil }

// Value returns the static value, or nil for a dynamic param.
func (p *Param) Value() *tensor.Tensor { return p.value }

func (p *Param) Shape() tensor.Shape { return p.shape.Clone() }

// Size is the number of elements the param's value has.
func (p *Param) Size() int { return p.shape.NumElements() }

// To converts the stored value. Dynamic params have nothing to convert.
func (p *Param) To(device tensor.Device, dtype tensor.DType) {
	if p.value != nil {
		p.value = p.value.To(device, dtype)
	}
}

// set makes the param static with v, keeping the declared shape.
func (p *Param) set(v *tensor.Tensor) error {
	if v == nil {
		p.value = nil
		return nil
	}
	if !p.shape.Equal(v.Shape()) {
		return fmt.Errorf("%w: value shape %v, declared %v", ErrShapeMismatch, v.Shape(), p.shape)
	}
	p.value = v
	return nil
}

func (p *Param) String() string {
	if p.IsStatic() {
		return fmt.Sprintf("Param(value=%v)", p.value)
	}
	return fmt.Sprintf("Param(shape=%v)", p.shape)
}
