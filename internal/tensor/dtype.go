package tensor

import (
	"fmt"

	"github.com/san-kum/caustics/internal/compute"
)

// DType is the precision a tensor's values are held at. Storage is always
// float64; Float32 tensors round every stored value to float32.
type DType int

const (
	Float64 DType = iota
	Float32
)

func (dt DType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDType maps "float32"/"float64" to a DType.
func ParseDType(name string) (DType, error) {
	switch name {
	case "float64", "f64", "":
		return Float64, nil
	case "float32", "f32":
		return Float32, nil
	default:
		return Float64, fmt.Errorf("unknown dtype: %s", name)
	}
}

func (dt DType) round(v float64) float64 {
	if dt == Float32 {
		return float64(float32(v))
	}
	return v
}

func promote(a, b DType) DType {
	if a == Float64 || b == Float64 {
		return Float64
	}
	return Float32
}

// Device re-exports the compute device so callers only import tensor.
type Device = compute.Device

const (
	CPU  = compute.CPU
	CUDA = compute.CUDA
)

func ParseDevice(name string) (Device, error) {
	return compute.ParseDevice(name)
}
