package compute

import "fmt"

// Device identifies where tensor data is meant to live.
type Device int

const (
	CPU Device = iota
	CUDA
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return fmt.Sprintf("device(%d)", int(d))
	}
}

// ParseDevice maps a device name ("cpu", "cuda") to a Device.
func ParseDevice(name string) (Device, error) {
	switch name {
	case "cpu", "":
		return CPU, nil
	case "cuda", "gpu":
		return CUDA, nil
	default:
		return CPU, fmt.Errorf("unknown device: %s", name)
	}
}

// Backend executes elementwise kernels. Map and Zip write into dst, which
// must have the output length; a length-1 operand of Zip is broadcast.
type Backend interface {
	Name() string
	Device() Device
	Available() bool
	Map(dst, src []float64, fn func(float64) float64)
	Zip(dst, a, b []float64, fn func(x, y float64) float64)
	Cleanup()
}

var (
	activeBackend Backend
	cpuBackend    = NewCPUBackend()
)

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil && activeBackend != b {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return cpuBackend
}

// ForDevice returns the backend that runs kernels for tensors on d.
func ForDevice(d Device) Backend {
	if d == CUDA {
		if cuda := NewCUDABackend(); cuda.Available() {
			return cuda
		}
	}
	return cpuBackend
}
