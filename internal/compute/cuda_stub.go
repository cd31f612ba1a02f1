package compute

// CUDABackend stands in for a GPU device. No GPU kernels are built into
// this binary, so it reports itself unavailable and delegates to the CPU.
type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Device() Device  { return CUDA }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) Map(dst, src []float64, fn func(float64) float64) {
	cpuBackend.Map(dst, src, fn)
}

func (c *CUDABackend) Zip(dst, a, b []float64, fn func(x, y float64) float64) {
	cpuBackend.Zip(dst, a, b, fn)
}
