package compute

import (
	"runtime"
	"sync"
)

// parallelThreshold is the element count below which kernels run serially.
const parallelThreshold = 4096

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Device() Device  { return CPU }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Map(dst, src []float64, fn func(float64) float64) {
	c.parallel(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = fn(src[i])
		}
	})
}

func (c *CPUBackend) Zip(dst, a, b []float64, fn func(x, y float64) float64) {
	switch {
	case len(a) == 1 && len(b) != 1:
		av := a[0]
		c.parallel(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = fn(av, b[i])
			}
		})
	case len(b) == 1 && len(a) != 1:
		bv := b[0]
		c.parallel(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = fn(a[i], bv)
			}
		})
	default:
		c.parallel(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = fn(a[i], b[i])
			}
		})
	}
}

func (c *CPUBackend) parallel(n int, fn func(start, end int)) {
	if n < parallelThreshold || c.workers <= 1 {
		fn(0, n)
		return
	}

	workers := c.workers
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
