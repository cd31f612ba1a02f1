package sim

import "sync"

// VectorPool recycles flat parameter vectors of one length, for callers
// that perturb a vector many times (finite differences, scans).
type VectorPool struct {
	pool sync.Pool
	size int
}

func NewVectorPool(size int) *VectorPool {
	return &VectorPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				v := make([]float64, size)
				return &v
			},
		},
	}
}

func (p *VectorPool) Get() []float64 {
	return *p.pool.Get().(*[]float64)
}

func (p *VectorPool) Put(v []float64) {
	if len(v) == p.size {
		for i := range v {
			v[i] = 0
		}
		p.pool.Put(&v)
	}
}

func (p *VectorPool) GetAndCopy(src []float64) []float64 {
	dst := p.Get()
	copy(dst, src)
	return dst
}
