package param_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var _ = Describe("Packed", func() {
	var sim *param.Module

	BeforeEach(func() {
		sim, _, _, _ = lensTree()
	})

	It("slices a flat vector in layout order", func() {
		p, err := sim.Pack([]float64{0.1, 0.2, 1.5, 0.7, 3, 4})
		Expect(err).NotTo(HaveOccurred())

		x0, err := p.Lookup("lens", "x0")
		Expect(err).NotTo(HaveOccurred())
		Expect(x0.Item()).To(Equal(0.1))
		Expect(x0.Shape()).To(BeEmpty())

		h0, _ := p.Lookup("cosmo", "h0")
		Expect(h0.Item()).To(Equal(0.7))

		center, _ := p.Lookup("source", "center")
		Expect(center.Shape()).To(Equal(tensor.Shape{2}))
		Expect(center.Data()).To(Equal([]float64{3, 4}))
		Expect(p.Len()).To(Equal(5))
		Expect(p.Modules()).To(Equal([]string{"cosmo", "lens", "source"}))
	})

	DescribeTable("rejects a flat vector of the wrong size",
		func(flat []float64) {
			_, err := param.FromFlat(sim, flat)
			Expect(err).To(MatchError(param.ErrSizeMismatch))
		},
		Entry("empty", []float64{}),
		Entry("too short", []float64{1, 2, 3, 4, 5}),
		Entry("too long", []float64{1, 2, 3, 4, 5, 6, 7}),
	)

	It("round-trips flatten(unflatten(x)) exactly", func() {
		flat := []float64{-0.25, 1e-9, 3.14159, 0.6766, -2, 1e12}
		p, err := param.FromFlat(sim, flat)
		Expect(err).NotTo(HaveOccurred())
		back, err := p.Flatten(sim)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(flat))
	})

	It("does not alias the caller's flat vector", func() {
		flat := []float64{1, 2, 3, 4, 5, 6}
		p, _ := param.FromFlat(sim, flat)
		flat[0] = 99
		x0, _ := p.Lookup("lens", "x0")
		Expect(x0.Item()).To(Equal(1.0))
	})

	It("keeps dtype and device when packing from a tensor", func() {
		flat := tensor.FromSlice(1, 2, 3, 4, 5, 6).To(tensor.CUDA, tensor.Float32)
		p, err := param.FromTensor(sim, flat)
		Expect(err).NotTo(HaveOccurred())
		center, _ := p.Lookup("source", "center")
		Expect(center.DType()).To(Equal(tensor.Float32))
		Expect(center.Device()).To(Equal(tensor.CUDA))
	})

	It("fails lookups for absent entries, also on a nil container", func() {
		p := param.NewPacked(nil)
		_, err := p.Lookup("lens", "x0")
		Expect(err).To(MatchError(param.ErrMissingDynamicParam))

		var none *param.Packed
		_, err = none.Lookup("lens", "x0")
		Expect(err).To(MatchError(param.ErrMissingDynamicParam))
		Expect(none.Len()).To(Equal(0))
	})

	It("copies the construction map", func() {
		src := map[string]map[string]*tensor.Tensor{"lens": {"x0": tensor.Scalar(1)}}
		p := param.NewPacked(src)
		src["lens"]["x0"] = tensor.Scalar(2)
		src["other"] = map[string]*tensor.Tensor{}
		v, _ := p.Lookup("lens", "x0")
		Expect(v.Item()).To(Equal(1.0))
		Expect(p.Modules()).To(Equal([]string{"lens"}))
	})

	Describe("FromMap", func() {
		It("ignores entries outside the layout", func() {
			p, err := sim.PackMap(map[string]map[string]*tensor.Tensor{
				"lens":    {"x0": tensor.Scalar(0.3), "bogus": tensor.FromSlice(1, 2, 3)},
				"nowhere": {"q": tensor.Scalar(1)},
			})
			Expect(err).NotTo(HaveOccurred())
			x0, _ := p.Lookup("lens", "x0")
			Expect(x0.Item()).To(Equal(0.3))
		})

		It("rejects a misshaped entry for a dynamic param", func() {
			_, err := sim.PackMap(map[string]map[string]*tensor.Tensor{
				"source": {"center": tensor.Scalar(1)},
			})
			Expect(err).To(MatchError(param.ErrShapeMismatch))
		})
	})

	Describe("Merge", func() {
		It("combines disjoint module scopes", func() {
			a := param.NewPacked(map[string]map[string]*tensor.Tensor{"lens": {"x0": tensor.Scalar(1)}})
			b := param.NewPacked(map[string]map[string]*tensor.Tensor{"cosmo": {"h0": tensor.Scalar(0.7)}})
			m, err := a.Merge(b)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Modules()).To(Equal([]string{"cosmo", "lens"}))
			Expect(a.Modules()).To(Equal([]string{"lens"}))
		})

		It("fails on overlapping modules", func() {
			a := param.NewPacked(map[string]map[string]*tensor.Tensor{"lens": {"x0": tensor.Scalar(1)}})
			b := param.NewPacked(map[string]map[string]*tensor.Tensor{"lens": {"y0": tensor.Scalar(2)}})
			_, err := a.Merge(b)
			Expect(err).To(MatchError(param.ErrConflictingKeys))
		})

		It("merges independently packed subtrees into a full container", func() {
			_, lens, _, source := lensTree()
			pl, err := param.FromFlat(lens, []float64{1, 2, 3, 0.7})
			Expect(err).NotTo(HaveOccurred())
			ps, err := param.FromFlat(source, []float64{5, 6})
			Expect(err).NotTo(HaveOccurred())
			all, err := pl.Merge(ps)
			Expect(err).NotTo(HaveOccurred())

			flat, err := all.Flatten(lens.Root())
			Expect(err).NotTo(HaveOccurred())
			Expect(flat).To(Equal([]float64{1, 2, 3, 0.7, 5, 6}))
		})
	})

	It("reports missing entries when flattening an incomplete container", func() {
		p := param.NewPacked(map[string]map[string]*tensor.Tensor{"lens": {"x0": tensor.Scalar(1)}})
		_, err := p.Flatten(sim)
		Expect(err).To(MatchError(param.ErrMissingDynamicParam))
	})
})
