package param_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var _ = Describe("Param", func() {
	It("is static when built from a value and adopts its shape", func() {
		p, err := param.New(tensor.FromSlice(1.0, 2.0), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsStatic()).To(BeTrue())
		Expect(p.IsDynamic()).To(BeFalse())
		Expect(p.Shape()).To(Equal(tensor.Shape{2}))
		Expect(p.Value().Data()).To(Equal([]float64{1, 2}))
	})

	It("accepts a value with a matching declared shape", func() {
		p, err := param.New(tensor.FromSlice(1, 2, 3), tensor.Shape{3})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsStatic()).To(BeTrue())
		Expect(p.Shape().Equal(p.Value().Shape())).To(BeTrue())
	})

	It("is dynamic when only a shape is given", func() {
		p, err := param.New(nil, tensor.Shape{3})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsDynamic()).To(BeTrue())
		Expect(p.IsStatic()).To(BeFalse())
		Expect(p.Value()).To(BeNil())
		Expect(p.Shape()).To(Equal(tensor.Shape{3}))
		Expect(p.Size()).To(Equal(3))
	})

	It("defaults a dynamic param to a scalar", func() {
		p, err := param.New(nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Shape()).To(BeEmpty())
		Expect(p.Size()).To(Equal(1))
	})

	DescribeTable("rejects a declared shape that disagrees with the value",
		func(value *tensor.Tensor, shape tensor.Shape) {
			_, err := param.New(value, shape)
			Expect(err).To(MatchError(param.ErrShapeMismatch))
		},
		Entry("vector vs scalar", tensor.FromSlice(1, 2), tensor.Shape{}),
		Entry("vector vs longer vector", tensor.FromSlice(1, 2), tensor.Shape{3}),
		Entry("scalar vs vector", tensor.Scalar(1), tensor.Shape{1}),
		Entry("matrix vs transposed", tensor.MustNew([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}), tensor.Shape{3, 2}),
	)

	It("converts a static value in place", func() {
		p := param.Static(tensor.Scalar(0.1))
		p.To(tensor.CUDA, tensor.Float32)
		Expect(p.Value().DType()).To(Equal(tensor.Float32))
		Expect(p.Value().Device()).To(Equal(tensor.CUDA))
		Expect(p.Value().Item()).To(Equal(float64(float32(0.1))))
	})

	It("treats To on a dynamic param as a no-op", func() {
		p := param.Dynamic(tensor.Shape{2})
		p.To(tensor.CUDA, tensor.Float32)
		Expect(p.IsDynamic()).To(BeTrue())
		Expect(p.Shape()).To(Equal(tensor.Shape{2}))
	})

	It("prints its representation", func() {
		Expect(param.Dynamic(tensor.Shape{3}).String()).To(Equal("Param(shape=(3,))"))
		Expect(param.Static(tensor.Scalar(5)).String()).To(ContainSubstring("Param(value="))
	})
})
