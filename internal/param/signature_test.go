package param_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

// model is a physics-style module: static a, dynamic b, and a child that
// resolves its own params against the same container.
type model struct {
	*param.Module
	inner *innerModel
}

type innerModel struct {
	*param.Module
}

var (
	sumSig   = param.Declare("model.Sum", "a", "b")
	staticA  = param.Declare("model.A", "a")
	innerSig = param.Declare("inner.Scale", "k")
	badSig   = param.Declare("model.Bad", "a", "missing")
)

func newModel() *model {
	m := &model{Module: param.NewModule("M")}
	Expect(m.AddParam("a", tensor.Scalar(5), nil)).To(Succeed())
	Expect(m.AddParam("b", nil, tensor.Shape{1})).To(Succeed())

	m.inner = &innerModel{Module: param.NewModule("inner")}
	Expect(m.inner.AddParam("k", nil, tensor.Shape{})).To(Succeed())
	Expect(m.AddModule("inner", m.inner)).To(Succeed())
	return m
}

func (m *model) Sum(p *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := sumSig.Resolve(m, p, ov)
	if err != nil {
		return nil, err
	}
	return v.Get("a").Add(v.Get("b")), nil
}

func (m *model) ScaledSum(p *param.Packed) (*tensor.Tensor, error) {
	s, err := m.Sum(p, nil)
	if err != nil {
		return nil, err
	}
	return m.inner.Scale(s, p)
}

func (i *innerModel) Scale(x *tensor.Tensor, p *param.Packed) (*tensor.Tensor, error) {
	v, err := innerSig.Resolve(i, p, nil)
	if err != nil {
		return nil, err
	}
	return x.Mul(v.Get("k")), nil
}

var _ = Describe("Signature", func() {
	var m *model

	BeforeEach(func() {
		m = newModel()
	})

	It("resolves static values and packed dynamic values", func() {
		p := param.NewPacked(map[string]map[string]*tensor.Tensor{
			"M": {"b": tensor.FromSlice(2.0)},
		})
		v, err := sumSig.Resolve(m, p, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Get("a").Item()).To(Equal(5.0))
		Expect(v.Get("b").Item()).To(Equal(2.0))

		out, err := m.Sum(p, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Data()).To(Equal([]float64{7}))
	})

	It("fails naming the dynamic param when no container is given", func() {
		_, err := m.Sum(nil, nil)
		Expect(err).To(MatchError(param.ErrUnresolvedDynamicParam))
		Expect(err.Error()).To(ContainSubstring("M.b"))
	})

	It("fails when the container lacks the entry", func() {
		p := param.NewPacked(map[string]map[string]*tensor.Tensor{"other": {"b": tensor.FromSlice(2.0)}})
		_, err := m.Sum(p, nil)
		Expect(err).To(MatchError(param.ErrUnresolvedDynamicParam))
		Expect(err).To(MatchError(param.ErrMissingDynamicParam))
	})

	It("succeeds without a container when every declared param is static", func() {
		v, err := staticA.Resolve(m, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Get("a").Item()).To(Equal(5.0))
	})

	It("lets explicit overrides win over static and packed values", func() {
		p := param.NewPacked(map[string]map[string]*tensor.Tensor{"M": {"b": tensor.FromSlice(2.0)}})
		v, err := sumSig.Resolve(m, p, param.Overrides{
			"a": tensor.Scalar(-1),
			"b": tensor.FromSlice(10),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Get("a").Item()).To(Equal(-1.0))
		Expect(v.Get("b").Item()).To(Equal(10.0))

		stored, _ := m.Param("a")
		Expect(stored.Value().Item()).To(Equal(5.0))
	})

	It("resolves a dynamic param from an override without a container", func() {
		v, err := sumSig.Resolve(m, nil, param.Overrides{"b": tensor.FromSlice(3)})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Get("b").Item()).To(Equal(3.0))
	})

	It("falls through on nil overrides and ignores undeclared ones", func() {
		p := param.NewPacked(map[string]map[string]*tensor.Tensor{"M": {"b": tensor.FromSlice(2.0)}})
		v, err := sumSig.Resolve(m, p, param.Overrides{"a": nil, "zzz": tensor.Scalar(1)})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Get("a").Item()).To(Equal(5.0))
		Expect(v).NotTo(HaveKey("zzz"))
	})

	It("rejects a declared name the module never registered", func() {
		_, err := badSig.Resolve(m, nil, nil)
		Expect(err).To(MatchError(param.ErrUnknownParam))
	})

	It("resolves re-entrantly through child modules with the same container", func() {
		p, err := m.Pack([]float64{2, 3})
		Expect(err).NotTo(HaveOccurred())
		out, err := m.ScaledSum(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Data()).To(Equal([]float64{21}))
	})

	It("does not mutate the container", func() {
		p, _ := m.Pack([]float64{2, 3})
		before, _ := p.Flatten(m)
		_, _ = m.ScaledSum(p)
		after, _ := p.Flatten(m)
		Expect(after).To(Equal(before))
		Expect(p.Len()).To(Equal(2))
	})

	It("supports concurrent resolution against one container", func() {
		p, _ := m.Pack([]float64{2, 3})
		var wg sync.WaitGroup
		results := make([]float64, 64)
		errs := make([]error, 64)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out, err := m.ScaledSum(p)
				errs[i] = err
				if err == nil {
					results[i] = out.Item()
				}
			}(i)
		}
		wg.Wait()
		for i := range results {
			Expect(errs[i]).NotTo(HaveOccurred())
			Expect(results[i]).To(Equal(21.0))
		}
	})

	It("records declared signatures once, in order", func() {
		var methods []string
		for _, s := range param.Signatures() {
			methods = append(methods, s.Method())
		}
		Expect(methods).To(ContainElements("model.Sum", "model.A", "inner.Scale"))
		Expect(sumSig.Names()).To(Equal([]string{"a", "b"}))
	})
})
