package param_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

// lensTree builds sim -> {lens -> cosmo, source} with a mix of static and
// dynamic params.
func lensTree() (sim, lens, cosmo, source *param.Module) {
	sim = param.NewModule("sim")
	Expect(sim.AddParam("z_s", tensor.Scalar(1.5), nil)).To(Succeed())

	lens = param.NewModule("lens")
	Expect(lens.AddParam("z_l", tensor.Scalar(0.5), nil)).To(Succeed())
	Expect(lens.AddParam("x0", nil, tensor.Shape{})).To(Succeed())
	Expect(lens.AddParam("y0", nil, tensor.Shape{})).To(Succeed())
	Expect(lens.AddParam("th_ein", nil, tensor.Shape{})).To(Succeed())

	cosmo = param.NewModule("cosmo")
	Expect(cosmo.AddParam("h0", nil, tensor.Shape{})).To(Succeed())
	Expect(cosmo.AddParam("Om0", tensor.Scalar(0.3), nil)).To(Succeed())
	Expect(lens.AddModule("cosmology", cosmo)).To(Succeed())

	source = param.NewModule("source")
	Expect(source.AddParam("center", nil, tensor.Shape{2})).To(Succeed())
	Expect(source.AddParam("I0", tensor.Scalar(1), nil)).To(Succeed())

	Expect(sim.AddModule("lens", lens)).To(Succeed())
	Expect(sim.AddModule("source", source)).To(Succeed())
	return sim, lens, cosmo, source
}

func layoutNames(m *param.Module) []string {
	var out []string
	for _, d := range m.DynamicParams() {
		out = append(out, d.Module.Name()+"."+d.Name)
	}
	return out
}

var _ = Describe("Module", func() {
	It("generates a name when none is given", func() {
		a := param.NewModule("")
		b := param.NewModule("")
		Expect(a.Name()).NotTo(BeEmpty())
		Expect(a.Name()).NotTo(Equal(b.Name()))
	})

	Describe("AddParam", func() {
		It("rejects a name already used by a param", func() {
			m := param.NewModule("m")
			Expect(m.AddParam("a", tensor.Scalar(1), nil)).To(Succeed())
			Expect(m.AddParam("a", nil, nil)).To(MatchError(param.ErrDuplicateName))
		})

		It("rejects a name already used by a child slot", func() {
			m := param.NewModule("m")
			Expect(m.AddModule("a", param.NewModule("child"))).To(Succeed())
			Expect(m.AddParam("a", nil, nil)).To(MatchError(param.ErrDuplicateName))
		})

		It("reports a shape mismatch with context", func() {
			m := param.NewModule("m")
			err := m.AddParam("a", tensor.FromSlice(1, 2), tensor.Shape{3})
			Expect(err).To(MatchError(param.ErrShapeMismatch))
			Expect(err.Error()).To(ContainSubstring("m.a"))
		})

		It("keeps declaration order", func() {
			m := param.NewModule("m")
			for _, n := range []string{"c", "a", "b"} {
				Expect(m.AddParam(n, nil, nil)).To(Succeed())
			}
			Expect(m.ParamNames()).To(Equal([]string{"c", "a", "b"}))
		})
	})

	Describe("AddModule", func() {
		It("fails at attach time for two siblings named lens", func() {
			parent := param.NewModule("sim")
			Expect(parent.AddModule("lens1", param.NewModule("lens"))).To(Succeed())
			err := parent.AddModule("lens2", param.NewModule("lens"))
			Expect(err).To(MatchError(param.ErrDuplicateName))
		})

		It("fails for a reused slot name", func() {
			parent := param.NewModule("sim")
			Expect(parent.AddModule("lens", param.NewModule("a"))).To(Succeed())
			Expect(parent.AddModule("lens", param.NewModule("b"))).To(MatchError(param.ErrDuplicateName))
		})

		It("detects duplicates anywhere in the tree regardless of attach order", func() {
			// deep subtree first, then the clashing module
			root := param.NewModule("root")
			mid := param.NewModule("mid")
			Expect(mid.AddModule("leaf", param.NewModule("dup"))).To(Succeed())
			Expect(root.AddModule("mid", mid)).To(Succeed())
			Expect(root.AddModule("other", param.NewModule("dup"))).To(MatchError(param.ErrDuplicateName))

			// clashing module first, then the subtree carrying the duplicate
			root2 := param.NewModule("root")
			Expect(root2.AddModule("other", param.NewModule("dup"))).To(Succeed())
			mid2 := param.NewModule("mid")
			Expect(mid2.AddModule("leaf", param.NewModule("dup"))).To(Succeed())
			Expect(root2.AddModule("mid", mid2)).To(MatchError(param.ErrDuplicateName))
		})

		It("leaves the tree untouched after a rejected merge", func() {
			root := param.NewModule("root")
			Expect(root.AddModule("a", param.NewModule("dup"))).To(Succeed())
			sub := param.NewModule("fresh")
			Expect(sub.AddModule("x", param.NewModule("dup"))).To(Succeed())

			Expect(root.AddModule("sub", sub)).To(MatchError(param.ErrDuplicateName))
			_, ok := root.Lookup("fresh")
			Expect(ok).To(BeFalse())
			Expect(sub.Parent()).To(BeNil())
			Expect(root.ChildNames()).To(Equal([]string{"a"}))
		})

		It("rejects attaching a module to itself", func() {
			m := param.NewModule("m")
			Expect(m.AddModule("self", m)).To(MatchError(param.ErrCycleDetected))
		})

		It("rejects attaching an ancestor", func() {
			a := param.NewModule("a")
			b := param.NewModule("b")
			c := param.NewModule("c")
			Expect(a.AddModule("b", b)).To(Succeed())
			Expect(b.AddModule("c", c)).To(Succeed())
			Expect(c.AddModule("a", a)).To(MatchError(param.ErrCycleDetected))
		})

		It("joins two trees that share a module", func() {
			shared := param.NewModule("shared")
			one := param.NewModule("one")
			two := param.NewModule("two")
			Expect(one.AddModule("c", shared)).To(Succeed())
			Expect(two.AddModule("c", shared)).To(Succeed())

			Expect(shared.Parent()).To(BeIdenticalTo(one))
			found, ok := two.Lookup("one")
			Expect(ok).To(BeTrue())
			Expect(found).To(BeIdenticalTo(one))

			// both trees now draw names from one registry
			Expect(one.AddModule("x", param.NewModule("two"))).To(MatchError(param.ErrDuplicateName))

			root := param.NewModule("root")
			Expect(root.AddModule("one", one)).To(Succeed())
			Expect(root.AddModule("two", two)).To(Succeed())
			Expect(two.Parent()).To(BeIdenticalTo(root))
			Expect(root.DynamicSize()).To(Equal(0))
		})

		It("allows sharing a module within one tree and packs it once", func() {
			sim, _, cosmo, source := lensTree()
			Expect(source.AddModule("cosmology", cosmo)).To(Succeed())

			Expect(cosmo.Parent().Name()).To(Equal("lens"))
			Expect(layoutNames(sim)).To(Equal([]string{
				"lens.x0", "lens.y0", "lens.th_ein", "cosmo.h0", "source.center",
			}))
		})

		It("indexes every module of the tree from any node", func() {
			sim, lens, cosmo, _ := lensTree()
			found, ok := cosmo.Lookup("source")
			Expect(ok).To(BeTrue())
			Expect(found.Parent()).To(BeIdenticalTo(sim))
			Expect(cosmo.Root()).To(BeIdenticalTo(sim))
			c, ok := lens.Child("cosmology")
			Expect(ok).To(BeTrue())
			Expect(c).To(BeIdenticalTo(cosmo))
		})
	})

	Describe("DynamicParams", func() {
		It("lists dynamic params depth-first in declaration order", func() {
			sim, _, _, _ := lensTree()
			Expect(layoutNames(sim)).To(Equal([]string{
				"lens.x0", "lens.y0", "lens.th_ein", "cosmo.h0", "source.center",
			}))
		})

		It("is stable across calls", func() {
			sim, _, _, _ := lensTree()
			first := layoutNames(sim)
			for i := 0; i < 10; i++ {
				Expect(layoutNames(sim)).To(Equal(first))
			}
		})

		It("sums to the flat vector size", func() {
			sim, _, _, _ := lensTree()
			total := 0
			for _, d := range sim.DynamicParams() {
				total += d.Size()
			}
			Expect(sim.DynamicSize()).To(Equal(total))
			Expect(sim.DynamicSize()).To(Equal(6))
		})

		It("drops a param from the layout once it is set", func() {
			sim, lens, _, _ := lensTree()
			Expect(lens.SetParam("th_ein", tensor.Scalar(1.2))).To(Succeed())
			Expect(layoutNames(sim)).NotTo(ContainElement("lens.th_ein"))
			Expect(sim.DynamicSize()).To(Equal(5))

			Expect(lens.SetParam("th_ein", nil)).To(Succeed())
			Expect(layoutNames(sim)).To(ContainElement("lens.th_ein"))
		})

		It("rejects setting an unknown or misshaped param", func() {
			_, lens, _, _ := lensTree()
			Expect(lens.SetParam("nope", tensor.Scalar(1))).To(MatchError(param.ErrUnknownParam))
			Expect(lens.SetParam("x0", tensor.FromSlice(1, 2))).To(MatchError(param.ErrShapeMismatch))
		})
	})

	Describe("To", func() {
		It("converts every static value and runs hooks, idempotently", func() {
			sim, lens, cosmo, _ := lensTree()
			calls := 0
			cosmo.OnTo(func(tensor.Device, tensor.DType) { calls++ })

			sim.To(tensor.CUDA, tensor.Float32)
			sim.To(tensor.CUDA, tensor.Float32)

			Expect(calls).To(Equal(2))
			for _, s := range sim.StaticParams() {
				Expect(s.Value.DType()).To(Equal(tensor.Float32))
				Expect(s.Value.Device()).To(Equal(tensor.CUDA))
			}
			p, _ := lens.Param("z_l")
			Expect(p.Value().Item()).To(Equal(0.5))
			h0, _ := cosmo.Param("h0")
			Expect(h0.IsDynamic()).To(BeTrue())
		})
	})
})
