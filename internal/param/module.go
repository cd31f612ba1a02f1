package param

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/tensor"
)

// Node is anything that carries a Module. Physics types embed *Module and
// satisfy Node through the promoted Base method.
type Node interface {
	Base() *Module
}

// registry indexes every module of one tree by name. It is owned by the
// root and shared by pointer with all descendants.
type registry struct {
	modules map[string]*Module
}

var autoName atomic.Int64

// Module is a node of a parameter tree. It owns params and child modules,
// and its name identifies it within the whole tree.
type Module struct {
	name       string
	params     map[string]*Param
	paramOrder []string
	children   map[string]*Module
	childOrder []string
	parent     *Module
	reg        *registry
	converters []func(tensor.Device, tensor.DType)
}

// NewModule creates a root module. An empty name is replaced by a generated
// unique one.
func NewModule(name string) *Module {
	if name == "" {
		name = fmt.Sprintf("module_%d", autoName.Add(1))
	}
	m := &Module{
		name:     name,
		params:   make(map[string]*Param),
		children: make(map[string]*Module),
	}
	m.reg = &registry{modules: map[string]*Module{name: m}}
	return m
}

func (m *Module) Base() *Module   { return m }
func (m *Module) Name() string    { return m.name }
func (m *Module) Parent() *Module { return m.parent }

func (m *Module) Root() *Module {
	r := m
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Lookup finds a module of this tree by name.
func (m *Module) Lookup(name string) (*Module, bool) {
	mod, ok := m.reg.modules[name]
	return mod, ok
}

func (m *Module) Param(name string) (*Param, bool) {
	p, ok := m.params[name]
	return p, ok
}

func (m *Module) Child(name string) (*Module, bool) {
	c, ok := m.children[name]
	return c, ok
}

// ParamNames returns the module's params in declaration order.
func (m *Module) ParamNames() []string {
	out := make([]string, len(m.paramOrder))
	copy(out, m.paramOrder)
	return out
}

// ChildNames returns the child slots in attach order.
func (m *Module) ChildNames() []string {
	out := make([]string, len(m.childOrder))
	copy(out, m.childOrder)
	return out
}

func (m *Module) hasLocal(name string) bool {
	_, p := m.params[name]
	_, c := m.children[name]
	return p || c
}

// AddParam registers a param. A nil value declares a dynamic param of the
// given shape; otherwise shape may be nil or must match the value.
func (m *Module) AddParam(name string, value *tensor.Tensor, shape tensor.Shape) error {
	if m.hasLocal(name) {
		return &Error{Op: "add_param", Module: m.name, Name: name, Err: ErrDuplicateName}
	}
	p, err := New(value, shape)
	if err != nil {
		return &Error{Op: "add_param", Module: m.name, Name: name, Err: err}
	}
	m.params[name] = p
	m.paramOrder = append(m.paramOrder, name)
	return nil
}

// SetParam replaces the value of an owned param. A nil value turns it
// back into a dynamic param.
func (m *Module) SetParam(name string, value *tensor.Tensor) error {
	p, ok := m.params[name]
	if !ok {
		return &Error{Op: "set_param", Module: m.name, Name: name, Err: ErrUnknownParam}
	}
	if err := p.set(value); err != nil {
		return &Error{Op: "set_param", Module: m.name, Name: name, Err: err}
	}
	return nil
}

// AddModule attaches child under the local slot name. Attaching a module
// that already belongs to this tree creates a shared link; its params are
// still owned, and packed, once. A child that already has a parent in
// another tree pulls that whole tree into this registry, so both trees
// share one name space from then on. The first parent stays the owner.
func (m *Module) AddModule(name string, child Node) error {
	c := child.Base()
	if m.hasLocal(name) {
		return &Error{Op: "add_module", Module: m.name, Name: name, Err: ErrDuplicateName}
	}
	if c.reaches(m) {
		return &Error{Op: "add_module", Module: m.name, Name: name, Err: ErrCycleDetected}
	}

	if c.reg != m.reg {
		for n, mod := range c.reg.modules {
			if existing, ok := m.reg.modules[n]; ok && existing != mod {
				return &Error{Op: "add_module", Module: m.name, Name: n, Err: ErrDuplicateName}
			}
		}
		merged := c.reg
		for n, mod := range merged.modules {
			m.reg.modules[n] = mod
			mod.reg = m.reg
		}
	}
	if c.parent == nil {
		c.parent = m
	}

	m.children[name] = c
	m.childOrder = append(m.childOrder, name)

	logrus.WithFields(logrus.Fields{
		"parent": m.name,
		"slot":   name,
		"child":  c.name,
	}).Debug("attached module")
	return nil
}

// reaches reports whether target is m or lies below m.
func (m *Module) reaches(target *Module) bool {
	found := false
	m.Walk(func(mod *Module, _ int) {
		if mod == target {
			found = true
		}
	})
	return found
}

// Walk visits the tree depth-first, each module once, in declaration order.
func (m *Module) Walk(fn func(mod *Module, depth int)) {
	seen := make(map[*Module]bool)
	var visit func(mod *Module, depth int)
	visit = func(mod *Module, depth int) {
		if seen[mod] {
			return
		}
		seen[mod] = true
		fn(mod, depth)
		for _, name := range mod.childOrder {
			visit(mod.children[name], depth+1)
		}
	}
	visit(m, 0)
}

// DynamicParam locates one dynamic param in the flat layout.
type DynamicParam struct {
	Module *Module
	Name   string
	Shape  tensor.Shape
}

func (d DynamicParam) Size() int { return d.Shape.NumElements() }

func (d DynamicParam) String() string {
	return fmt.Sprintf("%s.%s%v", d.Module.name, d.Name, d.Shape)
}

// DynamicParams lists every dynamic param below m: own params in
// declaration order first, then each child in attach order.
func (m *Module) DynamicParams() []DynamicParam {
	var out []DynamicParam
	m.Walk(func(mod *Module, _ int) {
		for _, name := range mod.paramOrder {
			p := mod.params[name]
			if p.IsDynamic() {
				out = append(out, DynamicParam{Module: mod, Name: name, Shape: p.Shape()})
			}
		}
	})
	return out
}

// StaticParam is a static param together with its owner.
type StaticParam struct {
	Module *Module
	Name   string
	Value  *tensor.Tensor
}

func (m *Module) StaticParams() []StaticParam {
	var out []StaticParam
	m.Walk(func(mod *Module, _ int) {
		for _, name := range mod.paramOrder {
			p := mod.params[name]
			if p.IsStatic() {
				out = append(out, StaticParam{Module: mod, Name: name, Value: p.Value()})
			}
		}
	})
	return out
}

// DynamicSize is the length of the flat vector that packs this tree.
func (m *Module) DynamicSize() int {
	n := 0
	for _, d := range m.DynamicParams() {
		n += d.Size()
	}
	return n
}

// OnTo registers a hook run whenever the module is converted, for state a
// physics type keeps outside its params (lookup tables, grids).
func (m *Module) OnTo(fn func(device tensor.Device, dtype tensor.DType)) {
	m.converters = append(m.converters, fn)
}

// To converts every static value below m and runs the modules' OnTo hooks.
func (m *Module) To(device tensor.Device, dtype tensor.DType) {
	m.Walk(func(mod *Module, _ int) {
		for _, name := range mod.paramOrder {
			mod.params[name].To(device, dtype)
		}
		for _, fn := range mod.converters {
			fn(device, dtype)
		}
	})
}

// Pack cuts a flat vector into a Packed container for this tree.
func (m *Module) Pack(flat []float64) (*Packed, error) {
	return FromFlat(m, flat)
}

// PackMap builds a Packed container from module -> param -> value entries.
func (m *Module) PackMap(values map[string]map[string]*tensor.Tensor) (*Packed, error) {
	return FromMap(m, values)
}

func (m *Module) String() string {
	return fmt.Sprintf("Module(%s, params=%d, children=%d)", m.name, len(m.params), len(m.children))
}
