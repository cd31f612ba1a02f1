package param

import (
	"fmt"
	"sort"

	"github.com/san-kum/caustics/internal/tensor"
)

// Packed holds one call's values for the dynamic params of a tree, keyed by
// module name and param name. It has no mutators: build a new container
// for every evaluation and share it freely while that evaluation runs.
type Packed struct {
	values map[string]map[string]*tensor.Tensor
}

// NewPacked copies values into a new container without validating them.
func NewPacked(values map[string]map[string]*tensor.Tensor) *Packed {
	p := &Packed{values: make(map[string]map[string]*tensor.Tensor, len(values))}
	for mod, entries := range values {
		inner := make(map[string]*tensor.Tensor, len(entries))
		for name, v := range entries {
			inner[name] = v
		}
		p.values[mod] = inner
	}
	return p
}

// FromFlat slices flat along the tree's dynamic layout.
func FromFlat(tree Node, flat []float64) (*Packed, error) {
	root := tree.Base()
	layout := root.DynamicParams()

	size := 0
	for _, d := range layout {
		size += d.Size()
	}
	if len(flat) != size {
		return nil, &Error{
			Op:     "pack",
			Module: root.name,
			Err:    fmt.Errorf("%w: got %d values, layout needs %d", ErrSizeMismatch, len(flat), size),
		}
	}

	p := &Packed{values: make(map[string]map[string]*tensor.Tensor)}
	offset := 0
	for _, d := range layout {
		n := d.Size()
		v, err := tensor.New(flat[offset:offset+n], d.Shape)
		if err != nil {
			return nil, &Error{Op: "pack", Module: d.Module.name, Name: d.Name, Err: err}
		}
		p.put(d.Module.name, d.Name, v)
		offset += n
	}
	return p, nil
}

// FromTensor is FromFlat for a 1-D tensor; slices keep its dtype and device.
func FromTensor(tree Node, flat *tensor.Tensor) (*Packed, error) {
	p, err := FromFlat(tree, flat.Data())
	if err != nil {
		return nil, err
	}
	for _, entries := range p.values {
		for name, v := range entries {
			entries[name] = v.To(flat.Device(), flat.DType())
		}
	}
	return p, nil
}

// FromMap builds a container from module -> param -> value entries. Entries
// for the tree's dynamic params must have the declared shape; entries the
// layout does not know are kept but never looked up.
func FromMap(tree Node, values map[string]map[string]*tensor.Tensor) (*Packed, error) {
	for _, d := range tree.Base().DynamicParams() {
		v, ok := values[d.Module.name][d.Name]
		if !ok || v == nil {
			continue
		}
		if !d.Shape.Equal(v.Shape()) {
			return nil, &Error{
				Op:     "pack",
				Module: d.Module.name,
				Name:   d.Name,
				Err:    fmt.Errorf("%w: value shape %v, declared %v", ErrShapeMismatch, v.Shape(), d.Shape),
			}
		}
	}
	return NewPacked(values), nil
}

func (p *Packed) put(module, name string, v *tensor.Tensor) {
	inner, ok := p.values[module]
	if !ok {
		inner = make(map[string]*tensor.Tensor)
		p.values[module] = inner
	}
	inner[name] = v
}

// Lookup returns the value for a module's dynamic param.
func (p *Packed) Lookup(module, name string) (*tensor.Tensor, error) {
	if p != nil {
		if v, ok := p.values[module][name]; ok && v != nil {
			return v, nil
		}
	}
	return nil, &Error{Op: "lookup", Module: module, Name: name, Err: ErrMissingDynamicParam}
}

// Merge combines two containers that cover disjoint sets of modules.
func (p *Packed) Merge(other *Packed) (*Packed, error) {
	out := NewPacked(nil)
	if p != nil {
		out = NewPacked(p.values)
	}
	if other == nil {
		return out, nil
	}
	for mod, entries := range other.values {
		if _, ok := out.values[mod]; ok {
			return nil, &Error{Op: "merge", Module: mod, Err: ErrConflictingKeys}
		}
		inner := make(map[string]*tensor.Tensor, len(entries))
		for name, v := range entries {
			inner[name] = v
		}
		out.values[mod] = inner
	}
	return out, nil
}

// Flatten writes the container back into the tree's flat layout.
func (p *Packed) Flatten(tree Node) ([]float64, error) {
	layout := tree.Base().DynamicParams()
	var flat []float64
	for _, d := range layout {
		v, err := p.Lookup(d.Module.name, d.Name)
		if err != nil {
			return nil, err
		}
		if !d.Shape.Equal(v.Shape()) {
			return nil, &Error{Op: "flatten", Module: d.Module.name, Name: d.Name, Err: ErrShapeMismatch}
		}
		flat = append(flat, v.Data()...)
	}
	return flat, nil
}

// Modules returns the module names the container covers, sorted.
func (p *Packed) Modules() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.values))
	for mod := range p.values {
		names = append(names, mod)
	}
	sort.Strings(names)
	return names
}

// Len is the number of (module, param) entries.
func (p *Packed) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, entries := range p.values {
		n += len(entries)
	}
	return n
}
