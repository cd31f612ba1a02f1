package param

import (
	"fmt"
	"sync"

	"github.com/san-kum/caustics/internal/tensor"
)

// Overrides are per-call values that win over both static and packed
// values. Nil entries fall through to normal resolution; names the method
// does not declare are ignored.
type Overrides map[string]*tensor.Tensor

// Values are the resolved arguments of one call.
type Values map[string]*tensor.Tensor

// Get returns the resolved value for name, or nil if it was not declared.
func (v Values) Get(name string) *tensor.Tensor {
	return v[name]
}

// Signature is the resolver of one method: the ordered names of the params
// the method reads.
type Signature struct {
	method string
	names  []string
}

var signatures struct {
	sync.Mutex
	all []*Signature
}

// Declare builds the resolver for method and records it in the package
// registration table. Call it once per method, from a package-level var.
func Declare(method string, names ...string) *Signature {
	s := &Signature{method: method, names: append([]string(nil), names...)}
	signatures.Lock()
	signatures.all = append(signatures.all, s)
	signatures.Unlock()
	return s
}

// Signatures returns every declared resolver in declaration order.
func Signatures() []*Signature {
	signatures.Lock()
	defer signatures.Unlock()
	out := make([]*Signature, len(signatures.all))
	copy(out, signatures.all)
	return out
}

func (s *Signature) Method() string { return s.method }

func (s *Signature) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Signature) String() string {
	return fmt.Sprintf("%s%v", s.method, s.names)
}

// Resolve binds every declared name for a call on owner. params may be nil
// when all declared params of owner are static.
func (s *Signature) Resolve(owner Node, params *Packed, ov Overrides) (Values, error) {
	m := owner.Base()
	out := make(Values, len(s.names))
	for _, name := range s.names {
		if v := ov[name]; v != nil {
			out[name] = v
			continue
		}

		p, ok := m.params[name]
		if !ok {
			return nil, &Error{Op: s.method, Module: m.name, Name: name, Err: ErrUnknownParam}
		}
		if p.IsStatic() {
			out[name] = p.value
			continue
		}

		if params == nil {
			return nil, &Error{Op: s.method, Module: m.name, Name: name, Err: ErrUnresolvedDynamicParam}
		}
		v, err := params.Lookup(m.name, name)
		if err != nil {
			return nil, &Error{
				Op:     s.method,
				Module: m.name,
				Name:   name,
				Err:    fmt.Errorf("%w: %w", ErrUnresolvedDynamicParam, err),
			}
		}
		out[name] = v
	}
	return out, nil
}
