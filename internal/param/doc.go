// Package param implements parameter ownership and call-time resolution for
// simulation modules.
//
// A [Module] owns named [Param]s and named child modules. Each Param is
// either static (a value fixed on the module) or dynamic (only a shape is
// known; the value arrives with every call). The dynamic params of a whole
// tree have a fixed depth-first order, which defines how one flat vector is
// cut into per-module values:
//
//	packed, err := param.FromFlat(sim, flat)
//
// Methods of physics modules declare the parameters they read with a
// [Signature], built once at package init:
//
//	var criticalDensitySig = param.Declare("FlatLambdaCDM.CriticalDensity", "h0", "Om0")
//
//	func (c *FlatLambdaCDM) CriticalDensity(z *tensor.Tensor, p *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
//	    v, err := criticalDensitySig.Resolve(c, p, ov)
//	    ...
//	}
//
// Resolution picks, per name: an explicit override, else the static value,
// else the entry in the [Packed] container for this module.
//
// # Thread Safety
//
// Tree construction (AddParam, AddModule, SetParam, To) is not safe for
// concurrent use. Once built, resolution only reads the tree and the
// Packed container, so any number of goroutines may resolve against the
// same Packed at once.
package param
