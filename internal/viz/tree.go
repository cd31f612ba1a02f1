package viz

import (
	"fmt"
	"strings"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/san-kum/caustics/internal/param"
)

// DrawTree renders the module tree below node. Each box shows the module
// name and its params, with dynamic ones marked by a trailing '?'. A shared
// module is expanded under its owner only and shown as a link elsewhere.
func DrawTree(node param.Node) string {
	root := node.Base()
	t := tree.NewTree(tree.NodeString(label(root, "")))
	seen := map[*param.Module]bool{root: true}

	var add func(parent *tree.Tree, mod *param.Module)
	add = func(parent *tree.Tree, mod *param.Module) {
		for _, slot := range mod.ChildNames() {
			child, _ := mod.Child(slot)
			if seen[child] || child.Parent() != mod {
				parent.AddChild(tree.NodeString(fmt.Sprintf("%s -> %s", slot, child.Name())))
				continue
			}
			seen[child] = true
			add(parent.AddChild(tree.NodeString(label(child, slot))), child)
		}
	}
	add(t, root)
	return t.String()
}

func label(mod *param.Module, slot string) string {
	var b strings.Builder
	if slot != "" && slot != mod.Name() {
		b.WriteString(slot + ": ")
	}
	b.WriteString(mod.Name())
	for _, name := range mod.ParamNames() {
		p, _ := mod.Param(name)
		b.WriteString("\n" + name)
		if p.IsDynamic() {
			b.WriteString("?")
		} else if v := p.Value(); v.Len() == 1 {
			b.WriteString(fmt.Sprintf("=%.4g", v.Item()))
		}
	}
	return b.String()
}
