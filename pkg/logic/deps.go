package logic

// Walk visits n and its operands depth first. It does not descend into
// the values of Variables or the bodies of called functions. Walking stops
// at a node for which fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Calc:
		for _, p := range n.Params {
			Walk(p, fn)
		}
	case *Assign:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *Return:
		Walk(n.Value, fn)
	}
}

// Deps returns the variables n reads directly, plus the outer variables
// read by the user functions it calls. Each variable appears once, in
// order of first use.
func Deps(n Node) []*Variable {
	c := newCollector()
	c.node(n)
	return c.out
}

// FreeVars returns the variables f reads that it does not declare itself.
func (f *Function) FreeVars() []*Variable {
	c := newCollector()
	c.function(f)
	return c.out
}

// References returns the external parameters n reads, including those read
// by called user functions.
func References(n Node) []*Reference {
	var out []*Reference
	seen := make(map[*Reference]bool)
	visited := make(map[*Function]bool)
	var visit func(Node)
	visit = func(n Node) {
		Walk(n, func(m Node) bool {
			switch m := m.(type) {
			case *Reference:
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			case *Calc:
				if m.Callee != nil && !visited[m.Callee] {
					visited[m.Callee] = true
					for _, d := range m.Callee.Defines {
						visit(d.Value)
					}
					for _, b := range m.Callee.Body {
						visit(b)
					}
				}
			}
			return true
		})
	}
	visit(n)
	return out
}

type collector struct {
	out     []*Variable
	seen    map[*Variable]bool
	visited map[*Function]bool
}

func newCollector() *collector {
	return &collector{seen: make(map[*Variable]bool), visited: make(map[*Function]bool)}
}

func (c *collector) add(v *Variable) {
	if !c.seen[v] {
		c.seen[v] = true
		c.out = append(c.out, v)
	}
}

func (c *collector) node(n Node) {
	Walk(n, func(m Node) bool {
		switch m := m.(type) {
		case *Variable:
			c.add(m)
		case *Calc:
			if m.Callee != nil {
				for _, v := range c.free(m.Callee) {
					c.add(v)
				}
			}
		}
		return true
	})
}

// free returns the free variables of f, guarding against recursion.
func (c *collector) free(f *Function) []*Variable {
	if c.visited[f] {
		return nil
	}
	c.visited[f] = true
	inner := &collector{seen: make(map[*Variable]bool), visited: c.visited}
	inner.function(f)
	return inner.out
}

func (c *collector) function(f *Function) {
	c.visited[f] = true
	local := make(map[*Variable]bool)
	for _, p := range f.Params {
		local[p] = true
	}
	for _, d := range f.Defines {
		local[d] = true
	}

	all := &collector{seen: make(map[*Variable]bool), visited: c.visited}
	for _, d := range f.Defines {
		all.node(d.Value)
	}
	for _, b := range f.Body {
		all.node(b)
	}
	for _, nested := range f.Functions {
		for _, v := range all.free(nested) {
			all.add(v)
		}
	}
	for _, v := range all.out {
		if !local[v] {
			c.add(v)
		}
	}
}
