package runtime

// ---------------------------------------------------------------------------
// StaticScope: lexical shape of a scope
// ---------------------------------------------------------------------------

// StaticScope describes a scope as the parser saw it: which variable names it
// declares, which lexical scope encloses it, and which module owns it. One
// StaticScope is shared by every invocation of the body it describes.
type StaticScope struct {
	enclosing *StaticScope
	names     []string
	module    Module
	isBlock   bool

	// dummy is the frameless reuse scope, created on first request and shared
	// by every caller that asks. It carries no variable storage.
	dummy *DynamicScope
}

// NewLocalStaticScope creates the descriptor for a method or top-level body.
func NewLocalStaticScope(enclosing *StaticScope) *StaticScope {
	return &StaticScope{enclosing: enclosing}
}

// NewBlockStaticScope creates the descriptor for a block body.
func NewBlockStaticScope(enclosing *StaticScope) *StaticScope {
	return &StaticScope{enclosing: enclosing, isBlock: true}
}

// SetVariables installs the declared variable names.
func (s *StaticScope) SetVariables(names []string) { s.names = names }

// VariableNames returns the declared variable names.
func (s *StaticScope) VariableNames() []string { return s.names }

// NumberOfVariables returns how many slots an invocation of this scope needs.
func (s *StaticScope) NumberOfVariables() int { return len(s.names) }

// Enclosing returns the lexically enclosing descriptor, nil at the root.
func (s *StaticScope) Enclosing() *StaticScope { return s.enclosing }

// IsBlockScope reports whether this descriptor belongs to a block body.
func (s *StaticScope) IsBlockScope() bool { return s.isBlock }

// Module returns the module owning this scope, nil when no class or module
// body is open here.
func (s *StaticScope) Module() Module { return s.module }

func (s *StaticScope) SetModule(m Module) { s.module = m }

// DummyScope returns the shared frameless DynamicScope for this descriptor,
// used by call paths that need a scope on the stack but never touch variables.
func (s *StaticScope) DummyScope() *DynamicScope {
	if s.dummy == nil {
		s.dummy = &DynamicScope{staticScope: s}
	}
	return s.dummy
}

// Constant resolves a constant lexically: this scope's module, then each
// enclosing scope's module, then the root object class.
func (s *StaticScope) Constant(name string, objectClass Module) (Object, bool) {
	for scope := s; scope != nil; scope = scope.enclosing {
		if scope.module == nil {
			continue
		}
		if v, ok := scope.module.Constant(name); ok {
			return v, true
		}
	}
	if objectClass != nil {
		return objectClass.Constant(name)
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// DynamicScope: per-invocation variable storage
// ---------------------------------------------------------------------------

// DynamicScope holds the variable values for one invocation of a body, linked
// to the parent invocation's scope so closures can reach captured variables.
// The chain depth matches the lexical nesting depth at creation.
//
// A scope's lifetime is independent of the context's scope stack: the stack
// slot is transient, and a closure that captured the scope keeps it alive on
// its own.
type DynamicScope struct {
	staticScope *StaticScope
	parent      *DynamicScope
	values      []Object
}

// NewDynamicScope creates storage for one invocation of staticScope, chained
// to parent (nil for a body with no lexical surroundings).
func NewDynamicScope(staticScope *StaticScope, parent *DynamicScope) *DynamicScope {
	return &DynamicScope{
		staticScope: staticScope,
		parent:      parent,
		values:      make([]Object, staticScope.NumberOfVariables()),
	}
}

// StaticScope returns the lexical descriptor this scope instantiates.
func (d *DynamicScope) StaticScope() *StaticScope { return d.staticScope }

// Parent returns the enclosing invocation's scope, nil at the chain root.
func (d *DynamicScope) Parent() *DynamicScope { return d.parent }

// Depth returns the length of the parent chain, the lexical nesting depth at
// the point this scope was created.
func (d *DynamicScope) Depth() int {
	depth := 0
	for s := d.parent; s != nil; s = s.parent {
		depth++
	}
	return depth
}

// IsDummy reports whether this is a shared frameless scope with no storage.
func (d *DynamicScope) IsDummy() bool {
	return d.staticScope != nil && d.staticScope.dummy == d
}

// scopeAt walks up depth parents. Asking past the chain root is a protocol
// violation.
func (d *DynamicScope) scopeAt(depth int) *DynamicScope {
	s := d
	for i := 0; i < depth; i++ {
		s = s.parent
		if s == nil {
			panic("garnet: dynamic scope chain shallower than requested depth")
		}
	}
	return s
}

// Value reads the variable at offset, depth parent scopes up.
func (d *DynamicScope) Value(offset, depth int) Object {
	return d.scopeAt(depth).values[offset]
}

// SetValue writes the variable at offset, depth parent scopes up, and returns
// the value.
func (d *DynamicScope) SetValue(value Object, offset, depth int) Object {
	d.scopeAt(depth).values[offset] = value
	return value
}
