package runtime

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------
// The context manipulates objects, modules, and the wider runtime only through
// these interfaces. The object model proper (method tables, dispatch,
// inheritance) lives elsewhere.

// Object is an opaque reference to a language-level value. The context never
// inspects it; it only stores and returns receivers, constants, and results.
type Object any

// Module is the slice of the object model the context needs: identity for
// backtraces, constant storage for the class-nesting stack, and resolution of
// include wrappers to the concrete class they proxy.
type Module interface {
	Name() string

	// NonIncludedClass resolves an include/extend wrapper to the concrete
	// class it stands in for. Concrete modules return themselves.
	NonIncludedClass() Module

	SetConstant(name string, value Object)
	Constant(name string) (Object, bool)
}

// Runtime is the per-interpreter state the context reads: the root class for
// constant fallback, the top-level self, the nil value, and the installed
// event hooks.
type Runtime interface {
	ObjectClass() Module
	TopSelf() Object
	Nil() Object

	// CallEventHooks fires trace events (call, return, line, ...) raised by
	// the context. Hook errors are the runtime's problem, not the context's.
	CallEventHooks(tc *ThreadContext, event Event, file string, line int, name string, class Module)
}

// ThreadEvents answers whether a pending interrupt, kill, or injected
// exception exists for the polling thread. A non-nil error from PollEvents is
// the pending event, surfaced to the evaluator at the checkpoint.
type ThreadEvents interface {
	PollEvents(tc *ThreadContext) error
}

// Event identifies a trace event fired through the runtime's hooks.
type Event int

const (
	EventLine Event = iota
	EventClass
	EventEnd
	EventCall
	EventReturn
	EventCCall
	EventCReturn
	EventRaise
)

func (e Event) String() string {
	switch e {
	case EventLine:
		return "line"
	case EventClass:
		return "class"
	case EventEnd:
		return "end"
	case EventCall:
		return "call"
	case EventReturn:
		return "return"
	case EventCCall:
		return "c-call"
	case EventCReturn:
		return "c-return"
	case EventRaise:
		return "raise"
	}
	return "unknown"
}

// ---------------------------------------------------------------------------
// Basic implementations
// ---------------------------------------------------------------------------
// BasicModule and BasicRuntime are minimal concrete collaborators, enough to
// host the context in embedding scenarios and tests. A full object model
// replaces them.

// BasicModule is a named module with a constant table. An include wrapper is
// a BasicModule whose origin points at the concrete class.
type BasicModule struct {
	name      string
	constants map[string]Object
	origin    *BasicModule
}

// NewBasicModule creates a concrete module with the given name.
func NewBasicModule(name string) *BasicModule {
	return &BasicModule{
		name:      name,
		constants: make(map[string]Object),
	}
}

// NewIncludeWrapper creates a proxy module standing in for origin on an
// ancestor chain. NonIncludedClass resolves back to origin.
func NewIncludeWrapper(origin *BasicModule) *BasicModule {
	return &BasicModule{
		name:      origin.name,
		constants: origin.constants,
		origin:    origin,
	}
}

func (m *BasicModule) Name() string { return m.name }

func (m *BasicModule) NonIncludedClass() Module {
	if m.origin != nil {
		return m.origin
	}
	return m
}

func (m *BasicModule) SetConstant(name string, value Object) {
	m.constants[name] = value
}

func (m *BasicModule) Constant(name string) (Object, bool) {
	v, ok := m.constants[name]
	return v, ok
}

// BasicRuntime wires a root Object class, a top-level self, and a hook list.
type BasicRuntime struct {
	objectClass Module
	topSelf     Object
	nilObj      Object
	hooks       []EventHook
}

// NewBasicRuntime creates a runtime with a fresh Object class and a plain
// top-level self.
func NewBasicRuntime() *BasicRuntime {
	return &BasicRuntime{
		objectClass: NewBasicModule("Object"),
		topSelf:     "main",
	}
}

func (r *BasicRuntime) ObjectClass() Module { return r.objectClass }
func (r *BasicRuntime) TopSelf() Object     { return r.topSelf }
func (r *BasicRuntime) Nil() Object         { return r.nilObj }

// AddEventHook installs a hook for trace events. Not safe to call while
// threads are executing.
func (r *BasicRuntime) AddEventHook(hook EventHook) {
	r.hooks = append(r.hooks, hook)
}

func (r *BasicRuntime) CallEventHooks(tc *ThreadContext, event Event, file string, line int, name string, class Module) {
	for _, h := range r.hooks {
		h.OnEvent(tc, event, file, line, name, class)
	}
}
