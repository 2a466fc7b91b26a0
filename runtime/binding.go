package runtime

// ---------------------------------------------------------------------------
// Binding: immutable execution-context snapshot
// ---------------------------------------------------------------------------

// Binding is a snapshot of one call's execution state: self, the frame, its
// visibility, the class nesting, the variable scope, and the source position
// at capture time. Closures and eval use it to re-enter that exact context
// later.
//
// A binding owns its pieces: the frame is a duplicate (or an installed
// captured object), and the backtrace entry is a clone, so later mutation of
// the live stacks never shows through.
type Binding struct {
	self       Object
	frame      *Frame
	visibility Visibility
	class      Module
	scope      *DynamicScope
	entry      *BacktraceEntry
}

// NewBinding assembles a binding from explicit parts. The frame must not be a
// live stack slot; capture through ThreadContext.CurrentBinding and friends
// handles that.
func NewBinding(self Object, frame *Frame, visibility Visibility, class Module, scope *DynamicScope, entry *BacktraceEntry) *Binding {
	return &Binding{
		self:       self,
		frame:      frame,
		visibility: visibility,
		class:      class,
		scope:      scope,
		entry:      entry,
	}
}

func (b *Binding) Self() Object              { return b.self }
func (b *Binding) Frame() *Frame             { return b.frame }
func (b *Binding) Visibility() Visibility    { return b.visibility }
func (b *Binding) Class() Module             { return b.class }
func (b *Binding) Scope() *DynamicScope      { return b.scope }
func (b *Binding) BacktraceEntry() *BacktraceEntry { return b.entry }

// ---------------------------------------------------------------------------
// Block: closure value carried on frames
// ---------------------------------------------------------------------------

// Block is a closure attached to a call: the binding captured at creation
// plus the evaluator-owned body. The context only threads blocks through
// frames and yield setup; invoking one is the evaluator's job.
type Block struct {
	binding *Binding
	body    any
}

// NewBlock creates a block over the captured binding. body is opaque to the
// context.
func NewBlock(binding *Binding, body any) *Block {
	return &Block{binding: binding, body: body}
}

func (b *Block) Binding() *Binding { return b.binding }
func (b *Block) Body() any         { return b.body }
