package runtime

// ---------------------------------------------------------------------------
// Frame: per-call activation record
// ---------------------------------------------------------------------------

// Frame records the state of one call activation: the receiver, the class the
// method was found in, the method name, the attached block, and the jump
// target that non-local returns aim at.
//
// Frames on the context's stack are pre-allocated and reused: an ordinary call
// overwrites the top slot's fields in place and a pop clears them. Block and
// eval invocation instead install an externally captured Frame object into the
// slot and restore the prior slot object on exit. The two modes are never
// mixed; see ThreadContext's frame management.
type Frame struct {
	self           Object
	class          Module
	name           string
	block          *Block
	visibility     Visibility
	jumpTarget     int
	isBindingFrame bool
}

// update overwrites the slot for an ordinary call. Visibility is left alone
// until the caller sets it explicitly.
func (f *Frame) update(class Module, self Object, name string, block *Block, jumpTarget int) {
	f.self = self
	f.class = class
	f.name = name
	f.block = block
	f.jumpTarget = jumpTarget
}

// updateForEval overwrites the slot with the synthetic eval method name.
func (f *Frame) updateForEval(self Object, jumpTarget int) {
	f.self = self
	f.name = EvalMethodName
	f.class = nil
	f.block = nil
	f.jumpTarget = jumpTarget
	f.visibility = VisibilityPrivate
}

// updateWithName overwrites only the name, for bare frames that need a stack
// entry but no call semantics.
func (f *Frame) updateWithName(name string) {
	f.name = name
}

// updateFrom copies another frame's fields into the slot.
func (f *Frame) updateFrom(other *Frame) {
	f.self = other.self
	f.class = other.class
	f.name = other.name
	f.block = other.block
	f.visibility = other.visibility
	f.jumpTarget = other.jumpTarget
	f.isBindingFrame = other.isBindingFrame
}

// clear drops references so popped slots don't pin dead objects.
func (f *Frame) clear() {
	f.self = nil
	f.class = nil
	f.name = ""
	f.block = nil
	f.isBindingFrame = false
}

// Duplicate returns an independent copy. Bindings capture duplicates so they
// never alias a live, reusable stack slot.
func (f *Frame) Duplicate() *Frame {
	dup := &Frame{}
	dup.updateFrom(f)
	return dup
}

// DuplicateForBacktrace copies the trace-relevant fields only, dropping the
// block reference so snapshots don't retain closures.
func (f *Frame) DuplicateForBacktrace() *Frame {
	return &Frame{
		self:       f.self,
		class:      f.class,
		name:       f.name,
		visibility: f.visibility,
		jumpTarget: f.jumpTarget,
	}
}

func (f *Frame) Self() Object          { return f.self }
func (f *Frame) SetSelf(self Object)   { f.self = self }
func (f *Frame) Class() Module         { return f.class }
func (f *Frame) Name() string          { return f.name }
func (f *Frame) SetName(name string)   { f.name = name }
func (f *Frame) Block() *Block         { return f.block }
func (f *Frame) JumpTarget() int       { return f.jumpTarget }
func (f *Frame) Visibility() Visibility { return f.visibility }

func (f *Frame) SetVisibility(v Visibility) { f.visibility = v }

// IsBindingFrame reports whether this frame is currently serving an
// eval-with-binding; such frames stay marked for the duration of the eval.
func (f *Frame) IsBindingFrame() bool       { return f.isBindingFrame }
func (f *Frame) SetIsBindingFrame(b bool)   { f.isBindingFrame = b }
