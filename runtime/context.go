package runtime

import "fmt"

// ---------------------------------------------------------------------------
// ThreadContext: per-thread execution context
// ---------------------------------------------------------------------------
// One ThreadContext exists per logical thread. It tracks the live call-frame
// stack, the dynamic-scope chain, the class-nesting stack used for constant
// resolution, the active catch targets, and the running backtrace, and it
// exposes the paired pre/post operations the evaluator brackets every call
// with.
//
// A context's stacks are mutated only by the thread or fiber currently bound
// to it; there is no cross-thread sharing and no locking. Every operation is
// O(1) amortized: stacks grow by doubling, frame slots are reused in place.
// Exit from a pre* operation is the evaluator's responsibility - it must
// guarantee the matching post* runs (deferred around the bracketed execution)
// even across exceptions and non-local jumps.

const (
	initialStackSize      = 10
	initialFrameStackSize = 10

	// DefaultPollMask makes every 4096th dispatch poll for thread events.
	DefaultPollMask = 0xFFF

	// UnknownName marks a frame with no method name.
	UnknownName = "(unknown)"

	// EvalMethodName is the synthetic method name of eval frames and the
	// boundary crop-at-eval assembly stops at.
	EvalMethodName = "(eval)"

	// TopLevelName is the method name root frames format with.
	TopLevelName = "<toplevel>"
)

// Options tune a new context. Zero values select the defaults.
type Options struct {
	PollMask       int
	FrameStackSize int
	StackSize      int
}

// ThreadContext is the execution context of one logical thread.
type ThreadContext struct {
	runtime Runtime
	nilValue Object

	thread *Thread
	fiber  *Fiber

	classStack []Module
	classIndex int

	frameStack []*Frame
	frameIndex int

	scopeStack []*DynamicScope
	scopeIndex int

	catchStack []*CatchTarget
	catchIndex int

	backtrace []*BacktraceEntry

	// callNumber counts dispatches; it doubles as the jump-target id handed
	// to new call frames and drives the poll checkpoint.
	callNumber int
	pollMask   int

	// frameDelta shifts CurrentCallFrame for builtins that interpose
	// frameless helpers between the caller and the frame they should see.
	frameDelta int

	isWithinTrace     bool
	isWithinDefined   bool
	eventHooksEnabled bool

	lastCallType   CallType
	lastVisibility Visibility
	lastExitStatus Object
}

// NewThreadContext creates a context with default sizing. The context seeds a
// top-level scope (fresh local descriptor) and two blank backtrace entries so
// neither stack is ever empty.
func NewThreadContext(r Runtime) *ThreadContext {
	return NewThreadContextWithOptions(r, Options{})
}

// NewThreadContextWithOptions creates a context with explicit tuning.
func NewThreadContextWithOptions(r Runtime, opts Options) *ThreadContext {
	if opts.PollMask <= 0 {
		opts.PollMask = DefaultPollMask
	}
	if opts.FrameStackSize <= 0 {
		opts.FrameStackSize = initialFrameStackSize
	}
	if opts.StackSize <= 0 {
		opts.StackSize = initialStackSize
	}

	tc := &ThreadContext{
		runtime:           r,
		classStack:        make([]Module, opts.StackSize),
		classIndex:        -1,
		frameStack:        make([]*Frame, opts.FrameStackSize),
		frameIndex:        -1,
		scopeStack:        make([]*DynamicScope, opts.StackSize),
		scopeIndex:        -1,
		catchIndex:        -1,
		pollMask:          opts.PollMask,
		eventHooksEnabled: true,
	}
	if r != nil {
		tc.nilValue = r.Nil()
	}

	for i := range tc.frameStack {
		tc.frameStack[i] = &Frame{}
	}

	topStaticScope := NewLocalStaticScope(nil)
	tc.PushScope(NewDynamicScope(topStaticScope, nil))

	tc.backtrace = append(tc.backtrace,
		&BacktraceEntry{},
		&BacktraceEntry{},
	)

	return tc
}

// Runtime returns the runtime this context serves.
func (tc *ThreadContext) Runtime() Runtime { return tc.runtime }

// Nil returns the runtime's nil, cached for fast access.
func (tc *ThreadContext) Nil() Object { return tc.nilValue }

// ---------------------------------------------------------------------------
// Thread and fiber binding
// ---------------------------------------------------------------------------

func (tc *ThreadContext) Thread() *Thread { return tc.thread }

// SetThread binds the context to a thread and the thread back to the context,
// unless the reference is being cleared.
func (tc *ThreadContext) SetThread(thread *Thread) {
	tc.thread = thread
	if thread != nil {
		thread.context = tc
	}
}

func (tc *ThreadContext) Fiber() *Fiber          { return tc.fiber }
func (tc *ThreadContext) SetFiber(fiber *Fiber)  { tc.fiber = fiber }

// ErrorInfo returns the bound thread's error info.
func (tc *ThreadContext) ErrorInfo() Object {
	if tc.thread == nil {
		return tc.nilValue
	}
	return tc.thread.ErrorInfo()
}

// SetErrorInfo sets the bound thread's error info.
func (tc *ThreadContext) SetErrorInfo(errorInfo Object) Object {
	if tc.thread != nil {
		tc.thread.SetErrorInfo(errorInfo)
	}
	return errorInfo
}

// ---------------------------------------------------------------------------
// Last-call bookkeeping
// ---------------------------------------------------------------------------

func (tc *ThreadContext) SetLastCallType(callType CallType) { tc.lastCallType = callType }
func (tc *ThreadContext) LastCallType() CallType            { return tc.lastCallType }

func (tc *ThreadContext) SetLastVisibility(visibility Visibility) { tc.lastVisibility = visibility }
func (tc *ThreadContext) LastVisibility() Visibility              { return tc.lastVisibility }

func (tc *ThreadContext) SetLastCallTypeAndVisibility(callType CallType, visibility Visibility) {
	tc.lastCallType = callType
	tc.lastVisibility = visibility
}

func (tc *ThreadContext) LastExitStatus() Object          { return tc.lastExitStatus }
func (tc *ThreadContext) SetLastExitStatus(status Object) { tc.lastExitStatus = status }

// ---------------------------------------------------------------------------
// Scope stack
// ---------------------------------------------------------------------------

// PushScope pushes a dynamic scope, growing the stack when the slot written
// was the last one.
func (tc *ThreadContext) PushScope(scope *DynamicScope) {
	tc.scopeIndex++
	index := tc.scopeIndex
	tc.scopeStack[index] = scope
	if index+1 == len(tc.scopeStack) {
		tc.scopeStack = growScopeStack(tc.scopeStack)
	}
}

// PopScope pops the scope stack, clearing the slot so the context doesn't pin
// the scope; a closure that captured it holds its own reference.
func (tc *ThreadContext) PopScope() {
	if tc.scopeIndex < 0 {
		panic("garnet: scope stack underflow")
	}
	tc.scopeStack[tc.scopeIndex] = nil
	tc.scopeIndex--
}

// CurrentScope returns the scope on top of the stack.
func (tc *ThreadContext) CurrentScope() *DynamicScope {
	if tc.scopeIndex < 0 {
		panic("garnet: scope stack is empty")
	}
	return tc.scopeStack[tc.scopeIndex]
}

// PreviousScope returns the scope one below the top, for lookup fallback.
func (tc *ThreadContext) PreviousScope() *DynamicScope {
	if tc.scopeIndex < 1 {
		panic("garnet: scope stack has no previous scope")
	}
	return tc.scopeStack[tc.scopeIndex-1]
}

func growScopeStack(stack []*DynamicScope) []*DynamicScope {
	grown := make([]*DynamicScope, len(stack)*2)
	copy(grown, stack)
	return grown
}

// ---------------------------------------------------------------------------
// Class-nesting stack
// ---------------------------------------------------------------------------

// PushClass pushes the module whose body is now open for constant definition.
func (tc *ThreadContext) PushClass(module Module) {
	tc.classIndex++
	index := tc.classIndex
	tc.classStack[index] = module
	if index+1 == len(tc.classStack) {
		grown := make([]Module, len(tc.classStack)*2)
		copy(grown, tc.classStack)
		tc.classStack = grown
	}
}

// PopClass pops and returns the innermost open module.
func (tc *ThreadContext) PopClass() Module {
	if tc.classIndex < 0 {
		panic("garnet: class-nesting stack underflow")
	}
	index := tc.classIndex
	module := tc.classStack[index]
	tc.classStack[index] = nil
	tc.classIndex = index - 1
	return module
}

// CurrentClass returns the innermost open module, resolved past include
// wrappers to its concrete class.
func (tc *ThreadContext) CurrentClass() Module {
	if tc.classIndex == -1 {
		panic("garnet: class-nesting stack is empty")
	}
	return tc.classStack[tc.classIndex].NonIncludedClass()
}

// PreviousClass is CurrentClass one level down.
func (tc *ThreadContext) PreviousClass() Module {
	if tc.classIndex < 1 {
		panic("garnet: class-nesting stack has no previous entry")
	}
	return tc.classStack[tc.classIndex-1].NonIncludedClass()
}

// ---------------------------------------------------------------------------
// Catch stack
// ---------------------------------------------------------------------------

// PushCatch pushes an active catch target. The catch stack starts empty and
// grows on demand.
func (tc *ThreadContext) PushCatch(target *CatchTarget) {
	tc.catchIndex++
	index := tc.catchIndex
	if index == len(tc.catchStack) {
		newSize := len(tc.catchStack) * 2
		if newSize == 0 {
			newSize = 1
		}
		grown := make([]*CatchTarget, newSize)
		copy(grown, tc.catchStack)
		tc.catchStack = grown
	}
	tc.catchStack[index] = target
}

// PopCatch removes the innermost catch target.
func (tc *ThreadContext) PopCatch() {
	if tc.catchIndex < 0 {
		panic("garnet: catch stack underflow")
	}
	tc.catchStack[tc.catchIndex] = nil
	tc.catchIndex--
}

// ActiveCatch finds the innermost active catch target for tag, or nil when no
// catch matches; the caller turns nil into an uncaught-throw error. tag must
// be interned so the common case compares cheaply.
func (tc *ThreadContext) ActiveCatch(tag string) *CatchTarget {
	for i := tc.catchIndex; i >= 0; i-- {
		if c := tc.catchStack[i]; c.tag == tag {
			return c
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Frame stack
// ---------------------------------------------------------------------------
// Two push modes, never conflated: ordinary calls overwrite the reusable slot
// in place (value semantics), block and eval invocation install an externally
// captured Frame object and later restore the prior slot object by identity
// (reference semantics).

func (tc *ThreadContext) growFrameStack() {
	grown := make([]*Frame, len(tc.frameStack)*2)
	copy(grown, tc.frameStack)
	for i := len(tc.frameStack); i < len(grown); i++ {
		grown[i] = &Frame{}
	}
	tc.frameStack = grown
}

// pushFrameCopy advances and copies the current top frame into the new slot.
func (tc *ThreadContext) pushFrameCopy() {
	tc.frameIndex++
	index := tc.frameIndex
	tc.frameStack[index].updateFrom(tc.frameStack[index-1])
	if index+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
}

// pushFrameObject installs an external frame object into the slot, replacing
// the pre-allocated one. Callers must capture NextFrame first and restore it
// through popFrameReal.
func (tc *ThreadContext) pushFrameObject(frame *Frame) *Frame {
	tc.frameIndex++
	index := tc.frameIndex
	tc.frameStack[index] = frame
	if index+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
	return frame
}

// pushCallFrame overwrites the next slot for an ordinary call, stamping the
// current call number as the frame's jump target.
func (tc *ThreadContext) pushCallFrame(class Module, name string, self Object, block *Block) {
	tc.frameIndex++
	index := tc.frameIndex
	tc.frameStack[index].update(class, self, name, block, tc.callNumber)
	if index+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
}

// pushEvalFrame overwrites the next slot with a synthetic eval frame.
func (tc *ThreadContext) pushEvalFrame(self Object) {
	tc.frameIndex++
	index := tc.frameIndex
	tc.frameStack[index].updateForEval(self, tc.callNumber)
	if index+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
}

// pushNamedFrame overwrites the next slot with only a name set.
func (tc *ThreadContext) pushNamedFrame(name string) {
	tc.frameIndex++
	index := tc.frameIndex
	tc.frameStack[index].updateWithName(name)
	if index+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
}

// pushBareFrame advances the index without touching the slot.
func (tc *ThreadContext) pushBareFrame() {
	tc.frameIndex++
	if tc.frameIndex+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
}

// popFrame pops an ordinary frame and clears the slot's references eagerly.
func (tc *ThreadContext) popFrame() {
	if tc.frameIndex < 0 {
		panic("garnet: frame stack underflow")
	}
	frame := tc.frameStack[tc.frameIndex]
	tc.frameIndex--
	frame.clear()
}

// popFrameReal exits an installed-frame activation, restoring the slot to the
// exact pre-allocated object that occupied it before the install.
func (tc *ThreadContext) popFrameReal(oldFrame *Frame) {
	if tc.frameIndex < 0 {
		panic("garnet: frame stack underflow")
	}
	index := tc.frameIndex
	tc.frameStack[index] = oldFrame
	tc.frameIndex = index - 1
}

// CurrentFrame returns the live top frame.
func (tc *ThreadContext) CurrentFrame() *Frame {
	if tc.frameIndex < 0 {
		panic("garnet: frame stack is empty")
	}
	return tc.frameStack[tc.frameIndex]
}

// FrameDelta returns the current frame-delta offset.
func (tc *ThreadContext) FrameDelta() int { return tc.frameDelta }

// SetFrameDelta shifts which frame CurrentCallFrame reports, for builtins
// that run user code under interposed frameless helpers.
func (tc *ThreadContext) SetFrameDelta(delta int) { tc.frameDelta = delta }

// CurrentCallFrame returns the frame frameDelta slots below the top.
func (tc *ThreadContext) CurrentCallFrame() *Frame {
	return tc.frameStack[tc.frameIndex-tc.frameDelta]
}

// NextFrame returns the slot a push would occupy, pre-growing so the returned
// slot stays addressable.
func (tc *ThreadContext) NextFrame() *Frame {
	if tc.frameIndex+1 == len(tc.frameStack) {
		tc.growFrameStack()
	}
	return tc.frameStack[tc.frameIndex+1]
}

// PreviousFrame returns the caller's frame, nil when there is none.
func (tc *ThreadContext) PreviousFrame() *Frame {
	if tc.frameIndex < 1 {
		return nil
	}
	return tc.frameStack[tc.frameIndex-1]
}

// FrameCount returns the number of live frames.
func (tc *ThreadContext) FrameCount() int { return tc.frameIndex + 1 }

// Frames duplicates the live frame stack (plus delta slots) for backtrace
// use; the copies never alias the reusable slots.
func (tc *ThreadContext) Frames(delta int) []*Frame {
	top := tc.frameIndex + delta
	if top < 0 {
		return nil
	}
	frames := make([]*Frame, top+1)
	for i := 0; i <= top; i++ {
		frames[i] = tc.frameStack[i].DuplicateForBacktrace()
	}
	return frames
}

// IsJumpTargetAlive scans frames above skipFrames from the top downward and
// reports whether any live frame's jump target equals target. Non-local
// returns validate their destination here before executing.
func (tc *ThreadContext) IsJumpTargetAlive(target int, skipFrames int) bool {
	for i := tc.frameIndex - skipFrames; i >= 0; i-- {
		if tc.frameStack[i].jumpTarget == target {
			return true
		}
	}
	return false
}

// Frame field shorthands.

func (tc *ThreadContext) FrameName() string   { return tc.CurrentFrame().Name() }
func (tc *ThreadContext) FrameSelf() Object   { return tc.CurrentFrame().Self() }
func (tc *ThreadContext) FrameClass() Module  { return tc.CurrentFrame().Class() }
func (tc *ThreadContext) FrameBlock() *Block  { return tc.CurrentFrame().Block() }
func (tc *ThreadContext) FrameJumpTarget() int { return tc.CurrentFrame().JumpTarget() }

func (tc *ThreadContext) CurrentVisibility() Visibility { return tc.CurrentFrame().Visibility() }
func (tc *ThreadContext) PreviousVisibility() Visibility {
	return tc.PreviousFrame().Visibility()
}
func (tc *ThreadContext) SetCurrentVisibility(v Visibility) {
	tc.CurrentFrame().SetVisibility(v)
}

// ---------------------------------------------------------------------------
// Non-local return descriptors
// ---------------------------------------------------------------------------

// ReturnJump is the tagged control-flow result a non-local return threads
// back through the evaluator: the jump target it aims at plus the value it
// carries. The context only mints and validates these; unwinding belongs to
// the evaluator.
type ReturnJump struct {
	Target int
	Value  Object
}

// NewReturnJump builds a return jump aimed at the current frame.
func (tc *ThreadContext) NewReturnJump(value Object) ReturnJump {
	return ReturnJump{Target: tc.FrameJumpTarget(), Value: value}
}

// ---------------------------------------------------------------------------
// Running backtrace
// ---------------------------------------------------------------------------

// PushBacktraceEntry pushes a new running-trace entry for a call into method.
func (tc *ThreadContext) PushBacktraceEntry(method string) {
	top := tc.backtrace[len(tc.backtrace)-1]
	tc.backtrace = append(tc.backtrace, &BacktraceEntry{
		Method:   method,
		Filename: top.Filename,
		Line:     top.Line,
	})
}

// PopBacktraceEntry removes the top running-trace entry. The two seed entries
// never come off.
func (tc *ThreadContext) PopBacktraceEntry() {
	if len(tc.backtrace) <= 2 {
		panic("garnet: backtrace stack underflow")
	}
	tc.backtrace = tc.backtrace[:len(tc.backtrace)-1]
}

// File returns the file of the current source position.
func (tc *ThreadContext) File() string {
	return tc.backtrace[len(tc.backtrace)-1].Filename
}

// Line returns the line of the current source position.
func (tc *ThreadContext) Line() int {
	return tc.backtrace[len(tc.backtrace)-1].Line
}

// SetFile updates the current source file in place, no allocation.
func (tc *ThreadContext) SetFile(file string) {
	tc.backtrace[len(tc.backtrace)-1].Filename = file
}

// SetLine updates the current source line in place, no allocation.
func (tc *ThreadContext) SetLine(line int) {
	tc.backtrace[len(tc.backtrace)-1].Line = line
}

// SetFileAndLine updates the current source position in place.
func (tc *ThreadContext) SetFileAndLine(file string, line int) {
	top := tc.backtrace[len(tc.backtrace)-1]
	top.Filename = file
	top.Line = line
}

// CreateBacktraceSnapshot clones the running trace, innermost entry last.
func (tc *ThreadContext) CreateBacktraceSnapshot() []*BacktraceEntry {
	snapshot := make([]*BacktraceEntry, len(tc.backtrace))
	for i, e := range tc.backtrace {
		snapshot[i] = e.Clone()
	}
	return snapshot
}

// CreateBacktrace duplicates the frame stack, skipping level frames from the
// top, for full-trace assembly. Returns nil when nothing remains.
func (tc *ThreadContext) CreateBacktrace(level int) []*Frame {
	traceSize := tc.frameIndex - level + 1
	if traceSize <= 0 {
		return nil
	}
	frames := make([]*Frame, traceSize)
	for i := 0; i < traceSize; i++ {
		frames[i] = tc.frameStack[i].DuplicateForBacktrace()
	}
	return frames
}

// CreateCallerBacktrace assembles trace lines for the caller chain, skipping
// level entries from the top, innermost line first.
func (tc *ThreadContext) CreateCallerBacktrace(level int) []string {
	top := len(tc.backtrace) - 1 - level
	if top < 1 {
		return nil
	}
	lines := make([]string, 0, top)
	for i := top; i > 0; i-- {
		lines = append(lines, formatTraceLine(tc.backtrace[i], tc.backtrace[i-1]))
	}
	return lines
}

// ---------------------------------------------------------------------------
// Poll checkpoint
// ---------------------------------------------------------------------------

// CallNumber returns the monotonically increasing dispatch counter, which
// also serves as the jump-target id stamped on new call frames.
func (tc *ThreadContext) CallNumber() int { return tc.callNumber }

// PollMask returns the checkpoint mask.
func (tc *ThreadContext) PollMask() int { return tc.pollMask }

// PollThreadEvents asks the bound thread for a pending interrupt immediately.
func (tc *ThreadContext) PollThreadEvents() error {
	if tc.thread == nil {
		return nil
	}
	return tc.thread.PollEvents(tc)
}

// CallThreadPoll is the per-dispatch checkpoint: it bumps the call counter
// and polls for thread events whenever the pre-increment value masks to zero.
// Worst-case cancellation latency is pollMask+1 calls.
func (tc *ThreadContext) CallThreadPoll() error {
	n := tc.callNumber
	tc.callNumber++
	if n&tc.pollMask == 0 {
		return tc.PollThreadEvents()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Trace events
// ---------------------------------------------------------------------------

func (tc *ThreadContext) EventHooksEnabled() bool        { return tc.eventHooksEnabled }
func (tc *ThreadContext) SetEventHooksEnabled(flag bool) { tc.eventHooksEnabled = flag }

// IsWithinTrace reports whether this thread is inside a trace hook right now.
func (tc *ThreadContext) IsWithinTrace() bool       { return tc.isWithinTrace }
func (tc *ThreadContext) SetWithinTrace(b bool)     { tc.isWithinTrace = b }

// IsWithinDefined reports whether a defined? check is in progress.
func (tc *ThreadContext) IsWithinDefined() bool   { return tc.isWithinDefined }
func (tc *ThreadContext) SetWithinDefined(b bool) { tc.isWithinDefined = b }

// Trace fires an event through the runtime's hooks at the current position.
func (tc *ThreadContext) Trace(event Event, name string, implClass Module) {
	tc.TraceAt(event, name, implClass, tc.File(), tc.Line())
}

// TraceAt fires an event through the runtime's hooks at an explicit position.
func (tc *ThreadContext) TraceAt(event Event, name string, implClass Module, file string, line int) {
	if !tc.eventHooksEnabled || tc.runtime == nil {
		return
	}
	tc.runtime.CallEventHooks(tc, event, file, line, name, implClass)
}

// ---------------------------------------------------------------------------
// Constant access
// ---------------------------------------------------------------------------

// Constant looks a constant up through the current scope's lexical chain,
// falling back to the root object class.
func (tc *ThreadContext) Constant(name string) (Object, bool) {
	var objectClass Module
	if tc.runtime != nil {
		objectClass = tc.runtime.ObjectClass()
	}
	return tc.CurrentScope().StaticScope().Constant(name, objectClass)
}

// ConstantDefined reports whether Constant would find name.
func (tc *ThreadContext) ConstantDefined(name string) bool {
	_, ok := tc.Constant(name)
	return ok
}

// SetConstantInCurrent defines a constant on the module owning the current
// scope. With no open class or module this is the unbound-constant error.
func (tc *ThreadContext) SetConstantInCurrent(name string, value Object) (Object, error) {
	module := tc.CurrentScope().StaticScope().Module()
	if module == nil {
		return nil, ErrNoSurroundingClass
	}
	module.SetConstant(name, value)
	return value, nil
}

// SetConstantInModule defines a constant on an explicit target, which must be
// a module.
func (tc *ThreadContext) SetConstantInModule(name string, target Object, value Object) (Object, error) {
	module, ok := target.(Module)
	if !ok {
		return nil, fmt.Errorf("%v %w", target, ErrNotAModule)
	}
	module.SetConstant(name, value)
	return value, nil
}

// SetConstantInObject defines a constant on the root object class.
func (tc *ThreadContext) SetConstantInObject(name string, value Object) Object {
	tc.runtime.ObjectClass().SetConstant(name, value)
	return value
}

// ---------------------------------------------------------------------------
// Call/return protocol
// ---------------------------------------------------------------------------
// The fixed palette of paired entry/exit operations. Each pre* composes
// pushes on the primitive stacks; the matching post* pops them in reverse
// order. The evaluator guarantees pairing across abnormal exits.

// PreAdoptThread sets up a context for a thread the runtime did not start:
// a bare frame, Object as the open class, self set to the top-level self.
// It lives for the thread's lifetime; there is no matching post.
func (tc *ThreadContext) PreAdoptThread() {
	tc.pushBareFrame()
	tc.PushClass(tc.runtime.ObjectClass())
	tc.CurrentFrame().SetSelf(tc.runtime.TopSelf())
}

// PrepareTopLevel bootstraps the main program context: a bare frame with
// private default visibility, Object open for constants, top-self installed,
// and the seed scope bound to the object class. Lives for the process.
func (tc *ThreadContext) PrepareTopLevel(objectClass Module, topSelf Object) {
	tc.pushBareFrame()
	tc.SetCurrentVisibility(VisibilityPrivate)

	tc.PushClass(objectClass)

	tc.CurrentFrame().SetSelf(topSelf)

	tc.CurrentScope().StaticScope().SetModule(objectClass)
}

// PreClassBody enters a class or module body: new class nesting, a frame
// copied from the caller (inherits trace context, gets the type as self), and
// a fresh scope owned by the type.
func (tc *ThreadContext) PreClassBody(module Module, staticScope *StaticScope) {
	tc.PushClass(module)
	tc.pushFrameCopy()
	tc.CurrentFrame().SetSelf(module)
	tc.CurrentFrame().SetVisibility(VisibilityPublic)
	staticScope.SetModule(module)
	tc.PushScope(NewDynamicScope(staticScope, nil))
}

// PreClassBodyDummyScope is PreClassBody reusing the descriptor's shared
// frameless scope for bodies known not to touch variables.
func (tc *ThreadContext) PreClassBodyDummyScope(module Module, staticScope *StaticScope) {
	tc.PushClass(module)
	tc.pushFrameCopy()
	tc.CurrentFrame().SetSelf(module)
	tc.CurrentFrame().SetVisibility(VisibilityPublic)
	staticScope.SetModule(module)
	tc.PushScope(staticScope.DummyScope())
}

// PostClassBody exits PreClassBody and PreClassBodyDummyScope.
func (tc *ThreadContext) PostClassBody() {
	tc.PopScope()
	tc.PopClass()
	tc.popFrame()
}

// PreScopeNode enters a body that only needs a fresh scope chained to the
// current one (re-opened class body, no self change).
func (tc *ThreadContext) PreScopeNode(staticScope *StaticScope) {
	tc.PushScope(NewDynamicScope(staticScope, tc.CurrentScope()))
}

// PostScopeNode exits PreScopeNode.
func (tc *ThreadContext) PostScopeNode() {
	tc.PopScope()
}

// PreClassEval enters a class_eval-style body: like PreClassBody but the
// scope is unchained.
func (tc *ThreadContext) PreClassEval(staticScope *StaticScope, module Module) {
	tc.PushClass(module)
	tc.pushFrameCopy()
	tc.CurrentFrame().SetSelf(module)
	tc.CurrentFrame().SetVisibility(VisibilityPublic)

	tc.PushScope(NewDynamicScope(staticScope, nil))
}

// PostClassEval exits PreClassEval.
func (tc *ThreadContext) PostClassEval() {
	tc.PopScope()
	tc.PopClass()
	tc.popFrame()
}

// PreHostApply enters a host-embedding apply with a bare frame. The caller
// owns the scope carrying the handed-in variable names.
func (tc *ThreadContext) PreHostApply(names []string) {
	tc.pushBareFrame()
}

// PostHostApply exits PreHostApply.
func (tc *ThreadContext) PostHostApply() {
	tc.popFrame()
}

// PreMethodFrameAndScope enters a plain method call: call frame, fresh scope,
// class nesting, in that order.
func (tc *ThreadContext) PreMethodFrameAndScope(class Module, name string, self Object, block *Block, staticScope *StaticScope) {
	implementationClass := staticScope.Module()
	if implementationClass == nil {
		implementationClass = class
	}
	tc.pushCallFrame(class, name, self, block)
	tc.PushScope(NewDynamicScope(staticScope, nil))
	tc.PushClass(implementationClass)
}

// PreMethodFrameAndDummyScope is PreMethodFrameAndScope reusing the
// descriptor's shared frameless scope.
func (tc *ThreadContext) PreMethodFrameAndDummyScope(class Module, name string, self Object, block *Block, staticScope *StaticScope) {
	implementationClass := staticScope.Module()
	if implementationClass == nil {
		implementationClass = class
	}
	tc.pushCallFrame(class, name, self, block)
	tc.PushScope(staticScope.DummyScope())
	tc.PushClass(implementationClass)
}

// PreMethodNoFrameAndDummyScope pushes only the dummy scope and class
// nesting, for helpers running without a frame of their own.
func (tc *ThreadContext) PreMethodNoFrameAndDummyScope(class Module, staticScope *StaticScope) {
	implementationClass := staticScope.Module()
	if implementationClass == nil {
		implementationClass = class
	}
	tc.PushScope(staticScope.DummyScope())
	tc.PushClass(implementationClass)
}

// PostMethodFrameAndScope exits PreMethodFrameAndScope and
// PreMethodFrameAndDummyScope: class nesting, scope, frame.
func (tc *ThreadContext) PostMethodFrameAndScope() {
	tc.PopClass()
	tc.PopScope()
	tc.popFrame()
}

// PreMethodFrameOnly enters a native or bound method needing a frame but no
// scope: class nesting first, then the call frame.
func (tc *ThreadContext) PreMethodFrameOnly(class Module, name string, self Object, block *Block) {
	tc.PushClass(class)
	tc.pushCallFrame(class, name, self, block)
}

// PostMethodFrameOnly exits PreMethodFrameOnly: frame, then class nesting.
func (tc *ThreadContext) PostMethodFrameOnly() {
	tc.popFrame()
	tc.PopClass()
}

// PreMethodScopeOnly enters a scope-only method body: fresh scope and class
// nesting, no frame.
func (tc *ThreadContext) PreMethodScopeOnly(class Module, staticScope *StaticScope) {
	implementationClass := staticScope.Module()
	if implementationClass == nil {
		implementationClass = class
	}
	tc.PushScope(NewDynamicScope(staticScope, nil))
	tc.PushClass(implementationClass)
}

// PostMethodScopeOnly exits PreMethodScopeOnly: class nesting, then scope.
func (tc *ThreadContext) PostMethodScopeOnly() {
	tc.PopClass()
	tc.PopScope()
}

// PreMethodBacktraceAndScope is the trace-hook variant of PreMethodScopeOnly.
func (tc *ThreadContext) PreMethodBacktraceAndScope(name string, class Module, staticScope *StaticScope) {
	tc.PreMethodScopeOnly(class, staticScope)
}

// PostMethodBacktraceAndScope exits PreMethodBacktraceAndScope.
func (tc *ThreadContext) PostMethodBacktraceAndScope() {
	tc.PostMethodScopeOnly()
}

// PreMethodBacktraceOnly enters a backtrace-only method; the running trace
// carries the position, so no stack mutation is needed.
func (tc *ThreadContext) PreMethodBacktraceOnly(name string) {
}

// PostMethodBacktraceOnly exits PreMethodBacktraceOnly.
func (tc *ThreadContext) PostMethodBacktraceOnly() {
}

// PreMethodBacktraceDummyScope is PreMethodBacktraceAndScope over the shared
// frameless scope.
func (tc *ThreadContext) PreMethodBacktraceDummyScope(class Module, name string, staticScope *StaticScope) {
	implementationClass := staticScope.Module()
	if implementationClass == nil {
		implementationClass = class
	}
	tc.PushScope(staticScope.DummyScope())
	tc.PushClass(implementationClass)
}

// PostMethodBacktraceDummyScope exits PreMethodBacktraceDummyScope.
func (tc *ThreadContext) PostMethodBacktraceDummyScope() {
	tc.PopClass()
	tc.PopScope()
}

// PreNodeEval enters an eval of a node against an explicit self.
func (tc *ThreadContext) PreNodeEval(class Module, self Object) {
	tc.PushClass(class)
	tc.pushEvalFrame(self)
}

// PostNodeEval exits PreNodeEval.
func (tc *ThreadContext) PostNodeEval() {
	tc.popFrame()
	tc.PopClass()
}

// PreExecuteUnder runs a block as if inside another class's body: the current
// frame is re-pushed under the target class with a block-scoped child scope,
// and the new frame inherits the caller's visibility.
func (tc *ThreadContext) PreExecuteUnder(executeUnderClass Module, block *Block) {
	frame := tc.CurrentFrame()

	tc.PushClass(executeUnderClass)
	scope := tc.CurrentScope()
	blockScope := NewBlockStaticScope(scope.StaticScope())
	blockScope.SetModule(executeUnderClass)
	tc.PushScope(NewDynamicScope(blockScope, scope))
	tc.pushCallFrame(frame.Class(), frame.Name(), frame.Self(), block)
	tc.CurrentFrame().SetVisibility(tc.PreviousFrame().Visibility())
}

// PostExecuteUnder exits PreExecuteUnder.
func (tc *ThreadContext) PostExecuteUnder() {
	tc.popFrame()
	tc.PopScope()
	tc.PopClass()
}

// PreMethodProc brackets proc creation from a method with a bare frame.
func (tc *ThreadContext) PreMethodProc() {
	tc.pushBareFrame()
}

// PostMethodProc exits PreMethodProc.
func (tc *ThreadContext) PostMethodProc() {
	tc.popFrame()
}

// PreRunThread adopts a captured frame stack onto a fresh thread's context.
// The installed frames live for the thread's lifetime.
func (tc *ThreadContext) PreRunThread(currentFrames []*Frame) {
	for _, frame := range currentFrames {
		tc.pushFrameObject(frame)
	}
}

// PreTrace brackets a trace-hook invocation with a bare frame and marks the
// thread as tracing so hooks don't recurse.
func (tc *ThreadContext) PreTrace() {
	tc.SetWithinTrace(true)
	tc.pushBareFrame()
}

// PostTrace exits PreTrace.
func (tc *ThreadContext) PostTrace() {
	tc.popFrame()
	tc.SetWithinTrace(false)
}

// pushFrameForBlock installs a binding's captured frame, returning the slot
// object it displaced so the exit can restore it by identity.
func (tc *ThreadContext) pushFrameForBlock(binding *Binding) *Frame {
	lastFrame := tc.NextFrame()
	f := tc.pushFrameObject(binding.Frame())
	f.SetVisibility(binding.Visibility())
	return lastFrame
}

// PreYieldNoScope enters a block invocation without pushing a scope: class
// nesting (the binding's class unless overridden), then the captured frame.
// Returns the displaced slot for the matching post.
func (tc *ThreadContext) PreYieldNoScope(binding *Binding, class Module) *Frame {
	if class == nil {
		class = binding.Class()
	}
	tc.PushClass(class)
	return tc.pushFrameForBlock(binding)
}

// PreForBlock enters a for-loop block, which reuses the binding's scope
// directly (shared-scope closure semantics).
func (tc *ThreadContext) PreForBlock(binding *Binding, class Module) *Frame {
	lastFrame := tc.PreYieldNoScope(binding, class)
	tc.PushScope(binding.Scope())
	return lastFrame
}

// PreYieldSpecificBlock enters an ordinary block invocation: a fresh child
// scope over the binding's scope holds the block-local variables.
func (tc *ThreadContext) PreYieldSpecificBlock(binding *Binding, staticScope *StaticScope, class Module) *Frame {
	lastFrame := tc.PreYieldNoScope(binding, class)
	// new scope for this invocation of the block, based on parent scope
	tc.PushScope(NewDynamicScope(staticScope, binding.Scope()))
	return lastFrame
}

// PreYieldLightBlock enters a block known to declare no variables of its own;
// the caller's pre-built empty scope is pushed to avoid allocation.
func (tc *ThreadContext) PreYieldLightBlock(binding *Binding, emptyScope *DynamicScope, class Module) *Frame {
	lastFrame := tc.PreYieldNoScope(binding, class)
	tc.PushScope(emptyScope)
	return lastFrame
}

// PostYield exits the scope-pushing yield variants: scope, restored frame,
// class nesting.
func (tc *ThreadContext) PostYield(binding *Binding, lastFrame *Frame) {
	tc.PopScope()
	tc.popFrameReal(lastFrame)
	tc.PopClass()
}

// PostYieldLight exits PreYieldLightBlock.
func (tc *ThreadContext) PostYieldLight(binding *Binding, lastFrame *Frame) {
	tc.PopScope()
	tc.popFrameReal(lastFrame)
	tc.PopClass()
}

// PostYieldNoScope exits PreYieldNoScope.
func (tc *ThreadContext) PostYieldNoScope(lastFrame *Frame) {
	tc.popFrameReal(lastFrame)
	tc.PopClass()
}

// PreEvalScriptlet pushes an explicit scope for a one-off eval source.
func (tc *ThreadContext) PreEvalScriptlet(scope *DynamicScope) {
	tc.PushScope(scope)
}

// PostEvalScriptlet exits PreEvalScriptlet.
func (tc *ThreadContext) PostEvalScriptlet() {
	tc.PopScope()
}

// PreEvalWithBinding enters an eval against an explicit binding: the captured
// frame is installed (marked a binding frame for the duration), then the
// binding's class nesting. Returns the displaced slot.
func (tc *ThreadContext) PreEvalWithBinding(binding *Binding) *Frame {
	binding.Frame().SetIsBindingFrame(true)
	lastFrame := tc.pushFrameForBlock(binding)
	tc.PushClass(binding.Class())
	return lastFrame
}

// PostEvalWithBinding exits PreEvalWithBinding in reverse: class nesting,
// then the frame restore, un-marking the binding frame.
func (tc *ThreadContext) PostEvalWithBinding(binding *Binding, lastFrame *Frame) {
	binding.Frame().SetIsBindingFrame(false)
	tc.PopClass()
	tc.popFrameReal(lastFrame)
}

// PreScopedBody pushes a stored scope around a body re-entered with it.
func (tc *ThreadContext) PreScopedBody(scope *DynamicScope) {
	tc.PushScope(scope)
}

// PostScopedBody exits PreScopedBody.
func (tc *ThreadContext) PostScopedBody() {
	tc.PopScope()
}

// ---------------------------------------------------------------------------
// Binding capture
// ---------------------------------------------------------------------------
// Every capture duplicates the live frame and clones the top backtrace entry,
// so the snapshot stays valid however the live stacks move afterwards.

// CurrentBinding snapshots the current call's state.
func (tc *ThreadContext) CurrentBinding() *Binding {
	frame := tc.CurrentFrame().Duplicate()
	return NewBinding(frame.Self(), frame, frame.Visibility(), tc.CurrentClass(), tc.CurrentScope(), tc.topBacktraceClone())
}

// CurrentBindingSelf snapshots the current call's state with an explicit
// self.
func (tc *ThreadContext) CurrentBindingSelf(self Object) *Binding {
	frame := tc.CurrentFrame().Duplicate()
	return NewBinding(self, frame, frame.Visibility(), tc.CurrentClass(), tc.CurrentScope(), tc.topBacktraceClone())
}

// CurrentBindingVisibility snapshots with explicit self and visibility.
func (tc *ThreadContext) CurrentBindingVisibility(self Object, visibility Visibility) *Binding {
	frame := tc.CurrentFrame().Duplicate()
	return NewBinding(self, frame, visibility, tc.CurrentClass(), tc.CurrentScope(), tc.topBacktraceClone())
}

// CurrentBindingScope snapshots with explicit self and scope, for constructs
// re-entering with a stored scope.
func (tc *ThreadContext) CurrentBindingScope(self Object, scope *DynamicScope) *Binding {
	frame := tc.CurrentFrame().Duplicate()
	return NewBinding(self, frame, frame.Visibility(), tc.CurrentClass(), scope, tc.topBacktraceClone())
}

// CurrentBindingFull snapshots with explicit self, visibility, and scope, for
// shared-scope consumers like for-loops.
func (tc *ThreadContext) CurrentBindingFull(self Object, visibility Visibility, scope *DynamicScope) *Binding {
	frame := tc.CurrentFrame().Duplicate()
	return NewBinding(self, frame, visibility, tc.CurrentClass(), scope, tc.topBacktraceClone())
}

// PreviousBinding snapshots the caller's state one level down, for constructs
// that must run as if one call level up.
func (tc *ThreadContext) PreviousBinding() *Binding {
	frame := tc.PreviousFrame().Duplicate()
	return NewBinding(frame.Self(), frame, frame.Visibility(), tc.PreviousClass(), tc.CurrentScope(), tc.topBacktraceClone())
}

// PreviousBindingSelf is PreviousBinding with an explicit self.
func (tc *ThreadContext) PreviousBindingSelf(self Object) *Binding {
	frame := tc.PreviousFrame().Duplicate()
	return NewBinding(self, frame, frame.Visibility(), tc.PreviousClass(), tc.CurrentScope(), tc.topBacktraceClone())
}

func (tc *ThreadContext) topBacktraceClone() *BacktraceEntry {
	return tc.backtrace[len(tc.backtrace)-1].Clone()
}
