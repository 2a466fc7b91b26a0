package runtime

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------
// Conditions the evaluator turns into language-level exceptions are plain
// errors. Stack protocol violations are interpreter bugs and panic instead;
// there is no recovery at this layer.

var (
	// ErrNoSurroundingClass means a constant was defined with no class or
	// module body open on the nesting stack.
	ErrNoSurroundingClass = errors.New("no class/module to define constant")

	// ErrNotAModule means a qualified constant's target is not a module.
	ErrNotAModule = errors.New("not a class/module")

	// ErrUncaughtThrow means no active catch target matched a thrown tag.
	ErrUncaughtThrow = errors.New("uncaught throw")

	// ErrDeadJumpTarget means a non-local return or break targeted a frame
	// that is no longer on the call stack.
	ErrDeadJumpTarget = errors.New("return jump target no longer live")
)

// NewUncaughtThrowError builds the error surfaced when ActiveCatch finds no
// target for tag.
func NewUncaughtThrowError(tag string) error {
	return fmt.Errorf("%w: %q", ErrUncaughtThrow, tag)
}

// NewDeadJumpTargetError builds the error surfaced when IsJumpTargetAlive
// reports a dead target.
func NewDeadJumpTargetError(target int) error {
	return fmt.Errorf("%w: target %d", ErrDeadJumpTarget, target)
}
