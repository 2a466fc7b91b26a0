package runtime

// ---------------------------------------------------------------------------
// CatchTarget: named non-local exit point
// ---------------------------------------------------------------------------

// CatchTarget is one active catch on the context's catch stack: an interned
// tag plus the jump target of the frame that established it, so a throw can
// validate the target frame is still live before transferring control.
type CatchTarget struct {
	tag        string
	jumpTarget int
}

// NewCatchTarget creates a catch target for the given interned tag.
func NewCatchTarget(tag string, jumpTarget int) *CatchTarget {
	return &CatchTarget{tag: tag, jumpTarget: jumpTarget}
}

// Tag returns the interned tag this target answers to.
func (c *CatchTarget) Tag() string { return c.tag }

// JumpTarget returns the establishing frame's jump target id.
func (c *CatchTarget) JumpTarget() int { return c.jumpTarget }
