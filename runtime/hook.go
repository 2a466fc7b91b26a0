package runtime

import "github.com/tliron/commonlog"

// ---------------------------------------------------------------------------
// Event hooks
// ---------------------------------------------------------------------------

// EventHook receives trace events fired through Runtime.CallEventHooks.
type EventHook interface {
	OnEvent(tc *ThreadContext, event Event, file string, line int, name string, class Module)
}

// EventHookFunc adapts a function to the EventHook interface.
type EventHookFunc func(tc *ThreadContext, event Event, file string, line int, name string, class Module)

func (f EventHookFunc) OnEvent(tc *ThreadContext, event Event, file string, line int, name string, class Module) {
	f(tc, event, file, line, name, class)
}

// LogHook logs every trace event at debug level. Install it on a runtime to
// watch call/return/line flow; the cost is one AllowLevel check per event
// when the logger is quiet.
type LogHook struct {
	log commonlog.Logger
}

// NewLogHook creates a hook logging under the "garnet.runtime" logger.
func NewLogHook() *LogHook {
	return &LogHook{log: commonlog.GetLogger("garnet.runtime")}
}

func (h *LogHook) OnEvent(tc *ThreadContext, event Event, file string, line int, name string, class Module) {
	if !h.log.AllowLevel(commonlog.Debug) {
		return
	}
	className := ""
	if class != nil {
		className = class.Name()
	}
	h.log.Debugf("%s %s (%s) at %s:%d", event, name, className, file, line+1)
}
