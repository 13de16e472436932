package editor

// Enabler is an interface that defines a single Enabled() method, which is used
// by the view layer to check if a menu item or a button is enabled or not.
type Enabler interface {
	Enabled() bool
}

type (
	// Action describes a user action that can be performed on the graph,
	// which can be initiated by calling the Do() method. It is usually
	// initiated by a menu item or a key press. Action advertises whether it is
	// enabled, so the view layer can e.g. gray out menu items when the
	// underlying action is not allowed. The underlying Doer can optionally
	// implement the Enabler interface to decide if the action is enabled or
	// not; if it does not implement the Enabler interface, the action is
	// always allowed.
	Action struct {
		doer Doer
	}

	// Doer is an interface that defines a single Do() method, which is called
	// when an action is performed.
	Doer interface {
		Do()
	}

	// DoFunc adapts a function into a Doer.
	DoFunc func()

	funcAction struct {
		do      func()
		enabled func() bool
	}
)

func MakeAction(doer Doer) Action { return Action{doer: doer} }

// MakeEnabledAction makes an Action from two functions; enabled may be nil,
// in which case the action is always allowed.
func MakeEnabledAction(do func(), enabled func() bool) Action {
	return Action{doer: funcAction{do: do, enabled: enabled}}
}

func (a Action) Do() {
	e, ok := a.doer.(Enabler)
	if ok && !e.Enabled() {
		return
	}
	if a.doer != nil {
		a.doer.Do()
	}
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false // no doer, not allowed
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true // not enabler, always allowed
	}
	return e.Enabled()
}

func (f DoFunc) Do() { f() }

func (f funcAction) Do() { f.do() }

func (f funcAction) Enabled() bool {
	if f.enabled == nil {
		return true
	}
	return f.enabled()
}
