package primitives

import "fmt"

// Kind distinguishes payload-less creators from payload-carrying ones.
type Kind int

const (
	KindEmpty Kind = iota
	KindTyped
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindTyped:
		return "typed"
	default:
		return "unknown"
	}
}

// Reducer maps (state, action) to the next state. It must be pure.
type Reducer[S any] func(state S, action Action) S

// DispatchFunc hands an action to a store.
type DispatchFunc func(Action) error

// Creator is the behaviour shared by every action creator regardless of payload.
type Creator[S any] interface {
	Type() string
	Kind() Kind
	IsA(a Action) bool
	HasReducer() bool
	Reduce(state S, a Action) S
}

// Namespace prefixes every action type declared through it.
type Namespace[S any] struct {
	prefix string
}

// NewNamespace returns a namespace for actions over state S.
func NewNamespace[S any](prefix string) Namespace[S] {
	return Namespace[S]{prefix: prefix}
}

// Prefix returns the namespace prefix.
func (n Namespace[S]) Prefix() string { return n.prefix }

// EmptyCreator builds payload-less actions.
type EmptyCreator[S any] struct {
	typ    string
	reduce func(S) S
}

// Empty declares a payload-less action. A nil reduce declares a command: the
// action is dispatchable but leaves state unchanged.
func Empty[S any](ns Namespace[S], name string, reduce func(S) S) *EmptyCreator[S] {
	return &EmptyCreator[S]{typ: ns.prefix + name, reduce: reduce}
}

func (c *EmptyCreator[S]) Type() string       { return c.typ }
func (c *EmptyCreator[S]) Kind() Kind         { return KindEmpty }
func (c *EmptyCreator[S]) IsA(a Action) bool  { return a.Type == c.typ }
func (c *EmptyCreator[S]) HasReducer() bool   { return c.reduce != nil }
func (c *EmptyCreator[S]) Create() Action     { return NewAction(c.typ, nil) }

// DispatchOn creates the action and passes it to dispatch.
func (c *EmptyCreator[S]) DispatchOn(dispatch DispatchFunc) error {
	return dispatch(c.Create())
}

// Reduce applies the fragment when a matches this creator.
func (c *EmptyCreator[S]) Reduce(state S, a Action) S {
	if c.reduce == nil || !c.IsA(a) {
		return state
	}
	return c.reduce(state)
}

// TypedCreator builds actions carrying a payload of type P.
type TypedCreator[S, P any] struct {
	typ    string
	reduce func(S, P) S
}

// Typed declares an action carrying a P payload.
func Typed[S, P any](ns Namespace[S], name string, reduce func(S, P) S) *TypedCreator[S, P] {
	return &TypedCreator[S, P]{typ: ns.prefix + name, reduce: reduce}
}

func (c *TypedCreator[S, P]) Type() string      { return c.typ }
func (c *TypedCreator[S, P]) Kind() Kind        { return KindTyped }
func (c *TypedCreator[S, P]) IsA(a Action) bool { return a.Type == c.typ }
func (c *TypedCreator[S, P]) HasReducer() bool  { return c.reduce != nil }

// Create builds the action for payload.
func (c *TypedCreator[S, P]) Create(payload P) Action {
	return NewAction(c.typ, payload)
}

// DispatchOn creates the action for payload and passes it to dispatch.
func (c *TypedCreator[S, P]) DispatchOn(payload P, dispatch DispatchFunc) error {
	return dispatch(c.Create(payload))
}

// Payload extracts the typed payload. ok is false when a belongs to another
// creator or carries a payload of the wrong type.
func (c *TypedCreator[S, P]) Payload(a Action) (payload P, ok bool) {
	if !c.IsA(a) {
		return payload, false
	}
	payload, ok = a.Payload.(P)
	return payload, ok
}

// Reduce applies the fragment when a matches this creator. An action with a
// mistyped payload is ignored.
func (c *TypedCreator[S, P]) Reduce(state S, a Action) S {
	if c.reduce == nil {
		return state
	}
	p, ok := c.Payload(a)
	if !ok {
		return state
	}
	return c.reduce(state, p)
}

// ReducerFromActions composes the fragments of creators into one reducer.
// Creators without a fragment are skipped. Unknown action types reduce to the
// unchanged state. Two creators sharing a type is a programming error and panics.
func ReducerFromActions[S any](creators ...Creator[S]) Reducer[S] {
	byType := make(map[string]Creator[S], len(creators))
	for _, c := range creators {
		if _, dup := byType[c.Type()]; dup {
			panic(fmt.Sprintf("primitives: duplicate action type %q", c.Type()))
		}
		byType[c.Type()] = c
	}
	return func(state S, a Action) S {
		c, ok := byType[a.Type]
		if !ok || !c.HasReducer() {
			return state
		}
		return c.Reduce(state, a)
	}
}
