// Package primitives provides the foundational action types for the store.
//
// An Action is an immutable tagged value. Action creators are declared once per
// namespace and carry both the constructor for their action and, optionally,
// the reducer fragment that applies it to a state. ReducerFromActions composes
// the fragments into a single pure reducer.
//
// Core invariants:
// - Actions are values; never mutate one after dispatch
// - Reducer fragments never mutate their input state
// - An action type is owned by exactly one creator within a reducer
package primitives
