package testutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/loginflow/internal/primitives"
)

// Sample is one reducer expectation: reducing Source with the action built
// from Payload yields Target. Payload is ignored for empty actions.
type Sample[S any] struct {
	Caption string
	Source  S
	Payload any
	Target  S
}

// ExpectedAction describes one creator of an action table.
type ExpectedAction[S any] struct {
	Name    string
	Type    string // without namespace
	Kind    primitives.Kind
	Samples []Sample[S]
}

// ActionTable collects expectations through a fluent builder.
type ActionTable[S any] struct {
	Namespace string
	Actions   []*ExpectedAction[S]
}

// ExpectActions starts an action table for namespace.
func ExpectActions[S any](namespace string) *ActionTable[S] {
	return &ActionTable[S]{Namespace: namespace}
}

// Empty adds a payload-less action and returns it for samples.
func (t *ActionTable[S]) Empty(name, typ string) *ExpectedAction[S] {
	a := &ExpectedAction[S]{Name: name, Type: typ, Kind: primitives.KindEmpty}
	t.Actions = append(t.Actions, a)
	return a
}

// Typed adds a payload action and returns it for samples.
func (t *ActionTable[S]) Typed(name, typ string) *ExpectedAction[S] {
	a := &ExpectedAction[S]{Name: name, Type: typ, Kind: primitives.KindTyped}
	t.Actions = append(t.Actions, a)
	return a
}

// WithSample appends a reducer sample (chainable).
func (a *ExpectedAction[S]) WithSample(caption string, source S, payload any, target S) *ExpectedAction[S] {
	a.Samples = append(a.Samples, Sample[S]{Caption: caption, Source: source, Payload: payload, Target: target})
	return a
}

// Verify checks current against the table: every expected creator exists
// with the right kind and namespaced type, builds and dispatches its action,
// reduces every sample, has no reducer when no sample is given, and no
// creator in current is left undescribed.
func (table *ActionTable[S]) Verify(t *testing.T, current map[string]primitives.Creator[S]) {
	t.Helper()
	for _, exp := range table.Actions {
		t.Run("Action "+exp.Name, func(t *testing.T) {
			c, ok := current[exp.Name]
			require.True(t, ok, "action %s should be defined", exp.Name)
			assert.Equal(t, exp.Kind, c.Kind(), "kind")
			wantType := table.Namespace + exp.Type
			assert.Equal(t, wantType, c.Type(), "type")

			payload := any("some value")
			if exp.Kind == primitives.KindEmpty {
				payload = nil
			}
			built := primitives.NewAction(wantType, payload)
			assert.True(t, c.IsA(built), "IsA(%v)", built)

			if len(exp.Samples) == 0 {
				assert.False(t, c.HasReducer(), "reducer should not be defined")
				return
			}
			require.True(t, c.HasReducer(), "reducer should be defined")
			for i, sample := range exp.Samples {
				caption := sample.Caption
				if caption == "" {
					caption = "#" + strconv.Itoa(i+1)
				}
				var p any
				if exp.Kind == primitives.KindTyped {
					p = sample.Payload
				}
				got := c.Reduce(sample.Source, primitives.NewAction(wantType, p))
				assert.Equal(t, sample.Target, got, "sample %s", caption)
			}
		})
	}

	t.Run("no unexpected actions", func(t *testing.T) {
		known := make(map[string]bool, len(table.Actions))
		for _, a := range table.Actions {
			known[a.Name] = true
		}
		for name := range current {
			assert.True(t, known[name], "action %s should not be defined", name)
		}
	})
}
