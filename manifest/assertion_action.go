package manifest

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/jumbf"
)

// Action is one entry in an ActionAssertion's list: what was done, when,
// and by which software agent.
type Action struct {
	Action     string
	When       string
	SoftwareAgent string
	Parameters map[string]any
}

type cborAction struct {
	Action        string         `cbor:"action"`
	When          string         `cbor:"when,omitempty"`
	SoftwareAgent string         `cbor:"softwareAgent,omitempty"`
	Parameters    map[string]any `cbor:"parameters,omitempty"`
}

// ActionAssertion records the editing history applied to produce this
// asset. V2 adds structured software-agent identification; this model
// treats the field as an opaque string either way.
type ActionAssertion struct {
	Version int
	Actions []Action
}

type cborActions struct {
	Actions []cborAction `cbor:"actions"`
}

func (a *ActionAssertion) AssertionLabel() string {
	if a.Version == 2 {
		return "c2pa.actions.v2"
	}
	return "c2pa.actions"
}

func (a *ActionAssertion) ContentBoxes() ([]jumbf.Box, error) {
	w := cborActions{}
	for _, act := range a.Actions {
		w.Actions = append(w.Actions, cborAction{
			Action: act.Action, When: act.When, SoftwareAgent: act.SoftwareAgent, Parameters: act.Parameters,
		})
	}
	raw, err := cbor.Marshal(w)
	if err != nil {
		return nil, err
	}
	return []jumbf.Box{&jumbf.CBORBox{Raw: raw}}, nil
}

func decodeActionAssertion(label string, sb *jumbf.SuperBox) (Assertion, error) {
	cb, err := soleCBORBox(sb)
	if err != nil {
		return nil, err
	}
	var w cborActions
	if err := cbor.Unmarshal(cb.Raw, &w); err != nil {
		return nil, err
	}
	a := &ActionAssertion{}
	if label == "c2pa.actions.v2" {
		a.Version = 2
	}
	for _, act := range w.Actions {
		a.Actions = append(a.Actions, Action{
			Action: act.Action, When: act.When, SoftwareAgent: act.SoftwareAgent, Parameters: act.Parameters,
		})
	}
	return a, nil
}
