// Package api assembles clause-level slot parameters into API-call records.
package api

import (
	"github.com/IBM/API-BLEND/slot"
)

// Call is one API invocation: an intent and its slot parameters.
type Call struct {
	API        string             `json:"API"`
	Parameters *slot.ParameterSet `json:"Parameters"`
}

// Record is one utterance with its ordered calls.
type Record struct {
	Text string `json:"text"`
	APIs []Call `json:"APIs"`
}

// Assemble pairs intents and parameter sets by position. When the counts
// differ the extra entries on the longer side are dropped; dropped reports
// how many.
func Assemble(intents []string, params []*slot.ParameterSet) (calls []Call, dropped int) {
	n := min(len(intents), len(params))
	calls = make([]Call, n)
	for i := range n {
		p := params[i]
		if p == nil {
			p = slot.NewParameterSet()
		}
		calls[i] = Call{API: intents[i], Parameters: p}
	}
	return calls, max(len(intents), len(params)) - n
}
