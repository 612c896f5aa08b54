// Package trace implements the execution-traceability extension: a
// structured record of how a request was served (delegations, reasoning
// steps, token spend). When a caller activates the extension URI, the
// bridge appends the serialized trace to the final response.
package trace

import (
	"encoding/json"
	"sync"
	"time"
)

// ExtensionURI identifies the traceability extension on the agent card and
// in request extension activation.
const ExtensionURI = "https://tetsy-hub.dev/ext/traceability/v1"

// CallType identifies who performed a step.
type CallType string

const (
	CallHost  CallType = "host"
	CallAgent CallType = "agent"
	CallTool  CallType = "tool"
)

// StepType classifies a step within the request lifecycle.
type StepType string

const (
	StepThinking  StepType = "thinking"
	StepAgentCall StepType = "agent_call"
	StepEnding    StepType = "ending"
)

// Step is one recorded step of a trace.
type Step struct {
	CallType    CallType          `json:"call_type"`
	StepType    StepType          `json:"step_type"`
	Name        string            `json:"name"`
	Request     string            `json:"request,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	TotalTokens int               `json:"total_tokens,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
}

// ResponseTrace accumulates the ordered steps of one request.
// Safe for use from a single executing goroutine per request; the mutex
// guards Export racing a late step.
type ResponseTrace struct {
	ContextID string
	TaskID    string

	mu    sync.Mutex
	steps []Step
}

// New builds an empty trace for a task.
func New(contextID, taskID string) *ResponseTrace {
	return &ResponseTrace{ContextID: contextID, TaskID: taskID}
}

// StepBuilder records one in-progress step. End it exactly once.
type StepBuilder struct {
	trace *ResponseTrace
	step  Step
}

// Begin opens a step. The step is not visible in the trace until End.
func (t *ResponseTrace) Begin(callType CallType, stepType StepType, name, request string) *StepBuilder {
	return &StepBuilder{
		trace: t,
		step: Step{
			CallType:  callType,
			StepType:  stepType,
			Name:      name,
			Request:   request,
			StartedAt: time.Now().UTC(),
		},
	}
}

// End closes the step with its token spend and appends it to the trace.
func (b *StepBuilder) End(totalTokens int) {
	b.step.TotalTokens = totalTokens
	b.step.EndedAt = time.Now().UTC()
	b.trace.mu.Lock()
	b.trace.steps = append(b.trace.steps, b.step)
	b.trace.mu.Unlock()
}

// Steps returns a copy of the recorded steps.
func (t *ResponseTrace) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// TotalTokens sums token spend across all steps.
func (t *ResponseTrace) TotalTokens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, s := range t.steps {
		total += s.TotalTokens
	}
	return total
}

// export is the wire shape of a serialized trace.
type export struct {
	ContextID   string `json:"context_id"`
	TaskID      string `json:"task_id"`
	Steps       []Step `json:"steps"`
	TotalTokens int    `json:"total_tokens"`
}

// Export serializes the trace as JSON for embedding in a response part.
func (t *ResponseTrace) Export() ([]byte, error) {
	return json.Marshal(export{
		ContextID:   t.ContextID,
		TaskID:      t.TaskID,
		Steps:       t.Steps(),
		TotalTokens: t.TotalTokens(),
	})
}
