package bridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"tetsy-hub/internal/a2a"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/runtime"
	"tetsy-hub/internal/trace"
)

func TestPartConversionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		part a2a.Part
	}{
		{"text", a2a.TextPart{Text: "hello"}},
		{"file uri", a2a.FilePart{File: a2a.FileWithURI{URI: "https://img.example/a.png", MimeType: "image/png"}}},
		{"file bytes", a2a.FilePart{File: a2a.FileWithBytes{Bytes: []byte{9, 8, 7}, MimeType: "application/octet-stream"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, err := ToRuntimePart(tt.part)
			if err != nil {
				t.Fatalf("ToRuntimePart: %v", err)
			}
			back, err := FromRuntimePart(rp)
			if err != nil {
				t.Fatalf("FromRuntimePart: %v", err)
			}
			switch want := tt.part.(type) {
			case a2a.TextPart:
				if back.(a2a.TextPart) != want {
					t.Errorf("got %#v, want %#v", back, want)
				}
			case a2a.FilePart:
				got := back.(a2a.FilePart)
				switch wf := want.File.(type) {
				case a2a.FileWithURI:
					gf := got.File.(a2a.FileWithURI)
					if gf.URI != wf.URI || gf.MimeType != wf.MimeType {
						t.Errorf("got %#v, want %#v", gf, wf)
					}
				case a2a.FileWithBytes:
					gf := got.File.(a2a.FileWithBytes)
					if string(gf.Bytes) != string(wf.Bytes) || gf.MimeType != wf.MimeType {
						t.Errorf("got %#v, want %#v", gf, wf)
					}
				}
			}
		})
	}
}

func TestFromRuntimeContentDropsEmptyText(t *testing.T) {
	parts, err := FromRuntimeContent(runtime.Content{Role: "model", Parts: []runtime.Part{
		runtime.Text{Text: ""},
		runtime.Text{Text: "kept"},
	}})
	if err != nil {
		t.Fatalf("FromRuntimeContent: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("len(parts) = %d, want 1", len(parts))
	}
}

// scriptedRuntime plays back a fixed event sequence, or errors.
type scriptedRuntime struct {
	name   string
	events []runtime.Event
	runErr error
	panics bool
}

func (r *scriptedRuntime) Name() string { return r.name }

func (r *scriptedRuntime) Run(ctx context.Context, session *runtime.Session, content runtime.Content) (runtime.Stream, error) {
	if r.panics {
		panic("runtime exploded")
	}
	if r.runErr != nil {
		return nil, r.runErr
	}
	session.Append(content)
	return &scriptedStream{events: r.events}, nil
}

type scriptedStream struct {
	events []runtime.Event
	pos    int
}

func (s *scriptedStream) Next(ctx context.Context) (runtime.Event, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func runTask(t *testing.T, exec *Executor, rc *a2a.RequestContext) []a2a.TaskEvent {
	t.Helper()
	queue := a2a.NewEventQueue(32)
	go func() {
		defer queue.Close()
		exec.Execute(context.Background(), rc, queue)
	}()
	var events []a2a.TaskEvent
	for ev := range queue.Events() {
		events = append(events, ev)
	}
	return events
}

func newRC(taskID string) *a2a.RequestContext {
	return &a2a.RequestContext{
		TaskID:    taskID,
		ContextID: "ctx-" + taskID,
		Message:   a2a.NewUserMessage(a2a.TextPart{Text: "post a listing"}),
	}
}

func statusSequence(events []a2a.TaskEvent) []a2a.TaskState {
	var states []a2a.TaskState
	for _, ev := range events {
		if ev.Kind == "status-update" {
			states = append(states, ev.Status.State)
		}
	}
	return states
}

func TestExecuteHappyPath(t *testing.T) {
	rt := &scriptedRuntime{name: "host_agent", events: []runtime.Event{
		runtime.IntermediateText{Text: "thinking..."},
		runtime.DelegatedCall{Target: "tetsy_agent", Input: "post a listing"},
		runtime.FinalResponse{
			Content: runtime.NewModelText("Listing posted."),
			Usage:   &runtime.Usage{TotalTokens: 200},
		},
	}}
	exec := NewExecutor(rt, nil)

	events := runTask(t, exec, newRC("t1"))

	states := statusSequence(events)
	want := []a2a.TaskState{a2a.TaskSubmitted, a2a.TaskWorking, a2a.TaskWorking, a2a.TaskCompleted}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %s, want %s", i, states[i], want[i])
		}
	}

	var artifact *a2a.Artifact
	for _, ev := range events {
		if ev.Kind == "artifact-update" {
			artifact = ev.Artifact
		}
	}
	if artifact == nil {
		t.Fatal("no artifact emitted")
	}
	if artifact.Parts[0].(a2a.TextPart).Text != "Listing posted." {
		t.Errorf("artifact text = %q", artifact.Parts[0].(a2a.TextPart).Text)
	}

	last := events[len(events)-1]
	if last.Kind != "status-update" || !last.Final || last.Status.State != a2a.TaskCompleted {
		t.Errorf("last event = %+v, want final completed status", last)
	}
}

func TestExecuteFollowUpSkipsSubmitted(t *testing.T) {
	rt := &scriptedRuntime{name: "host_agent", events: []runtime.Event{
		runtime.FinalResponse{Content: runtime.NewModelText("ok")},
	}}
	exec := NewExecutor(rt, nil)

	rc := newRC("t2")
	rc.HasCurrentTask = true
	states := statusSequence(runTask(t, exec, rc))
	if states[0] != a2a.TaskWorking {
		t.Errorf("first state = %s, want working for follow-up", states[0])
	}
}

func TestExecuteTraceExtension(t *testing.T) {
	rt := &scriptedRuntime{name: "host_agent", events: []runtime.Event{
		runtime.DelegatedCall{Target: "tetsy_agent", Input: "post it"},
		runtime.FinalResponse{
			Content: runtime.NewModelText("done"),
			Usage:   &runtime.Usage{TotalTokens: 333},
		},
	}}
	exec := NewExecutor(rt, nil)

	rc := newRC("t3")
	rc.RequestedExtensions = []string{trace.ExtensionURI}
	events := runTask(t, exec, rc)

	var artifact *a2a.Artifact
	for _, ev := range events {
		if ev.Kind == "artifact-update" {
			artifact = ev.Artifact
		}
	}
	if artifact == nil {
		t.Fatal("no artifact emitted")
	}
	// The trace rides as an extra trailing text part.
	if len(artifact.Parts) != 2 {
		t.Fatalf("len(parts) = %d, want answer + trace", len(artifact.Parts))
	}
	traceText := artifact.Parts[1].(a2a.TextPart).Text
	for _, needle := range []string{"agent_call", "tetsy_agent", "ending", "333"} {
		if !strings.Contains(traceText, needle) {
			t.Errorf("trace %q missing %q", traceText, needle)
		}
	}
}

func TestExecuteWithoutExtensionHasNoTrace(t *testing.T) {
	rt := &scriptedRuntime{name: "host_agent", events: []runtime.Event{
		runtime.FinalResponse{Content: runtime.NewModelText("done")},
	}}
	exec := NewExecutor(rt, nil)

	events := runTask(t, exec, newRC("t4"))
	for _, ev := range events {
		if ev.Kind == "artifact-update" && len(ev.Artifact.Parts) != 1 {
			t.Errorf("artifact has %d parts, want 1 without trace", len(ev.Artifact.Parts))
		}
	}
}

func TestExecuteRuntimeFailure(t *testing.T) {
	exec := NewExecutor(&scriptedRuntime{name: "h", runErr: errors.New("boom")}, nil)

	events := runTask(t, exec, newRC("t5"))
	last := events[len(events)-1]
	if last.Status == nil || last.Status.State != a2a.TaskFailed || !last.Final {
		t.Fatalf("last event = %+v, want final failed", last)
	}
	if !strings.Contains(last.Status.Message.Text(), "boom") {
		t.Errorf("failure message = %q", last.Status.Message.Text())
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	exec := NewExecutor(&scriptedRuntime{name: "h", panics: true}, nil)

	events := runTask(t, exec, newRC("t6"))
	last := events[len(events)-1]
	if last.Status == nil || last.Status.State != a2a.TaskFailed {
		t.Fatalf("last event = %+v, want failed after panic", last)
	}
}

func TestExecuteSharesSessionPerContext(t *testing.T) {
	rt := &scriptedRuntime{name: "h", events: []runtime.Event{
		runtime.FinalResponse{Content: runtime.NewModelText("ok")},
	}}
	exec := NewExecutor(rt, nil)

	rc1 := newRC("a")
	rc2 := newRC("b")
	rc2.ContextID = rc1.ContextID
	runTask(t, exec, rc1)
	runTask(t, exec, rc2)

	if exec.Sessions().Len() != 1 {
		t.Errorf("sessions = %d, want 1 for shared context id", exec.Sessions().Len())
	}
}

func TestCancelAlwaysUnsupported(t *testing.T) {
	exec := NewExecutor(&scriptedRuntime{name: "h"}, nil)

	err := exec.Cancel(context.Background(), &a2a.RequestContext{ContextID: "ctx-x"})
	if !errors.Is(err, model.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if exec.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions = %d, want 0", exec.ActiveSessions())
	}
}
