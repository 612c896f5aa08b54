package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"tetsy-hub/internal/a2a"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/runtime"
	"tetsy-hub/internal/trace"
)

// Executor runs one task through the agent runtime, translating runtime
// events into strictly-ordered task updates. The executor owns the
// session-id mapping; the runtime is an injected dependency.
type Executor struct {
	rt       runtime.Runtime
	sessions *runtime.SessionService
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewExecutor builds an executor over the given runtime.
func NewExecutor(rt runtime.Runtime, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		rt:       rt,
		sessions: runtime.NewSessionService(),
		logger:   logger,
		active:   make(map[string]struct{}),
	}
}

// Sessions exposes the session service (used by tests and diagnostics).
func (e *Executor) Sessions() *runtime.SessionService {
	return e.sessions
}

// Execute serves one task request, publishing events to queue until a
// terminal state is reached. It never returns an error to the transport:
// every failure becomes a terminal failed task, and a panic in the
// runtime is converted rather than crashing the handler.
func (e *Executor) Execute(ctx context.Context, rc *a2a.RequestContext, queue *a2a.EventQueue) {
	updater := a2a.NewTaskUpdater(queue, rc.TaskID, rc.ContextID)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("executor panic recovered",
				slog.String("task_id", rc.TaskID), slog.Any("panic", r))
			e.fail(ctx, updater, fmt.Sprintf("agent processing failed: %v", r))
		}
	}()

	var tr *trace.ResponseTrace
	if rc.WantsExtension(trace.ExtensionURI) {
		tr = trace.New(rc.ContextID, rc.TaskID)
	}

	if !rc.HasCurrentTask {
		if err := updater.Submit(ctx); err != nil {
			e.logger.Warn("submit update failed", slog.String("error", err.Error()))
			return
		}
	}
	if err := updater.StartWork(ctx, nil); err != nil {
		e.logger.Warn("working update failed", slog.String("error", err.Error()))
		return
	}

	content, err := ToRuntimeContent(rc.Message)
	if err != nil {
		e.fail(ctx, updater, err.Error())
		return
	}

	session, _ := e.sessions.GetOrCreate(rc.ContextID)
	e.setActive(session.ID, true)
	defer e.setActive(session.ID, false)

	stream, err := e.rt.Run(ctx, session, content)
	if err != nil {
		e.fail(ctx, updater, "agent runtime unavailable: "+err.Error())
		return
	}

	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			e.fail(ctx, updater, "agent processing failed: "+err.Error())
			return
		}

		switch v := ev.(type) {
		case runtime.IntermediateText:
			if v.Text == "" {
				continue
			}
			if err := updater.StartWork(ctx, updater.NewAgentText(v.Text)); err != nil {
				e.logger.Warn("intermediate update failed", slog.String("error", err.Error()))
				return
			}

		case runtime.DelegatedCall:
			if tr != nil {
				tr.Begin(trace.CallHost, trace.StepThinking, e.rt.Name(), v.Input).End(0)
				tr.Begin(trace.CallAgent, trace.StepAgentCall, v.Target, v.Input).End(0)
			}

		case runtime.FinalResponse:
			parts, err := FromRuntimeContent(v.Content)
			if err != nil {
				e.fail(ctx, updater, err.Error())
				return
			}
			if tr != nil {
				total := 0
				if v.Usage != nil {
					total = v.Usage.TotalTokens
				}
				tr.Begin(trace.CallHost, trace.StepEnding, e.rt.Name(), "").End(total)
				raw, err := tr.Export()
				if err != nil {
					e.logger.Warn("trace export failed", slog.String("error", err.Error()))
				} else {
					parts = append(parts, a2a.TextPart{Text: string(raw)})
				}
			}
			if err := updater.AddArtifact(ctx, "response", parts); err != nil {
				e.logger.Warn("artifact update failed", slog.String("error", err.Error()))
				return
			}
			if err := updater.Complete(ctx, nil); err != nil {
				e.logger.Warn("complete update failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// Cancel stops tracking the session but cannot interrupt in-flight runtime
// execution; it always reports UnsupportedError to the caller. This is a
// deliberate limitation of the current runtimes, preserved as contract.
func (e *Executor) Cancel(ctx context.Context, rc *a2a.RequestContext) error {
	e.mu.Lock()
	_, wasActive := e.active[rc.ContextID]
	delete(e.active, rc.ContextID)
	e.mu.Unlock()

	if wasActive {
		e.logger.Info("cancellation requested for active session",
			slog.String("context_id", rc.ContextID))
	}
	return model.NewUnsupportedError("task cancellation")
}

// ActiveSessions returns the number of sessions currently executing.
func (e *Executor) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

func (e *Executor) fail(ctx context.Context, updater *a2a.TaskUpdater, msg string) {
	if err := updater.Fail(ctx, updater.NewAgentText(msg)); err != nil {
		e.logger.Warn("failure update not delivered", slog.String("error", err.Error()))
	}
}

func (e *Executor) setActive(id string, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.active[id] = struct{}{}
	} else {
		delete(e.active, id)
	}
}
