package a2a

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tetsy-hub/internal/model"
)

// TaskUpdater publishes strictly-ordered status updates for one task.
// Once a terminal state has been published every further update fails
// with InvalidStateError; the stream can end exactly once.
type TaskUpdater struct {
	queue     *EventQueue
	taskID    string
	contextID string

	mu       sync.Mutex
	terminal bool
}

// NewTaskUpdater binds an updater to a task and its event queue.
func NewTaskUpdater(queue *EventQueue, taskID, contextID string) *TaskUpdater {
	return &TaskUpdater{queue: queue, taskID: taskID, contextID: contextID}
}

// Submit publishes the submitted state for a freshly received task.
func (u *TaskUpdater) Submit(ctx context.Context) error {
	return u.status(ctx, TaskSubmitted, nil, false)
}

// StartWork publishes the working state, optionally with a progress message.
func (u *TaskUpdater) StartWork(ctx context.Context, msg *Message) error {
	return u.status(ctx, TaskWorking, msg, false)
}

// Complete publishes the terminal completed state.
func (u *TaskUpdater) Complete(ctx context.Context, msg *Message) error {
	return u.status(ctx, TaskCompleted, msg, true)
}

// Fail publishes the terminal failed state.
func (u *TaskUpdater) Fail(ctx context.Context, msg *Message) error {
	return u.status(ctx, TaskFailed, msg, true)
}

// AddArtifact publishes a task artifact. Artifacts may only be added
// while the task is not yet terminal.
func (u *TaskUpdater) AddArtifact(ctx context.Context, name string, parts []Part) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.terminal {
		return model.NewInvalidStateError("task already reached a terminal state")
	}
	return u.queue.Enqueue(ctx, TaskEvent{
		Kind:      "artifact-update",
		TaskID:    u.taskID,
		ContextID: u.contextID,
		Artifact:  &Artifact{ArtifactID: uuid.NewString(), Name: name, Parts: parts},
	})
}

// NewAgentText is a convenience for a single-text agent message.
func (u *TaskUpdater) NewAgentText(text string) *Message {
	return NewAgentMessage(TextPart{Text: text})
}

func (u *TaskUpdater) status(ctx context.Context, state TaskState, msg *Message, final bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.terminal {
		return model.NewInvalidStateError("task already reached a terminal state")
	}
	if final {
		u.terminal = true
	}
	return u.queue.Enqueue(ctx, TaskEvent{
		Kind:      "status-update",
		TaskID:    u.taskID,
		ContextID: u.contextID,
		Status:    &TaskStatus{State: state, Message: msg, Timestamp: time.Now().UTC()},
		Final:     final,
	})
}
