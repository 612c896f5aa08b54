// Package a2a defines the agent-to-agent protocol surface: message parts,
// task lifecycle events, and the agent capability card. The wire shapes are
// a fixed external contract; field names must not drift.
package a2a

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tetsy-hub/internal/model"
)

// TaskState is the lifecycle state of one unit of agent work.
type TaskState string

const (
	TaskSubmitted TaskState = "submitted"
	TaskWorking   TaskState = "working"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// Terminal reports whether no further task updates are permitted.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Part is one piece of message content. The variant set is closed:
// TextPart and FilePart are the only implementations.
type Part interface {
	part()
}

// TextPart is plain text content.
type TextPart struct {
	Text string
}

// FilePart is file content, carried either by reference or inline.
type FilePart struct {
	File FileContent
}

func (TextPart) part() {}
func (FilePart) part() {}

// FileContent is the closed payload variant of a FilePart.
type FileContent interface {
	fileContent()
}

// FileWithURI references a file by URI.
type FileWithURI struct {
	URI      string
	MimeType string
	Name     string
}

// FileWithBytes carries a file's raw bytes inline.
type FileWithBytes struct {
	Bytes    []byte
	MimeType string
	Name     string
}

func (FileWithURI) fileContent()   {}
func (FileWithBytes) fileContent() {}

// partEnvelope is the wire shape of a Part, discriminated by "kind".
type partEnvelope struct {
	Kind string        `json:"kind"`
	Text string        `json:"text,omitempty"`
	File *fileEnvelope `json:"file,omitempty"`
}

type fileEnvelope struct {
	URI      string `json:"uri,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Name     string `json:"name,omitempty"`
}

// MarshalPart encodes a Part into its kind-discriminated wire form.
func MarshalPart(p Part) ([]byte, error) {
	switch v := p.(type) {
	case TextPart:
		return json.Marshal(partEnvelope{Kind: "text", Text: v.Text})
	case FilePart:
		switch f := v.File.(type) {
		case FileWithURI:
			return json.Marshal(partEnvelope{Kind: "file", File: &fileEnvelope{
				URI: f.URI, MimeType: f.MimeType, Name: f.Name,
			}})
		case FileWithBytes:
			return json.Marshal(partEnvelope{Kind: "file", File: &fileEnvelope{
				Bytes: base64.StdEncoding.EncodeToString(f.Bytes), MimeType: f.MimeType, Name: f.Name,
			}})
		default:
			return nil, model.NewValidationError("part", "file part has no content")
		}
	default:
		return nil, model.NewValidationError("part", fmt.Sprintf("unknown part type %T", p))
	}
}

// UnmarshalPart decodes a kind-discriminated wire part. Unrecognized kinds
// or malformed file payloads are a ValidationError, never silently dropped.
func UnmarshalPart(data []byte) (Part, error) {
	var env partEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, model.NewValidationError("part", "malformed part: "+err.Error())
	}
	switch env.Kind {
	case "text":
		return TextPart{Text: env.Text}, nil
	case "file":
		if env.File == nil {
			return nil, model.NewValidationError("part", "file part missing file payload")
		}
		if env.File.URI != "" {
			return FilePart{File: FileWithURI{
				URI: env.File.URI, MimeType: env.File.MimeType, Name: env.File.Name,
			}}, nil
		}
		if env.File.Bytes != "" {
			raw, err := base64.StdEncoding.DecodeString(env.File.Bytes)
			if err != nil {
				return nil, model.NewValidationError("part", "file bytes are not valid base64")
			}
			return FilePart{File: FileWithBytes{
				Bytes: raw, MimeType: env.File.MimeType, Name: env.File.Name,
			}}, nil
		}
		return nil, model.NewValidationError("part", "file part has neither uri nor bytes")
	default:
		return nil, model.NewValidationError("part", "unknown part kind "+env.Kind)
	}
}

// Message is one protocol message: an ordered list of parts with a role.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
}

// NewUserMessage builds a user-role message with a fresh id.
func NewUserMessage(parts ...Part) *Message {
	return &Message{MessageID: uuid.NewString(), Role: "user", Parts: parts}
}

// NewAgentMessage builds an agent-role message with a fresh id.
func NewAgentMessage(parts ...Part) *Message {
	return &Message{MessageID: uuid.NewString(), Role: "agent", Parts: parts}
}

// Text returns the concatenated text of all text parts.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			out += t.Text
		}
	}
	return out
}

func (m *Message) MarshalJSON() ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(m.Parts))
	for _, p := range m.Parts {
		raw, err := MarshalPart(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raw)
	}
	return json.Marshal(struct {
		MessageID string            `json:"messageId"`
		Role      string            `json:"role"`
		Parts     []json.RawMessage `json:"parts"`
	}{m.MessageID, m.Role, parts})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		MessageID string            `json:"messageId"`
		Role      string            `json:"role"`
		Parts     []json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.MessageID = wire.MessageID
	m.Role = wire.Role
	m.Parts = m.Parts[:0]
	for _, raw := range wire.Parts {
		p, err := UnmarshalPart(raw)
		if err != nil {
			return err
		}
		m.Parts = append(m.Parts, p)
	}
	return nil
}

// Artifact is a terminal output of a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

func (a *Artifact) MarshalJSON() ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(a.Parts))
	for _, p := range a.Parts {
		raw, err := MarshalPart(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raw)
	}
	return json.Marshal(struct {
		ArtifactID string            `json:"artifactId"`
		Name       string            `json:"name,omitempty"`
		Parts      []json.RawMessage `json:"parts"`
	}{a.ArtifactID, a.Name, parts})
}

// TaskStatus is the state of a task at a point in time, with an optional
// human-readable message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskEvent is one entry in a task's ordered update stream.
type TaskEvent struct {
	Kind      string      `json:"kind"` // "status-update" or "artifact-update"
	TaskID    string      `json:"taskId"`
	ContextID string      `json:"contextId"`
	Status    *TaskStatus `json:"status,omitempty"`
	Artifact  *Artifact   `json:"artifact,omitempty"`
	// Final marks the last event of the stream.
	Final bool `json:"final"`
}

// RequestContext carries one inbound task-execution request.
type RequestContext struct {
	TaskID              string
	ContextID           string
	Message             *Message
	RequestedExtensions []string
	// HasCurrentTask is set when the task already exists on the server side
	// (a follow-up message rather than a fresh task).
	HasCurrentTask bool
}

// WantsExtension reports whether the caller activated the given extension URI.
func (rc *RequestContext) WantsExtension(uri string) bool {
	for _, e := range rc.RequestedExtensions {
		if e == uri {
			return true
		}
	}
	return false
}
