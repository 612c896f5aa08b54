// Package runtime defines the agent-runtime dependency of the protocol
// bridge: a native content model, a pull-based event stream, and session
// bookkeeping. The bridge consumes runtimes; it never owns them.
package runtime

import "context"

// Part is one piece of native content. The variant set is closed:
// Text, FileData, and InlineData are the only implementations.
type Part interface {
	runtimePart()
}

// Text is plain text content.
type Text struct {
	Text string
}

// FileData references a file by URI.
type FileData struct {
	URI      string
	MimeType string
}

// InlineData carries raw bytes.
type InlineData struct {
	Bytes    []byte
	MimeType string
}

func (Text) runtimePart()       {}
func (FileData) runtimePart()   {}
func (InlineData) runtimePart() {}

// Content is a role-attributed list of parts.
type Content struct {
	Role  string
	Parts []Part
}

// NewUserText builds single-part user content.
func NewUserText(text string) Content {
	return Content{Role: "user", Parts: []Part{Text{Text: text}}}
}

// NewModelText builds single-part model content.
func NewModelText(text string) Content {
	return Content{Role: "model", Parts: []Part{Text{Text: text}}}
}

// Text returns the concatenated text parts of the content.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if t, ok := p.(Text); ok {
			out += t.Text
		}
	}
	return out
}

// Usage is the token accounting for one model turn.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Event is one observation from a running agent turn. The variant set is
// closed: IntermediateText, DelegatedCall, and FinalResponse are the only
// implementations. Exactly one FinalResponse ends every successful turn.
type Event interface {
	runtimeEvent()
}

// IntermediateText is partial model output (a streamed delta or a
// progress note).
type IntermediateText struct {
	Text string
}

// DelegatedCall records the agent handing work to a named sub-agent or tool.
type DelegatedCall struct {
	Target string
	Input  string
}

// FinalResponse is the turn's terminal event.
type FinalResponse struct {
	Content Content
	Usage   *Usage
}

func (IntermediateText) runtimeEvent() {}
func (DelegatedCall) runtimeEvent()    {}
func (FinalResponse) runtimeEvent()    {}

// Stream yields the events of one agent turn in order. Next blocks until
// an event is available and returns io.EOF after the FinalResponse has
// been consumed. Streams are single-consumer.
type Stream interface {
	Next(ctx context.Context) (Event, error)
}

// Runtime executes agent turns against a session.
type Runtime interface {
	Name() string
	Run(ctx context.Context, session *Session, content Content) (Stream, error)
}
