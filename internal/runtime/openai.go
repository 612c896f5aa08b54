package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIRuntime runs agent turns against an OpenAI-compatible chat API,
// surfacing streamed deltas as IntermediateText and closing each turn with
// a FinalResponse carrying token usage.
type OpenAIRuntime struct {
	client       *openai.Client
	name         string
	model        string
	systemPrompt string
}

// NewOpenAIRuntime builds a runtime. baseURL may be empty for the default
// endpoint; systemPrompt may be empty to skip the system message.
func NewOpenAIRuntime(name, apiKey, baseURL, model, systemPrompt string) *OpenAIRuntime {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIRuntime{
		client:       openai.NewClientWithConfig(cfg),
		name:         name,
		model:        model,
		systemPrompt: systemPrompt,
	}
}

// Name implements Runtime.
func (r *OpenAIRuntime) Name() string { return r.name }

// Run implements Runtime. The user content is appended to the session
// history before the call; the model's final reply is appended when the
// stream completes.
func (r *OpenAIRuntime) Run(ctx context.Context, session *Session, content Content) (Stream, error) {
	session.Append(content)

	messages := make([]openai.ChatCompletionMessage, 0, len(session.History())+1)
	if r.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.systemPrompt,
		})
	}
	for _, c := range session.History() {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(c.Role),
			Content: c.Text(),
		})
	}

	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:         r.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("starting chat completion stream: %w", err)
	}
	return &openaiStream{inner: stream, session: session}, nil
}

func chatRole(role string) string {
	switch role {
	case "model", "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// openaiStream adapts the SDK's chunk stream to the Event contract.
type openaiStream struct {
	inner   *openai.ChatCompletionStream
	session *Session

	text  string
	usage *Usage
	done  bool
}

func (s *openaiStream) Next(ctx context.Context) (Event, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			s.close()
			return nil, err
		}
		chunk, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			return s.finish()
		}
		if err != nil {
			s.close()
			return nil, fmt.Errorf("reading chat completion stream: %w", err)
		}

		if chunk.Usage != nil {
			s.usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			s.text += delta
			return IntermediateText{Text: delta}, nil
		}
	}
}

func (s *openaiStream) finish() (Event, error) {
	s.close()
	reply := NewModelText(s.text)
	s.session.Append(reply)
	return FinalResponse{Content: reply, Usage: s.usage}, nil
}

func (s *openaiStream) close() {
	if !s.done {
		s.done = true
		s.inner.Close()
	}
}
