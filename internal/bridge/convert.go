// Package bridge adapts the agent-to-agent protocol to the native agent
// runtime: part conversion, task lifecycle management, and the HTTP
// surface of the agent host.
package bridge

import (
	"fmt"

	"tetsy-hub/internal/a2a"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/runtime"
)

// ToRuntimePart converts a protocol part to the runtime's native form.
// Conversion is lossless; an unrecognized shape is a ValidationError.
func ToRuntimePart(p a2a.Part) (runtime.Part, error) {
	switch v := p.(type) {
	case a2a.TextPart:
		return runtime.Text{Text: v.Text}, nil
	case a2a.FilePart:
		switch f := v.File.(type) {
		case a2a.FileWithURI:
			return runtime.FileData{URI: f.URI, MimeType: f.MimeType}, nil
		case a2a.FileWithBytes:
			return runtime.InlineData{Bytes: f.Bytes, MimeType: f.MimeType}, nil
		default:
			return nil, model.NewValidationError("part", "file part has no content")
		}
	default:
		return nil, model.NewValidationError("part", fmt.Sprintf("unsupported part type %T", p))
	}
}

// FromRuntimePart converts a native runtime part to its protocol form.
func FromRuntimePart(p runtime.Part) (a2a.Part, error) {
	switch v := p.(type) {
	case runtime.Text:
		return a2a.TextPart{Text: v.Text}, nil
	case runtime.FileData:
		return a2a.FilePart{File: a2a.FileWithURI{URI: v.URI, MimeType: v.MimeType}}, nil
	case runtime.InlineData:
		return a2a.FilePart{File: a2a.FileWithBytes{Bytes: v.Bytes, MimeType: v.MimeType}}, nil
	default:
		return nil, model.NewValidationError("part", fmt.Sprintf("unsupported runtime part type %T", p))
	}
}

// ToRuntimeContent converts a protocol message into user-role content.
func ToRuntimeContent(m *a2a.Message) (runtime.Content, error) {
	parts := make([]runtime.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		rp, err := ToRuntimePart(p)
		if err != nil {
			return runtime.Content{}, err
		}
		parts = append(parts, rp)
	}
	return runtime.Content{Role: "user", Parts: parts}, nil
}

// FromRuntimeContent converts runtime content into protocol parts,
// dropping empty text parts the way empty model chunks are dropped.
func FromRuntimeContent(c runtime.Content) ([]a2a.Part, error) {
	parts := make([]a2a.Part, 0, len(c.Parts))
	for _, p := range c.Parts {
		if t, ok := p.(runtime.Text); ok && t.Text == "" {
			continue
		}
		ap, err := FromRuntimePart(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, ap)
	}
	return parts, nil
}
