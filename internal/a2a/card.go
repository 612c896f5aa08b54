package a2a

import (
	"golang.org/x/mod/semver"

	"tetsy-hub/internal/model"
)

// ProtocolVersion is the protocol revision this host speaks.
const ProtocolVersion = "0.3.0"

// AgentSkill advertises one capability of an agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCapabilities declares protocol-level features the agent supports.
type AgentCapabilities struct {
	Streaming  bool     `json:"streaming"`
	Extensions []string `json:"extensions,omitempty"`
}

// AgentCard is the discovery descriptor served at /.well-known/agent-card.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	ProtocolVersion    string            `json:"protocolVersion"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []AgentSkill      `json:"skills"`
}

// Compatible reports whether a peer's protocol version can interoperate
// with ours: valid semver sharing our major version.
func Compatible(peerVersion string) bool {
	pv := normalizeVersion(peerVersion)
	if !semver.IsValid(pv) {
		return false
	}
	return semver.Major(pv) == semver.Major(normalizeVersion(ProtocolVersion))
}

// Validate checks the card for the fields peers rely on.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return model.NewValidationError("name", "required")
	}
	if c.URL == "" {
		return model.NewValidationError("url", "required")
	}
	if !semver.IsValid(normalizeVersion(c.ProtocolVersion)) {
		return model.NewValidationError("protocolVersion", "not a valid semantic version")
	}
	return nil
}

// normalizeVersion adds the "v" prefix semver parsing expects.
func normalizeVersion(v string) string {
	if v == "" {
		return "v0.0.0"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
