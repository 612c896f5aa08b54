package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dunglas/httpsfv"
)

// ParseAgentClientHeader extracts the agent name from an Agent-Client
// header. Format: name="tetsy-agent" (RFC 8941 Dictionary).
//
// Examples:
//   - name="tetsy-agent"             → tetsy-agent
//   - name="host-agent";version=2    → host-agent (params ignored)
//
// Returns error if header is empty, malformed, or missing the name key.
func ParseAgentClientHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("empty Agent-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return "", fmt.Errorf("invalid Agent-Client header: %w", err)
	}

	member, ok := dict.Get("name")
	if !ok {
		return "", errors.New("name key not found in Agent-Client header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", errors.New("name value must be an item")
	}

	name, ok := item.Value.(string)
	if !ok {
		return "", errors.New("name value must be a string")
	}

	return name, nil
}

// AgentClient returns middleware that records the calling agent's
// self-reported identity from the Agent-Client header. The header is
// optional; a malformed one is ignored rather than rejected so browsers
// and plain HTTP clients keep working.
func AgentClient() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Agent-Client"); header != "" {
				if name, err := ParseAgentClientHeader(header); err == nil {
					ctx := context.WithValue(r.Context(), agentNameKey, name)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AgentNameFrom returns the agent name stored by AgentClient, or "".
func AgentNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(agentNameKey).(string)
	return name
}
