package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/provider"
)

// toolCallMarker is the structured invocation prefix the decision prompt
// asks the model to emit.
const toolCallMarker = "TOOL_CALL"

// detector extracts a capability invocation from a model response. The
// first detector to report ok wins; later ones are not consulted.
type detector interface {
	Detect(ctx context.Context, response string) (name, rawArgs string, ok bool)
}

// markerDetector matches the explicit "TOOL_CALL <name> <args>" form.
// A colon after the marker is tolerated; models add one often enough.
type markerDetector struct {
	caps *capability.Store
}

func (d *markerDetector) Detect(_ context.Context, response string) (string, string, bool) {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, toolCallMarker) {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, toolCallMarker))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if rest == "" {
		return "", "", false
	}
	name, args := splitNameArgs(rest)
	if _, known := d.caps.Describe(name); !known {
		return "", "", false
	}
	return name, args, true
}

// prefixDetector matches a response that simply begins with a known
// capability name.
type prefixDetector struct {
	caps *capability.Store
}

func (d *prefixDetector) Detect(_ context.Context, response string) (string, string, bool) {
	trimmed := strings.TrimSpace(response)
	name, args := splitNameArgs(trimmed)
	if name == "" {
		return "", "", false
	}
	if _, known := d.caps.Describe(name); !known {
		return "", "", false
	}
	return name, args, true
}

// secondaryDetector asks the model a second, narrower question: should a
// capability be invoked given this free-form answer. It is the last
// resort and any failure means "no".
type secondaryDetector struct {
	llm  provider.Provider
	caps *capability.Store
}

func (d *secondaryDetector) Detect(ctx context.Context, response string) (string, string, bool) {
	names := make([]string, 0)
	for _, desc := range d.caps.List() {
		names = append(names, desc.Name)
	}
	prompt := fmt.Sprintf(
		"An assistant produced this answer:\n\n%s\n\nAvailable tools: %s\n\nShould a tool be invoked to fulfill it? Respond with %s <tool> <args> if so, or NONE if not.",
		response, strings.Join(names, ", "), toolCallMarker)

	resp, err := d.llm.Complete(ctx, &provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", "", false
	}
	marker := &markerDetector{caps: d.caps}
	return marker.Detect(ctx, resp.Content)
}

func splitNameArgs(s string) (string, string) {
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
