package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/provider"
)

const (
	// DefaultExtractTimeout bounds one structured-extraction call.
	DefaultExtractTimeout = 10 * time.Second

	maxPromptExamples = 3
)

// LLMExtractor asks the language-model collaborator to convert free text
// into the structured arguments a descriptor expects.
type LLMExtractor struct {
	llm     provider.Provider
	timeout time.Duration
	now     func() time.Time
}

// NewLLMExtractor creates an extractor. A zero timeout uses the default.
func NewLLMExtractor(llm provider.Provider, timeout time.Duration) *LLMExtractor {
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &LLMExtractor{llm: llm, timeout: timeout, now: time.Now}
}

// Extract sends the extraction prompt with a bounded timeout and parses
// the returned JSON object. Any failure is returned to the adapter, which
// owns the fallback.
func (e *LLMExtractor) Extract(ctx context.Context, desc *capability.Descriptor, raw string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.llm.Complete(ctx, &provider.CompletionRequest{
		Messages: []provider.Message{
			{
				Role:    provider.RoleSystem,
				Content: "You convert natural language to structured tool arguments. Always respond with valid JSON only.",
			},
			{Role: provider.RoleUser, Content: e.buildPrompt(desc, raw)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	content := stripCodeFence(resp.Content)
	if content == "" {
		return nil, fmt.Errorf("empty extraction response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("extraction returned invalid JSON: %w", err)
	}

	// Required parameters the model omitted get zero values so the
	// binding step never has to fail.
	for _, p := range desc.Params {
		if p.Required {
			if _, ok := parsed[p.Name]; !ok {
				parsed[p.Name] = capability.ZeroValue(p.Type)
			}
		}
	}
	return parsed, nil
}

func (e *LLMExtractor) buildPrompt(desc *capability.Descriptor, raw string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Convert this natural language input into structured arguments for the %s tool.\n\n", desc.Name)
	fmt.Fprintf(&sb, "Tool: %s\nExpected parameters:\n", desc.Name)
	for _, p := range desc.Params {
		fmt.Fprintf(&sb, "- %s (%s)", p.Name, p.Type)
		if !p.Required {
			fmt.Fprintf(&sb, " (optional, default: %v)", p.Default)
		}
		switch p.Type {
		case capability.TypeJSON, capability.TypeStringMap:
			sb.WriteString(" - should be a JSON object")
		case capability.TypeStringList:
			sb.WriteString(" - should be a JSON array")
		}
		sb.WriteString("\n")
	}

	if desc.Guidance != "" {
		sb.WriteString("\n")
		sb.WriteString(desc.Guidance)
		sb.WriteString("\n")
	}

	if len(desc.Examples) > 0 {
		sb.WriteString("\nExample inputs for this tool:\n")
		for i, ex := range desc.Examples {
			if i == maxPromptExamples {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", ex)
		}
	}

	now := e.now().UTC()
	fmt.Fprintf(&sb, "\nCurrent date: %s (UTC). Resolve relative dates like \"tomorrow\" against it.\n", now.Format("2006-01-02"))

	fmt.Fprintf(&sb, "\nNatural language input: %q\n\n", raw)
	sb.WriteString("Respond ONLY with a valid JSON object containing the parameter values. No explanation or text outside the JSON.")
	return sb.String()
}

// stripCodeFence removes a ```json ... ``` wrapper if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
