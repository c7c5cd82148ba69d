// Package adapter reconciles a capability's declared call contract with
// loosely structured input: free text or a partially keyed map. It never
// fails for a well-formed descriptor; unresolvable required parameters
// are bound to type-appropriate zero values so a committed invocation can
// proceed and fail downstream with a clear error instead of blocking the
// whole turn.
package adapter

import (
	"context"
	"log"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// RawInput is either a single free-text string or a loosely keyed map.
type RawInput struct {
	text  string
	keyed map[string]any
	isMap bool
}

// Text wraps a free-text input.
func Text(s string) RawInput { return RawInput{text: s} }

// Keyed wraps a loosely keyed map input.
func Keyed(m map[string]any) RawInput { return RawInput{keyed: m, isMap: true} }

// IsText reports whether the input is free text.
func (r RawInput) IsText() bool { return !r.isMap }

// Text returns the free-text form, or "" for keyed input.
func (r RawInput) Text() string { return r.text }

// Parameter names that suggest the parameter carries the whole payload.
var payloadRoles = map[string]bool{
	"args":          true,
	"data":          true,
	"body":          true,
	"payload":       true,
	"event_details": true,
}

// Extractor converts free text into structured arguments for a
// descriptor. Implementations must respect ctx deadlines.
type Extractor interface {
	Extract(ctx context.Context, desc *capability.Descriptor, raw string) (map[string]any, error)
}

// Adapter binds raw input to a descriptor's parameter list.
type Adapter struct {
	extractor Extractor // nil disables extraction; deterministic rules only
}

// New creates an adapter. extractor may be nil.
func New(extractor Extractor) *Adapter {
	return &Adapter{extractor: extractor}
}

// Adapt produces a fully bound argument set for desc. It never returns an
// error: every failure mode degrades to a deterministic binding.
func (a *Adapter) Adapt(ctx context.Context, desc *capability.Descriptor, raw RawInput) capability.Args {
	if len(desc.Params) == 0 {
		return capability.Args{}
	}

	// Free text aimed at a structured contract goes through the
	// extraction collaborator first. Failure of any kind falls back to
	// {query: raw} as the keyed input and the rules below take over.
	if raw.IsText() && a.needsExtraction(desc) {
		extracted, err := a.extractor.Extract(ctx, desc, raw.text)
		if err != nil {
			log.Printf("adapter: extraction for %q failed (%v), falling back to query binding", desc.Name, err)
			extracted = map[string]any{"query": raw.text}
		}
		raw = Keyed(extracted)
	}

	if len(desc.Params) == 1 {
		return a.bindSingle(desc, raw)
	}
	return a.bindMany(desc, raw)
}

// needsExtraction reports whether free text cannot be bound directly: the
// descriptor either declares several discrete parameters or a single
// keyed-payload parameter.
func (a *Adapter) needsExtraction(desc *capability.Descriptor) bool {
	if a.extractor == nil {
		return false
	}
	if len(desc.Params) > 1 {
		return true
	}
	return desc.Params[0].Type.IsMapType()
}

func (a *Adapter) bindSingle(desc *capability.Descriptor, raw RawInput) capability.Args {
	p := desc.Params[0]

	if p.Type.IsMapType() {
		if raw.isMap {
			return capability.Args{p.Name: raw.keyed}
		}
		return capability.Args{p.Name: map[string]any{"query": raw.text}}
	}

	if payloadRoles[p.Name] {
		if raw.isMap {
			return capability.Args{p.Name: raw.keyed}
		}
		return capability.Args{p.Name: raw.text}
	}

	if raw.isMap {
		if v, ok := raw.keyed[p.Name]; ok {
			return capability.Args{p.Name: coerce(p.Type, v)}
		}
		return capability.Args{p.Name: raw.keyed}
	}
	return capability.Args{p.Name: raw.text}
}

func (a *Adapter) bindMany(desc *capability.Descriptor, raw RawInput) capability.Args {
	args := make(capability.Args, len(desc.Params))

	var keyed map[string]any
	if raw.isMap {
		keyed = raw.keyed
	} else {
		// Free text against several parameters with extraction
		// unavailable: bind the text to the first parameter, the
		// Python-era behavior callers still rely on.
		keyed = map[string]any{desc.Params[0].Name: raw.text}
	}

	bound := make(map[string]bool, len(keyed))
	for _, p := range desc.Params {
		if v, ok := keyed[p.Name]; ok {
			args[p.Name] = coerce(p.Type, v)
			bound[p.Name] = true
			continue
		}
		if p.HasDefault {
			args[p.Name] = p.Default
			continue
		}
		args[p.Name] = capability.ZeroValue(p.Type)
	}

	for k := range keyed {
		if !bound[k] {
			if _, declared := desc.Param(k); !declared {
				log.Printf("adapter: dropping unrecognized argument %q for capability %q", k, desc.Name)
			}
		}
	}

	return args
}

// coerce nudges extraction output toward the declared type. JSON numbers
// arrive as float64; everything else passes through untouched so a
// mismatched value surfaces in the capability's own error.
func coerce(t capability.ParamType, v any) any {
	switch t {
	case capability.TypeInt:
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	case capability.TypeStringList:
		if items, ok := v.([]any); ok {
			out := make([]string, 0, len(items))
			for _, it := range items {
				if s, ok := it.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	case capability.TypeStringMap:
		if m, ok := v.(map[string]any); ok {
			out := make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					out[k] = s
				}
			}
			return out
		}
	}
	return v
}
