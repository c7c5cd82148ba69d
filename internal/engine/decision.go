package engine

// Decision is the outcome of the thinking step: a direct message, a
// capability invocation, or a failure that ends the turn.
type Decision struct {
	kind       decisionKind
	text       string
	capability string
	rawArgs    string
	reason     string
}

type decisionKind int

const (
	decisionMessage decisionKind = iota
	decisionToolCall
	decisionFailed
)

// MessageDecision answers the user directly.
func MessageDecision(text string) Decision {
	return Decision{kind: decisionMessage, text: text}
}

// ToolCallDecision invokes a capability with raw (not yet bound) args.
func ToolCallDecision(capability, rawArgs string) Decision {
	return Decision{kind: decisionToolCall, capability: capability, rawArgs: rawArgs}
}

// FailedDecision ends the turn with an error.
func FailedDecision(reason string) Decision {
	return Decision{kind: decisionFailed, reason: reason}
}

func (d Decision) IsMessage() bool  { return d.kind == decisionMessage }
func (d Decision) IsToolCall() bool { return d.kind == decisionToolCall }
func (d Decision) IsFailed() bool   { return d.kind == decisionFailed }

func (d Decision) Text() string       { return d.text }
func (d Decision) Capability() string { return d.capability }
func (d Decision) RawArgs() string    { return d.rawArgs }
func (d Decision) Reason() string     { return d.reason }
