package engine

import (
	"fmt"
	"strings"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// User-facing fixed strings. The timeout apology and the fatal apology
// are deliberately different so logs and transcripts distinguish a slow
// collaborator from a broken one.
const (
	timeoutApology = "Sorry, that took longer than expected. Please try again."
	fatalApology   = "Sorry, something went wrong on my end and I couldn't finish that. Please try again."
)

// confirmation is emitted on entering the tool-call state so the user
// sees intent before the (possibly slow) invocation.
func confirmation(desc *capability.Descriptor) string {
	switch desc.Category {
	case "calendar":
		return "Let me check your calendar..."
	case "communication":
		return "Working on that message..."
	case "productivity":
		return "Updating your tasks..."
	case "storage":
		return "Searching your files..."
	case "data":
		return "Looking at your spreadsheet..."
	case "location":
		return "Checking the map..."
	}
	return fmt.Sprintf("Running %s...", humanize(desc.Name))
}

// fallbackSummary is the deterministic report used when the model echoes
// the raw result or the summarize call times out.
func fallbackSummary(desc *capability.Descriptor) string {
	switch desc.Category {
	case "calendar":
		return "Done. Your calendar has been updated as requested."
	case "communication":
		return "Done. Your message has been handled."
	case "productivity":
		return "Done. Your task list has been updated."
	case "storage":
		return "The file search finished. Ask me for details if you need them."
	case "data":
		return "The spreadsheet operation finished."
	case "location":
		return "I found the location information you asked for."
	}
	return fmt.Sprintf("%s finished successfully.", humanize(desc.Name))
}

// summaryGuidance is the capability-specific formatting instruction for
// the summarize prompt.
func summaryGuidance(desc *capability.Descriptor) string {
	switch desc.Category {
	case "calendar":
		return "Mention each event's title and time. If a link is present, include it. If the list is empty, say there are no events in the requested window."
	case "communication":
		return "Confirm who the message involves and its subject."
	case "productivity":
		return "List task titles and due dates if present."
	case "storage":
		return "Mention file names and kinds."
	case "data":
		return "Summarize the rows briefly; do not reproduce the whole table."
	case "location":
		return "Mention each place's name, and its address, distance or rating when present."
	}
	return "Keep it to one or two sentences."
}

func humanize(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
