package conflict

import (
	"fmt"
)

// ParseRequest decodes the loosely keyed argument shape a resolution
// capability receives:
//
//	{event_details: {start, end, ...}, conflicting_events: [{id, start, end}, ...], action: "skip"|"replace"|"delete"}
//
// event_details is carried through as the commit payload.
func ParseRequest(args map[string]any) (*Request, error) {
	details, ok := args["event_details"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("event_details must be an object, got %T", args["event_details"])
	}
	proposed, err := intervalFromMap(details)
	if err != nil {
		return nil, fmt.Errorf("event_details: %w", err)
	}

	action, _ := args["action"].(string)
	policy, err := ParsePolicy(action)
	if err != nil {
		return nil, err
	}

	var conflicts []Committed
	if raw, ok := args["conflicting_events"]; ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("conflicting_events must be a list, got %T", raw)
		}
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("conflicting_events[%d] must be an object, got %T", i, item)
			}
			iv, err := intervalFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("conflicting_events[%d]: %w", i, err)
			}
			id, _ := m["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("conflicting_events[%d]: missing id", i)
			}
			conflicts = append(conflicts, Committed{Interval: iv, ID: id})
		}
	}

	return &Request{Proposed: proposed, Payload: details, Conflicts: conflicts, Policy: policy}, nil
}

func intervalFromMap(m map[string]any) (Interval, error) {
	start, _ := m["start"].(string)
	end, _ := m["end"].(string)
	if start == "" || end == "" {
		return Interval{}, fmt.Errorf("missing start or end")
	}
	return ParseInterval(start, end)
}
