package capability

import "strings"

// MetadataDiscovery builds descriptors from a static table keyed by
// (service, method). The table supplies identity and prose; the method
// descriptor supplies the call contract.
type MetadataDiscovery struct {
	table Table
}

func NewMetadataDiscovery(table Table) *MetadataDiscovery {
	return &MetadataDiscovery{table: table}
}

func (m *MetadataDiscovery) Discover(service string, c Collaborator) []Descriptor {
	entries, ok := m.table[service]
	if !ok {
		return nil
	}

	methods := c.Methods()
	var out []Descriptor
	// Iterate methods (ordered) rather than the table map so discovery
	// order is deterministic.
	for _, method := range methods {
		entry, ok := entries[method.Name]
		if !ok {
			continue
		}
		out = append(out, Descriptor{
			Name:        entry.Name,
			Service:     service,
			MethodName:  method.Name,
			Description: entry.Description,
			Category:    entry.Category,
			Params:      method.Params,
			Async:       method.Async,
			Examples:    entry.Examples,
			Guidance:    entry.Guidance,
			invoke:      method.Invoke,
		})
	}
	return out
}

// Action-verb prefixes recognized by VerbDiscovery.
var verbPrefixes = []string{
	"get_", "create_", "add_", "update_", "delete_", "send_", "find_", "search_",
}

var verbCategories = map[string]string{
	"get_":    "retrieval",
	"create_": "creation",
	"add_":    "creation",
	"update_": "modification",
	"delete_": "deletion",
	"send_":   "communication",
	"find_":   "search",
	"search_": "search",
}

var serviceCategories = map[string]string{
	"calendar": "calendar",
	"mail":     "communication",
	"tasks":    "productivity",
	"drive":    "storage",
	"sheets":   "data",
	"maps":     "location",
}

// VerbDiscovery keeps every method whose name starts with a known action
// verb and synthesizes identity and prose from the name and parameters.
// Intended as development tooling; metadata discovery is the production
// registration path.
type VerbDiscovery struct{}

func NewVerbDiscovery() *VerbDiscovery { return &VerbDiscovery{} }

func (v *VerbDiscovery) Discover(service string, c Collaborator) []Descriptor {
	var out []Descriptor
	for _, method := range c.Methods() {
		prefix, ok := matchVerbPrefix(method.Name)
		if !ok {
			continue
		}
		out = append(out, Descriptor{
			Name:        method.Name,
			Service:     service,
			MethodName:  method.Name,
			Description: synthesizeDescription(method),
			Category:    categoryFor(service, prefix),
			Params:      method.Params,
			Async:       method.Async,
			invoke:      method.Invoke,
		})
	}
	return out
}

func matchVerbPrefix(name string) (string, bool) {
	for _, p := range verbPrefixes {
		if strings.HasPrefix(name, p) {
			return p, true
		}
	}
	return "", false
}

// categoryFor prefers the collaborator-based category over the verb-based one.
func categoryFor(service, prefix string) string {
	if cat, ok := serviceCategories[service]; ok {
		return cat
	}
	if cat, ok := verbCategories[prefix]; ok {
		return cat
	}
	return "general"
}

// synthesizeDescription turns get_upcoming_events(max_results) into
// "Get Upcoming Events with max_results".
func synthesizeDescription(m Method) string {
	words := strings.Split(m.Name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	desc := strings.Join(words, " ")

	if len(m.Params) == 0 {
		return desc
	}
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	if len(names) == 1 {
		return desc + " with " + names[0]
	}
	return desc + " with " + strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
