package capability

// SelfDescriber is a collaborator that carries its own descriptor prose,
// used by script-defined capabilities that declare their metadata inline.
type SelfDescriber interface {
	Collaborator
	Describe(method string) (MetaEntry, bool)
}

// SelfDiscovery builds descriptors from collaborators that describe
// themselves. Collaborators without the interface are skipped.
type SelfDiscovery struct{}

func NewSelfDiscovery() *SelfDiscovery { return &SelfDiscovery{} }

func (s *SelfDiscovery) Discover(service string, c Collaborator) []Descriptor {
	sd, ok := c.(SelfDescriber)
	if !ok {
		return nil
	}
	var out []Descriptor
	for _, method := range c.Methods() {
		entry, ok := sd.Describe(method.Name)
		if !ok {
			continue
		}
		name := entry.Name
		if name == "" {
			name = method.Name
		}
		out = append(out, Descriptor{
			Name:        name,
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
