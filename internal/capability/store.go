package capability

import (
	"context"
	"fmt"
	"sync"
)

// Strategy is a pluggable discovery policy run over a collaborator.
type Strategy interface {
	Discover(service string, c Collaborator) []Descriptor
}

type registeredService struct {
	name   string
	collab Collaborator
}

// Store holds every discovered capability descriptor. Registration and
// discovery happen once at startup; the store is read-only afterwards,
// so Execute and the lookup methods take no lock.
type Store struct {
	mu         sync.Mutex
	services   []registeredService
	strategies []Strategy

	descriptors []*Descriptor
	byName      map[string]*Descriptor
	discovered  bool
}

// NewStore creates a store with discovery strategies that will run in the
// given order during DiscoverAll.
func NewStore(strategies ...Strategy) *Store {
	return &Store{
		strategies: strategies,
		byName:     make(map[string]*Descriptor),
	}
}

// Register adds a collaborator for later discovery. Must be called before
// DiscoverAll.
func (s *Store) Register(service string, c Collaborator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discovered {
		return fmt.Errorf("register %q: store already discovered", service)
	}
	for _, rs := range s.services {
		if rs.name == service {
			return fmt.Errorf("collaborator %q already registered", service)
		}
	}
	s.services = append(s.services, registeredService{name: service, collab: c})
	return nil
}

// DiscoverAll runs every strategy over every collaborator, in registration
// order, appending results. A duplicate public name is a configuration
// error, not a silent overwrite. The same underlying method surfacing
// under two different names is legal and left to Validate to flag.
func (s *Store) DiscoverAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discovered {
		return fmt.Errorf("discovery already ran")
	}

	for _, rs := range s.services {
		for _, strat := range s.strategies {
			for _, d := range strat.Discover(rs.name, rs.collab) {
				d := d
				if existing, ok := s.byName[d.Name]; ok {
					return fmt.Errorf("duplicate capability name %q (from %s.%s and %s.%s)",
						d.Name, existing.Service, existing.MethodName, d.Service, d.MethodName)
				}
				s.descriptors = append(s.descriptors, &d)
				s.byName[d.Name] = &d
			}
		}
	}
	s.discovered = true
	return nil
}

// Describe returns the descriptor for a public capability name.
func (s *Store) Describe(name string) (*Descriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// List returns all descriptors in discovery order.
func (s *Store) List() []*Descriptor {
	out := make([]*Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// ByCategory returns descriptors with the given category tag.
func (s *Store) ByCategory(tag string) []*Descriptor {
	var out []*Descriptor
	for _, d := range s.descriptors {
		if d.Category == tag {
			out = append(out, d)
		}
	}
	return out
}

// Execute invokes a capability by public name with already-bound arguments.
func (s *Store) Execute(ctx context.Context, name string, args Args) (any, error) {
	d, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("capability %q not found", name)
	}
	return d.Invoke(ctx, args)
}
