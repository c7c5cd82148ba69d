package capability

import (
	"fmt"
	"strings"
)

// Validate runs the post-discovery checks: the same underlying method
// surfacing under several public names, capabilities with empty
// descriptions, and capabilities whose synthesized placeholder invocation
// cannot bind. Problems are reported, never auto-fixed, so
// misconfigurations show up at startup instead of mid-conversation.
func (s *Store) Validate() []string {
	var issues []string

	// Same (service, method) discovered under more than one public name.
	seen := make(map[string][]string)
	for _, d := range s.descriptors {
		key := d.Service + "." + d.MethodName
		seen[key] = append(seen[key], d.Name)
	}
	for key, names := range seen {
		if len(names) > 1 {
			issues = append(issues, fmt.Sprintf(
				"method %s discovered under multiple names: %s", key, strings.Join(names, ", ")))
		}
	}

	for _, d := range s.descriptors {
		if strings.TrimSpace(d.Description) == "" {
			issues = append(issues, fmt.Sprintf("capability %q has no description", d.Name))
		}
		if err := checkPlaceholderBinding(d); err != nil {
			issues = append(issues, fmt.Sprintf("capability %q placeholder invocation: %v", d.Name, err))
		}
	}

	return issues
}

// checkPlaceholderBinding synthesizes a placeholder value for every
// parameter and verifies the descriptor could be invoked with them. It
// deliberately stops short of calling the collaborator: a live probe of
// e.g. send_email at startup would mutate external state.
func checkPlaceholderBinding(d *Descriptor) error {
	if d.invoke == nil {
		return fmt.Errorf("no bound method")
	}

	names := make(map[string]bool, len(d.Params))
	args := make(Args, len(d.Params))
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		names[p.Name] = true
		args[p.Name] = placeholderValue(p.Type)
	}

	for _, p := range d.Params {
		if p.Required && args[p.Name] == nil {
			return fmt.Errorf("required parameter %q has no placeholder", p.Name)
		}
	}
	return nil
}

func placeholderValue(t ParamType) any {
	switch t {
	case TypeString:
		return "placeholder"
	case TypeInt:
		return 1
	case TypeBool:
		return true
	case TypeStringList:
		return []string{"placeholder"}
	case TypeStringMap:
		return map[string]string{"key": "placeholder"}
	case TypeJSON:
		return map[string]any{"key": "placeholder"}
	default:
		return nil
	}
}
