package capability

import (
	"context"
	"fmt"
)

// ParamType is the closed set of value kinds a capability parameter can
// declare. Keeping the set closed makes default synthesis in the argument
// adapter exhaustive.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeBool
	TypeStringList
	TypeStringMap
	TypeJSON
)

func (t ParamType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeStringList:
		return "list"
	case TypeStringMap:
		return "map"
	case TypeJSON:
		return "json"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// ParseParamType parses the type tags used in the metadata table.
func ParseParamType(s string) (ParamType, error) {
	switch s {
	case "string", "":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "bool":
		return TypeBool, nil
	case "list":
		return TypeStringList, nil
	case "map":
		return TypeStringMap, nil
	case "json":
		return TypeJSON, nil
	default:
		return TypeString, fmt.Errorf("unknown parameter type %q", s)
	}
}

// ZeroValue returns the type-appropriate zero value used when a required
// parameter cannot be resolved from input.
func ZeroValue(t ParamType) any {
	switch t {
	case TypeString:
		return ""
	case TypeInt:
		return 0
	case TypeBool:
		return false
	case TypeStringList:
		return []string{}
	case TypeStringMap:
		return map[string]string{}
	case TypeJSON:
		return map[string]any{}
	default:
		return nil
	}
}

// IsMapType reports whether values of this type carry a keyed payload.
func (t ParamType) IsMapType() bool {
	return t == TypeStringMap || t == TypeJSON
}

// Args is a fully bound keyword-argument set for one invocation.
type Args map[string]any

// ParamSpec describes one parameter of a capability's call contract.
type ParamSpec struct {
	Name       string
	Type       ParamType
	Required   bool
	HasDefault bool
	Default    any
}

// Method is one invocable operation a collaborator exports. Collaborators
// build these explicitly at registration time; there is no runtime
// reflection over arbitrary objects.
type Method struct {
	Name   string
	Params []ParamSpec
	Async  bool
	Invoke func(ctx context.Context, args Args) (any, error)
}

// Collaborator is any external service object that exports methods for
// discovery. The engine imposes no other shape requirements.
type Collaborator interface {
	Methods() []Method
}

// Descriptor is the identity of one invocable capability.
type Descriptor struct {
	Name        string // unique public name used by the engine and the model
	Service     string // owning collaborator
	MethodName  string
	Description string
	Category    string
	Params      []ParamSpec
	Async       bool
	Examples    []string
	Guidance    string // extraction guidance handed to the structured extractor

	invoke func(ctx context.Context, args Args) (any, error)
}

// Invoke calls the underlying collaborator method.
func (d *Descriptor) Invoke(ctx context.Context, args Args) (any, error) {
	if d.invoke == nil {
		return nil, fmt.Errorf("capability %q has no bound method", d.Name)
	}
	return d.invoke(ctx, args)
}

// Param returns the spec for a named parameter.
func (d *Descriptor) Param(name string) (ParamSpec, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}
