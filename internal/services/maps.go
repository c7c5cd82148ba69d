package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// Place is one known location.
type Place struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Area     string `json:"area"`
	Distance string `json:"distance"`
}

// Maps is an in-process mapping collaborator over a seeded place list.
type Maps struct {
	places []Place
}

func NewMaps(places ...Place) *Maps {
	return &Maps{places: places}
}

func (m *Maps) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "get_directions",
			Params: []capability.ParamSpec{
				{Name: "origin", Type: capability.TypeString, Required: true},
				{Name: "destination", Type: capability.TypeString, Required: true},
				{Name: "mode", Type: capability.TypeString, HasDefault: true, Default: "driving"},
			},
			Invoke: m.getDirections,
		},
		{
			Name: "find_nearby",
			Params: []capability.ParamSpec{
				{Name: "query", Type: capability.TypeString, Required: true},
				{Name: "location", Type: capability.TypeString, HasDefault: true, Default: ""},
			},
			Invoke: m.findNearby,
		},
	}
}

func (m *Maps) getDirections(_ context.Context, args capability.Args) (any, error) {
	origin := stringArg(args, "origin")
	destination := stringArg(args, "destination")
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}
	mode := stringArg(args, "mode")
	if mode == "" {
		mode = "driving"
	}
	return map[string]any{
		"origin":      origin,
		"destination": destination,
		"mode":        mode,
		"summary":     fmt.Sprintf("%s from %s to %s", mode, origin, destination),
	}, nil
}

func (m *Maps) findNearby(_ context.Context, args capability.Args) (any, error) {
	query := strings.ToLower(stringArg(args, "query"))
	area := strings.ToLower(stringArg(args, "location"))

	var out []Place
	for _, p := range m.places {
		if query != "" && !strings.Contains(strings.ToLower(p.Kind), query) && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if area != "" && !strings.Contains(strings.ToLower(p.Area), area) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
