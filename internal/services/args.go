package services

import "github.com/adjutant-ai/adjutant/internal/capability"

// Argument readers tolerant of the loose types the adapter hands over.

func stringArg(args capability.Args, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args capability.Args, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func boolArg(args capability.Args, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func mapArg(args capability.Args, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func stringListArg(args capability.Args, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
