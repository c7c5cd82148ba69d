package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// Sheets is an in-process spreadsheet collaborator holding named sheets
// of string rows.
type Sheets struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

func NewSheets() *Sheets {
	return &Sheets{sheets: make(map[string][][]string)}
}

// Seed replaces the rows of a sheet.
func (s *Sheets) Seed(name string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[name] = rows
}

func (s *Sheets) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "get_sheet_data",
			Params: []capability.ParamSpec{
				{Name: "sheet", Type: capability.TypeString, Required: true},
			},
			Invoke: s.getSheetData,
		},
		{
			Name: "append_row",
			Params: []capability.ParamSpec{
				{Name: "sheet", Type: capability.TypeString, Required: true},
				{Name: "values", Type: capability.TypeStringList, Required: true},
			},
			Invoke: s.appendRow,
		},
	}
}

func (s *Sheets) getSheetData(_ context.Context, args capability.Args) (any, error) {
	name := stringArg(args, "sheet")
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	out := make([][]string, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Sheets) appendRow(_ context.Context, args capability.Args) (any, error) {
	name := stringArg(args, "sheet")
	if name == "" {
		return nil, fmt.Errorf("sheet is required")
	}
	values := stringListArg(args, "values")
	if len(values) == 0 {
		return nil, fmt.Errorf("values are required")
	}
	s.mu.Lock()
	s.sheets[name] = append(s.sheets[name], values)
	rowCount := len(s.sheets[name])
	s.mu.Unlock()
	return map[string]any{"status": "appended", "sheet": name, "rows": rowCount}, nil
}
