package services

import (
	"context"
	"strings"
	"sync"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// DriveFile is one stored document.
type DriveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Drive is an in-process document-search collaborator.
type Drive struct {
	mu    sync.RWMutex
	files []DriveFile
}

func NewDrive(files ...DriveFile) *Drive {
	return &Drive{files: files}
}

func (d *Drive) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "search_files",
			Params: []capability.ParamSpec{
				{Name: "query", Type: capability.TypeString, Required: true},
				{Name: "max_results", Type: capability.TypeInt, HasDefault: true, Default: 10},
			},
			Invoke: d.searchFiles,
		},
	}
}

func (d *Drive) searchFiles(_ context.Context, args capability.Args) (any, error) {
	query := strings.ToLower(stringArg(args, "query"))
	max := intArg(args, "max_results", 10)

	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []DriveFile
	for _, f := range d.files {
		if query == "" || strings.Contains(strings.ToLower(f.Name), query) {
			out = append(out, f)
			if max > 0 && len(out) == max {
				break
			}
		}
	}
	return out, nil
}
