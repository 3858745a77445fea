package library

import (
	"context"
	"fmt"

	"building-converter/internal/converter/models"
	"building-converter/internal/converter/parser"
)

// Static is an in-memory library built from MATERIAL and LAYERS commands.
type Static struct {
	materials map[string]*models.Command
	layers    map[string]*models.Command
}

// NewStatic indexes commands by identifier. Other keywords are ignored and a
// later definition replaces an earlier one.
func NewStatic(cmds []*models.Command) *Static {
	s := &Static{
		materials: make(map[string]*models.Command),
		layers:    make(map[string]*models.Command),
	}
	for _, c := range cmds {
		switch c.Keyword {
		case "MATERIAL":
			s.materials[c.Identifier] = c
		case "LAYERS":
			s.layers[c.Identifier] = c
		}
	}
	return s
}

// LoadFile reads a library written in the document syntax itself.
func LoadFile(path string) (*Static, error) {
	cmds, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	return NewStatic(cmds), nil
}

func (s *Static) Material(_ context.Context, name string) (*models.Command, bool, error) {
	m, ok := s.materials[name]
	return m, ok, nil
}

func (s *Static) Layer(_ context.Context, name string) (*models.Command, bool, error) {
	l, ok := s.layers[name]
	return l, ok, nil
}

// Len returns the number of materials and layers.
func (s *Static) Len() int {
	return len(s.materials) + len(s.layers)
}
