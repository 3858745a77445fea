package graph

import (
	"fmt"

	"building-converter/internal/converter/models"
)

// ============================================================
// Hierarchy Builder
// ============================================================

// BuildHierarchy links every scoped command to its parents using only the
// keyword nesting depth and document order. Commands outside the envelope and
// mechanical scopes are left untouched. No state survives between calls.
func BuildHierarchy(commands []*models.Command) error {
	var (
		stack     []*models.Command
		previous  *models.Command
		prevScope models.Scope
		prevDepth int
	)

	for i, cmd := range commands {
		if cmd == nil {
			return fmt.Errorf("build hierarchy: command %d is nil", i)
		}

		scope, depth := models.ScopeOf(cmd.Keyword)
		if scope == models.ScopeNone {
			continue
		}

		switch {
		case previous == nil || scope != prevScope || depth == 0:
			stack = stack[:0]
		case depth > prevDepth:
			stack = append(stack, previous)
		case depth < prevDepth:
			for n := prevDepth - depth; n > 0 && len(stack) > 0; n-- {
				stack = stack[:len(stack)-1]
			}
		}

		if len(stack) > 0 {
			cmd.Parents = append([]*models.Command(nil), stack...)
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, cmd)
		}

		previous, prevScope, prevDepth = cmd, scope, depth
	}

	return nil
}

// Depth returns the scope depth of a command, -1 for unscoped keywords.
func Depth(cmd *models.Command) int {
	_, d := models.ScopeOf(cmd.Keyword)
	return d
}
