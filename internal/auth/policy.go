package auth

import (
	"context"
	"slices"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Policy answers admin questions for the engine. A project's admin
// administers it; Operators administer every project.
type Policy struct {
	Operators []string
}

// IsAdmin reports whether userID administers projectID. A missing project
// is ErrNotFound.
func (p Policy) IsAdmin(ctx context.Context, tx types.Tx, projectID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	project, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	return project.IsAdmin(userID) || slices.Contains(p.Operators, userID), nil
}
