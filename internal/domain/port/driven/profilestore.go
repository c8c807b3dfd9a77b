package driven

import (
	"context"
	"errors"

	"github.com/dmcnab/toolreviews/internal/domain/model"
)

// ErrProfileNotFound is returned when no cached profile exists for a user.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore defines the driven port for the locally cached user display
// profiles synced from the auth collaborator. Comments reference authors by
// id only; listings assemble author display data through this store as a
// separate lookup, never as a joined row shape.
type ProfileStore interface {
	Upsert(ctx context.Context, profile model.Profile) error
	GetByID(ctx context.Context, userID string) (*model.Profile, error)

	// GetByIDs returns the profiles that exist for the given user ids.
	// Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, userIDs []string) (map[string]model.Profile, error)
}
