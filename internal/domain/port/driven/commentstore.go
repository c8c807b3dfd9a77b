package driven

import (
	"context"
	"errors"

	"github.com/dmcnab/toolreviews/internal/domain/model"
)

var (
	// ErrCommentNotFound is returned when a referenced comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrDuplicateReview is returned when an active top-level review already
	// exists for the same (tool, author) pair. This is a business conflict,
	// not a transient failure; callers must not blindly retry.
	ErrDuplicateReview = errors.New("user already has an active review for this tool")
)

// CommentStore defines the driven port for persisting comments (reviews and
// replies) and their lifecycle status.
type CommentStore interface {
	// Create inserts the comment as active and fills in its server-assigned
	// ID and timestamps. For top-level reviews the one-active-review-per-user
	// invariant is enforced atomically with the insert; violations surface as
	// ErrDuplicateReview. For replies the parent's reply_count is incremented
	// in the same transaction.
	Create(ctx context.Context, comment *model.Comment) error

	// GetByID returns the comment regardless of status, or ErrCommentNotFound.
	GetByID(ctx context.Context, id int64) (*model.Comment, error)

	// ListTopLevel returns active top-level comments for the tool ordered
	// newest-first, plus the total number of active top-level comments.
	ListTopLevel(ctx context.Context, toolID int64, offset, limit int) ([]model.Comment, int, error)

	// ListReplies returns active replies to the comment ordered oldest-first.
	ListReplies(ctx context.Context, parentID int64) ([]model.Comment, error)

	// UpdateStatus moves the comment to the given status if its current
	// status is one of from, as a single compare-and-set. It returns false
	// when no transition was applied, which makes repeated deletes no-ops
	// rather than errors. Reply-count caches on the parent are maintained
	// when a reply enters or leaves active.
	UpdateStatus(ctx context.Context, id int64, from []model.CommentStatus, to model.CommentStatus) (bool, error)

	// HasActiveTopLevel reports whether the author currently has an active
	// top-level review for the tool.
	HasActiveTopLevel(ctx context.Context, toolID int64, authorID string) (bool, error)

	// ActiveRatings returns the ratings of all active top-level comments for
	// the tool, the input to rating aggregation.
	ActiveRatings(ctx context.Context, toolID int64) ([]int, error)
}
