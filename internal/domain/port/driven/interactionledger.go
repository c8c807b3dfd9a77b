package driven

import (
	"context"

	"github.com/dmcnab/toolreviews/internal/domain/model"
)

// InteractionLedger defines the driven port for per-user vote and flag
// records. The ledger is the source of truth for interaction counts; the
// cached counters on comments are maintained atomically with ledger writes
// and may be recomputed from ledger rows by a reconciliation job.
type InteractionLedger interface {
	// Add inserts the interaction if absent and returns true. A duplicate
	// (comment, user, type) triple returns false without error; this is the
	// idempotence contract. Helpful interactions increment the comment's
	// helpful_count, flag/report interactions increment flagged_count and
	// stamp last_flagged_at, all in the same transaction as the insert.
	Add(ctx context.Context, interaction model.Interaction) (bool, error)

	// Remove deletes the interaction if present and returns true, adjusting
	// the cached counters in the same transaction (floored at zero). Returns
	// false without error when no record existed.
	Remove(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error)

	// HasVoted reports whether the interaction record exists.
	HasVoted(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error)

	// CountByType returns the authoritative number of interactions of the
	// given type on the comment, counted from ledger rows.
	CountByType(ctx context.Context, commentID int64, t model.InteractionType) (int, error)

	// VotedCommentIDs reports which of the given comments the user has an
	// interaction of the given type on. Used to batch-render vote state.
	VotedCommentIDs(ctx context.Context, userID string, t model.InteractionType, commentIDs []int64) (map[int64]bool, error)
}
