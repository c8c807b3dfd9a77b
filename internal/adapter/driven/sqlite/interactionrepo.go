package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InteractionLedger = (*InteractionRepo)(nil)

// InteractionRepo is the SQLite implementation of the InteractionLedger port
// interface. Ledger rows are the source of truth; the cached counters on
// comments are adjusted in the same transaction as every ledger write.
type InteractionRepo struct {
	db *DB
}

// NewInteractionRepo creates a new InteractionRepo backed by the given DB.
func NewInteractionRepo(db *DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

// Add inserts the interaction if absent. The unique constraint on
// (comment_id, user_id, interaction_type) plus OR IGNORE makes the
// existence check atomic with the insert; a suppressed row returns false.
// Counter maintenance runs in the same transaction, so helpful_count can
// never drift by concurrent add/remove on the same comment.
func (r *InteractionRepo) Add(ctx context.Context, interaction model.Interaction) (bool, error) {
	const query = `
		INSERT OR IGNORE INTO interactions (comment_id, user_id, interaction_type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	metadata := interaction.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("marshal interaction metadata: %w", err)
	}

	now := time.Now().UTC()

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin add interaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, query,
		interaction.CommentID, interaction.UserID, string(interaction.Type),
		string(metadataJSON), now,
	)
	if err != nil {
		return false, fmt.Errorf("insert interaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	switch {
	case interaction.Type == model.InteractionHelpful:
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET helpful_count = helpful_count + 1 WHERE id = ?`,
			interaction.CommentID,
		)
	case interaction.Type.IsFlagging():
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET flagged_count = flagged_count + 1, last_flagged_at = ? WHERE id = ?`,
			now, interaction.CommentID,
		)
	}
	if err != nil {
		return false, fmt.Errorf("adjust counters for comment %d: %w", interaction.CommentID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit add interaction: %w", err)
	}

	return true, nil
}

// Remove deletes the interaction if present, adjusting the cached counters
// (floored at zero) in the same transaction. Returns false when no record
// existed.
func (r *InteractionRepo) Remove(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	const query = `
		DELETE FROM interactions
		WHERE comment_id = ? AND user_id = ? AND interaction_type = ?
	`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin remove interaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, query, commentID, userID, string(t))
	if err != nil {
		return false, fmt.Errorf("delete interaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	switch {
	case t == model.InteractionHelpful:
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET helpful_count = MAX(helpful_count - 1, 0) WHERE id = ?`,
			commentID,
		)
	case t.IsFlagging():
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET flagged_count = MAX(flagged_count - 1, 0) WHERE id = ?`,
			commentID,
		)
	}
	if err != nil {
		return false, fmt.Errorf("adjust counters for comment %d: %w", commentID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit remove interaction: %w", err)
	}

	return true, nil
}

// HasVoted reports whether the interaction record exists.
func (r *InteractionRepo) HasVoted(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM interactions
			WHERE comment_id = ? AND user_id = ? AND interaction_type = ?
		)
	`

	var exists bool
	err := r.db.Reader.QueryRowContext(ctx, query, commentID, userID, string(t)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check interaction on comment %d: %w", commentID, err)
	}

	return exists, nil
}

// CountByType returns the authoritative interaction count from ledger rows.
func (r *InteractionRepo) CountByType(ctx context.Context, commentID int64, t model.InteractionType) (int, error) {
	const query = `
		SELECT COUNT(id) FROM interactions
		WHERE comment_id = ? AND interaction_type = ?
	`

	var count int
	err := r.db.Reader.QueryRowContext(ctx, query, commentID, string(t)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count interactions on comment %d: %w", commentID, err)
	}

	return count, nil
}

// VotedCommentIDs reports which of the given comments the user has an
// interaction of the given type on.
func (r *InteractionRepo) VotedCommentIDs(ctx context.Context, userID string, t model.InteractionType, commentIDs []int64) (map[int64]bool, error) {
	voted := make(map[int64]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return voted, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(commentIDs)), ",")
	query := fmt.Sprintf(`
		SELECT comment_id FROM interactions
		WHERE user_id = ? AND interaction_type = ? AND comment_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(commentIDs)+2)
	args = append(args, userID, string(t))
	for _, id := range commentIDs {
		args = append(args, id)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query voted comments for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan voted comment id: %w", err)
		}
		voted[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voted comment ids: %w", err)
	}

	return voted, nil
}
