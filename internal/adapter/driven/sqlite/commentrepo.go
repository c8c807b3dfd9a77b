package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentStore = (*CommentRepo)(nil)

// CommentRepo is the SQLite implementation of the CommentStore port interface.
type CommentRepo struct {
	db *DB
}

// NewCommentRepo creates a new CommentRepo backed by the given DB.
func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

const commentColumns = `
	id, tool_id, author_id, parent_id, rating, title, content, pros, cons,
	use_case, experience_level, is_verified_user, helpful_count, reply_count,
	flagged_count, last_flagged_at, status, created_at, updated_at`

// Create inserts the comment as active and assigns its ID and timestamps.
//
// Top-level reviews rely on the partial unique index over
// (tool_id, author_id) WHERE parent_id IS NULL AND status = 'active':
// the insert uses OR IGNORE, so a suppressed row means another active review
// already exists and the caller gets ErrDuplicateReview. The check and the
// insert are a single statement, so concurrent submissions cannot both win.
//
// Replies increment the parent's reply_count inside the same transaction.
func (r *CommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	const query = `
		INSERT OR IGNORE INTO comments (
			tool_id, author_id, parent_id, rating, title, content, pros, cons,
			use_case, experience_level, is_verified_user, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	prosJSON, err := marshalStrings(comment.Pros)
	if err != nil {
		return fmt.Errorf("marshal pros: %w", err)
	}
	consJSON, err := marshalStrings(comment.Cons)
	if err != nil {
		return fmt.Errorf("marshal cons: %w", err)
	}

	var parentID any
	if comment.ParentID != nil {
		parentID = *comment.ParentID
	}

	isVerified := 0
	if comment.IsVerifiedUser {
		isVerified = 1
	}

	now := time.Now().UTC()

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create comment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, query,
		comment.ToolID, comment.AuthorID, parentID, comment.Rating,
		comment.Title, comment.Content, prosJSON, consJSON,
		comment.UseCase, string(comment.ExperienceLevel), isVerified,
		string(model.StatusActive), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		// The only ignorable constraint on this insert is the one-active-review
		// partial unique index.
		return driven.ErrDuplicateReview
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("fetch comment id: %w", err)
	}

	if comment.ParentID != nil {
		const bump = `UPDATE comments SET reply_count = reply_count + 1, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, bump, now, *comment.ParentID); err != nil {
			return fmt.Errorf("increment reply count for comment %d: %w", *comment.ParentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create comment: %w", err)
	}

	comment.ID = id
	comment.Status = model.StatusActive
	comment.HelpfulCount = 0
	comment.ReplyCount = 0
	comment.FlaggedCount = 0
	comment.CreatedAt = now
	comment.UpdatedAt = now

	return nil
}

// GetByID returns the comment regardless of status.
func (r *CommentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	query := `SELECT` + commentColumns + ` FROM comments WHERE id = ?`

	comment, err := scanComment(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}

	return comment, nil
}

// ListTopLevel returns active top-level comments for the tool, newest-first,
// plus the total count of active top-level comments. Ids are monotonic, so
// id order is creation order without relying on timestamp string collation.
func (r *CommentRepo) ListTopLevel(ctx context.Context, toolID int64, offset, limit int) ([]model.Comment, int, error) {
	query := `
		SELECT` + commentColumns + `
		FROM comments
		WHERE tool_id = ? AND status = ? AND parent_id IS NULL
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, toolID, string(model.StatusActive), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query reviews for tool %d: %w", toolID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	const countQuery = `
		SELECT COUNT(id) FROM comments
		WHERE tool_id = ? AND status = ? AND parent_id IS NULL
	`

	var total int
	if err := r.db.Reader.QueryRowContext(ctx, countQuery, toolID, string(model.StatusActive)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews for tool %d: %w", toolID, err)
	}

	return comments, total, nil
}

// ListReplies returns active replies to the comment, oldest-first.
func (r *CommentRepo) ListReplies(ctx context.Context, parentID int64) ([]model.Comment, error) {
	query := `
		SELECT` + commentColumns + `
		FROM comments
		WHERE parent_id = ? AND status = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, parentID, string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("query replies for comment %d: %w", parentID, err)
	}
	defer rows.Close()

	var replies []model.Comment
	for rows.Next() {
		reply, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		replies = append(replies, *reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replies: %w", err)
	}

	return replies, nil
}

// UpdateStatus moves the comment to the given status if its current status
// is one of from. Returns false when no transition was applied. When a reply
// enters or leaves active, the parent's reply_count is adjusted in the same
// transaction.
func (r *CommentRepo) UpdateStatus(ctx context.Context, id int64, from []model.CommentStatus, to model.CommentStatus) (bool, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin status update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	var parentID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT status, parent_id FROM comments WHERE id = ?`, id).
		Scan(&current, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, driven.ErrCommentNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read comment %d status: %w", id, err)
	}

	allowed := false
	for _, f := range from {
		if model.CommentStatus(current) == f {
			allowed = true
			break
		}
	}
	if !allowed || model.CommentStatus(current) == to {
		return false, nil
	}

	now := time.Now().UTC()

	// Compare-and-set against the status read inside this transaction.
	result, err := tx.ExecContext(ctx,
		`UPDATE comments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now, id, current,
	)
	if err != nil {
		return false, fmt.Errorf("update comment %d status: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if parentID.Valid {
		wasActive := model.CommentStatus(current) == model.StatusActive
		nowActive := to == model.StatusActive

		switch {
		case wasActive && !nowActive:
			_, err = tx.ExecContext(ctx,
				`UPDATE comments SET reply_count = MAX(reply_count - 1, 0), updated_at = ? WHERE id = ?`,
				now, parentID.Int64,
			)
		case !wasActive && nowActive:
			_, err = tx.ExecContext(ctx,
				`UPDATE comments SET reply_count = reply_count + 1, updated_at = ? WHERE id = ?`,
				now, parentID.Int64,
			)
		}
		if err != nil {
			return false, fmt.Errorf("adjust reply count for comment %d: %w", parentID.Int64, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit status update: %w", err)
	}

	return true, nil
}

// HasActiveTopLevel reports whether the author currently has an active
// top-level review for the tool.
func (r *CommentRepo) HasActiveTopLevel(ctx context.Context, toolID int64, authorID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM comments
			WHERE tool_id = ? AND author_id = ? AND parent_id IS NULL AND status = ?
		)
	`

	var exists bool
	err := r.db.Reader.QueryRowContext(ctx, query, toolID, authorID, string(model.StatusActive)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active review for tool %d: %w", toolID, err)
	}

	return exists, nil
}

// ActiveRatings returns the ratings of all active top-level comments for the
// tool. Not paginated; per-tool review counts are small and aggregation
// needs the full set.
func (r *CommentRepo) ActiveRatings(ctx context.Context, toolID int64) ([]int, error) {
	const query = `
		SELECT rating FROM comments
		WHERE tool_id = ? AND status = ? AND parent_id IS NULL
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, toolID, string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("query ratings for tool %d: %w", toolID, err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	return ratings, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var comment model.Comment
	var parentID sql.NullInt64
	var prosJSON, consJSON string
	var experienceLevel, status string
	var isVerified int
	var lastFlaggedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&comment.ID, &comment.ToolID, &comment.AuthorID, &parentID,
		&comment.Rating, &comment.Title, &comment.Content, &prosJSON, &consJSON,
		&comment.UseCase, &experienceLevel, &isVerified, &comment.HelpfulCount,
		&comment.ReplyCount, &comment.FlaggedCount, &lastFlaggedAt,
		&status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := parentID.Int64
		comment.ParentID = &id
	}

	if err := json.Unmarshal([]byte(prosJSON), &comment.Pros); err != nil {
		return nil, fmt.Errorf("unmarshal pros: %w", err)
	}
	if err := json.Unmarshal([]byte(consJSON), &comment.Cons); err != nil {
		return nil, fmt.Errorf("unmarshal cons: %w", err)
	}

	comment.ExperienceLevel = model.ExperienceLevel(experienceLevel)
	comment.Status = model.CommentStatus(status)
	comment.IsVerifiedUser = isVerified != 0

	if lastFlaggedAt.Valid {
		t, err := parseTime(lastFlaggedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_flagged_at: %w", err)
		}
		comment.LastFlaggedAt = &t
	}

	comment.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	comment.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &comment, nil
}

// marshalStrings encodes a string slice as JSON, mapping nil to "[]" so the
// column never holds SQL NULL.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
