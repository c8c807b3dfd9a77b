package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared. A unique name derived from t.Name() ensures isolation
// between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename
	// component and cannot be misinterpreted as query parameters in the DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// makeReview returns a valid top-level review for the given tool and author.
func makeReview(toolID int64, authorID string, rating int) *model.Comment {
	return &model.Comment{
		ToolID:          toolID,
		AuthorID:        authorID,
		Rating:          rating,
		Title:           "Solid tool",
		Content:         "Does what it says on the tin.",
		Pros:            []string{"fast", "cheap"},
		Cons:            []string{"no offline mode"},
		UseCase:         "drafting emails",
		ExperienceLevel: model.ExperienceIntermediate,
	}
}

// insertReview creates a review and returns it with its assigned ID.
func insertReview(t *testing.T, repo *CommentRepo, toolID int64, authorID string, rating int) *model.Comment {
	t.Helper()

	review := makeReview(toolID, authorID, rating)
	require.NoError(t, repo.Create(context.Background(), review))
	return review
}

// insertReply creates a reply under the given parent and returns it.
func insertReply(t *testing.T, repo *CommentRepo, parent *model.Comment, authorID, content string) *model.Comment {
	t.Helper()

	reply := &model.Comment{
		ToolID:   parent.ToolID,
		AuthorID: authorID,
		ParentID: &parent.ID,
		Content:  content,
	}
	require.NoError(t, repo.Create(context.Background(), reply))
	return reply
}
