package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port
// interface, holding the display profiles synced from the auth provider.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Upsert inserts or updates a profile by user id.
func (r *ProfileRepo) Upsert(ctx context.Context, profile model.Profile) error {
	const query = `
		INSERT INTO profiles (user_id, display_name, avatar_url, is_verified, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			is_verified = excluded.is_verified,
			updated_at = excluded.updated_at
	`

	isVerified := 0
	if profile.IsVerified {
		isVerified = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		profile.UserID, profile.DisplayName, profile.AvatarURL, isVerified,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.UserID, err)
	}

	return nil
}

// GetByID returns the profile for the user, or ErrProfileNotFound.
func (r *ProfileRepo) GetByID(ctx context.Context, userID string) (*model.Profile, error) {
	const query = `
		SELECT user_id, display_name, avatar_url, is_verified, updated_at
		FROM profiles WHERE user_id = ?
	`

	profile, err := scanProfile(r.db.Reader.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	return profile, nil
}

// GetByIDs returns the profiles that exist for the given user ids.
func (r *ProfileRepo) GetByIDs(ctx context.Context, userIDs []string) (map[string]model.Profile, error) {
	profiles := make(map[string]model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	query := fmt.Sprintf(`
		SELECT user_id, display_name, avatar_url, is_verified, updated_at
		FROM profiles WHERE user_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		args = append(args, id)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[profile.UserID] = *profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func scanProfile(s scanner) (*model.Profile, error) {
	var profile model.Profile
	var isVerified int
	var updatedAt string

	err := s.Scan(&profile.UserID, &profile.DisplayName, &profile.AvatarURL, &isVerified, &updatedAt)
	if err != nil {
		return nil, err
	}

	profile.IsVerified = isVerified != 0

	profile.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &profile, nil
}
