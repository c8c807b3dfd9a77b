package model

import "time"

// Comment is a review or a reply on a tool listing. Top-level comments
// (ParentID == nil) are reviews and carry a 1-5 rating; replies reference a
// top-level comment and carry no rating. Comments are never physically
// erased; lifecycle is tracked through Status.
type Comment struct {
	ID              int64
	ToolID          int64
	AuthorID        string // opaque user id issued by the auth collaborator
	ParentID        *int64
	Rating          int // 1-5 for reviews, 0 for replies
	Title           string
	Content         string
	Pros            []string
	Cons            []string
	UseCase         string
	ExperienceLevel ExperienceLevel
	IsVerifiedUser  bool
	HelpfulCount    int
	ReplyCount      int
	FlaggedCount    int
	LastFlaggedAt   *time.Time
	Status          CommentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTopLevel reports whether the comment is a review rather than a reply.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Interaction is a per-user vote or flag against a single comment. The
// (CommentID, UserID, Type) triple is unique; re-adding an existing
// interaction is a no-op, which makes voting idempotent.
type Interaction struct {
	ID        int64
	CommentID int64
	UserID    string
	Type      InteractionType
	Metadata  map[string]string
	CreatedAt time.Time
}

// Profile is the locally cached display record for a user, synced from the
// auth collaborator. It exists so listings can attach author information
// without reaching into the auth provider's tables.
type Profile struct {
	UserID      string
	DisplayName string
	AvatarURL   string
	IsVerified  bool
	UpdatedAt   time.Time
}
