package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// ErrNotAuthor is returned when a user tries to delete a comment they did
// not write.
var ErrNotAuthor = errors.New("actor is not the comment author")

// ValidationError reports malformed input on a single field. It is never
// retriable; the caller must correct the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReviewInput is the caller-supplied payload for a new review. Pros and cons
// entries are trimmed and blanks discarded before validation.
type ReviewInput struct {
	Rating          int      `validate:"required,min=1,max=5"`
	Title           string   `validate:"max=200"`
	Content         string   `validate:"required,max=5000"`
	Pros            []string `validate:"max=10,dive,max=200"`
	Cons            []string `validate:"max=10,dive,max=200"`
	UseCase         string   `validate:"max=500"`
	ExperienceLevel string   `validate:"required,oneof=beginner intermediate advanced expert"`
}

// ReviewItem is a comment assembled with author display data from the
// profile cache and, when a viewer is known, their helpful-vote state.
// Replies is populated only for top-level items.
type ReviewItem struct {
	Comment            model.Comment
	AuthorName         string
	AuthorAvatar       string
	ViewerVotedHelpful bool
	Replies            []ReviewItem
}

// ReviewPage is one page of reviews for a tool.
type ReviewPage struct {
	Items []ReviewItem
	Total int
	Page  int
	Limit int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CommentService is the single entry point for the review subsystem. It owns
// input validation, the one-review-per-user invariant (delegated to the
// store's atomic insert), the status machine, and stats cache invalidation.
type CommentService struct {
	comments     driven.CommentStore
	interactions driven.InteractionLedger
	profiles     driven.ProfileStore
	statsCache   *StatsCache
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewCommentService creates a CommentService with all required dependencies.
func NewCommentService(
	comments driven.CommentStore,
	interactions driven.InteractionLedger,
	profiles driven.ProfileStore,
	statsCache *StatsCache,
) *CommentService {
	return &CommentService{
		comments:     comments,
		interactions: interactions,
		profiles:     profiles,
		statsCache:   statsCache,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       slog.Default(),
	}
}

// SubmitReview creates a top-level review. ErrDuplicateReview propagates
// unchanged when the author already has an active review for the tool; that
// is a genuine business conflict and must not be blindly retried.
func (s *CommentService) SubmitReview(ctx context.Context, toolID int64, authorID string, input ReviewInput) (*model.Comment, error) {
	if authorID == "" {
		return nil, &ValidationError{Field: "author_id", Reason: "must not be empty"}
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	input.UseCase = strings.TrimSpace(input.UseCase)
	input.Pros = trimNonBlank(input.Pros)
	input.Cons = trimNonBlank(input.Cons)

	if err := s.validate.Struct(input); err != nil {
		return nil, asValidationError(err)
	}

	comment := &model.Comment{
		ToolID:          toolID,
		AuthorID:        authorID,
		Rating:          input.Rating,
		Title:           input.Title,
		Content:         input.Content,
		Pros:            input.Pros,
		Cons:            input.Cons,
		UseCase:         input.UseCase,
		ExperienceLevel: model.ExperienceLevel(input.ExperienceLevel),
		IsVerifiedUser:  s.isVerified(ctx, authorID),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.statsCache.Invalidate(toolID)
	s.logger.Info("review submitted", "tool_id", toolID, "comment_id", comment.ID)

	return comment, nil
}

// SubmitReply creates a reply to an existing active top-level comment.
// A missing, non-active, or non-top-level parent yields ErrCommentNotFound;
// reply depth is capped at two levels.
func (s *CommentService) SubmitReply(ctx context.Context, parentID int64, authorID, content string) (*model.Comment, error) {
	if authorID == "" {
		return nil, &ValidationError{Field: "author_id", Reason: "must not be empty"}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if len(content) > 5000 {
		return nil, &ValidationError{Field: "content", Reason: "too long"}
	}

	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsTopLevel() || parent.Status != model.StatusActive {
		return nil, driven.ErrCommentNotFound
	}

	comment := &model.Comment{
		ToolID:         parent.ToolID,
		AuthorID:       authorID,
		ParentID:       &parentID,
		Content:        content,
		IsVerifiedUser: s.isVerified(ctx, authorID),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("reply submitted", "parent_id", parentID, "comment_id", comment.ID)

	return comment, nil
}

// DeleteOwnComment soft-deletes the actor's own comment. Returns false
// without error when the comment is already deleted (or otherwise not
// active), so repeated deletes are safe. ErrNotAuthor when the actor did not
// write the comment.
func (s *CommentService) DeleteOwnComment(ctx context.Context, commentID int64, actorID string) (bool, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}
	if comment.AuthorID != actorID {
		return false, ErrNotAuthor
	}

	applied, err := s.comments.UpdateStatus(ctx, commentID,
		[]model.CommentStatus{model.StatusActive}, model.StatusDeleted)
	if err != nil {
		return false, err
	}

	if applied && comment.IsTopLevel() {
		s.statsCache.Invalidate(comment.ToolID)
	}

	return applied, nil
}

// Vote records an interaction on a comment. Returns false when the identical
// interaction already exists; voting twice never double-counts.
func (s *CommentService) Vote(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	if userID == "" {
		return false, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if !model.ValidInteractionType(t) {
		return false, &ValidationError{Field: "interaction_type", Reason: "unknown type"}
	}

	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return false, err
	}

	return s.interactions.Add(ctx, model.Interaction{
		CommentID: commentID,
		UserID:    userID,
		Type:      t,
	})
}

// Unvote removes an interaction. Returns false when no record existed.
func (s *CommentService) Unvote(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	if userID == "" {
		return false, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if !model.ValidInteractionType(t) {
		return false, &ValidationError{Field: "interaction_type", Reason: "unknown type"}
	}

	return s.interactions.Remove(ctx, commentID, userID, t)
}

// HasVoted reports whether the user has the given interaction on the comment.
func (s *CommentService) HasVoted(ctx context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	return s.interactions.HasVoted(ctx, commentID, userID, t)
}

// FlagCount returns the authoritative number of flag and report interactions
// on the comment, counted from ledger rows. The flag-threshold policy that
// decides when a comment goes to moderation lives outside this service.
func (s *CommentService) FlagCount(ctx context.Context, commentID int64) (int, error) {
	flags, err := s.interactions.CountByType(ctx, commentID, model.InteractionFlag)
	if err != nil {
		return 0, err
	}
	reports, err := s.interactions.CountByType(ctx, commentID, model.InteractionReport)
	if err != nil {
		return 0, err
	}
	return flags + reports, nil
}

// HasReviewed reports whether the user has an active top-level review for
// the tool. Gates the "write a review" affordance.
func (s *CommentService) HasReviewed(ctx context.Context, toolID int64, userID string) (bool, error) {
	return s.comments.HasActiveTopLevel(ctx, toolID, userID)
}

// Stats returns the rating summary for the tool, served from the TTL cache
// when fresh. A failed recomputation is returned as an error, never papered
// over with stale or zero stats.
func (s *CommentService) Stats(ctx context.Context, toolID int64) (model.RatingStats, error) {
	if stats, ok := s.statsCache.Get(toolID); ok {
		return stats, nil
	}

	ratings, err := s.comments.ActiveRatings(ctx, toolID)
	if err != nil {
		return model.RatingStats{}, fmt.Errorf("aggregate ratings for tool %d: %w", toolID, err)
	}

	stats := model.ComputeRatingStats(toolID, ratings)
	s.statsCache.Set(toolID, stats)

	return stats, nil
}

// ListReviews returns one page of active reviews for the tool, newest-first,
// each with its active replies oldest-first, author display data, and — when
// viewerID is non-empty — the viewer's helpful-vote state.
func (s *CommentService) ListReviews(ctx context.Context, toolID int64, viewerID string, page, limit int) (*ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset := (page - 1) * limit

	reviews, total, err := s.comments.ListTopLevel(ctx, toolID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews for tool %d: %w", toolID, err)
	}

	repliesByParent := make(map[int64][]model.Comment, len(reviews))
	authorIDs := make([]string, 0, len(reviews))
	commentIDs := make([]int64, 0, len(reviews))

	for _, review := range reviews {
		commentIDs = append(commentIDs, review.ID)
		authorIDs = append(authorIDs, review.AuthorID)

		replies, err := s.comments.ListReplies(ctx, review.ID)
		if err != nil {
			return nil, fmt.Errorf("list replies for comment %d: %w", review.ID, err)
		}
		repliesByParent[review.ID] = replies

		for _, reply := range replies {
			commentIDs = append(commentIDs, reply.ID)
			authorIDs = append(authorIDs, reply.AuthorID)
		}
	}

	profiles, err := s.profiles.GetByIDs(ctx, dedupe(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("load author profiles: %w", err)
	}

	voted := map[int64]bool{}
	if viewerID != "" {
		voted, err = s.interactions.VotedCommentIDs(ctx, viewerID, model.InteractionHelpful, commentIDs)
		if err != nil {
			return nil, fmt.Errorf("load viewer votes: %w", err)
		}
	}

	items := make([]ReviewItem, 0, len(reviews))
	for _, review := range reviews {
		item := s.assembleItem(review, profiles, voted)
		for _, reply := range repliesByParent[review.ID] {
			item.Replies = append(item.Replies, s.assembleItem(reply, profiles, voted))
		}
		items = append(items, item)
	}

	return &ReviewPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// SendToReview moves an active comment to pending_review. Called by the
// flag-threshold policy, not by the service itself.
func (s *CommentService) SendToReview(ctx context.Context, commentID int64) (bool, error) {
	return s.moderate(ctx, commentID,
		[]model.CommentStatus{model.StatusActive}, model.StatusPendingReview)
}

// Approve returns a pending comment to active. For top-level comments the
// one-active-review invariant is re-checked first: if the author reviewed
// the tool again while this one was pending, approval is refused.
func (s *CommentService) Approve(ctx context.Context, commentID int64) (bool, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}

	if comment.IsTopLevel() {
		has, err := s.comments.HasActiveTopLevel(ctx, comment.ToolID, comment.AuthorID)
		if err != nil {
			return false, err
		}
		if has {
			s.logger.Warn("approve refused, author already has an active review",
				"comment_id", commentID, "tool_id", comment.ToolID)
			return false, nil
		}
	}

	return s.moderate(ctx, commentID,
		[]model.CommentStatus{model.StatusPendingReview}, model.StatusActive)
}

// Hide removes a comment from public view. Terminal for this service.
func (s *CommentService) Hide(ctx context.Context, commentID int64) (bool, error) {
	return s.moderate(ctx, commentID,
		[]model.CommentStatus{model.StatusActive, model.StatusPendingReview}, model.StatusHidden)
}

func (s *CommentService) moderate(ctx context.Context, commentID int64, from []model.CommentStatus, to model.CommentStatus) (bool, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}

	applied, err := s.comments.UpdateStatus(ctx, commentID, from, to)
	if err != nil {
		return false, err
	}

	// Stats only change when a top-level comment enters or leaves active.
	leftActive := comment.Status == model.StatusActive && to != model.StatusActive
	enteredActive := comment.Status != model.StatusActive && to == model.StatusActive
	if applied && comment.IsTopLevel() && (leftActive || enteredActive) {
		s.statsCache.Invalidate(comment.ToolID)
	}

	if applied {
		s.logger.Info("comment status changed",
			"comment_id", commentID, "from", comment.Status, "to", to)
	}

	return applied, nil
}

func (s *CommentService) assembleItem(comment model.Comment, profiles map[string]model.Profile, voted map[int64]bool) ReviewItem {
	item := ReviewItem{
		Comment:            comment,
		ViewerVotedHelpful: voted[comment.ID],
	}
	if profile, ok := profiles[comment.AuthorID]; ok {
		item.AuthorName = profile.DisplayName
		item.AuthorAvatar = profile.AvatarURL
	}
	return item
}

// isVerified stamps the verified badge from the profile cache. A missing
// profile is not an error; the comment is simply unverified.
func (s *CommentService) isVerified(ctx context.Context, userID string) bool {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return profile.IsVerified
}

func trimNonBlank(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// asValidationError converts a validator error into the service's typed
// ValidationError, surfacing the first failing field.
func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return err
}
