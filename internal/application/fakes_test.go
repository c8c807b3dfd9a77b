package application_test

import (
	"context"
	"sort"
	"time"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// fakeCommentStore is an in-memory CommentStore for service-level tests. It
// mirrors the store contract closely enough to exercise the service logic;
// the SQLite adapter has its own tests for the persistence details.
type fakeCommentStore struct {
	nextID       int64
	comments     map[int64]*model.Comment
	ratingsCalls int
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[int64]*model.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment *model.Comment) error {
	if comment.ParentID == nil {
		for _, c := range s.comments {
			if c.ParentID == nil && c.ToolID == comment.ToolID &&
				c.AuthorID == comment.AuthorID && c.Status == model.StatusActive {
				return driven.ErrDuplicateReview
			}
		}
	}

	s.nextID++
	comment.ID = s.nextID
	comment.Status = model.StatusActive
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt

	stored := *comment
	s.comments[comment.ID] = &stored

	if comment.ParentID != nil {
		if parent, ok := s.comments[*comment.ParentID]; ok {
			parent.ReplyCount++
		}
	}

	return nil
}

func (s *fakeCommentStore) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return nil, driven.ErrCommentNotFound
	}
	copied := *comment
	return &copied, nil
}

func (s *fakeCommentStore) ListTopLevel(_ context.Context, toolID int64, offset, limit int) ([]model.Comment, int, error) {
	var all []model.Comment
	for _, c := range s.comments {
		if c.ParentID == nil && c.ToolID == toolID && c.Status == model.StatusActive {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *fakeCommentStore) ListReplies(_ context.Context, parentID int64) ([]model.Comment, error) {
	var replies []model.Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID && c.Status == model.StatusActive {
			replies = append(replies, *c)
		}
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].ID < replies[j].ID })
	return replies, nil
}

func (s *fakeCommentStore) UpdateStatus(_ context.Context, id int64, from []model.CommentStatus, to model.CommentStatus) (bool, error) {
	comment, ok := s.comments[id]
	if !ok {
		return false, driven.ErrCommentNotFound
	}

	allowed := false
	for _, f := range from {
		if comment.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}

	wasActive := comment.Status == model.StatusActive
	comment.Status = to
	comment.UpdatedAt = time.Now().UTC()

	if comment.ParentID != nil {
		if parent, ok := s.comments[*comment.ParentID]; ok {
			if wasActive && to != model.StatusActive {
				parent.ReplyCount--
			} else if !wasActive && to == model.StatusActive {
				parent.ReplyCount++
			}
		}
	}

	return true, nil
}

func (s *fakeCommentStore) HasActiveTopLevel(_ context.Context, toolID int64, authorID string) (bool, error) {
	for _, c := range s.comments {
		if c.ParentID == nil && c.ToolID == toolID &&
			c.AuthorID == authorID && c.Status == model.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeCommentStore) ActiveRatings(_ context.Context, toolID int64) ([]int, error) {
	s.ratingsCalls++
	var ratings []int
	for _, c := range s.comments {
		if c.ParentID == nil && c.ToolID == toolID && c.Status == model.StatusActive {
			ratings = append(ratings, c.Rating)
		}
	}
	return ratings, nil
}

type voteKey struct {
	commentID int64
	userID    string
	typ       model.InteractionType
}

type fakeLedger struct {
	votes map[voteKey]struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{votes: make(map[voteKey]struct{})}
}

func (l *fakeLedger) Add(_ context.Context, interaction model.Interaction) (bool, error) {
	key := voteKey{interaction.CommentID, interaction.UserID, interaction.Type}
	if _, ok := l.votes[key]; ok {
		return false, nil
	}
	l.votes[key] = struct{}{}
	return true, nil
}

func (l *fakeLedger) Remove(_ context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	key := voteKey{commentID, userID, t}
	if _, ok := l.votes[key]; !ok {
		return false, nil
	}
	delete(l.votes, key)
	return true, nil
}

func (l *fakeLedger) HasVoted(_ context.Context, commentID int64, userID string, t model.InteractionType) (bool, error) {
	_, ok := l.votes[voteKey{commentID, userID, t}]
	return ok, nil
}

func (l *fakeLedger) CountByType(_ context.Context, commentID int64, t model.InteractionType) (int, error) {
	count := 0
	for key := range l.votes {
		if key.commentID == commentID && key.typ == t {
			count++
		}
	}
	return count, nil
}

func (l *fakeLedger) VotedCommentIDs(_ context.Context, userID string, t model.InteractionType, commentIDs []int64) (map[int64]bool, error) {
	voted := make(map[int64]bool, len(commentIDs))
	for _, id := range commentIDs {
		if _, ok := l.votes[voteKey{id, userID, t}]; ok {
			voted[id] = true
		}
	}
	return voted, nil
}

type fakeProfileStore struct {
	profiles map[string]model.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]model.Profile)}
}

func (s *fakeProfileStore) Upsert(_ context.Context, profile model.Profile) error {
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *fakeProfileStore) GetByID(_ context.Context, userID string) (*model.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, driven.ErrProfileNotFound
	}
	return &profile, nil
}

func (s *fakeProfileStore) GetByIDs(_ context.Context, userIDs []string) (map[string]model.Profile, error) {
	found := make(map[string]model.Profile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.profiles[id]; ok {
			found[id] = profile
		}
	}
	return found, nil
}
