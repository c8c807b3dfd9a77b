package model

// CommentStatus represents the lifecycle state of a comment.
type CommentStatus string

const (
	StatusActive        CommentStatus = "active"
	StatusHidden        CommentStatus = "hidden"
	StatusPendingReview CommentStatus = "pending_review"
	StatusDeleted       CommentStatus = "deleted"
)

// statusTransitions is the allowed status machine:
//
//	active -> deleted         (self-delete, terminal)
//	active -> pending_review  (flag threshold reached)
//	active -> hidden          (moderator hide, terminal)
//	pending_review -> active  (moderator approve)
//	pending_review -> hidden  (moderator reject, terminal)
var statusTransitions = map[CommentStatus][]CommentStatus{
	StatusActive:        {StatusDeleted, StatusPendingReview, StatusHidden},
	StatusPendingReview: {StatusActive, StatusHidden},
}

// CanTransition reports whether the status machine allows moving from one
// status to another. Terminal states (deleted, hidden) allow nothing.
func CanTransition(from, to CommentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which the given status can be
// reached. Used by the store's compare-and-set update.
func TransitionSources(to CommentStatus) []CommentStatus {
	var sources []CommentStatus
	for from, targets := range statusTransitions {
		for _, t := range targets {
			if t == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// ExperienceLevel describes how experienced a reviewer is with the tool.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
	ExperienceExpert       ExperienceLevel = "expert"
)

// ValidExperienceLevel reports whether the value is a known experience level.
func ValidExperienceLevel(v ExperienceLevel) bool {
	switch v {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceExpert:
		return true
	}
	return false
}

// InteractionType classifies a user's interaction with a comment.
type InteractionType string

const (
	InteractionHelpful    InteractionType = "helpful"
	InteractionNotHelpful InteractionType = "not_helpful"
	InteractionFlag       InteractionType = "flag"
	InteractionReport     InteractionType = "report"
)

// ValidInteractionType reports whether the value is a known interaction type.
func ValidInteractionType(v InteractionType) bool {
	switch v {
	case InteractionHelpful, InteractionNotHelpful, InteractionFlag, InteractionReport:
		return true
	}
	return false
}

// IsFlagging reports whether the interaction counts toward a comment's
// flagged total.
func (t InteractionType) IsFlagging() bool {
	return t == InteractionFlag || t == InteractionReport
}
