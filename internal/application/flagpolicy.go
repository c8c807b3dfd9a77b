package application

import (
	"context"
	"log/slog"
)

// FlagPolicy decides when a heavily flagged comment is pulled from public
// view into pending_review. The threshold is deliberately external to
// CommentService: the service only exposes flag counts and the status
// transition, and this policy owns the decision.
type FlagPolicy struct {
	threshold int
	service   *CommentService
	logger    *slog.Logger
}

// NewFlagPolicy creates a policy that sends comments to moderation once
// their flag count reaches threshold. A threshold of zero or less disables
// the policy.
func NewFlagPolicy(threshold int, service *CommentService) *FlagPolicy {
	return &FlagPolicy{
		threshold: threshold,
		service:   service,
		logger:    slog.Default(),
	}
}

// OnFlagged is invoked after a flag or report interaction lands on the
// comment. It re-reads the authoritative flag count and applies the
// transition when the threshold is met. Best-effort: an already moderated
// or deleted comment is left alone.
func (p *FlagPolicy) OnFlagged(ctx context.Context, commentID int64) error {
	if p.threshold <= 0 {
		return nil
	}

	count, err := p.service.FlagCount(ctx, commentID)
	if err != nil {
		return err
	}
	if count < p.threshold {
		return nil
	}

	applied, err := p.service.SendToReview(ctx, commentID)
	if err != nil {
		return err
	}
	if applied {
		p.logger.Info("comment sent to moderation by flag policy",
			"comment_id", commentID, "flag_count", count, "threshold", p.threshold)
	}

	return nil
}
