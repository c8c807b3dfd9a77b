// Package httphandler is the HTTP driving adapter serving the review REST API.
//
// Identity arrives pre-verified from the upstream auth gateway in the
// X-User-ID header; this adapter never authenticates. Moderation endpoints
// additionally require the shared admin bearer token.
package httphandler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmcnab/toolreviews/internal/application"
	"github.com/dmcnab/toolreviews/internal/domain/model"
)

// Handler holds the handlers for the review REST API.
type Handler struct {
	service    *application.CommentService
	flagPolicy *application.FlagPolicy
	adminToken string
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	service *application.CommentService,
	flagPolicy *application.FlagPolicy,
	adminToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:    service,
		flagPolicy: flagPolicy,
		adminToken: adminToken,
		logger:     logger,
	}
}

// NewServeMux returns an http.Handler with all routes registered and wrapped
// with request-id, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/tools/{toolID}/reviews", h.ListReviews)
	mux.HandleFunc("POST /api/v1/tools/{toolID}/reviews", h.SubmitReview)
	mux.HandleFunc("GET /api/v1/tools/{toolID}/reviews/stats", h.GetStats)
	mux.HandleFunc("GET /api/v1/tools/{toolID}/reviews/mine", h.HasReviewed)
	mux.HandleFunc("POST /api/v1/comments/{commentID}/replies", h.SubmitReply)
	mux.HandleFunc("DELETE /api/v1/comments/{commentID}", h.DeleteComment)
	mux.HandleFunc("PUT /api/v1/comments/{commentID}/votes/{voteType}", h.Vote)
	mux.HandleFunc("DELETE /api/v1/comments/{commentID}/votes/{voteType}", h.Unvote)
	mux.HandleFunc("POST /api/v1/admin/comments/{commentID}/status", h.Moderate)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse())
}

// SubmitReview creates a top-level review for a tool.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	toolID, ok := h.pathID(w, r, "toolID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	comment, err := h.service.SubmitReview(r.Context(), toolID, userID, application.ReviewInput{
		Rating:          req.Rating,
		Title:           req.Title,
		Content:         req.Content,
		Pros:            req.Pros,
		Cons:            req.Cons,
		UseCase:         req.UseCase,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(*comment))
}

// SubmitReply creates a reply to an active top-level comment.
func (h *Handler) SubmitReply(w http.ResponseWriter, r *http.Request) {
	parentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req SubmitReplyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	comment, err := h.service.SubmitReply(r.Context(), parentID, userID, req.Content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(*comment))
}

// ListReviews returns one page of reviews with nested replies.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	toolID, ok := h.pathID(w, r, "toolID")
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	viewerID := r.Header.Get(userIDHeader)

	reviews, err := h.service.ListReviews(r.Context(), toolID, viewerID, page, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewPageResponse(reviews))
}

// GetStats returns the rating summary for a tool.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	toolID, ok := h.pathID(w, r, "toolID")
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), toolID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// HasReviewed reports whether the acting user has an active review for the
// tool. Gates the "write a review" affordance in clients.
func (h *Handler) HasReviewed(w http.ResponseWriter, r *http.Request) {
	toolID, ok := h.pathID(w, r, "toolID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	has, err := h.service.HasReviewed(r.Context(), toolID, userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, HasReviewedResponse{HasReviewed: has})
}

// DeleteComment soft-deletes the acting user's own comment.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	applied, err := h.service.DeleteOwnComment(r.Context(), commentID, userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

// Vote records an interaction on a comment. Repeating the same vote is a
// no-op reported through "applied": false.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	voteType := model.InteractionType(r.PathValue("voteType"))

	applied, err := h.service.Vote(r.Context(), commentID, userID, voteType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if applied && voteType.IsFlagging() {
		if err := h.flagPolicy.OnFlagged(r.Context(), commentID); err != nil {
			// The vote itself landed; the moderation sweep will catch up.
			h.logger.Error("flag policy check failed", "comment_id", commentID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

// Unvote removes an interaction from a comment.
func (h *Handler) Unvote(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	applied, err := h.service.Unvote(r.Context(), commentID, userID, model.InteractionType(r.PathValue("voteType")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

// Moderate applies a moderation action to a comment. Requires the admin
// bearer token.
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}

	var req ModerateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	var applied bool
	var err error
	switch req.Action {
	case "approve":
		applied, err = h.service.Approve(r.Context(), commentID)
	case "hide":
		applied, err = h.service.Hide(r.Context(), commentID)
	case "send_to_review":
		applied, err = h.service.SendToReview(r.Context(), commentID)
	default:
		writeError(w, http.StatusBadRequest, "unknown moderation action")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

const userIDHeader = "X-User-ID"

// requireUser extracts the pre-verified acting user id; 401 when absent.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return userID, true
}

// requireAdmin checks the moderation bearer token.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if h.adminToken == "" || !ok ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid admin token")
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
