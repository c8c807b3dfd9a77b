package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmcnab/toolreviews/internal/application"
	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readJSON decodes the request body into data, rejecting unknown fields and
// bodies over 1MB.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
// Unrecognized errors are logged and masked as 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *application.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, driven.ErrDuplicateReview):
		writeError(w, http.StatusConflict, "you already have an active review for this tool")
	case errors.Is(err, driven.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, "comment not found")
	case errors.Is(err, application.ErrNotAuthor):
		writeError(w, http.StatusForbidden, "not the comment author")
	default:
		h.logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CommentResponse is the JSON representation of a review or reply. Content
// is the raw markdown the author submitted; ContentHTML is its sanitized
// rendering for clients that display rich text.
type CommentResponse struct {
	ID                 int64             `json:"id"`
	ToolID             int64             `json:"tool_id"`
	AuthorID           string            `json:"author_id"`
	ParentID           *int64            `json:"parent_id,omitempty"`
	Rating             int               `json:"rating,omitempty"`
	Title              string            `json:"title,omitempty"`
	Content            string            `json:"content"`
	ContentHTML        string            `json:"content_html"`
	Pros               []string          `json:"pros"`
	Cons               []string          `json:"cons"`
	UseCase            string            `json:"use_case,omitempty"`
	ExperienceLevel    string            `json:"experience_level,omitempty"`
	IsVerifiedUser     bool              `json:"is_verified_user"`
	HelpfulCount       int               `json:"helpful_count"`
	ReplyCount         int               `json:"reply_count"`
	Status             string            `json:"status"`
	AuthorName         string            `json:"author_name,omitempty"`
	AuthorAvatar       string            `json:"author_avatar,omitempty"`
	ViewerVotedHelpful bool              `json:"viewer_voted_helpful"`
	Replies            []CommentResponse `json:"replies,omitempty"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
}

// ReviewPageResponse is one page of reviews.
type ReviewPageResponse struct {
	Items []CommentResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// StatsResponse is the JSON representation of a tool's rating summary.
type StatsResponse struct {
	ToolID         int64   `json:"tool_id"`
	TotalReviews   int     `json:"total_reviews"`
	AverageRating  float64 `json:"average_rating"`
	FiveStarCount  int     `json:"five_star_count"`
	FourStarCount  int     `json:"four_star_count"`
	ThreeStarCount int     `json:"three_star_count"`
	TwoStarCount   int     `json:"two_star_count"`
	OneStarCount   int     `json:"one_star_count"`
}

// SubmitReviewRequest is the JSON body for the submit review endpoint.
type SubmitReviewRequest struct {
	Rating          int      `json:"rating"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons"`
	UseCase         string   `json:"use_case"`
	ExperienceLevel string   `json:"experience_level"`
}

// SubmitReplyRequest is the JSON body for the submit reply endpoint.
type SubmitReplyRequest struct {
	Content string `json:"content"`
}

// ModerateRequest is the JSON body for the moderation endpoint.
type ModerateRequest struct {
	Action string `json:"action"`
}

// AppliedResponse reports whether a state-changing call had any effect.
// Idempotent no-ops (repeated votes, repeated deletes) return false here
// with a 200, never an error.
type AppliedResponse struct {
	Applied bool `json:"applied"`
}

// HasReviewedResponse is the body of the review-gate endpoint.
type HasReviewedResponse struct {
	HasReviewed bool `json:"has_reviewed"`
}

// HealthBody is the JSON representation of the health check endpoint.
type HealthBody struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func healthResponse() HealthBody {
	return HealthBody{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
}

func toCommentResponse(c model.Comment) CommentResponse {
	pros := c.Pros
	if pros == nil {
		pros = []string{}
	}
	cons := c.Cons
	if cons == nil {
		cons = []string{}
	}

	return CommentResponse{
		ID:              c.ID,
		ToolID:          c.ToolID,
		AuthorID:        c.AuthorID,
		ParentID:        c.ParentID,
		Rating:          c.Rating,
		Title:           c.Title,
		Content:         c.Content,
		ContentHTML:     renderMarkdown(c.Content),
		Pros:            pros,
		Cons:            cons,
		UseCase:         c.UseCase,
		ExperienceLevel: string(c.ExperienceLevel),
		IsVerifiedUser:  c.IsVerifiedUser,
		HelpfulCount:    c.HelpfulCount,
		ReplyCount:      c.ReplyCount,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReviewItemResponse(item application.ReviewItem) CommentResponse {
	resp := toCommentResponse(item.Comment)
	resp.AuthorName = item.AuthorName
	resp.AuthorAvatar = item.AuthorAvatar
	resp.ViewerVotedHelpful = item.ViewerVotedHelpful

	for _, reply := range item.Replies {
		resp.Replies = append(resp.Replies, toReviewItemResponse(reply))
	}

	return resp
}

func toReviewPageResponse(page *application.ReviewPage) ReviewPageResponse {
	items := make([]CommentResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, toReviewItemResponse(item))
	}

	return ReviewPageResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}

func toStatsResponse(stats model.RatingStats) StatsResponse {
	return StatsResponse{
		ToolID:         stats.ToolID,
		TotalReviews:   stats.TotalReviews,
		AverageRating:  stats.AverageRating,
		FiveStarCount:  stats.FiveStarCount,
		FourStarCount:  stats.FourStarCount,
		ThreeStarCount: stats.ThreeStarCount,
		TwoStarCount:   stats.TwoStarCount,
		OneStarCount:   stats.OneStarCount,
	}
}
