package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/models"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// ContentHandler fronts the collaborator surfaces that only need an
// authorization decision from this service. The handlers accept the request,
// attribute it to the authenticated identity, and acknowledge; the actual
// content pipelines live elsewhere.
type ContentHandler struct{}

// NewContentHandler creates a new ContentHandler
func NewContentHandler() *ContentHandler {
	return &ContentHandler{}
}

// CreateAppRequest represents the request body for registering an app
type CreateAppRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// CreateReviewRequest represents the request body for posting a review
type CreateReviewRequest struct {
	AppID string `json:"app_id" validate:"required"`
	Body  string `json:"body" validate:"required,min=1,max=5000"`
}

// ListApps serves the public catalog listing. Anonymous callers see only
// published apps; a developer or admin identity widens the listing to
// include their unpublished entries.
func (h *ContentHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	visibility := "published"
	if claims := auth.GetUserFromContext(r); claims != nil {
		if claims.Role == models.RoleDeveloper || claims.Role == models.RoleAdmin {
			visibility = "all"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"apps":       []any{},
		"visibility": visibility,
	})
}

// CreateApp accepts an app registration from a developer or admin.
func (h *ContentHandler) CreateApp(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":       uuid.New().String(),
		"name":     req.Name,
		"owner_id": claims.UserID,
		"status":   "pending_review",
	})
}

// CreateReview accepts a review from any authenticated user.
func (h *ContentHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":        uuid.New().String(),
		"app_id":    req.AppID,
		"author_id": claims.UserID,
	})
}

// CreateUpload issues an upload slot to a developer or admin.
func (h *ContentHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	uploadID := uuid.New().String()
	writeJSON(w, http.StatusAccepted, map[string]string{
		"upload_id":  uploadID,
		"owner_id":   claims.UserID,
		"upload_url": "/uploads/" + uploadID,
	})
}
