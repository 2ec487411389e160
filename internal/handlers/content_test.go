package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHandler_ListApps_VisibilityByIdentity(t *testing.T) {
	handler := NewContentHandler()

	tests := []struct {
		name   string
		claims *models.TokenClaims
		want   string
	}{
		{"anonymous", nil, "published"},
		{"plain user", &models.TokenClaims{UserID: "u-1", Role: models.RoleUser}, "published"},
		{"developer", &models.TokenClaims{UserID: "dev-1", Role: models.RoleDeveloper}, "all"},
		{"admin", &models.TokenClaims{UserID: "adm-1", Role: models.RoleAdmin}, "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.claims != nil {
				req = authenticatedRequest(http.MethodGet, "/apps", nil, tt.claims)
			} else {
				req = jsonRequest(http.MethodGet, "/apps", nil)
			}

			rec := httptest.NewRecorder()
			handler.ListApps(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["visibility"])
		})
	}
}

func TestContentHandler_CreateApp(t *testing.T) {
	handler := NewContentHandler()
	claims := &models.TokenClaims{UserID: "dev-1", Email: "dev@b.com", Role: models.RoleDeveloper}

	rec := httptest.NewRecorder()
	handler.CreateApp(rec, authenticatedRequest(http.MethodPost, "/apps",
		map[string]string{"name": "My App"}, claims))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dev-1", body["owner_id"])
	assert.Equal(t, "My App", body["name"])
	assert.NotEmpty(t, body["id"])
}

func TestContentHandler_CreateApp_MissingName(t *testing.T) {
	handler := NewContentHandler()
	claims := &models.TokenClaims{UserID: "dev-1", Role: models.RoleDeveloper}

	rec := httptest.NewRecorder()
	handler.CreateApp(rec, authenticatedRequest(http.MethodPost, "/apps",
		map[string]string{}, claims))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentHandler_CreateReview(t *testing.T) {
	handler := NewContentHandler()
	claims := &models.TokenClaims{UserID: "acct-1", Role: models.RoleUser}

	rec := httptest.NewRecorder()
	handler.CreateReview(rec, authenticatedRequest(http.MethodPost, "/reviews",
		map[string]string{"app_id": "app-1", "body": "works great"}, claims))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "acct-1", body["author_id"])
	assert.Equal(t, "app-1", body["app_id"])
}

func TestContentHandler_CreateUpload(t *testing.T) {
	handler := NewContentHandler()
	claims := &models.TokenClaims{UserID: "dev-1", Role: models.RoleDeveloper}

	rec := httptest.NewRecorder()
	handler.CreateUpload(rec, authenticatedRequest(http.MethodPost, "/uploads", nil, claims))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dev-1", body["owner_id"])
	assert.Contains(t, body["upload_url"], body["upload_id"])
}

func TestContentHandler_NoClaims(t *testing.T) {
	handler := NewContentHandler()

	endpoints := map[string]http.HandlerFunc{
		"/apps":    handler.CreateApp,
		"/reviews": handler.CreateReview,
		"/uploads": handler.CreateUpload,
	}

	for path, endpoint := range endpoints {
		rec := httptest.NewRecorder()
		endpoint(rec, jsonRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
