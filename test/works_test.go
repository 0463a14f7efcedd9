//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/portfolio/internal/sitesettings"
	"github.com/2beens/portfolio/internal/works"
)

func (s *IntegrationTestSuite) getPage(ctx context.Context, path string) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverEndpoint+path, nil)
	s.Require().NoError(err)
	resp, err := s.newClient().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(body)
}

func (s *IntegrationTestSuite) TestWorksLifecycle() {
	t := s.T()
	ctx := context.Background()
	admin := s.loggedInClient(ctx, "10.0.5.1")
	public := s.newClient()

	status, body := s.doJSON(ctx, admin, http.MethodPost, "/api/admin/works", map[string]any{
		"title":     "Copper Light",
		"slug":      "Copper-Light",
		"year":      2026,
		"tags":      []string{"illustration", "digital"},
		"cover_url": "works/copper.jpg",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var created works.Work
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "copper-light", created.Slug)
	assert.Equal(t, works.DefaultSpanClass, created.SpanClass)

	status, body = s.doJSON(ctx, admin, http.MethodPost, "/api/admin/works", map[string]any{
		"title": "Copper Light again",
		"slug":  "copper-light",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.JSONEq(t, `{"detail":"Slug already exists"}`, string(body))

	// public read resolves the cover key into a presigned url
	status, body = s.doJSON(ctx, public, http.MethodGet, "/api/works/copper-light", nil)
	require.Equal(t, http.StatusOK, status)
	var fetched works.Work
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.True(t, strings.HasPrefix(fetched.CoverURL, "http://127.0.0.1:1/portfolio-media/works/copper.jpg?"), fetched.CoverURL)
	assert.Contains(t, fetched.CoverURL, "X-Amz-Expires=3600")

	status, body = s.doJSON(ctx, public, http.MethodGet, "/api/works?tag=digital", nil)
	require.Equal(t, http.StatusOK, status)
	var listed []works.ListItem
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	status, body = s.doJSON(ctx, admin, http.MethodPatch, "/api/admin/works/"+created.ID, map[string]any{
		"title":       "Copper Light II",
		"description": nil,
		"is_tall":     true,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var updated works.Work
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Copper Light II", updated.Title)
	assert.True(t, updated.IsTall)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "copper-light", updated.Slug)

	pageStatus, page := s.getPage(ctx, "/work/copper-light")
	assert.Equal(t, http.StatusOK, pageStatus)
	assert.Contains(t, page, "Copper Light II")

	status, _ = s.doJSON(ctx, admin, http.MethodDelete, "/api/admin/works/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.doJSON(ctx, public, http.MethodGet, "/api/works/copper-light", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"detail":"Work not found"}`, string(body))

	status, _ = s.doJSON(ctx, admin, http.MethodDelete, "/api/admin/works/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	pageStatus, page = s.getPage(ctx, "/work/copper-light")
	assert.Equal(t, http.StatusNotFound, pageStatus)
	assert.Contains(t, page, "This page does not exist.")
}

func (s *IntegrationTestSuite) TestSiteSettings() {
	t := s.T()
	ctx := context.Background()
	admin := s.loggedInClient(ctx, "10.0.6.1")

	status, body := s.doJSON(ctx, admin, http.MethodGet, "/api/admin/settings", nil)
	require.Equal(t, http.StatusOK, status)
	var current sitesettings.Settings
	require.NoError(t, json.Unmarshal(body, &current))

	status, body = s.doJSON(ctx, admin, http.MethodPatch, "/api/admin/settings", map[string]any{
		"artist_subtitle": "Illustrator, Rotterdam",
		"social_links":    []map[string]string{{"label": "Instagram", "url": "https://instagram.com/portfolio"}},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var updated sitesettings.Settings
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, current.ArtistName, updated.ArtistName)
	assert.Equal(t, "Illustrator, Rotterdam", updated.ArtistSubtitle)
	require.Len(t, updated.SocialLinks, 1)

	pageStatus, page := s.getPage(ctx, "/")
	assert.Equal(t, http.StatusOK, pageStatus)
	assert.Contains(t, page, "Illustrator, Rotterdam")
	assert.Contains(t, page, "https://instagram.com/portfolio")
}

func (s *IntegrationTestSuite) TestPresignUpload() {
	t := s.T()
	ctx := context.Background()
	admin := s.loggedInClient(ctx, "10.0.7.1")

	status, body := s.doJSON(ctx, admin, http.MethodPost, "/api/admin/uploads/presign", map[string]string{
		"filename":     "Sketch.PNG",
		"content_type": "image/png",
		"folder":       "about",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var presigned struct {
		UploadURL string `json:"upload_url"`
		Key       string `json:"key"`
		PublicURL string `json:"public_url"`
	}
	require.NoError(t, json.Unmarshal(body, &presigned))
	assert.True(t, strings.HasPrefix(presigned.Key, "about/"))
	assert.True(t, strings.HasSuffix(presigned.Key, ".png"))
	assert.Equal(t, "https://cdn.portfolio.test/"+presigned.Key, presigned.PublicURL)
	assert.Contains(t, presigned.UploadURL, "X-Amz-Expires=900")

	status, body = s.doJSON(ctx, admin, http.MethodPost, "/api/admin/uploads/presign", map[string]string{
		"filename":     "notes.txt",
		"content_type": "text/plain",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"detail":"Content type 'text/plain' not allowed"}`, string(body))
}

func (s *IntegrationTestSuite) TestHealthAndNotFound() {
	t := s.T()
	ctx := context.Background()
	client := s.newClient()

	status, body := s.doJSON(ctx, client, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = s.doJSON(ctx, client, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"detail":"not found"}`, string(body))

	pageStatus, page := s.getPage(ctx, "/nothing-here")
	assert.Equal(t, http.StatusNotFound, pageStatus)
	assert.Contains(t, page, "This page does not exist.")
}
