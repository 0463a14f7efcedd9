//go:build integration_test || all_tests

package test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/portfolio/internal/auth"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cases := map[string]struct {
		email, password string
		clientIP        string
		expectedStatus  int
		expectCookie    bool
	}{
		"good creds": {
			email:          testAdminEmail,
			password:       testAdminPassword,
			clientIP:       "10.0.1.1",
			expectedStatus: http.StatusSeeOther,
			expectCookie:   true,
		},
		"bad password": {
			email:          testAdminEmail,
			password:       "bad-password",
			clientIP:       "10.0.1.2",
			expectedStatus: http.StatusBadRequest,
		},
		"unknown email": {
			email:          "nobody@portfolio.test",
			password:       testAdminPassword,
			clientIP:       "10.0.1.3",
			expectedStatus: http.StatusBadRequest,
		},
		"empty form": {
			clientIP:       "10.0.1.4",
			expectedStatus: http.StatusBadRequest,
		},
	}

	var failedBodies []string
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := s.postLogin(ctx, s.newClient(), tc.email, tc.password, tc.clientIP)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			cookie := sessionCookie(resp)
			if !tc.expectCookie {
				assert.Nil(t, cookie)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				failedBodies = append(failedBodies, string(body))
				return
			}

			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, 3600, cookie.MaxAge)
			assert.Equal(t, "/admin/", resp.Header.Get("Location"))
		})
	}

	// failed attempts must not tell each other apart
	require.NotEmpty(t, failedBodies)
	for _, body := range failedBodies[1:] {
		assert.Equal(t, failedBodies[0], body)
	}
}

func (s *IntegrationTestSuite) TestLogin_RateLimited() {
	t := s.T()
	ctx := context.Background()
	client := s.newClient()

	var last *http.Response
	for i := 0; i < 6; i++ {
		last = s.postLogin(ctx, client, testAdminEmail, "bad-password", "10.0.2.1")
		last.Body.Close()
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))

	// other clients are not affected
	resp := s.postLogin(ctx, client, testAdminEmail, testAdminPassword, "10.0.2.2")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestLogout() {
	t := s.T()
	ctx := context.Background()
	client := s.loggedInClient(ctx, "10.0.3.1")

	status, _ := s.doJSON(ctx, client, http.MethodGet, "/api/admin/works", nil)
	require.Equal(t, http.StatusOK, status)

	for i := 0; i < 2; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverEndpoint+"/admin/logout", nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
		cookie := sessionCookie(resp)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	}

	status, body := s.doJSON(ctx, client, http.MethodGet, "/api/admin/works", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"detail":"not authorized"}`, string(body))
}

func (s *IntegrationTestSuite) TestDeactivatedAdminLosesSession() {
	t := s.T()
	ctx := context.Background()
	client := s.loggedInClient(ctx, "10.0.4.1")

	repo := auth.NewRepo(s.DB)
	admin, err := repo.FindActiveAdminByEmail(ctx, testAdminEmail)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, admin.ID, false))
	defer func() {
		require.NoError(t, repo.SetActive(ctx, admin.ID, true))
	}()

	status, _ := s.doJSON(ctx, client, http.MethodGet, "/api/admin/works", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverEndpoint+"/admin/", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}
