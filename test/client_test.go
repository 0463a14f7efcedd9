//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/2beens/portfolio/internal/auth"
)

// newClient keeps cookies like a browser does but never follows redirects,
// so tests can assert on them.
func (s *IntegrationTestSuite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *IntegrationTestSuite) postLogin(ctx context.Context, client *http.Client, email, password, clientIP string) *http.Response {
	form := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+"/admin/login", strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientIP != "" {
		req.Header.Set("X-Real-Ip", clientIP)
	}

	resp, err := client.Do(req)
	s.Require().NoError(err)
	return resp
}

// loggedInClient returns a client holding a fresh admin session.
func (s *IntegrationTestSuite) loggedInClient(ctx context.Context, clientIP string) *http.Client {
	client := s.newClient()
	resp := s.postLogin(ctx, client, testAdminEmail, testAdminPassword, clientIP)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
	s.Require().NotNil(sessionCookie(resp))
	return client
}

func (s *IntegrationTestSuite) doJSON(ctx context.Context, client *http.Client, method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	return resp.StatusCode, respBytes
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}
