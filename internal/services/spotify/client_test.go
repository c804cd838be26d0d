package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, tokenStatus int) (*httptest.Server, *int) {
	t.Helper()
	pages := 0

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			io.WriteString(w, `{"error":"invalid_client"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})

	mux.HandleFunc("/v1/shows/show123/episodes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		pages++

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			fmt.Fprintf(w, `{"items":[
				{"id":"a","name":"Episode A","external_urls":{"spotify":"https://open.spotify.com/episode/a"}},
				null
			],"next":"%s/v1/shows/show123/episodes?limit=50&offset=50","total":2}`, srv.URL)
			return
		}
		io.WriteString(w, `{"items":[
			{"id":"b","name":"Episode B","external_urls":{"spotify":"https://open.spotify.com/episode/b"}}
		],"next":null,"total":2}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &pages
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(&config.SpotifyConfig{ClientID: "id", ClientSecret: "secret", ShowID: "show123"}, logrus.New(),
		WithAPIURL(srv.URL+"/v1"),
		WithTokenURL(srv.URL+"/token"),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestFetchCandidatesFollowsNext(t *testing.T) {
	srv, pages := newTestServer(t, http.StatusOK)
	c := newTestClient(t, srv)

	candidates, err := c.FetchCandidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *pages)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Episode A", candidates[0].Title)
	assert.Equal(t, "https://open.spotify.com/episode/b", candidates[1].URL)
}

func TestFetchCandidatesAuthFailure(t *testing.T) {
	srv, pages := newTestServer(t, http.StatusUnauthorized)
	c := newTestClient(t, srv)

	_, err := c.FetchCandidates(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrAuth))
	assert.Equal(t, 0, *pages)
}

func TestFetchCandidatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchCandidates(context.Background())

	var httpErr *services.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(nil, logrus.New())
	assert.True(t, errors.Is(err, config.ErrMissingConfig))
}

func TestIsEpisodeURL(t *testing.T) {
	assert.True(t, IsEpisodeURL("https://open.spotify.com/episode/1pCYF2Hh9auRtTCELuPK8e?si=x"))
	assert.False(t, IsEpisodeURL("http://open.spotify.com/episode/abc"))
	assert.False(t, IsEpisodeURL("https://open.spotify.com/show/abc"))
}
