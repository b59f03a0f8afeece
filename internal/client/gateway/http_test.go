package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpavel/songsync/internal/client/models"
	"github.com/dpavel/songsync/internal/logging"
)

func newGateway(t *testing.T, handler http.Handler) *HTTPGateway {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewHTTPGateway(ts.URL, logging.NewDiscard())
}

func TestLogin_SendsCredentialsAndReturnsToken(t *testing.T) {
	var gotBody loginRequest
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(loginResponse{Token: "tok-1"})
	}))

	token, err := g.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, loginRequest{Username: "alice", Password: "secret"}, gotBody)
}

func TestLogin_BadCredentials(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := g.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestFetchAll_SendsBearerToken(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/song", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]models.Song{
			{ID: "1", Text: "a", Length: 60, Date: "2020-01-01"},
			{ID: "2", Text: "b", Length: 90, Date: "2020-01-02", Liked: true},
		})
	}))

	songs, err := g.FetchAll(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "a", songs[0].Text)
	assert.True(t, songs[1].Liked)
}

func TestCreate_PostsRecordWithoutID(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/song", r.URL.Path)

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.NotContains(t, in, "_id")

		var out models.Song
		data, _ := json.Marshal(in)
		require.NoError(t, json.Unmarshal(data, &out))
		out.ID = "server-1"
		_ = json.NewEncoder(w).Encode(out)
	}))

	created, err := g.Create(context.Background(), "tok", models.Song{Text: "new", Length: 120, Date: "2021-05-05"})
	require.NoError(t, err)
	assert.Equal(t, "server-1", created.ID)
	assert.Equal(t, "new", created.Text)
}

func TestUpdate_PutsRecordUnderItsID(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/song/abc", r.URL.Path)

		var in models.Song
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(in)
	}))

	updated, err := g.Update(context.Background(), "tok", models.Song{ID: "abc", Text: "edited", Length: 10, Date: "d"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
}

func TestUpdate_UnknownID(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := g.Update(context.Background(), "tok", models.Song{ID: "ghost"})
	require.ErrorIs(t, err, ErrRejected)
}

func TestRequests_ServerDown_MapsToErrUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // deliberately unreachable
	g := NewHTTPGateway(ts.URL, logging.NewDiscard())
	ctx := context.Background()

	_, err := g.FetchAll(ctx, "tok")
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = g.Create(ctx, "tok", models.Song{Text: "x"})
	require.ErrorIs(t, err, ErrUnavailable)

	require.ErrorIs(t, g.Ping(ctx), ErrUnavailable)
}

func TestPing_HealthEndpoint(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, g.Ping(context.Background()))
}
