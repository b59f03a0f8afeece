package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dpavel/songsync/internal/client/models"
	"github.com/dpavel/songsync/internal/logging"
)

// HTTPGateway talks to the record store over its REST API.
type HTTPGateway struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewHTTPGateway returns a gateway for the server at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewHTTPGateway(baseURL string, logger logging.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (g *HTTPGateway) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := g.send(ctx, http.MethodPost, g.baseURL+"/api/auth/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: bad login response: %v", ErrRejected, err)
	}
	return out.Token, nil
}

// FetchAll retrieves the full remote record list.
func (g *HTTPGateway) FetchAll(ctx context.Context, token string) ([]models.Song, error) {
	resp, err := g.send(ctx, http.MethodGet, g.baseURL+"/api/song", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var songs []models.Song
	if err := json.NewDecoder(resp.Body).Decode(&songs); err != nil {
		return nil, fmt.Errorf("%w: bad record list: %v", ErrRejected, err)
	}
	return songs, nil
}

// Create posts a record without an id; the server assigns one.
func (g *HTTPGateway) Create(ctx context.Context, token string, song models.Song) (models.Song, error) {
	return g.push(ctx, http.MethodPost, g.baseURL+"/api/song", token, song)
}

// Update replaces the remote record with the given one, keyed by its id.
func (g *HTTPGateway) Update(ctx context.Context, token string, song models.Song) (models.Song, error) {
	return g.push(ctx, http.MethodPut, g.baseURL+"/api/song/"+song.ID, token, song)
}

func (g *HTTPGateway) push(ctx context.Context, method, url, token string, song models.Song) (models.Song, error) {
	body, err := models.EncodeSong(song)
	if err != nil {
		return models.Song{}, err
	}

	resp, err := g.send(ctx, method, url, token, body)
	if err != nil {
		return models.Song{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return models.Song{}, err
	}

	var out models.Song
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Song{}, fmt.Errorf("%w: bad record response: %v", ErrRejected, err)
	}
	return out, nil
}

// Ping probes server reachability. Used as the connectivity signal.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	resp, err := g.send(ctx, http.MethodGet, g.baseURL+"/api/health", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

func (g *HTTPGateway) send(ctx context.Context, method, url, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: unexpected status %s", ErrRejected, resp.Status)
	}
}
