// Package client is a Go client for the collab-notes-server API: REST calls
// for durable state, a websocket session for presence and live edits, and a
// debouncer so callers persist content only after typing pauses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"collab-notes-server/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the session token obtained by Login.
func (c *Client) Token() string {
	return c.token
}

// Login performs the login-or-register call and stores the session token for
// the websocket handshake.
func (c *Client) Login(ctx context.Context, username string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/users/login", domain.LoginRequest{Username: username}, &resp)
	if err != nil {
		return nil, err
	}

	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Users(ctx context.Context) ([]*domain.UserResponse, error) {
	var users []*domain.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Notes(ctx context.Context, query *domain.ListNotesQuery) ([]*domain.NoteResponse, error) {
	path := "/api/notes"
	if query != nil {
		params := url.Values{}
		if query.UserID != "" {
			params.Set("userId", query.UserID)
		}
		if query.Tag != "" {
			params.Set("tag", query.Tag)
		}
		if query.Search != "" {
			params.Set("search", query.Search)
		}
		if query.Sort != "" {
			params.Set("sort", query.Sort)
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var notes []*domain.NoteResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) Note(ctx context.Context, id string) (*domain.NoteResponse, error) {
	var note domain.NoteResponse
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+id, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) CreateNote(ctx context.Context, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	var note domain.NoteResponse
	if err := c.do(ctx, http.MethodPost, "/api/notes", req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, req *domain.UpdateNoteRequest) (*domain.NoteResponse, error) {
	var note domain.NoteResponse
	if err := c.do(ctx, http.MethodPut, "/api/notes/"+id, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) DeleteNote(ctx context.Context, id, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+id, domain.DeleteNoteRequest{UserID: userID}, nil)
}

// APIError carries the server's {"message": ...} body alongside the status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
