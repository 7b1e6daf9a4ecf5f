package cartsync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront-service/internal/entity"

	"github.com/go-resty/resty/v2"
)

type cartResponse struct {
	Success bool              `json:"success"`
	Cart    []entity.CartLine `json:"cart"`
	Version int64             `json:"version"`
	Error   string            `json:"error"`
}

type saveRequest struct {
	UserID  string            `json:"userId"`
	Items   []entity.CartLine `json:"items"`
	Version int64             `json:"version"`
}

// TokenSource returns the bearer token of the identity currently signed in.
type TokenSource func() string

// HTTPBackend talks to the storefront cart endpoints.
type HTTPBackend struct {
	client *resty.Client
	token  TokenSource
}

// NewHTTPBackend returns a backend for the API at baseURL. Every request
// asks token for the bearer token, so a session that switches identity
// authenticates as the new user.
func NewHTTPBackend(baseURL string, token TokenSource) *HTTPBackend {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)
	return &HTTPBackend{client: client, token: token}
}

// StaticToken is a TokenSource that always returns token.
func StaticToken(token string) TokenSource {
	return func() string { return token }
}

func (b *HTTPBackend) request(ctx context.Context) *resty.Request {
	r := b.client.R().SetContext(ctx)
	if b.token != nil {
		if tok := b.token(); tok != "" {
			r.SetAuthToken(tok)
		}
	}
	return r
}

func (b *HTTPBackend) Load(ctx context.Context, userID string) (Snapshot, error) {
	var out cartResponse
	resp, err := b.request(ctx).
		SetQueryParam("userId", userID).
		SetResult(&out).
		SetError(&out).
		Get("/api/cart")
	if err != nil {
		return Snapshot{}, err
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return Snapshot{Lines: out.Cart, Version: out.Version}, nil
	case http.StatusNotFound:
		return Snapshot{}, ErrNoCart
	default:
		return Snapshot{}, responseError(resp, out.Error)
	}
}

func (b *HTTPBackend) Save(ctx context.Context, userID string, lines []entity.CartLine, version int64) error {
	var out cartResponse
	resp, err := b.request(ctx).
		SetBody(saveRequest{UserID: userID, Items: lines, Version: version}).
		SetError(&out).
		Post("/api/cart")
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrStaleSave
	default:
		return responseError(resp, out.Error)
	}
}

// Clear empties the stored cart of userID.
func (b *HTTPBackend) Clear(ctx context.Context, userID string) error {
	var out cartResponse
	resp, err := b.request(ctx).
		SetQueryParam("userId", userID).
		SetError(&out).
		Delete("/api/cart")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return responseError(resp, out.Error)
	}
	return nil
}

func responseError(resp *resty.Response, msg string) error {
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("cart api %s %s: %d %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), msg)
}
