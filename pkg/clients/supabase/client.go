// Package supabase is a small client for the PostgREST and GoTrue endpoints
// of a Supabase project.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockroom/internal/config"
)

// Client talks to the record and auth APIs of one project.
type Client struct {
	rest *resty.Client
	auth *resty.Client
}

// NewClient builds a client. Record calls use the service key when one is
// configured and the anon key otherwise.
func NewClient(cfg config.SupabaseConfig) *Client {
	recordKey := cfg.ServiceKey
	if recordKey == "" {
		recordKey = cfg.AnonKey
	}

	rest := resty.New()
	rest.
		SetBaseURL(cfg.URL+"/rest/v1").
		SetHeader("apikey", recordKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", recordKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	auth := resty.New()
	auth.
		SetBaseURL(cfg.URL+"/auth/v1").
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{rest: rest, auth: auth}
}

// APIError is the error payload returned by either API.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details"`
	Hint        string `json:"hint"`
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
	ErrorName   string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	message := e.Message
	for _, alt := range []string{e.Msg, e.Description, e.ErrorName} {
		if message == "" {
			message = alt
		}
	}
	code := e.Code
	if code == "" {
		code = e.ErrorCode
	}
	return fmt.Sprintf("supabase api error: status=%d, code=%s, message=%s", e.Status, code, message)
}

// Select runs GET /{table} with PostgREST query parameters into out.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out any) error {
	apiErr := new(APIError)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(out).
		SetError(apiErr).
		Get("/" + table)
	return check(resp, err, apiErr, "select "+table)
}

// Insert posts body to /{table} and decodes the stored rows into out.
func (c *Client) Insert(ctx context.Context, table string, body any, out any) error {
	apiErr := new(APIError)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(out).
		SetError(apiErr).
		Post("/" + table)
	return check(resp, err, apiErr, "insert "+table)
}

// Update patches the rows matched by filter and decodes them into out. An
// empty result means no row matched.
func (c *Client) Update(ctx context.Context, table string, filter url.Values, body any, out any) error {
	apiErr := new(APIError)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(filter).
		SetBody(body).
		SetResult(out).
		SetError(apiErr).
		Patch("/" + table)
	return check(resp, err, apiErr, "update "+table)
}

// Delete removes the rows matched by filter and decodes them into out.
func (c *Client) Delete(ctx context.Context, table string, filter url.Values, out any) error {
	apiErr := new(APIError)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(filter).
		SetResult(out).
		SetError(apiErr).
		Delete("/" + table)
	return check(resp, err, apiErr, "delete "+table)
}

// User is the account record returned by the auth API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an issued access token.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	result := new(Session)
	apiErr := new(APIError)
	resp, err := c.auth.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(result).
		SetError(apiErr).
		Post("/token")
	if err := check(resp, err, apiErr, "sign in"); err != nil {
		return nil, err
	}
	return result, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	apiErr := new(APIError)
	resp, err := c.auth.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(apiErr).
		Post("/logout")
	return check(resp, err, apiErr, "sign out")
}

// ResetPasswordForEmail sends a recovery link that lands on redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	apiErr := new(APIError)
	req := c.auth.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetError(apiErr)
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}
	resp, err := req.Post("/recover")
	return check(resp, err, apiErr, "request password reset")
}

// UpdatePassword sets a new password for the session behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	result := new(User)
	apiErr := new(APIError)
	resp, err := c.auth.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{"password": password}).
		SetResult(result).
		SetError(apiErr).
		Put("/user")
	if err := check(resp, err, apiErr, "update password"); err != nil {
		return nil, err
	}
	return result, nil
}

func check(resp *resty.Response, err error, apiErr *APIError, action string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr.Status = resp.StatusCode()
		return fmt.Errorf("%s: %w", action, apiErr)
	}
	return nil
}
