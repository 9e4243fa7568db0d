package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mamadbah2/stockroom/internal/config"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestRecordCalls(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.Header.Get("apikey") != "service" || r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("expected service key headers, got %v", r.Header)
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `[{"id":7,"nazwa":"Copper pipe"}]`)
		case http.MethodPatch:
			if r.Header.Get("Prefer") != "return=representation" {
				t.Errorf("expected representation preference")
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["ilosc"] != 7.0 {
				t.Errorf("unexpected patch body %v", body)
			}
			writeJSON(w, http.StatusOK, `[]`)
		default:
			writeJSON(w, http.StatusBadRequest, `{"code":"PGRST102","message":"bad body"}`)
		}
	}))
	defer srv.Close()

	c := NewClient(config.SupabaseConfig{URL: srv.URL, AnonKey: "anon", ServiceKey: "service"})
	ctx := context.Background()

	var rows []map[string]any
	if err := c.Select(ctx, "produkty", url.Values{"id": {"eq.7"}}, &rows); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 || rows[0]["nazwa"] != "Copper pipe" {
		t.Errorf("unexpected rows %v", rows)
	}

	var updated []map[string]any
	if err := c.Update(ctx, "produkty", url.Values{"id": {"eq.7"}, "ilosc": {"eq.10"}}, map[string]any{"ilosc": 7}, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no matched rows, got %v", updated)
	}

	var inserted []map[string]any
	err := c.Insert(ctx, "produkty", map[string]any{}, &inserted)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "PGRST102" {
		t.Fatalf("expected API error, got %v", err)
	}

	if len(seen) != 3 || seen[0] != "GET /rest/v1/produkty?id=eq.7" {
		t.Errorf("unexpected requests %v", seen)
	}
}

func TestAuthCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("expected anon key, got %q", r.Header.Get("apikey"))
		}
		switch r.URL.Path {
		case "/auth/v1/token":
			if r.URL.Query().Get("grant_type") != "password" {
				t.Errorf("expected password grant")
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret1" {
				writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"access_token":"tok","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"alice@x.com"}}`)
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("expected bearer token on logout")
			}
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/recover":
			if r.URL.Query().Get("redirect_to") != "https://app/reset" {
				t.Errorf("expected redirect, got %q", r.URL.RawQuery)
			}
			writeJSON(w, http.StatusOK, `{}`)
		case "/auth/v1/user":
			writeJSON(w, http.StatusOK, `{"id":"u1","email":"alice@x.com"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(config.SupabaseConfig{URL: srv.URL, AnonKey: "anon"})
	ctx := context.Background()

	session, err := c.SignInWithPassword(ctx, "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.AccessToken != "tok" || session.User.Email != "alice@x.com" {
		t.Errorf("unexpected session %+v", session)
	}

	_, err = c.SignInWithPassword(ctx, "alice@x.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Description != "Invalid login credentials" {
		t.Errorf("expected credentials error, got %v", err)
	}

	if err := c.SignOut(ctx, "tok"); err != nil {
		t.Errorf("sign out: %v", err)
	}
	if err := c.ResetPasswordForEmail(ctx, "alice@x.com", "https://app/reset"); err != nil {
		t.Errorf("recover: %v", err)
	}
	if user, err := c.UpdatePassword(ctx, "tok", "newpass"); err != nil || user.ID != "u1" {
		t.Errorf("update password: %+v, %v", user, err)
	}
}
