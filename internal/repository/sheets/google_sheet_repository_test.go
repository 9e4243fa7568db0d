package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

func TestReplaceRangeClearsThenWrites(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		rows  [][]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &body)
			rows = body.Values
			if r.URL.Query().Get("valueInputOption") != "RAW" {
				t.Errorf("expected RAW input, got %q", r.URL.RawQuery)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	repo, err := newRepository(context.Background(), "sheet-1", nil,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}

	err = repo.ReplaceRange(context.Background(), "Inventory!A:I", [][]interface{}{
		{"ID", "Nazwa"},
		{int64(7), "Copper pipe"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.WriteRow(context.Background(), "Reports!A:D", []interface{}{"2024-05-06", 1}); err != nil {
		t.Fatalf("write row: %v", err)
	}

	if len(calls) != 3 {
		t.Fatalf("expected clear, update and append calls, got %v", calls)
	}
	if !strings.HasPrefix(calls[0], "POST ") || !strings.HasSuffix(calls[0], ":clear") {
		t.Errorf("expected clear first, got %s", calls[0])
	}
	if !strings.HasPrefix(calls[1], "PUT ") {
		t.Errorf("expected update second, got %s", calls[1])
	}
	if !strings.HasSuffix(calls[2], ":append") {
		t.Errorf("expected append last, got %s", calls[2])
	}
	if len(rows) != 2 || rows[1][1] != "Copper pipe" {
		t.Errorf("unexpected written rows %v", rows)
	}

	if err := repo.ReplaceRange(context.Background(), "", nil); err == nil {
		t.Error("expected empty range to fail")
	}
}
