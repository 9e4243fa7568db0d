package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/internal/service/products"
	"github.com/mamadbah2/stockroom/internal/service/stock"
	"github.com/mamadbah2/stockroom/pkg/clients/supabase"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &stock.ValidationError{Field: "delta", Reason: "must be positive"}, http.StatusBadRequest, CodeValidation},
		{"invalid product", fmt.Errorf("create: %w", models.ErrInvalidProduct), http.StatusBadRequest, CodeValidation},
		{"missing product", fmt.Errorf("%w: 9", products.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"insufficient", &stock.InsufficientStockError{ProductID: 1, Available: 1, Requested: 2}, http.StatusConflict, CodeInsufficientStock},
		{"concurrent", stock.ErrConcurrentUpdate, http.StatusConflict, CodeConcurrentUpdate},
		{"wrong state", auth.ErrWrongState, http.StatusUnauthorized, CodeUnauthenticated},
		{"disabled", auth.ErrDisabled, http.StatusNotImplemented, CodeDisabled},
		{"store failure", &stock.InfrastructureError{Step: "read product quantity", Err: errors.New("timeout")}, http.StatusBadGateway, CodeInfrastructure},
		{"backend rejection is not a credential error", fmt.Errorf("product 1: %w", &supabase.APIError{Status: http.StatusBadRequest}), http.StatusBadGateway, CodeInfrastructure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := statusOf(tc.err)
			if status != tc.status || code != tc.code {
				t.Errorf("expected %d %s, got %d %s", tc.status, tc.code, status, code)
			}
		})
	}
}

func TestRespondErrorHidesInfrastructureCause(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "backend failure",
			err:     fmt.Errorf("list products: %w", &supabase.APIError{Status: http.StatusBadRequest, Message: "relation produkty does not exist"}),
			status:  http.StatusBadGateway,
			message: infrastructureMessage,
		},
		{
			name:    "domain rejection",
			err:     &stock.InsufficientStockError{ProductID: 1, Available: 1, Requested: 2},
			status:  http.StatusConflict,
			message: "insufficient stock: product 1 has 1.00, requested 2.00",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/products", nil)

			respondError(c, zap.NewNop(), tc.err)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["message"] != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, body["message"])
			}
			if strings.Contains(w.Body.String(), "produkty") {
				t.Errorf("response leaks backend detail: %s", w.Body.String())
			}
		})
	}
}
