package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/shopping"
)

// ShoppingService manages the shared shopping list.
type ShoppingService interface {
	List(ctx context.Context) (shopping.List, error)
	Add(ctx context.Context, label string) (models.ShoppingItem, error)
	Toggle(ctx context.Context, id int64) (models.ShoppingItem, error)
	Remove(ctx context.Context, id int64) error
}

// ShoppingHandler serves the shopping list API.
type ShoppingHandler struct {
	svc    ShoppingService
	logger *zap.Logger
}

// NewShoppingHandler constructs the HTTP handler adapter.
func NewShoppingHandler(svc ShoppingService, logger *zap.Logger) *ShoppingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShoppingHandler{svc: svc, logger: logger}
}

type shoppingItemRequest struct {
	Label string `json:"label" binding:"required"`
}

func (h *ShoppingHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list.LowStock == nil {
		list.LowStock = []models.Product{}
	}
	if list.Custom == nil {
		list.Custom = []models.ShoppingItem{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *ShoppingHandler) Add(c *gin.Context) {
	var req shoppingItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "label is required")
		return
	}
	item, err := h.svc.Add(c.Request.Context(), req.Label)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ShoppingHandler) Toggle(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	item, err := h.svc.Toggle(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ShoppingHandler) Remove(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "item id must be a positive integer")
		return 0, false
	}
	return id, true
}
