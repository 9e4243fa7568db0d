package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/inventory"
	"github.com/mamadbah2/stockroom/internal/service/stock"
	"github.com/mamadbah2/stockroom/internal/users"
	"github.com/mamadbah2/stockroom/pkg/qr"
)

// Catalog is the inventory view the handlers read from.
type Catalog interface {
	Load(ctx context.Context) error
	LoadedAt() time.Time
	FilterAndGroup(query string) inventory.Result
	CategoryOptions() inventory.Options
	Suggest(ctx context.Context, name string) ([]models.Product, error)
	Labels(ctx context.Context, category, subcategory, dimension string) ([]models.Product, error)
}

// ProductService covers reading and editing product records.
type ProductService interface {
	Get(ctx context.Context, id int64) (models.Product, error)
	Create(ctx context.Context, draft models.ProductDraft, actor string) (models.Product, error)
	Update(ctx context.Context, id int64, draft models.ProductDraft, actor string) (models.Product, error)
	History(ctx context.Context, id int64) ([]models.Operation, error)
}

// StockService moves stock.
type StockService interface {
	ApplyAdjustment(ctx context.Context, adj stock.Adjustment) (stock.Result, error)
	QuickAdjust(ctx context.Context, productID int64, amount float64, actor string) (stock.Result, error)
}

// ProductHandler serves the inventory API.
type ProductHandler struct {
	catalog  Catalog
	products ProductService
	stock    StockService
	users    *users.Directory
	qr       qr.Renderer
	logger   *zap.Logger
}

// NewProductHandler constructs the HTTP handler adapter.
func NewProductHandler(catalog Catalog, products ProductService, stockSvc StockService, directory *users.Directory, renderer qr.Renderer, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = qr.PNGRenderer{}
	}
	return &ProductHandler{
		catalog:  catalog,
		products: products,
		stock:    stockSvc,
		users:    directory,
		qr:       renderer,
		logger:   logger,
	}
}

type listResponse struct {
	inventory.Result
	Stale bool `json:"stale"`
}

type adjustmentRequest struct {
	Kind  models.OperationKind `json:"kind" binding:"required"`
	Delta float64              `json:"delta"`
	Notes string               `json:"notes"`
}

type quickRequest struct {
	Amount float64 `json:"amount"`
}

type scanRequest struct {
	Payload string `json:"payload"`
}

type operationView struct {
	models.Operation
	ActorName string `json:"actor_name"`
}

// List refreshes the catalog and returns the filtered, grouped products.
// A failed refresh serves the previous snapshot marked as stale.
func (h *ProductHandler) List(c *gin.Context) {
	h.search(c, c.Query("q"))
}

// Scan treats a decoded QR payload as a search query.
func (h *ProductHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	query, err := qr.DecodedPayload(req.Payload).Scan(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.search(c, query)
}

func (h *ProductHandler) search(c *gin.Context, query string) {
	stale := false
	if err := h.catalog.Load(c.Request.Context()); err != nil {
		if h.catalog.LoadedAt().IsZero() {
			respondError(c, h.logger, err)
			return
		}
		stale = true
	}
	c.JSON(http.StatusOK, listResponse{Result: h.catalog.FilterAndGroup(query), Stale: stale})
}

// Options lists known categories and subcategories.
func (h *ProductHandler) Options(c *gin.Context) {
	if h.catalog.LoadedAt().IsZero() {
		if err := h.catalog.Load(c.Request.Context()); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}
	c.JSON(http.StatusOK, h.catalog.CategoryOptions())
}

// Suggest returns existing products with a similar name.
func (h *ProductHandler) Suggest(c *gin.Context) {
	found, err := h.catalog.Suggest(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if found == nil {
		found = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": found})
}

// Get returns one product.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create adds a product.
func (h *ProductHandler) Create(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "name and category are required")
		return
	}
	product, err := h.products.Create(c.Request.Context(), draft, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.refresh(c)
	c.JSON(http.StatusCreated, product)
}

// Update replaces the editable fields of a product.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "name and category are required")
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, draft, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.refresh(c)
	c.JSON(http.StatusOK, product)
}

// History lists the latest stock operations of a product with display names.
func (h *ProductHandler) History(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	ops, err := h.products.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	views := make([]operationView, 0, len(ops))
	for _, op := range ops {
		views = append(views, operationView{Operation: op, ActorName: h.users.DisplayName(op.Actor)})
	}
	c.JSON(http.StatusOK, gin.H{"operations": views})
}

// QRCode renders the product's label code as PNG.
func (h *ProductHandler) QRCode(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	png, err := h.qr.Render(strconv.FormatInt(id, 10), size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// Adjust records a consumption or receipt.
func (h *ProductHandler) Adjust(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "kind and delta are required")
		return
	}
	result, err := h.stock.ApplyAdjustment(c.Request.Context(), stock.Adjustment{
		ProductID: id,
		Kind:      req.Kind,
		Delta:     req.Delta,
		Actor:     actor(c),
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.refresh(c)
	c.JSON(http.StatusOK, result)
}

// Quick applies a signed amount from the list view.
func (h *ProductHandler) Quick(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req quickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "amount is required")
		return
	}
	result, err := h.stock.QuickAdjust(c.Request.Context(), id, req.Amount, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.refresh(c)
	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) refresh(c *gin.Context) {
	if err := h.catalog.Load(c.Request.Context()); err != nil {
		h.logger.Warn("catalog refresh after write failed", zap.Error(err))
	}
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "product id must be a positive integer")
		return 0, false
	}
	return id, true
}
