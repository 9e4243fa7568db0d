package handlers

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/pkg/qr"
)

// LabelTemplateName is the template the label sheet renders with.
const LabelTemplateName = "labels.html"

const labelQRSize = 160

const labelPage = `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 8mm; }
.sheet { display: flex; flex-wrap: wrap; gap: 4mm; }
.label { width: 48mm; border: 1px dashed #999; padding: 2mm; text-align: center; page-break-inside: avoid; }
.label img { width: 36mm; height: 36mm; }
.name { font-weight: bold; font-size: 10pt; }
.meta { font-size: 8pt; color: #444; }
@media print { .label { border-color: #ddd; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if not .Labels}}<p>Brak produktów.</p>{{end}}
<div class="sheet">
{{range .Labels}}<div class="label">
<img src="{{.QR}}" alt="{{.ID}}">
<div class="name">{{.Name}}</div>
<div class="meta">#{{.ID}}{{if .Dimension}} · {{.Dimension}}{{end}} · {{.Unit}}</div>
</div>
{{end}}</div>
</body>
</html>`

// LabelTemplate returns the parsed label sheet template for the engine.
func LabelTemplate() *template.Template {
	return template.Must(template.New(LabelTemplateName).Parse(labelPage))
}

type labelView struct {
	ID        int64
	Name      string
	Dimension string
	Unit      models.Unit
	QR        template.URL
}

// LabelHandler renders printable QR label sheets.
type LabelHandler struct {
	catalog Catalog
	qr      qr.Renderer
	logger  *zap.Logger
}

// NewLabelHandler constructs the HTTP handler adapter.
func NewLabelHandler(catalog Catalog, renderer qr.Renderer, logger *zap.Logger) *LabelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = qr.PNGRenderer{}
	}
	return &LabelHandler{catalog: catalog, qr: renderer, logger: logger}
}

// Sheet renders labels for the products selected by category, subcategory
// and dimension query parameters.
func (h *LabelHandler) Sheet(c *gin.Context) {
	category := c.Query("category")
	subcategory := c.Query("subcategory")
	dimension := c.Query("dimension")

	products, err := h.catalog.Labels(c.Request.Context(), category, subcategory, dimension)
	if err != nil {
		h.logger.Error("failed loading label products", zap.Error(err))
		c.String(http.StatusBadGateway, "unable to load products")
		return
	}

	labels := make([]labelView, 0, len(products))
	for _, p := range products {
		src, err := qr.DataURL(h.qr, strconv.FormatInt(p.ID, 10), labelQRSize)
		if err != nil {
			h.logger.Error("failed rendering label", zap.Int64("product_id", p.ID), zap.Error(err))
			c.String(http.StatusInternalServerError, "unable to render labels")
			return
		}
		var dim string
		if p.Dimension != nil {
			dim = *p.Dimension
		}
		labels = append(labels, labelView{ID: p.ID, Name: p.Name, Dimension: dim, Unit: p.Unit, QR: template.URL(src)})
	}

	c.HTML(http.StatusOK, LabelTemplateName, gin.H{
		"Title":  sheetTitle(category, subcategory, dimension),
		"Labels": labels,
	})
}

func sheetTitle(parts ...string) string {
	var named []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			named = append(named, p)
		}
	}
	if len(named) == 0 {
		return "Etykiety"
	}
	return "Etykiety: " + strings.Join(named, " / ")
}
