// internal/interfaces/http/handlers/feed.go
package handlers

import (
	"encoding/csv"
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/pkg/apierror"
)

// FeedHandler serves the product feed in JSON, XML and CSV renderings
type FeedHandler struct {
	service CatalogService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(service CatalogService) *FeedHandler {
	return &FeedHandler{
		service: service,
	}
}

type feedItem struct {
	XMLName          xml.Name `json:"-" xml:"item"`
	ID               string   `json:"id" xml:"id"`
	Title            string   `json:"title" xml:"title"`
	Description      string   `json:"description" xml:"description"`
	Price            int64    `json:"price" xml:"price"`
	Currency         string   `json:"currency" xml:"currency"`
	RequiresShipping bool     `json:"requires_shipping" xml:"requires_shipping"`
	Availability     string   `json:"availability" xml:"availability"`
	ImageURL         string   `json:"image_url,omitempty" xml:"image_url,omitempty"`
	Permalink        string   `json:"permalink,omitempty" xml:"permalink,omitempty"`
}

type xmlFeed struct {
	XMLName xml.Name   `xml:"feed"`
	Items   []feedItem `xml:"item"`
}

// GetJSON handles GET /product-feed.json
func (h *FeedHandler) GetJSON(c *gin.Context) {
	items, ok := h.feedItems(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetXML handles GET /product-feed.xml
func (h *FeedHandler) GetXML(c *gin.Context) {
	items, ok := h.feedItems(c)
	if !ok {
		return
	}
	c.XML(http.StatusOK, xmlFeed{Items: items})
}

// GetCSV handles GET /product-feed.csv
func (h *FeedHandler) GetCSV(c *gin.Context) {
	items, ok := h.feedItems(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"id", "title", "description", "price", "currency", "requires_shipping", "availability", "image_url", "permalink"})
	for _, item := range items {
		w.Write([]string{
			item.ID,
			item.Title,
			item.Description,
			strconv.FormatInt(item.Price, 10),
			item.Currency,
			strconv.FormatBool(item.RequiresShipping),
			item.Availability,
			item.ImageURL,
			item.Permalink,
		})
	}
	w.Flush()
}

func (h *FeedHandler) feedItems(c *gin.Context) ([]feedItem, bool) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, apierror.Processing("Failed to build product feed."))
		return nil, false
	}

	items := make([]feedItem, 0, len(products))
	for _, p := range products {
		items = append(items, feedItem{
			ID:               p.ID,
			Title:            p.Title,
			Description:      p.Description,
			Price:            p.UnitPrice,
			Currency:         p.Currency,
			RequiresShipping: p.RequiresShipping,
			Availability:     availability(p),
			ImageURL:         p.ImageURL,
			Permalink:        p.Permalink,
		})
	}
	return items, true
}

func availability(p catalog.Product) string {
	if p.Stock > 0 {
		return "in_stock"
	}
	return "out_of_stock"
}
