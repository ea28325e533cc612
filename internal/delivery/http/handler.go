package http

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
)

// productsPageSize caps the /products listing
const productsPageSize = 50

// Resolver is the use-case surface the handlers depend on
type Resolver interface {
	Resolve(ctx context.Context, imageRef string) (*domain.Product, error)
	Snapshot(ctx context.Context) domain.CatalogStatus
	Refresh(ctx context.Context) domain.RefreshResult
	Products(ctx context.Context, limit int) []domain.Product
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver    Resolver
	replyPrefix string
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver Resolver, replyPrefix string, log *zap.Logger) *Handler {
	return &Handler{
		resolver:    resolver,
		replyPrefix: replyPrefix,
		logger:      logger.OrNop(log).Named("http"),
	}
}

// twimlResponse is the messaging reply document. An empty Message sends nothing back.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "timepiece-backend",
		"version": "1.0.0",
	})
}

// Webhook handles inbound messaging webhooks. Only an image that resolves to an
// in-stock listing produces a reply; every other case answers with an empty document.
func (h *Handler) Webhook(c *gin.Context) {
	from := c.PostForm("From")
	numMedia, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("NumMedia")))
	mediaURL := strings.TrimSpace(c.PostForm("MediaUrl0"))

	log := h.logger.With(zap.String("from", from), zap.Int("num_media", numMedia))

	var reply twimlResponse
	if numMedia > 0 && mediaURL != "" {
		product, err := h.resolver.Resolve(c.Request.Context(), mediaURL)
		switch {
		case err == nil:
			reply.Message = h.replyPrefix + "\n" + product.URL
			log.Info("replying with listing", zap.String("url", product.URL))
		case errors.Is(err, domain.ErrNoMatch):
			log.Info("no listing for image", zap.Error(err))
		default:
			log.Error("resolve failed", zap.Error(err))
		}
	} else {
		log.Debug("message without media ignored")
	}

	c.XML(http.StatusOK, reply)
}

// Status reports whether the bot is up and what the catalog holds
func (h *Handler) Status(c *gin.Context) {
	status := h.resolver.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":          "Bot running",
		"products_cached": status.Count,
		"source":          status.Source,
		"website":         status.Website,
	})
}

// ListProducts returns the catalog size and its first page of products
func (h *Handler) ListProducts(c *gin.Context) {
	products := h.resolver.Products(c.Request.Context(), 0)
	total := len(products)
	if total > productsPageSize {
		products = products[:productsPageSize]
	}
	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"products": products,
	})
}

// RefreshCache forces a catalog re-extraction
func (h *Handler) RefreshCache(c *gin.Context) {
	result := h.resolver.Refresh(c.Request.Context())
	h.logger.Info("catalog refreshed on demand", zap.Int("products", result.Count))
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"products": result.Count,
	})
}
