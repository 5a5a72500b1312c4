package api

import (
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/syscoin/svcconsensus/internal/query"
	"github.com/syscoin/svcconsensus/internal/store"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// APIHandler exposes the C9 query surface and a small set of demonstration
// admin handlers over the service stores, mirroring the teacher's
// APIHandler/SetupRouter split in internal/api/routes.go.
type APIHandler struct {
	Store   store.Store
	Query   *query.Engine
	Hub     *Hub
}

// SetupRouter wires the public query endpoints, the realtime stream, and
// the bearer-token-protected admin create-handlers.
func SetupRouter(st store.Store, q *query.Engine, hub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("SYSCOIN_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{Store: st, Query: q, Hub: hub}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", hub.Subscribe)

		pub.GET("/aliases/search", handler.handleAliasSearch)
		pub.GET("/aliases/:name", handler.handleGetAlias)
		pub.GET("/aliases/:name/history", handler.handleAliasHistory)

		pub.GET("/offers/search", handler.handleOfferSearch)
		pub.GET("/offers/category/:category", handler.handleOffersByCategory)
		pub.GET("/offers/:guid", handler.handleGetOffer)
		pub.GET("/offers/:guid/history", handler.handleOfferHistory)

		pub.GET("/certs/category/:category", handler.handleCertsByCategory)
		pub.GET("/owners/:alias", handler.handleOwnerListing)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(AuthMiddleware())
	admin.Use(NewRateLimiter(30, 5).Middleware())
	{
		admin.POST("/aliases", handler.handleCreateAlias)
		admin.POST("/offers", handler.handleCreateOffer)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"tip":    h.Query.Tip,
	})
}

func (h *APIHandler) handleAliasSearch(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern query parameter is required"})
		return
	}
	safeSearch := c.DefaultQuery("safeSearch", "true") != "false"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	aliases, err := h.Query.AliasesByRegex(c.Request.Context(), pattern, safeSearch, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": aliases})
}

func (h *APIHandler) handleGetAlias(c *gin.Context) {
	name := c.Param("name")
	alias, ok := h.Store.GetAliasByName(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "alias not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alias})
}

func (h *APIHandler) handleAliasHistory(c *gin.Context) {
	name := c.Param("name")
	alias, ok := h.Store.GetAliasByName(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "alias not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.Query.AliasHistory(alias.GUID)})
}

func (h *APIHandler) handleOfferSearch(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern query parameter is required"})
		return
	}
	safeSearch := c.DefaultQuery("safeSearch", "true") != "false"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	offers, err := h.Query.OffersByRegex(c.Request.Context(), pattern, safeSearch, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offers})
}

func (h *APIHandler) handleOffersByCategory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offers, err := h.Query.OffersByCategory(c.Request.Context(), c.Param("category"), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offers})
}

func (h *APIHandler) handleCertsByCategory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	certs, err := h.Query.CertsByCategory(c.Request.Context(), c.Param("category"), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": certs})
}

func (h *APIHandler) handleGetOffer(c *gin.Context) {
	guid, err := hexGUID(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guid"})
		return
	}
	offer, ok := h.Store.GetOffer(guid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offer})
}

func (h *APIHandler) handleOfferHistory(c *gin.Context) {
	guid, err := hexGUID(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.Query.OfferHistory(guid)})
}

func (h *APIHandler) handleOwnerListing(c *gin.Context) {
	snap, err := h.Query.OwnerListing(c.Request.Context(), c.Param("alias"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// handleCreateAlias seeds a fixture alias directly into the store, for
// demonstrating the query surface without driving a real chain
// transaction through the validator (SPEC_FULL §2 "Identifiers": synthetic
// GUIDs via google/uuid in admin create-handlers).
func (h *APIHandler) handleCreateAlias(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		PublicValue string `json:"publicValue"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, exists := h.Store.GetAliasByName(req.Name); exists {
		c.JSON(http.StatusConflict, gin.H{"error": "alias already exists"})
		return
	}

	guid := uuid.New()
	a := &types.Alias{
		Name:        req.Name,
		GUID:        guid[:],
		PublicValue: []byte(req.PublicValue),
		Renewal:     1,
		Height:      h.Query.Tip,
	}
	if err := h.Store.PutAlias(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": a})
}

func (h *APIHandler) handleCreateOffer(c *gin.Context) {
	var req struct {
		Alias    string `json:"alias" binding:"required"`
		Title    string `json:"title" binding:"required"`
		Category string `json:"category"`
		Price    int64  `json:"price"`
		Quantity int64  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.Store.GetAliasByName(req.Alias); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "controlling alias does not exist"})
		return
	}

	offerGUID := uuid.New()
	o := &types.Offer{
		GUID:     offerGUID[:],
		Alias:    req.Alias,
		Title:    req.Title,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
		Height:   h.Query.Tip,
	}
	if err := h.Store.PutOffer(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": o})
}

func hexGUID(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
