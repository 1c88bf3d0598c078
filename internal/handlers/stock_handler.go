package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/report"
	"go-pos-billing/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type StockRequest struct {
	Name       string           `json:"name" binding:"required"`
	Variant    string           `json:"variant"`
	CategoryID uint             `json:"category_id" binding:"required"`
	Price      *decimal.Decimal `json:"price" binding:"required"`
	Quantity   *int             `json:"quantity" binding:"required,min=0"`
}

// StockEditRequest is the partial edit form; omitted fields are left alone.
type StockEditRequest struct {
	Name       *string          `json:"name"`
	Variant    *string          `json:"variant"`
	CategoryID *uint            `json:"category_id"`
	Price      *decimal.Decimal `json:"price"`
	Quantity   *int             `json:"quantity" binding:"omitempty,min=0"`
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// readFailed serves a failed listing as an empty list with the error attached.
func readFailed(err error) (string, bool) {
	var re *database.ReadError
	if errors.As(err, &re) {
		return re.Error(), true
	}
	return "", false
}

// --- GET: /api/stock?q=cone&category_id=2 ---
func (h *Handler) ListStock(c *gin.Context) {
	filter := database.StockFilter{Query: c.Query("q")}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		filter.CategoryID = uint(id)
	}

	items, err := h.store.ListStock(c.Request.Context(), filter)
	if msg, ok := readFailed(err); ok {
		c.JSON(http.StatusOK, gin.H{"items": []models.StockItem{}, "error": msg})
		return
	}
	if err != nil {
		h.fail(c, "ListStock", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) GetStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.store.GetStock(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetStock", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// --- POST: /api/stock ---
func (h *Handler) CreateStock(c *gin.Context) {
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required and price cannot be negative"})
		return
	}
	if !h.categoryExists(c, req.CategoryID) {
		return
	}

	item := models.StockItem{
		Name:       name,
		Variant:    strings.TrimSpace(req.Variant),
		CategoryID: req.CategoryID,
		Price:      *req.Price,
		Quantity:   *req.Quantity,
	}
	if err := h.store.CreateStock(c.Request.Context(), &item); err != nil {
		h.fail(c, "CreateStock", err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// --- PUT: /api/stock/:id ---
func (h *Handler) UpdateStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StockEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		req.Name = &trimmed
	}
	if req.Price != nil && req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}
	if req.CategoryID != nil && !h.categoryExists(c, *req.CategoryID) {
		return
	}

	item, err := h.store.UpdateStock(c.Request.Context(), id, database.StockUpdate{
		Name:       req.Name,
		Variant:    req.Variant,
		CategoryID: req.CategoryID,
		Price:      req.Price,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.fail(c, "UpdateStock", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully", "item": item})
}

// --- DELETE: /api/stock/:id ---
func (h *Handler) DeleteStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteStock(c.Request.Context(), id); err != nil {
		h.fail(c, "DeleteStock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock item deleted successfully"})
}

// --- GET: /api/stock/summary ---
// Shelf value and low-stock count for the inventory page header.
func (h *Handler) StockSummary(c *gin.Context) {
	items, err := h.store.ListStock(c.Request.Context(), database.StockFilter{})
	resp := gin.H{}
	if msg, ok := readFailed(err); ok {
		items = nil
		resp["error"] = msg
	} else if err != nil {
		h.fail(c, "StockSummary", err)
		return
	}

	summary := report.SummarizeStock(items, h.lowStock)
	resp["summary"] = summary
	resp["total_value_display"] = utils.FormatINR(summary.TotalValue)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if msg, ok := readFailed(err); ok {
		c.JSON(http.StatusOK, gin.H{"categories": []models.Category{}, "error": msg})
		return
	}
	if err != nil {
		h.fail(c, "ListCategories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	category := models.Category{Name: strings.TrimSpace(req.Name)}
	if err := h.store.CreateCategory(c.Request.Context(), &category); err != nil {
		h.fail(c, "CreateCategory", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) categoryExists(c *gin.Context, id uint) bool {
	_, err := h.store.GetCategory(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return false
	}
	if err != nil {
		h.fail(c, "categoryExists", err)
		return false
	}
	return true
}
